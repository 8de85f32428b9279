// Package runtime implements the worker pool and epoch barrier (spec
// §4.1): a fixed-size pool of workers running the same operator graph
// (GALE or LEAF), fed by a Driver that advances epochs and syncs between
// batches. See DESIGN.md for how `sync`'s probe-driven contract is
// realized here as dispatch-then-wait-then-advance rather than a
// continuously stepped scheduler.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cascadeflow/crgp/internal/config"
	"github.com/cascadeflow/crgp/internal/crgperr"
	"github.com/cascadeflow/crgp/internal/model"
	"github.com/cascadeflow/crgp/internal/output"
	"github.com/cascadeflow/crgp/internal/partition"
	"github.com/cascadeflow/crgp/internal/reconstruct"
	"github.com/cascadeflow/crgp/internal/source"
)

// Runtime owns this process's local worker pool, the probe, and the
// output writer. One Runtime per process per run. The partition function
// is evaluated over the cluster-wide worker count (NumberOfWorkers *
// NumberOfProcesses); each process hosts a contiguous slice of that
// global worker index space starting at processID * NumberOfWorkers, so
// that the same partition(user) value means the same worker everywhere.
type Runtime struct {
	algorithm   config.Algorithm
	partitionFn partition.Func

	numWorkers    int // local: workers hosted by this process
	globalWorkers int // cluster-wide: numWorkers * numProcesses
	base          int // this process's first global worker index

	workers []*workerState
	probe   Probe
	writer  *output.Writer

	graphEpoch   uint64
	retweetEpoch uint64

	mesh *ClusterTransport // nil outside cluster mode

	log *slog.Logger
}

// New constructs a Runtime for the given configuration. If cfg describes
// a cluster deployment (NumberOfProcesses > 1), a ClusterTransport is
// attached; otherwise routing is purely in-process.
func New(cfg config.Configuration, writer *output.Writer, log *slog.Logger) (*Runtime, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.NumberOfWorkers < 1 {
		return nil, crgperr.New(crgperr.Runtime, fmt.Errorf("number of workers must be >= 1, got %d", cfg.NumberOfWorkers))
	}

	numProcesses := cfg.NumberOfProcesses
	if numProcesses < 1 {
		numProcesses = 1
	}

	partitionFn := partition.Mod

	rt := &Runtime{
		algorithm:     cfg.Algorithm,
		partitionFn:   partitionFn,
		numWorkers:    cfg.NumberOfWorkers,
		globalWorkers: cfg.NumberOfWorkers * numProcesses,
		base:          cfg.ProcessID * cfg.NumberOfWorkers,
		workers:       make([]*workerState, cfg.NumberOfWorkers),
		writer:        writer,
		log:           log,
	}

	for i := 0; i < cfg.NumberOfWorkers; i++ {
		global := rt.base + i
		w := &workerState{id: global}
		switch cfg.Algorithm {
		case config.GALE:
			w.gale = reconstruct.NewGALE(global, rt.globalWorkers, partitionFn).WithStrictComparison(cfg.StrictActivationComparison)
		case config.LEAF:
			w.leaf = reconstruct.NewLEAF().WithStrictComparison(cfg.StrictActivationComparison)
		default:
			return nil, crgperr.New(crgperr.Runtime, fmt.Errorf("unknown algorithm %q", cfg.Algorithm))
		}
		rt.workers[i] = w
	}

	if numProcesses > 1 {
		handlers := Handlers{
			OnFriendship:        rt.handleFriendship,
			OnPossibleInfluence: rt.handlePossibleInfluence,
		}
		switch cfg.Algorithm {
		case config.GALE:
			handlers.OnRetweetBroadcast = rt.handleRetweetBroadcast
		case config.LEAF:
			handlers.OnRetweetForLEAF = rt.handleRetweetForLEAF
		}
		mesh, err := NewClusterTransport(cfg, rt.globalWorkers, handlers)
		if err != nil {
			return nil, crgperr.New(crgperr.Runtime, err)
		}
		rt.mesh = mesh
	}

	return rt, nil
}

// Probe exposes the runtime's single probe point.
func (rt *Runtime) Probe() *Probe { return &rt.probe }

// NumWorkers reports the local worker pool size.
func (rt *Runtime) NumWorkers() int { return rt.numWorkers }

// owner returns the global worker index that owns user.
func (rt *Runtime) owner(user model.UserID) int {
	return rt.partitionFn(user, rt.globalWorkers)
}

// local translates a global worker index hosted by this process into an
// index into rt.workers; callers must have already checked ownsLocally.
func (rt *Runtime) local(global int) int { return global - rt.base }

func (rt *Runtime) ownsLocally(global int) bool {
	return global >= rt.base && global < rt.base+rt.numWorkers
}

// handleFriendship applies a graph record shipped to this process because
// it hosts the owning worker (ClusterTransport.Handlers.OnFriendship).
func (rt *Runtime) handleFriendship(global int, f model.Friendship) {
	rt.workers[rt.local(global)].addFriendship(f.User, f.Friends)
}

// handleRetweetBroadcast is GALE's cluster-mode retweet handler: every
// worker cluster-wide observes and emits against every Retweet regardless
// of which process's source produced it, matching the in-process
// broadcast topology processGALEBatch relies on.
func (rt *Runtime) handleRetweetBroadcast(r *model.Retweet) {
	for _, w := range rt.workers {
		w.gale.ObserveRetweet(r)
		w.gale.Emit(r, w.emit)
	}
}

// handleRetweetForLEAF is LEAF's cluster-mode retweet handler: a remote
// process addressed this process specifically because it hosts the
// Retweet's retweeter. It runs GeneratePossible against that worker's
// local friend store, then routes each candidate edge by influencer
// owner exactly as processLEAFBatch does for a Retweet read locally:
// filter-and-emit on this process if the influencer is local, otherwise
// cross the mesh again.
func (rt *Runtime) handleRetweetForLEAF(global int, r *model.Retweet) {
	w := rt.workers[rt.local(global)]
	for _, e := range w.leaf.GeneratePossible(r) {
		owner := rt.owner(e.Influencer)
		if rt.ownsLocally(owner) {
			iw := rt.workers[rt.local(owner)]
			if iw.leaf.Filter(e) {
				iw.emit(e)
			}
			continue
		}
		if rt.mesh != nil {
			_ = rt.mesh.PublishPossibleInfluence(context.Background(), owner, e)
		}
	}
}

// handlePossibleInfluence is LEAF's cluster-mode filter handler: a remote
// process routed this candidate edge here because it owns the candidate
// influencer.
func (rt *Runtime) handlePossibleInfluence(global int, e model.InfluenceEdge) {
	w := rt.workers[rt.local(global)]
	if w.leaf.Filter(e) {
		w.emit(e)
	}
}

// IngestGraph drains src (phase B), routing each record to the worker
// that owns its user, and returns the number of friendship records
// consumed. Only ever called on process 0 (spec §4.7): in cluster mode, a
// record owned by a worker hosted on a different process is shipped over
// the mesh.
func (rt *Runtime) IngestGraph(ctx context.Context, src source.GraphSource) (int64, error) {
	var count int64
	for {
		rec, ok, err := src.Next()
		if err != nil {
			return count, crgperr.New(crgperr.Source, err)
		}
		if !ok {
			break
		}
		count++
		w := rt.owner(rec.User)
		if !rt.ownsLocally(w) {
			if rt.mesh == nil {
				return count, crgperr.New(crgperr.Runtime, fmt.Errorf("runtime: worker %d not local and no cluster transport configured", w))
			}
			if err := rt.mesh.PublishFriendship(ctx, w, rec); err != nil {
				return count, crgperr.New(crgperr.Runtime, err)
			}
			continue
		}
		rt.workers[rt.local(w)].addFriendship(rec.User, rec.Friends)
	}
	rt.graphEpoch++
	rt.retweetEpoch = rt.graphEpoch
	rt.probe.advance(rt.graphEpoch)
	return count, nil
}

// ProcessRetweetBatch runs one epoch's worth of Retweets through
// whichever algorithm the runtime was built with, writes the resulting
// edges, and advances the probe frontier — the observable effect of
// `sync` for this batch (spec §4.1's pre/postcondition).
func (rt *Runtime) ProcessRetweetBatch(ctx context.Context, batch []*model.Retweet) (int64, error) {
	var emitted int64
	var err error

	if rt.mesh != nil && rt.algorithm == config.GALE {
		for _, r := range batch {
			if err := rt.mesh.BroadcastRetweet(ctx, r); err != nil {
				return 0, crgperr.New(crgperr.Worker, err)
			}
		}
	}

	switch rt.algorithm {
	case config.GALE:
		emitted, err = rt.processGALEBatch(batch)
	case config.LEAF:
		emitted, err = rt.processLEAFBatch(ctx, batch)
	default:
		err = fmt.Errorf("runtime: unknown algorithm %q", rt.algorithm)
	}
	if err != nil {
		return emitted, crgperr.New(crgperr.Worker, err)
	}

	rt.flushEpoch()
	rt.retweetEpoch++
	rt.graphEpoch = rt.retweetEpoch
	rt.probe.advance(rt.retweetEpoch)
	return emitted, nil
}

// processGALEBatch exploits GALE's broadcast topology: since every
// worker observes every Retweet, each worker's activation store is
// already a complete replica by the time it emits, so the whole batch
// can run independently per worker with no exchange at all.
func (rt *Runtime) processGALEBatch(batch []*model.Retweet) (int64, error) {
	var wg sync.WaitGroup
	counts := make([]int64, len(rt.workers))

	for i, w := range rt.workers {
		wg.Add(1)
		go func(w *workerState, count *int64) {
			defer wg.Done()
			for _, r := range batch {
				w.gale.ObserveRetweet(r)
				w.gale.Emit(r, func(e model.InfluenceEdge) {
					w.emit(e)
					*count++
				})
			}
		}(w, &counts[i])
	}
	wg.Wait()

	var total int64
	for _, c := range counts {
		total += c
	}
	return total, nil
}

// processLEAFBatch runs LEAF's two-stage pipeline with a real barrier
// between stages: every worker first generates its possible influences
// from the retweets it owns, then (once all workers are done) every
// possible influence is routed to the worker owning its candidate
// influencer for filtering.
func (rt *Runtime) processLEAFBatch(ctx context.Context, batch []*model.Retweet) (int64, error) {
	byOwner := make([][]*model.Retweet, len(rt.workers))
	for _, r := range batch {
		owner := rt.owner(r.User)
		if !rt.ownsLocally(owner) {
			// Retweets are fed from process 0's source, so a retweet whose
			// retweeter lives on another process must cross the mesh before
			// LEAF can generate its possible influences there.
			if rt.mesh != nil {
				if err := rt.mesh.PublishRetweetForLEAF(ctx, owner, r); err != nil {
					return 0, err
				}
			}
			continue
		}
		byOwner[rt.local(owner)] = append(byOwner[rt.local(owner)], r)
	}

	possible := make([][]model.InfluenceEdge, len(rt.workers))
	var wg sync.WaitGroup
	for i, w := range rt.workers {
		wg.Add(1)
		go func(i int, w *workerState) {
			defer wg.Done()
			for _, r := range byOwner[i] {
				possible[i] = append(possible[i], w.leaf.GeneratePossible(r)...)
			}
		}(i, w)
	}
	wg.Wait()

	byInfluencerOwner := make([][]model.InfluenceEdge, len(rt.workers))
	for _, edges := range possible {
		for _, e := range edges {
			owner := rt.owner(e.Influencer)
			if !rt.ownsLocally(owner) {
				if rt.mesh != nil {
					if err := rt.mesh.PublishPossibleInfluence(ctx, owner, e); err != nil {
						return 0, err
					}
				}
				continue
			}
			byInfluencerOwner[rt.local(owner)] = append(byInfluencerOwner[rt.local(owner)], e)
		}
	}

	var total int64
	var mu sync.Mutex
	wg = sync.WaitGroup{}
	for i, w := range rt.workers {
		wg.Add(1)
		go func(i int, w *workerState) {
			defer wg.Done()
			var local int64
			for _, e := range byInfluencerOwner[i] {
				if w.leaf.Filter(e) {
					w.emit(e)
					local++
				}
			}
			mu.Lock()
			total += local
			mu.Unlock()
		}(i, w)
	}
	wg.Wait()

	return total, nil
}

// flushEpoch collects every worker's accumulated edges and hands them to
// the writer, then clears each worker's buffer for the next epoch.
func (rt *Runtime) flushEpoch() {
	var all []model.InfluenceEdge
	for _, w := range rt.workers {
		all = append(all, w.drainEpoch()...)
	}
	rt.writer.WriteEpoch(all)
}

// Close tears down the cluster mesh, if any.
func (rt *Runtime) Close() error {
	if rt.mesh != nil {
		return rt.mesh.Close()
	}
	return nil
}
