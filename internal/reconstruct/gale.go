// Package reconstruct implements the two cascade-reconstruction operators
// named in spec §4.4 (GALE) and §4.5 (LEAF). Both operate on the
// per-worker LocalFriendStore and activation.Store; the runtime package
// wires them into the worker pool and epoch barrier that routes records
// between workers according to each algorithm's topology.
package reconstruct

import (
	"github.com/cascadeflow/crgp/internal/activation"
	"github.com/cascadeflow/crgp/internal/graphstore"
	"github.com/cascadeflow/crgp/internal/model"
	"github.com/cascadeflow/crgp/internal/partition"
)

// GALE implements Global Activations, Local Edges (spec §4.4). One
// instance lives on each worker; the activation store it holds reflects
// every Retweet in the stream (since Retweets are broadcast to every
// worker), while the friend store it holds only ever contains the users
// partitioned to this worker.
type GALE struct {
	friends     *graphstore.LocalFriendStore
	activations *activation.Store
	self        int
	workers     int
	partition   partition.Func
	strict      bool
}

// NewGALE constructs a GALE operator for worker index self out of workers
// total workers, using partitionFn to decide which worker owns a user.
// The activation predicate defaults to strict (`>`); use
// WithStrictComparison to opt into the `>=` alternative (spec §9).
func NewGALE(self, workers int, partitionFn partition.Func) *GALE {
	return &GALE{
		friends:     graphstore.New(),
		activations: activation.New(),
		self:        self,
		workers:     workers,
		partition:   partitionFn,
		strict:      true,
	}
}

// WithStrictComparison sets whether the activation predicate uses `>`
// (strict, true) or `>=` (false), and returns g for chaining.
func (g *GALE) WithStrictComparison(strict bool) *GALE {
	g.strict = strict
	return g
}

func (g *GALE) after(t, activatedAt uint64) bool {
	if g.strict {
		return t > activatedAt
	}
	return t >= activatedAt
}

// AddFriendship records a friendship delivered to this worker by the graph
// partitioner (i.e. partitionFn(user) == self is assumed already true).
func (g *GALE) AddFriendship(user model.UserID, friends []model.UserID) {
	g.friends.Add(user, friends)
}

// Activations exposes the activation store for inspection in tests and
// statistics; the runtime does not mutate it directly.
func (g *GALE) Activations() *activation.Store { return g.activations }

// ObserveRetweet performs step 1 of §4.4 on every worker: it marks the
// original poster active at the original Tweet's creation time (a no-op
// after the first observation of this cascade, since Activate only
// inserts when absent) and marks the retweeter active at t*.
func (g *GALE) ObserveRetweet(r *model.Retweet) {
	cascade := r.CascadeID()
	g.activations.Activate(cascade, r.OriginalUser(), r.RetweetedStatus.CreatedAt)
	g.activations.Activate(cascade, r.User, r.CreatedAt)
}

// Emit performs step 2-3 of §4.4: if this worker owns the retweeter's
// friends, it produces one influence edge per friend that was already
// active before t*, choosing whichever of (friends, activations) is
// smaller to iterate, and calls emit for each. ObserveRetweet must have
// already been called (on this and every other worker) for r before Emit
// is called, since Emit reads activation state that GALE assumes is
// globally current by the time edges are produced.
func (g *GALE) Emit(r *model.Retweet, emit func(model.InfluenceEdge)) {
	if g.partition(r.User, g.workers) != g.self {
		return
	}
	friends, ok := g.friends.Friends(r.User)
	if !ok {
		return
	}

	cascade := r.CascadeID()
	numActivations := g.activations.Len(cascade)

	if len(friends) <= numActivations {
		for _, f := range friends {
			t, activated := g.activations.Lookup(cascade, f)
			if activated && g.after(r.CreatedAt, t) {
				emit(newEdge(f, r, cascade))
			}
		}
		return
	}

	for _, a := range g.activations.Iter(cascade) {
		if !graphstore.Contains(friends, a.User) {
			continue
		}
		if g.after(r.CreatedAt, a.Timestamp) {
			emit(newEdge(a.User, r, cascade))
		}
	}
}

func newEdge(influencer model.UserID, r *model.Retweet, cascade uint64) model.InfluenceEdge {
	return model.InfluenceEdge{
		Influencer:   influencer,
		Influencee:   r.User,
		Timestamp:    r.CreatedAt,
		RetweetID:    r.ID,
		CascadeID:    cascade,
		OriginalUser: r.OriginalUser(),
	}
}
