package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	nats "github.com/nats-io/nats.go"

	"github.com/cascadeflow/crgp/internal/config"
	"github.com/cascadeflow/crgp/internal/meshctx"
	"github.com/cascadeflow/crgp/internal/model"
)

// Handlers are the callbacks a ClusterTransport invokes when it delivers
// a record addressed to one of this process's locally-owned workers.
// They close over the Runtime's worker pool; ClusterTransport itself
// knows nothing about workerState. Exactly one of OnRetweetBroadcast
// (GALE) and OnRetweetForLEAF (LEAF) is ever set on a given Runtime,
// matching workerState's gale-xor-leaf split.
type Handlers struct {
	OnFriendship        func(global int, f model.Friendship)
	OnRetweetBroadcast  func(r *model.Retweet)
	OnRetweetForLEAF    func(global int, r *model.Retweet)
	OnPossibleInfluence func(global int, e model.InfluenceEdge)
}

// ClusterTransport carries the cross-process traffic a multi-process run
// needs: graph ingest (phase B), GALE's unconditional retweet broadcast,
// LEAF's retweet-to-retweeter-owner exchange, and LEAF's possible-influence
// exchange. Built on internal/meshctx, one NATS connection per process.
// Every subject but the GALE broadcast is keyed by the destination global
// worker index, so a process's subscriptions only ever receive records
// addressed to workers it actually hosts; the GALE broadcast subject has
// no destination because every worker cluster-wide needs every Retweet.
type ClusterTransport struct {
	nc            *nats.Conn
	processID     int
	globalWorkers int
	base          int
	numWorkers    int
}

func friendshipSubject(global int) string        { return fmt.Sprintf("crgp.friendship.%d", global) }
func possibleInfluenceSubject(global int) string { return fmt.Sprintf("crgp.possible.%d", global) }
func retweetForLEAFSubject(global int) string    { return fmt.Sprintf("crgp.retweet.leaf.%d", global) }

const retweetBroadcastSubject = "crgp.retweet.broadcast"

type wireFriendship struct {
	Global  int            `json:"global"`
	User    model.UserID   `json:"user"`
	Friends []model.UserID `json:"friends"`
}

type wirePossibleInfluence struct {
	Global int                 `json:"global"`
	Edge   model.InfluenceEdge `json:"edge"`
}

// NewClusterTransport dials the NATS servers named by cfg.Hosts (falling
// back to the default local NATS URL if none are configured) and wires
// up subscriptions for every worker this process hosts.
func NewClusterTransport(cfg config.Configuration, globalWorkers int, handlers Handlers) (*ClusterTransport, error) {
	url := nats.DefaultURL
	if len(cfg.Hosts) > 0 {
		urls := make([]string, len(cfg.Hosts))
		for i, h := range cfg.Hosts {
			urls[i] = "nats://" + h
		}
		url = strings.Join(urls, ",")
	}

	nc, err := nats.Connect(url, nats.Name(fmt.Sprintf("crgp-process-%d", cfg.ProcessID)), nats.NoEcho())
	if err != nil {
		return nil, fmt.Errorf("runtime: connecting to cluster mesh: %w", err)
	}

	ct := &ClusterTransport{
		nc:            nc,
		processID:     cfg.ProcessID,
		globalWorkers: globalWorkers,
		base:          cfg.ProcessID * cfg.NumberOfWorkers,
		numWorkers:    cfg.NumberOfWorkers,
	}

	for i := 0; i < ct.numWorkers; i++ {
		global := ct.base + i
		if handlers.OnFriendship != nil {
			if _, err := meshctx.Subscribe(nc, friendshipSubject(global), func(_ context.Context, m *nats.Msg) {
				var w wireFriendship
				if err := json.Unmarshal(m.Data, &w); err != nil {
					return
				}
				handlers.OnFriendship(w.Global, model.Friendship{User: w.User, Friends: w.Friends})
			}); err != nil {
				nc.Close()
				return nil, fmt.Errorf("runtime: subscribing to %s: %w", friendshipSubject(global), err)
			}
		}
		if handlers.OnPossibleInfluence != nil {
			if _, err := meshctx.Subscribe(nc, possibleInfluenceSubject(global), func(_ context.Context, m *nats.Msg) {
				var w wirePossibleInfluence
				if err := json.Unmarshal(m.Data, &w); err != nil {
					return
				}
				handlers.OnPossibleInfluence(w.Global, w.Edge)
			}); err != nil {
				nc.Close()
				return nil, fmt.Errorf("runtime: subscribing to %s: %w", possibleInfluenceSubject(global), err)
			}
		}
		if handlers.OnRetweetForLEAF != nil {
			if _, err := meshctx.Subscribe(nc, retweetForLEAFSubject(global), func(_ context.Context, m *nats.Msg) {
				var r model.Retweet
				if err := json.Unmarshal(m.Data, &r); err != nil {
					return
				}
				handlers.OnRetweetForLEAF(global, &r)
			}); err != nil {
				nc.Close()
				return nil, fmt.Errorf("runtime: subscribing to %s: %w", retweetForLEAFSubject(global), err)
			}
		}
	}

	if handlers.OnRetweetBroadcast != nil {
		if _, err := meshctx.Subscribe(nc, retweetBroadcastSubject, func(_ context.Context, m *nats.Msg) {
			var r model.Retweet
			if err := json.Unmarshal(m.Data, &r); err != nil {
				return
			}
			handlers.OnRetweetBroadcast(&r)
		}); err != nil {
			nc.Close()
			return nil, fmt.Errorf("runtime: subscribing to %s: %w", retweetBroadcastSubject, err)
		}
	}

	return ct, nil
}

// PublishFriendship ships a graph record to the process hosting its
// owning worker. Only called from process 0, which is the sole reader
// of the graph source (spec §4.7).
func (ct *ClusterTransport) PublishFriendship(ctx context.Context, global int, rec model.Friendship) error {
	data, err := json.Marshal(wireFriendship{Global: global, User: rec.User, Friends: rec.Friends})
	if err != nil {
		return fmt.Errorf("runtime: encoding friendship for worker %d: %w", global, err)
	}
	if err := meshctx.Publish(ctx, ct.nc, friendshipSubject(global), data); err != nil {
		return fmt.Errorf("runtime: publishing friendship for worker %d: %w", global, err)
	}
	return nil
}

// BroadcastRetweet ships a Retweet to every other process for GALE,
// whose topology requires every worker cluster-wide to observe every
// Retweet regardless of which process's source produced it.
func (ct *ClusterTransport) BroadcastRetweet(ctx context.Context, r *model.Retweet) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("runtime: encoding broadcast retweet: %w", err)
	}
	if err := meshctx.Publish(ctx, ct.nc, retweetBroadcastSubject, data); err != nil {
		return fmt.Errorf("runtime: broadcasting retweet: %w", err)
	}
	return nil
}

// PublishRetweetForLEAF ships a Retweet whose retweeter is owned by
// worker global, hosted on a remote process, to that process. Unlike
// BroadcastRetweet this is addressed to one specific worker: the
// receiving process runs GeneratePossible against its own local friend
// store for that worker and re-exchanges the resulting candidate edges
// by influencer owner, exactly as processLEAFBatch does for a Retweet
// it read from its own source.
func (ct *ClusterTransport) PublishRetweetForLEAF(ctx context.Context, global int, r *model.Retweet) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("runtime: encoding LEAF retweet for worker %d: %w", global, err)
	}
	if err := meshctx.Publish(ctx, ct.nc, retweetForLEAFSubject(global), data); err != nil {
		return fmt.Errorf("runtime: publishing LEAF retweet for worker %d: %w", global, err)
	}
	return nil
}

// PublishPossibleInfluence ships a LEAF candidate edge to the process
// hosting its candidate influencer, for filtering there.
func (ct *ClusterTransport) PublishPossibleInfluence(ctx context.Context, global int, e model.InfluenceEdge) error {
	data, err := json.Marshal(wirePossibleInfluence{Global: global, Edge: e})
	if err != nil {
		return fmt.Errorf("runtime: encoding possible influence for worker %d: %w", global, err)
	}
	if err := meshctx.Publish(ctx, ct.nc, possibleInfluenceSubject(global), data); err != nil {
		return fmt.Errorf("runtime: publishing possible influence for worker %d: %w", global, err)
	}
	return nil
}

// Close drains and closes the underlying NATS connection.
func (ct *ClusterTransport) Close() error {
	ct.nc.Drain()
	return nil
}
