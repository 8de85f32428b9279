// Package driver runs the four phases a single execution moves through
// (spec §4.7): setup, graph ingest, batched retweet ingest, and final
// statistics — wiring a Runtime to its sources and output writer.
package driver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cascadeflow/crgp/internal/crgperr"
	"github.com/cascadeflow/crgp/internal/model"
	"github.com/cascadeflow/crgp/internal/runtime"
	"github.com/cascadeflow/crgp/internal/source"
	"github.com/cascadeflow/crgp/internal/stats"
)

// Driver owns one run: a constructed Runtime and the batch size at which
// it syncs the retweet stream.
type Driver struct {
	rt        *runtime.Runtime
	batchSize int
	log       *slog.Logger
}

// New builds a Driver around an already-constructed Runtime.
func New(rt *runtime.Runtime, batchSize int, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &Driver{rt: rt, batchSize: batchSize, log: log}
}

// Run executes phases B through D: drain graphSrc and sync once (phase
// B), drain retweetSrc in batches of batchSize, syncing after each full
// batch and once more at the end regardless of how the last partial
// batch divides (phase C), then finalizes Statistics (phase D). started
// is when the overall process began, so SetupTime reflects everything
// that happened before graph ingest started (config parsing, source
// opens, runtime construction).
func (d *Driver) Run(ctx context.Context, started time.Time, graphSrc source.GraphSource, retweetSrc source.RetweetSource) (stats.Statistics, *crgperr.Error) {
	var st stats.Statistics

	graphStart := time.Now()
	st.SetupTime = graphStart.Sub(started)

	friendships, err := d.rt.IngestGraph(ctx, graphSrc)
	st.Friendships = friendships
	if err != nil {
		return st, wrap(err, crgperr.Source)
	}
	st.GraphTime = time.Since(graphStart)

	retweetStart := time.Now()
	batch := make([]*model.Retweet, 0, d.batchSize)
	for {
		r, ok, err := retweetSrc.Next()
		if err != nil {
			return st, wrap(err, crgperr.Source)
		}
		if !ok {
			break
		}
		batch = append(batch, r)
		st.Retweets++
		if len(batch) >= d.batchSize {
			if _, err := d.rt.ProcessRetweetBatch(ctx, batch); err != nil {
				return st, wrap(err, crgperr.Worker)
			}
			batch = batch[:0]
		}
	}

	// Final sync: always runs, even on an empty or already-flushed
	// trailing batch, so the last epoch is provably drained before
	// statistics are finalized (spec §4.1's sync postcondition applies to
	// the very last batch too).
	if _, err := d.rt.ProcessRetweetBatch(ctx, batch); err != nil {
		return st, wrap(err, crgperr.Worker)
	}
	st.RetweetTime = time.Since(retweetStart)

	st.TotalTime = time.Since(started)
	st.Finalize()
	return st, nil
}

// wrap normalizes err into a *crgperr.Error, preferring a Kind already
// attached deeper in the call chain over the fallback kind passed in.
func wrap(err error, fallback crgperr.Kind) *crgperr.Error {
	if err == nil {
		return nil
	}
	var ce *crgperr.Error
	if errors.As(err, &ce) {
		return ce
	}
	return crgperr.New(fallback, err)
}
