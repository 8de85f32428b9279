// Package statslog optionally appends every run's Statistics to a local
// bbolt file, keyed by run id. This is a purely diagnostic convenience:
// nothing in a run ever reads this history back, and its absence never
// affects correctness.
package statslog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/cascadeflow/crgp/internal/stats"
)

var bucketRuns = []byte("runs")

// History is an append-only bbolt-backed log of run Statistics.
type History struct {
	db *bbolt.DB
}

// Open opens (creating if absent) the bbolt file at path and ensures its
// bucket exists.
func Open(path string) (*History, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("statslog: open %q: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("statslog: create bucket: %w", err)
	}
	return &History{db: db}, nil
}

// Append records s under a freshly generated run id and returns that id.
func (h *History) Append(s stats.Statistics) (string, error) {
	runID := uuid.New().String()
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("statslog: marshal statistics: %w", err)
	}
	err = h.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).Put([]byte(runID), payload)
	})
	if err != nil {
		return "", fmt.Errorf("statslog: append: %w", err)
	}
	return runID, nil
}

// Close releases the underlying bbolt file handle.
func (h *History) Close() error {
	return h.db.Close()
}
