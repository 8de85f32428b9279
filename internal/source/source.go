// Package source implements the two external collaborators named in
// spec §6: a GraphSource producing (user, friends) records from a CSV
// dump, and a RetweetSource producing Retweet records from newline-
// delimited JSON.
package source

import (
	"github.com/cascadeflow/crgp/internal/model"
)

// GraphSource produces a lazy, finite, non-restartable sequence of
// friendship records. Next returns (record, true, nil) for each record,
// and (zero, false, nil) once the source is exhausted; a non-nil error
// always means the sequence stops permanently.
type GraphSource interface {
	Next() (model.Friendship, bool, error)
	Close() error
}

// RetweetSource produces a lazy, finite, non-restartable sequence of
// Retweet records in the source's native order. A record lacking a
// retweeted status is dropped before it ever reaches Next's caller.
type RetweetSource interface {
	Next() (*model.Retweet, bool, error)
	Close() error
}
