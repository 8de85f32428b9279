// Package activation implements the per-worker, per-algorithm cascade
// activation state described in spec §4.3: for each cascade, the set of
// users who have retweeted in it so far, each tagged with the timestamp of
// their first (earliest) Retweet in that cascade.
package activation

import "github.com/cascadeflow/crgp/internal/model"

// Store is a mapping cascade_id -> (UserID -> first activation timestamp).
// Not safe for concurrent use; each worker owns exactly one Store per
// algorithm instance, and the runtime guarantees single-threaded access
// within a worker (spec §5).
type Store struct {
	cascades map[uint64]map[model.UserID]uint64
}

// New returns an empty activation store.
func New() *Store {
	return &Store{cascades: make(map[uint64]map[model.UserID]uint64)}
}

// Activate inserts (user, t) into cascade's activation map only if user is
// not yet present, and returns the timestamp now on record for user — t on
// first activation, or the earlier value if user was already active.
// Activate is monotone: it never decreases a stored timestamp.
func (s *Store) Activate(cascadeID uint64, user model.UserID, t uint64) uint64 {
	cascade, ok := s.cascades[cascadeID]
	if !ok {
		cascade = make(map[model.UserID]uint64)
		s.cascades[cascadeID] = cascade
	}
	if prev, exists := cascade[user]; exists {
		return prev
	}
	cascade[user] = t
	return t
}

// Lookup returns the activation timestamp for user in cascadeID, if any.
func (s *Store) Lookup(cascadeID uint64, user model.UserID) (uint64, bool) {
	cascade, ok := s.cascades[cascadeID]
	if !ok {
		return 0, false
	}
	t, ok := cascade[user]
	return t, ok
}

// Len returns the number of distinct activated users in cascadeID.
func (s *Store) Len(cascadeID uint64) int {
	return len(s.cascades[cascadeID])
}

// Activation pairs a user with their first-activation timestamp.
type Activation struct {
	User      model.UserID
	Timestamp uint64
}

// Iter returns the activations of a cascade in arbitrary order.
func (s *Store) Iter(cascadeID uint64) []Activation {
	cascade := s.cascades[cascadeID]
	out := make([]Activation, 0, len(cascade))
	for u, t := range cascade {
		out = append(out, Activation{User: u, Timestamp: t})
	}
	return out
}

// HasCascade reports whether any user has been activated in cascadeID yet.
func (s *Store) HasCascade(cascadeID uint64) bool {
	_, ok := s.cascades[cascadeID]
	return ok
}
