// Package graphstore implements the per-worker local friend store (spec
// §4.2): the mapping from a UserID routed to this worker to its sorted,
// duplicate-tolerant list of friend ids.
package graphstore

import (
	"sort"

	"github.com/cascadeflow/crgp/internal/model"
)

// LocalFriendStore holds, for every user routed to this worker, the sorted
// list of that user's friends. It is never consulted until the graph input
// has been fully drained (the driver syncs the graph epoch before
// injecting any Retweet), and it never holds friends of a user not routed
// here.
type LocalFriendStore struct {
	edges map[model.UserID][]model.UserID
}

// New returns an empty local friend store.
func New() *LocalFriendStore {
	return &LocalFriendStore{edges: make(map[model.UserID][]model.UserID)}
}

// Add appends friends to user's friend list and re-sorts it ascending.
// Friends across repeated records for the same user are not deduplicated:
// a friend listed twice across two records produces a repeated influence
// at reconstruction time, by design (spec §4.2).
func (s *LocalFriendStore) Add(user model.UserID, friends []model.UserID) {
	existing, ok := s.edges[user]
	if !ok {
		existing = make([]model.UserID, 0, len(friends))
	}
	existing = append(existing, friends...)
	sort.Slice(existing, func(i, j int) bool { return existing[i] < existing[j] })
	s.edges[user] = existing
}

// Friends returns the sorted friend list for user, and whether user is
// known to this store at all.
func (s *LocalFriendStore) Friends(user model.UserID) ([]model.UserID, bool) {
	f, ok := s.edges[user]
	return f, ok
}

// Contains reports whether friend appears in sortedFriends via binary
// search. sortedFriends must already be sorted ascending (as returned by
// Friends).
func Contains(sortedFriends []model.UserID, friend model.UserID) bool {
	i := sort.Search(len(sortedFriends), func(i int) bool { return sortedFriends[i] >= friend })
	return i < len(sortedFriends) && sortedFriends[i] == friend
}

// Len returns the number of distinct users with an entry in this store.
func (s *LocalFriendStore) Len() int {
	return len(s.edges)
}
