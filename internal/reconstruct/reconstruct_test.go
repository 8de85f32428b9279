package reconstruct

import (
	"sort"
	"testing"

	"github.com/cascadeflow/crgp/internal/model"
	"github.com/cascadeflow/crgp/internal/partition"
)

func seedGraph() map[model.UserID][]model.UserID {
	return map[model.UserID][]model.UserID{
		0: {1, 2},
		1: {0, 2, 3},
		2: {0},
		3: {2},
		4: {2},
	}
}

// seedRetweets is the canonical two-cascade scenario: cascade 1 (original
// tweet 1 by user 0) is retweeted by 2, then 1, then 3; cascade 2 (original
// tweet 2 by user 1) is retweeted by 0, then 2, then 3. Retweet ids, users
// and timestamps, and the cascade groupings, are fixed by the expected
// output below and cross-checked against crgp-lib's algorithm_execution
// tests, which assert the identical 7-line expected_lines against this
// same graph.
func seedRetweets() []*model.Retweet {
	rt := func(id uint64, t uint64, user model.UserID, origID, t0 uint64, user0 model.UserID) *model.Retweet {
		return &model.Retweet{
			ID: id, CreatedAt: t, User: user,
			RetweetedStatus: &model.Tweet{ID: origID, CreatedAt: t0, User: user0},
		}
	}
	return []*model.Retweet{
		rt(3, 1, 2, 1, 0, 0),
		rt(4, 2, 1, 1, 0, 0),
		rt(5, 3, 0, 2, 0, 1),
		rt(6, 3, 3, 1, 0, 0),
		rt(7, 4, 2, 2, 0, 1),
		rt(8, 5, 3, 2, 0, 1),
	}
}

// expectedEdges is the ground-truth influence set for seedGraph/seedRetweets:
//
//	retweet 3 (cascade 1, u*=2, t*=1): friend 0 is cascade 1's original poster -> emit
//	retweet 4 (cascade 1, u*=1, t*=2): friends 0 and 2 both activated before t*=2 -> emit both
//	retweet 6 (cascade 1, u*=3, t*=3): friend 2 activated at t=1 -> emit
//	retweet 5 (cascade 2, u*=0, t*=3): friend 1 is cascade 2's original poster -> emit; friend 2 not yet activated -> no edge
//	retweet 7 (cascade 2, u*=2, t*=4): friend 0 activated at t=3 -> emit
//	retweet 8 (cascade 2, u*=3, t*=5): friend 2 activated at t=4 -> emit
var expectedEdges = []string{
	"1;3;2;0;1;-1",
	"1;4;1;0;2;-1",
	"1;4;1;2;2;-1",
	"1;6;3;2;3;-1",
	"2;5;0;1;3;-1",
	"2;7;2;0;4;-1",
	"2;8;3;2;5;-1",
}

func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

func edgeStrings(edges []model.InfluenceEdge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.String()
	}
	return sortedStrings(out)
}

func TestGALESeedScenario(t *testing.T) {
	g := NewGALE(0, 1, partition.Mod)
	for user, friends := range seedGraph() {
		g.AddFriendship(user, friends)
	}

	var got []model.InfluenceEdge
	for _, r := range seedRetweets() {
		g.ObserveRetweet(r)
		g.Emit(r, func(e model.InfluenceEdge) { got = append(got, e) })
	}

	assertEdgesEqual(t, got, expectedEdges)
}

func TestLEAFSeedScenario(t *testing.T) {
	l := NewLEAF()
	for user, friends := range seedGraph() {
		l.AddFriendship(user, friends)
	}

	var got []model.InfluenceEdge
	for _, r := range seedRetweets() {
		for _, possible := range l.GeneratePossible(r) {
			if l.Filter(possible) {
				got = append(got, possible)
			}
		}
	}

	assertEdgesEqual(t, got, expectedEdges)
}

func assertEdgesEqual(t *testing.T, got []model.InfluenceEdge, want []string) {
	t.Helper()
	gotStrings := edgeStrings(got)
	wantSorted := sortedStrings(want)
	if len(gotStrings) != len(wantSorted) {
		t.Fatalf("got %d edges, want %d\ngot:  %v\nwant: %v", len(gotStrings), len(wantSorted), gotStrings, wantSorted)
	}
	for i := range gotStrings {
		if gotStrings[i] != wantSorted[i] {
			t.Fatalf("edge mismatch at %d: got %q want %q\ngot:  %v\nwant: %v", i, gotStrings[i], wantSorted[i], gotStrings, wantSorted)
		}
	}
}

// TestGALEIsolatedUserNoEdges covers scenario (a): a user with no friends
// retweets and produces nothing.
func TestGALEIsolatedUserNoEdges(t *testing.T) {
	g := NewGALE(0, 1, partition.Mod)
	r := &model.Retweet{ID: 1, CreatedAt: 5, User: 99, RetweetedStatus: &model.Tweet{ID: 1, CreatedAt: 1, User: 1}}
	g.ObserveRetweet(r)
	var got []model.InfluenceEdge
	g.Emit(r, func(e model.InfluenceEdge) { got = append(got, e) })
	if len(got) != 0 {
		t.Fatalf("expected no edges for isolated user, got %v", got)
	}
}

// TestGALENoPriorActivationNoEdges covers scenario (b): the retweeter's
// only friend is not u0 and has not yet activated.
func TestGALENoPriorActivationNoEdges(t *testing.T) {
	g := NewGALE(0, 1, partition.Mod)
	g.AddFriendship(2, []model.UserID{7})
	r := &model.Retweet{ID: 1, CreatedAt: 5, User: 2, RetweetedStatus: &model.Tweet{ID: 1, CreatedAt: 1, User: 1}}
	g.ObserveRetweet(r)
	var got []model.InfluenceEdge
	g.Emit(r, func(e model.InfluenceEdge) { got = append(got, e) })
	if len(got) != 0 {
		t.Fatalf("expected no edges, got %v", got)
	}
}

// TestDummyFriendNeverEmits covers scenario (d): a user padded with
// negative dummy friends never produces an edge for them, since dummy ids
// never appear as retweeters and thus never activate.
func TestDummyFriendNeverEmits(t *testing.T) {
	g := NewGALE(0, 1, partition.Mod)
	g.AddFriendship(5, []model.UserID{-1, -2})
	r := &model.Retweet{ID: 1, CreatedAt: 10, User: 5, RetweetedStatus: &model.Tweet{ID: 1, CreatedAt: 1, User: 1}}
	g.ObserveRetweet(r)
	var got []model.InfluenceEdge
	g.Emit(r, func(e model.InfluenceEdge) { got = append(got, e) })
	if len(got) != 0 {
		t.Fatalf("dummy friends must never activate or be emitted, got %v", got)
	}
}

// TestGALEConcurrentActivationsBothEmit covers scenario (c): two retweets
// in the same cascade, from different users, both observed before a third
// user's retweet is emitted against — both of their edges must appear.
func TestGALEConcurrentActivationsBothEmit(t *testing.T) {
	g := NewGALE(0, 1, partition.Mod)
	g.AddFriendship(2, []model.UserID{0, 1})
	orig := &model.Tweet{ID: 1, CreatedAt: 1, User: 9}
	rA := &model.Retweet{ID: 10, CreatedAt: 2, User: 0, RetweetedStatus: orig}
	rB := &model.Retweet{ID: 11, CreatedAt: 2, User: 1, RetweetedStatus: orig}
	rC := &model.Retweet{ID: 12, CreatedAt: 5, User: 2, RetweetedStatus: orig}

	g.ObserveRetweet(rA)
	g.ObserveRetweet(rB)
	g.ObserveRetweet(rC)

	var got []model.InfluenceEdge
	g.Emit(rC, func(e model.InfluenceEdge) { got = append(got, e) })

	assertEdgesEqual(t, got, []string{"1;12;2;0;5;-1", "1;12;2;1;5;-1"})
}

func TestGALENonStrictComparisonFlag(t *testing.T) {
	g := NewGALE(0, 1, partition.Mod).WithStrictComparison(false)
	g.AddFriendship(2, []model.UserID{1})
	orig := &model.Tweet{ID: 1, CreatedAt: 1, User: 9}
	r1 := &model.Retweet{ID: 1, CreatedAt: 5, User: 1, RetweetedStatus: orig}
	r2 := &model.Retweet{ID: 2, CreatedAt: 5, User: 2, RetweetedStatus: orig}

	g.ObserveRetweet(r1)
	g.ObserveRetweet(r2)

	var got []model.InfluenceEdge
	g.Emit(r2, func(e model.InfluenceEdge) { got = append(got, e) })
	if len(got) != 1 {
		t.Fatalf("with >= comparison, equal timestamps must satisfy the predicate, got %v", got)
	}
}

func TestGALEStrictTimestampComparison(t *testing.T) {
	// Two retweets at the exact same timestamp: the second must not see the
	// first as "already active before" since the comparison is strict (>).
	g := NewGALE(0, 1, partition.Mod)
	g.AddFriendship(2, []model.UserID{1})
	orig := &model.Tweet{ID: 1, CreatedAt: 1, User: 9}
	r1 := &model.Retweet{ID: 1, CreatedAt: 5, User: 1, RetweetedStatus: orig}
	r2 := &model.Retweet{ID: 2, CreatedAt: 5, User: 2, RetweetedStatus: orig}

	g.ObserveRetweet(r1)
	g.ObserveRetweet(r2)

	var got []model.InfluenceEdge
	g.Emit(r2, func(e model.InfluenceEdge) { got = append(got, e) })
	if len(got) != 0 {
		t.Fatalf("equal timestamps must not satisfy the strict > predicate, got %v", got)
	}
}
