package reconstruct

import (
	"github.com/cascadeflow/crgp/internal/activation"
	"github.com/cascadeflow/crgp/internal/graphstore"
	"github.com/cascadeflow/crgp/internal/model"
)

// LEAF implements Local Edges, Activations, Filtering (spec §4.5). Unlike
// GALE, a LEAF worker's activation store is not a replica of the whole
// cascade state — one instance per worker, fed by two distinct stages of
// the pipeline:
//
//   - GeneratePossible runs on the worker owning the retweeter, using its
//     friend store, and records the retweeter's activation in this
//     worker's store, so the owner of a user holds that user's activations.
//   - Filter runs on the worker owning each candidate influencer (reached
//     after the runtime exchanges possible influences by Influencer), and
//     uses only this worker's activation store.
type LEAF struct {
	friends     *graphstore.LocalFriendStore
	activations *activation.Store
	strict      bool
}

// NewLEAF constructs an empty LEAF operator for one worker. The
// activation predicate defaults to strict (`>`); use
// WithStrictComparison to opt into the `>=` alternative (spec §9).
func NewLEAF() *LEAF {
	return &LEAF{
		friends:     graphstore.New(),
		activations: activation.New(),
		strict:      true,
	}
}

// WithStrictComparison sets whether the activation predicate uses `>`
// (strict, true) or `>=` (false), and returns l for chaining.
func (l *LEAF) WithStrictComparison(strict bool) *LEAF {
	l.strict = strict
	return l
}

// AddFriendship records a friendship delivered to this worker by the graph
// partitioner.
func (l *LEAF) AddFriendship(user model.UserID, friends []model.UserID) {
	l.friends.Add(user, friends)
}

// Activations exposes the activation store for statistics and tests.
func (l *LEAF) Activations() *activation.Store { return l.activations }

// GeneratePossible records that r.User activated in r's cascade at
// r.CreatedAt, then produces one candidate InfluenceEdge per friend of the
// retweeter, regardless of whether that friend has actually activated
// yet — the Filter stage decides that once the edge reaches the worker
// that owns the candidate influencer. Returns nil if this worker does not
// hold r.User's friend list.
func (l *LEAF) GeneratePossible(r *model.Retweet) []model.InfluenceEdge {
	cascade := r.CascadeID()
	l.activations.Activate(cascade, r.User, r.CreatedAt)

	friends, ok := l.friends.Friends(r.User)
	if !ok || len(friends) == 0 {
		return nil
	}
	u0 := r.OriginalUser()
	out := make([]model.InfluenceEdge, 0, len(friends))
	for _, f := range friends {
		out = append(out, model.InfluenceEdge{
			Influencer:   f,
			Influencee:   r.User,
			Timestamp:    r.CreatedAt,
			RetweetID:    r.ID,
			CascadeID:    cascade,
			OriginalUser: u0,
		})
	}
	return out
}

// Filter runs on the worker owning e.Influencer. It first records that
// e.Influencee retweeted at e.Timestamp (this worker's own slice of the
// activation state, keyed by this edge's influencer relationship — spec
// §9's justification for why activation state can be sharded this way in
// LEAF), then keeps the edge iff the influencer was already active before
// e.Timestamp, or the influencer is the cascade's original poster (who is
// always considered active from the start, per spec §4.5).
func (l *LEAF) Filter(e model.InfluenceEdge) bool {
	l.activations.Activate(e.CascadeID, e.Influencee, e.Timestamp)

	if e.Influencer == e.OriginalUser {
		return true
	}
	t, activated := l.activations.Lookup(e.CascadeID, e.Influencer)
	if !activated {
		return false
	}
	if l.strict {
		return e.Timestamp > t
	}
	return e.Timestamp >= t
}
