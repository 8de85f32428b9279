// Package model defines the data types shared across the cascade
// reconstruction pipeline: social graph records, Retweets, and the
// influence edges the core emits.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// UserID identifies a user in the social graph. Negative values are
// reserved for synthetic dummy friends used to pad sparse graph records;
// they are never produced by a RetweetSource and never activate.
type UserID int64

// IsDummy reports whether id is a synthetic padding friend.
func (id UserID) IsDummy() bool {
	return id < 0
}

// Tweet is the original post a Retweet refers to.
type Tweet struct {
	CreatedAt uint64
	ID        uint64
	User      UserID
}

// Retweet is a re-share of a Tweet by a user at a point in wall-clock time.
// RetweetedStatus is nil for a record that is not actually a retweet; such
// records are dropped by the RetweetSource before they ever reach the core.
type Retweet struct {
	CreatedAt       uint64
	ID              uint64
	User            UserID
	RetweetedStatus *Tweet
}

// CascadeID is the id of the cascade this Retweet belongs to, i.e. the id
// of the original Tweet. Panics if called on a non-retweet; callers must
// only invoke this after confirming RetweetedStatus is non-nil.
func (r *Retweet) CascadeID() uint64 {
	return r.RetweetedStatus.ID
}

// OriginalUser is the user who posted the original Tweet of this cascade.
func (r *Retweet) OriginalUser() UserID {
	return r.RetweetedStatus.User
}

// Friendship is one input record from the GraphSource: user follows each
// id in Friends.
type Friendship struct {
	User    UserID
	Friends []UserID
}

// InfluenceEdge asserts that, at Timestamp, Influencee was plausibly
// influenced by Influencer to retweet within cascade CascadeID.
type InfluenceEdge struct {
	Influencer   UserID
	Influencee   UserID
	Timestamp    uint64
	RetweetID    uint64
	CascadeID    uint64
	OriginalUser UserID
}

// String renders the canonical encoding:
// <cascade_id>;<retweet_id>;<influencee>;<influencer>;<timestamp>;-1
func (e InfluenceEdge) String() string {
	var b strings.Builder
	b.Grow(48)
	b.WriteString(strconv.FormatUint(e.CascadeID, 10))
	b.WriteByte(';')
	b.WriteString(strconv.FormatUint(e.RetweetID, 10))
	b.WriteByte(';')
	b.WriteString(strconv.FormatInt(int64(e.Influencee), 10))
	b.WriteByte(';')
	b.WriteString(strconv.FormatInt(int64(e.Influencer), 10))
	b.WriteByte(';')
	b.WriteString(strconv.FormatUint(e.Timestamp, 10))
	b.WriteString(";-1")
	return b.String()
}

// GoString supports %#v / debug printing distinct from the wire encoding.
func (e InfluenceEdge) GoString() string {
	return fmt.Sprintf("InfluenceEdge{influencer:%d influencee:%d t:%d rt:%d cascade:%d u0:%d}",
		e.Influencer, e.Influencee, e.Timestamp, e.RetweetID, e.CascadeID, e.OriginalUser)
}
