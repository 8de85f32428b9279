// Package stats holds the per-run Statistics the driver reports in
// phase D, and the structured-logging/encoding glue around it.
package stats

import (
	"encoding/json"
	"time"
)

// Statistics is the summary of one execution that the driver reports in
// phase D (spec §4.7). The driver fills one Statistics per process run;
// it does not aggregate per-worker records, and WorkerID is left at 0.
type Statistics struct {
	WorkerID int `json:"worker_id"`

	Friendships int64 `json:"friendships"`
	Retweets    int64 `json:"retweets"`

	SetupTime   time.Duration `json:"setup_time_ns"`
	GraphTime   time.Duration `json:"graph_time_ns"`
	RetweetTime time.Duration `json:"retweet_time_ns"`
	TotalTime   time.Duration `json:"total_time_ns"`

	// RetweetsPerSecond is truncated to an integer:
	// retweets * 1e9 / retweet_time_ns, or 0 if retweet_time_ns is 0.
	RetweetsPerSecond int64 `json:"retweets_per_second"`
}

// Finalize computes RetweetsPerSecond from Retweets and RetweetTime.
func (s *Statistics) Finalize() {
	ns := s.RetweetTime.Nanoseconds()
	if ns == 0 {
		s.RetweetsPerSecond = 0
		return
	}
	s.RetweetsPerSecond = s.Retweets * int64(time.Second) / ns
}

// LogFields renders s as slog key-value pairs.
func (s Statistics) LogFields() []any {
	return []any{
		"worker_id", s.WorkerID,
		"friendships", s.Friendships,
		"retweets", s.Retweets,
		"setup_time", s.SetupTime,
		"graph_time", s.GraphTime,
		"retweet_time", s.RetweetTime,
		"total_time", s.TotalTime,
		"retweets_per_second", s.RetweetsPerSecond,
	}
}

func (s Statistics) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		return "<statistics: marshal error>"
	}
	return string(b)
}
