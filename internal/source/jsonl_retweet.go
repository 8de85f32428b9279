package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cascadeflow/crgp/internal/model"
	"github.com/cascadeflow/crgp/internal/resilience"
)

// jsonRetweet mirrors the wire shape of one line of the dataset. Status
// is nil for a tweet that is not actually a retweet; those lines are
// dropped by Next, never surfaced to the caller (spec §6).
type jsonRetweet struct {
	CreatedAt uint64       `json:"created_at"`
	ID        uint64       `json:"id"`
	User      model.UserID `json:"user"`
	Status    *jsonTweet   `json:"retweeted_status"`
}

type jsonTweet struct {
	CreatedAt uint64       `json:"created_at"`
	ID        uint64       `json:"id"`
	User      model.UserID `json:"user"`
}

// JSONLRetweetSource reads newline-delimited JSON Retweet records.
type JSONLRetweetSource struct {
	file   *os.File
	scan   *bufio.Scanner
	log    *slog.Logger
	lineNo int
}

// OpenJSONLRetweetSource opens path, retrying the open call with
// exponential backoff.
func OpenJSONLRetweetSource(ctx context.Context, path string, log *slog.Logger) (*JSONLRetweetSource, error) {
	if log == nil {
		log = slog.Default()
	}
	f, err := resilience.Retry(ctx, 5, 200*time.Millisecond, func() (*os.File, error) {
		return os.Open(path)
	})
	if err != nil {
		return nil, fmt.Errorf("source: open retweets %q: %w", path, err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &JSONLRetweetSource{file: f, scan: sc, log: log}, nil
}

// Next returns the next Retweet that actually carries a retweeted
// status, skipping non-retweets and unparsable lines silently.
func (s *JSONLRetweetSource) Next() (*model.Retweet, bool, error) {
	for s.scan.Scan() {
		s.lineNo++
		line := s.scan.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw jsonRetweet
		if err := json.Unmarshal(line, &raw); err != nil {
			s.log.Warn("retweet source: skipping unparsable line", "line", s.lineNo, "error", err)
			continue
		}
		if raw.Status == nil {
			continue
		}
		return &model.Retweet{
			CreatedAt: raw.CreatedAt,
			ID:        raw.ID,
			User:      raw.User,
			RetweetedStatus: &model.Tweet{
				CreatedAt: raw.Status.CreatedAt,
				ID:        raw.Status.ID,
				User:      raw.Status.User,
			},
		}, true, nil
	}
	if err := s.scan.Err(); err != nil {
		return nil, false, fmt.Errorf("source: reading retweet line %d: %w", s.lineNo, err)
	}
	return nil, false, nil
}

// Close releases the underlying file handle.
func (s *JSONLRetweetSource) Close() error {
	return s.file.Close()
}
