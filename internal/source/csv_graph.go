package source

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cascadeflow/crgp/internal/model"
	"github.com/cascadeflow/crgp/internal/resilience"
)

// CSVGraphSource reads a social graph dump of lines
// "user_id,expected_friend_count,friend_id,friend_id,...". When the
// number of explicit friend ids falls short of expected_friend_count and
// padding is enabled, the deficit is filled with synthetic ids
// -1, -2, …, -(deficit) (spec §6). Malformed lines are logged and
// skipped, never surfaced as errors — only a failure to open the file
// is.
type CSVGraphSource struct {
	file *os.File
	scan *bufio.Scanner
	log  *slog.Logger

	pad      bool
	selected map[model.UserID]struct{} // nil means "no allow-list"

	lineNo int
}

// CSVGraphOptions configures CSVGraphSource construction.
type CSVGraphOptions struct {
	PadWithDummyUsers bool
	// SelectedUsersPath, if non-empty, names a file of one user id per
	// line; only friendship records for those users are yielded.
	SelectedUsersPath string
	Log               *slog.Logger
}

// OpenCSVGraphSource opens path, retrying the open call (not the parse)
// with exponential backoff to tolerate storage that briefly lags behind
// a concurrent writer.
func OpenCSVGraphSource(ctx context.Context, path string, opts CSVGraphOptions) (*CSVGraphSource, error) {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	f, err := resilience.Retry(ctx, 5, 200*time.Millisecond, func() (*os.File, error) {
		return os.Open(path)
	})
	if err != nil {
		return nil, fmt.Errorf("source: open graph %q: %w", path, err)
	}

	src := &CSVGraphSource{
		file: f,
		scan: bufio.NewScanner(f),
		log:  opts.Log,
		pad:  opts.PadWithDummyUsers,
	}
	src.scan.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if opts.SelectedUsersPath != "" {
		selected, err := loadSelectedUsers(ctx, opts.SelectedUsersPath)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("source: open selected users %q: %w", opts.SelectedUsersPath, err)
		}
		src.selected = selected
	}

	return src, nil
}

func loadSelectedUsers(ctx context.Context, path string) (map[model.UserID]struct{}, error) {
	f, err := resilience.Retry(ctx, 5, 200*time.Millisecond, func() (*os.File, error) {
		return os.Open(path)
	})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[model.UserID]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		out[model.UserID(id)] = struct{}{}
	}
	return out, sc.Err()
}

// Next yields the next valid friendship record, skipping malformed or
// deselected lines.
func (s *CSVGraphSource) Next() (model.Friendship, bool, error) {
	for s.scan.Scan() {
		s.lineNo++
		line := strings.TrimSpace(s.scan.Text())
		if line == "" {
			continue
		}
		rec, ok := s.parseLine(line)
		if !ok {
			continue
		}
		if s.selected != nil {
			if _, keep := s.selected[rec.User]; !keep {
				continue
			}
		}
		return rec, true, nil
	}
	if err := s.scan.Err(); err != nil {
		return model.Friendship{}, false, fmt.Errorf("source: reading graph line %d: %w", s.lineNo, err)
	}
	return model.Friendship{}, false, nil
}

func (s *CSVGraphSource) parseLine(line string) (model.Friendship, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		s.log.Warn("graph source: skipping malformed line", "line", s.lineNo)
		return model.Friendship{}, false
	}

	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		s.log.Warn("graph source: skipping line with unparsable user id", "line", s.lineNo)
		return model.Friendship{}, false
	}

	expected, err := strconv.Atoi(fields[1])
	if err != nil {
		s.log.Warn("graph source: skipping line with unparsable friend count", "line", s.lineNo)
		return model.Friendship{}, false
	}

	explicit := fields[2:]
	friends := make([]model.UserID, 0, len(explicit))
	for _, raw := range explicit {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		fid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		friends = append(friends, model.UserID(fid))
	}

	if s.pad {
		deficit := expected - len(friends)
		for i := 1; i <= deficit; i++ {
			friends = append(friends, model.UserID(-i))
		}
	}

	return model.Friendship{User: model.UserID(userID), Friends: friends}, true
}

// Close releases the underlying file handle.
func (s *CSVGraphSource) Close() error {
	return s.file.Close()
}
