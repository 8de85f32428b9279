package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cascadeflow/crgp/internal/model"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCSVGraphSourceDummyPadding(t *testing.T) {
	path := writeTemp(t, "graph.csv", "1,3,2\n2,1,1\n")
	src, err := OpenCSVGraphSource(context.Background(), path, CSVGraphOptions{PadWithDummyUsers: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	rec, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next: %v %v", ok, err)
	}
	want := []model.UserID{2, -1, -2}
	if len(rec.Friends) != len(want) {
		t.Fatalf("got %v want %v", rec.Friends, want)
	}
	for i := range want {
		if rec.Friends[i] != want[i] {
			t.Fatalf("got %v want %v", rec.Friends, want)
		}
	}

	rec2, ok, err := src.Next()
	if err != nil || !ok || len(rec2.Friends) != 1 {
		t.Fatalf("second record unexpected: %v %v %v", rec2, ok, err)
	}

	_, ok, err = src.Next()
	if err != nil || ok {
		t.Fatalf("expected exhaustion, got ok=%v err=%v", ok, err)
	}
}

func TestCSVGraphSourceNoPaddingWhenDisabled(t *testing.T) {
	path := writeTemp(t, "graph.csv", "1,5,2\n")
	src, err := OpenCSVGraphSource(context.Background(), path, CSVGraphOptions{PadWithDummyUsers: false})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	rec, _, _ := src.Next()
	if len(rec.Friends) != 1 {
		t.Fatalf("expected no padding, got %v", rec.Friends)
	}
}

func TestCSVGraphSourceSelectedUsers(t *testing.T) {
	graphPath := writeTemp(t, "graph.csv", "1,1,2\n2,1,3\n3,1,4\n")
	allowPath := writeTemp(t, "selected.txt", "1\n3\n")

	src, err := OpenCSVGraphSource(context.Background(), graphPath, CSVGraphOptions{SelectedUsersPath: allowPath})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	var users []model.UserID
	for {
		rec, ok, err := src.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		users = append(users, rec.User)
	}
	if len(users) != 2 || users[0] != 1 || users[1] != 3 {
		t.Fatalf("selected-users filter failed, got %v", users)
	}
}

func TestCSVGraphSourceSkipsMalformedLines(t *testing.T) {
	path := writeTemp(t, "graph.csv", "not-a-number,1,2\n\n5,1,6\n")
	src, err := OpenCSVGraphSource(context.Background(), path, CSVGraphOptions{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	rec, ok, err := src.Next()
	if err != nil || !ok || rec.User != 5 {
		t.Fatalf("expected to skip malformed/blank lines and land on user 5, got %v %v %v", rec, ok, err)
	}
}

func TestJSONLRetweetSourceDropsNonRetweets(t *testing.T) {
	content := `{"created_at":1,"id":1,"user":1}
{"created_at":2,"id":2,"user":2,"retweeted_status":{"created_at":1,"id":1,"user":1}}
not json at all
`
	path := writeTemp(t, "retweets.jsonl", content)
	src, err := OpenJSONLRetweetSource(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	rt, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next: %v %v", ok, err)
	}
	if rt.ID != 2 || rt.RetweetedStatus == nil || rt.RetweetedStatus.ID != 1 {
		t.Fatalf("unexpected retweet %+v", rt)
	}

	_, ok, err = src.Next()
	if err != nil || ok {
		t.Fatalf("expected exhaustion after dropping the non-retweet and the malformed line, got ok=%v err=%v", ok, err)
	}
}
