package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cascadeflow/crgp/internal/model"
)

func sampleEdges() []model.InfluenceEdge {
	return []model.InfluenceEdge{
		{Influencer: 1, Influencee: 2, Timestamp: 10, RetweetID: 3, CascadeID: 4, OriginalUser: 1},
		{Influencer: 5, Influencee: 2, Timestamp: 11, RetweetID: 6, CascadeID: 4, OriginalUser: 1},
	}
}

func TestDirectorySinkLazyCreateAndAppend(t *testing.T) {
	dir := t.TempDir()
	w := New(Sink{Kind: KindDirectory, Path: dir}, nil)

	if _, err := os.Stat(filepath.Join(dir, "cascs.csv")); !os.IsNotExist(err) {
		t.Fatalf("file should not exist before the first WriteEpoch")
	}

	w.WriteEpoch(sampleEdges())
	w.WriteEpoch(sampleEdges())
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "cascs.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "4;3;2;1;10;-1\n4;6;2;5;11;-1\n4;3;2;1;10;-1\n4;6;2;5;11;-1\n"
	if string(data) != want {
		t.Fatalf("got %q want %q", string(data), want)
	}
	if w.Written() != 4 {
		t.Fatalf("Written() = %d, want 4", w.Written())
	}
}

func TestDiscardSinkWritesNothing(t *testing.T) {
	dir := t.TempDir()
	w := New(Sink{Kind: KindDiscard}, nil)
	w.WriteEpoch(sampleEdges())
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("discard sink must not create files, found %v", entries)
	}
}

func TestWriteEpochEmptySliceNoOp(t *testing.T) {
	dir := t.TempDir()
	w := New(Sink{Kind: KindDirectory, Path: dir}, nil)
	w.WriteEpoch(nil)
	if _, err := os.Stat(filepath.Join(dir, "cascs.csv")); !os.IsNotExist(err) {
		t.Fatalf("an empty epoch batch must not create the output file")
	}
}
