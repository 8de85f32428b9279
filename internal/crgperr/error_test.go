package crgperr

import (
	"errors"
	"testing"
)

func TestExitCodes(t *testing.T) {
	cases := map[Kind]int{Source: 2, Runtime: 4, Worker: 4, IOWrite: 2}
	for kind, want := range cases {
		if got := kind.ExitCode(); got != want {
			t.Fatalf("%s.ExitCode() = %d, want %d", kind, got, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	e := New(Worker, inner)
	if !errors.Is(e, inner) {
		t.Fatalf("errors.Is must see through to the wrapped error")
	}
	if e.Error() == "" {
		t.Fatalf("Error() must not be empty")
	}
}

func TestHighestPicksLowestPrecedenceIndex(t *testing.T) {
	source := New(Source, errors.New("a"))
	worker := New(Worker, errors.New("b"))
	ioWrite := New(IOWrite, errors.New("c"))

	if got := Highest(worker, source, ioWrite); got != source {
		t.Fatalf("Highest must prefer Source over Worker/IOWrite, got %v", got)
	}
	if got := Highest(worker, ioWrite); got != worker {
		t.Fatalf("Highest must prefer Worker over IOWrite, got %v", got)
	}
}

func TestHighestAllNil(t *testing.T) {
	if got := Highest(nil, nil); got != nil {
		t.Fatalf("Highest of all-nil must be nil, got %v", got)
	}
	if got := Highest(); got != nil {
		t.Fatalf("Highest of no args must be nil, got %v", got)
	}
}
