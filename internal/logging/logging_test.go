package logging

import (
	"log/slog"
	"testing"
)

func TestLevelFromName(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for name, want := range cases {
		if got := levelFromName(name).Level(); got != want {
			t.Fatalf("levelFromName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestInitReturnsUsableLogger(t *testing.T) {
	log := Init("test-component", false, "debug")
	if log == nil {
		t.Fatalf("Init must return a non-nil logger")
	}
	log.Debug("hello")
}
