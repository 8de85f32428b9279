// Package logging configures the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures and installs a global slog logger for component
// (typically "driver" or "worker-N"). JSON output is selected by
// jsonLog; the level comes from levelName ("debug", "info", "warn",
// "error" — defaulting to info on anything else).
func Init(component string, jsonLog bool, levelName string) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: false, Level: levelFromName(levelName)}

	var handler slog.Handler
	if jsonLog {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("component", component)
	slog.SetDefault(logger)
	return logger
}

func levelFromName(name string) slog.Leveler {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
