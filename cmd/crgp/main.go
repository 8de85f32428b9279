// Command crgp reconstructs Retweet-influence cascades from a social
// graph and a Retweet stream, using either the GALE or LEAF algorithm.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cascadeflow/crgp/internal/config"
	"github.com/cascadeflow/crgp/internal/crgperr"
	"github.com/cascadeflow/crgp/internal/driver"
	"github.com/cascadeflow/crgp/internal/logging"
	"github.com/cascadeflow/crgp/internal/output"
	"github.com/cascadeflow/crgp/internal/runtime"
	"github.com/cascadeflow/crgp/internal/source"
	"github.com/cascadeflow/crgp/internal/statslog"
	"github.com/cascadeflow/crgp/internal/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	started := time.Now()

	cfg, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1 // bad arguments
	}

	log := logging.Init("driver", cfg.JSONLog, cfg.LogLevel)
	cfg.Log(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry := telemetry.Init(ctx, "crgp", cfg.OTLPEndpoint, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	graphSrc, err := source.OpenCSVGraphSource(ctx, cfg.GraphPath, source.CSVGraphOptions{
		PadWithDummyUsers: cfg.PadWithDummyUsers,
		SelectedUsersPath: cfg.SelectedUsersFile,
		Log:               log,
	})
	if err != nil {
		log.Error("failed to open graph source", "error", err)
		return crgperr.Source.ExitCode()
	}
	defer graphSrc.Close()

	retweetSrc, err := source.OpenJSONLRetweetSource(ctx, cfg.RetweetsPath, log)
	if err != nil {
		log.Error("failed to open retweet source", "error", err)
		return crgperr.Source.ExitCode()
	}
	defer retweetSrc.Close()

	writer := output.New(cfg.OutputTarget, log)
	defer writer.Close()

	rt, err := runtime.New(cfg, writer, log)
	if err != nil {
		log.Error("failed to construct runtime", "error", err)
		return crgperr.Runtime.ExitCode()
	}
	defer rt.Close()

	var progress *runtime.ProgressReporter
	if cfg.ReportConnectionProgress && cfg.NumberOfProcesses > 1 {
		progress, err = runtime.StartProgressReporter(rt, log)
		if err != nil {
			log.Warn("failed to start connection progress reporter", "error", err)
		} else {
			defer progress.Stop()
		}
	}

	d := driver.New(rt, cfg.BatchSize, log)
	st, derr := d.Run(ctx, started, graphSrc, retweetSrc)
	log.Info("run statistics", st.LogFields()...)

	if cfg.StatsHistoryPath != "" {
		h, err := statslog.Open(cfg.StatsHistoryPath)
		if err != nil {
			log.Warn("failed to open run statistics history", "error", err)
		} else {
			if _, err := h.Append(st); err != nil {
				log.Warn("failed to append run statistics history", "error", err)
			}
			h.Close()
		}
	}

	if derr != nil {
		log.Error("run failed", "kind", derr.Kind.String(), "error", derr.Err)
		return derr.Kind.ExitCode()
	}
	return 0
}
