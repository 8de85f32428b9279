// Package config defines the Configuration surface (spec §6) plus the
// ambient knobs (logging, telemetry, stats history) that every run needs
// regardless of the excluded external-collaborator concerns.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cascadeflow/crgp/internal/output"
)

// Algorithm selects which reconstruction operator the run uses.
type Algorithm string

const (
	GALE Algorithm = "gale"
	LEAF Algorithm = "leaf"
)

// Configuration is the full recognised option surface: the core table
// from spec §6, plus the ambient logging/telemetry/diagnostics knobs a
// runnable binary needs.
type Configuration struct {
	Algorithm Algorithm
	BatchSize int

	Hosts              []string
	NumberOfProcesses  int
	ProcessID          int
	NumberOfWorkers    int

	OutputTarget output.Sink

	PadWithDummyUsers bool
	SelectedUsersFile string

	ReportConnectionProgress bool

	GraphPath    string
	RetweetsPath string

	// StrictActivationComparison selects the `>` predicate (spec §9's
	// resolved default) when true, `>=` when false.
	StrictActivationComparison bool

	LogLevel  string
	JSONLog   bool
	OTLPEndpoint string
	StatsHistoryPath string
}

// Default returns a Configuration with every documented default applied:
// GALE, batch size 1000, a single worker in a single process, output to
// stdout, strict comparison, info logging.
func Default() Configuration {
	return Configuration{
		Algorithm:                  GALE,
		BatchSize:                  1000,
		NumberOfProcesses:          1,
		ProcessID:                  0,
		NumberOfWorkers:            1,
		OutputTarget:               output.Sink{Kind: output.KindStdout},
		StrictActivationComparison: true,
		LogLevel:                   "info",
	}
}

// Parse builds a Configuration from command-line flags, falling back to
// CRGP_* environment variables for anything not passed on the line, and
// finally to Default()'s values.
func Parse(args []string) (Configuration, error) {
	cfg := Default()

	fs := flag.NewFlagSet("crgp", flag.ContinueOnError)

	algorithm := fs.String("algorithm", envOr("CRGP_ALGORITHM", string(cfg.Algorithm)), "reconstruction algorithm: gale or leaf")
	batchSize := fs.Int("batch-size", envOrInt("CRGP_BATCH_SIZE", cfg.BatchSize), "retweets per sync batch")
	hosts := fs.String("hosts", os.Getenv("CRGP_HOSTS"), "comma-separated host:port list for cluster mode")
	numProcesses := fs.Int("number-of-processes", envOrInt("CRGP_NUMBER_OF_PROCESSES", cfg.NumberOfProcesses), "cluster process count")
	processID := fs.Int("process-id", envOrInt("CRGP_PROCESS_ID", cfg.ProcessID), "this process's index in the cluster")
	numWorkers := fs.Int("number-of-workers", envOrInt("CRGP_NUMBER_OF_WORKERS", cfg.NumberOfWorkers), "worker threads per process")
	outputTarget := fs.String("output-target", envOr("CRGP_OUTPUT_TARGET", "stdout"), "stdout, discard, or a directory path")
	padDummy := fs.Bool("pad-with-dummy-users", envOrBool("CRGP_PAD_WITH_DUMMY_USERS", false), "pad sparse friend records with dummy users")
	selectedUsers := fs.String("selected-users", os.Getenv("CRGP_SELECTED_USERS"), "optional allow-list file of user ids")
	reportProgress := fs.Bool("report-connection-progress", envOrBool("CRGP_REPORT_CONNECTION_PROGRESS", false), "log cluster mesh connectivity periodically")
	graphPath := fs.String("graph", os.Getenv("CRGP_GRAPH"), "path to the social graph source")
	retweetsPath := fs.String("retweets", os.Getenv("CRGP_RETWEETS"), "path to the retweet source")
	strict := fs.Bool("strict-activation-comparison", envOrBool("CRGP_STRICT_ACTIVATION_COMPARISON", true), "use > instead of >= for the activation predicate")
	logLevel := fs.String("log-level", envOr("CRGP_LOG_LEVEL", cfg.LogLevel), "debug, info, warn, or error")
	jsonLog := fs.Bool("json-log", envOrBool("CRGP_JSON_LOG", false), "emit logs as JSON instead of text")
	otlpEndpoint := fs.String("otlp-endpoint", os.Getenv("CRGP_OTLP_ENDPOINT"), "OTLP/gRPC collector endpoint; empty disables telemetry")
	statsHistory := fs.String("stats-history", os.Getenv("CRGP_STATS_HISTORY"), "optional bbolt file to append run statistics to")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Algorithm = Algorithm(strings.ToLower(*algorithm))
	if cfg.Algorithm != GALE && cfg.Algorithm != LEAF {
		return cfg, fmt.Errorf("config: unknown algorithm %q", *algorithm)
	}

	cfg.BatchSize = *batchSize
	if cfg.BatchSize < 1 {
		return cfg, fmt.Errorf("config: batch-size must be >= 1, got %d", cfg.BatchSize)
	}

	if *hosts != "" {
		cfg.Hosts = strings.Split(*hosts, ",")
	}
	cfg.NumberOfProcesses = *numProcesses
	cfg.ProcessID = *processID
	if cfg.ProcessID < 0 || cfg.ProcessID >= cfg.NumberOfProcesses {
		return cfg, fmt.Errorf("config: process-id %d out of range [0,%d)", cfg.ProcessID, cfg.NumberOfProcesses)
	}
	if len(cfg.Hosts) > 0 && len(cfg.Hosts) != cfg.NumberOfProcesses {
		return cfg, fmt.Errorf("config: hosts count %d does not match number-of-processes %d", len(cfg.Hosts), cfg.NumberOfProcesses)
	}
	if len(cfg.Hosts) == 0 && cfg.NumberOfProcesses > 1 {
		cfg.Hosts = make([]string, cfg.NumberOfProcesses)
		for i := range cfg.Hosts {
			cfg.Hosts[i] = fmt.Sprintf("localhost:%d", 2101+i)
		}
	}

	cfg.NumberOfWorkers = *numWorkers
	if cfg.NumberOfWorkers < 1 {
		return cfg, fmt.Errorf("config: number-of-workers must be >= 1, got %d", cfg.NumberOfWorkers)
	}

	sink, err := parseOutputTarget(*outputTarget)
	if err != nil {
		return cfg, err
	}
	cfg.OutputTarget = sink

	cfg.PadWithDummyUsers = *padDummy
	cfg.SelectedUsersFile = *selectedUsers
	cfg.ReportConnectionProgress = *reportProgress
	cfg.GraphPath = *graphPath
	cfg.RetweetsPath = *retweetsPath
	cfg.StrictActivationComparison = *strict
	cfg.LogLevel = *logLevel
	cfg.JSONLog = *jsonLog
	cfg.OTLPEndpoint = *otlpEndpoint
	cfg.StatsHistoryPath = *statsHistory

	return cfg, nil
}

func parseOutputTarget(value string) (output.Sink, error) {
	switch strings.ToLower(value) {
	case "", "stdout":
		return output.Sink{Kind: output.KindStdout}, nil
	case "discard":
		return output.Sink{Kind: output.KindDiscard}, nil
	default:
		return output.Sink{Kind: output.KindDirectory, Path: value}, nil
	}
}

// LogFields renders cfg as slog key-value pairs, the way the driver logs
// its effective configuration on startup.
func (cfg Configuration) LogFields() []any {
	return []any{
		"algorithm", string(cfg.Algorithm),
		"batch_size", cfg.BatchSize,
		"number_of_processes", cfg.NumberOfProcesses,
		"process_id", cfg.ProcessID,
		"number_of_workers", cfg.NumberOfWorkers,
		"output_target", cfg.OutputTarget.Kind,
		"pad_with_dummy_users", cfg.PadWithDummyUsers,
		"strict_activation_comparison", cfg.StrictActivationComparison,
	}
}

// Log emits cfg at info level via logger.
func (cfg Configuration) Log(logger *slog.Logger) {
	logger.Info("configuration", cfg.LogFields()...)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}

func envOrBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}
