package config

import (
	"testing"

	"github.com/cascadeflow/crgp/internal/output"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg.Algorithm != GALE {
		t.Fatalf("default algorithm = %q, want gale", cfg.Algorithm)
	}
	if cfg.BatchSize != 1000 {
		t.Fatalf("default batch size = %d, want 1000", cfg.BatchSize)
	}
	if !cfg.StrictActivationComparison {
		t.Fatalf("default strict comparison must be true")
	}
	if cfg.OutputTarget.Kind != output.KindStdout {
		t.Fatalf("default output target = %v, want stdout", cfg.OutputTarget.Kind)
	}
}

func TestParseOutputTargetVariants(t *testing.T) {
	cases := []struct {
		flagVal string
		want    output.Kind
	}{
		{"stdout", output.KindStdout},
		{"discard", output.KindDiscard},
		{"/var/lib/crgp/out", output.KindDirectory},
	}
	for _, c := range cases {
		cfg, err := Parse([]string{"-output-target", c.flagVal})
		if err != nil {
			t.Fatalf("Parse with output-target=%q: %v", c.flagVal, err)
		}
		if cfg.OutputTarget.Kind != c.want {
			t.Fatalf("output-target=%q => kind %v, want %v", c.flagVal, cfg.OutputTarget.Kind, c.want)
		}
	}
	cfg, err := Parse([]string{"-output-target", "/tmp/crgp-out"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.OutputTarget.Path != "/tmp/crgp-out" {
		t.Fatalf("directory sink path = %q, want /tmp/crgp-out", cfg.OutputTarget.Path)
	}
}

func TestParseRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := Parse([]string{"-algorithm", "bogus"}); err == nil {
		t.Fatalf("expected an error for an unknown algorithm")
	}
}

func TestParseRejectsBadBatchSize(t *testing.T) {
	if _, err := Parse([]string{"-batch-size", "0"}); err == nil {
		t.Fatalf("expected an error for batch-size 0")
	}
}

func TestParseRejectsProcessIDOutOfRange(t *testing.T) {
	if _, err := Parse([]string{"-number-of-processes", "2", "-process-id", "5"}); err == nil {
		t.Fatalf("expected an error for an out-of-range process id")
	}
}

func TestParseDerivesDefaultHostsForClusterMode(t *testing.T) {
	cfg, err := Parse([]string{"-number-of-processes", "3", "-process-id", "1"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"localhost:2101", "localhost:2102", "localhost:2103"}
	if len(cfg.Hosts) != len(want) {
		t.Fatalf("Hosts = %v, want %v", cfg.Hosts, want)
	}
	for i := range want {
		if cfg.Hosts[i] != want[i] {
			t.Fatalf("Hosts[%d] = %q, want %q", i, cfg.Hosts[i], want[i])
		}
	}
}

func TestParseRejectsHostsCountMismatch(t *testing.T) {
	if _, err := Parse([]string{"-number-of-processes", "2", "-hosts", "a:1,b:2,c:3"}); err == nil {
		t.Fatalf("expected an error when hosts count does not match number-of-processes")
	}
}
