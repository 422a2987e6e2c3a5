package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/consolerelay/consolerelay/pkg/types"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
agent:
  relay_url: "ws://127.0.0.1:9001/diag"
  reconnect_initial: 250ms
  reconnect_max: 5s
  output:
    kinds: [errors]
    color: true
  status:
    metrics_url: "http://127.0.0.1:9000/metrics"
    interval: 30s
log:
  level: debug
`
	cfg := loadFromString(t, yaml)

	if cfg.Agent.RelayURL != "ws://127.0.0.1:9001/diag" {
		t.Errorf("relay_url: got %q", cfg.Agent.RelayURL)
	}
	if cfg.Agent.ReconnectInitial != 250*time.Millisecond {
		t.Errorf("reconnect_initial: got %v", cfg.Agent.ReconnectInitial)
	}
	if cfg.Agent.ReconnectMax != 5*time.Second {
		t.Errorf("reconnect_max: got %v", cfg.Agent.ReconnectMax)
	}
	if !cfg.Agent.Output.Color {
		t.Error("color: got false")
	}
	if cfg.Agent.Status.Interval != 30*time.Second {
		t.Errorf("status.interval: got %v", cfg.Agent.Status.Interval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level: got %q", cfg.Log.Level)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, "agent: {}\n")

	if cfg.Agent.RelayURL != DefaultRelayURL {
		t.Errorf("default relay_url: got %q, want %q", cfg.Agent.RelayURL, DefaultRelayURL)
	}
	if cfg.Agent.ReconnectInitial != DefaultReconnectInitial {
		t.Errorf("default reconnect_initial: got %v", cfg.Agent.ReconnectInitial)
	}
	if cfg.Agent.ReconnectMax != DefaultReconnectMax {
		t.Errorf("default reconnect_max: got %v", cfg.Agent.ReconnectMax)
	}
	if cfg.Agent.Status.MetricsURL != DefaultMetricsURL {
		t.Errorf("default metrics_url: got %q", cfg.Agent.Status.MetricsURL)
	}
	if cfg.Agent.Status.Interval != 0 {
		t.Errorf("status is enabled by default: %v", cfg.Agent.Status.Interval)
	}
}

func TestDefault_ColorFollowsTerminal(t *testing.T) {
	orig := stdoutIsTerminal
	t.Cleanup(func() { stdoutIsTerminal = orig })

	for _, tty := range []bool{true, false} {
		stdoutIsTerminal = func() bool { return tty }
		if got := Default().Agent.Output.Color; got != tty {
			t.Errorf("tty=%v: default color got %v", tty, got)
		}
	}

	stdoutIsTerminal = func() bool { return true }
	cfg := loadFromString(t, "agent:\n  output:\n    color: false\n")
	if cfg.Agent.Output.Color {
		t.Error("explicit color: false overridden by terminal detection")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"http scheme", "agent:\n  relay_url: http://localhost:56867/console-relay\n"},
		{"zero initial", "agent:\n  reconnect_initial: 0s\n"},
		{"max below initial", "agent:\n  reconnect_initial: 10s\n  reconnect_max: 1s\n"},
		{"unknown kind", "agent:\n  output:\n    kinds: [infos]\n"},
		{"negative status interval", "agent:\n  status:\n    interval: -1s\n"},
		{"status without url", "agent:\n  status:\n    metrics_url: \"\"\n    interval: 5s\n"},
		{"unknown log level", "log:\n  level: loud\n"},
		{"bad yaml", "agent: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadStringErr(t, tc.yaml); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOutputConfig_Shows(t *testing.T) {
	all := OutputConfig{}
	if !all.Shows(types.KindWarnings) || !all.Shows(types.KindErrors) {
		t.Error("empty kinds should show everything")
	}
	errsOnly := OutputConfig{Kinds: []string{"errors"}}
	if errsOnly.Shows(types.KindWarnings) {
		t.Error("errors-only shows warnings")
	}
	if !errsOnly.Shows(types.KindErrors) {
		t.Error("errors-only hides errors")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("agent: {}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 16)
	go func() { _ = Watch(ctx, path, func(c *Config) { got <- c }) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("agent:\n  output:\n    kinds: [errors]\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	// The truncate and the write can arrive as separate events, so an early
	// reload may see an empty file.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case cfg := <-got:
			if !cfg.Agent.Output.Shows(types.KindWarnings) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}
