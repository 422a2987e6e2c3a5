package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "console-relay.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `build:
  entry_points: [src/index.js]
  outdir: dist
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.AssetPort != DefaultAssetPort {
		t.Errorf("asset_port: got %d, want %d", cfg.Relay.AssetPort, DefaultAssetPort)
	}
	if cfg.Relay.MessagingPort != DefaultMessagingPort {
		t.Errorf("messaging_port: got %d, want %d", cfg.Relay.MessagingPort, DefaultMessagingPort)
	}
	if cfg.Relay.MessagingPrefix != DefaultMessagingPrefix {
		t.Errorf("messaging_prefix: got %q, want %q", cfg.Relay.MessagingPrefix, DefaultMessagingPrefix)
	}
	if !cfg.Build.Bundle {
		t.Error("bundle: got false, want true")
	}
	if cfg.Build.Debounce != DefaultDebounce {
		t.Errorf("debounce: got %v, want %v", cfg.Build.Debounce, DefaultDebounce)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `relay:
  host: 127.0.0.1
  asset_port: 9000
  asset_path: /client.js
  messaging_port: 9001
  messaging_prefix: /diag
  send_buffer: 4
build:
  entry_points: [a.ts, b.ts]
  outdir: out
  watch: [src, lib]
  debounce: 250ms
log:
  level: debug
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.Relay.AssetURL(), "http://127.0.0.1:9000/client.js"; got != want {
		t.Errorf("AssetURL: got %q, want %q", got, want)
	}
	if got, want := cfg.Relay.MessagingURL(), "ws://127.0.0.1:9001/diag"; got != want {
		t.Errorf("MessagingURL: got %q, want %q", got, want)
	}
	if len(cfg.Build.EntryPoints) != 2 || len(cfg.Build.Watch) != 2 {
		t.Errorf("entry_points/watch: got %v / %v", cfg.Build.EntryPoints, cfg.Build.Watch)
	}
	if cfg.Build.Debounce != 250*time.Millisecond {
		t.Errorf("debounce: got %v, want 250ms", cfg.Build.Debounce)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level: got %q, want debug", cfg.Log.Level)
	}
}

func TestDefaultRelay_URLs(t *testing.T) {
	r := DefaultRelay()
	if got, want := r.AssetURL(), "http://localhost:23233/assistant.js"; got != want {
		t.Errorf("AssetURL: got %q, want %q", got, want)
	}
	if got, want := r.MessagingURL(), "ws://localhost:56867/console-relay"; got != want {
		t.Errorf("MessagingURL: got %q, want %q", got, want)
	}
	if err := ValidateRelay(r); err != nil {
		t.Errorf("ValidateRelay(defaults): %v", err)
	}
}

func TestValidateRelay_Paths(t *testing.T) {
	tests := []struct {
		name      string
		assetPath string
		prefix    string
		wantErr   bool
	}{
		{"defaults", DefaultAssetPath, DefaultMessagingPrefix, false},
		{"nested asset path", "/static/relay.js", "/ws", false},
		{"asset on healthz", "/healthz", DefaultMessagingPrefix, true},
		{"asset on metrics", "/metrics", DefaultMessagingPrefix, true},
		{"asset on diagnostics", "/api/v1/diagnostics", DefaultMessagingPrefix, true},
		{"wildcard asset path", "/{file}", DefaultMessagingPrefix, true},
		{"method in asset path", "/a.js GET", DefaultMessagingPrefix, true},
		{"wildcard prefix", DefaultAssetPath, "/relay/{id}", true},
		{"prefix with space", DefaultAssetPath, "/console relay", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRelay()
			r.AssetPath = tt.assetPath
			r.MessagingPrefix = tt.prefix
			err := ValidateRelay(r)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRelay: got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "relay:\n  asset_port: 70000\n"},
		{"same ports", "relay:\n  asset_port: 9000\n  messaging_port: 9000\n"},
		{"relative asset path", "relay:\n  asset_path: assistant.js\n"},
		{"relative prefix", "relay:\n  messaging_prefix: ws\n"},
		{"reserved asset path", "relay:\n  asset_path: /metrics\n"},
		{"zero send buffer", "relay:\n  send_buffer: 0\n"},
		{"outdir and outfile", "build:\n  outdir: a\n  outfile: b.js\n"},
		{"unknown log level", "log:\n  level: verbose\n"},
		{"bad yaml", "relay: [\n"},
		{"negative replay ttl", "relay:\n  replay_ttl: -1s\n"},
		{"entry points without output", "build:\n  entry_points: [src/index.js]\n"},
		{"unnamed rule", "alerts:\n  rules:\n    - condition: errors > 0\n"},
		{"malformed condition", "alerts:\n  rules:\n    - name: r\n      condition: errors\n"},
		{"unknown webhook", "alerts:\n  webhooks:\n    - type: pagerduty\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/console-relay.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_Alerts(t *testing.T) {
	t.Setenv("TEST_SLACK_URL", "https://hooks.example/slack")
	p := writeConfig(t, `alerts:
  rules:
    - name: broken-build
      condition: errors > 0
      severity: critical
      cooldown: 1m
  webhooks:
    - type: slack
      url_env: TEST_SLACK_URL
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Alerts.Rules) != 1 || cfg.Alerts.Rules[0].Cooldown != time.Minute {
		t.Errorf("rules: got %+v", cfg.Alerts.Rules)
	}
	if u := cfg.Alerts.Webhooks[0].URL(); u != "https://hooks.example/slack" {
		t.Errorf("URL(): got %q", u)
	}
	if cfg.Relay.ReplayTTL != DefaultReplayTTL {
		t.Errorf("replay_ttl: got %v, want %v", cfg.Relay.ReplayTTL, DefaultReplayTTL)
	}
}
