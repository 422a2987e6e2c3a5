package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the relay configuration.
const (
	DefaultHost            = "localhost"
	DefaultAssetPort       = 23233
	DefaultAssetPath       = "/assistant.js"
	DefaultMessagingPort   = 56867
	DefaultMessagingPrefix = "/console-relay"
	DefaultSendBuffer      = 16
	DefaultDebounce        = 100 * time.Millisecond
	DefaultLogLevel        = "info"
	DefaultReplayTTL       = 10 * time.Minute
)

// Config holds the full configuration parsed from console-relay.yaml.
type Config struct {
	Relay  RelayConfig  `yaml:"relay"`
	Build  BuildConfig  `yaml:"build"`
	Alerts AlertsConfig `yaml:"alerts"`
	Log    LogConfig    `yaml:"log"`
}

// RelayConfig controls the two endpoints browsers talk to.
type RelayConfig struct {
	// Host is the hostname browsers use to reach the relay. It appears in the
	// injected snippet and both listeners bind to it.
	Host string `yaml:"host"`

	// AssetPort serves the companion script (default 23233).
	AssetPort int `yaml:"asset_port"`

	// AssetPath is the URL path of the companion script (default /assistant.js).
	AssetPath string `yaml:"asset_path"`

	// AssetDir, when set, serves the companion script from this directory
	// instead of the copy built into the binary.
	AssetDir string `yaml:"asset_dir"`

	// MessagingPort serves the WebSocket endpoint (default 56867).
	MessagingPort int `yaml:"messaging_port"`

	// MessagingPrefix is the URL path of the WebSocket endpoint.
	MessagingPrefix string `yaml:"messaging_prefix"`

	// SendBuffer is the per-connection outgoing message queue depth.
	SendBuffer int `yaml:"send_buffer"`

	// ReplayTTL is how long the last build's diagnostics are replayed to
	// browsers that connect after the build. Zero disables replay.
	ReplayTTL time.Duration `yaml:"replay_ttl"`
}

// AssetURL is the URL the injected snippet loads the companion script from.
func (r RelayConfig) AssetURL() string {
	return fmt.Sprintf("http://%s:%d%s", r.Host, r.AssetPort, r.AssetPath)
}

// MessagingURL is the WebSocket URL the companion script connects to.
func (r RelayConfig) MessagingURL() string {
	return fmt.Sprintf("ws://%s:%d%s", r.Host, r.MessagingPort, r.MessagingPrefix)
}

// BuildConfig describes the esbuild invocation run by the server binary.
type BuildConfig struct {
	EntryPoints []string `yaml:"entry_points"`
	Outdir      string   `yaml:"outdir"`
	Outfile     string   `yaml:"outfile"`
	Bundle      bool     `yaml:"bundle"`
	Sourcemap   bool     `yaml:"sourcemap"`
	Minify      bool     `yaml:"minify"`

	// Watch lists directories whose changes trigger a rebuild. Empty means
	// build once and keep serving.
	Watch []string `yaml:"watch"`

	// Debounce coalesces bursts of file events into one rebuild.
	Debounce time.Duration `yaml:"debounce"`
}

// AlertsConfig holds build alert rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition on a finished build.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "errors > 0", "warnings >= 20",
	// "state == failing".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 5 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// LogConfig sets the slog level: debug | info | warn | error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Relay: DefaultRelay(),
		Build: BuildConfig{
			Bundle:   true,
			Debounce: DefaultDebounce,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// DefaultRelay returns the relay settings matching the fixed ports and paths
// browsers expect out of the box.
func DefaultRelay() RelayConfig {
	return RelayConfig{
		Host:            DefaultHost,
		AssetPort:       DefaultAssetPort,
		AssetPath:       DefaultAssetPath,
		MessagingPort:   DefaultMessagingPort,
		MessagingPrefix: DefaultMessagingPrefix,
		SendBuffer:      DefaultSendBuffer,
		ReplayTTL:       DefaultReplayTTL,
	}
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("relay config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("relay config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if err := ValidateRelay(cfg.Relay); err != nil {
		return err
	}
	if cfg.Build.Outdir != "" && cfg.Build.Outfile != "" {
		return fmt.Errorf("build.outdir and build.outfile are mutually exclusive")
	}
	if len(cfg.Build.EntryPoints) > 0 && cfg.Build.Outdir == "" && cfg.Build.Outfile == "" {
		return fmt.Errorf("build.outdir or build.outfile is required with entry_points")
	}
	if cfg.Build.Debounce < 0 {
		return fmt.Errorf("build.debounce must not be negative")
	}
	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d].name is required", i)
		}
		if len(strings.Fields(r.Condition)) != 3 {
			return fmt.Errorf("alerts.rules[%d].condition %q: want \"field op value\"", i, r.Condition)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d].type %q unknown: want slack|teams|http", i, w.Type)
		}
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}

// reservedAssetPaths are served next to the companion script on the asset
// port.
var reservedAssetPaths = []string{"/healthz", "/metrics", "/api/v1/diagnostics"}

// ValidateRelay checks the relay section on its own. Port 0 is accepted and
// asks the OS for a free port.
func ValidateRelay(r RelayConfig) error {
	if r.AssetPort < 0 || r.AssetPort > 65535 {
		return fmt.Errorf("relay.asset_port %d is out of range [0, 65535]", r.AssetPort)
	}
	if r.MessagingPort < 0 || r.MessagingPort > 65535 {
		return fmt.Errorf("relay.messaging_port %d is out of range [0, 65535]", r.MessagingPort)
	}
	if r.AssetPort != 0 && r.AssetPort == r.MessagingPort {
		return fmt.Errorf("relay.asset_port and relay.messaging_port must differ (both %d)", r.AssetPort)
	}
	if err := validatePath("relay.asset_path", r.AssetPath); err != nil {
		return err
	}
	if slices.Contains(reservedAssetPaths, r.AssetPath) {
		return fmt.Errorf("relay.asset_path %q is reserved", r.AssetPath)
	}
	if err := validatePath("relay.messaging_prefix", r.MessagingPrefix); err != nil {
		return err
	}
	if r.SendBuffer <= 0 {
		return fmt.Errorf("relay.send_buffer must be positive")
	}
	if r.ReplayTTL < 0 {
		return fmt.Errorf("relay.replay_ttl must not be negative")
	}
	if r.Host == "" {
		return fmt.Errorf("relay.host is required")
	}
	return nil
}

// validatePath rejects URL paths that would not register as a literal
// http.ServeMux pattern.
func validatePath(field, p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("%s %q must start with /", field, p)
	}
	if strings.ContainsAny(p, "{} \t") {
		return fmt.Errorf("%s %q must not contain braces or whitespace", field, p)
	}
	return nil
}
