package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/consolerelay/consolerelay/pkg/types"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultRelayURL         = "ws://localhost:56867/console-relay"
	DefaultMetricsURL       = "http://localhost:23233/metrics"
	DefaultReconnectInitial = 1 * time.Second
	DefaultReconnectMax     = 60 * time.Second
	DefaultLogLevel         = "info"
)

// Config is the top-level configuration of the terminal subscriber.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
	Log   LogConfig   `yaml:"log"`
}

// AgentConfig holds the subscriber settings.
type AgentConfig struct {
	// RelayURL is the WebSocket messaging endpoint of a running relay.
	RelayURL string `yaml:"relay_url"`

	// ReconnectInitial is the first delay after a lost or failed connection.
	// Later delays double up to ReconnectMax.
	ReconnectInitial time.Duration `yaml:"reconnect_initial"`
	ReconnectMax     time.Duration `yaml:"reconnect_max"`

	// Output controls what is printed and how. It is hot-reloaded.
	Output OutputConfig `yaml:"output"`

	// Status configures the periodic relay health line.
	Status StatusConfig `yaml:"status"`
}

// OutputConfig selects which diagnostics are printed.
type OutputConfig struct {
	// Kinds lists the event kinds to print: warnings | errors. Empty prints all.
	Kinds []string `yaml:"kinds"`

	// Color prefixes lines with ANSI colors. Defaults to true when stdout is a
	// terminal.
	Color bool `yaml:"color"`

	// SkipEmpty hides events that carry no diagnostics.
	SkipEmpty bool `yaml:"skip_empty"`
}

// Shows reports whether events of kind k should be printed.
func (o OutputConfig) Shows(k types.Kind) bool {
	if len(o.Kinds) == 0 {
		return true
	}
	for _, s := range o.Kinds {
		if types.Kind(s) == k {
			return true
		}
	}
	return false
}

// StatusConfig configures polling of the relay's /metrics endpoint.
type StatusConfig struct {
	// MetricsURL is the relay's Prometheus text endpoint.
	MetricsURL string `yaml:"metrics_url"`

	// Interval between polls. Zero disables status reporting.
	Interval time.Duration `yaml:"interval"`
}

// LogConfig sets the slog level: debug | info | warn | error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// stdoutIsTerminal is replaced in tests.
var stdoutIsTerminal = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Default returns a Config pointing at a relay running with default ports.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			RelayURL:         DefaultRelayURL,
			ReconnectInitial: DefaultReconnectInitial,
			ReconnectMax:     DefaultReconnectMax,
			Output:           OutputConfig{Color: stdoutIsTerminal()},
			Status:           StatusConfig{MetricsURL: DefaultMetricsURL},
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.Agent.RelayURL)
	if err != nil {
		return fmt.Errorf("agent.relay_url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("agent.relay_url %q: scheme must be ws or wss", cfg.Agent.RelayURL)
	}
	if cfg.Agent.ReconnectInitial <= 0 {
		return fmt.Errorf("agent.reconnect_initial must be positive")
	}
	if cfg.Agent.ReconnectMax < cfg.Agent.ReconnectInitial {
		return fmt.Errorf("agent.reconnect_max must be at least reconnect_initial")
	}
	for i, k := range cfg.Agent.Output.Kinds {
		if !types.Kind(k).Valid() {
			return fmt.Errorf("agent.output.kinds[%d]: unknown kind %q", i, k)
		}
	}
	if cfg.Agent.Status.Interval < 0 {
		return fmt.Errorf("agent.status.interval must not be negative")
	}
	if cfg.Agent.Status.Interval > 0 && cfg.Agent.Status.MetricsURL == "" {
		return fmt.Errorf("agent.status.metrics_url is required when status.interval is set")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
