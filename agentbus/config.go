package agentbus

import (
	"fmt"
	"strings"
	"time"

	"github.com/next-trace/scg-agent-bus/adapters/file"
	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

// DiagnosticsConfig throttles the default sink-failure warnings.
type DiagnosticsConfig struct {
	Every time.Duration `yaml:"every"`
	Burst int           `yaml:"burst"`
}

// Config holds the construction-time settings of a Bus.
type Config struct {
	LogPath            string            `yaml:"logPath"`
	ConflictResolution cbus.Policy       `yaml:"conflictResolution"`
	StrictPolicy       bool              `yaml:"strictPolicy"`
	SinkTimeout        time.Duration     `yaml:"sinkTimeout"`
	Diagnostics        DiagnosticsConfig `yaml:"diagnostics"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		LogPath:            file.DefaultPath,
		ConflictResolution: cbus.DefaultPolicy,
		SinkTimeout:        DefaultSinkTimeout,
		Diagnostics:        DiagnosticsConfig{Every: time.Second, Burst: 5},
	}
}

// ApplyDefaults fills unset fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()

	c.LogPath = strings.TrimSpace(c.LogPath)
	if c.LogPath == "" {
		c.LogPath = d.LogPath
	}

	c.ConflictResolution = cbus.Policy(strings.ToLower(strings.TrimSpace(string(c.ConflictResolution))))
	if c.ConflictResolution == "" {
		c.ConflictResolution = d.ConflictResolution
	}

	if c.SinkTimeout == 0 {
		c.SinkTimeout = d.SinkTimeout
	}

	if c.Diagnostics.Every == 0 {
		c.Diagnostics.Every = d.Diagnostics.Every
	}

	if c.Diagnostics.Burst == 0 {
		c.Diagnostics.Burst = d.Diagnostics.Burst
	}
}

// Validate checks c. Unrecognized policies are accepted unless StrictPolicy is set.
func (c Config) Validate() error {
	if strings.TrimSpace(c.LogPath) == "" {
		return fmt.Errorf("logPath required: %w", berr.ErrInvalidConfig)
	}

	if c.StrictPolicy && !c.ConflictResolution.Known() {
		return fmt.Errorf("conflictResolution %q: %w", c.ConflictResolution, berr.ErrUnknownPolicy)
	}

	if c.SinkTimeout < 0 {
		return fmt.Errorf("sinkTimeout must be >=0: %w", berr.ErrInvalidConfig)
	}

	if c.Diagnostics.Every < 0 {
		return fmt.Errorf("diagnostics.every must be >=0: %w", berr.ErrInvalidConfig)
	}

	if c.Diagnostics.Burst < 0 {
		return fmt.Errorf("diagnostics.burst must be >=0: %w", berr.ErrInvalidConfig)
	}

	return nil
}

// Options converts c into Bus options.
func (c Config) Options() []Option {
	return []Option{
		WithLogPath(c.LogPath),
		WithPolicy(c.ConflictResolution),
		WithSinkTimeout(c.SinkTimeout),
		WithDiagnosticRate(c.Diagnostics.Every, c.Diagnostics.Burst),
	}
}

// NewFromConfig applies defaults, validates cfg and constructs a Bus.
// Extra options are applied after the ones derived from cfg.
func NewFromConfig(cfg Config, opts ...Option) (*Bus, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agentbus config: %w", err)
	}

	return New(append(cfg.Options(), opts...)...), nil
}
