// Package bootstrap loads a YAML configuration and assembles a Bus with its
// file sink and optional log mirrors.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/next-trace/scg-agent-bus/adapters/file"
	"github.com/next-trace/scg-agent-bus/adapters/kafka"
	"github.com/next-trace/scg-agent-bus/adapters/multi"
	"github.com/next-trace/scg-agent-bus/adapters/nats"
	"github.com/next-trace/scg-agent-bus/adapters/rabbitmq"
	"github.com/next-trace/scg-agent-bus/adapters/zaplog"
	"github.com/next-trace/scg-agent-bus/agentbus"
	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

// Mirrors lists optional sinks that receive a copy of every record.
type Mirrors struct {
	NATS     *nats.Config     `yaml:"nats"`
	Kafka    *kafka.Config    `yaml:"kafka"`
	RabbitMQ *rabbitmq.Config `yaml:"rabbitmq"`
	Console  bool             `yaml:"console"`
}

// Config is the on-disk configuration of an agent bus process.
type Config struct {
	agentbus.Config `yaml:",inline"`

	Mirrors Mirrors `yaml:"mirrors"`
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes YAML from r, applies defaults and validates the result.
// An empty document yields the default configuration.
func Parse(r io.Reader) (Config, error) {
	cfg := Config{Config: agentbus.DefaultConfig()}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w: %w", berr.ErrInvalidConfig, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Open builds the sinks described by cfg and returns a Bus writing to all of
// them. The returned cleanup closes the Bus and every sink.
func Open(ctx context.Context, cfg Config, logger *slog.Logger, opts ...agentbus.Option) (*agentbus.Bus, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	sinks, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	all := append(cfg.Options(), agentbus.WithLogger(logger), agentbus.WithSink(multi.New(sinks...)))

	b := agentbus.New(append(all, opts...)...)
	cleanup := func() {
		if err := b.Close(); err != nil {
			logger.Warn("agentbus: close sinks", "err", err)
		}
	}

	logger.Info("agentbus: ready",
		"bus", b.ID(),
		"policy", string(b.Policy()),
		"log_path", cfg.LogPath,
		"sinks", len(sinks))

	return b, cleanup, nil
}

func openSinks(ctx context.Context, cfg Config, logger *slog.Logger) ([]cbus.Sink, error) {
	sinks := []cbus.Sink{file.New(cfg.LogPath)}

	fail := func(name string, err error) ([]cbus.Sink, error) {
		_ = multi.New(sinks...).Close()
		return nil, fmt.Errorf("open %s mirror: %w", name, err)
	}

	m := cfg.Mirrors

	if m.NATS != nil {
		if err := ctx.Err(); err != nil {
			return fail("nats", err)
		}

		s, err := nats.NewWithNATS(*m.NATS)
		if err != nil {
			return fail("nats", err)
		}

		sinks = append(sinks, s)
	}

	if m.Kafka != nil {
		if err := ctx.Err(); err != nil {
			return fail("kafka", err)
		}

		s, err := kafka.NewWithKgo(*m.Kafka)
		if err != nil {
			return fail("kafka", err)
		}

		sinks = append(sinks, s)
	}

	if m.RabbitMQ != nil {
		if err := ctx.Err(); err != nil {
			return fail("rabbitmq", err)
		}

		rc := *m.RabbitMQ
		if rc.Logger == nil {
			rc.Logger = logger
		}

		s, err := rabbitmq.NewWithAMQPConn(rc)
		if err != nil {
			return fail("rabbitmq", err)
		}

		sinks = append(sinks, s)
	}

	if m.Console {
		s, err := zaplog.NewConsole()
		if err != nil {
			return fail("console", err)
		}

		sinks = append(sinks, s)
	}

	return sinks, nil
}
