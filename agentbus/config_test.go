package agentbus_test

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/next-trace/scg-agent-bus/agentbus"
	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

func TestConfig_Defaults(t *testing.T) {
	var c agentbus.Config
	c.ApplyDefaults()

	if c.LogPath != "agent-bus.log" {
		t.Fatalf("logPath=%q", c.LogPath)
	}

	if c.ConflictResolution != cbus.LastWriterWins {
		t.Fatalf("policy=%q", c.ConflictResolution)
	}

	if c.Diagnostics.Every != time.Second || c.Diagnostics.Burst != 5 {
		t.Fatalf("diagnostics=%+v", c.Diagnostics)
	}

	if c.SinkTimeout != agentbus.DefaultSinkTimeout {
		t.Fatalf("sinkTimeout=%v", c.SinkTimeout)
	}

	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestConfig_StrictPolicy(t *testing.T) {
	c := agentbus.Config{ConflictResolution: "Most-Recent"}
	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		t.Fatalf("lenient config should accept unknown policy: %v", err)
	}

	c.StrictPolicy = true
	if err := c.Validate(); !errors.Is(err, berr.ErrUnknownPolicy) {
		t.Fatalf("want ErrUnknownPolicy, got %v", err)
	}

	if _, err := agentbus.NewFromConfig(c); !errors.Is(err, berr.ErrUnknownPolicy) {
		t.Fatalf("want ErrUnknownPolicy from NewFromConfig, got %v", err)
	}
}

func TestConfig_InvalidDiagnostics(t *testing.T) {
	c := agentbus.DefaultConfig()
	c.Diagnostics.Burst = -1

	if err := c.Validate(); !errors.Is(err, berr.ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestConfig_NegativeSinkTimeout(t *testing.T) {
	c := agentbus.DefaultConfig()
	c.SinkTimeout = -time.Second

	if err := c.Validate(); !errors.Is(err, berr.ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestNewFromConfig_WritesToLogPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.log")

	b, err := agentbus.NewFromConfig(
		agentbus.Config{LogPath: path, ConflictResolution: " ROUND-ROBIN "},
		agentbus.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if b.Policy() != cbus.RoundRobin {
		t.Fatalf("policy=%q", b.Policy())
	}

	if err := b.Send(t.Context(), "tasks", 1); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if n := len(readLog(t, path)); n != 1 {
		t.Fatalf("want 1 line in %s, got %d", path, n)
	}
}
