package nats

import (
	"context"
	"errors"
	"fmt"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
	"github.com/next-trace/scg-agent-bus/internal/codec"
)

// DefaultSubjectPrefix is prepended to the record kind to form the subject.
const DefaultSubjectPrefix = "agentbus.log"

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
}

// Sink mirrors bus records to NATS subjects "<prefix>.<kind>".
type Sink struct {
	Client  Client
	Prefix  string
	cleanup func()
}

// Ensure Sink implements the contract.
var _ cbus.Sink = (*Sink)(nil)

// New creates a new NATS sink with the provided client and the default prefix.
func New(c Client) *Sink { return &Sink{Client: c, Prefix: DefaultSubjectPrefix} }

func (s *Sink) Write(ctx context.Context, rec cbus.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.Client == nil {
		return fmt.Errorf("nats write: %w", berr.ErrSinkUnavailable)
	}

	body, err := codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("nats write serialize: %w", err)
	}

	if err := s.Client.Publish(s.subject(rec), body, rec.Headers()); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats write publish: %w", errors.Join(berr.ErrSinkWriteFailed, err))
	}

	return nil
}

// Close releases the connection when the sink owns one.
func (s *Sink) Close() error {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}

	return nil
}

func (s *Sink) subject(rec cbus.Record) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return prefix + "." + string(rec.Kind)
}
