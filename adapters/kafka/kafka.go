package kafka

import (
	"context"
	"errors"
	"fmt"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
	"github.com/next-trace/scg-agent-bus/internal/codec"
)

// DefaultTopic receives every mirrored record.
const DefaultTopic = "agentbus.log"

// Writer is a minimal Kafka-like writer interface.
// Users can adapt segmentio/kafka-go or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Sink mirrors bus records to one Kafka topic, keyed by the bus topic so
// records of the same bus topic stay ordered within a partition.
type Sink struct {
	Writer  Writer
	Topic   string
	cleanup func()
}

var _ cbus.Sink = (*Sink)(nil)

// New creates a new Kafka sink with the provided writer and the default topic.
func New(w Writer) *Sink { return &Sink{Writer: w, Topic: DefaultTopic} }

func (s *Sink) Write(ctx context.Context, rec cbus.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.Writer == nil {
		return fmt.Errorf("kafka write: %w", berr.ErrSinkUnavailable)
	}

	val, err := codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("kafka write serialize: %w", err)
	}

	topic := s.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	if err = s.Writer.Write(ctx, topic, []byte(rec.Topic), val, rec.Headers()); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("kafka write to %q: %w", topic, errors.Join(berr.ErrSinkWriteFailed, err))
	}

	return nil
}

// Close releases the client when the sink owns one.
func (s *Sink) Close() error {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}

	return nil
}
