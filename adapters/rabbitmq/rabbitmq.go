package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
	"github.com/next-trace/scg-agent-bus/internal/codec"
)

// DefaultExchange is the topic exchange records are published to.
const DefaultExchange = "agentbus.log"

type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

// Sink publishes each record with routing key "<kind>.<topic>".
type Sink struct {
	Publisher  Publisher
	Exchange   string
	Propagator cbus.HeaderPropagator // optional, for context propagation into headers
	cleanup    func()
}

var _ cbus.Sink = (*Sink)(nil)

func New(p Publisher) *Sink { return &Sink{Publisher: p, Exchange: DefaultExchange} }

// NewWithPropagator allows configuring a HeaderPropagator for context propagation.
func NewWithPropagator(p Publisher, hp cbus.HeaderPropagator) *Sink {
	s := New(p)
	s.Propagator = hp

	return s
}

func (s *Sink) Write(ctx context.Context, rec cbus.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.Publisher == nil {
		return fmt.Errorf("rabbitmq write: %w", berr.ErrSinkUnavailable)
	}

	body, err := codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("rabbitmq write serialize: %w", err)
	}

	hdrs := rec.Headers()
	if s.Propagator != nil {
		s.Propagator.Inject(ctx, hdrs)
	}

	exchange := s.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}

	msg := PubMsg{
		Exchange:   exchange,
		RoutingKey: routingKey(rec),
		Body:       body,
		Headers:    hdrs,
	}

	if err := s.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq write publish: %w", errors.Join(berr.ErrSinkWriteFailed, err))
	}

	return nil
}

// Close stops the reconnecting publisher when the sink owns one.
func (s *Sink) Close() error {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}

	return nil
}

func routingKey(rec cbus.Record) string {
	return string(rec.Kind) + "." + rec.Topic
}

func headerTable(h map[string]string) amqp.Table {
	if len(h) == 0 {
		return nil
	}

	t := amqp.Table{}
	for k, v := range h {
		t[k] = v
	}

	return t
}

type amqpChannelPublisher struct{ ch *amqp.Channel }

func (p amqpChannelPublisher) Publish(ctx context.Context, m PubMsg) error {
	return p.ch.PublishWithContext(
		ctx,
		m.Exchange,
		m.RoutingKey,
		false,
		false,
		amqp.Publishing{
			Headers:     headerTable(m.Headers),
			Body:        m.Body,
			ContentType: "application/json",
		},
	)
}

// NewWithAMQPChannel wraps an existing channel. The caller owns the channel
// and must have declared the exchange.
func NewWithAMQPChannel(ch *amqp.Channel) *Sink {
	return New(amqpChannelPublisher{ch: ch})
}
