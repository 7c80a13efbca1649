package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

// Concrete franz-go based constructor and writer wrapper.

// Produce timeouts applied when Config leaves them unset.
const (
	DefaultDeliveryTimeout = 5 * time.Second
	DefaultRequestTimeout  = 5 * time.Second
)

type Config struct {
	Brokers    []string `yaml:"brokers"`
	ClientID   string   `yaml:"clientId"`
	Topic      string   `yaml:"topic"`
	AllISRAcks bool     `yaml:"allIsrAcks"`
	Idempotent bool     `yaml:"idempotent"`
	// DeliveryTimeout bounds how long a record may be buffered and retried.
	DeliveryTimeout time.Duration `yaml:"deliveryTimeout"`
	// RequestTimeout bounds a single produce request on the broker.
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	TLS            *tls.Config   `yaml:"-"`
}

func (c Config) timeouts() (delivery, request time.Duration) {
	delivery, request = c.DeliveryTimeout, c.RequestTimeout
	if delivery <= 0 {
		delivery = DefaultDeliveryTimeout
	}

	if request <= 0 {
		request = DefaultRequestTimeout
	}

	return delivery, request
}

type kgoWriter struct{ cl *kgo.Client }

func (w kgoWriter) Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	if len(headers) > 0 {
		rec.Headers = make([]kgo.RecordHeader, 0, len(headers))
		for k, v := range headers {
			rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
		}
	}

	return w.cl.ProduceSync(ctx, rec).FirstErr()
}

// NewWithKgo builds a franz-go client backed Sink. Closing the Sink closes the client.
func NewWithKgo(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka brokers required", berr.ErrSinkUnavailable)
	}

	delivery, request := cfg.timeouts()

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RecordDeliveryTimeout(delivery),
		kgo.ProduceRequestTimeout(request),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	if cfg.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(cfg.TLS))
	}

	if cfg.AllISRAcks {
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	} else {
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()))
	}

	// idempotent writes require acks from all in-sync replicas
	if !cfg.Idempotent || !cfg.AllISRAcks {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: kafka client init: %w", berr.ErrSinkUnavailable, err)
	}

	s := New(kgoWriter{cl: cl})
	if cfg.Topic != "" {
		s.Topic = cfg.Topic
	}

	s.cleanup = cl.Close

	return s, nil
}
