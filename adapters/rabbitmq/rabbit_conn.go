package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

// Concrete AMQP connection-backed constructor and publisher wrapper with auto-reconnect.

const exchangeKind = "topic"

type Config struct {
	URL         string        `yaml:"url"`
	Exchange    string        `yaml:"exchange"`
	ConnTimeout time.Duration `yaml:"connTimeout"`
	// Logger receives reconnect diagnostics. Nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

type session struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func (s session) close() {
	_ = s.ch.Close()
	_ = s.conn.Close()
}

type reconnectingPublisher struct {
	cfg    Config
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	cur  *session
	done chan struct{}
}

func newReconnectingPublisher(cfg Config) (*reconnectingPublisher, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rp := &reconnectingPublisher{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go rp.run()

	return rp, rp.close
}

// Publish fails fast with ErrSinkUnavailable while no session is up; it
// never waits for a reconnect.
func (rp *reconnectingPublisher) Publish(ctx context.Context, m PubMsg) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if rp.ctx.Err() != nil {
		return fmt.Errorf("%w: rabbitmq publisher closed", berr.ErrSinkUnavailable)
	}

	rp.mu.RLock()
	cur := rp.cur
	rp.mu.RUnlock()

	if cur == nil {
		return fmt.Errorf("%w: rabbitmq not connected", berr.ErrSinkUnavailable)
	}

	return cur.ch.PublishWithContext(
		ctx,
		m.Exchange,
		m.RoutingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			Headers:      headerTable(m.Headers),
			ContentType:  "application/json",
			Body:         m.Body,
		},
	)
}

func (rp *reconnectingPublisher) dial() (session, error) {
	conn, err := amqp.DialConfig(rp.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: amqp.Table{"product": "scg-agent-bus"},
		Dial:       amqp.DefaultDial(rp.cfg.ConnTimeout),
	})
	if err != nil {
		return session{}, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return session{}, err
	}

	if err := ch.ExchangeDeclare(rp.cfg.Exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return session{}, err
	}

	return session{conn: conn, ch: ch}, nil
}

func (rp *reconnectingPublisher) run() {
	defer close(rp.done)

	notify := func(err error, next time.Duration) {
		rp.logger.Warn("rabbitmq sink: dial failed", "url", rp.cfg.URL, "retry_in", next, "err", err)
	}

	for rp.ctx.Err() == nil {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = time.Second
		bo.MaxInterval = 30 * time.Second

		s, err := backoff.Retry(rp.ctx, rp.dial,
			backoff.WithBackOff(bo),
			backoff.WithMaxElapsedTime(0),
			backoff.WithNotify(notify))
		if err != nil {
			continue
		}

		rp.mu.Lock()
		rp.cur = &s
		rp.mu.Unlock()

		// Block on connection close notifications to trigger reconnect
		closed := s.conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-rp.ctx.Done():
		case <-closed:
		}

		rp.mu.Lock()
		rp.cur = nil
		rp.mu.Unlock()
		s.close()
	}
}

func (rp *reconnectingPublisher) close() {
	rp.cancel()
	<-rp.done
}

// NewWithAMQPConn dials RabbitMQ with auto-reconnect, declares the exchange,
// and returns a Sink that owns the connection.
func NewWithAMQPConn(cfg Config) (*Sink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrSinkUnavailable)
	}

	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}

	pub, cleanup := newReconnectingPublisher(cfg)

	s := New(pub)
	s.Exchange = cfg.Exchange
	s.cleanup = cleanup

	return s, nil
}
