package agentbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/next-trace/scg-agent-bus/adapters/file"
	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

// Bus is an in-process dispatcher over a Registry.
// Each send is resolved to a subset of the topic's handlers by the policy
// fixed at construction; every subscribe, send and handler outcome is
// written to the sink.
//
// Bus is concurrency-safe and contains no global state.
type Bus struct {
	id     string
	reg    *Registry
	policy cbus.Policy

	sink        cbus.Sink
	logPath     string
	sinkTimeout time.Duration

	mw []Middleware

	logger  *slog.Logger
	onError ErrorHandler
	limiter *rate.Limiter

	mp      metric.MeterProvider
	metrics *busMetrics
	now     func() time.Time

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ cbus.Bus = (*Bus)(nil)

// DefaultSinkTimeout bounds a single sink write.
const DefaultSinkTimeout = 5 * time.Second

// New constructs a Bus. Without WithSink, records are appended to the file
// at WithLogPath (default "agent-bus.log").
func New(opts ...Option) *Bus {
	b := &Bus{
		id:          uuid.NewString(),
		reg:         NewRegistry(),
		policy:      cbus.DefaultPolicy,
		logPath:     file.DefaultPath,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 5),
		now:         time.Now,
		sinkTimeout: DefaultSinkTimeout,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	if b.policy == "" {
		b.policy = cbus.DefaultPolicy
	}

	if !b.policy.Known() {
		b.logger.Warn("agentbus: unrecognized conflict resolution policy, broadcasting to every handler",
			"policy", string(b.policy))
	}

	if b.sink == nil {
		b.sink = file.New(b.logPath)
	}

	if b.mp == nil {
		b.mp = otel.GetMeterProvider()
	}

	b.metrics = newBusMetrics(b.mp)

	return b
}

// ID returns the unique identifier of this Bus instance.
func (b *Bus) ID() string { return b.id }

// Policy returns the conflict-resolution policy fixed at construction.
func (b *Bus) Policy() cbus.Policy { return b.policy }

// Subscribe registers h on topic and returns its handler id.
func (b *Bus) Subscribe(topic string, h cbus.Handler) (string, error) {
	if b.closed.Load() {
		return "", fmt.Errorf("subscribe %q: %w", topic, berr.ErrBusClosed)
	}

	id, err := b.reg.Register(topic, h)
	if err != nil {
		return "", err
	}

	b.emit(context.Background(), cbus.Record{Kind: cbus.KindSubscribe, Topic: topic, HandlerID: id})

	return id, nil
}

// SubscribeFunc registers fn on topic.
func (b *Bus) SubscribeFunc(topic string, fn func(ctx context.Context, payload any) (any, error)) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("subscribe %q: %w", topic, berr.ErrNilHandler)
	}

	return b.Subscribe(topic, cbus.HandlerFunc(fn))
}

// Unsubscribe removes handlerID from topic. Unknown topics or ids return false.
func (b *Bus) Unsubscribe(topic, handlerID string) bool {
	ok := b.reg.Unregister(topic, handlerID)
	if ok {
		b.logger.Debug("agentbus: unsubscribed", "topic", topic, "handler", handlerID)
	}

	return ok
}

// Topics returns every topic with at least one handler.
func (b *Bus) Topics() []string { return b.reg.Topics() }

// HandlerCount returns the number of handlers on topic.
func (b *Bus) HandlerCount(topic string) int { return b.reg.HandlerCount(topic) }

// Handlers returns a snapshot of topic's registrations.
func (b *Bus) Handlers(topic string) []Registration { return b.reg.Handlers(topic) }

// ClearTopic removes every handler of topic and reports whether it existed.
func (b *Bus) ClearTopic(topic string) bool {
	ok := b.reg.ClearTopic(topic)
	if ok {
		b.logger.Debug("agentbus: cleared topic", "topic", topic)
	}

	return ok
}

// ClearAll removes every topic and resets all rotation cursors.
func (b *Bus) ClearAll() {
	b.reg.ClearAll()
	b.logger.Debug("agentbus: cleared all topics")
}

// Send delivers payload to the handlers of topic selected by the policy.
//
// Handler failures and panics are recorded and swallowed; sink failures go
// to the diagnostic channel. Send fails only for an empty topic or a closed bus.
// Once handlers are selected they are all invoked, whatever ctx does.
func (b *Bus) Send(ctx context.Context, topic string, payload any) error {
	if topic == "" {
		return fmt.Errorf("send: %w", berr.ErrEmptyTopic)
	}

	if b.closed.Load() {
		return fmt.Errorf("send %q: %w", topic, berr.ErrBusClosed)
	}

	b.emit(ctx, cbus.Record{Kind: cbus.KindSend, Topic: topic, Payload: payload})

	selected := b.reg.Select(topic, b.policy)
	b.metrics.sent(ctx, topic, string(b.policy), len(selected))

	for _, reg := range selected {
		start := time.Now()
		res, err := b.invoke(ctx, topic, reg, payload)
		b.metrics.handledOne(ctx, topic, err != nil, time.Since(start))

		rec := cbus.Record{Kind: cbus.KindHandle, Topic: topic, HandlerID: reg.ID, Result: res}
		if err != nil {
			rec.Result = err.Error()
			rec.Failed = true
		}

		b.emit(ctx, rec)
	}

	return nil
}

// Close closes the sink. Later Subscribe and Send calls fail with ErrBusClosed.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.closeErr = b.sink.Close()
	})

	return b.closeErr
}

func (b *Bus) invoke(ctx context.Context, topic string, reg Registration, payload any) (res any, err error) {
	final := cbus.HandlerFunc(reg.Handler.Handle)
	for i := len(b.mw) - 1; i >= 0; i-- {
		final = b.mw[i](final)
	}

	ctx = cbus.WithDelivery(ctx, cbus.Delivery{Topic: topic, HandlerID: reg.ID})

	var pc panics.Catcher

	pc.Try(func() { res, err = final(ctx, payload) })

	if r := pc.Recovered(); r != nil {
		return nil, fmt.Errorf("%w: %v", berr.ErrHandlerPanic, r.Value)
	}

	return res, err
}

func (b *Bus) emit(ctx context.Context, rec cbus.Record) {
	rec.Timestamp = b.now().UTC()
	rec.Bus = b.id

	// detached from the caller so a canceled Send still gets its records
	wctx := context.WithoutCancel(ctx)
	if b.sinkTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(wctx, b.sinkTimeout)
		defer cancel()
	}

	if err := b.sink.Write(wctx, rec); err != nil {
		b.metrics.sinkFailed(ctx, string(rec.Kind))
		b.report(fmt.Errorf("write %s record for %q: %w", rec.Kind, rec.Topic, err))
	}
}

func (b *Bus) report(err error) {
	if b.onError != nil {
		b.onError(err)
		return
	}

	if b.limiter.Allow() {
		b.logger.Warn("agentbus: log sink write failed", "bus", b.id, "err", err)
	}
}
