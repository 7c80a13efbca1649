package agentbus

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
)

// Option configures a Bus instance.
type Option func(*Bus)

// ErrorHandler receives diagnostics the bus cannot return to a caller, such
// as sink write failures.
type ErrorHandler func(err error)

// Middleware wraps handler invocation. Middlewares are executed in registration order.
type Middleware func(next cbus.HandlerFunc) cbus.HandlerFunc

// WithPolicy fixes the conflict-resolution policy for the Bus lifetime.
// An empty policy selects cbus.DefaultPolicy; an unrecognized one broadcasts.
func WithPolicy(p cbus.Policy) Option {
	return func(b *Bus) { b.policy = p }
}

// WithSink sets the record sink. It takes precedence over WithLogPath.
func WithSink(s cbus.Sink) Option {
	return func(b *Bus) { b.sink = s }
}

// WithLogPath sets the path of the default append-only file sink.
func WithLogPath(path string) Option {
	return func(b *Bus) { b.logPath = path }
}

// WithSinkTimeout bounds each sink write. A non-positive d removes the bound,
// leaving sinks to return on their own.
func WithSinkTimeout(d time.Duration) Option {
	return func(b *Bus) { b.sinkTimeout = d }
}

// WithLogger sets the operational logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithErrorHandler routes diagnostics to fn instead of the throttled logger warning.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(b *Bus) { b.onError = fn }
}

// WithMiddleware registers handler middleware.
func WithMiddleware(mw ...Middleware) Option {
	return func(b *Bus) { b.mw = append(b.mw, mw...) }
}

// WithMeterProvider sets the OpenTelemetry meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(b *Bus) { b.mp = mp }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// WithDiagnosticRate throttles the default diagnostic warnings to burst
// entries, refilled one per every. A non-positive every disables throttling.
func WithDiagnosticRate(every time.Duration, burst int) Option {
	return func(b *Bus) {
		if every <= 0 {
			b.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}

		if burst < 1 {
			burst = 1
		}

		b.limiter = rate.NewLimiter(rate.Every(every), burst)
	}
}
