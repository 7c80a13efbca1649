package agentbus

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/next-trace/scg-agent-bus/agentbus"

type busMetrics struct {
	sends          metric.Int64Counter
	handled        metric.Int64Counter
	sinkErrors     metric.Int64Counter
	handleDuration metric.Float64Histogram
}

func newBusMetrics(mp metric.MeterProvider) *busMetrics {
	meter := mp.Meter(meterName)
	m := &busMetrics{}

	m.sends, _ = meter.Int64Counter("agentbus.sends",
		metric.WithDescription("Number of messages sent to the bus"),
		metric.WithUnit("{message}"))
	m.handled, _ = meter.Int64Counter("agentbus.handled",
		metric.WithDescription("Number of handler invocations by outcome"),
		metric.WithUnit("{invocation}"))
	m.sinkErrors, _ = meter.Int64Counter("agentbus.sink.errors",
		metric.WithDescription("Number of records the sink failed to write"),
		metric.WithUnit("{error}"))
	m.handleDuration, _ = meter.Float64Histogram("agentbus.handle.duration",
		metric.WithDescription("Latency of handler invocations"),
		metric.WithUnit("ms"))

	return m
}

func (m *busMetrics) sent(ctx context.Context, topic, policy string, selected int) {
	if m.sends == nil {
		return
	}

	m.sends.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("policy", policy),
		attribute.Bool("delivered", selected > 0)))
}

func (m *busMetrics) handledOne(ctx context.Context, topic string, failed bool, took time.Duration) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}

	attrs := metric.WithAttributes(attribute.String("topic", topic), attribute.String("outcome", outcome))

	if m.handled != nil {
		m.handled.Add(ctx, 1, attrs)
	}

	if m.handleDuration != nil {
		m.handleDuration.Record(ctx, float64(took.Microseconds())/1000, attrs)
	}
}

func (m *busMetrics) sinkFailed(ctx context.Context, kind string) {
	if m.sinkErrors == nil {
		return
	}

	m.sinkErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
