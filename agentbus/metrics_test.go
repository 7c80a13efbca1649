package agentbus_test

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/next-trace/scg-agent-bus/agentbus"
	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	var total int64

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, m.Data)
			}

			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}

	return total
}

func TestMetrics_CountSendsHandlesAndSinkErrors(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	b, sink := newBus(t, cbus.Broadcast,
		agentbus.WithMeterProvider(mp),
		agentbus.WithErrorHandler(func(error) {}),
	)

	_, _ = b.Subscribe("tasks", nop())
	_, _ = b.SubscribeFunc("tasks", func(context.Context, any) (any, error) { return nil, errors.New("no") })

	_ = b.Send(t.Context(), "tasks", 1)
	_ = b.Send(t.Context(), "empty", 2)

	sink.FailWith(berr.ErrSinkWriteFailed)
	_ = b.Send(t.Context(), "empty", 3)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(t.Context(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if got := sumOf(t, rm, "agentbus.sends"); got != 3 {
		t.Fatalf("sends=%d", got)
	}

	if got := sumOf(t, rm, "agentbus.handled"); got != 2 {
		t.Fatalf("handled=%d", got)
	}

	if got := sumOf(t, rm, "agentbus.sink.errors"); got != 1 {
		t.Fatalf("sink errors=%d", got)
	}
}
