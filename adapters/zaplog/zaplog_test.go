package zaplog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/next-trace/scg-agent-bus/adapters/zaplog"
	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

func TestZapSink_WritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := zaplog.New(zap.New(core))

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.Write(t.Context(), cbus.Record{Timestamp: ts, Kind: cbus.KindHandle, Topic: "tasks", HandlerID: "handler-1", Result: "done", Bus: "b1"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Level != zapcore.InfoLevel {
		t.Fatalf("level=%v", e.Level)
	}

	fields := e.ContextMap()
	if fields["kind"] != "handle" || fields["topic"] != "tasks" || fields["handler_id"] != "handler-1" || fields["result"] != "done" {
		t.Fatalf("fields=%v", fields)
	}

	if _, ok := fields["payload"]; ok {
		t.Fatalf("nil payload must be omitted")
	}
}

func TestZapSink_FailedHandleLogsError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := zaplog.New(zap.New(core))

	_ = s.Write(t.Context(), cbus.Record{Kind: cbus.KindHandle, Topic: "tasks", Result: "boom", Failed: true})

	if got := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); got != 1 {
		t.Fatalf("want 1 error entry, got %d", got)
	}
}

func TestZapSink_Errors(t *testing.T) {
	if err := zaplog.New(nil).Write(t.Context(), cbus.Record{}); !errors.Is(err, berr.ErrSinkUnavailable) {
		t.Fatalf("want ErrSinkUnavailable, got %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	core, logs := observer.New(zapcore.InfoLevel)
	if err := zaplog.New(zap.New(core)).Write(ctx, cbus.Record{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	if logs.Len() != 0 {
		t.Fatalf("canceled write must not log")
	}
}
