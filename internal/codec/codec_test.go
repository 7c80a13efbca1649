package codec_test

import (
	"bytes"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	"github.com/next-trace/scg-agent-bus/internal/codec"
)

func TestMarshal_OmitsEmptyFields(t *testing.T) {
	rec := cbus.Record{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Kind:      cbus.KindSend,
		Topic:     "tasks",
	}

	b, err := codec.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, k := range []string{"payload", "handlerId", "result", "failed", "bus"} {
		if _, ok := m[k]; ok {
			t.Fatalf("unexpected key %q in %s", k, b)
		}
	}

	if m["kind"] != "send" || m["topic"] != "tasks" {
		t.Fatalf("bad record: %s", b)
	}
}

func TestMarshal_FallsBackForUnencodablePayload(t *testing.T) {
	rec := cbus.Record{Kind: cbus.KindSend, Topic: "tasks", Payload: make(chan int), Result: "ok"}

	b, err := codec.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if _, ok := m["payload"].(string); !ok {
		t.Fatalf("payload should be stringified: %s", b)
	}

	if m["result"] != "ok" {
		t.Fatalf("encodable result should be kept: %s", b)
	}
}

func TestLine_AppendsNewline(t *testing.T) {
	b, err := codec.Line(cbus.Record{Kind: cbus.KindSubscribe, Topic: "t", HandlerID: "handler-1"})
	if err != nil {
		t.Fatalf("line: %v", err)
	}

	if !bytes.HasSuffix(b, []byte("\n")) || bytes.Count(b, []byte("\n")) != 1 {
		t.Fatalf("want exactly one trailing newline: %q", b)
	}
}
