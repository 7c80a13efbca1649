package agentbus_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/next-trace/scg-agent-bus/agentbus"
	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

func nop() cbus.Handler {
	return cbus.HandlerFunc(func(context.Context, any) (any, error) { return nil, nil })
}

func TestRegistry_RegisterAndIDs(t *testing.T) {
	r := agentbus.NewRegistry()

	seen := map[string]bool{}

	for _, topic := range []string{"a", "b", "a"} {
		id, err := r.Register(topic, nop())
		if err != nil {
			t.Fatalf("register: %v", err)
		}

		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}

		seen[id] = true
	}

	if n := r.HandlerCount("a"); n != 2 {
		t.Fatalf("count(a)=%d", n)
	}

	if n := r.HandlerCount("unknown"); n != 0 {
		t.Fatalf("count(unknown)=%d", n)
	}

	if got := r.Topics(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("topics=%v", got)
	}

	if _, err := r.Register("", nop()); !errors.Is(err, berr.ErrEmptyTopic) {
		t.Fatalf("want ErrEmptyTopic, got %v", err)
	}

	if _, err := r.Register("a", nil); !errors.Is(err, berr.ErrNilHandler) {
		t.Fatalf("want ErrNilHandler, got %v", err)
	}
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	r := agentbus.NewRegistry()
	id, _ := r.Register("tasks", nop())

	if !r.Unregister("tasks", id) {
		t.Fatalf("first unregister should remove")
	}

	if r.Unregister("tasks", id) {
		t.Fatalf("second unregister should be a no-op")
	}

	if r.HandlerCount("tasks") != 0 {
		t.Fatalf("count should be 0")
	}

	if len(r.Topics()) != 0 {
		t.Fatalf("empty topic must not persist: %v", r.Topics())
	}

	if r.Unregister("nope", "handler-99") {
		t.Fatalf("unknown topic should return false")
	}
}

func TestRegistry_IDsNeverReused(t *testing.T) {
	r := agentbus.NewRegistry()
	id1, _ := r.Register("t", nop())
	r.Unregister("t", id1)
	r.ClearAll()

	id2, _ := r.Register("t", nop())
	if id1 == id2 {
		t.Fatalf("id reused: %s", id1)
	}
}

func TestRegistry_ClearTopicAndAll(t *testing.T) {
	r := agentbus.NewRegistry()
	_, _ = r.Register("a", nop())
	_, _ = r.Register("b", nop())

	if !r.ClearTopic("a") {
		t.Fatalf("clear existing topic should return true")
	}

	if r.ClearTopic("a") {
		t.Fatalf("clear missing topic should return false")
	}

	if got := r.Topics(); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("topics=%v", got)
	}

	r.ClearAll()

	if got := r.Topics(); len(got) != 0 {
		t.Fatalf("topics after ClearAll=%v", got)
	}
}

func TestRegistry_SelectPolicies(t *testing.T) {
	r := agentbus.NewRegistry()
	a, _ := r.Register("t", nop())
	b, _ := r.Register("t", nop())
	c, _ := r.Register("t", nop())

	ids := func(regs []agentbus.Registration) []string {
		out := make([]string, len(regs))
		for i, reg := range regs {
			out[i] = reg.ID
		}

		return out
	}

	if got := ids(r.Select("t", cbus.LastWriterWins)); !slices.Equal(got, []string{c}) {
		t.Fatalf("lww=%v", got)
	}

	if got := ids(r.Select("t", cbus.FirstComeFirstServe)); !slices.Equal(got, []string{a}) {
		t.Fatalf("fcfs=%v", got)
	}

	if got := ids(r.Select("t", "unknown-policy")); !slices.Equal(got, []string{a, b, c}) {
		t.Fatalf("broadcast=%v", got)
	}

	if got := r.Select("missing", cbus.RoundRobin); got != nil {
		t.Fatalf("missing topic should select nothing: %v", got)
	}
}

func TestRegistry_RoundRobinCursorStaysInBounds(t *testing.T) {
	r := agentbus.NewRegistry()
	a, _ := r.Register("t", nop())
	b, _ := r.Register("t", nop())
	c, _ := r.Register("t", nop())

	// cursor now points at c
	r.Select("t", cbus.RoundRobin)
	r.Select("t", cbus.RoundRobin)

	// shrinking the list must not push the cursor out of bounds
	r.Unregister("t", c)

	got := r.Select("t", cbus.RoundRobin)
	if len(got) != 1 || got[0].ID != a {
		t.Fatalf("want %s after shrink, got %+v", a, got)
	}

	got = r.Select("t", cbus.RoundRobin)
	if len(got) != 1 || got[0].ID != b {
		t.Fatalf("want %s, got %+v", b, got)
	}
}
