package inmemory

import (
	"context"
	"sync"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
)

// Sink is a thread-safe in-memory implementation of cbus.Sink.
// It records written records for testing and examples.
type Sink struct {
	mu      sync.Mutex
	records []cbus.Record
	err     error
	closed  bool
}

// Ensure Sink implements the contract.
var _ cbus.Sink = (*Sink)(nil)

// New creates a new in-memory sink instance.
func New() *Sink { return &Sink{} }

func (s *Sink) Write(ctx context.Context, rec cbus.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.records = append(s.records, rec)

	return nil
}

// Close marks the sink closed. Records remain readable.
func (s *Sink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return nil
}

// FailWith makes subsequent writes return err until called again with nil.
func (s *Sink) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Records returns a copy of everything written so far.
func (s *Sink) Records() []cbus.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]cbus.Record(nil), s.records...)
}

// Kinds returns the kinds of the written records, in order.
func (s *Sink) Kinds() []cbus.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]cbus.Kind, len(s.records))
	for i, r := range s.records {
		out[i] = r.Kind
	}

	return out
}

// Closed reports whether Close was called.
func (s *Sink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Reset drops all recorded records.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}
