// Package multi fans bus records out to several sinks in parallel.
package multi

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
)

// Sink writes each record to every child sink and waits for all of them.
// A failing child does not prevent delivery to the others.
type Sink struct {
	sinks []cbus.Sink
}

var _ cbus.Sink = (*Sink)(nil)

// New ignores nil sinks.
func New(sinks ...cbus.Sink) *Sink {
	s := &Sink{}

	for _, c := range sinks {
		if c != nil {
			s.sinks = append(s.sinks, c)
		}
	}

	return s
}

func (s *Sink) Len() int { return len(s.sinks) }

func (s *Sink) Write(ctx context.Context, rec cbus.Record) error {
	switch len(s.sinks) {
	case 0:
		return nil
	case 1:
		return s.sinks[0].Write(ctx, rec)
	}

	p := pool.New().WithErrors().WithMaxGoroutines(len(s.sinks))
	for i, c := range s.sinks {
		p.Go(func() error {
			if err := c.Write(ctx, rec); err != nil {
				return fmt.Errorf("sink %d: %w", i, err)
			}

			return nil
		})
	}

	return p.Wait()
}

// Close closes every child sink and joins their errors.
func (s *Sink) Close() error {
	p := pool.New().WithErrors()
	for _, c := range s.sinks {
		p.Go(c.Close)
	}

	return p.Wait()
}
