/*
Package file provides the default bus sink: an append-only JSON-lines file.
Each record is written as one self-contained line after the previous one.
*/
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
	"github.com/next-trace/scg-agent-bus/internal/codec"
)

// DefaultPath is the log file used when no path is configured.
const DefaultPath = "agent-bus.log"

// Sink appends records to a file. The file is opened on the first write and
// reopened on the next write after any write failure.
type Sink struct {
	path string
	perm os.FileMode

	mu     sync.Mutex
	f      *os.File
	closed bool
}

var _ cbus.Sink = (*Sink)(nil)

// New returns a Sink for path. An empty path selects DefaultPath.
func New(path string) *Sink {
	if path == "" {
		path = DefaultPath
	}

	return &Sink{path: path, perm: 0o644}
}

// Path returns the destination file path.
func (s *Sink) Path() string { return s.path }

func (s *Sink) Write(ctx context.Context, rec cbus.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := codec.Line(rec)
	if err != nil {
		return fmt.Errorf("file sink %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("file sink %s: %w", s.path, berr.ErrSinkUnavailable)
	}

	if s.f == nil {
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, s.perm)
		if err != nil {
			return fmt.Errorf("file sink open %s: %w", s.path, errors.Join(berr.ErrSinkUnavailable, err))
		}

		s.f = f
	}

	if _, err := s.f.Write(line); err != nil {
		_ = s.f.Close()
		s.f = nil

		return fmt.Errorf("file sink write %s: %w", s.path, errors.Join(berr.ErrSinkWriteFailed, err))
	}

	return nil
}

// Close closes the underlying file. Further writes fail with ErrSinkUnavailable.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if s.f == nil {
		return nil
	}

	err := s.f.Close()
	s.f = nil

	return err
}
