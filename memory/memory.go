// Package memory wires an agent bus to an in-memory sink, for tests and demos
// that should not touch the filesystem.
package memory

import (
	"github.com/next-trace/scg-agent-bus/adapters/inmemory"
	"github.com/next-trace/scg-agent-bus/agentbus"
)

// New constructs a bus whose records are kept in the returned in-memory sink,
// along with a cleanup function that closes the bus.
func New(opts ...agentbus.Option) (*agentbus.Bus, *inmemory.Sink, func()) {
	sink := inmemory.New()
	b := agentbus.New(append(opts, agentbus.WithSink(sink))...)
	cleanup := func() { _ = b.Close() }

	return b, sink, cleanup
}
