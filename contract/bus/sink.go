package bus

import "context"

// Sink is an append-only destination for bus records.
// Library users provide an implementation backed by a file, broker or logger.
//
// Write is called synchronously from Subscribe and Send, in record order.
// Write must return once ctx is done; the bus bounds every write with a
// deadline. Errors are reported to the bus diagnostic channel and never reach callers.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}
