package bus

import "context"

// Handler receives payloads sent to a topic it is subscribed to.
// The returned value is recorded as the outcome of the delivery; a non-nil
// error is recorded as a failure and never propagated to the sender.
// Implementations must be safe for concurrent use by multiple goroutines.
type Handler interface {
	Handle(ctx context.Context, payload any) (any, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload any) (any, error)

// Handle calls f(ctx, payload).
func (f HandlerFunc) Handle(ctx context.Context, payload any) (any, error) { return f(ctx, payload) }
