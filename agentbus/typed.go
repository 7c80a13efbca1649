package agentbus

import (
	"context"
	"fmt"

	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

// SubscribeOf registers a handler for payloads of type T on topic.
// A payload of another type is recorded as a failed delivery wrapping ErrPayloadTypeMismatch.
func SubscribeOf[T any](b *Bus, topic string, fn func(ctx context.Context, payload T) (any, error)) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("subscribe %q: %w", topic, berr.ErrNilHandler)
	}

	return b.SubscribeFunc(topic, func(ctx context.Context, v any) (any, error) {
		p, ok := v.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("deliver %T to %T handler: %w", v, zero, berr.ErrPayloadTypeMismatch)
		}

		return fn(ctx, p)
	})
}
