package bus

import "context"

// Bus is a minimal interface that mirrors the capabilities of the concrete
// agent bus for consumers that want to depend only on contracts.
//
// Typed helpers remain available via generic helper functions in the agentbus package.
type Bus interface {
	// Registry
	Subscribe(topic string, h Handler) (string, error)
	Unsubscribe(topic, handlerID string) bool
	Topics() []string
	HandlerCount(topic string) int
	ClearTopic(topic string) bool
	ClearAll()

	// Exec
	Send(ctx context.Context, topic string, payload any) error

	// Lifecycle
	Close() error
}
