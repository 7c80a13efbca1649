package agentbus

import (
	"fmt"
	"slices"
	"strconv"
	"sync"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

// Registration is a handler subscribed to a topic under a unique id.
type Registration struct {
	ID      string
	Handler cbus.Handler
}

// Registry maps topics to their ordered registrations and owns the
// round-robin cursors. It is safe for concurrent use and contains no global state.
type Registry struct {
	mu sync.Mutex

	seq     uint64
	topics  map[string][]Registration
	order   []string
	cursors map[string]int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		topics:  make(map[string][]Registration),
		cursors: make(map[string]int),
	}
}

// Register appends h to topic and returns its id. Ids are never reused.
func (r *Registry) Register(topic string, h cbus.Handler) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("register: %w", berr.ErrEmptyTopic)
	}

	if h == nil {
		return "", fmt.Errorf("register %q: %w", topic, berr.ErrNilHandler)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	id := "handler-" + strconv.FormatUint(r.seq, 10)

	if _, ok := r.topics[topic]; !ok {
		r.order = append(r.order, topic)
	}

	r.topics[topic] = append(r.topics[topic], Registration{ID: id, Handler: h})

	return id, nil
}

// Unregister removes the registration id from topic and reports whether one was removed.
func (r *Registry) Unregister(topic, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.topics[topic]

	i := slices.IndexFunc(regs, func(reg Registration) bool { return reg.ID == id })
	if i < 0 {
		return false
	}

	regs = slices.Delete(regs, i, i+1)
	if len(regs) == 0 {
		r.dropLocked(topic)
		return true
	}

	r.topics[topic] = regs

	return true
}

// Topics returns every topic with at least one registration, in first-registration order.
func (r *Registry) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.order)
}

// HandlerCount returns the number of registrations for topic.
func (r *Registry) HandlerCount(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.topics[topic])
}

// Handlers returns a snapshot of topic's registrations in registration order.
func (r *Registry) Handlers(topic string) []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.topics[topic])
}

// ClearTopic removes topic entirely and reports whether it existed.
func (r *Registry) ClearTopic(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[topic]; !ok {
		return false
	}

	r.dropLocked(topic)

	return true
}

// ClearAll removes every topic and resets all rotation cursors.
// The id counter keeps counting.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.topics)
	clear(r.cursors)
	r.order = nil
}

func (r *Registry) dropLocked(topic string) {
	delete(r.topics, topic)
	delete(r.cursors, topic)

	if i := slices.Index(r.order, topic); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}
