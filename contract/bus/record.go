package bus

import "time"

// Kind classifies a log record.
type Kind string

const (
	KindSubscribe Kind = "subscribe"
	KindSend      Kind = "send"
	KindHandle    Kind = "handle"
)

// Record is one structured entry in the bus log. Records are written once and
// never read back by the bus.
//
// For a failed handle record Result holds the failure message and Failed is set.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Topic     string    `json:"topic"`
	Payload   any       `json:"payload,omitempty"`
	HandlerID string    `json:"handlerId,omitempty"`
	Result    any       `json:"result,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
	Bus       string    `json:"bus,omitempty"`
}

// Headers returns the transport headers broker sinks attach to a record.
func (r Record) Headers() map[string]string {
	h := map[string]string{
		"x-agentbus-kind":  string(r.Kind),
		"x-agentbus-topic": r.Topic,
	}

	if r.HandlerID != "" {
		h["x-agentbus-handler"] = r.HandlerID
	}

	if r.Bus != "" {
		h["x-agentbus-bus"] = r.Bus
	}

	return h
}
