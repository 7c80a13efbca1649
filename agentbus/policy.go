package agentbus

import (
	"slices"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
)

// Select resolves the registrations of topic that receive the next send under p.
// Round-robin advances the topic cursor as part of the same critical section.
// It returns nil when topic has no registrations.
func (r *Registry) Select(topic string, p cbus.Policy) []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := r.topics[topic]

	n := len(regs)
	if n == 0 {
		return nil
	}

	switch p {
	case cbus.LastWriterWins:
		return []Registration{regs[n-1]}
	case cbus.FirstComeFirstServe:
		return []Registration{regs[0]}
	case cbus.RoundRobin:
		i := r.cursors[topic] % n
		r.cursors[topic] = (i + 1) % n

		return []Registration{regs[i]}
	default:
		return slices.Clone(regs)
	}
}
