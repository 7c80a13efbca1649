package bus

import (
	"fmt"
	"strings"

	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

// Policy selects which of a topic's competing handlers receive a send.
type Policy string

const (
	// LastWriterWins delivers to the most recently registered handler.
	LastWriterWins Policy = "last-writer-wins"
	// FirstComeFirstServe delivers to the earliest registered handler.
	FirstComeFirstServe Policy = "first-come-first-serve"
	// RoundRobin rotates through the handlers, one per send.
	RoundRobin Policy = "round-robin"
	// Broadcast delivers to every handler in registration order.
	// Any unrecognized policy value behaves the same way.
	Broadcast Policy = "broadcast"
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = LastWriterWins

// Known reports whether p is one of the named policies.
func (p Policy) Known() bool {
	switch p {
	case LastWriterWins, FirstComeFirstServe, RoundRobin, Broadcast:
		return true
	default:
		return false
	}
}

// ParsePolicy parses s strictly. An empty string yields DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return DefaultPolicy, nil
	}

	if !p.Known() {
		return "", fmt.Errorf("parse policy %q: %w", s, berr.ErrUnknownPolicy)
	}

	return p, nil
}
