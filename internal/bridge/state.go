package bridge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyAttached is returned when a consumer is attached to a bridge
	// that already has one.
	ErrAlreadyAttached = errors.New("consumer already attached")

	// ErrNilConsumer is returned when Attach is called without a consumer.
	ErrNilConsumer = errors.New("consumer is nil")
)

// State is the registration state of a bridge.
type State int

const (
	// StateConsumerAbsent buffers submissions.
	StateConsumerAbsent State = iota
	// StateConsumerPresent forwards submissions. Terminal.
	StateConsumerPresent
)

// String returns a human-readable representation of the State.
func (s State) String() string {
	switch s {
	case StateConsumerAbsent:
		return "consumer-absent"
	case StateConsumerPresent:
		return "consumer-present"
	default:
		return "unknown"
	}
}

// Policy decides what happens to earlier pending submissions when another one
// arrives before a consumer is attached.
type Policy int

const (
	// PolicyOverwrite keeps only the most recent pending submission.
	PolicyOverwrite Policy = iota
	// PolicyQueue keeps every pending submission and flushes them in order.
	PolicyQueue
)

// String returns the config spelling of the Policy.
func (p Policy) String() string {
	switch p {
	case PolicyOverwrite:
		return "overwrite"
	case PolicyQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "overwrite" or "queue". An empty string selects
// PolicyOverwrite.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return PolicyOverwrite, nil
	case "queue":
		return PolicyQueue, nil
	default:
		return PolicyOverwrite, fmt.Errorf("unknown pending policy %q (want \"overwrite\" or \"queue\")", s)
	}
}

// Consumer receives values delivered by a bridge. Intake runs synchronously on
// the caller's goroutine and must not call back into the same bridge.
type Consumer[T any] interface {
	Intake(v T)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc[T any] func(v T)

// Intake calls f(v).
func (f ConsumerFunc[T]) Intake(v T) {
	f(v)
}
