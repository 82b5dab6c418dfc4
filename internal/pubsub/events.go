// Package pubsub provides a generic publish/subscribe event system used to fan
// out bridge activity, index changes and log entries to listeners.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// CreatedEvent is a new item, such as a log entry.
	CreatedEvent EventType = "created"

	// BufferedEvent is a submission parked while no consumer is attached.
	BufferedEvent EventType = "buffered"
	// ForwardedEvent is a submission handed straight to an attached consumer.
	ForwardedEvent EventType = "forwarded"
	// FlushedEvent is a buffered submission delivered on attachment.
	FlushedEvent EventType = "flushed"
	// OverwrittenEvent is a buffered submission replaced before delivery.
	OverwrittenEvent EventType = "overwritten"
	// RejectedEvent is a refused second consumer attachment.
	RejectedEvent EventType = "rejected"
	// ChangedEvent is an index update following an intake.
	ChangedEvent EventType = "changed"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
