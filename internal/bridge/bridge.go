package bridge

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/implbridge/internal/log"
	"github.com/zjrosen/implbridge/internal/pubsub"
)

type submission[T any] struct {
	id    string
	value T
}

type options struct {
	name     string
	policy   Policy
	activity *pubsub.Broker[Activity]
	newID    func() string
}

// Option configures a Bridge or Hub.
type Option func(*options)

// WithName labels the bridge in logs and activity events.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithPolicy selects the pending policy. Default PolicyOverwrite.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithActivity publishes an Activity for every submit, flush, overwrite and
// rejected attach.
func WithActivity(broker *pubsub.Broker[Activity]) Option {
	return func(o *options) { o.activity = broker }
}

// WithIDGenerator replaces the submission ID generator (random UUIDs).
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		policy: PolicyOverwrite,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Bridge hands values from producers to a consumer that may attach later.
// A Bridge is safe for concurrent use; deliveries are serialized.
type Bridge[T any] struct {
	mu       sync.Mutex
	name     string
	policy   Policy
	state    State
	consumer Consumer[T]
	pending  []submission[T]
	activity *pubsub.Broker[Activity]
	newID    func() string
	stats    Stats
}

// New creates a bridge in StateConsumerAbsent.
func New[T any](opts ...Option) *Bridge[T] {
	return newBridge[T](buildOptions(opts))
}

func newBridge[T any](o options) *Bridge[T] {
	return &Bridge[T]{
		name:     o.name,
		policy:   o.policy,
		state:    StateConsumerAbsent,
		activity: o.activity,
		newID:    o.newID,
	}
}

// Submit delivers v to the consumer if one is attached, otherwise parks it in
// the pending slot according to the bridge policy. It returns the submission
// ID used in logs and activity events.
func (b *Bridge[T]) Submit(v T) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.newID()
	b.stats.Submitted++

	switch b.state {
	case StateConsumerPresent:
		b.consumer.Intake(v)
		b.stats.Delivered++
		log.Debug(log.CatBridge, "Forwarded submission", "page", b.name, "id", id)
		b.publish(pubsub.ForwardedEvent, id)

	case StateConsumerAbsent:
		if b.policy == PolicyOverwrite && len(b.pending) > 0 {
			dropped := b.pending[len(b.pending)-1].id
			b.pending = b.pending[:0]
			b.stats.Overwritten++
			log.Warn(log.CatBridge, "Pending submission overwritten before a consumer attached",
				"page", b.name, "dropped", dropped, "id", id)
			b.publish(pubsub.OverwrittenEvent, dropped)
		}
		b.pending = append(b.pending, submission[T]{id: id, value: v})
		log.Debug(log.CatBridge, "Buffered submission", "page", b.name, "id", id, "pending", len(b.pending))
		b.publish(pubsub.BufferedEvent, id)
	}

	return id
}

// Attach records c as the bridge's consumer and flushes pending submissions to
// it in order. Attaching a second consumer fails with ErrAlreadyAttached and
// changes nothing.
func (b *Bridge[T]) Attach(c Consumer[T]) error {
	if c == nil {
		return ErrNilConsumer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateConsumerPresent {
		b.stats.Rejected++
		log.Warn(log.CatBridge, "Rejected second consumer attachment", "page", b.name)
		b.publish(pubsub.RejectedEvent, "")
		return fmt.Errorf("page %q: %w", b.name, ErrAlreadyAttached)
	}

	b.consumer = c
	b.state = StateConsumerPresent
	log.Debug(log.CatBridge, "Consumer attached", "page", b.name, "pending", len(b.pending))

	pending := b.pending
	b.pending = nil
	for i, s := range pending {
		c.Intake(s.value)
		b.stats.Delivered++
		log.Debug(log.CatBridge, "Flushed pending submission", "page", b.name, "id", s.id)
		if b.activity != nil {
			b.activity.Publish(pubsub.FlushedEvent, Activity{
				Page:         b.name,
				SubmissionID: s.id,
				State:        b.state,
				Pending:      len(pending) - i - 1,
			})
		}
	}

	return nil
}

// State returns the current registration state.
func (b *Bridge[T]) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Pending returns the number of parked submissions.
func (b *Bridge[T]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Unflushed reports whether submissions are waiting for a consumer that has
// not attached.
func (b *Bridge[T]) Unflushed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateConsumerAbsent && len(b.pending) > 0
}

// Name returns the bridge label.
func (b *Bridge[T]) Name() string {
	return b.name
}

// Policy returns the pending policy.
func (b *Bridge[T]) Policy() Policy {
	return b.policy
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge[T]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
