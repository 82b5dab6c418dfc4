package bridge

import "github.com/zjrosen/implbridge/internal/pubsub"

// Activity describes one thing a bridge did. It is published on the activity
// broker, if one is configured, with an event type naming the action.
type Activity struct {
	Page         string
	SubmissionID string
	State        State
	Pending      int
}

// Stats are running counters for a bridge.
type Stats struct {
	Submitted   int
	Delivered   int
	Overwritten int
	Rejected    int
}

// Diagnostic reports a page whose submissions are stuck waiting for a
// consumer that never attached.
type Diagnostic struct {
	Page    string
	Pending int
	Policy  Policy
}

func (b *Bridge[T]) publish(eventType pubsub.EventType, id string) {
	if b.activity == nil {
		return
	}
	b.activity.Publish(eventType, Activity{
		Page:         b.name,
		SubmissionID: id,
		State:        b.state,
		Pending:      len(b.pending),
	})
}
