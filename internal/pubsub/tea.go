package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ClosedMsg is returned by a listen command once its channel is closed, so a
// Bubble Tea model can stop re-issuing listens for that stream.
type ClosedMsg struct{}

// ListenCmd creates a Bubble Tea command that waits for the next event on ch.
// It yields the event itself, ClosedMsg when ch is closed, or nil when ctx is
// cancelled.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return ClosedMsg{}
			}
			return event
		}
	}
}

// ContinuousListener keeps one broker subscription alive across Update calls.
type ContinuousListener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewContinuousListener subscribes to broker for the lifetime of ctx.
func NewContinuousListener[T any](ctx context.Context, broker *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx),
	}
}

// Listen returns a tea.Cmd for the next event. Call it again from Update after
// each event to keep receiving.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return ListenCmd(l.ctx, l.ch)
}
