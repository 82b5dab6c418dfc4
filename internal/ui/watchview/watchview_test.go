package watchview

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/implbridge/internal/bridge"
	"github.com/zjrosen/implbridge/internal/index"
	"github.com/zjrosen/implbridge/internal/pubsub"
)

func newTestModel(t *testing.T) (Model, *pubsub.Broker[bridge.Activity], *pubsub.Broker[index.Change]) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	activity := pubsub.NewBroker[bridge.Activity]()
	changes := pubsub.NewBroker[index.Change]()
	m := New(ctx, "/srv/doc", activity, changes)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return next.(Model), activity, changes
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_BeforeSize(t *testing.T) {
	m := New(context.Background(), "/srv/doc", pubsub.NewBroker[bridge.Activity](), pubsub.NewBroker[index.Change]())
	require.Equal(t, "Starting…", m.View())
}

func TestUpdate_ActivityEvent(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, pubsub.Event[bridge.Activity]{
		Type:      pubsub.BufferedEvent,
		Payload:   bridge.Activity{Page: "core::marker::Send", SubmissionID: "0123456789abcdef", Pending: 1},
		Timestamp: time.Now(),
	})

	require.Equal(t, 1, m.Count(pubsub.BufferedEvent))
	lines := m.Lines()
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "buffered")
	require.Contains(t, lines[0], "core::marker::Send")
	require.Contains(t, lines[0], "01234567")
	require.NotContains(t, lines[0], "89abcdef")
	require.Contains(t, lines[0], "pending=1")

	view := m.View()
	require.Contains(t, view, "implbridge watch")
	require.Contains(t, view, "/srv/doc")
	require.Contains(t, view, "buffered 1")
}

func TestUpdate_ChangeEvent(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, pubsub.Event[index.Change]{
		Type: pubsub.ChangedEvent,
		Payload: index.Change{
			Trait:    "syn::parse::Parse",
			Delivery: 2,
			Added:    []string{"syn: <code>impl Parse for Lifetime</code>"},
			Removed:  []string{"syn: <code>impl Parse for Ident</code>"},
		},
		Timestamp: time.Now(),
	})

	lines := m.Lines()
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "syn::parse::Parse delivery 2 (+1 -1)")
	require.Contains(t, lines[1], "- syn: impl Parse for Ident")
	require.Contains(t, lines[2], "+ syn: impl Parse for Lifetime")
	require.Equal(t, 1, m.Count(pubsub.ChangedEvent))
}

func TestUpdate_LinesAreCapped(t *testing.T) {
	m, _, _ := newTestModel(t)
	for i := 0; i < maxLines+10; i++ {
		m = update(t, m, pubsub.Event[bridge.Activity]{Type: pubsub.ForwardedEvent, Payload: bridge.Activity{Page: "p"}})
	}
	require.Len(t, m.Lines(), maxLines)
	require.Equal(t, maxLines+10, m.Count(pubsub.ForwardedEvent))
}

func TestUpdate_Keys(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, pubsub.Event[bridge.Activity]{Type: pubsub.ForwardedEvent, Payload: bridge.Activity{Page: "p"}})

	m = update(t, m, runes("p"))
	require.True(t, m.Paused())
	require.Contains(t, m.View(), "[paused]")

	m = update(t, m, runes("G"))
	require.False(t, m.Paused())

	m = update(t, m, runes("c"))
	require.Empty(t, m.Lines())

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgram_ShowsPublishedActivity(t *testing.T) {
	m, activity, changes := newTestModel(t)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 20))

	activity.Publish(pubsub.ForwardedEvent, bridge.Activity{Page: "core::marker::Sync", SubmissionID: "feedface"})
	changes.Publish(pubsub.ChangedEvent, index.Change{Trait: "core::marker::Sync", Delivery: 1, Added: []string{"std: Arc"}})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("core::marker::Sync delivery 1"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(runes("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := tm.FinalModel(t).(Model)
	require.Equal(t, 1, final.Count(pubsub.ForwardedEvent))
	require.Equal(t, 1, final.Count(pubsub.ChangedEvent))
	require.True(t, strings.Contains(strings.Join(final.Lines(), "\n"), "feedface"))
}
