// Package watchview is the live view of the watch command: bridge activity
// and index changes scroll past as fragments are loaded.
package watchview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/implbridge/internal/bridge"
	"github.com/zjrosen/implbridge/internal/index"
	"github.com/zjrosen/implbridge/internal/keys"
	"github.com/zjrosen/implbridge/internal/pubsub"
	"github.com/zjrosen/implbridge/internal/render"
)

const (
	maxLines      = 500
	chromeHeight  = 4 // header, counters, divider, help
	minViewHeight = 3
	timeLayout    = "15:04:05"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	pausedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	eventStyles = map[pubsub.EventType]lipgloss.Style{
		pubsub.ForwardedEvent:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		pubsub.FlushedEvent:     lipgloss.NewStyle().Foreground(lipgloss.Color("36")),
		pubsub.BufferedEvent:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		pubsub.OverwrittenEvent: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		pubsub.RejectedEvent:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		pubsub.ChangedEvent:     lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	counterOrder = []pubsub.EventType{
		pubsub.ForwardedEvent,
		pubsub.BufferedEvent,
		pubsub.FlushedEvent,
		pubsub.OverwrittenEvent,
		pubsub.RejectedEvent,
		pubsub.ChangedEvent,
	}
)

// Model is the watch view state.
type Model struct {
	docRoot  string
	activity *pubsub.ContinuousListener[bridge.Activity]
	changes  *pubsub.ContinuousListener[index.Change]

	keys     keys.WatchKeyMap
	help     help.Model
	viewport viewport.Model
	ready    bool

	lines  []string
	counts map[pubsub.EventType]int
	paused bool
	width  int
	height int
}

// New subscribes to both brokers for the lifetime of ctx. Events published
// after New returns are shown once the program runs.
func New(ctx context.Context, docRoot string, activity *pubsub.Broker[bridge.Activity], changes *pubsub.Broker[index.Change]) Model {
	return Model{
		docRoot:  docRoot,
		activity: pubsub.NewContinuousListener(ctx, activity),
		changes:  pubsub.NewContinuousListener(ctx, changes),
		keys:     keys.DefaultWatchKeyMap(),
		help:     help.New(),
		counts:   make(map[pubsub.EventType]int),
	}
}

// Init starts listening on both streams.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.activity.Listen(), m.changes.Listen())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pubsub.Event[bridge.Activity]:
		m.counts[msg.Type]++
		m.append(formatActivity(msg))
		return m, m.activity.Listen()

	case pubsub.Event[index.Change]:
		m.counts[msg.Type]++
		m.append(formatChange(msg)...)
		return m, m.changes.Listen()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if !m.paused {
			m.viewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Clear):
		m.lines = nil
		m.refresh()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	case key.Matches(msg, m.keys.Up):
		m.paused = true
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.paused = true
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.paused = false
		m.viewport.GotoBottom()
	}
	return m, nil
}

// Lines returns the log lines currently held, oldest first.
func (m Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

// Count returns how many events of t have been seen.
func (m Model) Count(t pubsub.EventType) int {
	return m.counts[t]
}

// Paused reports whether the view stopped following new lines.
func (m Model) Paused() bool {
	return m.paused
}

func (m *Model) append(lines ...string) {
	m.lines = append(m.lines, lines...)
	if over := len(m.lines) - maxLines; over > 0 {
		m.lines = append([]string(nil), m.lines[over:]...)
	}
	m.refresh()
}

func (m *Model) resize() {
	h := m.height - chromeHeight
	if m.help.ShowAll {
		h -= len(m.keys.FullHelp()[0]) - 1
	}
	if h < minViewHeight {
		h = minViewHeight
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, h)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = h
	}
	m.help.Width = m.width
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	content := make([]string, len(m.lines))
	for i, line := range m.lines {
		content[i] = ansi.Truncate(line, m.width, "…")
	}
	m.viewport.SetContent(strings.Join(content, "\n"))
	if !m.paused {
		m.viewport.GotoBottom()
	}
}

// View renders the view.
func (m Model) View() string {
	if !m.ready {
		return "Starting…"
	}

	header := titleStyle.Render("implbridge watch") + " " + subtleStyle.Render(m.docRoot)
	if m.paused {
		header += " " + pausedStyle.Render("[paused]")
	}

	var b strings.Builder
	b.WriteString(ansi.Truncate(header, m.width, "…"))
	b.WriteString("\n")
	b.WriteString(m.counters())
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) counters() string {
	parts := make([]string, 0, len(counterOrder))
	for _, t := range counterOrder {
		parts = append(parts, fmt.Sprintf("%s %d", t, m.counts[t]))
	}
	return subtleStyle.Render(strings.Join(parts, " · "))
}

func formatActivity(ev pubsub.Event[bridge.Activity]) string {
	a := ev.Payload
	label := eventStyles[ev.Type].Render(fmt.Sprintf("%-11s", ev.Type))
	line := fmt.Sprintf("%s %s %s", ev.Timestamp.Format(timeLayout), label, a.Page)
	if a.SubmissionID != "" {
		line += subtleStyle.Render(" " + shortID(a.SubmissionID))
	}
	if a.Pending > 0 {
		line += subtleStyle.Render(fmt.Sprintf(" pending=%d", a.Pending))
	}
	return line
}

func formatChange(ev pubsub.Event[index.Change]) []string {
	c := ev.Payload
	label := eventStyles[ev.Type].Render(fmt.Sprintf("%-11s", ev.Type))
	summary := fmt.Sprintf("%s %s %s delivery %d (+%d -%d)",
		ev.Timestamp.Format(timeLayout), label, c.Trait, c.Delivery, len(c.Added), len(c.Removed))

	lines := []string{summary}
	for _, r := range c.Removed {
		lines = append(lines, removedStyle.Render("    - "+render.PlainText(r)))
	}
	for _, a := range c.Added {
		lines = append(lines, addedStyle.Render("    + "+render.PlainText(a)))
	}
	return lines
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
