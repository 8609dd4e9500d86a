package alerts

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
	"github.com/nhle/countdown/internal/theme"
)

// limit caps how many delivered alerts the view shows.
const limit = 50

// CloseMsg signals the parent to close the alerts view.
type CloseMsg struct{}

// ReadMsg reports that the shown alerts were marked read.
type ReadMsg struct{}

type loadedMsg struct {
	notifications []model.Notification
	err           error
}

// Model lists delivered alerts, newest first. Opening the view marks
// everything read.
type Model struct {
	inbox         store.Inbox
	keys          *keys.KeyMap
	notifications []model.Notification
	err           error
	width         int
	height        int
}

// New creates an alerts view over inbox.
func New(inbox store.Inbox, k *keys.KeyMap, width, height int) Model {
	return Model{inbox: inbox, keys: k, width: width, height: height}
}

// Init loads the latest alerts.
func (m Model) Init() tea.Cmd {
	inbox := m.inbox
	return func() tea.Msg {
		ns, err := inbox.GetNotifications(context.Background(), limit)
		return loadedMsg{notifications: ns, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.notifications, m.err = msg.notifications, msg.err
		if msg.err != nil {
			return m, nil
		}
		inbox := m.inbox
		return m, func() tea.Msg {
			_ = inbox.MarkAllNotificationsRead(context.Background())
			return ReadMsg{}
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

// View renders the alert list.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Alerts"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(theme.ErrorStyle.Render(fmt.Sprintf("Could not load alerts: %v", m.err)))
	case len(m.notifications) == 0:
		b.WriteString(theme.HelpStyle.Render("No alerts delivered yet."))
	}

	for _, n := range m.notifications {
		marker := "  "
		if !n.Read {
			marker = "• "
		}
		line := marker +
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render(n.CreatedAt.Local().Format(model.CompletedAtLayout)) + "  " +
			theme.AlertKindStyle(string(n.Kind)).Render(n.Title) + "  " +
			n.Message
		b.WriteString(line)
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(0, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
