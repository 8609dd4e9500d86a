package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
	"github.com/nhle/countdown/internal/theme"
)

// Log is the history log as seen by this view.
type Log interface {
	List() []model.HistoryEntry
	Clear(ctx context.Context) error
	ExportToFile(dir, format string) (string, error)
}

// CloseMsg signals the parent to close the history view.
type CloseMsg struct{}

type exportedMsg struct {
	path string
	err  error
}

type clearedMsg struct{ err error }

// Model shows completed sessions, most recent first.
type Model struct {
	log       Log
	keys      *keys.KeyMap
	vp        viewport.Model
	dir       string
	format    string
	count     int
	statusMsg string
	width     int
	height    int
}

// New creates a history view exporting to dir in format.
func New(l Log, k *keys.KeyMap, dir, format string, width, height int) Model {
	m := Model{
		log:    l,
		keys:   k,
		vp:     viewport.New(width, height),
		dir:    dir,
		format: format,
	}
	m.SetSize(width, height)
	return m
}

// Init refreshes the entries.
func (m *Model) Init() tea.Cmd {
	m.statusMsg = ""
	m.refresh()
	return nil
}

func (m *Model) refresh() {
	entries := m.log.List()
	m.count = len(entries)
	m.vp.SetContent(renderEntries(entries))
	m.vp.GotoTop()
}

// Export returns a command writing the history file in format. An empty
// format uses the configured one.
func (m Model) Export(format string) tea.Cmd {
	if format == "" {
		format = m.format
	}
	l, dir := m.log, m.dir
	return func() tea.Msg {
		path, err := l.ExportToFile(dir, format)
		return exportedMsg{path: path, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case exportedMsg:
		switch {
		case errors.Is(msg.err, store.ErrExportEmpty):
			m.statusMsg = "No data to export"
		case msg.err != nil:
			m.statusMsg = fmt.Sprintf("Export failed: %v", msg.err)
		default:
			m.statusMsg = "Exported to " + msg.path
		}
		return m, nil

	case clearedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "History cleared"
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, m.keys.Export):
			return m, m.Export("")
		case key.Matches(msg, m.keys.Clear):
			l := m.log
			return m, func() tea.Msg {
				return clearedMsg{err: l.Clear(context.Background())}
			}
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// View renders the history view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := titleStyle.Render(fmt.Sprintf("History (%d)", m.count))

	var footer string
	if m.statusMsg != "" {
		footer = theme.NoticeStyle.Render(m.statusMsg)
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", m.vp.View(), footer),
	)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.vp.Width = width - 4
	h := height - 4
	if h < 1 {
		h = 1
	}
	m.vp.Height = h
}

func renderEntries(entries []model.HistoryEntry) string {
	if len(entries) == 0 {
		return theme.HelpStyle.Render("No completed timers yet.")
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(theme.ListItemStyle.Render(
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render(e.CompletedAt) + "  " + e.Name,
		))
	}
	return b.String()
}
