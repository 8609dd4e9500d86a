package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/theme"
)

// maxSessions caps the completed sessions listed under a timer.
const maxSessions = 20

// Sessions is the read side of the history log.
type Sessions interface {
	List() []model.HistoryEntry
}

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg signals the parent to run an action on the displayed timer.
type ActionMsg struct {
	Action  string
	TimerID string
}

// Detail view actions.
const (
	ActionToggle = "toggle"
	ActionReset  = "reset"
	ActionEdit   = "edit"
)

// Model is the timer detail view component.
type Model struct {
	timer    *model.Timer
	known    bool
	sessions Sessions
	viewport viewport.Model
	bar      progress.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(sessions Sessions, keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		sessions: sessions,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Toggle):
			return m, m.action(ActionToggle)
		case key.Matches(msg, m.keys.Reset):
			return m, m.action(ActionReset)
		case key.Matches(msg, m.keys.Edit):
			return m, m.action(ActionEdit)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	if m.timer == nil {
		return nil
	}
	id := m.timer.ID
	return func() tea.Msg {
		return ActionMsg{Action: name, TimerID: id}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.timer == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No timer selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	t := m.timer
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(t.Name))

	category := theme.CategoryHeaderStyle.Render(t.Category)
	if !m.known {
		category = theme.OrphanCategoryStyle.Render(t.Category + " (deleted)")
	}
	badgeLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.StatusStyle(string(t.Status)).Render(string(t.Status)), "  ", category,
	)
	sections = append(sections, badgeLine, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	field := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-10s", label+":")), valStyle.Render(value))
	}

	halfway := "off"
	if t.HalfwayAlert {
		halfway = "on"
	}
	sections = append(sections,
		field("Remaining", model.FormatClock(t.Remaining)),
		field("Duration", model.FormatClock(t.Duration)),
		field("Halfway", halfway),
		field("ID", t.ID),
		"",
		m.bar.ViewAs(t.Progress()),
	)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	done := m.completedSessions()
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, headerStyle.Render(fmt.Sprintf("Completed sessions (%d)", len(done))))
	if len(done) == 0 {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("None yet"))
	}
	for i, e := range done {
		if i == maxSessions {
			sections = append(sections, metaStyle.Render(fmt.Sprintf("… %d more", len(done)-maxSessions)))
			break
		}
		sections = append(sections, metaStyle.Render(e.CompletedAt))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// completedSessions returns history entries recorded under the timer's
// current name, newest first.
func (m Model) completedSessions() []model.HistoryEntry {
	if m.sessions == nil {
		return nil
	}
	var out []model.HistoryEntry
	for _, e := range m.sessions.List() {
		if e.Name == m.timer.Name {
			out = append(out, e)
		}
	}
	return out
}

// SetTimer updates the displayed timer. known reports whether its category
// still exists.
func (m *Model) SetTimer(t model.Timer, known bool) {
	reset := m.timer == nil || m.timer.ID != t.ID
	m.timer = &t
	m.known = known
	m.viewport.SetContent(m.renderContent())
	if reset {
		m.viewport.GotoTop()
	}
}

// TimerID returns the displayed timer's ID, or "" when none is shown.
func (m Model) TimerID() string {
	if m.timer == nil {
		return ""
	}
	return m.timer.ID
}

// Clear drops the displayed timer.
func (m *Model) Clear() {
	m.timer = nil
	m.viewport.SetContent("")
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.bar.Width = max(width/2, 10)
	if m.timer != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
