package timerlist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/theme"
)

// row is one rendered line: either a category header or a timer.
type row struct {
	group string
	known bool
	timer *model.Timer
}

// Model is the timer list grouped by category.
type Model struct {
	keys   *keys.KeyMap
	bar    progress.Model
	rows   []row
	cursor int
	offset int
	width  int
	height int
}

// New creates an empty timer list.
func New(k *keys.KeyMap, width, height int) Model {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
	)
	m := Model{
		keys:   k,
		bar:    bar,
		cursor: -1,
	}
	m.SetSize(width, height)
	return m
}

// SetTimers regroups the list. The selection follows the previously
// selected timer when it still exists.
func (m *Model) SetTimers(timers []model.Timer, categories []string) {
	selected := ""
	if t, ok := m.Selected(); ok {
		selected = t.ID
	}

	m.rows = nil
	for _, g := range model.GroupByCategory(timers, categories) {
		m.rows = append(m.rows, row{group: g.Name, known: g.Known})
		for i := range g.Timers {
			t := g.Timers[i]
			m.rows = append(m.rows, row{group: g.Name, known: g.Known, timer: &t})
		}
	}

	m.cursor = -1
	for i, r := range m.rows {
		if r.timer == nil {
			continue
		}
		if m.cursor < 0 {
			m.cursor = i
		}
		if r.timer.ID == selected {
			m.cursor = i
			break
		}
	}
	m.clampOffset()
}

// Selected returns the timer under the cursor.
func (m Model) Selected() (model.Timer, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) || m.rows[m.cursor].timer == nil {
		return model.Timer{}, false
	}
	return *m.rows[m.cursor].timer, true
}

// SelectedCategory returns the group label of the row under the cursor.
func (m Model) SelectedCategory() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return "", false
	}
	return m.rows[m.cursor].group, true
}

// Len returns the number of timers shown.
func (m Model) Len() int {
	n := 0
	for _, r := range m.rows {
		if r.timer != nil {
			n++
		}
	}
	return n
}

// Update moves the cursor between timer rows.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Down):
		m.move(1)
	case key.Matches(km, m.keys.Up):
		m.move(-1)
	}
	return m, nil
}

// move steps to the next timer row in dir, wrapping around.
func (m *Model) move(dir int) {
	if m.cursor < 0 {
		return
	}
	n := len(m.rows)
	for i, idx := 1, m.cursor; i <= n; i++ {
		idx = (idx + dir + n) % n
		if m.rows[idx].timer != nil {
			m.cursor = idx
			break
		}
	}
	m.clampOffset()
}

// clampOffset scrolls so the cursor and its group header stay visible.
func (m *Model) clampOffset() {
	visible := m.visibleRows()
	if m.cursor < 0 || visible <= 0 {
		m.offset = 0
		return
	}
	top := m.cursor
	if top > 0 && m.rows[top-1].timer == nil {
		top--
	}
	if top < m.offset {
		m.offset = top
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m Model) visibleRows() int {
	return m.height - 2
}

// View renders the grouped list.
func (m Model) View() string {
	if len(m.rows) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No timers yet.\n\nPress n to add one.")
	}

	var b strings.Builder
	end := m.offset + m.visibleRows()
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		if r.timer == nil {
			b.WriteString(renderHeader(r.group, r.known))
		} else {
			b.WriteString(renderTimer(*r.timer, m.bar, i == m.cursor, m.nameWidth()))
		}
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) nameWidth() int {
	w := m.width / 3
	if w < 12 {
		w = 12
	}
	return w
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	barWidth := width / 4
	if barWidth < 10 {
		barWidth = 10
	}
	m.bar.Width = barWidth
	m.clampOffset()
}
