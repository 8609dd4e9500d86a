package categorymgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/theme"
)

// Categories is the subset of the timer store this view edits.
type Categories interface {
	ListCategories() []string
	IsBuiltIn(name string) bool
	AddCategory(ctx context.Context, name string) error
	DeleteCategory(ctx context.Context, name string) error
}

// CloseMsg signals the parent to close the category view.
type CloseMsg struct{}

// ChangedMsg signals that categories were modified.
type ChangedMsg struct{}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name    string
	confirm bool
}

type savedMsg struct{ err error }
type deletedMsg struct{ err error }

// Model is the Bubble Tea model for category management.
type Model struct {
	mode        mode
	store       Categories
	keys        *keys.KeyMap
	categories  []string
	selectedIdx int
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new category manager model.
func New(s Categories, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		store: s,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init refreshes the category list.
func (m *Model) Init() tea.Cmd {
	m.mode = modeList
	m.statusMsg = ""
	m.reload()
	return nil
}

func (m *Model) reload() {
	m.categories = m.store.ListCategories()
	if m.selectedIdx >= len(m.categories) && m.selectedIdx > 0 {
		m.selectedIdx = len(m.categories) - 1
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Category added"
		}
		m.mode = modeList
		m.reload()
		return m, func() tea.Msg { return ChangedMsg{} }

	case deletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Category deleted"
		}
		m.mode = modeList
		m.reload()
		return m, func() tea.Msg { return ChangedMsg{} }

	case tea.KeyMsg:
		if m.mode == modeList {
			return m.handleListKey(msg)
		}
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.categories) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.categories)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.categories) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.categories) - 1
			}
		}

	case key.Matches(msg, m.keys.New):
		m.fb.name = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		name, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.store.IsBuiltIn(name) {
			m.statusMsg = fmt.Sprintf("%q is built in and cannot be deleted", name)
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm(name)
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) selected() (string, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.categories) {
		return "", false
	}
	return m.categories[m.selectedIdx], true
}

func (m Model) buildForm() *huh.Form {
	existing := m.categories
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Category name").
				Value(&m.fb.name).
				Validate(validateName(existing)),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm(name string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete category %q?", name)).
				Description("Timers keep their label and stay listed under it.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, m.save(strings.TrimSpace(m.fb.name))
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		name, ok := m.selected()
		if m.fb.confirm && ok {
			return m, m.delete(name)
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the category manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Categories"))
	b.WriteString("\n\n")

	for i, name := range m.categories {
		label := name
		if m.store.IsBuiltIn(name) {
			label += theme.HelpStyle.Render("  built-in")
		}
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Editing reports whether a form has keyboard focus.
func (m Model) Editing() bool {
	return m.mode != modeList
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) save(name string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return savedMsg{err: s.AddCategory(context.Background(), name)}
	}
}

func (m Model) delete(name string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return deletedMsg{err: s.DeleteCategory(context.Background(), name)}
	}
}

// validateName rejects blank names and exact duplicates of existing.
func validateName(existing []string) func(string) error {
	return func(s string) error {
		name := strings.TrimSpace(s)
		if name == "" {
			return fmt.Errorf("name is required")
		}
		if model.ContainsCategory(existing, name) {
			return fmt.Errorf("category %q already exists", name)
		}
		return nil
	}
}
