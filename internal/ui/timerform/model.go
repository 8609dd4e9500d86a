package timerform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/countdown/internal/engine"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/theme"
)

// SubmitMsg is dispatched when the form is completed. ID is empty for a
// new timer.
type SubmitMsg struct {
	ID    string
	Timer engine.NewTimer
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name     string
	category string
	duration string
	halfway  bool
}

// Model is the Bubble Tea model for the timer create/edit form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	editID     string
	categories []string
	width      int
	height     int
}

// New creates a new timer form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetCategories sets the options offered by the category selector.
func (m *Model) SetCategories(categories []string) {
	m.categories = append([]string(nil), categories...)
}

// StartCreate initializes the form for a new timer. category preselects
// a category, typically the one under the list cursor.
func (m *Model) StartCreate(category string) tea.Cmd {
	m.editID = ""
	*m.fb = formBindings{category: category}
	if !model.ContainsCategory(m.categories, category) && len(m.categories) > 0 {
		m.fb.category = m.categories[0]
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with an existing timer's fields.
func (m *Model) StartEdit(t model.Timer) tea.Cmd {
	m.editID = t.ID
	*m.fb = formBindings{
		name:     t.Name,
		category: t.Category,
		duration: strconv.Itoa(t.Duration),
		halfway:  t.HalfwayAlert,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Editing reports whether the form edits an existing timer.
func (m Model) Editing() bool { return m.editID != "" }

// Update handles messages for the timer form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.submit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Timer"
	if m.Editing() {
		titleText = "Edit Timer"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render(titleText) + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Morning run").
				Value(&m.fb.name).
				Validate(validateRequired("Name")),
			huh.NewSelect[string]().
				Title("Category").
				Options(m.categoryOptions()...).
				Value(&m.fb.category),
			huh.NewInput().
				Title("Duration (seconds)").
				Placeholder("300").
				Value(&m.fb.duration).
				Validate(validateDuration),
			huh.NewConfirm().
				Title("Halfway alert").
				Affirmative("On").
				Negative("Off").
				Value(&m.fb.halfway),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// categoryOptions lists the known categories plus the timer's own label
// when that category was deleted, so editing never silently moves it.
func (m Model) categoryOptions() []huh.Option[string] {
	names := m.categories
	if m.fb.category != "" && !model.ContainsCategory(names, m.fb.category) {
		names = append(append([]string(nil), names...), m.fb.category)
	}
	opts := make([]huh.Option[string], len(names))
	for i, n := range names {
		opts[i] = huh.NewOption(n, n)
	}
	return opts
}

// Result converts the bound fields into engine input. The form's own
// validation has already run when this is called from submit.
func (m Model) Result() (engine.NewTimer, error) {
	d, err := model.ParseDurationSeconds(m.fb.duration)
	if err != nil {
		return engine.NewTimer{}, err
	}
	n := engine.NewTimer{
		Name:         strings.TrimSpace(m.fb.name),
		Category:     m.fb.category,
		Duration:     d,
		HalfwayAlert: m.fb.halfway,
	}
	return n, n.Validate()
}

func (m Model) submit() tea.Cmd {
	n, err := m.Result()
	if err != nil {
		return func() tea.Msg { return CancelMsg{} }
	}
	id := m.editID
	return func() tea.Msg { return SubmitMsg{ID: id, Timer: n} }
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateDuration(s string) error {
	if _, err := model.ParseDurationSeconds(s); err != nil {
		return fmt.Errorf("enter a positive number of seconds")
	}
	return nil
}
