package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/countdown/internal/engine"
	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
	"github.com/nhle/countdown/internal/theme"
	"github.com/nhle/countdown/internal/ui"
	alertsview "github.com/nhle/countdown/internal/ui/alerts"
	"github.com/nhle/countdown/internal/ui/categorymgr"
	"github.com/nhle/countdown/internal/ui/command"
	"github.com/nhle/countdown/internal/ui/detail"
	helpview "github.com/nhle/countdown/internal/ui/help"
	historyview "github.com/nhle/countdown/internal/ui/history"
	"github.com/nhle/countdown/internal/ui/timerform"
	"github.com/nhle/countdown/internal/ui/timerlist"
)

// eventBuffer is the engine subscription depth. Ticks dropped on overflow
// are harmless because every event re-reads the full timer list.
const eventBuffer = 64

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewHelp
	ViewCommand
	ViewTimerCreate
	ViewTimerEdit
	ViewCategories
	ViewHistory
	ViewAlerts
	ViewDetail
)

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the engine.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	svc          *Services
	keys         *keys.KeyMap
	events       <-chan engine.Event
	unsubscribe  func()
	timerList    timerlist.Model
	timerForm    timerform.Model
	helpView     helpview.Model
	commandView  command.Model
	categoryView categorymgr.Model
	historyView  historyview.Model
	alertsView   alertsview.Model
	detailView   detail.Model
	ready        bool
	unreadCount  int
	notice       string
	noticeErr    bool
}

// New creates the root model over svc and subscribes to engine events.
func New(svc *Services) Model {
	k := keys.DefaultKeyMap()
	events, unsubscribe := svc.Engine.Subscribe(eventBuffer)

	m := Model{
		currentView:  ViewList,
		svc:          svc,
		keys:         k,
		events:       events,
		unsubscribe:  unsubscribe,
		timerList:    timerlist.New(k, 80, 24),
		timerForm:    timerform.New(80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		categoryView: categorymgr.New(svc.Timers, k, 80, 24),
		historyView:  historyview.New(svc.History, k, svc.Config.Export.Dir, svc.Config.Export.Format, 80, 24),
		alertsView:   alertsview.New(svc.DB, k, 80, 24),
		detailView:   detail.New(svc.History, k, 80, 24),
	}
	m.refreshTimers()
	return m
}

// Init starts listening for engine events and loads the unread count.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		m.fetchUnreadCount(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.timerList.SetSize(contentWidth, contentHeight)
		m.timerForm.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.categoryView.SetSize(contentWidth, contentHeight)
		m.historyView.SetSize(contentWidth, contentHeight)
		m.alertsView.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case engineEventMsg:
		m.handleEvent(msg.event)
		return m, waitForEvent(m.events)

	case AlertDeliveredMsg:
		m.setNotice(msg.Notification.Message, false)
		return m, m.fetchUnreadCount()

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case opResultMsg:
		if msg.err != nil {
			m.setNotice(describeError(msg.action, msg.err), true)
		}
		m.refreshTimers()
		return m, nil

	case timerform.SubmitMsg:
		m.currentView = ViewList
		if msg.ID == "" {
			return m, m.run("create", func(ctx context.Context) error {
				_, err := m.svc.Engine.CreateTimer(ctx, msg.Timer)
				return err
			})
		}
		return m, m.run("edit", func(ctx context.Context) error {
			_, err := m.svc.Engine.UpdateTimer(ctx, msg.ID, msg.Timer)
			return err
		})

	case timerform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case categorymgr.CloseMsg, historyview.CloseMsg, alertsview.CloseMsg:
		m.currentView = ViewList
		m.refreshTimers()
		return m, nil

	case categorymgr.ChangedMsg:
		m.refreshTimers()
		return m, nil

	case alertsview.ReadMsg:
		return m, m.fetchUnreadCount()

	case detail.BackMsg:
		m.currentView = ViewList
		m.detailView.Clear()
		return m, nil

	case detail.ActionMsg:
		t, ok := m.svc.Engine.Timer(msg.TimerID)
		if !ok {
			return m, nil
		}
		return m, m.timerAction(msg.Action, t)

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that are not owned by an input field.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.inputFocused() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true
	}

	if m.currentView == ViewHelp && key.Matches(msg, m.keys.Back) {
		m.currentView = m.previousView
		return nil, true
	}
	if m.currentView != ViewList {
		return nil, false
	}
	return m.handleListKey(msg)
}

// handleListKey runs timer actions from the list view.
func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	e := m.svc.Engine
	m.setNotice("", false)
	selected, hasTimer := m.timerList.Selected()
	category, hasCategory := m.timerList.SelectedCategory()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Open):
		if !hasTimer {
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detailView.SetTimer(selected, m.knownCategory(selected.Category))
		return nil, true

	case key.Matches(msg, m.keys.Toggle):
		if !hasTimer {
			return nil, true
		}
		return m.timerAction(detail.ActionToggle, selected), true

	case key.Matches(msg, m.keys.Reset):
		if !hasTimer {
			return nil, true
		}
		return m.timerAction(detail.ActionReset, selected), true

	case key.Matches(msg, m.keys.Delete):
		if !hasTimer {
			return nil, true
		}
		return m.run("delete", func(ctx context.Context) error { return e.Delete(ctx, selected.ID) }), true

	case key.Matches(msg, m.keys.New):
		m.currentView = ViewTimerCreate
		m.timerForm.SetCategories(m.svc.Timers.ListCategories())
		return m.timerForm.StartCreate(category), true

	case key.Matches(msg, m.keys.Edit):
		if !hasTimer {
			return nil, true
		}
		return m.timerAction(detail.ActionEdit, selected), true

	case key.Matches(msg, m.keys.StartCategory):
		if !hasCategory {
			return nil, true
		}
		return m.run("start all", func(ctx context.Context) error { return e.StartAllInCategory(ctx, category) }), true

	case key.Matches(msg, m.keys.PauseCategory):
		if !hasCategory {
			return nil, true
		}
		return m.run("pause all", func(ctx context.Context) error { return e.PauseAllInCategory(ctx, category) }), true

	case key.Matches(msg, m.keys.ResetCategory):
		if !hasCategory {
			return nil, true
		}
		return m.run("reset all", func(ctx context.Context) error { return e.ResetAllInCategory(ctx, category) }), true

	case key.Matches(msg, m.keys.History):
		return m.open(ViewHistory), true

	case key.Matches(msg, m.keys.Categories):
		return m.open(ViewCategories), true

	case key.Matches(msg, m.keys.Alerts):
		return m.open(ViewAlerts), true
	}
	return nil, false
}

// timerAction runs a single-timer action shared by the list and detail views.
func (m *Model) timerAction(action string, t model.Timer) tea.Cmd {
	e := m.svc.Engine
	switch action {
	case detail.ActionToggle:
		if t.Status == model.StatusRunning {
			return m.run("pause", func(ctx context.Context) error { return e.Pause(ctx, t.ID) })
		}
		return m.run("start", func(ctx context.Context) error { return e.Start(ctx, t.ID) })
	case detail.ActionReset:
		return m.run("reset", func(ctx context.Context) error { return e.Reset(ctx, t.ID) })
	case detail.ActionEdit:
		m.currentView = ViewTimerEdit
		m.timerForm.SetCategories(m.svc.Timers.ListCategories())
		return m.timerForm.StartEdit(t)
	}
	return nil
}

func (m Model) knownCategory(name string) bool {
	return model.ContainsCategory(m.svc.Timers.ListCategories(), name)
}

// open switches to a secondary view and initialises it.
func (m *Model) open(v ViewState) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = v
	switch v {
	case ViewHistory:
		return m.historyView.Init()
	case ViewCategories:
		return m.categoryView.Init()
	case ViewAlerts:
		return m.alertsView.Init()
	}
	return nil
}

// inputFocused reports whether keystrokes belong to a text field.
func (m Model) inputFocused() bool {
	switch m.currentView {
	case ViewCommand, ViewTimerCreate, ViewTimerEdit:
		return true
	case ViewCategories:
		return m.categoryView.Editing()
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.timerList, cmd = m.timerList.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTimerCreate, ViewTimerEdit:
		m.timerForm, cmd = m.timerForm.Update(msg)
	case ViewCategories:
		m.categoryView, cmd = m.categoryView.Update(msg)
	case ViewHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case ViewAlerts:
		m.alertsView, cmd = m.alertsView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	}

	return m, cmd
}

// handleEvent refreshes the list and surfaces notices for an engine event.
func (m *Model) handleEvent(ev engine.Event) {
	switch ev.Type {
	case engine.EventHalfway:
		m.setNotice(fmt.Sprintf("%s is halfway done!", ev.Timer.Name), false)
	case engine.EventCompleted:
		m.setNotice(fmt.Sprintf("%s is complete!", ev.Timer.Name), false)
		if m.currentView == ViewHistory {
			m.historyView.Init()
		}
	case engine.EventStorageFault:
		m.setNotice(describeError("save", ev.Err), true)
	}
	m.refreshTimers()
}

// refreshTimers re-reads the timer list from the engine. The detail view
// follows its timer and falls back to the list once it is deleted.
func (m *Model) refreshTimers() {
	m.timerList.SetTimers(m.svc.Engine.List(), m.svc.Timers.ListCategories())

	id := m.detailView.TimerID()
	if id == "" {
		return
	}
	t, ok := m.svc.Engine.Timer(id)
	if !ok {
		m.detailView.Clear()
		if m.currentView == ViewDetail {
			m.currentView = ViewList
		}
		return
	}
	m.detailView.SetTimer(t, m.knownCategory(t.Category))
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

// run executes a control operation off the UI goroutine.
func (m Model) run(action string, op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{action: action, err: op(context.Background())}
	}
}

// describeError turns an operation failure into a status line.
func describeError(action string, err error) string {
	switch {
	case errors.Is(err, store.ErrStorage):
		return fmt.Sprintf("%s: changes could not be saved (%v)", action, err)
	case errors.Is(err, engine.ErrClosed):
		return "engine is shutting down"
	default:
		return fmt.Sprintf("%s failed: %v", action, err)
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Countdown"
	if m.unreadCount > 0 {
		headerTitle = fmt.Sprintf("Countdown [%d new]", m.unreadCount)
	}
	header := m.layout.RenderHeader(headerTitle, m.runningSummary())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.timerList.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTimerCreate, ViewTimerEdit:
		return m.timerForm.View()
	case ViewCategories:
		return m.categoryView.View()
	case ViewHistory:
		return m.historyView.View()
	case ViewAlerts:
		return m.alertsView.View()
	case ViewDetail:
		return m.detailView.View()
	default:
		return ""
	}
}

// runningSummary counts timers by status for the header.
func (m Model) runningSummary() string {
	running, total := 0, 0
	for _, t := range m.svc.Engine.List() {
		total++
		if t.Status == model.StatusRunning {
			running++
		}
	}
	if total == 0 {
		return "no timers"
	}
	return fmt.Sprintf("%d/%d running", running, total)
}

// statusLine shows the latest notice in the list view and key hints
// elsewhere.
func (m Model) statusLine() string {
	if m.notice != "" && m.currentView == ViewList {
		if m.noticeErr {
			return theme.ErrorStyle.Render(m.notice)
		}
		return m.notice
	}
	return m.keyHints()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewTimerCreate, ViewTimerEdit:
		return "enter submit | esc cancel"
	case ViewCategories:
		return "n new | d delete | esc back"
	case ViewHistory:
		return "x export | C clear | esc back"
	case ViewAlerts:
		return "esc back"
	case ViewDetail:
		return "space start/pause | r reset | e edit | esc back"
	default:
		return "q quit | ? help | enter details | space start/pause | r reset | n new | S/P/R category"
	}
}

// fetchUnreadCount returns a tea.Cmd that queries the inbox for the
// number of unread alerts.
func (m Model) fetchUnreadCount() tea.Cmd {
	inbox := m.svc.DB
	return func() tea.Msg {
		notifications, err := inbox.GetUnreadNotifications(context.Background())
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: len(notifications)}
	}
}

// Close releases the engine subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}
