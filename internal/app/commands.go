package app

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/countdown/internal/store"
	"github.com/nhle/countdown/internal/ui/command"
)

// executeCommand handles a command from the command palette. Bulk
// commands without a category act on the category under the cursor;
// "pause all" alone pauses every running timer.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	e := m.svc.Engine
	category := c.Arg
	if category == "" {
		category, _ = m.timerList.SelectedCategory()
	}

	switch c.Name {
	case "start all":
		if category == "" {
			return nil
		}
		return m.run("start all", func(ctx context.Context) error { return e.StartAllInCategory(ctx, category) })
	case "pause all":
		if c.Arg == "" {
			return m.run("pause all", e.PauseAll)
		}
		return m.run("pause all", func(ctx context.Context) error { return e.PauseAllInCategory(ctx, c.Arg) })
	case "reset all":
		if category == "" {
			return nil
		}
		return m.run("reset all", func(ctx context.Context) error { return e.ResetAllInCategory(ctx, category) })
	case "new":
		m.previousView = ViewList
		m.currentView = ViewTimerCreate
		m.timerForm.SetCategories(m.svc.Timers.ListCategories())
		return m.timerForm.StartCreate(category)
	case "history":
		return m.open(ViewHistory)
	case "categories":
		return m.open(ViewCategories)
	case "alerts":
		return m.open(ViewAlerts)
	case "export":
		format := strings.ToLower(c.Arg)
		if format != "" && format != store.FormatJSON && format != store.FormatYAML {
			m.setNotice(fmt.Sprintf("unknown export format %q", c.Arg), true)
			return nil
		}
		cmd := m.open(ViewHistory)
		return tea.Batch(cmd, m.historyView.Export(format))
	case "quit", "q":
		return tea.Quit
	default:
		m.setNotice(fmt.Sprintf("unknown command %q", c.Name), true)
		return nil
	}
}
