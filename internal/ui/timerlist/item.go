package timerlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/theme"
)

// renderHeader draws a category group title. Orphaned labels are dimmed.
func renderHeader(name string, known bool) string {
	if !known {
		return theme.OrphanCategoryStyle.Render(name + " (deleted)")
	}
	return theme.CategoryHeaderStyle.Render(name)
}

// renderTimer draws one timer line:
//
//	name  00:04:10 / 00:10:00  [bar]  Running  ½
func renderTimer(t model.Timer, bar progress.Model, selected bool, nameWidth int) string {
	name := truncate(t.Name, nameWidth)
	name = lipgloss.NewStyle().Width(nameWidth).Render(name)

	clock := fmt.Sprintf("%s / %s", model.FormatClock(t.Remaining), model.FormatClock(t.Duration))
	status := theme.StatusStyle(string(t.Status)).Render(string(t.Status))

	line := name + "  " + clock + "  " + bar.ViewAs(t.Progress()) + " " + status
	if t.HalfwayAlert {
		line += theme.HelpStyle.Render("½")
	}

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
