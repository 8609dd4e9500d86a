package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/countdown/internal/theme"
)

// Layout splits the terminal into a one-line header, the active view and a
// one-line status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth is the width handed to views.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is the height left between header and status bar. It never
// drops below one line.
func (l Layout) ContentHeight() int {
	return max(l.Height-2, 1)
}

// RenderHeader renders the title on the left and the running summary on the
// right of a full-width bar.
func (l Layout) RenderHeader(title, summary string) string {
	return l.bar(theme.HeaderStyle, theme.HeaderStyle.Render(title), theme.HeaderStyle.Render(summary))
}

// RenderStatusBar renders hints or the latest notice across the bottom line.
func (l Layout) RenderStatusBar(text string) string {
	return l.bar(theme.StatusBarStyle, theme.StatusBarStyle.Render(text), "")
}

// bar pads left and right apart with the style's background.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	gap := max(l.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
