package history_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
	"github.com/nhle/countdown/internal/ui/history"
	"github.com/nhle/countdown/tests/testutil"
)

func newLog(t *testing.T) *store.HistoryLog {
	t.Helper()
	h := store.NewHistoryLog(testutil.NewTestStore(t))
	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return h
}

// run executes cmd and feeds its message back into m.
func run(m history.Model, cmd tea.Cmd) history.Model {
	if cmd == nil {
		return m
	}
	m, _ = m.Update(cmd())
	return m
}

func TestExportEmptyShowsNoData(t *testing.T) {
	dir := t.TempDir()
	m := history.New(newLog(t), keys.DefaultKeyMap(), dir, store.FormatJSON, 80, 24)
	m.Init()

	m = run(m, m.Export(""))
	if !strings.Contains(m.View(), "No data to export") {
		t.Errorf("View() = %q, want no-data notice", m.View())
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("export of empty history wrote %d files", len(entries))
	}
}

func TestExportAndClear(t *testing.T) {
	ctx := context.Background()
	log := newLog(t)
	if err := log.Append(ctx, model.HistoryEntry{Name: "Run", CompletedAt: "2025-01-01 09:00"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	dir := t.TempDir()
	m := history.New(log, keys.DefaultKeyMap(), dir, store.FormatJSON, 80, 24)
	m.Init()
	if !strings.Contains(m.View(), "Run") || !strings.Contains(m.View(), "History (1)") {
		t.Fatalf("View() missing entry: %q", m.View())
	}

	m = run(m, m.Export(store.FormatYAML))
	want := filepath.Join(dir, store.ExportBaseName+".yaml")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("export file: %v", err)
	}

	var cmd tea.Cmd
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("C")})
	m = run(m, cmd)
	if log.Len() != 0 {
		t.Errorf("Len() after clear = %d", log.Len())
	}
	if !strings.Contains(m.View(), "History (0)") {
		t.Errorf("View() after clear = %q", m.View())
	}
}
