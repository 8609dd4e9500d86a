package categorymgr_test

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
	"github.com/nhle/countdown/internal/ui/categorymgr"
	"github.com/nhle/countdown/tests/testutil"
)

func newTimerStore(t *testing.T) *store.TimerStore {
	t.Helper()
	ts := store.NewTimerStore(testutil.NewTestStore(t), model.DefaultCategories)
	if err := ts.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return ts
}

func press(m categorymgr.Model, k string) (categorymgr.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestListShowsBuiltIns(t *testing.T) {
	ts := newTimerStore(t)
	if err := ts.AddCategory(context.Background(), "Reading"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}

	m := categorymgr.New(ts, keys.DefaultKeyMap(), 80, 24)
	m.Init()
	view := m.View()
	for _, want := range []string{"Workout", "Study", "Break", "Reading", "built-in"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestDeleteBuiltInIsRefused(t *testing.T) {
	ts := newTimerStore(t)
	m := categorymgr.New(ts, keys.DefaultKeyMap(), 80, 24)
	m.Init()

	m, cmd := press(m, "d")
	if cmd != nil {
		t.Fatal("deleting a built-in category should not open a confirmation")
	}
	if m.Editing() {
		t.Error("view left list mode")
	}
	if !strings.Contains(m.View(), "cannot be deleted") {
		t.Error("expected a built-in notice in the view")
	}
	if got := len(ts.ListCategories()); got != 3 {
		t.Errorf("categories = %d, want 3", got)
	}
}

func TestDeleteUserCategoryOpensConfirm(t *testing.T) {
	ts := newTimerStore(t)
	if err := ts.AddCategory(context.Background(), "Reading"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	m := categorymgr.New(ts, keys.DefaultKeyMap(), 80, 24)
	m.Init()

	for i := 0; i < 3; i++ {
		m, _ = press(m, "j")
	}
	m, _ = press(m, "d")
	if !m.Editing() {
		t.Fatal("expected the confirmation form")
	}
}

func TestEscapeCloses(t *testing.T) {
	m := categorymgr.New(newTimerStore(t), keys.DefaultKeyMap(), 80, 24)
	m.Init()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should emit CloseMsg")
	}
	if _, ok := cmd().(categorymgr.CloseMsg); !ok {
		t.Error("esc did not emit CloseMsg")
	}
}
