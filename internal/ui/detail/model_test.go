package detail

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
)

type fakeSessions []model.HistoryEntry

func (f fakeSessions) List() []model.HistoryEntry { return f }

func TestViewListsSessionsForTimerName(t *testing.T) {
	sessions := fakeSessions{
		{Name: "Run", CompletedAt: "2025-01-02 10:00"},
		{Name: "Read", CompletedAt: "2025-01-02 09:00"},
		{Name: "Run", CompletedAt: "2025-01-01 10:00"},
	}
	m := New(sessions, keys.DefaultKeyMap(), 100, 40)
	m.SetTimer(model.Timer{ID: "t1", Name: "Run", Category: "Gone", Duration: 90, Remaining: 30, Status: model.StatusPaused}, false)

	view := m.View()
	for _, want := range []string{"Completed sessions (2)", "2025-01-02 10:00", "2025-01-01 10:00", "00:00:30", "Gone (deleted)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "2025-01-02 09:00") {
		t.Errorf("view lists another timer's session:\n%s", view)
	}
}

func TestKeysEmitActions(t *testing.T) {
	m := New(nil, keys.DefaultKeyMap(), 80, 24)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}); cmd != nil {
		t.Fatal("action emitted with no timer shown")
	}

	m.SetTimer(model.Timer{ID: "t1", Name: "Run", Duration: 60, Remaining: 60, Status: model.StatusPaused}, true)
	cases := map[string]string{"s": ActionToggle, "r": ActionReset, "e": ActionEdit}
	for k, want := range cases {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		if cmd == nil {
			t.Fatalf("%s: no command", k)
		}
		msg, ok := cmd().(ActionMsg)
		if !ok || msg.Action != want || msg.TimerID != "t1" {
			t.Errorf("%s: got %#v, want %s on t1", k, msg, want)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(BackMsg); !ok {
		t.Error("esc should emit BackMsg")
	}
}
