package alerts_test

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/countdown/internal/keys"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/ui/alerts"
	"github.com/nhle/countdown/tests/testutil"
)

func TestOpeningMarksAlertsRead(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	if err := s.CreateNotification(ctx, model.Notification{
		TimerID: "t1",
		Kind:    model.AlertComplete,
		Title:   "Timer Complete",
		Message: `Timer "Run" is complete!`,
	}); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	m := alerts.New(s, keys.DefaultKeyMap(), 100, 20)
	m, cmd := m.Update(m.Init()())
	if !strings.Contains(m.View(), `Timer "Run" is complete!`) {
		t.Errorf("view missing alert:\n%s", m.View())
	}
	if !strings.Contains(m.View(), "•") {
		t.Errorf("unread alert should be marked:\n%s", m.View())
	}

	if cmd == nil {
		t.Fatal("loading should mark alerts read")
	}
	if _, ok := cmd().(alerts.ReadMsg); !ok {
		t.Fatal("expected ReadMsg")
	}
	unread, err := s.GetUnreadNotifications(ctx)
	if err != nil {
		t.Fatalf("GetUnreadNotifications: %v", err)
	}
	if len(unread) != 0 {
		t.Errorf("%d alerts still unread", len(unread))
	}
}

func TestEmptyInboxAndBack(t *testing.T) {
	m := alerts.New(testutil.NewTestStore(t), keys.DefaultKeyMap(), 100, 20)
	m, _ = m.Update(m.Init()())
	if !strings.Contains(m.View(), "No alerts delivered yet.") {
		t.Errorf("empty view:\n%s", m.View())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(alerts.CloseMsg); !ok {
		t.Error("esc should emit CloseMsg")
	}
}
