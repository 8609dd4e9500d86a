package app

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/countdown/internal/alert"
	"github.com/nhle/countdown/internal/engine"
	"github.com/nhle/countdown/internal/model"
)

// engineEventMsg carries one engine event into the Bubble Tea loop.
type engineEventMsg struct {
	event engine.Event
}

// AlertDeliveredMsg is sent when a scheduled alert fires.
type AlertDeliveredMsg struct {
	Notification model.Notification
}

// opResultMsg reports the outcome of a control operation.
type opResultMsg struct {
	action string
	err    error
}

// unreadCountMsg carries the number of unread alerts to the UI.
type unreadCountMsg struct {
	count int
}

// waitForEvent returns a command that blocks until the next engine event.
// It yields nil once the subscription is closed, which ends the listen loop.
func waitForEvent(ch <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return engineEventMsg{event: ev}
	}
}

// AlertSink forwards fired alerts to a running program through send,
// usually a Notifier's Send.
func AlertSink(send func(tea.Msg)) alert.Sink {
	return alert.SinkFunc(func(_ context.Context, n model.Notification) error {
		send(AlertDeliveredMsg{Notification: n})
		return nil
	})
}

// Notifier lets alert sinks be wired before the program exists.
type Notifier struct {
	p atomic.Pointer[tea.Program]
}

// Attach sets the program that receives messages.
func (n *Notifier) Attach(p *tea.Program) { n.p.Store(p) }

// Send forwards msg when a program is attached and drops it otherwise.
func (n *Notifier) Send(msg tea.Msg) {
	if p := n.p.Load(); p != nil {
		p.Send(msg)
	}
}
