package alert

import (
	"context"
	"fmt"
	"log"

	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
)

// InboxSink records fired alerts in the notifications inbox.
func InboxSink(inbox store.Inbox) Sink {
	return SinkFunc(func(ctx context.Context, n model.Notification) error {
		return inbox.CreateNotification(ctx, n)
	})
}

// LogSink writes fired alerts to the standard logger.
func LogSink() Sink {
	return SinkFunc(func(_ context.Context, n model.Notification) error {
		log.Printf("alert: %s: %s", n.Title, n.Message)
		return nil
	})
}

// HalfwayAlert builds the midpoint alert for a timer.
func HalfwayAlert(t model.Timer) Alert {
	return Alert{
		TimerID: t.ID,
		Kind:    model.AlertHalfway,
		Title:   "Halfway Alert",
		Body:    fmt.Sprintf("Timer %q is halfway done!", t.Name),
	}
}

// CompleteAlert builds the completion alert for a timer.
func CompleteAlert(t model.Timer) Alert {
	return Alert{
		TimerID: t.ID,
		Kind:    model.AlertComplete,
		Title:   "Timer Complete",
		Body:    fmt.Sprintf("Timer %q is complete!", t.Name),
	}
}
