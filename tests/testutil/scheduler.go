package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/nhle/countdown/internal/alert"
	"github.com/nhle/countdown/internal/model"
)

// ScheduleCall is one Schedule request seen by RecordingScheduler.
type ScheduleCall struct {
	TimerID string
	Kind    model.AlertKind
	Delay   int
	Handle  alert.Handle
	OK      bool
}

// RecordingScheduler records every Schedule and Cancel call and never
// delivers anything. Delays above MaxDelay are dropped like the real
// scheduler does.
type RecordingScheduler struct {
	MaxDelay int

	mu        sync.Mutex
	next      int
	scheduled []ScheduleCall
	cancelled []alert.Handle
}

// NewRecordingScheduler returns a scheduler with the default cap.
func NewRecordingScheduler() *RecordingScheduler {
	return &RecordingScheduler{MaxDelay: alert.DefaultMaxDelay}
}

func (r *RecordingScheduler) Schedule(_ context.Context, delay int, a alert.Alert) (alert.Handle, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call := ScheduleCall{TimerID: a.TimerID, Kind: a.Kind, Delay: delay}
	if delay <= r.MaxDelay {
		r.next++
		call.Handle = alert.Handle(fmt.Sprintf("h%d", r.next))
		call.OK = true
	}
	r.scheduled = append(r.scheduled, call)
	return call.Handle, call.OK, nil
}

func (r *RecordingScheduler) Cancel(_ context.Context, h alert.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, h)
	return nil
}

// Scheduled returns the Schedule calls for timerID.
func (r *RecordingScheduler) Scheduled(timerID string) []ScheduleCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ScheduleCall
	for _, c := range r.scheduled {
		if c.TimerID == timerID {
			out = append(out, c)
		}
	}
	return out
}

// Cancelled returns every cancelled handle in call order.
func (r *RecordingScheduler) Cancelled() []alert.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]alert.Handle(nil), r.cancelled...)
}

// WasCancelled reports whether h was cancelled at least once.
func (r *RecordingScheduler) WasCancelled(h alert.Handle) bool {
	for _, c := range r.Cancelled() {
		if c == h {
			return true
		}
	}
	return false
}
