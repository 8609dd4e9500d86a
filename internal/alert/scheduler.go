// Package alert schedules one-shot local alerts and delivers them to sinks
// when they fire.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/countdown/internal/model"
)

// DefaultMaxDelay is the longest delay, in seconds, that is scheduled.
// Longer requests are dropped because delivery that far out is unreliable.
const DefaultMaxDelay = 500

// ErrNegativeDelay is returned for delays below zero.
var ErrNegativeDelay = errors.New("alert delay must not be negative")

// Handle identifies a scheduled alert. Handles are only compared for
// equality.
type Handle string

// Alert is the content of a one-shot alert.
type Alert struct {
	TimerID string
	Kind    model.AlertKind
	Title   string
	Body    string
}

// Scheduler schedules and cancels one-shot alerts. Schedule reports ok=false
// without an error when the request is dropped by policy. Cancel is
// best-effort: unknown or already-fired handles are not an error.
type Scheduler interface {
	Schedule(ctx context.Context, delaySeconds int, a Alert) (h Handle, ok bool, err error)
	Cancel(ctx context.Context, h Handle) error
}

// Sink receives alerts as they fire.
type Sink interface {
	Deliver(ctx context.Context, n model.Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n model.Notification) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, n model.Notification) error {
	return f(ctx, n)
}

// LocalScheduler fires alerts from in-process timers.
type LocalScheduler struct {
	maxDelay int
	sinks    []Sink
	now      func() time.Time

	mu      sync.Mutex
	pending map[Handle]*time.Timer
	closed  bool
}

// NewLocalScheduler creates a scheduler that drops delays above maxDelay
// seconds. A non-positive maxDelay uses DefaultMaxDelay.
func NewLocalScheduler(maxDelay int, sinks ...Sink) *LocalScheduler {
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	return &LocalScheduler{
		maxDelay: maxDelay,
		sinks:    sinks,
		now:      time.Now,
		pending:  make(map[Handle]*time.Timer),
	}
}

// Schedule arms a one-shot alert delaySeconds from now.
func (s *LocalScheduler) Schedule(_ context.Context, delaySeconds int, a Alert) (Handle, bool, error) {
	if delaySeconds < 0 {
		return "", false, fmt.Errorf("%w: %d", ErrNegativeDelay, delaySeconds)
	}
	if delaySeconds > s.maxDelay {
		return "", false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, nil
	}

	h := Handle(uuid.New().String())
	s.pending[h] = time.AfterFunc(time.Duration(delaySeconds)*time.Second, func() {
		s.fire(h, a)
	})
	return h, true, nil
}

// Cancel disarms h if it has not fired yet.
func (s *LocalScheduler) Cancel(_ context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.pending[h]; ok {
		t.Stop()
		delete(s.pending, h)
	}
	return nil
}

// Pending returns the number of armed alerts.
func (s *LocalScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close disarms every pending alert. Later Schedule calls are dropped.
func (s *LocalScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for h, t := range s.pending {
		t.Stop()
		delete(s.pending, h)
	}
	s.closed = true
}

func (s *LocalScheduler) fire(h Handle, a Alert) {
	s.mu.Lock()
	if _, ok := s.pending[h]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, h)
	sinks := s.sinks
	s.mu.Unlock()

	n := model.Notification{
		ID:        string(h),
		TimerID:   a.TimerID,
		Kind:      a.Kind,
		Title:     a.Title,
		Message:   a.Body,
		CreatedAt: s.now(),
	}
	ctx := context.Background()
	for _, sink := range sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			log.Printf("alert: delivering %s for timer %s: %v", a.Kind, a.TimerID, err)
		}
	}
}

// Disabled is a Scheduler that drops every request. It backs the
// alerts.enabled=false setting.
type Disabled struct{}

// Schedule drops the request.
func (Disabled) Schedule(context.Context, int, Alert) (Handle, bool, error) {
	return "", false, nil
}

// Cancel does nothing.
func (Disabled) Cancel(context.Context, Handle) error { return nil }
