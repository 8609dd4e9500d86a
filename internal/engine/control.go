package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/countdown/internal/model"
)

// Start sets a Paused timer Running, attaches a per-timer driver and
// schedules its alerts. Running, Completed and unknown timers are left
// alone.
func (e *Engine) Start(ctx context.Context, id string) error {
	unlock := e.ops.lock(id)
	defer unlock()
	return e.start(ctx, id, func() *driver { return e.newDriver(false) })
}

// start runs with the op lock for id held. pick returns the driver to
// attach; it is called with e.mu held.
func (e *Engine) start(ctx context.Context, id string, pick func() *driver) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	cur, ok := e.timers.Get(id)
	if !ok {
		e.mu.Unlock()
		return nil
	}
	switch cur.Status {
	case model.StatusCompleted:
		e.mu.Unlock()
		return nil
	case model.StatusRunning:
		if _, driven := e.drivers[id]; driven {
			e.mu.Unlock()
			return nil
		}
	case model.StatusPaused:
	}

	t, _ := e.timers.Modify(id, func(t *model.Timer) { t.Status = model.StatusRunning })
	d := pick()
	e.attach(id, d)
	stale := e.takeHandles(id)
	e.mu.Unlock()

	e.cancelAlerts(ctx, id, stale)
	hs := e.scheduleAlerts(ctx, t)

	e.mu.Lock()
	if e.drivers[id] == d {
		e.handles[id] = hs
		hs = nil
	}
	e.mu.Unlock()
	// The timer finished before the handles were recorded.
	e.cancelAlerts(ctx, id, hs)

	e.emit(Event{Type: EventStateChange, TimerID: id, Timer: t})
	return e.persist(ctx)
}

// Pause stops advancing a timer and cancels its alerts. A Running timer
// becomes Paused; a Completed timer keeps its status, since it has no time
// left to pause.
func (e *Engine) Pause(ctx context.Context, id string) error {
	unlock := e.ops.lock(id)
	defer unlock()
	return e.pause(ctx, id)
}

func (e *Engine) pause(ctx context.Context, id string) error {
	e.mu.Lock()
	cur, ok := e.timers.Get(id)
	if !ok {
		e.mu.Unlock()
		return nil
	}
	e.detach(id)
	hs := e.takeHandles(id)
	t := cur
	if cur.Status == model.StatusRunning {
		t, _ = e.timers.Modify(id, func(t *model.Timer) { t.Status = model.StatusPaused })
	}
	e.mu.Unlock()

	e.cancelAlerts(ctx, id, hs)
	if t.Status == cur.Status {
		return nil
	}
	e.emit(Event{Type: EventStateChange, TimerID: id, Timer: t})
	return e.persist(ctx)
}

// Reset stops a timer, cancels its alerts and restores the full duration.
// This is how a Completed timer becomes reusable. No history is recorded.
func (e *Engine) Reset(ctx context.Context, id string) error {
	unlock := e.ops.lock(id)
	defer unlock()

	e.mu.Lock()
	e.detach(id)
	hs := e.takeHandles(id)
	t, ok := e.timers.Modify(id, func(t *model.Timer) {
		t.Remaining = t.Duration
		t.Status = model.StatusPaused
	})
	e.mu.Unlock()

	e.cancelAlerts(ctx, id, hs)
	if !ok {
		return nil
	}
	e.emit(Event{Type: EventStateChange, TimerID: id, Timer: t})
	return e.persist(ctx)
}

// Delete stops a timer, cancels its alerts and only then removes it from
// the store.
func (e *Engine) Delete(ctx context.Context, id string) error {
	unlock := e.ops.lock(id)
	defer unlock()

	e.mu.Lock()
	e.detach(id)
	hs := e.takeHandles(id)
	_, ok := e.timers.Get(id)
	e.mu.Unlock()

	e.cancelAlerts(ctx, id, hs)
	if !ok {
		return nil
	}
	if err := e.timers.Delete(ctx, id); err != nil {
		e.emit(Event{Type: EventStorageFault, TimerID: id, Err: err})
		return err
	}
	e.emit(Event{Type: EventStateChange, TimerID: id})
	return nil
}

// NewTimer holds the user-supplied fields of a timer.
type NewTimer struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Duration     int    `json:"duration"`
	HalfwayAlert bool   `json:"halfwayAlert"`
}

// Validate checks the fields a form must supply.
func (n NewTimer) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: name is required", model.ErrInvalidTimer)
	}
	if n.Duration <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of seconds", model.ErrInvalidTimer)
	}
	return nil
}

// CreateTimer adds a Paused timer with the full duration remaining. An
// empty category takes the first available one.
func (e *Engine) CreateTimer(ctx context.Context, n NewTimer) (model.Timer, error) {
	if err := n.Validate(); err != nil {
		return model.Timer{}, err
	}
	category := n.Category
	if category == "" {
		category = e.timers.DefaultCategory()
	}
	t := model.Timer{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(n.Name),
		Category:     category,
		Duration:     n.Duration,
		Remaining:    n.Duration,
		Status:       model.StatusPaused,
		HalfwayAlert: n.HalfwayAlert,
	}
	if err := e.timers.Create(ctx, t); err != nil {
		return t, err
	}
	e.emit(Event{Type: EventStateChange, TimerID: t.ID, Timer: t})
	return t, nil
}

// UpdateTimer applies an edit. A Running timer is paused first so the edit
// never races its driver. Remaining is clamped to the new duration and
// stays 0 for a Completed timer. Unknown ids are a no-op.
func (e *Engine) UpdateTimer(ctx context.Context, id string, n NewTimer) (model.Timer, error) {
	if err := n.Validate(); err != nil {
		return model.Timer{}, err
	}

	unlock := e.ops.lock(id)
	defer unlock()

	cur, ok := e.timers.Get(id)
	if !ok {
		return model.Timer{}, nil
	}
	if cur.Status == model.StatusRunning {
		if err := e.pause(ctx, id); err != nil {
			return cur, err
		}
		if cur, ok = e.timers.Get(id); !ok {
			return model.Timer{}, nil
		}
	}
	if n.Category == "" {
		n.Category = cur.Category
	}

	t := cur.ApplyEdit(model.Timer{
		Name:         n.Name,
		Category:     n.Category,
		Duration:     n.Duration,
		HalfwayAlert: n.HalfwayAlert,
	})
	if err := e.timers.Update(ctx, t); err != nil {
		e.emit(Event{Type: EventStorageFault, TimerID: id, Err: err})
		return t, err
	}
	e.emit(Event{Type: EventStateChange, TimerID: id, Timer: t})
	return t, nil
}
