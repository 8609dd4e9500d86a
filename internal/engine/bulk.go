package engine

import (
	"context"
	"errors"

	"github.com/nhle/countdown/internal/model"
)

// StartAllInCategory starts every Paused timer in category. With the shared
// strategy all of them join one driver, which stops once none of its
// timers is Running. Failures do not stop the batch; they are joined.
func (e *Engine) StartAllInCategory(ctx context.Context, category string) error {
	ids := e.idsIn(category, func(t model.Timer) bool { return t.Status == model.StatusPaused })

	var errs []error
	if e.strategy != model.DriverShared {
		for _, id := range ids {
			errs = append(errs, e.Start(ctx, id))
		}
		return errors.Join(errs...)
	}

	var shared *driver
	pick := func() *driver {
		if shared == nil || shared.done {
			shared = e.newDriver(true)
		}
		return shared
	}
	for _, id := range ids {
		unlock := e.ops.lock(id)
		errs = append(errs, e.start(ctx, id, pick))
		unlock()
	}
	return errors.Join(errs...)
}

// PauseAllInCategory pauses every Running timer in category.
func (e *Engine) PauseAllInCategory(ctx context.Context, category string) error {
	ids := e.idsIn(category, func(t model.Timer) bool { return t.Status == model.StatusRunning })

	var errs []error
	for _, id := range ids {
		errs = append(errs, e.Pause(ctx, id))
	}
	return errors.Join(errs...)
}

// ResetAllInCategory resets every timer in category.
func (e *Engine) ResetAllInCategory(ctx context.Context, category string) error {
	ids := e.idsIn(category, func(model.Timer) bool { return true })

	var errs []error
	for _, id := range ids {
		errs = append(errs, e.Reset(ctx, id))
	}
	return errors.Join(errs...)
}

// PauseAll pauses every Running timer.
func (e *Engine) PauseAll(ctx context.Context) error {
	var errs []error
	for _, t := range e.timers.List() {
		if t.Status == model.StatusRunning {
			errs = append(errs, e.Pause(ctx, t.ID))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) idsIn(category string, keep func(model.Timer) bool) []string {
	var ids []string
	for _, t := range e.timers.List() {
		if t.Category == category && keep(t) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
