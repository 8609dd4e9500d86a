// Package engine advances running countdown timers, keeps their scheduled
// alerts in step with their state, and records natural completions.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/nhle/countdown/internal/alert"
	"github.com/nhle/countdown/internal/model"
)

// ErrClosed is returned by control operations after Close.
var ErrClosed = errors.New("engine closed")

// Timers is the timer collection the engine drives. *store.TimerStore
// implements it.
type Timers interface {
	List() []model.Timer
	Get(id string) (model.Timer, bool)
	Create(ctx context.Context, t model.Timer) error
	Update(ctx context.Context, t model.Timer) error
	Delete(ctx context.Context, id string) error
	Modify(id string, fn func(t *model.Timer)) (model.Timer, bool)
	Flush(ctx context.Context) error
	DefaultCategory() string
}

// History receives one entry per natural completion. *store.HistoryLog
// implements it.
type History interface {
	Append(ctx context.Context, e model.HistoryEntry) error
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Clock        Clock
	TickInterval time.Duration

	// Driver selects how StartAllInCategory drives timers:
	// model.DriverPerTimer or model.DriverShared.
	Driver string

	// DateLayout formats HistoryEntry.CompletedAt.
	DateLayout string
}

// Engine is the timer control engine.
type Engine struct {
	timers   Timers
	history  History
	alerts   alert.Scheduler
	clock    Clock
	interval time.Duration
	strategy string
	layout   string

	mu      sync.Mutex
	drivers map[string]*driver
	handles map[string][]alert.Handle
	closed  bool

	ops opLocks
	wg  sync.WaitGroup

	subsMu     sync.Mutex
	subs       map[chan Event]struct{}
	subsClosed bool
}

// New creates an engine over the given collaborators.
func New(timers Timers, history History, alerts alert.Scheduler, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Driver == "" {
		opts.Driver = model.DriverPerTimer
	}
	if opts.DateLayout == "" {
		opts.DateLayout = model.CompletedAtLayout
	}
	if alerts == nil {
		alerts = alert.Disabled{}
	}
	return &Engine{
		timers:   timers,
		history:  history,
		alerts:   alerts,
		clock:    opts.Clock,
		interval: opts.TickInterval,
		strategy: opts.Driver,
		layout:   opts.DateLayout,
		drivers:  make(map[string]*driver),
		handles:  make(map[string][]alert.Handle),
		subs:     make(map[chan Event]struct{}),
	}
}

// List returns the current timers.
func (e *Engine) List() []model.Timer {
	return e.timers.List()
}

// Timer returns the timer with id.
func (e *Engine) Timer(id string) (model.Timer, bool) {
	return e.timers.Get(id)
}

// Active reports whether a driver is advancing id.
func (e *Engine) Active(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.drivers[id]
	return ok
}

// DriverCount returns the number of live drivers.
func (e *Engine) DriverCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := make(map[*driver]bool)
	for _, d := range e.drivers {
		seen[d] = true
	}
	return len(seen)
}

// Close stops every driver, waits for background work and writes the timer
// collection a final time. Timers left Running come back Paused on the next
// load. Pending alerts are left to the scheduler.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	for id := range e.drivers {
		e.detach(id)
	}
	e.mu.Unlock()

	e.wg.Wait()
	err := e.timers.Flush(ctx)
	e.closeSubscribers()
	return err
}

// persist writes the timer collection for a control operation.
func (e *Engine) persist(ctx context.Context) error {
	if err := e.timers.Flush(ctx); err != nil {
		e.emit(Event{Type: EventStorageFault, Err: err})
		return err
	}
	return nil
}

// flushAsync writes the timer collection without holding up the caller.
// It must only be called from goroutines tracked by e.wg.
func (e *Engine) flushAsync() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.timers.Flush(context.Background()); err != nil {
			log.Printf("engine: saving timers: %v", err)
			e.emit(Event{Type: EventStorageFault, Err: err})
		}
	}()
}

// scheduleAlerts requests the halfway and completion alerts for a timer
// that just started. Only handles that were actually issued are returned.
func (e *Engine) scheduleAlerts(ctx context.Context, t model.Timer) []alert.Handle {
	var hs []alert.Handle
	if delay, ok := t.HalfwayDelay(); ok {
		h, ok, err := e.alerts.Schedule(ctx, delay, alert.HalfwayAlert(t))
		if err != nil {
			log.Printf("engine: scheduling halfway alert for %s: %v", t.ID, err)
		} else if ok {
			hs = append(hs, h)
		}
	}
	h, ok, err := e.alerts.Schedule(ctx, t.Remaining, alert.CompleteAlert(t))
	if err != nil {
		log.Printf("engine: scheduling completion alert for %s: %v", t.ID, err)
	} else if ok {
		hs = append(hs, h)
	}
	return hs
}

// cancelAlerts cancels hs. Failures are logged and otherwise ignored.
func (e *Engine) cancelAlerts(ctx context.Context, id string, hs []alert.Handle) {
	for _, h := range hs {
		if err := e.alerts.Cancel(ctx, h); err != nil {
			log.Printf("engine: cancelling alert for %s: %v", id, err)
		}
	}
}

// takeHandles removes and returns the outstanding handles for id.
// Callers hold e.mu.
func (e *Engine) takeHandles(id string) []alert.Handle {
	hs := e.handles[id]
	delete(e.handles, id)
	return hs
}
