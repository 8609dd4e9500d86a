package engine

import (
	"context"
	"log"
	"slices"
	"time"

	"github.com/nhle/countdown/internal/alert"
	"github.com/nhle/countdown/internal/model"
)

// driver produces ticks for one timer (per-timer) or many (shared). Its
// member list is guarded by the engine mutex.
type driver struct {
	shared  bool
	members []string
	ticker  Ticker
	stop    chan struct{}
	done    bool
}

// completion is the side effect work for a timer that just finished.
type completion struct {
	timer   model.Timer
	handles []alert.Handle
	at      time.Time
}

// newDriver starts a driver goroutine. Callers hold e.mu and have checked
// that the engine is not closed.
func (e *Engine) newDriver(shared bool) *driver {
	d := &driver{
		shared: shared,
		ticker: e.clock.NewTicker(e.interval),
		stop:   make(chan struct{}),
	}
	e.wg.Add(1)
	go e.run(d)
	return d
}

// attach registers d as the driver advancing id. Callers hold e.mu.
func (e *Engine) attach(id string, d *driver) {
	d.members = append(d.members, id)
	e.drivers[id] = d
}

// detach removes id from its driver, stopping the driver when it has no
// members left. Callers hold e.mu. It is a no-op for undriven ids.
func (e *Engine) detach(id string) {
	d, ok := e.drivers[id]
	if !ok {
		return
	}
	delete(e.drivers, id)
	d.members = slices.DeleteFunc(d.members, func(m string) bool { return m == id })
	if len(d.members) == 0 && !d.done {
		d.done = true
		close(d.stop)
	}
}

func (e *Engine) run(d *driver) {
	defer e.wg.Done()
	defer d.ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-d.ticker.C():
			if !e.tick(d) {
				return
			}
		}
	}
}

// tick advances every member of d by one second. It returns false once the
// driver has nothing left to drive.
func (e *Engine) tick(d *driver) bool {
	var (
		events []Event
		done   []completion
	)

	e.mu.Lock()
	if d.done {
		e.mu.Unlock()
		return false
	}
	for _, id := range slices.Clone(d.members) {
		if e.drivers[id] != d {
			continue
		}
		cur, ok := e.timers.Get(id)
		if !ok || cur.Status != model.StatusRunning {
			e.detach(id)
			continue
		}

		t, _ := e.timers.Modify(id, func(t *model.Timer) {
			if t.Remaining > 1 {
				t.Remaining--
				return
			}
			t.Remaining = 0
			t.Status = model.StatusCompleted
		})

		if t.Status == model.StatusCompleted {
			e.detach(id)
			done = append(done, completion{
				timer:   t,
				handles: e.takeHandles(id),
				at:      e.clock.Now(),
			})
			continue
		}

		events = append(events, Event{Type: EventTick, TimerID: id, Timer: t})
		if t.HalfwayAlert && t.Remaining == t.HalfwayMark() {
			events = append(events, Event{Type: EventHalfway, TimerID: id, Timer: t})
		}
	}
	alive := !d.done
	e.mu.Unlock()

	if len(done) > 0 {
		e.wg.Add(1)
		go e.complete(done)
	}
	e.flushAsync()
	for _, ev := range events {
		e.emit(ev)
	}
	return alive
}

// complete runs the side effects of natural completions: cancel the
// outstanding alerts, then append the history entry.
func (e *Engine) complete(done []completion) {
	defer e.wg.Done()
	ctx := context.Background()

	for _, c := range done {
		e.cancelAlerts(ctx, c.timer.ID, c.handles)
		entry := model.NewHistoryEntry(c.timer.Name, c.at, e.layout)
		if err := e.history.Append(ctx, entry); err != nil {
			log.Printf("engine: recording completion of %s: %v", c.timer.ID, err)
			e.emit(Event{Type: EventStorageFault, TimerID: c.timer.ID, Err: err})
		}
		e.emit(Event{Type: EventCompleted, TimerID: c.timer.ID, Timer: c.timer})
	}
}
