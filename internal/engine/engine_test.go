package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/countdown/internal/engine"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
	"github.com/nhle/countdown/tests/testutil"
)

const waitTimeout = 2 * time.Second

type testEnv struct {
	Engine  *engine.Engine
	Timers  *store.TimerStore
	History *store.HistoryLog
	Alerts  *testutil.RecordingScheduler
	Clock   *testutil.FakeClock
	Events  <-chan engine.Event
	Ctx     context.Context

	// backlog keeps events skipped by waitFor so later waits still see them.
	backlog *[]engine.Event
}

func newTestEnv(t *testing.T, driver string) testEnv {
	t.Helper()
	return newTestEnvWith(t, testutil.NewTestStore(t), driver)
}

func newTestEnvWith(t *testing.T, p store.Persistence, driver string) testEnv {
	t.Helper()
	ctx := context.Background()

	timers := store.NewTimerStore(p, nil)
	if err := timers.Load(ctx); err != nil {
		t.Fatalf("load timers: %v", err)
	}
	history := store.NewHistoryLog(p)
	if err := history.Load(ctx); err != nil {
		t.Fatalf("load history: %v", err)
	}
	alerts := testutil.NewRecordingScheduler()
	clock := testutil.NewFakeClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local))

	eng := engine.New(timers, history, alerts, engine.Options{Clock: clock, Driver: driver})
	events, _ := eng.Subscribe(1024)
	t.Cleanup(func() {
		if err := eng.Close(ctx); err != nil {
			t.Errorf("closing engine: %v", err)
		}
	})

	return testEnv{
		Engine:  eng,
		Timers:  timers,
		History: history,
		Alerts:  alerts,
		Clock:   clock,
		Events:  events,
		Ctx:     ctx,
		backlog: new([]engine.Event),
	}
}

func (env testEnv) create(t *testing.T, name string, duration int, halfway bool) model.Timer {
	t.Helper()
	tm, err := env.Engine.CreateTimer(env.Ctx, engine.NewTimer{
		Name:         name,
		Category:     "Study",
		Duration:     duration,
		HalfwayAlert: halfway,
	})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return tm
}

func (env testEnv) get(t *testing.T, id string) model.Timer {
	t.Helper()
	tm, ok := env.Engine.Timer(id)
	if !ok {
		t.Fatalf("timer %s not found", id)
	}
	return tm
}

// waitFor returns the oldest unseen event of type typ for id. Other events
// are kept for later calls.
func (env testEnv) waitFor(t *testing.T, typ engine.EventType, id string) engine.Event {
	t.Helper()
	for i, ev := range *env.backlog {
		if ev.Type == typ && ev.TimerID == id {
			*env.backlog = append((*env.backlog)[:i:i], (*env.backlog)[i+1:]...)
			return ev
		}
	}
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev, ok := <-env.Events:
			if !ok {
				t.Fatalf("event stream closed while waiting for %s on %s", typ, id)
			}
			if ev.Type == typ && ev.TimerID == id {
				return ev
			}
			*env.backlog = append(*env.backlog, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for %s event on %s", typ, id)
		}
	}
}

func fire(t *testing.T, tk *testutil.FakeTicker) {
	t.Helper()
	if tk == nil || !tk.Fire() {
		t.Fatal("ticker is not running")
	}
}

func TestStartThenPauseKeepsRemaining(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Read", 10, false)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := env.get(t, tm.ID); got.Status != model.StatusRunning {
		t.Fatalf("expected Running, got %s", got.Status)
	}
	if err := env.Engine.Pause(env.Ctx, tm.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}

	got := env.get(t, tm.ID)
	if got.Status != model.StatusPaused || got.Remaining != 10 {
		t.Fatalf("expected Paused with 10s, got %s with %d", got.Status, got.Remaining)
	}
	if env.Engine.Active(tm.ID) {
		t.Fatal("expected driver detached after pause")
	}
	if !env.Clock.Last().WaitStopped(waitTimeout) {
		t.Fatal("expected ticker stopped after pause")
	}
}

func TestTimerCompletesAfterExactTicks(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Sprint", 4, false)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	tk := env.Clock.Last()

	for want := 3; want >= 1; want-- {
		fire(t, tk)
		ev := env.waitFor(t, engine.EventTick, tm.ID)
		if ev.Timer.Remaining != want {
			t.Fatalf("remaining = %d, want %d", ev.Timer.Remaining, want)
		}
		if ev.Timer.Status != model.StatusRunning {
			t.Fatalf("expected Running mid-countdown, got %s", ev.Timer.Status)
		}
	}

	fire(t, tk)
	ev := env.waitFor(t, engine.EventCompleted, tm.ID)
	if ev.Timer.Status != model.StatusCompleted || ev.Timer.Remaining != 0 {
		t.Fatalf("unexpected completed state %+v", ev.Timer)
	}

	got := env.get(t, tm.ID)
	if got.Status != model.StatusCompleted || got.Remaining != 0 {
		t.Fatalf("stored timer not completed: %+v", got)
	}
	history := env.History.List()
	if len(history) != 1 || history[0].Name != "Sprint" {
		t.Fatalf("expected exactly one history entry, got %+v", history)
	}
	if history[0].CompletedAt != "2025-01-01 09:00" {
		t.Errorf("unexpected completion time %q", history[0].CompletedAt)
	}

	if !tk.WaitStopped(waitTimeout) {
		t.Fatal("expected per-timer driver to stop after completion")
	}
	if tk.Fire() {
		t.Fatal("stopped ticker accepted a tick")
	}
	if env.Engine.Active(tm.ID) {
		t.Fatal("expected no driver after completion")
	}
	if len(env.History.List()) != 1 {
		t.Fatal("completion must be recorded exactly once")
	}
}

func TestResetCompletedTimer(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Stretch", 30, false)

	done := tm
	done.Remaining = 0
	done.Status = model.StatusCompleted
	if err := env.Timers.Update(env.Ctx, done); err != nil {
		t.Fatalf("seed completed: %v", err)
	}

	if err := env.Engine.Reset(env.Ctx, tm.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got := env.get(t, tm.ID)
	if got.Remaining != 30 || got.Status != model.StatusPaused {
		t.Fatalf("expected {30 Paused}, got {%d %s}", got.Remaining, got.Status)
	}
	if env.History.Len() != 0 {
		t.Fatal("reset must not add history")
	}
}

func TestStartSchedulesAlertsAndPauseCancelsThem(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Focus", 10, true)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	calls := env.Alerts.Scheduled(tm.ID)
	if len(calls) != 2 {
		t.Fatalf("expected 2 schedule requests, got %+v", calls)
	}
	if calls[0].Kind != model.AlertHalfway || calls[0].Delay != 5 {
		t.Errorf("unexpected halfway request %+v", calls[0])
	}
	if calls[1].Kind != model.AlertComplete || calls[1].Delay != 10 {
		t.Errorf("unexpected completion request %+v", calls[1])
	}

	if err := env.Engine.Pause(env.Ctx, tm.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	for _, c := range calls {
		if !env.Alerts.WasCancelled(c.Handle) {
			t.Errorf("%s handle %s was not cancelled", c.Kind, c.Handle)
		}
	}
}

func TestHalfwaySkippedForOneSecondRemaining(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Blink", 1, true)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	calls := env.Alerts.Scheduled(tm.ID)
	if len(calls) != 1 || calls[0].Kind != model.AlertComplete || calls[0].Delay != 1 {
		t.Fatalf("expected only a completion request, got %+v", calls)
	}
}

func TestLongTimerGetsNoCompletionHandle(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Long read", 600, false)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	calls := env.Alerts.Scheduled(tm.ID)
	if len(calls) != 1 || calls[0].Delay != 600 || calls[0].OK {
		t.Fatalf("expected one dropped request, got %+v", calls)
	}
	if !env.Engine.Active(tm.ID) {
		t.Fatal("foreground countdown must run without an alert")
	}

	if err := env.Engine.Pause(env.Ctx, tm.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if n := len(env.Alerts.Cancelled()); n != 0 {
		t.Fatalf("expected no cancellation for a dropped alert, got %d", n)
	}
}

func TestCompletionCancelsOutstandingAlerts(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Quick", 2, true)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	tk := env.Clock.Last()
	fire(t, tk)
	env.waitFor(t, engine.EventTick, tm.ID)
	fire(t, tk)
	env.waitFor(t, engine.EventCompleted, tm.ID)

	for _, c := range env.Alerts.Scheduled(tm.ID) {
		if !env.Alerts.WasCancelled(c.Handle) {
			t.Errorf("%s handle not cancelled on completion", c.Kind)
		}
	}
}

func TestDeleteRunningTimer(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Gone", 10, true)
	keep := env.create(t, "Kept", 10, false)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	tk := env.Clock.Last()
	fire(t, tk)
	env.waitFor(t, engine.EventTick, tm.ID)

	if err := env.Engine.Delete(env.Ctx, tm.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, c := range env.Alerts.Scheduled(tm.ID) {
		if !env.Alerts.WasCancelled(c.Handle) {
			t.Errorf("%s handle not cancelled on delete", c.Kind)
		}
	}
	if _, ok := env.Engine.Timer(tm.ID); ok {
		t.Fatal("deleted timer still listed")
	}
	for _, l := range env.Engine.List() {
		if l.ID == tm.ID {
			t.Fatal("deleted timer still listed")
		}
	}
	if !tk.WaitStopped(waitTimeout) {
		t.Fatal("expected driver stopped after delete")
	}
	if got := env.get(t, keep.ID); got.Remaining != 10 {
		t.Fatalf("unrelated timer changed: %+v", got)
	}

	// Operations on the deleted id are silent no-ops.
	for name, op := range map[string]func(context.Context, string) error{
		"start":  env.Engine.Start,
		"pause":  env.Engine.Pause,
		"reset":  env.Engine.Reset,
		"delete": env.Engine.Delete,
	} {
		if err := op(env.Ctx, tm.ID); err != nil {
			t.Errorf("%s on deleted timer: %v", name, err)
		}
	}
}

func TestStartIsIdempotent(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Once", 10, false)

	for i := 0; i < 3; i++ {
		if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
	}
	if n := env.Engine.DriverCount(); n != 1 {
		t.Fatalf("expected 1 driver, got %d", n)
	}
	if n := len(env.Clock.Tickers()); n != 1 {
		t.Fatalf("expected 1 ticker, got %d", n)
	}
	if n := len(env.Alerts.Scheduled(tm.ID)); n != 1 {
		t.Fatalf("expected 1 schedule request, got %d", n)
	}

	fire(t, env.Clock.Last())
	ev := env.waitFor(t, engine.EventTick, tm.ID)
	if ev.Timer.Remaining != 9 {
		t.Fatalf("expected a single decrement, got remaining %d", ev.Timer.Remaining)
	}
}

func TestStartCompletedIsNoop(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Done", 5, false)

	done := tm
	done.Remaining = 0
	done.Status = model.StatusCompleted
	if err := env.Timers.Update(env.Ctx, done); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if env.Engine.Active(tm.ID) || len(env.Clock.Tickers()) != 0 {
		t.Fatal("a completed timer must not be driven")
	}
	if got := env.get(t, tm.ID); got.Status != model.StatusCompleted {
		t.Fatalf("expected Completed, got %s", got.Status)
	}

	if err := env.Engine.Pause(env.Ctx, tm.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if got := env.get(t, tm.ID); got.Status != model.StatusCompleted || got.Remaining != 0 {
		t.Fatalf("pause must keep a completed timer consistent, got %+v", got)
	}
}

func TestInAppHalfwayEvent(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Half", 4, true)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	tk := env.Clock.Last()
	fire(t, tk)
	env.waitFor(t, engine.EventTick, tm.ID)
	fire(t, tk)
	ev := env.waitFor(t, engine.EventHalfway, tm.ID)
	if ev.Timer.Remaining != 2 {
		t.Fatalf("halfway notice at remaining %d, want 2", ev.Timer.Remaining)
	}
}

func TestResumeSchedulesFromRemaining(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Resume", 10, true)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	tk := env.Clock.Last()
	for i := 0; i < 4; i++ {
		fire(t, tk)
		env.waitFor(t, engine.EventTick, tm.ID)
	}
	if err := env.Engine.Pause(env.Ctx, tm.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}

	calls := env.Alerts.Scheduled(tm.ID)
	if len(calls) != 4 {
		t.Fatalf("expected 4 schedule requests, got %+v", calls)
	}
	if calls[2].Delay != 3 || calls[3].Delay != 6 {
		t.Fatalf("expected delays 3 and 6 after resume, got %d and %d", calls[2].Delay, calls[3].Delay)
	}
}

func TestUpdateRunningTimerPausesFirst(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Edit me", 10, true)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := env.Engine.UpdateTimer(env.Ctx, tm.ID, engine.NewTimer{
		Name:     "Edited",
		Category: "Break",
		Duration: 5,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != model.StatusPaused || got.Remaining != 5 || got.Name != "Edited" || got.Category != "Break" {
		t.Fatalf("unexpected edited timer %+v", got)
	}
	if env.Engine.Active(tm.ID) {
		t.Fatal("edit must detach the driver")
	}
	for _, c := range env.Alerts.Scheduled(tm.ID) {
		if !env.Alerts.WasCancelled(c.Handle) {
			t.Errorf("%s handle not cancelled by edit", c.Kind)
		}
	}
}

func TestUpdateClampsRemaining(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)
	tm := env.create(t, "Clamp", 10, false)

	got, err := env.Engine.UpdateTimer(env.Ctx, tm.ID, engine.NewTimer{Name: "Clamp", Duration: 20})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Remaining != 10 || got.Duration != 20 || got.Category != "Study" {
		t.Fatalf("expected remaining kept at 10 and category kept, got %+v", got)
	}

	done := got
	done.Remaining = 0
	done.Status = model.StatusCompleted
	if err := env.Timers.Update(env.Ctx, done); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err = env.Engine.UpdateTimer(env.Ctx, tm.ID, engine.NewTimer{Name: "Clamp", Duration: 3})
	if err != nil {
		t.Fatalf("update completed: %v", err)
	}
	if got.Remaining != 0 || got.Status != model.StatusCompleted {
		t.Fatalf("completed timer must keep remaining 0, got %+v", got)
	}

	if _, err := env.Engine.UpdateTimer(env.Ctx, tm.ID, engine.NewTimer{Name: "", Duration: 3}); !errors.Is(err, model.ErrInvalidTimer) {
		t.Fatalf("expected ErrInvalidTimer, got %v", err)
	}
}

func TestCreateTimerDefaults(t *testing.T) {
	env := newTestEnv(t, model.DriverPerTimer)

	tm, err := env.Engine.CreateTimer(env.Ctx, engine.NewTimer{Name: " Pushups ", Duration: 45})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tm.ID == "" || tm.Name != "Pushups" || tm.Category != "Workout" {
		t.Fatalf("unexpected defaults %+v", tm)
	}
	if tm.Remaining != 45 || tm.Status != model.StatusPaused {
		t.Fatalf("expected full remaining and Paused, got %+v", tm)
	}

	if _, err := env.Engine.CreateTimer(env.Ctx, engine.NewTimer{Name: "x", Duration: 0}); !errors.Is(err, model.ErrInvalidTimer) {
		t.Fatalf("expected ErrInvalidTimer, got %v", err)
	}
}

func TestStorageFaultDoesNotRollBack(t *testing.T) {
	p := testutil.NewFlakyPersistence(t)
	env := newTestEnvWith(t, p, model.DriverPerTimer)
	tm := env.create(t, "Flaky", 10, false)

	p.FailWrites(true)
	err := env.Engine.Start(env.Ctx, tm.ID)
	if !errors.Is(err, store.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	env.waitFor(t, engine.EventStorageFault, "")
	if got := env.get(t, tm.ID); got.Status != model.StatusRunning {
		t.Fatalf("expected Running despite the fault, got %s", got.Status)
	}
	if !env.Engine.Active(tm.ID) {
		t.Fatal("expected timer to keep running")
	}

	p.FailWrites(false)
	if err := env.Engine.Pause(env.Ctx, tm.ID); err != nil {
		t.Fatalf("pause after recovery: %v", err)
	}
}

func TestTicksPersistInBackground(t *testing.T) {
	p := testutil.NewTestStore(t)
	env := newTestEnvWith(t, p, model.DriverPerTimer)
	tm := env.create(t, "Saved", 10, false)

	if err := env.Engine.Start(env.Ctx, tm.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	tk := env.Clock.Last()
	for i := 0; i < 3; i++ {
		fire(t, tk)
		env.waitFor(t, engine.EventTick, tm.ID)
	}
	if err := env.Engine.Close(env.Ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := env.Engine.Start(env.Ctx, tm.ID); !errors.Is(err, engine.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	reloaded := store.NewTimerStore(p, nil)
	if err := reloaded.Load(env.Ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reloaded.Get(tm.ID)
	if !ok {
		t.Fatal("timer not persisted")
	}
	if got.Remaining != 7 || got.Status != model.StatusPaused {
		t.Fatalf("expected {7 Paused} after restart, got {%d %s}", got.Remaining, got.Status)
	}
}
