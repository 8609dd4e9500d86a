package testutil

import (
	"sync"
	"time"

	"github.com/nhle/countdown/internal/engine"
)

// FakeClock is a manually driven engine.Clock. Tickers only tick when the
// test calls Fire.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*FakeTicker
}

// NewFakeClock returns a clock frozen at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the fake time forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewTicker creates a ticker that never fires on its own.
func (c *FakeClock) NewTicker(time.Duration) engine.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTicker{clock: c, ch: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers = append(c.tickers, t)
	return t
}

// Tickers returns every ticker created so far, in creation order.
func (c *FakeClock) Tickers() []*FakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*FakeTicker(nil), c.tickers...)
}

// Last returns the most recently created ticker, or nil.
func (c *FakeClock) Last() *FakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

// FakeTicker is the ticker returned by FakeClock.
type FakeTicker struct {
	clock    *FakeClock
	ch       chan time.Time
	stopOnce sync.Once
	stopped  chan struct{}
}

func (t *FakeTicker) C() <-chan time.Time { return t.ch }

func (t *FakeTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Fire advances the clock by a second and delivers one tick. It blocks until
// the driver receives the tick and reports false if the ticker was stopped
// first.
func (t *FakeTicker) Fire() bool {
	select {
	case <-t.stopped:
		return false
	default:
	}
	t.clock.Advance(time.Second)
	select {
	case t.ch <- t.clock.Now():
		return true
	case <-t.stopped:
		return false
	}
}

// Stopped reports whether Stop was called.
func (t *FakeTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// WaitStopped waits up to d for Stop to be called.
func (t *FakeTicker) WaitStopped(d time.Duration) bool {
	select {
	case <-t.stopped:
		return true
	case <-time.After(d):
		return false
	}
}
