package engine

import "github.com/nhle/countdown/internal/model"

// EventType identifies what happened to a timer.
type EventType int

const (
	// EventTick follows every one-second decrement.
	EventTick EventType = iota
	// EventHalfway is the in-app notice when a timer with HalfwayAlert
	// ticks down to half its duration.
	EventHalfway
	// EventCompleted is emitted once per natural completion, after the
	// history entry was appended.
	EventCompleted
	// EventStateChange follows start, pause, reset, edit and delete.
	EventStateChange
	// EventStorageFault reports a failed background write.
	EventStorageFault
)

func (t EventType) String() string {
	switch t {
	case EventTick:
		return "tick"
	case EventHalfway:
		return "halfway"
	case EventCompleted:
		return "completed"
	case EventStateChange:
		return "state"
	case EventStorageFault:
		return "storage-fault"
	}
	return "unknown"
}

// Event describes a change made by the engine. Timer is the state right
// after the change; it is zero for deletions.
type Event struct {
	Type    EventType
	TimerID string
	Timer   model.Timer
	Err     error
}

// Subscribe returns a channel receiving engine events. Sends never block:
// events are dropped for a subscriber whose buffer is full. The returned
// function unsubscribes and closes the channel.
func (e *Engine) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	e.subsMu.Lock()
	if e.subsClosed {
		close(ch)
		e.subsMu.Unlock()
		return ch, func() {}
	}
	e.subs[ch] = struct{}{}
	e.subsMu.Unlock()

	return ch, func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}
}

func (e *Engine) emit(ev Event) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (e *Engine) closeSubscribers() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for ch := range e.subs {
		close(ch)
		delete(e.subs, ch)
	}
	e.subsClosed = true
}
