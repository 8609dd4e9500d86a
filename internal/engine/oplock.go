package engine

import "sync"

// opLocks serialises control operations per timer id.
type opLocks struct {
	mu    sync.Mutex
	locks map[string]*opLock
}

type opLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until id is free and returns the matching unlock.
func (o *opLocks) lock(id string) func() {
	o.mu.Lock()
	if o.locks == nil {
		o.locks = make(map[string]*opLock)
	}
	l, ok := o.locks[id]
	if !ok {
		l = &opLock{}
		o.locks[id] = l
	}
	l.refs++
	o.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		o.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(o.locks, id)
		}
		o.mu.Unlock()
	}
}
