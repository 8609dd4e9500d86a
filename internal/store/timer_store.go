package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nhle/countdown/internal/model"
)

// TimerStore owns the canonical timer and category collections. Mutations
// are applied in memory and then written through to Persistence as whole
// collections.
type TimerStore struct {
	p        Persistence
	defaults []string

	mu         sync.RWMutex
	timers     []model.Timer
	categories []string
	timerSeq   uint64
	catSeq     uint64

	timersW snapshotWriter
	catsW   snapshotWriter
}

// NewTimerStore creates a store over p. defaults are the built-in categories;
// when empty, model.DefaultCategories is used.
func NewTimerStore(p Persistence, defaults []string) *TimerStore {
	if len(defaults) == 0 {
		defaults = model.DefaultCategories
	}
	return &TimerStore{
		p:          p,
		defaults:   append([]string(nil), defaults...),
		categories: append([]string(nil), defaults...),
		timersW:    snapshotWriter{key: TimersKey},
		catsW:      snapshotWriter{key: CategoriesKey},
	}
}

// Load reads both collections from persistence. Timers saved while Running
// come back Paused with their last saved remaining time. A timer with an
// unknown status or broken invariants fails the load. The merged category
// list is written back.
func (s *TimerStore) Load(ctx context.Context) error {
	var timers []model.Timer
	if _, err := loadJSON(ctx, s.p, TimersKey, &timers); err != nil {
		return err
	}
	for i := range timers {
		if timers[i].Status == model.StatusRunning {
			timers[i].Status = model.StatusPaused
		}
		if err := timers[i].Validate(); err != nil {
			return fmt.Errorf("loading timer %s: %w", timers[i].ID, err)
		}
	}

	var stored []string
	if _, err := loadJSON(ctx, s.p, CategoriesKey, &stored); err != nil {
		return err
	}

	s.mu.Lock()
	s.timers = timers
	s.categories = model.MergeCategories(s.defaults, stored)
	s.mu.Unlock()

	return s.flushCategories(ctx)
}

// List returns a copy of the current timers in stable order.
func (s *TimerStore) List() []model.Timer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Timer{}, s.timers...)
}

// Get returns the timer with the given id.
func (s *TimerStore) Get(id string) (model.Timer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.timers[i], true
	}
	return model.Timer{}, false
}

// Create appends t and persists. It fails with ErrDuplicateID when the id
// is already taken.
func (s *TimerStore) Create(ctx context.Context, t model.Timer) error {
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", model.ErrInvalidTimer)
	}
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.indexOf(t.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	s.timers = append(s.timers, t)
	s.timerSeq++
	s.mu.Unlock()

	return s.Flush(ctx)
}

// Update replaces the timer with t's id and persists. Absent ids are a no-op.
func (s *TimerStore) Update(ctx context.Context, t model.Timer) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, ok := s.Modify(t.ID, func(cur *model.Timer) { *cur = t }); !ok {
		return nil
	}
	return s.Flush(ctx)
}

// Delete removes the timer with id and persists. Absent ids are a no-op.
func (s *TimerStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.timers = append(s.timers[:i:i], s.timers[i+1:]...)
	s.timerSeq++
	s.mu.Unlock()

	return s.Flush(ctx)
}

// Modify applies fn to the stored timer with id in memory only. Callers
// follow up with Flush. It reports false when no such timer exists.
func (s *TimerStore) Modify(id string, fn func(t *model.Timer)) (model.Timer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Timer{}, false
	}
	fn(&s.timers[i])
	s.timerSeq++
	return s.timers[i], true
}

// Flush writes the current timer collection. Concurrent flushes never
// overwrite a newer snapshot with an older one.
func (s *TimerStore) Flush(ctx context.Context) error {
	s.mu.RLock()
	seq := s.timerSeq
	snapshot := append([]model.Timer{}, s.timers...)
	s.mu.RUnlock()

	return s.timersW.write(ctx, s.p, seq, snapshot)
}

// ListCategories returns the category set, built-ins first.
func (s *TimerStore) ListCategories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.categories...)
}

// DefaultCategory is the category given to timers created without one.
func (s *TimerStore) DefaultCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.categories) == 0 {
		return ""
	}
	return s.categories[0]
}

// IsBuiltIn reports whether name is one of the undeletable defaults.
func (s *TimerStore) IsBuiltIn(name string) bool {
	return model.ContainsCategory(s.defaults, name)
}

// AddCategory adds name to the set. Matching is case-sensitive; an existing
// name yields ErrDuplicateCategory and changes nothing.
func (s *TimerStore) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategory
	}

	s.mu.Lock()
	if model.ContainsCategory(s.categories, name) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, name)
	}
	s.categories = append(s.categories, name)
	s.catSeq++
	s.mu.Unlock()

	return s.flushCategories(ctx)
}

// DeleteCategory removes a user-added category. Built-ins yield
// ErrBuiltInCategory; unknown names are a no-op. Timers carrying the label
// are left untouched.
func (s *TimerStore) DeleteCategory(ctx context.Context, name string) error {
	if s.IsBuiltIn(name) {
		return fmt.Errorf("%w: %s", ErrBuiltInCategory, name)
	}

	s.mu.Lock()
	i := -1
	for j, c := range s.categories {
		if c == name {
			i = j
			break
		}
	}
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.categories = append(s.categories[:i:i], s.categories[i+1:]...)
	s.catSeq++
	s.mu.Unlock()

	return s.flushCategories(ctx)
}

func (s *TimerStore) flushCategories(ctx context.Context) error {
	s.mu.RLock()
	seq := s.catSeq
	snapshot := append([]string{}, s.categories...)
	s.mu.RUnlock()

	return s.catsW.write(ctx, s.p, seq, snapshot)
}

// indexOf must be called with s.mu held.
func (s *TimerStore) indexOf(id string) int {
	for i := range s.timers {
		if s.timers[i].ID == id {
			return i
		}
	}
	return -1
}

// IsStorageFault reports whether err came from the persistence layer.
func IsStorageFault(err error) bool {
	return errors.Is(err, ErrStorage)
}
