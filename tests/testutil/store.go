package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nhle/countdown/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// ErrInjected is returned by FlakyPersistence while failing.
var ErrInjected = errors.New("injected storage failure")

// FlakyPersistence wraps a Persistence and can be switched to fail writes.
// It also counts the writes that reached the underlying store.
type FlakyPersistence struct {
	store.Persistence

	mu         sync.Mutex
	failWrites bool
	writes     map[string]int
}

// NewFlakyPersistence wraps an in-memory SQLite store.
func NewFlakyPersistence(t *testing.T) *FlakyPersistence {
	t.Helper()
	return &FlakyPersistence{Persistence: NewTestStore(t), writes: make(map[string]int)}
}

// FailWrites toggles write failures.
func (f *FlakyPersistence) FailWrites(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = fail
}

// Writes returns how many SetItem/RemoveItem calls succeeded for key.
func (f *FlakyPersistence) Writes(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[key]
}

func (f *FlakyPersistence) SetItem(ctx context.Context, key string, value []byte) error {
	if err := f.check(key); err != nil {
		return err
	}
	return f.Persistence.SetItem(ctx, key, value)
}

func (f *FlakyPersistence) RemoveItem(ctx context.Context, key string) error {
	if err := f.check(key); err != nil {
		return err
	}
	return f.Persistence.RemoveItem(ctx, key)
}

func (f *FlakyPersistence) check(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return ErrInjected
	}
	f.writes[key]++
	return nil
}
