package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
	"github.com/nhle/countdown/tests/testutil"
)

func newTimer(id string, duration int) model.Timer {
	return model.Timer{
		ID:        id,
		Name:      "Timer " + id,
		Category:  "Study",
		Duration:  duration,
		Remaining: duration,
		Status:    model.StatusPaused,
	}
}

func TestTimerStoreCRUDPersists(t *testing.T) {
	p := testutil.NewTestStore(t)
	ctx := context.Background()

	s := store.NewTimerStore(p, nil)
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := s.Create(ctx, newTimer("a", 60)); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := s.Create(ctx, newTimer("b", 30)); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if err := s.Create(ctx, newTimer("a", 10)); !errors.Is(err, store.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	updated := newTimer("a", 60)
	updated.Name = "Renamed"
	if err := s.Update(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Update(ctx, newTimer("ghost", 5)); err != nil {
		t.Fatalf("update absent should be a no-op: %v", err)
	}
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete absent should be a no-op: %v", err)
	}

	reloaded := store.NewTimerStore(p, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	list := reloaded.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 timer after reload, got %d", len(list))
	}
	if list[0].ID != "a" || list[0].Name != "Renamed" {
		t.Errorf("unexpected timer after reload: %+v", list[0])
	}
}

func TestTimerStoreRejectsInvalid(t *testing.T) {
	s := store.NewTimerStore(testutil.NewTestStore(t), nil)
	ctx := context.Background()

	bad := newTimer("x", 10)
	bad.Name = "  "
	if err := s.Create(ctx, bad); !errors.Is(err, model.ErrInvalidTimer) {
		t.Fatalf("expected ErrInvalidTimer for blank name, got %v", err)
	}
	bad = newTimer("x", 0)
	if err := s.Create(ctx, bad); !errors.Is(err, model.ErrInvalidTimer) {
		t.Fatalf("expected ErrInvalidTimer for zero duration, got %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatal("invalid timers must not be stored")
	}
}

func TestTimerStoreLoadNormalisesRunning(t *testing.T) {
	p := testutil.NewTestStore(t)
	ctx := context.Background()

	data := `[{"id":"r","name":"Run","category":"Workout","duration":60,"remaining":42,"status":"Running"}]`
	if err := p.SetItem(ctx, store.TimersKey, []byte(data)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := store.NewTimerStore(p, nil)
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := s.Get("r")
	if !ok {
		t.Fatal("timer not loaded")
	}
	if got.Status != model.StatusPaused || got.Remaining != 42 {
		t.Fatalf("expected Paused with 42s left, got %s with %d", got.Status, got.Remaining)
	}
}

func TestTimerStoreLoadRejectsUnknownStatus(t *testing.T) {
	p := testutil.NewTestStore(t)
	ctx := context.Background()

	data := `[{"id":"r","name":"Run","category":"Workout","duration":60,"remaining":42,"status":"Sleeping"}]`
	if err := p.SetItem(ctx, store.TimersKey, []byte(data)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := store.NewTimerStore(p, nil).Load(ctx)
	if !errors.Is(err, model.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestTimerStoreCategories(t *testing.T) {
	p := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := p.SetItem(ctx, store.CategoriesKey, []byte(`["Reading","Study"]`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := store.NewTimerStore(p, nil)
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []string{"Workout", "Study", "Break", "Reading"}
	assertCategories(t, s.ListCategories(), want)

	if err := s.AddCategory(ctx, "Workout"); !errors.Is(err, store.ErrDuplicateCategory) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := s.AddCategory(ctx, "workout"); err != nil {
		t.Fatalf("case-sensitive add: %v", err)
	}
	if err := s.AddCategory(ctx, " "); !errors.Is(err, store.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
	if err := s.DeleteCategory(ctx, "Break"); !errors.Is(err, store.ErrBuiltInCategory) {
		t.Fatalf("expected ErrBuiltInCategory, got %v", err)
	}
	if err := s.DeleteCategory(ctx, "Reading"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteCategory(ctx, "Nope"); err != nil {
		t.Fatalf("delete unknown should be a no-op: %v", err)
	}

	reloaded := store.NewTimerStore(p, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	assertCategories(t, reloaded.ListCategories(), []string{"Workout", "Study", "Break", "workout"})
}

func TestDeleteCategoryKeepsTimers(t *testing.T) {
	s := store.NewTimerStore(testutil.NewTestStore(t), nil)
	ctx := context.Background()

	if err := s.AddCategory(ctx, "Yoga"); err != nil {
		t.Fatalf("add: %v", err)
	}
	tm := newTimer("y", 30)
	tm.Category = "Yoga"
	if err := s.Create(ctx, tm); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteCategory(ctx, "Yoga"); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, ok := s.Get("y")
	if !ok || got.Category != "Yoga" {
		t.Fatalf("timer should keep its orphaned label, got %+v", got)
	}
	groups := model.GroupByCategory(s.List(), s.ListCategories())
	if len(groups) != 1 || groups[0].Name != "Yoga" || groups[0].Known {
		t.Fatalf("expected one orphaned group, got %+v", groups)
	}
}

func TestTimerStoreStorageFault(t *testing.T) {
	p := testutil.NewFlakyPersistence(t)
	ctx := context.Background()
	s := store.NewTimerStore(p, nil)

	p.FailWrites(true)
	err := s.Create(ctx, newTimer("a", 10))
	if !errors.Is(err, store.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if _, ok := s.Get("a"); !ok {
		t.Fatal("in-memory state must not be rolled back on storage fault")
	}

	p.FailWrites(false)
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush after recovery: %v", err)
	}
	reloaded := store.NewTimerStore(p, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.List()) != 1 {
		t.Fatal("expected the next successful write to catch up")
	}
}

func assertCategories(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("categories = %v, want %v", got, want)
		}
	}
}
