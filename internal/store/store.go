package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nhle/countdown/internal/model"
)

// Keys of the three persisted collections. Each holds a flat JSON array.
const (
	TimersKey     = "timers_list"
	CategoriesKey = "timer_categories"
	HistoryKey    = "timer_history"
)

var (
	// ErrStorage wraps every failure of the underlying persistence layer.
	ErrStorage = errors.New("storage fault")

	// ErrDuplicateID is returned when creating a timer whose ID exists.
	ErrDuplicateID = errors.New("timer id already exists")

	// ErrDuplicateCategory is returned when adding a category that exists.
	ErrDuplicateCategory = errors.New("category already exists")

	// ErrBuiltInCategory is returned when deleting a built-in category.
	ErrBuiltInCategory = errors.New("built-in categories cannot be deleted")

	// ErrExportEmpty is returned when exporting an empty history.
	ErrExportEmpty = errors.New("no history to export")

	// ErrEmptyCategory is returned when adding a blank category name.
	ErrEmptyCategory = errors.New("category name is required")
)

// Persistence is a key-value store of JSON documents. GetItem returns nil
// data and a nil error when the key is absent.
type Persistence interface {
	GetItem(ctx context.Context, key string) ([]byte, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
}

// Inbox records delivered alerts.
type Inbox interface {
	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	GetNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// loadJSON decodes the document under key into v. found is false when the
// key holds nothing.
func loadJSON(ctx context.Context, p Persistence, key string, v any) (found bool, err error) {
	data, err := p.GetItem(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: reading %s: %w", ErrStorage, key, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// snapshotWriter serialises whole-collection writes for one key and drops
// snapshots older than one already written.
type snapshotWriter struct {
	key     string
	mu      sync.Mutex
	written uint64
}

func (w *snapshotWriter) write(ctx context.Context, p Persistence, seq uint64, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if seq != 0 && seq <= w.written {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", w.key, err)
	}
	if err := p.SetItem(ctx, w.key, data); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrStorage, w.key, err)
	}
	if seq > w.written {
		w.written = seq
	}
	return nil
}

func (w *snapshotWriter) remove(ctx context.Context, p Persistence, seq uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if seq != 0 && seq <= w.written {
		return nil
	}
	if err := p.RemoveItem(ctx, w.key); err != nil {
		return fmt.Errorf("%w: removing %s: %w", ErrStorage, w.key, err)
	}
	if seq > w.written {
		w.written = seq
	}
	return nil
}
