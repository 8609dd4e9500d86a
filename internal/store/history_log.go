package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nhle/countdown/internal/model"
)

// Export formats accepted by ExportToFile.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExportBaseName is the file name, without extension, used for exports.
const ExportBaseName = "timer_history"

// HistoryLog owns the completed-session records, most recent first.
type HistoryLog struct {
	p Persistence

	mu      sync.RWMutex
	entries []model.HistoryEntry
	seq     uint64

	w snapshotWriter
}

// NewHistoryLog creates an empty log over p. Call Load to read saved entries.
func NewHistoryLog(p Persistence) *HistoryLog {
	return &HistoryLog{p: p, w: snapshotWriter{key: HistoryKey}}
}

// Load reads the saved entries.
func (h *HistoryLog) Load(ctx context.Context) error {
	var entries []model.HistoryEntry
	if _, err := loadJSON(ctx, h.p, HistoryKey, &entries); err != nil {
		return err
	}
	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()
	return nil
}

// Append prepends e and persists the log.
func (h *HistoryLog) Append(ctx context.Context, e model.HistoryEntry) error {
	h.mu.Lock()
	h.entries = append([]model.HistoryEntry{e}, h.entries...)
	h.seq++
	seq := h.seq
	snapshot := append([]model.HistoryEntry(nil), h.entries...)
	h.mu.Unlock()

	return h.w.write(ctx, h.p, seq, snapshot)
}

// List returns a copy of the entries, most recent first.
func (h *HistoryLog) List() []model.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]model.HistoryEntry{}, h.entries...)
}

// Len returns the number of entries.
func (h *HistoryLog) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Clear empties the log and removes the persisted key.
func (h *HistoryLog) Clear(ctx context.Context) error {
	h.mu.Lock()
	h.entries = nil
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	return h.w.remove(ctx, h.p, seq)
}

// Export returns the log as indented JSON. An empty log yields
// ErrExportEmpty.
func (h *HistoryLog) Export() ([]byte, error) {
	entries := h.List()
	if len(entries) == 0 {
		return nil, ErrExportEmpty
	}
	return json.MarshalIndent(entries, "", "  ")
}

// ExportYAML returns the log as a YAML sequence. An empty log yields
// ErrExportEmpty.
func (h *HistoryLog) ExportYAML() ([]byte, error) {
	entries := h.List()
	if len(entries) == 0 {
		return nil, ErrExportEmpty
	}
	return yaml.Marshal(entries)
}

// ExportToFile writes the log to dir/timer_history.<format> and returns the
// path. Nothing is written when the log is empty.
func (h *HistoryLog) ExportToFile(dir, format string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case "", FormatJSON:
		format = FormatJSON
		data, err = h.Export()
	case FormatYAML:
		data, err = h.ExportYAML()
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, ExportBaseName+"."+format)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
