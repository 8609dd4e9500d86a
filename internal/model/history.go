package model

import "time"

// CompletedAtLayout is the default local timestamp format for history entries.
const CompletedAtLayout = "2006-01-02 15:04"

// HistoryEntry records one naturally completed countdown session.
type HistoryEntry struct {
	Name        string `json:"name" yaml:"name"`
	CompletedAt string `json:"completedAt" yaml:"completedAt"`
}

// NewHistoryEntry stamps name with the local time at, formatted with layout.
// An empty layout falls back to CompletedAtLayout.
func NewHistoryEntry(name string, at time.Time, layout string) HistoryEntry {
	if layout == "" {
		layout = CompletedAtLayout
	}
	return HistoryEntry{
		Name:        name,
		CompletedAt: at.Local().Format(layout),
	}
}
