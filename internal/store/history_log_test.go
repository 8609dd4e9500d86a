package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
	"github.com/nhle/countdown/tests/testutil"
)

func TestHistoryLogAppendPrependsAndPersists(t *testing.T) {
	p := testutil.NewTestStore(t)
	ctx := context.Background()
	h := store.NewHistoryLog(p)

	for _, name := range []string{"first", "second"} {
		if err := h.Append(ctx, model.HistoryEntry{Name: name, CompletedAt: "2025-01-01 10:00"}); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
	}

	reloaded := store.NewHistoryLog(p)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	list := reloaded.List()
	if len(list) != 2 || list[0].Name != "second" || list[1].Name != "first" {
		t.Fatalf("expected most recent first, got %+v", list)
	}
}

func TestHistoryLogClear(t *testing.T) {
	p := testutil.NewTestStore(t)
	ctx := context.Background()
	h := store.NewHistoryLog(p)

	if err := h.Append(ctx, model.HistoryEntry{Name: "x", CompletedAt: "2025-01-01 10:00"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if h.Len() != 0 {
		t.Fatal("expected empty log")
	}
	data, err := p.GetItem(ctx, store.HistoryKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data != nil {
		t.Fatalf("expected history key removed, got %s", data)
	}
}

func TestHistoryLogExport(t *testing.T) {
	h := store.NewHistoryLog(testutil.NewTestStore(t))
	ctx := context.Background()

	if _, err := h.Export(); !errors.Is(err, store.ErrExportEmpty) {
		t.Fatalf("expected ErrExportEmpty, got %v", err)
	}

	entry := model.HistoryEntry{Name: "Plank", CompletedAt: "2025-02-03 07:45"}
	if err := h.Append(ctx, entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	data, err := h.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(data), "\n  {") {
		t.Errorf("expected indented JSON, got %s", data)
	}
	var decoded []model.HistoryEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != entry {
		t.Fatalf("unexpected export %+v", decoded)
	}

	yml, err := h.ExportYAML()
	if err != nil {
		t.Fatalf("export yaml: %v", err)
	}
	if !strings.Contains(string(yml), "completedAt:") || !strings.Contains(string(yml), "2025-02-03 07:45") {
		t.Errorf("unexpected yaml: %s", yml)
	}
}

func TestExportToFileEmptyWritesNothing(t *testing.T) {
	h := store.NewHistoryLog(testutil.NewTestStore(t))
	dir := filepath.Join(t.TempDir(), "out")

	_, err := h.ExportToFile(dir, store.FormatJSON)
	if !errors.Is(err, store.ErrExportEmpty) {
		t.Fatalf("expected ErrExportEmpty, got %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected no export dir to be created, stat err = %v", err)
	}
}

func TestExportToFile(t *testing.T) {
	h := store.NewHistoryLog(testutil.NewTestStore(t))
	ctx := context.Background()
	if err := h.Append(ctx, model.HistoryEntry{Name: "Read", CompletedAt: "2025-02-03 08:00"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	dir := t.TempDir()
	path, err := h.ExportToFile(dir, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "timer_history.json" {
		t.Errorf("unexpected file name %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat export: %v", err)
	}

	if _, err := h.ExportToFile(dir, "csv"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
