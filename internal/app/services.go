package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/countdown/internal/alert"
	"github.com/nhle/countdown/internal/engine"
	"github.com/nhle/countdown/internal/model"
	"github.com/nhle/countdown/internal/store"
)

// Services is the wired core shared by the TUI, the CLI and the HTTP API.
type Services struct {
	Config  *model.AppConfig
	DB      *store.SQLiteStore
	Timers  *store.TimerStore
	History *store.HistoryLog
	Engine  *engine.Engine

	scheduler *alert.LocalScheduler
}

// Options tweaks Open for callers that need more than the config.
type Options struct {
	// Sinks receive fired alerts in addition to the inbox and the log.
	Sinks []alert.Sink

	// Clock overrides the engine clock.
	Clock engine.Clock
}

// Open opens the database named by cfg, loads the timer store and history
// log, and starts an engine over them. A stored timer with an unknown
// status fails the load.
func Open(ctx context.Context, cfg *model.AppConfig, opts Options) (*Services, error) {
	path := cfg.Storage.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}

	timers := store.NewTimerStore(db, cfg.Categories.Defaults)
	if err := timers.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading timers: %w", err)
	}
	history := store.NewHistoryLog(db)
	if err := history.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading history: %w", err)
	}

	s := &Services{
		Config:  cfg,
		DB:      db,
		Timers:  timers,
		History: history,
	}

	var scheduler alert.Scheduler = alert.Disabled{}
	if cfg.Alerts.Enabled {
		sinks := append([]alert.Sink{alert.InboxSink(db), alert.LogSink()}, opts.Sinks...)
		s.scheduler = alert.NewLocalScheduler(cfg.Alerts.MaxDelaySec, sinks...)
		scheduler = s.scheduler
	}

	s.Engine = engine.New(timers, history, scheduler, engine.Options{
		Clock:        opts.Clock,
		TickInterval: cfg.Engine.TickInterval(),
		Driver:       cfg.Engine.Driver,
		DateLayout:   cfg.Display.DateFormat,
	})
	return s, nil
}

// Close stops the engine, drops pending alerts and closes the database.
func (s *Services) Close(ctx context.Context) error {
	err := s.Engine.Close(ctx)
	if s.scheduler != nil {
		s.scheduler.Close()
	}
	return errors.Join(err, s.DB.Close())
}
