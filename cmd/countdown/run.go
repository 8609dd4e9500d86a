package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/countdown/internal/app"
	"github.com/nhle/countdown/internal/engine"
	"github.com/nhle/countdown/internal/model"
)

func runCmd() *cobra.Command {
	var category string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "run [id...]",
		Short: "Run timers in the foreground until they complete",
		Long: `Starts the given timers (or every eligible timer in --category) and
prints their progress until all of them complete. Ctrl-C pauses whatever is
still running and exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && category == "" {
				return fmt.Errorf("pass timer ids or --category")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withServices(ctx, app.Options{}, func(ctx context.Context, svc *app.Services) error {
				events, unsubscribe := svc.Engine.Subscribe(256)
				defer unsubscribe()

				waiting, err := startForRun(svc.Engine, category, args)
				if err != nil {
					return err
				}
				if len(waiting) == 0 {
					fmt.Println("nothing to run")
					return nil
				}
				return watch(ctx, svc.Engine, events, waiting, quiet)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "start every eligible timer in this category")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print halfway and completion notices")
	return cmd
}

// startForRun starts the requested timers and returns the ids now running.
func startForRun(e *engine.Engine, category string, ids []string) (map[string]bool, error) {
	ctx := context.Background()
	if category != "" {
		if err := e.StartAllInCategory(ctx, category); err != nil {
			return nil, err
		}
	}
	for _, id := range ids {
		if err := e.Start(ctx, id); err != nil {
			return nil, err
		}
	}

	waiting := make(map[string]bool)
	for _, t := range e.List() {
		if t.Status != model.StatusRunning {
			continue
		}
		if t.Category == category {
			waiting[t.ID] = true
		}
		for _, id := range ids {
			if t.ID == id {
				waiting[t.ID] = true
			}
		}
	}
	return waiting, nil
}

// watch prints events for the waiting timers until none is running.
func watch(ctx context.Context, e *engine.Engine, events <-chan engine.Event, waiting map[string]bool, quiet bool) error {
	// Events can be dropped under load; the poll notices completions anyway.
	poll := time.NewTicker(time.Second)
	defer poll.Stop()

	for len(waiting) > 0 {
		select {
		case <-ctx.Done():
			fmt.Println("\ninterrupted: pausing running timers")
			return e.PauseAll(context.Background())

		case <-poll.C:
			prune(e, waiting)

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !waiting[ev.TimerID] && ev.Type != engine.EventStorageFault {
				continue
			}
			switch ev.Type {
			case engine.EventTick:
				if !quiet {
					fmt.Printf("%-24s %s\n", ev.Timer.Name, model.FormatClock(ev.Timer.Remaining))
				}
			case engine.EventHalfway:
				fmt.Printf("%s is halfway done!\n", ev.Timer.Name)
			case engine.EventCompleted:
				fmt.Printf("%s is complete!\n", ev.Timer.Name)
				delete(waiting, ev.TimerID)
			case engine.EventStateChange:
				prune(e, waiting)
			case engine.EventStorageFault:
				log.Printf("run: %v", ev.Err)
			}
		}
	}
	return nil
}

// prune drops timers that are no longer running.
func prune(e *engine.Engine, waiting map[string]bool) {
	for id := range waiting {
		if t, ok := e.Timer(id); !ok || t.Status != model.StatusRunning {
			delete(waiting, id)
		}
	}
}
