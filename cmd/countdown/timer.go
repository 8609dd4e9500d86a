package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/countdown/internal/app"
	"github.com/nhle/countdown/internal/engine"
	"github.com/nhle/countdown/internal/model"
)

func timerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "timer", Short: "Manage timers"}
	cmd.AddCommand(timerListCmd())
	cmd.AddCommand(timerAddCmd())
	cmd.AddCommand(timerEditCmd())
	cmd.AddCommand(timerRemoveCmd())
	cmd.AddCommand(timerResetCmd())
	return cmd
}

func timerListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List timers grouped by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				timers := svc.Engine.List()
				if category != "" {
					filtered := timers[:0:0]
					for _, t := range timers {
						if t.Category == category {
							filtered = append(filtered, t)
						}
					}
					timers = filtered
				}
				if viper.GetBool("json") {
					return printJSON(timers)
				}
				printTimers(timers, svc.Timers.ListCategories())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only timers in this category")
	return cmd
}

func printTimers(timers []model.Timer, categories []string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Category", "ID", "Name", "Remaining", "Duration", "Status", "Halfway"})
	for _, g := range model.GroupByCategory(timers, categories) {
		label := g.Name
		if !g.Known {
			label += " (deleted)"
		}
		for _, t := range g.Timers {
			halfway := ""
			if t.HalfwayAlert {
				halfway = "yes"
			}
			tw.AppendRow(table.Row{
				label, t.ID, t.Name,
				model.FormatClock(t.Remaining), model.FormatClock(t.Duration),
				t.Status, halfway,
			})
		}
		tw.AppendSeparator()
	}
	tw.Render()
}

// timerFlags binds the editable timer fields shared by add and edit.
type timerFlags struct {
	name     string
	category string
	duration string
	halfway  bool
}

func (f *timerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "timer name")
	cmd.Flags().StringVar(&f.category, "category", "", "category (defaults to the first one)")
	cmd.Flags().StringVar(&f.duration, "duration", "", "duration in seconds")
	cmd.Flags().BoolVar(&f.halfway, "halfway-alert", false, "alert at the halfway mark")
}

// toNewTimer validates the flags as the form would.
func (f timerFlags) toNewTimer() (engine.NewTimer, error) {
	d, err := model.ParseDurationSeconds(f.duration)
	if err != nil {
		return engine.NewTimer{}, err
	}
	n := engine.NewTimer{Name: f.name, Category: f.category, Duration: d, HalfwayAlert: f.halfway}
	return n, n.Validate()
}

func timerAddCmd() *cobra.Command {
	var f timerFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a paused timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := f.toNewTimer()
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				t, err := svc.Engine.CreateTimer(ctx, n)
				if err != nil {
					return err
				}
				return printTimer(t)
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func timerEditCmd() *cobra.Command {
	var f timerFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a timer; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				cur, ok := svc.Engine.Timer(args[0])
				if !ok {
					return fmt.Errorf("timer %s not found", args[0])
				}
				if !cmd.Flags().Changed("name") {
					f.name = cur.Name
				}
				if !cmd.Flags().Changed("category") {
					f.category = cur.Category
				}
				if !cmd.Flags().Changed("duration") {
					f.duration = fmt.Sprint(cur.Duration)
				}
				if !cmd.Flags().Changed("halfway-alert") {
					f.halfway = cur.HalfwayAlert
				}
				n, err := f.toNewTimer()
				if err != nil {
					return err
				}
				t, err := svc.Engine.UpdateTimer(ctx, cur.ID, n)
				if err != nil {
					return err
				}
				return printTimer(t)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func timerRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a timer",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				return svc.Engine.Delete(ctx, args[0])
			})
		},
	}
}

func timerResetCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "reset [id]",
		Short: "Reset a timer, or every timer in --category, to its full duration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (category == "") {
				return fmt.Errorf("pass either a timer id or --category")
			}
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				if category != "" {
					return svc.Engine.ResetAllInCategory(ctx, category)
				}
				return svc.Engine.Reset(ctx, args[0])
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "reset every timer in this category")
	return cmd
}

func printTimer(t model.Timer) error {
	if viper.GetBool("json") {
		return printJSON(t)
	}
	printTimers([]model.Timer{t}, []string{t.Category})
	return nil
}
