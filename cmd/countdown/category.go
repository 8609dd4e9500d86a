package main

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/countdown/internal/app"
)

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Manage categories"}
	cmd.AddCommand(categoryListCmd())
	cmd.AddCommand(categoryAddCmd())
	cmd.AddCommand(categoryRemoveCmd())
	return cmd
}

type categoryRow struct {
	Name    string `json:"name"`
	BuiltIn bool   `json:"builtIn"`
	Timers  int    `json:"timers"`
}

func categoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				counts := make(map[string]int)
				for _, t := range svc.Engine.List() {
					counts[t.Category]++
				}
				var rows []categoryRow
				for _, name := range svc.Timers.ListCategories() {
					rows = append(rows, categoryRow{Name: name, BuiltIn: svc.Timers.IsBuiltIn(name), Timers: counts[name]})
				}
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Name", "Built-in", "Timers"})
				for _, r := range rows {
					builtIn := ""
					if r.BuiltIn {
						builtIn = "yes"
					}
					tw.AppendRow(table.Row{r.Name, builtIn, r.Timers})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func categoryAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				return svc.Timers.AddCategory(ctx, args[0])
			})
		},
	}
}

func categoryRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"delete"},
		Short:   "Delete a user-added category; its timers keep the label",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				return svc.Timers.DeleteCategory(ctx, args[0])
			})
		},
	}
}
