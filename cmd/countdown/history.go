package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/countdown/internal/app"
	"github.com/nhle/countdown/internal/store"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "history", Short: "Show, clear or export completed sessions"}
	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyClearCmd())
	cmd.AddCommand(historyExportCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List completed sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				entries := svc.History.List()
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Completed", "Name"})
				for _, e := range entries {
					tw.AppendRow(table.Row{e.CompletedAt, e.Name})
				}
				tw.AppendFooter(table.Row{"", fmt.Sprintf("%d sessions", len(entries))})
				tw.Render()
				return nil
			})
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				return svc.History.Clear(ctx)
			})
		},
	}
}

func historyExportCmd() *cobra.Command {
	var format, dir string
	var stdout bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the history to timer_history.json (or .yaml)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				if format == "" {
					format = svc.Config.Export.Format
				}
				if dir == "" {
					dir = svc.Config.Export.Dir
				}

				if stdout {
					var data []byte
					var err error
					switch format {
					case store.FormatYAML:
						data, err = svc.History.ExportYAML()
					default:
						data, err = svc.History.Export()
					}
					if errors.Is(err, store.ErrExportEmpty) {
						return errors.New("no data to export")
					}
					if err != nil {
						return err
					}
					_, err = os.Stdout.Write(append(data, '\n'))
					return err
				}

				path, err := svc.History.ExportToFile(dir, format)
				if errors.Is(err, store.ErrExportEmpty) {
					return errors.New("no data to export")
				}
				if err != nil {
					return err
				}
				fmt.Println(path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default export.format)")
	cmd.Flags().StringVar(&dir, "dir", "", "target directory (default export.dir)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write to standard output instead of a file")
	return cmd
}
