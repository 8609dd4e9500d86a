package main

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/countdown/internal/app"
	"github.com/nhle/countdown/internal/model"
)

func alertsCmd() *cobra.Command {
	var unread, readAll bool
	var limit int
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List delivered alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), app.Options{}, func(ctx context.Context, svc *app.Services) error {
				var ns []model.Notification
				var err error
				if unread {
					ns, err = svc.DB.GetUnreadNotifications(ctx)
				} else {
					ns, err = svc.DB.GetNotifications(ctx, limit)
				}
				if err != nil {
					return err
				}

				if viper.GetBool("json") {
					if err := printJSON(ns); err != nil {
						return err
					}
				} else {
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"Delivered", "Kind", "Message", "Read"})
					for _, n := range ns {
						read := ""
						if n.Read {
							read = "yes"
						}
						tw.AppendRow(table.Row{n.CreatedAt.Local().Format(svc.Config.Display.DateFormat), n.Kind, n.Message, read})
					}
					tw.Render()
				}

				if readAll {
					return svc.DB.MarkAllNotificationsRead(ctx)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread alerts")
	cmd.Flags().BoolVar(&readAll, "read-all", false, "mark every alert read after listing")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum alerts to list")
	return cmd
}
