package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/countdown/internal/app"
	"github.com/nhle/countdown/internal/credential"
	"github.com/nhle/countdown/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string
	var rotate, noAuth bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local HTTP control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var token string
			if !noAuth {
				var err error
				if rotate {
					token, err = credential.RotateAPIToken()
				} else {
					token, err = credential.APIToken()
				}
				if err != nil {
					return err
				}
			}

			return withServices(ctx, app.Options{}, func(ctx context.Context, svc *app.Services) error {
				if addr == "" {
					addr = svc.Config.Server.Addr
				}
				handler, err := server.New(server.Config{
					Engine:       svc.Engine,
					Timers:       svc.Timers,
					History:      svc.History,
					Inbox:        svc.DB,
					Token:        token,
					ExportFormat: svc.Config.Export.Format,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "serving http://%s\n", addr)
				if token != "" {
					fmt.Fprintf(os.Stderr, "Authorization: Bearer %s\n", token)
				}
				return server.ListenAndServe(ctx, addr, handler)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().BoolVar(&rotate, "rotate-token", false, "replace the stored API token before serving")
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "serve without bearer authentication")
	return cmd
}
