package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/countdown/internal/alert"
	"github.com/nhle/countdown/internal/app"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Logging goes to a file so it never draws over the UI.
			logDir := filepath.Dir(viper.GetString("config"))
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				return fmt.Errorf("creating log directory: %w", err)
			}
			logFile, err := tea.LogToFile(filepath.Join(logDir, "countdown.log"), "countdown")
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer logFile.Close()

			notifier := &app.Notifier{}
			svc, err := app.Open(cmd.Context(), cfg, app.Options{
				Sinks: []alert.Sink{app.AlertSink(notifier.Send)},
			})
			if err != nil {
				return err
			}

			m := app.New(svc)
			p := tea.NewProgram(m, tea.WithAltScreen())
			notifier.Attach(p)

			_, runErr := p.Run()
			m.Close()
			return errors.Join(runErr, svc.Close(context.Background()))
		},
	}
}
