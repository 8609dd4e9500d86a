package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/countdown/internal/app"
	"github.com/nhle/countdown/internal/model"
)

var rootCmd = &cobra.Command{
	Use:   "countdown",
	Short: "Run several countdown timers side by side",
	Long: `countdown keeps named countdown timers grouped by category.
Timers run independently, can alert at the halfway mark and on completion,
and every natural completion is logged to a history you can export.

Start the terminal UI with "countdown tui", or drive timers from scripts
with the timer/category/history commands and the local HTTP API ("serve").`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("COUNTDOWN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("config", model.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().String("db", "", "database path (overrides storage.path)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(timerCmd())
	rootCmd.AddCommand(categoryCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(alertsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(tokenCmd())
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if db := viper.GetString("db"); db != "" {
		cfg.Storage.Path = db
	}
	return cfg, nil
}

// withServices opens the wired core, runs fn and closes it again.
func withServices(ctx context.Context, opts app.Options, fn func(context.Context, *app.Services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.Open(ctx, cfg, opts)
	if err != nil {
		return err
	}
	runErr := fn(ctx, svc)
	if err := svc.Close(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
