package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Driver strategies for advancing running timers.
const (
	DriverPerTimer = "per_timer"
	DriverShared   = "shared"
)

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// EngineConfig holds countdown engine settings.
type EngineConfig struct {
	// TickIntervalMS is the wall-clock length of one tick in milliseconds.
	TickIntervalMS int `mapstructure:"tick_interval_ms" yaml:"tick_interval_ms"`

	// Driver selects how bulk start advances timers: "per_timer" or "shared".
	Driver string `mapstructure:"driver" yaml:"driver"`
}

// TickInterval returns the configured tick length, defaulting to one second.
func (c EngineConfig) TickInterval() time.Duration {
	if c.TickIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// AlertsConfig controls background alert scheduling.
type AlertsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// MaxDelaySec is the longest delay that is still scheduled; longer
	// requests are skipped.
	MaxDelaySec int `mapstructure:"max_delay_sec" yaml:"max_delay_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme      string `mapstructure:"theme" yaml:"theme"`
	DateFormat string `mapstructure:"date_format" yaml:"date_format"`
}

// ServerConfig holds the loopback control API settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// ExportConfig controls history export.
type ExportConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Format string `mapstructure:"format" yaml:"format"`
}

// CategoriesConfig lists the built-in categories.
type CategoriesConfig struct {
	Defaults []string `mapstructure:"defaults" yaml:"defaults"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine"`
	Alerts     AlertsConfig     `mapstructure:"alerts" yaml:"alerts"`
	Display    DisplayConfig    `mapstructure:"display" yaml:"display"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Export     ExportConfig     `mapstructure:"export" yaml:"export"`
	Categories CategoriesConfig `mapstructure:"categories" yaml:"categories"`
}

// configDir returns ~/.config/countdown, falling back to the working
// directory when the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "countdown")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/countdown/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultDBPath returns the default SQLite database location.
func DefaultDBPath() string {
	return filepath.Join(configDir(), "countdown.db")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{Path: DefaultDBPath()},
		Engine: EngineConfig{
			TickIntervalMS: 1000,
			Driver:         DriverPerTimer,
		},
		Alerts: AlertsConfig{
			Enabled:     true,
			MaxDelaySec: 500,
		},
		Display: DisplayConfig{
			Theme:      "default",
			DateFormat: CompletedAtLayout,
		},
		Server: ServerConfig{Addr: "127.0.0.1:7788"},
		Export: ExportConfig{
			Dir:    os.TempDir(),
			Format: "json",
		},
		Categories: CategoriesConfig{
			Defaults: append([]string(nil), DefaultCategories...),
		},
	}
}

// setDefaults registers every default on v so missing keys resolve.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("engine.tick_interval_ms", d.Engine.TickIntervalMS)
	v.SetDefault("engine.driver", d.Engine.Driver)
	v.SetDefault("alerts.enabled", d.Alerts.Enabled)
	v.SetDefault("alerts.max_delay_sec", d.Alerts.MaxDelaySec)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.date_format", d.Display.DateFormat)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("categories.defaults", d.Categories.Defaults)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return DefaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *AppConfig) Validate() error {
	switch c.Engine.Driver {
	case DriverPerTimer, DriverShared:
	default:
		return fmt.Errorf("engine.driver must be %q or %q, got %q", DriverPerTimer, DriverShared, c.Engine.Driver)
	}
	if c.Alerts.MaxDelaySec < 0 {
		return fmt.Errorf("alerts.max_delay_sec must not be negative")
	}
	switch c.Export.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("export.format must be json or yaml, got %q", c.Export.Format)
	}
	if len(c.Categories.Defaults) == 0 {
		return fmt.Errorf("categories.defaults must list at least one category")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("engine", cfg.Engine)
	v.Set("alerts", cfg.Alerts)
	v.Set("display", cfg.Display)
	v.Set("server", cfg.Server)
	v.Set("export", cfg.Export)
	v.Set("categories", cfg.Categories)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
