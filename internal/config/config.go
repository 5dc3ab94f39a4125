package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xtding233/pokeslots-stats/internal/slotlog"
)

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	SlotLog  SlotLogConfig  `mapstructure:"slotlog"`
	Simulate SimulateConfig `mapstructure:"simulate"`
	Server   ServerConfig   `mapstructure:"server"`
	Results  ResultsConfig  `mapstructure:"results"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlotLogConfig describes how the bot formats roll messages
type SlotLogConfig struct {
	BotName      string   `mapstructure:"bot_name"`
	ExcludedMode string   `mapstructure:"excluded_mode"`
	WinMarkers   []string `mapstructure:"win_markers"`
	Interceptor  string   `mapstructure:"interceptor_marker"`
	ShinyMarker  string   `mapstructure:"shiny_marker"`
}

// SimulateConfig holds simulation defaults; CLI flags override them
type SimulateConfig struct {
	Seed         uint64 `mapstructure:"seed"`
	Cases        int    `mapstructure:"cases"`
	RollsPerCase int    `mapstructure:"rolls"`
	Autorelease  bool   `mapstructure:"autorelease"`
}

// ServerConfig holds the RPC server configuration
type ServerConfig struct {
	GRPCAddr          string        `mapstructure:"grpc_addr"`
	MetricsAddr       string        `mapstructure:"metrics_addr"`
	CatalogFile       string        `mapstructure:"catalog_file"`
	ProbabilitiesFile string        `mapstructure:"probabilities_file"`
	ScenarioDir       string        `mapstructure:"scenario_dir"`
	WatchInterval     time.Duration `mapstructure:"watch_interval"`
	MaxRolls          int           `mapstructure:"max_rolls"`
}

// ResultsConfig holds the simulation results store configuration
type ResultsConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// Markers converts the slotlog section into parser markers.
func (c SlotLogConfig) Markers() slotlog.Markers {
	return slotlog.Markers{
		BotName:      c.BotName,
		ExcludedMode: c.ExcludedMode,
		Win:          append([]string(nil), c.WinMarkers...),
		Interceptor:  c.Interceptor,
		Shiny:        c.ShinyMarker,
	}
}

// Load reads configuration from an optional file and POKESLOTS_* environment
// variables. An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("POKESLOTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	m := slotlog.DefaultMarkers()
	v.SetDefault("slotlog.bot_name", m.BotName)
	v.SetDefault("slotlog.excluded_mode", m.ExcludedMode)
	v.SetDefault("slotlog.win_markers", m.Win)
	v.SetDefault("slotlog.interceptor_marker", m.Interceptor)
	v.SetDefault("slotlog.shiny_marker", m.Shiny)

	v.SetDefault("simulate.seed", 42)
	v.SetDefault("simulate.cases", 1)
	v.SetDefault("simulate.rolls", 10)
	v.SetDefault("simulate.autorelease", false)

	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.metrics_addr", ":9091")
	v.SetDefault("server.catalog_file", "data/pokemon.csv")
	v.SetDefault("server.probabilities_file", "data/probabilities.json")
	v.SetDefault("server.scenario_dir", "")
	v.SetDefault("server.watch_interval", "5s")
	v.SetDefault("server.max_rolls", 100000)

	v.SetDefault("results.db_path", "")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	var errs []string

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if c.SlotLog.BotName == "" {
		errs = append(errs, "slotlog.bot_name is required")
	}
	if len(c.SlotLog.WinMarkers) == 0 {
		errs = append(errs, "slotlog.win_markers must contain at least one marker")
	}
	if c.SlotLog.Interceptor == "" {
		errs = append(errs, "slotlog.interceptor_marker is required")
	}

	if c.Simulate.Cases < 0 {
		errs = append(errs, "simulate.cases must be >= 0")
	}
	if c.Simulate.RollsPerCase < 0 {
		errs = append(errs, "simulate.rolls must be >= 0")
	}

	if c.Server.WatchInterval < 100*time.Millisecond {
		errs = append(errs, "server.watch_interval must be at least 100ms")
	}
	if c.Server.MaxRolls < 1 {
		errs = append(errs, "server.max_rolls must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
