// Package config provides configuration management for perfmodel.
//
// The config file holds defaults for the CLI; flags override it. A missing
// file is not an error: DefaultConfig applies.
//
// Config file locations (priority order):
//  1. $PERFMODEL_CONFIG
//  2. ./perfmodel.yaml
//  3. $XDG_CONFIG_HOME/perfmodel/config.yaml
//  4. ~/.config/perfmodel/config.yaml
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/perfmodel/internal/model"
)

// Config is the perfmodel configuration file.
type Config struct {
	Version    int              `yaml:"version"`
	Database   DatabaseConfig   `yaml:"database"`
	Scenario   ScenarioConfig   `yaml:"scenario"`
	Merge      MergeConfig      `yaml:"merge"`
	Log        LogConfig        `yaml:"log"`
	Validation ValidationConfig `yaml:"validation"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ScenarioConfig struct {
	// Default is the scenario traces are merged into when no -s flag is
	// given.
	Default string `yaml:"default"`
}

type MergeConfig struct {
	// ClampZeroEntry raises a zero entry net time to 1ns. Nil means on.
	ClampZeroEntry *bool `yaml:"clamp_zero_entry,omitempty"`

	// ArrivalRateScale is the number of fractional digits of arrival rates.
	ArrivalRateScale int32 `yaml:"arrival_rate_scale"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

type ValidationConfig struct {
	// Enabled runs the model validator on open and before save. Nil means on.
	Enabled *bool `yaml:"enabled,omitempty"`
}

const (
	defaultDatabasePath = "./perfmodel.db"
	defaultScenario     = "default"
	defaultLogLevel     = "info"
)

// Load finds and loads the config file, or returns defaults if none found.
// The returned path is empty when defaults are used.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Scenario.Default == "" {
		c.Scenario.Default = defaultScenario
	}
	if c.Merge.ClampZeroEntry == nil {
		c.Merge.ClampZeroEntry = boolPtr(true)
	}
	if c.Merge.ArrivalRateScale == 0 {
		c.Merge.ArrivalRateScale = model.DefaultRateScale
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Validation.Enabled == nil {
		c.Validation.Enabled = boolPtr(true)
	}
}

// Validate rejects values no command can run with.
func (c *Config) Validate() error {
	if c.Merge.ArrivalRateScale < 0 || c.Merge.ArrivalRateScale > 100 {
		return fmt.Errorf("config: merge.arrival_rate_scale %d out of range [0, 100]", c.Merge.ArrivalRateScale)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ClampZeroEntry reports the effective merge.clamp_zero_entry.
func (c *Config) ClampZeroEntry() bool {
	return c.Merge.ClampZeroEntry == nil || *c.Merge.ClampZeroEntry
}

// ValidationEnabled reports the effective validation.enabled.
func (c *Config) ValidationEnabled() bool {
	return c.Validation.Enabled == nil || *c.Validation.Enabled
}

// ParseLevel maps a log.level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func boolPtr(b bool) *bool { return &b }
