// Package config loads and validates cstarorc's runtime configuration,
// grounded on the internal/config.go: a defaults-first struct,
// YAML overlay via gopkg.in/yaml.v3, a raw-map section-exists check so an
// explicitly-set-to-zero-value field is distinguished from "not present in
// the file," and environment-variable overrides applied last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConsoleConfig controls terminal output formatting, unchanged in shape
// from the since it has nothing AI-agent-specific about it.
type ConsoleConfig struct {
	// EnableColor enables colored output.
	EnableColor bool `yaml:"enable_color"`

	// EnableProgressBar enables the step-count progress indicator.
	EnableProgressBar bool `yaml:"enable_progress_bar"`

	// CompactMode enables compact output format.
	CompactMode bool `yaml:"compact_mode"`

	// ShowDurations shows step durations in output.
	ShowDurations bool `yaml:"show_durations"`
}

// LauncherConfig selects and parameterizes the execution backend.
// Class selects which launcher implementation the
// orchestrator builds; Account/Queue/MaxWalltime are forwarded to the
// batch and managed backends, BaseURL only to the managed backend.
type LauncherConfig struct {
	// Class is "local", "batch", or "managed".
	Class string `yaml:"class"`

	Account     string `yaml:"account"`
	Queue       string `yaml:"queue"`
	MaxWalltime string `yaml:"max_walltime"`

	// BaseURL is the managed task-service endpoint; ignored by other classes.
	BaseURL string `yaml:"base_url"`
}

// Config represents cstarorc's orchestrator configuration.
type Config struct {
	// MaxConcurrency bounds how many nodes are processed per cycle
	// (0 = unlimited, matching the wave concurrency default).
	MaxConcurrency int `yaml:"max_concurrency"`

	// PollInterval is how long RunToCompletion sleeps after each cycle that
	// leaves the run open (0 = no sleep).
	PollInterval time.Duration `yaml:"poll_interval"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where logs will be written.
	LogDir string `yaml:"log_dir"`

	// DryRun is loaded from dry_run and can be set by MergeWithFlags; no
	// command reads it, so it does not stop `workplan run` from submitting.
	DryRun bool `yaml:"dry_run"`

	// CachePath is the SQLite resumable-submission cache location;
	// ":memory:" disables persistence across runs.
	CachePath string `yaml:"cache_path"`

	// Console contains console output configuration.
	Console ConsoleConfig `yaml:"console"`

	// Launcher selects and configures the execution backend.
	Launcher LauncherConfig `yaml:"launcher"`
}

// DefaultConsoleConfig returns ConsoleConfig with sensible default values.
func DefaultConsoleConfig() ConsoleConfig {
	return ConsoleConfig{
		EnableColor:       true,
		EnableProgressBar: true,
		CompactMode:       false,
		ShowDurations:     true,
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: 0,
		PollInterval:   30 * time.Second,
		LogLevel:       "info",
		LogDir:         ".cstarorc/logs",
		DryRun:         false,
		CachePath:      ".cstarorc/cache.db",
		Console:        DefaultConsoleConfig(),
		Launcher: LauncherConfig{
			Class:       "local",
			MaxWalltime: "01:00:00",
		},
	}
}

// applyConsoleEnvOverrides applies environment variable overrides to
// console configuration. Environment variables take precedence over
// config file values. Only "true" (lowercase) or "1" are recognized as
// true; all other values are false.
func applyConsoleEnvOverrides(cfg *ConsoleConfig) {
	if val := os.Getenv("CSTARORC_CONSOLE_COLOR"); val != "" {
		cfg.EnableColor = val == "true" || val == "1"
	}
	if val := os.Getenv("CSTARORC_CONSOLE_PROGRESS_BAR"); val != "" {
		cfg.EnableProgressBar = val == "true" || val == "1"
	}
	if val := os.Getenv("CSTARORC_CONSOLE_COMPACT"); val != "" {
		cfg.CompactMode = val == "true" || val == "1"
	}
	if val := os.Getenv("CSTARORC_CONSOLE_DURATIONS"); val != "" {
		cfg.ShowDurations = val == "true" || val == "1"
	}
}

// LoadConfig loads configuration from the specified file path. If the file
// doesn't exist, returns default configuration without error. If the file
// exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyConsoleEnvOverrides(&cfg.Console)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	type yamlConfig struct {
		MaxConcurrency int            `yaml:"max_concurrency"`
		PollInterval   string         `yaml:"poll_interval"`
		LogLevel       string         `yaml:"log_level"`
		LogDir         string         `yaml:"log_dir"`
		DryRun         bool           `yaml:"dry_run"`
		CachePath      string         `yaml:"cache_path"`
		Console        ConsoleConfig  `yaml:"console"`
		Launcher       LauncherConfig `yaml:"launcher"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.MaxConcurrency != 0 {
		cfg.MaxConcurrency = yamlCfg.MaxConcurrency
	}
	if yamlCfg.PollInterval != "" {
		interval, err := time.ParseDuration(yamlCfg.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid poll_interval format %q: %w", yamlCfg.PollInterval, err)
		}
		cfg.PollInterval = interval
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.DryRun {
		cfg.DryRun = yamlCfg.DryRun
	}
	if yamlCfg.CachePath != "" {
		cfg.CachePath = yamlCfg.CachePath
	}

	// Section-exists merge for nested structs: a field present in the file
	// (even set to its zero value) overrides the default; an absent
	// section leaves the default untouched.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if consoleSection, exists := rawMap["console"]; exists && consoleSection != nil {
			console := yamlCfg.Console
			consoleMap, _ := consoleSection.(map[string]interface{})

			if _, exists := consoleMap["enable_color"]; exists {
				cfg.Console.EnableColor = console.EnableColor
			}
			if _, exists := consoleMap["enable_progress_bar"]; exists {
				cfg.Console.EnableProgressBar = console.EnableProgressBar
			}
			if _, exists := consoleMap["compact_mode"]; exists {
				cfg.Console.CompactMode = console.CompactMode
			}
			if _, exists := consoleMap["show_durations"]; exists {
				cfg.Console.ShowDurations = console.ShowDurations
			}
		}

		if launcherSection, exists := rawMap["launcher"]; exists && launcherSection != nil {
			launcher := yamlCfg.Launcher
			launcherMap, _ := launcherSection.(map[string]interface{})

			if _, exists := launcherMap["class"]; exists {
				cfg.Launcher.Class = launcher.Class
			}
			if _, exists := launcherMap["account"]; exists {
				cfg.Launcher.Account = launcher.Account
			}
			if _, exists := launcherMap["queue"]; exists {
				cfg.Launcher.Queue = launcher.Queue
			}
			if _, exists := launcherMap["max_walltime"]; exists {
				cfg.Launcher.MaxWalltime = launcher.MaxWalltime
			}
			if _, exists := launcherMap["base_url"]; exists {
				cfg.Launcher.BaseURL = launcher.BaseURL
			}
		}
	}

	applyConsoleEnvOverrides(&cfg.Console)

	return cfg, nil
}

// LoadConfigFromDir loads configuration from cstarorc.yaml in dir. If the
// directory or file doesn't exist, returns default configuration without
// error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, "cstarorc.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration. Non-nil flag
// values override configuration values, so CLI flags take precedence over
// config file settings.
func (c *Config) MergeWithFlags(maxConcurrency *int, pollInterval *time.Duration, logDir *string, dryRun *bool, cachePath *string) {
	if maxConcurrency != nil {
		c.MaxConcurrency = *maxConcurrency
	}
	if pollInterval != nil {
		c.PollInterval = *pollInterval
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if dryRun != nil {
		c.DryRun = *dryRun
	}
	if cachePath != nil {
		c.CachePath = *cachePath
	}
}

// Validate validates the configuration values, returning an error if any
// are invalid.
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must be >= 0, got %v", c.PollInterval)
	}

	validClasses := map[string]bool{"local": true, "batch": true, "managed": true}
	class := strings.TrimSpace(c.Launcher.Class)
	if !validClasses[class] {
		return fmt.Errorf("launcher.class must be one of: local, batch, managed; got %q", class)
	}
	if class == "batch" && (c.Launcher.Account == "" || c.Launcher.Queue == "") {
		return fmt.Errorf("launcher.account and launcher.queue are required when launcher.class is 'batch'")
	}
	if class == "managed" && c.Launcher.BaseURL == "" {
		return fmt.Errorf("launcher.base_url is required when launcher.class is 'managed'")
	}

	return nil
}
