package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().MaxConcurrency, cfg.MaxConcurrency)
	require.Equal(t, "local", cfg.Launcher.Class)
}

func TestLoadConfigOverlaysProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cstarorc.yaml")
	doc := `max_concurrency: 4
poll_interval: 10s
launcher:
  class: batch
  account: ocean
  queue: normal
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.MaxConcurrency)
	require.Equal(t, 10*time.Second, cfg.PollInterval)
	require.Equal(t, "batch", cfg.Launcher.Class)
	require.Equal(t, "ocean", cfg.Launcher.Account)
	require.Equal(t, "normal", cfg.Launcher.Queue)
	// untouched fields keep their defaults
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cstarorc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrency: [unterminated\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigRejectsInvalidPollInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cstarorc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: not-a-duration\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestValidateRejectsNegativeMaxConcurrency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrency = -1
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresAccountAndQueueForBatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Launcher.Class = "batch"
	require.Error(t, cfg.Validate())

	cfg.Launcher.Account = "ocean"
	cfg.Launcher.Queue = "normal"
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresBaseURLForManaged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Launcher.Class = "managed"
	require.Error(t, cfg.Validate())

	cfg.Launcher.BaseURL = "https://tasks.example.org"
	require.NoError(t, cfg.Validate())
}

func TestMergeWithFlagsOverridesOnlyNonNil(t *testing.T) {
	cfg := DefaultConfig()
	maxConcurrency := 8
	cfg.MergeWithFlags(&maxConcurrency, nil, nil, nil, nil)
	require.Equal(t, 8, cfg.MaxConcurrency)
	require.Equal(t, DefaultConfig().PollInterval, cfg.PollInterval)
}

func TestConsoleEnvOverrides(t *testing.T) {
	t.Setenv("CSTARORC_CONSOLE_COLOR", "0")
	cfg := DefaultConfig()
	applyConsoleEnvOverrides(&cfg.Console)
	require.False(t, cfg.Console.EnableColor)
}
