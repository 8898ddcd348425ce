// Package envgate validates required environment configuration before any
// submission side effect and normalizes per-run paths, grounded on
// cstar/orchestration/orchestration.py's check_environment/
// configure_environment and on the internal/config fail-fast
// validation idiom.
package envgate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	EnvRunID      = "CSTAR_RUNID"
	EnvStateHome  = "CSTAR_STATE_HOME"
	EnvOutDir     = "CSTAR_OUTDIR"
	EnvConverterOverride = "CSTAR_CMD_CONVERTER_OVERRIDE"
	EnvTimeSplitFreq     = "CSTAR_ORCH_TRX_FREQ"

	EnvSlurmAccount     = "CSTAR_SLURM_ACCOUNT"
	EnvSlurmQueue       = "CSTAR_SLURM_QUEUE"
	EnvSlurmMaxWalltime = "CSTAR_SLURM_MAX_WALLTIME"

	EnvManagedAccount     = "CSTAR_MANAGED_ACCOUNT"
	EnvManagedQueue       = "CSTAR_MANAGED_QUEUE"
	EnvManagedMaxWalltime = "CSTAR_MANAGED_MAX_WALLTIME"
	EnvManagedBaseURL     = "CSTAR_MANAGED_BASE_URL"
)

// ConfigError signals missing/invalid environment or arguments; fatal
// before any side effect.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("envgate: missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// LauncherClass names which launcher's required variables to check.
type LauncherClass string

const (
	LauncherLocal   LauncherClass = "local"
	LauncherBatch   LauncherClass = "batch"
	LauncherManaged LauncherClass = "managed"
)

// requiredVars lists the externally-supplied environment variables a
// launcher class needs before submission. EnvRunID/EnvOutDir are excluded:
// ConfigureEnvironment derives and exports those itself from the --run-id/
// --output-dir flags, so they are never "missing" in the sense this check
// cares about.
func requiredVars(class LauncherClass) []string {
	switch class {
	case LauncherBatch:
		return []string{EnvSlurmAccount, EnvSlurmQueue}
	case LauncherManaged:
		return []string{EnvManagedAccount, EnvManagedQueue, EnvManagedBaseURL}
	default:
		return nil
	}
}

// CheckEnvironment verifies the variables required by class are set and
// non-empty, returning a ConfigError naming every missing one.
func CheckEnvironment(class LauncherClass) error {
	var missing []string
	for _, name := range requiredVars(class) {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Slugify normalizes a run_id into a filesystem- and env-var-safe token.
func Slugify(s string) string {
	slug := slugPattern.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(slug, "-")
}

// RunEnvironment holds the normalized, per-run paths configure_environment
// derives from outputDir and runID.
type RunEnvironment struct {
	RunID     string
	StateHome string
	OutDir    string
}

// ConfigureEnvironment slugifies runID, pins the derived output directory
// under outputDir, and exports CSTAR_RUNID/CSTAR_OUTDIR so subprocesses
// inherit them (matching configure_environment's os.environ writes).
func ConfigureEnvironment(outputDir, runID string) (*RunEnvironment, error) {
	slug := Slugify(runID)
	if slug == "" {
		return nil, &ConfigError{Missing: []string{EnvRunID}}
	}

	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("envgate: resolve output dir: %w", err)
	}
	runDir := filepath.Join(abs, slug)

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("envgate: create run directory: %w", err)
	}

	os.Setenv(EnvRunID, slug)
	os.Setenv(EnvOutDir, runDir)

	return &RunEnvironment{RunID: slug, StateHome: abs, OutDir: runDir}, nil
}
