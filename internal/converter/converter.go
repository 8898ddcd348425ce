// Package converter implements the two-level command-conversion registry
// that maps a (launcher class, application) pair to the command string a
// launcher should run, grounded on
// original_source/cstar/orchestration/converter/converter.py's
// app_to_cmd_map / launcher_aware_app_to_cmd_map and
// CSTAR_CMD_CONVERTER_OVERRIDE lookup. The registry is keyed by launcher
// class name (a string, not the launcher.Launcher type) so this package
// has no dependency on internal/launcher, avoiding an import cycle since
// every launcher needs a converter.Func to build its command.
package converter

import (
	"fmt"
	"math/rand"
	"os"
	"sync"

	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// Func converts a Step into the command string a launcher should execute.
// The core never interprets the result; that is left to the launcher.
type Func func(step *model.Step) string

const (
	// OverrideEnvVar names the global debug knob that substitutes a
	// registered application's converter for every lookup.
	OverrideEnvVar = "CSTAR_CMD_CONVERTER_OVERRIDE"

	// SleepApplication is the reference placeholder application used by
	// tests and by the override knob.
	SleepApplication = "sleep"
)

type key struct {
	launcherClass string
	application   string
}

var (
	mu       sync.RWMutex
	registry = map[key]Func{}
	// byApplication indexes converters registered under any launcher
	// class by application name alone, so the override knob can resolve
	// a key without needing to know which launcher class it was
	// registered against.
	byApplication = map[string]Func{}
)

// Register binds a converter to an (launcherClass, application) pair.
// Registration is idempotent: a later call for the same pair replaces the
// earlier one, matching the package-level registry idiom
// (internal/pattern/library.go) of plain map writes guarded by a mutex.
func Register(launcherClass, application string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	registry[key{launcherClass, application}] = fn
	byApplication[application] = fn
}

// Get resolves the converter for (launcherClass, application), honoring
// CSTAR_CMD_CONVERTER_OVERRIDE if it names a registered application.
func Get(launcherClass, application string) (Func, error) {
	mu.RLock()
	defer mu.RUnlock()

	fn, ok := registry[key{launcherClass, application}]
	if !ok {
		return nil, fmt.Errorf("converter: no converter registered for launcher %q application %q", launcherClass, application)
	}

	if override := os.Getenv(OverrideEnvVar); override != "" {
		if overrideFn, ok := byApplication[override]; ok {
			return overrideFn, nil
		}
	}

	return fn, nil
}

// ConvertSleep emits a short shell snippet with a random 1-10s sleep and
// echo, used by tests and the override knob. Grounded on
// convert_step_to_placeholder in converter.py.
func ConvertSleep(step *model.Step) string {
	sleepSeconds := rand.Intn(10) + 1
	return fmt.Sprintf(
		"echo \"%s started at $(date '+%%Y-%%m-%%d %%H:%%M:%%S')\"\nsleep %d\necho \"%s completed at $(date '+%%Y-%%m-%%d %%H:%%M:%%S')\"\n",
		step.Name, sleepSeconds, step.Name,
	)
}

// ConvertSimulationWorker emits the command that invokes the domain
// simulation worker binary against the step's blueprint path, mirroring
// convert_roms_step_to_command.
func ConvertSimulationWorker(step *model.Step) string {
	return fmt.Sprintf("cstarorc-worker run --blueprint %q", step.Blueprint)
}

func init() {
	for _, launcherClass := range []string{"local", "batch", "managed"} {
		Register(launcherClass, SleepApplication, ConvertSleep)
		Register(launcherClass, "roms_marbl", ConvertSimulationWorker)
	}
}
