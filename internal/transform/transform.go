// Package transform implements pure Step -> []Step rewrites applied before
// planning, grounded on
// original_source/cstar/orchestration/transforms.py's Transform protocol,
// TRANSFORMS registry, and RomsMarblTimeSplitter.
package transform

import (
	"fmt"
	"sync"

	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// Func rewrites a single step into one or more derived steps. Transforms
// never mutate the input step.
type Func func(step model.Step) ([]model.Step, error)

var (
	mu       sync.RWMutex
	registry = map[string]Func{}
)

// Register binds a transform to an application name. Idempotent, like the
// converter registry.
func Register(application string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	registry[application] = fn
}

// Get returns the transform registered for application, if any.
func Get(application string) (Func, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[application]
	return fn, ok
}

// ApplyToWorkplan runs every step through its registered transform (steps
// with no registered transform pass through unchanged), producing a new
// Workplan. The input is never mutated.
func ApplyToWorkplan(wp *model.Workplan) (*model.Workplan, error) {
	out := &model.Workplan{
		Name:               wp.Name,
		Description:        wp.Description,
		State:              wp.State,
		ComputeEnvironment: wp.ComputeEnvironment,
		RuntimeVars:        wp.RuntimeVars,
	}

	for _, step := range wp.Steps {
		fn, ok := Get(step.Application)
		if !ok {
			out.Steps = append(out.Steps, step.Clone())
			continue
		}
		derived, err := fn(step)
		if err != nil {
			return nil, fmt.Errorf("transform: application %q step %q: %w", step.Application, step.Name, err)
		}
		out.Steps = append(out.Steps, derived...)
	}
	return out, nil
}
