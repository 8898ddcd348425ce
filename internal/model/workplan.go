package model

import (
	"fmt"
	"strings"
)

// WorkplanState is the persisted lifecycle marker of a Workplan document.
type WorkplanState string

const (
	StateDraft     WorkplanState = "Draft"
	StateValidated WorkplanState = "Validated"
)

// Workplan is the user-declared set of steps with dependencies and shared
// compute configuration. Field names mirror cstar/orchestration/models.py's
// WorkPlan.
type Workplan struct {
	Name                string         `yaml:"name"`
	Description         string         `yaml:"description"`
	State               WorkplanState  `yaml:"state,omitempty"`
	Steps               []Step         `yaml:"steps"`
	ComputeEnvironment  ScalarMap      `yaml:"compute_environment,omitempty"`
	RuntimeVars         []string       `yaml:"runtime_vars,omitempty"`
}

// Validate checks the document's structural invariants, short of
// the DAG acyclicity check (owned by the planner, which needs graph-wide
// context to report cycles usefully). baseDir resolves each step's
// relative Blueprint path for an existence check; pass "" to skip it.
func (w *Workplan) Validate(baseDir string) error {
	w.Name = strings.TrimSpace(w.Name)
	w.Description = strings.TrimSpace(w.Description)
	if w.Name == "" {
		return fmt.Errorf("workplan: name must not be empty")
	}
	if w.Description == "" {
		return fmt.Errorf("workplan: description must not be empty")
	}
	if len(w.Steps) == 0 {
		return fmt.Errorf("workplan: steps must contain at least one entry")
	}
	if w.State != "" && w.State != StateDraft && w.State != StateValidated {
		return fmt.Errorf("workplan: state must be %q or %q, got %q", StateDraft, StateValidated, w.State)
	}

	names := make(map[string]struct{}, len(w.Steps))
	for i := range w.Steps {
		step := &w.Steps[i]
		if err := step.Validate(baseDir); err != nil {
			return fmt.Errorf("workplan: step %d: %w", i, err)
		}
		if _, dup := names[step.Name]; dup {
			return fmt.Errorf("workplan: duplicate step name %q", step.Name)
		}
		names[step.Name] = struct{}{}
	}
	for i := range w.Steps {
		step := &w.Steps[i]
		for dep := range step.DependsOn {
			if _, ok := names[dep]; !ok {
				return fmt.Errorf("workplan: step %q depends_on unresolved name %q", step.Name, dep)
			}
		}
	}
	return nil
}

// StepByName returns a pointer to the step with the given name, if present.
func (w *Workplan) StepByName(name string) *Step {
	for i := range w.Steps {
		if w.Steps[i].Name == name {
			return &w.Steps[i]
		}
	}
	return nil
}
