package transform

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// InjectOverrides materializes a step's blueprint_overrides into a derived
// blueprint file and rewrites the step to reference it, leaving the
// original blueprint untouched. This is the single-step analogue of
// TimeSplit's per-slice blueprint derivation and runs for any application
// that has overrides but no registered time-splitting transform.
//
// Grounded on the override-merge behavior implied by Step.blueprint_overrides
// in original_source/cstar/orchestration/models.py; the original has no
// standalone transform for this (overrides are applied at launch time), but
// materializing a concrete derived file up front keeps every launcher
// backend working from a plain blueprint path rather than an overrides map.
func InjectOverrides(step model.Step) ([]model.Step, error) {
	if len(step.BlueprintOverrides) == 0 {
		return []model.Step{step.Clone()}, nil
	}

	data, err := readFile(step.Blueprint)
	if err != nil {
		return nil, fmt.Errorf("override: read blueprint %q: %w", step.Blueprint, err)
	}

	var raw yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("override: parse blueprint %q: %w", step.Blueprint, err)
	}

	childPath, err := writeDerivedBlueprint(&raw, step.Blueprint, step.Name, step.BlueprintOverrides)
	if err != nil {
		return nil, err
	}

	out := step.Clone()
	out.Blueprint = childPath
	return []model.Step{out}, nil
}

func init() {
	Register("sleep", InjectOverrides)
}
