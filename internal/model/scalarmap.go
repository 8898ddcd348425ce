package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ScalarMap is a string-keyed map whose values are either strings or
// integers, matching compute_environment/blueprint_overrides/
// compute_overrides/workflow_overrides. It is modeled on the
// prior custom Task.UnmarshalYAML, which tolerates mixed int/float/
// string encodings of depends_on in the same way.
type ScalarMap map[string]any

// UnmarshalYAML accepts string or integer scalar values and rejects
// anything else, so a malformed document fails at load time rather than
// surfacing a cryptic type assertion later.
func (m *ScalarMap) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := value.Decode(&raw); err != nil {
		return err
	}
	out := make(ScalarMap, len(raw))
	for k, v := range raw {
		switch v.Tag {
		case "!!int":
			var i int
			if err := v.Decode(&i); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = i
		case "!!str":
			var s string
			if err := v.Decode(&s); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = s
		default:
			return fmt.Errorf("key %q: unsupported scalar kind %q", k, v.Tag)
		}
	}
	*m = out
	return nil
}

// MarshalYAML emits the map as plain scalars.
func (m ScalarMap) MarshalYAML() (any, error) {
	return map[string]any(m), nil
}

// Merge returns a new ScalarMap with other's entries layered over m's.
func (m ScalarMap) Merge(other ScalarMap) ScalarMap {
	out := make(ScalarMap, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
