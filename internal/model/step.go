package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// StringSet is an order-independent set of names, serialized as a YAML
// sequence of strings. Generalized from the Task.DependsOn
// normalization (internal/models/task.go), which accepts a list and folds
// it into a de-duplicated, order-stable representation.
type StringSet map[string]struct{}

func NewStringSet(names ...string) StringSet {
	s := make(StringSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s StringSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the set's members in a deterministic order, for anywhere
// iteration order is user-visible (YAML emit, log lines, graph traversal
// tie-breaking).
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s *StringSet) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil {
		return fmt.Errorf("depends_on: %w", err)
	}
	*s = NewStringSet(names...)
	return nil
}

func (s StringSet) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}

// Step is a single unit of execution in a workplan, referencing a
// blueprint. Field names mirror cstar/orchestration/models.py's Step.
type Step struct {
	Name        string    `yaml:"name"`
	Application string    `yaml:"application"`
	Blueprint   string    `yaml:"blueprint"`
	DependsOn   StringSet `yaml:"depends_on,omitempty"`

	BlueprintOverrides ScalarMap `yaml:"blueprint_overrides,omitempty"`
	ComputeOverrides   ScalarMap `yaml:"compute_overrides,omitempty"`
	WorkflowOverrides  ScalarMap `yaml:"workflow_overrides,omitempty"`

	// Parent names the originating step for a step derived by a
	// transformer (e.g. a time-split child); empty for user-authored
	// steps.
	Parent string `yaml:"parent,omitempty"`
}

// Validate checks the structural invariants for a single step. DAG-wide
// checks (referenced names exist, no cycles) are the workplan's and the
// planner's responsibility respectively. baseDir resolves a relative
// Blueprint path for the existence check; pass "" to skip that check
// (e.g. for a step not yet written to disk, such as a transformer's
// in-memory output prior to being persisted).
func (s *Step) Validate(baseDir string) error {
	s.Name = strings.TrimSpace(s.Name)
	s.Application = strings.TrimSpace(s.Application)
	s.Blueprint = strings.TrimSpace(s.Blueprint)
	if s.Name == "" {
		return fmt.Errorf("step: name must not be empty")
	}
	if s.Application == "" {
		return fmt.Errorf("step %q: application must not be empty", s.Name)
	}
	if s.Blueprint == "" {
		return fmt.Errorf("step %q: blueprint must not be empty", s.Name)
	}
	if s.DependsOn.Has(s.Name) {
		return fmt.Errorf("step %q: cannot depend on itself", s.Name)
	}
	if baseDir != "" {
		path := s.Blueprint
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("step %q: blueprint %q: %w", s.Name, s.Blueprint, err)
		}
		if info.IsDir() {
			return fmt.Errorf("step %q: blueprint %q is a directory, not a file", s.Name, s.Blueprint)
		}
	}
	return nil
}

// Clone returns a deep-enough copy for a transformer to mutate without
// aliasing the parent's maps.
func (s Step) Clone() Step {
	clone := s
	clone.DependsOn = NewStringSet(s.DependsOn.Sorted()...)
	clone.BlueprintOverrides = s.BlueprintOverrides.Merge(nil)
	clone.ComputeOverrides = s.ComputeOverrides.Merge(nil)
	clone.WorkflowOverrides = s.WorkflowOverrides.Merge(nil)
	return clone
}
