package model

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestScalarMapUnmarshalYAMLAcceptsStringsAndInts(t *testing.T) {
	var m ScalarMap
	err := yaml.Unmarshal([]byte("nx: 100\nregion: pacific\n"), &m)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["nx"] != 100 {
		t.Errorf("nx = %v, want 100", m["nx"])
	}
	if m["region"] != "pacific" {
		t.Errorf("region = %v, want pacific", m["region"])
	}
}

func TestScalarMapUnmarshalYAMLRejectsNestedValues(t *testing.T) {
	var m ScalarMap
	err := yaml.Unmarshal([]byte("nested:\n  a: 1\n"), &m)
	if err == nil {
		t.Fatal("expected error for a non-scalar value")
	}
}

func TestScalarMapMergeLayersOtherOverBase(t *testing.T) {
	base := ScalarMap{"a": 1, "b": "x"}
	other := ScalarMap{"b": "y", "c": 3}

	merged := base.Merge(other)
	if merged["a"] != 1 || merged["b"] != "y" || merged["c"] != 3 {
		t.Errorf("merged = %v", merged)
	}
	if base["b"] != "x" {
		t.Error("Merge must not mutate the base map")
	}
}

func TestScalarMapMergeWithNilOther(t *testing.T) {
	base := ScalarMap{"a": 1}
	merged := base.Merge(nil)
	if len(merged) != 1 || merged["a"] != 1 {
		t.Errorf("merged = %v", merged)
	}
}
