package model

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestStringSetUnmarshalYAMLDeduplicates(t *testing.T) {
	var s StringSet
	err := yaml.Unmarshal([]byte("[a, b, a, c]"), &s)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s) != 3 {
		t.Errorf("got %d entries, want 3", len(s))
	}
	if got := s.Sorted(); got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Sorted() = %v", got)
	}
}

func TestStringSetMarshalYAMLIsSorted(t *testing.T) {
	s := NewStringSet("z", "a", "m")
	out, err := yaml.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := "- a\n- m\n- z\n"
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestStepValidateTrimsAndRejectsBlankFields(t *testing.T) {
	s := &Step{Name: "  ", Application: "roms_marbl", Blueprint: "b.yaml"}
	if err := s.Validate(""); err == nil {
		t.Fatal("expected error for blank name")
	}

	s = &Step{Name: "step1", Application: "", Blueprint: "b.yaml"}
	if err := s.Validate(""); err == nil {
		t.Fatal("expected error for blank application")
	}

	s = &Step{Name: "step1", Application: "roms_marbl", Blueprint: ""}
	if err := s.Validate(""); err == nil {
		t.Fatal("expected error for blank blueprint")
	}
}

func TestStepValidateRejectsSelfDependency(t *testing.T) {
	s := &Step{
		Name:        "step1",
		Application: "roms_marbl",
		Blueprint:   "b.yaml",
		DependsOn:   NewStringSet("step1"),
	}
	if err := s.Validate(""); err == nil {
		t.Fatal("expected error for a step depending on itself")
	}
}

func TestStepValidateAcceptsExistingBlueprintUnderBaseDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write blueprint: %v", err)
	}

	s := &Step{Name: "step1", Application: "roms_marbl", Blueprint: "b.yaml"}
	if err := s.Validate(dir); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestStepValidateRejectsMissingBlueprintUnderBaseDir(t *testing.T) {
	dir := t.TempDir()

	s := &Step{Name: "step1", Application: "roms_marbl", Blueprint: "missing.yaml"}
	if err := s.Validate(dir); err == nil {
		t.Fatal("expected error for a blueprint that does not exist")
	}
}

func TestStepValidateRejectsBlueprintThatIsADirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "b.yaml"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	s := &Step{Name: "step1", Application: "roms_marbl", Blueprint: "b.yaml"}
	if err := s.Validate(dir); err == nil {
		t.Fatal("expected error for a blueprint path that is a directory")
	}
}

func TestStepCloneDoesNotAliasMaps(t *testing.T) {
	orig := Step{
		Name:               "step1",
		DependsOn:          NewStringSet("a"),
		BlueprintOverrides: ScalarMap{"nx": 10},
	}
	clone := orig.Clone()
	clone.DependsOn["b"] = struct{}{}
	clone.BlueprintOverrides["nx"] = 20

	if orig.DependsOn.Has("b") {
		t.Error("mutating clone's DependsOn affected the original")
	}
	if orig.BlueprintOverrides["nx"] != 10 {
		t.Error("mutating clone's BlueprintOverrides affected the original")
	}
}
