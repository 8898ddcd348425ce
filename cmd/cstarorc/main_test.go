package main

import (
	"testing"

	"github.com/cworthy-ocean/cstarorc/internal/cmd"
)

func TestRootCommandHasExpectedSubcommands(t *testing.T) {
	root := cmd.NewRootCommand()

	want := []string{"workplan", "blueprint", "template"}
	for _, name := range want {
		if c, _, err := root.Find([]string{name}); err != nil || c == root {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestRootCommandVersionIsSet(t *testing.T) {
	if cmd.Version == "" {
		t.Error("cmd.Version should not be empty")
	}
}
