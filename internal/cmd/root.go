package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for cstarorc.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cstarorc",
		Short: "Workflow orchestrator for scientific simulation pipelines",
		Long: `cstarorc drives a DAG of simulation steps to completion against a
pluggable execution backend (a local process, a batch scheduler, or a
managed task service).

It reads a workplan document describing named steps and their
dependencies, applies any declared blueprint transformations
(time-slicing, override injection), builds the dependency graph, and
submits/queries/cancels each step's backend task until the run reaches a
terminal state.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewWorkplanCommand())
	cmd.AddCommand(NewBlueprintCommand())
	cmd.AddCommand(NewTemplateCommand())

	return cmd
}
