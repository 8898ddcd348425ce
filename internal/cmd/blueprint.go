package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewBlueprintCommand builds the "blueprint" command group: check.
func NewBlueprintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blueprint",
		Short: "Validate blueprint documents",
	}
	cmd.AddCommand(newBlueprintCheckCommand())
	return cmd
}

func newBlueprintCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate a blueprint document's core-readable attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := loadBlueprint(args[0])
			if err != nil {
				return err
			}
			if bp.Application == "" {
				return fmt.Errorf("blueprint invalid: application must not be empty")
			}
			if bp.RuntimeParams.EndDate.Before(bp.RuntimeParams.StartDate) {
				return fmt.Errorf("blueprint invalid: runtime_params.end_date precedes start_date")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (application %q)\n", args[0], bp.Application)
			return nil
		},
	}
}
