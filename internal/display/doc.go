// Package display provides terminal UI utilities for displaying progress,
// warnings, and status messages for the cstarorc CLI.
//
// It centralizes ANSI color formatting and user-facing output so that the
// workplan and blueprint subcommands render consistently. All functions
// accept an io.Writer so they can be exercised in tests without a real
// terminal.
//
// # Progress
//
//	progress := display.NewProgressIndicator(os.Stdout, len(steps))
//	progress.Start("Submitting")
//	for _, step := range steps {
//	    progress.Step(step.Name)
//	}
//	progress.Complete()
//
// # Warnings
//
//	warning := display.Warning{
//	    Title:      "Unresolved dependency",
//	    Message:    "step references a name that does not exist",
//	    Files:      []string{"workplan.yaml"},
//	    Suggestion: "check depends_on for typos",
//	}
//	warning.Display(os.Stderr)
package display
