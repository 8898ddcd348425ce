// Command cstarorc drives scientific simulation workflows described as
// workplans against a pluggable launcher backend.
package main

import (
	"fmt"
	"os"

	"github.com/cworthy-ocean/cstarorc/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
