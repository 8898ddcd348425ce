package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetCstarorcHome returns the cstarorc home directory, used as the default
// parent for the resumable-submission cache and log output when the user
// hasn't overridden CachePath/LogDir. Priority order:
//  1. CSTARORC_HOME environment variable, if set
//  2. The repository root containing this module (detected via go.mod)
//  3. The current working directory, as a fallback
//
// In cases 2 and 3 the directory is created if it doesn't exist; a
// CSTARORC_HOME value is returned as given, without creating it.
func GetCstarorcHome() (string, error) {
	if home := os.Getenv("CSTARORC_HOME"); home != "" {
		return home, nil
	}

	root, err := findRepoRoot()
	if err == nil && root != "" {
		home := filepath.Join(root, ".cstarorc")
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create cstarorc home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	home := filepath.Join(cwd, ".cstarorc")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create cstarorc home directory: %w", err)
	}
	return home, nil
}

// findRepoRoot walks up from the working directory looking for a go.mod
// that declares this module, or a .cstarorc-root marker file.
func findRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	current := cwd
	for {
		markerPath := filepath.Join(current, ".cstarorc-root")
		if _, err := os.Stat(markerPath); err == nil {
			return current, nil
		}

		goModPath := filepath.Join(current, "go.mod")
		if data, err := os.ReadFile(goModPath); err == nil {
			if strings.Contains(string(data), "github.com/cworthy-ocean/cstarorc") {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", fmt.Errorf("cstarorc repository root not found (looking for .cstarorc-root or go.mod with github.com/cworthy-ocean/cstarorc)")
}
