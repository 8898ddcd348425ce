package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cworthy-ocean/cstarorc/internal/config"
	"github.com/cworthy-ocean/cstarorc/internal/converter"
	"github.com/cworthy-ocean/cstarorc/internal/launcher"
	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/store"
)

func loadWorkplan(path string) (*model.Workplan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workplan %s: %w", path, err)
	}
	var wp model.Workplan
	if err := yaml.Unmarshal(data, &wp); err != nil {
		return nil, fmt.Errorf("parse workplan %s: %w", path, err)
	}
	return &wp, nil
}

func loadBlueprint(path string) (*model.Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprint %s: %w", path, err)
	}
	var bp model.Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parse blueprint %s: %w", path, err)
	}
	return &bp, nil
}

// buildLauncher constructs the Launcher backend named by cfg.Launcher.Class,
// wired to a shared cache and the step-application converter registry.
func buildLauncher(cfg *config.Config, cache *store.Cache, runID, stateHome string) (launcher.Launcher, error) {
	lookup := func(class string) converter.Func {
		return func(step *model.Step) string {
			fn, err := converter.Get(class, step.Application)
			if err != nil {
				return ""
			}
			return fn(step)
		}
	}

	switch cfg.Launcher.Class {
	case "local":
		return &launcher.Local{
			StateHome: stateHome,
			RunID:     runID,
			Cache:     cache,
			Converter: lookup("local"),
		}, nil
	case "batch":
		return &launcher.Batch{
			StateHome:   stateHome,
			RunID:       runID,
			Cache:       cache,
			Converter:   lookup("batch"),
			Account:     cfg.Launcher.Account,
			Queue:       cfg.Launcher.Queue,
			MaxWalltime: cfg.Launcher.MaxWalltime,
		}, nil
	case "managed":
		return &launcher.Managed{
			RunID:       runID,
			Cache:       cache,
			Converter:   lookup("managed"),
			BaseURL:     cfg.Launcher.BaseURL,
			Account:     cfg.Launcher.Account,
			Queue:       cfg.Launcher.Queue,
			MaxWalltime: cfg.Launcher.MaxWalltime,
		}, nil
	default:
		return nil, fmt.Errorf("cmd: unknown launcher class %q", cfg.Launcher.Class)
	}
}
