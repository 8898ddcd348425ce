package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cworthy-ocean/cstarorc/internal/config"
	"github.com/cworthy-ocean/cstarorc/internal/display"
	"github.com/cworthy-ocean/cstarorc/internal/envgate"
	"github.com/cworthy-ocean/cstarorc/internal/filelock"
	"github.com/cworthy-ocean/cstarorc/internal/fileutil"
	"github.com/cworthy-ocean/cstarorc/internal/logger"
	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/orchestrator"
	"github.com/cworthy-ocean/cstarorc/internal/planner"
	"github.com/cworthy-ocean/cstarorc/internal/store"
	"github.com/cworthy-ocean/cstarorc/internal/transform"
)

// NewWorkplanCommand builds the "workplan" command group: check, run,
// status, plan, discover, grounded on the internal/cmd/
// run.go flag-and-cobra idiom.
func NewWorkplanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workplan",
		Short: "Validate, drive, and inspect workplan documents",
	}

	cmd.AddCommand(newWorkplanCheckCommand())
	cmd.AddCommand(newWorkplanRunCommand())
	cmd.AddCommand(newWorkplanStatusCommand())
	cmd.AddCommand(newWorkplanPlanCommand())
	cmd.AddCommand(newWorkplanDiscoverCommand())
	return cmd
}

func newWorkplanCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate a workplan document, including DAG acyclicity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wp, err := loadWorkplan(args[0])
			if err != nil {
				return err
			}
			if err := wp.Validate(filepath.Dir(args[0])); err != nil {
				return fmt.Errorf("workplan invalid: %w", err)
			}
			if _, err := planner.New(wp); err != nil {
				return fmt.Errorf("workplan invalid: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d steps)\n", args[0], len(wp.Steps))
			return nil
		},
	}
}

func newWorkplanRunCommand() *cobra.Command {
	var outputDir string
	var runID string
	var configPath string
	var maxConcurrency int

	c := &cobra.Command{
		Use:   "run <path>",
		Short: "Transform, plan, and drive a workplan to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if maxConcurrency > 0 {
				cfg.MergeWithFlags(&maxConcurrency, nil, nil, nil, nil)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := envgate.CheckEnvironment(envgate.LauncherClass(cfg.Launcher.Class)); err != nil {
				return err
			}

			if runID == "" {
				// No --run-id means a fresh run: mint a unique identifier
				// rather than deriving one from the workplan's filename, so
				// two unrelated invocations never collide on the same
				// submit-cache keys.
				runID = fmt.Sprintf("run-%s", uuid.NewString())
			}
			runEnv, err := envgate.ConfigureEnvironment(outputDir, runID)
			if err != nil {
				return err
			}

			wp, err := loadWorkplan(args[0])
			if err != nil {
				return err
			}
			if err := wp.Validate(filepath.Dir(args[0])); err != nil {
				return fmt.Errorf("workplan invalid: %w", err)
			}

			transformed, err := transform.ApplyToWorkplan(wp)
			if err != nil {
				return fmt.Errorf("transform workplan: %w", err)
			}

			emitted, err := yaml.Marshal(transformed)
			if err != nil {
				return fmt.Errorf("marshal transformed workplan: %w", err)
			}
			hostPath := filepath.Join(runEnv.OutDir, fmt.Sprintf("%s-host.yaml", transformed.Name))
			if err := filelock.AtomicWrite(hostPath, emitted); err != nil {
				return fmt.Errorf("write emitted workplan: %w", err)
			}

			p, err := planner.New(transformed)
			if err != nil {
				return fmt.Errorf("plan workplan: %w", err)
			}

			cache, err := store.Open(cfg.CachePath)
			if err != nil {
				return fmt.Errorf("open task cache: %w", err)
			}
			defer cache.Close()

			launch, err := buildLauncher(cfg, cache, runEnv.RunID, runEnv.StateHome)
			if err != nil {
				return err
			}

			var log orchestrator.Logger
			if cfg.LogDir != "" {
				fl, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
				if err != nil {
					return fmt.Errorf("open file logger: %w", err)
				}
				defer fl.Close()
				log = fl
			} else {
				log = logger.NewConsoleLogger(cmd.OutOrStdout(), cfg.LogLevel)
			}

			orch := &orchestrator.Orchestrator{
				Planner:        p,
				Launch:         launch,
				Logger:         log,
				MaxConcurrency: cfg.MaxConcurrency,
			}

			statuses, err := orch.RunToCompletion(context.Background(), planner.Monitor, cfg.PollInterval)
			if err != nil {
				return fmt.Errorf("run workplan: %w", err)
			}

			printStatusReport(cmd.OutOrStdout(), statuses)

			for _, status := range statuses {
				if status.IsFailure() {
					return fmt.Errorf("workplan run: %d step(s) did not complete successfully", countFailures(statuses))
				}
			}
			return nil
		},
	}

	c.Flags().StringVar(&outputDir, "output-dir", ".", "root directory for per-run artifacts")
	c.Flags().StringVar(&runID, "run-id", "", "unique identifier for this execution")
	c.Flags().StringVar(&configPath, "config", "cstarorc.yaml", "path to cstarorc configuration")
	c.Flags().IntVar(&maxConcurrency, "max-concurrency", 0, "override configured max concurrency")
	return c
}

func newWorkplanStatusCommand() *cobra.Command {
	var runID string
	var outputDir string
	var configPath string

	c := &cobra.Command{
		Use:   "status <path>",
		Short: "Print incomplete and complete step sets for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("workplan status: --run-id is required")
			}
			slug := envgate.Slugify(runID)
			if slug == "" {
				return fmt.Errorf("workplan status: --run-id %q has no valid characters", runID)
			}

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			stateHome, err := filepath.Abs(outputDir)
			if err != nil {
				return fmt.Errorf("resolve output dir: %w", err)
			}

			wp, err := loadWorkplan(args[0])
			if err != nil {
				return err
			}
			if err := wp.Validate(filepath.Dir(args[0])); err != nil {
				return fmt.Errorf("workplan invalid: %w", err)
			}

			p, err := planner.New(wp)
			if err != nil {
				return fmt.Errorf("plan workplan: %w", err)
			}

			cache, err := store.Open(cfg.CachePath)
			if err != nil {
				return fmt.Errorf("open task cache: %w", err)
			}
			defer cache.Close()

			launch, err := buildLauncher(cfg, cache, slug, stateHome)
			if err != nil {
				return err
			}

			ctx := context.Background()
			for _, name := range p.Flatten() {
				node := p.Get(name)
				handle, ok, err := cache.Get(ctx, store.Key{RunID: slug, Step: name, Phase: store.PhaseSubmit})
				if err != nil {
					return fmt.Errorf("read cache for step %q: %w", name, err)
				}
				if !ok {
					continue
				}
				task := &model.Task{Step: node.Step, Handle: model.Handle(handle)}
				status, err := launch.QueryStatus(ctx, node.Step, task)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "query %s: %v\n", name, err)
					continue
				}
				p.SetStatus(name, status)
			}

			printStatusReport(cmd.OutOrStdout(), p.StatusMap())
			return nil
		},
	}

	c.Flags().StringVar(&runID, "run-id", "", "run identifier to report status for")
	c.Flags().StringVar(&outputDir, "output-dir", ".", "root directory the run's artifacts were written under")
	c.Flags().StringVar(&configPath, "config", "cstarorc.yaml", "path to cstarorc configuration")
	return c
}

func newWorkplanPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <path>",
		Short: "Render the workplan's DAG as Graphviz DOT for inspection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wp, err := loadWorkplan(args[0])
			if err != nil {
				return err
			}
			if err := wp.Validate(filepath.Dir(args[0])); err != nil {
				return fmt.Errorf("workplan invalid: %w", err)
			}
			p, err := planner.New(wp)
			if err != nil {
				return fmt.Errorf("plan workplan: %w", err)
			}
			return renderDOT(cmd.OutOrStdout(), wp.Name, p)
		},
	}
}

// newWorkplanDiscoverCommand scans a directory tree for workplan documents
// and validates each, reporting a warning per invalid one instead of
// stopping at the first failure. Grounded on the internal/
// fileutil.ScanDirectory (multi-file plan discovery) paired with
// internal/display's progress indicator and warning renderer.
func newWorkplanDiscoverCommand() *cobra.Command {
	var extensions []string

	c := &cobra.Command{
		Use:   "discover <dir>",
		Short: "Scan a directory for workplan documents and validate each",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := fileutil.ScanDirectory(args[0], fileutil.ScanOptions{
				Extensions: extensions,
				Recursive:  true,
			})
			if err != nil {
				return fmt.Errorf("discover workplans: %w", err)
			}

			progress := display.NewProgressIndicator(cmd.OutOrStdout(), len(result.Files))
			progress.Start("Validating")

			var invalid int
			for _, path := range result.Files {
				progress.Step(path)
				wp, err := loadWorkplan(path)
				if err == nil {
					err = wp.Validate(filepath.Dir(path))
				}
				if err == nil {
					_, err = planner.New(wp)
				}
				if err != nil {
					invalid++
					display.WarnInvalidDocument(path, err).Display(cmd.ErrOrStderr())
					continue
				}
			}
			progress.Complete()

			for _, scanErr := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "scan warning: %v\n", scanErr)
			}

			if invalid > 0 {
				return fmt.Errorf("discover workplans: %d of %d document(s) invalid", invalid, len(result.Files))
			}
			return nil
		},
	}

	c.Flags().StringSliceVar(&extensions, "ext", []string{".yaml", ".yml"}, "file extensions to scan for")
	return c
}

// renderDOT emits the workplan's DAG as Graphviz DOT text. This is a
// documented stdlib-only boundary: text/template would add nothing over
// fmt.Fprintf for a format this small, and downstream tooling
// (`dot -Tpng`) renders the resulting image.
func renderDOT(w io.Writer, name string, p *planner.Planner) error {
	fmt.Fprintf(w, "digraph %q {\n", name)
	for _, stepName := range p.Flatten() {
		node := p.Get(stepName)
		fmt.Fprintf(w, "  %q;\n", stepName)
		for _, dep := range node.Step.DependsOn.Sorted() {
			fmt.Fprintf(w, "  %q -> %q;\n", dep, stepName)
		}
	}
	fmt.Fprintln(w, "}")
	return nil
}

func printStatusReport(w io.Writer, statuses map[string]model.Status) {
	var incomplete, complete []string
	for name, status := range statuses {
		if status.IsTerminal() {
			complete = append(complete, fmt.Sprintf("%s (%s)", name, status))
		} else {
			incomplete = append(incomplete, fmt.Sprintf("%s (%s)", name, status))
		}
	}
	sort.Strings(incomplete)
	sort.Strings(complete)

	fmt.Fprintf(w, "incomplete: %s\n", joinOrNone(incomplete))
	fmt.Fprintf(w, "complete:   %s\n", joinOrNone(complete))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func countFailures(statuses map[string]model.Status) int {
	n := 0
	for _, status := range statuses {
		if status.IsFailure() {
			n++
		}
	}
	return n
}
