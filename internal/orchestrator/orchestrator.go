// Package orchestrator drives a Planner and a Launcher through the
// per-cycle submit/query/cancel algorithm that runs a workplan to
// completion, grounded on cstar/orchestration/orchestration.py's Orchestrator.run/
// process_node/update_planner_state/_cancel. Concurrent fan-out within a
// cycle follows the internal/executor/wave.go semaphore +
// WaitGroup + result-channel idiom, generalized from task-waves to
// DAG-node cycles.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cworthy-ocean/cstarorc/internal/launcher"
	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/planner"
)

// ErrExpectationFailed signals a step's task reached Status.Failed during a
// cycle, matching CstarExpectationFailed in the original source. Run never
// returns it; the cancel cascade is triggered by the failed names that
// applyResults reports.
var ErrExpectationFailed = errors.New("orchestrator: step task failed")

// Logger receives progress notifications as the orchestrator advances.
// Implementations can log to console or file; nil is valid and silences
// all notifications.
type Logger interface {
	LogCycleStart(mode planner.RunMode, open []string)
	LogStepLaunched(step string)
	LogStepStatus(step string, status model.Status)
	LogStepFailed(step string)
	LogCancellation(step string)
	LogCycleComplete(duration time.Duration)
}

// Orchestrator manages the execution of a Workplan's planned DAG against a
// single Launcher backend.
type Orchestrator struct {
	Planner *planner.Planner
	Launch  launcher.Launcher
	Logger  Logger

	// MaxConcurrency bounds the number of nodes processed at once within a
	// cycle; 0 means unbounded (one goroutine per open node), matching
	// wave.go's default when MaxConcurrency <= 0.
	MaxConcurrency int
}

type nodeResult struct {
	name string
	task *model.Task
	err  error
}

// Run executes exactly one cycle: it computes the open set, processes
// every open node concurrently (launch-or-query), updates planner state,
// and on any Failed result synchronously cancels every node processed this
// cycle that is still running. It returns a snapshot of every node's
// status after the cycle.
//
// A nil open set (every node closed, or a closed node carries a failure)
// ends the run: Run returns the final status snapshot and does nothing
// else.
func (o *Orchestrator) Run(ctx context.Context, mode planner.RunMode) (map[string]model.Status, error) {
	open, ok := o.Planner.OpenSet(mode)
	if !ok {
		return o.Planner.StatusMap(), nil
	}

	if o.Logger != nil {
		o.Logger.LogCycleStart(mode, open)
	}
	cycleStart := time.Now()

	results := o.processAll(ctx, open)

	failed := o.applyResults(results)

	if len(failed) > 0 {
		o.cancelRunning(ctx, results)
	}

	if o.Logger != nil {
		o.Logger.LogCycleComplete(time.Since(cycleStart))
	}

	return o.Planner.StatusMap(), nil
}

// RunToCompletion repeatedly calls Run until the open set closes (Run
// returns with no further progress possible), honoring ctx cancellation
// between cycles. When pollInterval is positive it sleeps that long after
// every cycle that leaves the run open, in either mode, so it does not spin
// on in-progress tasks; Schedule mode normally completes in very few
// cycles since prerequisites only need to reach Submitted.
func (o *Orchestrator) RunToCompletion(ctx context.Context, mode planner.RunMode, pollInterval time.Duration) (map[string]model.Status, error) {
	var last map[string]model.Status
	for {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		statuses, err := o.Run(ctx, mode)
		last = statuses
		if err != nil {
			return last, err
		}

		if _, ok := o.Planner.OpenSet(mode); !ok {
			return last, nil
		}

		if pollInterval > 0 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(pollInterval):
			}
		}
	}
}

func (o *Orchestrator) processAll(ctx context.Context, open []string) map[string]nodeResult {
	concurrency := o.MaxConcurrency
	if concurrency <= 0 || concurrency > len(open) {
		concurrency = len(open)
	}
	if concurrency == 0 {
		return map[string]nodeResult{}
	}

	semaphore := make(chan struct{}, concurrency)
	resultsCh := make(chan nodeResult, len(open))

	var wg sync.WaitGroup
	for _, name := range open {
		select {
		case <-ctx.Done():
			resultsCh <- nodeResult{name: name, err: ctx.Err()}
			continue
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			task, err := o.processNode(ctx, name)
			resultsCh <- nodeResult{name: name, task: task, err: err}
		}(name)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	out := make(map[string]nodeResult, len(open))
	for r := range resultsCh {
		out[r.name] = r
	}
	return out
}

// processNode launches a node's step or, if already launched, queries its
// current status. It returns (nil, nil) when the node's dependency handles
// are not all yet available (some predecessor hasn't been submitted),
// matching process_node's "abort launch, retry next cycle" behavior.
func (o *Orchestrator) processNode(ctx context.Context, name string) (*model.Task, error) {
	node := o.Planner.Get(name)
	if node == nil {
		return nil, fmt.Errorf("orchestrator: unknown node %q", name)
	}

	depHandles, ok := o.locateDependencyHandles(name)
	if !ok {
		return nil, nil
	}

	if node.Task != nil {
		status, err := o.Launch.QueryStatus(ctx, node.Step, node.Task)
		if err != nil {
			return node.Task, err
		}
		node.Task.Status = status
		return node.Task, nil
	}

	task, err := o.Launch.Launch(ctx, node.Step, depHandles)
	if err != nil {
		return nil, err
	}
	if o.Logger != nil {
		o.Logger.LogStepLaunched(name)
	}
	return task, nil
}

// locateDependencyHandles returns the submitted handles of name's
// dependencies. ok is false if any dependency has not yet been submitted
// (no Task recorded), in which case launch must be deferred to a later
// cycle, mirroring _locate_dependencies.
func (o *Orchestrator) locateDependencyHandles(name string) (handles []model.Handle, ok bool) {
	node := o.Planner.Get(name)
	deps := node.Step.DependsOn.Sorted()
	if len(deps) == 0 {
		return []model.Handle{}, true
	}

	handles = make([]model.Handle, 0, len(deps))
	for _, dep := range deps {
		depNode := o.Planner.Get(dep)
		if depNode == nil || depNode.Task == nil {
			return nil, false
		}
		handles = append(handles, depNode.Task.Handle)
	}
	return handles, true
}

// applyResults writes every processed node's task/status back into the
// planner and returns the names whose task just reached Status.Failed. A
// nil task with a non-nil, non-context error means Launch rejected the node
// outright (a QueryStatus error keeps the node's existing task); that converts
// to a synthetic Failed task here rather than being dropped, so the node
// stops being re-offered by OpenSet and the cancel cascade runs, matching
// "submission failures convert to a node-level Failed status."
func (o *Orchestrator) applyResults(results map[string]nodeResult) []string {
	var failed []string
	for name, r := range results {
		switch {
		case r.task != nil:
			o.Planner.SetTask(name, r.task)
			o.Planner.SetStatus(name, r.task.Status)

			if o.Logger != nil {
				o.Logger.LogStepStatus(name, r.task.Status)
			}

			if r.task.Status == model.Failed {
				if o.Logger != nil {
					o.Logger.LogStepFailed(name)
				}
				failed = append(failed, name)
			}

		case r.err != nil && !errors.Is(r.err, context.Canceled) && !errors.Is(r.err, context.DeadlineExceeded):
			node := o.Planner.Get(name)
			failedTask := &model.Task{Step: node.Step, Status: model.Failed}
			o.Planner.SetTask(name, failedTask)
			o.Planner.SetStatus(name, model.Failed)

			if o.Logger != nil {
				o.Logger.LogStepStatus(name, model.Failed)
				o.Logger.LogStepFailed(name)
			}
			failed = append(failed, name)

		default:
			// r.task == nil, r.err == nil: a dependency isn't submitted
			// yet, deferred to the next cycle.
		}
	}
	return failed
}

// cancelRunning cancels every node from this cycle's result set that is
// still running after applyResults, matching _cancel's scope: only tasks
// touched this cycle, not the whole graph.
func (o *Orchestrator) cancelRunning(ctx context.Context, results map[string]nodeResult) {
	type cancelJob struct {
		name string
		task *model.Task
	}
	var jobs []cancelJob
	for name, r := range results {
		if r.task != nil && r.task.Status.IsRunning() {
			jobs = append(jobs, cancelJob{name: name, task: r.task})
		}
	}
	if len(jobs) == 0 {
		return
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, job := range jobs {
		wg.Add(1)
		go func(job cancelJob) {
			defer wg.Done()
			cancelled := o.Launch.Cancel(ctx, job.task)
			mu.Lock()
			defer mu.Unlock()
			o.Planner.SetTask(job.name, cancelled)
			o.Planner.SetStatus(job.name, cancelled.Status)
			if o.Logger != nil {
				o.Logger.LogCancellation(job.name)
			}
		}(job)
	}
	wg.Wait()
}
