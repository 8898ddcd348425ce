package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cworthy-ocean/cstarorc/internal/launcher"
	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/planner"
)

var _ launcher.Launcher = (*fakeLauncher)(nil)

// fakeLauncher is an in-memory Launcher double: Launch immediately succeeds
// with a sequential handle and a caller-controlled status, QueryStatus
// returns whatever status the test has set for the step, Cancel marks the
// task Cancelled. Safe for concurrent use since the orchestrator fans out
// across nodes.
type fakeLauncher struct {
	mu           sync.Mutex
	nextHandle   int
	launchCount  map[string]int
	statusByStep map[string]model.Status
	failOnLaunch map[string]bool
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{
		launchCount:  make(map[string]int),
		statusByStep: make(map[string]model.Status),
		failOnLaunch: make(map[string]bool),
	}
}

func (f *fakeLauncher) Launch(ctx context.Context, step *model.Step, deps []model.Handle) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launchCount[step.Name]++
	if f.failOnLaunch[step.Name] {
		return nil, fmt.Errorf("fake: launch rejected for %s", step.Name)
	}
	f.nextHandle++
	status := f.statusByStep[step.Name]
	if status == model.Unsubmitted {
		status = model.Submitted
	}
	return &model.Task{Step: step, Status: status, Handle: model.Handle(fmt.Sprintf("h%d", f.nextHandle))}, nil
}

func (f *fakeLauncher) QueryStatus(ctx context.Context, step *model.Step, task *model.Task) (model.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.statusByStep[step.Name]; ok {
		return s, nil
	}
	return task.Status, nil
}

func (f *fakeLauncher) Cancel(ctx context.Context, task *model.Task) *model.Task {
	task.Status = model.Cancelled
	return task
}

func (f *fakeLauncher) setStatus(step string, status model.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusByStep[step] = status
}

func chainWorkplan() *model.Workplan {
	return &model.Workplan{
		Name:        "chain",
		Description: "linear chain A -> B -> C",
		Steps: []model.Step{
			{Name: "A", Application: "sleep", Blueprint: "a.yaml"},
			{Name: "B", Application: "sleep", Blueprint: "b.yaml", DependsOn: model.NewStringSet("A")},
			{Name: "C", Application: "sleep", Blueprint: "c.yaml", DependsOn: model.NewStringSet("B")},
		},
	}
}

func TestRunSchedulesOneLevelPerCycle(t *testing.T) {
	p, err := planner.New(chainWorkplan())
	require.NoError(t, err)

	fl := newFakeLauncher()
	o := &Orchestrator{Planner: p, Launch: fl}

	statuses, err := o.Run(context.Background(), planner.Schedule)
	require.NoError(t, err)
	require.Equal(t, model.Submitted, statuses["A"])
	require.Equal(t, model.Unsubmitted, statuses["B"])

	statuses, err = o.Run(context.Background(), planner.Schedule)
	require.NoError(t, err)
	require.Equal(t, model.Submitted, statuses["B"])
	require.Equal(t, model.Unsubmitted, statuses["C"])

	statuses, err = o.Run(context.Background(), planner.Schedule)
	require.NoError(t, err)
	require.Equal(t, model.Submitted, statuses["C"])

	require.Equal(t, 1, fl.launchCount["A"])
	require.Equal(t, 1, fl.launchCount["B"])
	require.Equal(t, 1, fl.launchCount["C"])
}

func TestRunToCompletionDrainsMonitorMode(t *testing.T) {
	p, err := planner.New(chainWorkplan())
	require.NoError(t, err)

	fl := newFakeLauncher()
	fl.setStatus("A", model.Done)
	fl.setStatus("B", model.Done)
	fl.setStatus("C", model.Done)

	o := &Orchestrator{Planner: p, Launch: fl}
	statuses, err := o.RunToCompletion(context.Background(), planner.Monitor, 0)
	require.NoError(t, err)
	require.Equal(t, model.Done, statuses["A"])
	require.Equal(t, model.Done, statuses["B"])
	require.Equal(t, model.Done, statuses["C"])
}

func TestFailureCancelsSiblingsStillRunning(t *testing.T) {
	wp := &model.Workplan{
		Name:        "diamond",
		Description: "A -> {B, C}",
		Steps: []model.Step{
			{Name: "A", Application: "sleep", Blueprint: "a.yaml"},
			{Name: "B", Application: "sleep", Blueprint: "b.yaml", DependsOn: model.NewStringSet("A")},
			{Name: "C", Application: "sleep", Blueprint: "c.yaml", DependsOn: model.NewStringSet("A")},
		},
	}
	p, err := planner.New(wp)
	require.NoError(t, err)

	fl := newFakeLauncher()
	fl.setStatus("A", model.Done)
	o := &Orchestrator{Planner: p, Launch: fl}

	_, err = o.Run(context.Background(), planner.Monitor)
	require.NoError(t, err)
	require.Equal(t, model.Done, p.Get("A").Status)

	fl.setStatus("B", model.Failed)
	fl.setStatus("C", model.Running)

	statuses, err := o.Run(context.Background(), planner.Monitor)
	require.NoError(t, err)
	require.Equal(t, model.Failed, statuses["B"])
	require.Equal(t, model.Cancelled, statuses["C"])
}

func TestLaunchRejectionFailsNodeAndCancelsSiblings(t *testing.T) {
	wp := &model.Workplan{
		Name:        "diamond",
		Description: "A -> {B, C}",
		Steps: []model.Step{
			{Name: "A", Application: "sleep", Blueprint: "a.yaml"},
			{Name: "B", Application: "sleep", Blueprint: "b.yaml", DependsOn: model.NewStringSet("A")},
			{Name: "C", Application: "sleep", Blueprint: "c.yaml", DependsOn: model.NewStringSet("A")},
		},
	}
	p, err := planner.New(wp)
	require.NoError(t, err)

	fl := newFakeLauncher()
	fl.setStatus("A", model.Done)
	o := &Orchestrator{Planner: p, Launch: fl}

	_, err = o.Run(context.Background(), planner.Monitor)
	require.NoError(t, err)
	require.Equal(t, model.Done, p.Get("A").Status)

	fl.failOnLaunch["B"] = true
	fl.setStatus("C", model.Running)

	statuses, err := o.Run(context.Background(), planner.Monitor)
	require.NoError(t, err)
	require.Equal(t, model.Failed, statuses["B"])
	require.Equal(t, model.Cancelled, statuses["C"])

	statuses, err = o.Run(context.Background(), planner.Monitor)
	require.NoError(t, err)
	require.Equal(t, model.Failed, statuses["B"], "a failed node must stay Failed and not be re-offered for launch")
	require.Equal(t, 1, fl.launchCount["B"], "a rejected submission must not be retried forever")
}

func TestProcessNodeDefersWhenDependencyUnsubmitted(t *testing.T) {
	p, err := planner.New(chainWorkplan())
	require.NoError(t, err)
	fl := newFakeLauncher()
	o := &Orchestrator{Planner: p, Launch: fl}

	task, err := o.processNode(context.Background(), "B")
	require.NoError(t, err)
	require.Nil(t, task)
	require.Equal(t, 0, fl.launchCount["B"])
}
