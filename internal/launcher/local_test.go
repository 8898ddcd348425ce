package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/store"
)

func openTestCache(t *testing.T) *store.Cache {
	t.Helper()
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func waitForStatus(t *testing.T, l *Local, step *model.Step, task *model.Task, want model.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, err := l.QueryStatus(context.Background(), step, task)
		require.NoError(t, err)
		if status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("step %q did not reach status %s before deadline", step.Name, want)
}

func TestLocalLaunchRunsToDone(t *testing.T) {
	ctx := context.Background()
	l := &Local{
		StateHome: t.TempDir(),
		RunID:     "run-1",
		Cache:     openTestCache(t),
		Converter: func(step *model.Step) string { return "exit 0" },
	}
	step := &model.Step{Name: "spinup", Application: "instant"}

	task, err := l.Launch(ctx, step, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Submitted, task.Status)

	waitForStatus(t, l, step, task, model.Done)
}

func TestLocalLaunchReportsFailure(t *testing.T) {
	ctx := context.Background()
	l := &Local{
		StateHome: t.TempDir(),
		RunID:     "run-1",
		Cache:     openTestCache(t),
		Converter: func(step *model.Step) string { return "exit 7" },
	}
	step := &model.Step{Name: "forecast", Application: "instant"}

	task, err := l.Launch(ctx, step, nil)
	require.NoError(t, err)

	waitForStatus(t, l, step, task, model.Failed)
}

func TestLocalLaunchIsResumableAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)
	stateHome := t.TempDir()
	step := &model.Step{Name: "spinup", Application: "instant"}

	first := &Local{StateHome: stateHome, RunID: "run-1", Cache: cache, Converter: func(step *model.Step) string { return "exit 0" }}
	task1, err := first.Launch(ctx, step, nil)
	require.NoError(t, err)

	second := &Local{StateHome: stateHome, RunID: "run-1", Cache: cache, Converter: func(step *model.Step) string {
		t.Fatal("converter should not be invoked on a cache hit")
		return ""
	}}
	task2, err := second.Launch(ctx, step, nil)
	require.NoError(t, err)
	assert.Equal(t, task1.Handle, task2.Handle)
}

func TestLocalCancelSendsSignalAndMarksCancelled(t *testing.T) {
	ctx := context.Background()
	l := &Local{
		StateHome: t.TempDir(),
		RunID:     "run-1",
		Cache:     openTestCache(t),
		Converter: func(step *model.Step) string { return "sleep 5" },
	}
	step := &model.Step{Name: "long-running", Application: "instant"}

	task, err := l.Launch(ctx, step, nil)
	require.NoError(t, err)

	cancelled := l.Cancel(ctx, task)
	assert.Equal(t, model.Cancelled, cancelled.Status)
}

func TestLocalQueryStatusFailsWhenProcessVanishesWithoutStatusFile(t *testing.T) {
	l := &Local{StateHome: t.TempDir(), RunID: "run-1", Cache: openTestCache(t)}
	step := &model.Step{Name: "ghost"}
	task := &model.Task{Step: step, Handle: model.Handle("999999999")}

	status, err := l.QueryStatus(context.Background(), step, task)
	require.NoError(t, err)
	assert.Equal(t, model.Failed, status)
}

func TestLocalQueryStatusFailsWhenPidWasRecycled(t *testing.T) {
	l := &Local{StateHome: t.TempDir(), RunID: "run-1", Cache: openTestCache(t)}
	step := &model.Step{Name: "recycled"}

	// os.Getpid() is alive (it's this test binary) but its recorded start
	// time is set far in the past, standing in for an unrelated process
	// that reused the original wrapper's pid after it exited without
	// writing a status file.
	handle := model.Handle(fmt.Sprintf("%d:%d", os.Getpid(), time.Now().Add(-time.Hour).UnixNano()))
	task := &model.Task{Step: step, Handle: handle}

	status, err := l.QueryStatus(context.Background(), step, task)
	require.NoError(t, err)
	assert.Equal(t, model.Failed, status)
}

func TestLocalQueryStatusTreatsZeroStartTimeAsUnknown(t *testing.T) {
	l := &Local{StateHome: t.TempDir(), RunID: "run-1", Cache: openTestCache(t)}
	step := &model.Step{Name: "legacy-handle"}

	// A bare "<pid>" handle (no start time recorded) must not be treated
	// as a mismatch; it just skips the pid-reuse check.
	task := &model.Task{Step: step, Handle: model.Handle(strconv.Itoa(os.Getpid()))}

	status, err := l.QueryStatus(context.Background(), step, task)
	require.NoError(t, err)
	assert.Equal(t, model.Running, status)
}
