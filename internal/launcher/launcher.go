// Package launcher implements the submit/query/cancel contract every
// execution backend must satisfy, with three reference backends: a local
// OS process, a batch-scheduler CLI, and a managed task-service HTTP API.
// An os/exec
// wrapping idiom grounds the subprocess-invocation style shared by the
// local and batch launchers; the contract shape itself is grounded on
// cstar/orchestration/orchestration.py's
// Launcher protocol.
package launcher

import (
	"context"
	"fmt"

	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// Launcher is the capability set {launch, query_status, cancel} shared by
// every backend. This favors interface dispatch over an inheritance chain;
// the three launchers below share only this contract, never state.
type Launcher interface {
	// Launch submits step for execution, given the handles of its already
	// submitted dependencies (possibly empty). A cached hit for the
	// current (run_id, step_name, phase=submit) key returns the prior
	// handle without resubmitting.
	Launch(ctx context.Context, step *model.Step, depHandles []model.Handle) (*model.Task, error)
	// QueryStatus maps the backend's live state into the canonical
	// lattice. Safe to call at any rate; never mutates backend state.
	QueryStatus(ctx context.Context, step *model.Step, task *model.Task) (model.Status, error)
	// Cancel makes a best-effort attempt to terminate task. It never
	// returns an error to the caller: failures are not logged, and the
	// task is returned with its last-observed status unchanged.
	Cancel(ctx context.Context, task *model.Task) *model.Task
}

// SubmitError wraps a backend rejection of a submission: the orchestrator
// marks the node Failed and begins the cancel cascade.
type SubmitError struct {
	Step string
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("launcher: submit failed for step %q: %v", e.Step, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// QueryError wraps a transient failure to observe status. The orchestrator
// does not log it: the task keeps its last status and is queried again
// next cycle; it is never terminal by itself.
type QueryError struct {
	Step string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("launcher: query failed for step %q: %v", e.Step, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
