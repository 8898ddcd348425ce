package model

// Handle is the opaque backend identity of a submitted task: a PID for the
// local launcher, a job id for the batch-scheduler launcher, a task id for
// the managed-service launcher. It must be stable across process restarts
// within the same run_id so a resumed run can recover it from the cache
// store without re-submitting.
type Handle string

// Task is a launched step: its current status, a back-reference to the
// Step that produced it, and the backend handle the launcher returned on
// submit.
type Task struct {
	Step   *Step
	Status Status
	Handle Handle
}
