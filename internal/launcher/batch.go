package launcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cworthy-ocean/cstarorc/internal/converter"
	"github.com/cworthy-ocean/cstarorc/internal/filelock"
	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/store"
)

// Batch submits steps to a cluster batch scheduler via its CLI (the
// sbatch/squeue/scancel family), grounded on
// original_source/.../launch/slurm.py for the status-mapping table and
// the native-dependency submission idiom, and on the same
// os/exec-wrapping style used throughout this package.
type Batch struct {
	StateHome string
	RunID     string
	Cache     *store.Cache
	Converter converter.Func

	Account      string
	Queue        string
	MaxWalltime  string

	// SubmitCmd, StatusCmd, CancelCmd name the scheduler's CLI tools. They
	// default to sbatch/squeue/scancel but are overridable for testing
	// against a fake scheduler binary.
	SubmitCmd string
	StatusCmd string
	CancelCmd string
}

var _ Launcher = (*Batch)(nil)

func (b *Batch) submitTool() string {
	if b.SubmitCmd != "" {
		return b.SubmitCmd
	}
	return "sbatch"
}

func (b *Batch) statusTool() string {
	if b.StatusCmd != "" {
		return b.StatusCmd
	}
	return "squeue"
}

func (b *Batch) cancelTool() string {
	if b.CancelCmd != "" {
		return b.CancelCmd
	}
	return "scancel"
}

func (b *Batch) scriptPath(stepName string) string {
	return filepath.Join(b.StateHome, b.RunID, stepName, "work", "script.sh")
}

// Launch writes the job script and submits it with --dependency=afterok
// on every dependency job id, so the scheduler enforces ordering natively.
func (b *Batch) Launch(ctx context.Context, step *model.Step, depHandles []model.Handle) (*model.Task, error) {
	key := store.Key{RunID: b.RunID, Step: step.Name, Phase: store.PhaseSubmit}
	if cached, ok, err := b.Cache.Get(ctx, key); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	} else if ok {
		return &model.Task{Step: step, Status: model.Submitted, Handle: model.Handle(cached)}, nil
	}

	scriptPath := b.scriptPath(step.Name)
	if err := os.MkdirAll(filepath.Dir(scriptPath), 0o755); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}
	script := fmt.Sprintf("#!/bin/sh\n#SBATCH --account=%s\n#SBATCH --partition=%s\n#SBATCH --time=%s\n%s\n",
		b.Account, b.Queue, b.MaxWalltime, b.Converter(step))
	if err := filelock.AtomicWrite(scriptPath, []byte(script)); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}

	args := []string{"--parsable"}
	if len(depHandles) > 0 {
		ids := make([]string, len(depHandles))
		for i, h := range depHandles {
			ids[i] = string(h)
		}
		args = append(args, "--dependency=afterok:"+strings.Join(ids, ":"))
	}
	args = append(args, scriptPath)

	out, err := exec.CommandContext(ctx, b.submitTool(), args...).Output()
	if err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}
	jobID := strings.TrimSpace(string(out))

	if err := b.Cache.Put(ctx, key, jobID); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}

	return &model.Task{Step: step, Status: model.Submitted, Handle: model.Handle(jobID)}, nil
}

// QueryStatus asks the scheduler for the job's state and maps it into the
// canonical status lattice.
func (b *Batch) QueryStatus(ctx context.Context, step *model.Step, task *model.Task) (model.Status, error) {
	out, err := exec.CommandContext(ctx, b.statusTool(), "-h", "-j", string(task.Handle), "-o", "%T").Output()
	if err != nil {
		return model.Unsubmitted, &QueryError{Step: step.Name, Err: err}
	}
	return mapBatchState(strings.TrimSpace(string(out))), nil
}

func mapBatchState(state string) model.Status {
	switch strings.ToUpper(state) {
	case "PENDING", "RUNNING", "HELD", "ENDING":
		return model.Running
	case "COMPLETED":
		return model.Done
	case "CANCELLED":
		return model.Cancelled
	case "FAILED":
		return model.Failed
	default:
		return model.Unsubmitted
	}
}

// Cancel issues the scheduler's cancel tool; failures are not logged and
// the task is returned unchanged.
func (b *Batch) Cancel(ctx context.Context, task *model.Task) *model.Task {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.cancelTool(), string(task.Handle))
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return task
	}
	task.Status = model.Cancelled
	return task
}
