package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cworthy-ocean/cstarorc/internal/converter"
	"github.com/cworthy-ocean/cstarorc/internal/filelock"
	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/store"
)

// processStartTimeTolerance bounds how far a pid's recorded and
// currently-observed creation times may drift and still be considered the
// same process, matching the accepted clock-resolution slack.
const processStartTimeTolerance = time.Second

// Local launches steps as detached OS processes, following the same
// os/exec subprocess-wrapping idiom used throughout this package (here it
// wraps whatever command the converter registry produces). The
// submit/query contract is grounded on original_source/.../launch/local.py,
// upgraded to a non-blocking, script+status-file design: launch never
// waits on the process, and query_status reads back a status file.
type Local struct {
	// StateHome is the root directory under which per-run artifacts are
	// written.
	StateHome string
	RunID     string
	Cache     *store.Cache
	Converter converter.Func
}

var _ Launcher = (*Local)(nil)

func (l *Local) stepDir(stepName string) string {
	return filepath.Join(l.StateHome, l.RunID, stepName)
}

func (l *Local) scriptPath(stepName string) string {
	return filepath.Join(l.stepDir(stepName), "work", "script.sh")
}

func (l *Local) logPath(stepName string) string {
	return filepath.Join(l.stepDir(stepName), "logs", stepName+".out")
}

func (l *Local) statusPath(stepName string) string {
	return filepath.Join(l.stepDir(stepName), "logs", stepName+".status")
}

// Launch writes a wrapper script that redirects combined stdout/stderr to
// the step's log file and echoes the exit code to its status file, then
// starts it detached in a new session so it survives the parent's exit.
func (l *Local) Launch(ctx context.Context, step *model.Step, depHandles []model.Handle) (*model.Task, error) {
	key := store.Key{RunID: l.RunID, Step: step.Name, Phase: store.PhaseSubmit}
	if cached, ok, err := l.Cache.Get(ctx, key); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	} else if ok {
		return &model.Task{Step: step, Status: model.Submitted, Handle: model.Handle(cached)}, nil
	}

	cmd := l.Converter(step)

	logPath := l.logPath(step.Name)
	statusPath := l.statusPath(step.Name)
	scriptPath := l.scriptPath(step.Name)

	for _, dir := range []string{filepath.Dir(scriptPath), filepath.Dir(logPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &SubmitError{Step: step.Name, Err: err}
		}
	}

	script := fmt.Sprintf("#!/bin/sh\n{\n%s\n} >%q 2>&1\necho $? >%q\n", cmd, logPath, statusPath)
	if err := filelock.AtomicWrite(scriptPath, []byte(script)); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}
	if err := os.Chmod(scriptPath, 0o755); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}

	proc := exec.Command("/bin/sh", scriptPath)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}
	pid := proc.Process.Pid
	startedAt, _ := processStartTime(pid)
	go proc.Wait() // reap the child; its exit status is read back from the status file, not Wait's return.

	handle := string(encodeHandle(pid, startedAt))
	if err := l.Cache.Put(ctx, key, handle); err != nil {
		return nil, &SubmitError{Step: step.Name, Err: err}
	}

	return &model.Task{Step: step, Status: model.Submitted, Handle: model.Handle(handle)}, nil
}

// QueryStatus inspects the status file first; if absent, falls back to
// checking whether the recorded pid is still alive.
func (l *Local) QueryStatus(ctx context.Context, step *model.Step, task *model.Task) (model.Status, error) {
	statusPath := l.statusPath(step.Name)
	if data, err := os.ReadFile(statusPath); err == nil {
		code := strings.TrimSpace(string(data))
		if code == "" {
			return model.Running, nil
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			return model.Running, nil // partial write, not yet parseable
		}
		if n == 0 {
			return model.Done, nil
		}
		return model.Failed, nil
	}

	pid, recordedStart, ok := decodeHandle(task.Handle)
	if !ok {
		return model.Failed, &QueryError{Step: step.Name, Err: fmt.Errorf("malformed handle %q", task.Handle)}
	}
	if !processAlive(pid) {
		// The process vanished without leaving a status file.
		return model.Failed, nil
	}
	if !recordedStart.IsZero() {
		if currentStart, ok := processStartTime(pid); ok {
			if drift := currentStart.Sub(recordedStart); drift > processStartTimeTolerance || drift < -processStartTimeTolerance {
				// A live pid whose creation time doesn't match the one we
				// recorded at launch belongs to an unrelated process that
				// reused the pid after the original exited.
				return model.Failed, nil
			}
		}
	}
	return model.Running, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 performs existence/permission checks without delivering a
	// signal, the standard Unix liveness probe.
	return proc.Signal(syscall.Signal(0)) == nil
}

// processStartTime returns the OS-recorded creation time of pid. /proc/<pid>
// is created once, at process start, and its mtime is never touched again,
// so it doubles as a start-time marker without parsing /proc/<pid>/stat's
// boot-relative clock-tick field.
func processStartTime(pid int) (time.Time, bool) {
	info, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// encodeHandle packs a pid and its recorded start time into a Handle.
// startedAt may be zero (start time unavailable, e.g. non-Linux or a
// permission error at launch time), in which case QueryStatus's pid-reuse
// check is skipped for that task.
func encodeHandle(pid int, startedAt time.Time) model.Handle {
	if startedAt.IsZero() {
		return model.Handle(strconv.Itoa(pid))
	}
	return model.Handle(fmt.Sprintf("%d:%d", pid, startedAt.UnixNano()))
}

// decodeHandle is encodeHandle's inverse. ok is false only when the pid
// field itself fails to parse; a missing or unparseable start-time field
// just yields a zero startedAt.
func decodeHandle(h model.Handle) (pid int, startedAt time.Time, ok bool) {
	parts := strings.SplitN(string(h), ":", 2)
	pid, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, time.Time{}, false
	}
	if len(parts) == 2 {
		if nsec, err := strconv.ParseInt(parts[1], 10, 64); err == nil && nsec > 0 {
			startedAt = time.Unix(0, nsec)
		}
	}
	return pid, startedAt, true
}

// Cancel sends SIGTERM to the recorded pid. Failures are swallowed:
// cancel never raises.
func (l *Local) Cancel(ctx context.Context, task *model.Task) *model.Task {
	pid, _, ok := decodeHandle(task.Handle)
	if !ok {
		return task
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return task
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return task
	}
	task.Status = model.Cancelled
	return task
}
