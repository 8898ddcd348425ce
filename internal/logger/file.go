package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/orchestrator"
	"github.com/cworthy-ocean/cstarorc/internal/planner"
)

var _ orchestrator.Logger = (*FileLogger)(nil)

// FileLogger logs orchestrator events to files under a run's log
// directory (LogDir in config.Config). It creates a timestamped
// per-run log file, a per-step detail log under steps/, and maintains a
// latest.log symlink pointing at the most recent run. It is thread-safe
// and implements orchestrator.Logger. It supports log level filtering to
// control message verbosity.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	stepsDir string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a new FileLogger that writes to .cstarorc/logs/.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink. Uses default
// log level "info".
func NewFileLogger() (*FileLogger, error) {
	logDir := filepath.Join(".cstarorc", "logs")
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDir creates a new FileLogger with a custom log
// directory. Uses default log level "info".
func NewFileLoggerWithDir(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom log
// directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	stepsDir := filepath.Join(logDir, "steps")
	if err := os.MkdirAll(stepsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create steps directory: %w", err)
	}

	ts := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", ts))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		stepsDir: stepsDir,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== cstarorc run log ===\n")
	logger.writeRunLog(fmt.Sprintf("started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message.
func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) { fl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) { fl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(normalizeLogLevel(level)) {
		return
	}
	formatted := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
	fl.writeRunLog(formatted)
}

// LogCycleStart logs the set of step names being processed this cycle.
func (fl *FileLogger) LogCycleStart(mode planner.RunMode, open []string) {
	if !fl.shouldLog("info") || len(open) == 0 {
		return
	}
	modeName := "monitor"
	if mode == planner.Schedule {
		modeName = "schedule"
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] cycle processing %d step(s)\n", time.Now().Format("15:04:05"), modeName, len(open)))
}

// LogStepLaunched logs a step's first submission to its launcher and
// opens/truncates that step's per-step detail log.
func (fl *FileLogger) LogStepLaunched(step string) {
	if fl.shouldLog("info") {
		fl.writeRunLog(fmt.Sprintf("[%s] launched step: %s\n", time.Now().Format("15:04:05"), step))
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()
	path := filepath.Join(fl.stepsDir, fmt.Sprintf("%s.log", step))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "=== step %s ===\nlaunched at: %s\n", step, time.Now().Format(time.RFC3339))
}

// LogStepStatus logs a step's status after this cycle's launch-or-query,
// appending to the step's detail log.
func (fl *FileLogger) LogStepStatus(step string, status model.Status) {
	if fl.shouldLog("debug") {
		fl.writeRunLog(fmt.Sprintf("[%s] %s: %s\n", time.Now().Format("15:04:05"), step, status))
	}
	fl.appendStepLog(step, fmt.Sprintf("[%s] status: %s\n", time.Now().Format("15:04:05"), status))
}

// LogStepFailed logs a step reaching Status.Failed.
func (fl *FileLogger) LogStepFailed(step string) {
	if fl.shouldLog("warn") {
		fl.writeRunLog(fmt.Sprintf("[%s] step failed: %s\n", time.Now().Format("15:04:05"), step))
	}
}

// LogCancellation logs a step cancelled as part of the failure cascade.
func (fl *FileLogger) LogCancellation(step string) {
	if fl.shouldLog("warn") {
		fl.writeRunLog(fmt.Sprintf("[%s] cancelling step: %s\n", time.Now().Format("15:04:05"), step))
	}
	fl.appendStepLog(step, fmt.Sprintf("[%s] cancelled\n", time.Now().Format("15:04:05")))
}

// LogCycleComplete logs how long the cycle took.
func (fl *FileLogger) LogCycleComplete(duration time.Duration) {
	if fl.shouldLog("debug") {
		fl.writeRunLog(fmt.Sprintf("[%s] cycle complete in %s\n", time.Now().Format("15:04:05"), duration.Round(time.Millisecond)))
	}
}

func (fl *FileLogger) appendStepLog(step, content string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	path := filepath.Join(fl.stepsDir, fmt.Sprintf("%s.log", step))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	f.WriteString(content)
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
