// Package logger provides logging implementations for cstarorc's
// orchestrator runs.
//
// The logger package offers structured logging of cycle- and step-level
// progress. Implementations are thread-safe and support various output
// destinations (console, file, etc.). The timestamped, level-filtered,
// color-aware ConsoleLogger core is kept verbatim in idiom, generalized
// from wave/task-result logging to orchestrator cycle/step logging.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/cworthy-ocean/cstarorc/internal/model"
	"github.com/cworthy-ocean/cstarorc/internal/orchestrator"
	"github.com/cworthy-ocean/cstarorc/internal/planner"
)

var _ orchestrator.Logger = (*ConsoleLogger)(nil)

// Log level constants for filtering.
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs orchestrator progress to a writer with timestamps and
// thread safety. All output is prefixed with [HH:MM:SS] timestamps for
// tracking execution flow. It supports log level filtering to control
// message verbosity. Color output is automatically enabled for terminal
// output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	verbose     bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided
// io.Writer. If writer is nil, messages are silently discarded. logLevel
// determines the minimum log level for messages to be output. Valid
// levels: trace, debug, info, warn, error (case-insensitive). If logLevel
// is empty or invalid, defaults to "info". Color output is automatically
// enabled when writing to os.Stdout or os.Stderr with TTY support.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout {
		return isatty.IsTerminal(os.Stdout.Fd())
	}
	if w == os.Stderr {
		return isatty.IsTerminal(os.Stderr.Fd())
	}
	return false
}

// SetVerbose sets verbose mode for step-status logging: when true,
// LogStepStatus includes the step's task handle.
func (cl *ConsoleLogger) SetVerbose(verbose bool) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.verbose = verbose
}

// IsVerbose returns whether verbose mode is enabled.
func (cl *ConsoleLogger) IsVerbose() bool {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	return cl.verbose
}

// normalizeLogLevel converts a log level string to lowercase and
// validates it. Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if validLevels[normalized] {
		return normalized
	}
	return "info"
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

// Infof logs a formatted info-level message.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.LogInfo(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted warning-level message.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.LogWarn(fmt.Sprintf(format, args...))
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}
	cl.writer.Write([]byte(formatted))
}

func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string
	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}
	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// The methods below implement orchestrator.Logger, generalized from the
// prior LogWaveStart/LogWaveComplete/LogTaskResult trio to per-cycle,
// per-step orchestrator events.

// LogCycleStart logs the set of step names the orchestrator is about to
// process this cycle.
func (cl *ConsoleLogger) LogCycleStart(mode planner.RunMode, open []string) {
	if len(open) == 0 {
		return
	}
	modeName := "monitor"
	if mode == planner.Schedule {
		modeName = "schedule"
	}
	cl.LogInfo(fmt.Sprintf("[%s] cycle processing %d step(s): %s", modeName, len(open), strings.Join(open, ", ")))
}

// LogStepLaunched logs a step's first submission to its launcher.
func (cl *ConsoleLogger) LogStepLaunched(step string) {
	cl.LogInfo(fmt.Sprintf("launched step: %s", step))
}

// LogStepStatus logs a step's status after this cycle's launch-or-query.
func (cl *ConsoleLogger) LogStepStatus(step string, status model.Status) {
	icon := statusIcon(status)
	cl.LogDebug(fmt.Sprintf("%s %s: %s", icon, step, status))
}

// LogStepFailed logs a step reaching Status.Failed, the trigger for the
// cancel cascade.
func (cl *ConsoleLogger) LogStepFailed(step string) {
	cl.LogWarn(fmt.Sprintf("step failed: %s", step))
}

// LogCancellation logs a step cancelled as part of the failure cascade.
func (cl *ConsoleLogger) LogCancellation(step string) {
	cl.LogWarn(fmt.Sprintf("cancelling step: %s", step))
}

// LogCycleComplete logs how long the cycle took.
func (cl *ConsoleLogger) LogCycleComplete(duration time.Duration) {
	cl.LogDebug(fmt.Sprintf("cycle complete in %s", duration.Round(time.Millisecond)))
}

func statusIcon(status model.Status) string {
	switch status {
	case model.Done:
		return "✓"
	case model.Failed, model.Cancelled:
		return "✗"
	case model.Running, model.Ending:
		return "▶"
	case model.Submitted:
		return "…"
	default:
		return "·"
	}
}
