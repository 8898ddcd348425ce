package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/cworthy-ocean/cstarorc/internal/model"
)

// colorScheme defines consistent colors for different metric types.
// Green: success/positive metrics
// Red: failure/error metrics
// Yellow: warning/threshold metrics
// Cyan: labels and identifiers
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

// newColorScheme creates the standard color scheme for metrics.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

// formatColorizedMetric formats a single metric with colorized label and value.
// Label is colored cyan, value is colored based on the metric type and value.
// Format: "label: value"
func formatColorizedMetric(label string, value interface{}, scheme *colorScheme) string {
	labelColored := scheme.label.Sprint(label)
	valueColored := scheme.value.Sprintf("%v", value)
	return fmt.Sprintf("%s: %s", labelColored, valueColored)
}

// formatColorizedStatusTally formats a status->count tally for a cycle
// summary line, color-coded by outcome: done/submitted/running in green,
// cancelled in yellow, failed in red. Returns empty string if tally is
// empty or all-zero.
func formatColorizedStatusTally(tally map[model.Status]int) string {
	if len(tally) == 0 {
		return ""
	}

	scheme := newColorScheme()
	var parts []string

	if n := tally[model.Done]; n > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.success.Sprint("done"), scheme.value.Sprintf("%d", n)))
	}
	if n := tally[model.Running] + tally[model.Ending]; n > 0 {
		parts = append(parts, formatColorizedMetric("running", n, scheme))
	}
	if n := tally[model.Submitted]; n > 0 {
		parts = append(parts, formatColorizedMetric("submitted", n, scheme))
	}
	if n := tally[model.Cancelled]; n > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.warn.Sprint("cancelled"), scheme.warn.Sprintf("%d", n)))
	}
	if n := tally[model.Failed]; n > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.fail.Sprint("failed"), scheme.fail.Sprintf("%d", n)))
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}
