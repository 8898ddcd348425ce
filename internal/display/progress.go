package display

import (
	"fmt"
	"io"
)

// ProgressIndicator manages multi-step progress display with ANSI colors.
type ProgressIndicator struct {
	writer  io.Writer
	total   int
	current int
}

// NewProgressIndicator creates a new progress indicator for total items.
func NewProgressIndicator(w io.Writer, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer: w,
		total:  total,
	}
}

// Start displays the header message.
func (p *ProgressIndicator) Start(verb string) {
	fmt.Fprintf(p.writer, "%s %d step(s)...\n", verb, p.total)
}

// Step displays progress for the current item: [N/Total] name (blue).
func (p *ProgressIndicator) Step(name string) {
	p.current++
	fmt.Fprintf(p.writer, "\x1b[34m  [%d/%d] %s\x1b[0m\n", p.current, p.total, name)
}

// Complete displays a success message with a green checkmark.
func (p *ProgressIndicator) Complete() {
	fmt.Fprintf(p.writer, "\x1b[32m✓\x1b[0m %d step(s) processed\n", p.total)
}
