package cli

import (
	"context"
	"io"

	"github.com/roach88/tinytest/internal/runner"
)

// consoleReporter streams one line per outcome as the run produces it.
type consoleReporter struct {
	w       io.Writer
	verbose bool
}

func (c *consoleReporter) TestFinished(_ context.Context, o runner.Outcome) {
	writeOutcome(c.w, o, c.verbose)
}

// RunFinished is a no-op; the run command prints the recap once every other
// reporter has finished.
func (c *consoleReporter) RunFinished(context.Context, *runner.Report) {}
