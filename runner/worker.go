// Package runner turns a requested event count into engine events and
// drives each one through a worker's transport pipeline.
package runner

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/phoswich/monitoring"
	"github.com/sarchlab/phoswich/output"
	"github.com/sarchlab/phoswich/sim"
	"github.com/sarchlab/phoswich/source"
	"github.com/sarchlab/phoswich/tally"
	"github.com/sarchlab/phoswich/transport"
)

// A Worker owns one event pipeline end to end: generator, stepper, tally
// and writer. Workers never share mutable state, so the parallel engine
// can run one event per worker concurrently; the mutex inside the output
// layer is the only cross-worker lock.
type Worker struct {
	ID int

	Generator *source.Generator
	Stepper   *transport.Stepper
	Tally     *tally.EventTally
	Writer    *output.Writer

	// Progress renders the terminal bar. Only the first worker of a run
	// holds one, so the line never interleaves with itself.
	Progress *source.Progress

	// Bar mirrors the event count for the HTTP monitor.
	Bar *monitoring.ProgressBar

	// Verbosity at 1 or higher prints the per-event summary block.
	Verbosity int

	// PrintEvery announces every Nth event start when positive.
	PrintEvery int

	// RunID labels the per-event summary blocks.
	RunID int

	// Out receives event announcements and summaries, stdout when nil.
	Out io.Writer

	eventsDone int
}

// Name identifies the worker on the monitor API.
func (w *Worker) Name() string {
	return fmt.Sprintf("Worker%d", w.ID)
}

// Handle runs one primary particle event start to finish.
func (w *Worker) Handle(e sim.Event) error {
	evt, ok := e.(primaryEvent)
	if !ok {
		return fmt.Errorf("worker %d cannot handle event %T", w.ID, e)
	}

	if w.Bar != nil {
		w.Bar.IncrementInProgress(1)
	}

	if w.PrintEvery > 0 && evt.eventID%w.PrintEvery == 0 {
		fmt.Fprintf(w.console(), "--> Event %d starts.\n", evt.eventID)
	}

	primary := w.Generator.GeneratePrimary()
	w.Stepper.RunEvent(primary)

	if w.Verbosity > 0 {
		w.Tally.Report(w.console(), w.RunID, evt.eventID)
	}

	w.Writer.WriteEvent(evt.eventID, w.Tally)

	w.eventsDone++
	if w.Progress != nil {
		w.Progress.Advance(time.Now())
	}
	if w.Bar != nil {
		w.Bar.MoveInProgressToFinished(1)
	}

	return nil
}

// EventsDone returns how many events the worker has finished.
func (w *Worker) EventsDone() int {
	return w.eventsDone
}

func (w *Worker) console() io.Writer {
	if w.Out == nil {
		return os.Stdout
	}
	return w.Out
}
