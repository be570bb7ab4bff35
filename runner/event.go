package runner

import "github.com/sarchlab/phoswich/sim"

// A primaryEvent triggers one primary particle event on its owning worker.
// Events of the same round share a virtual time, so the parallel engine
// runs them concurrently while the serial engine keeps strict order.
type primaryEvent struct {
	eventID int
	worker  *Worker
	round   sim.VTimeInSec
}

// Time returns the event's round.
func (e primaryEvent) Time() sim.VTimeInSec {
	return e.round
}

// Handler returns the worker that owns the event.
func (e primaryEvent) Handler() sim.Handler {
	return e.worker
}

// IsSecondary always reports false.
func (e primaryEvent) IsSecondary() bool {
	return false
}

// Plan deals event IDs to the workers round-robin and schedules all of
// them up front, one round per pass over the worker list.
func Plan(scheduler sim.EventScheduler, workers []*Worker, events int) {
	if scheduler == nil {
		panic("plan requires a scheduler")
	}
	if len(workers) == 0 {
		panic("plan requires at least one worker")
	}

	for eventID := 0; eventID < events; eventID++ {
		scheduler.Schedule(primaryEvent{
			eventID: eventID,
			worker:  workers[eventID%len(workers)],
			round:   sim.VTimeInSec(eventID / len(workers)),
		})
	}
}
