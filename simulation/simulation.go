package simulation

import (
	"fmt"
	"os"
	"time"

	"github.com/sarchlab/phoswich/datarecording"
	"github.com/sarchlab/phoswich/monitoring"
	"github.com/sarchlab/phoswich/output"
	"github.com/sarchlab/phoswich/runner"
	"github.com/sarchlab/phoswich/sim"
	"github.com/sarchlab/phoswich/source"
)

// A Simulation is one fully assembled run. Build schedules every event up
// front; Run plays the plan and Terminate reduces the outputs.
type Simulation struct {
	id string

	engine  sim.Engine
	monitor *monitoring.Monitor

	workers         []*runner.Worker
	workerNameIndex map[string]int

	writers        []*output.Writer
	sharedRecorder datarecording.DataRecorder
	exec           *datarecording.ExecRecorder

	progress *source.Progress
	bar      *monitoring.ProgressBar

	baseName    string
	events      int
	workerCount int
	mt          bool
}

// ID returns the run's unique ID.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine driving the run.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetMonitor returns the monitor, nil when monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Workers returns every worker in ID order.
func (s *Simulation) Workers() []*runner.Worker {
	return s.workers
}

// GetWorkerByName returns the worker with the given name, nil if unknown.
func (s *Simulation) GetWorkerByName(name string) *runner.Worker {
	i, ok := s.workerNameIndex[name]
	if !ok {
		return nil
	}

	return s.workers[i]
}

// Events returns how many primary events the run simulates.
func (s *Simulation) Events() int {
	return s.events
}

// OutputFile returns the final database artifact's file name, empty when
// recording to ClickHouse.
func (s *Simulation) OutputFile() string {
	if s.sharedRecorder != nil {
		return ""
	}

	return s.baseName + ".sqlite3"
}

func (s *Simulation) registerWorker(w *runner.Worker) {
	name := w.Name()
	if _, exists := s.workerNameIndex[name]; exists {
		panic("worker " + name + " already registered")
	}

	s.workerNameIndex[name] = len(s.workers)
	s.workers = append(s.workers, w)
}

// Run plays the scheduled event plan to completion.
func (s *Simulation) Run() error {
	if s.progress != nil {
		s.progress.Start(time.Now())
	}

	if err := s.engine.Run(); err != nil {
		return err
	}

	s.engine.Finished()

	if s.progress != nil {
		// The progress line redraws in place; move off it.
		fmt.Fprintln(os.Stderr)
	}

	if s.monitor != nil {
		s.monitor.CompleteProgressBar(s.bar)
	}

	return nil
}

// Terminate closes the run's outputs: the execution metadata is stamped,
// every writer is closed, and a multithreaded run's per-worker files merge
// into the final database. Call once, after Run.
func (s *Simulation) Terminate() error {
	s.exec.End()

	if s.sharedRecorder != nil {
		for _, w := range s.writers {
			w.Flush()
		}

		return s.sharedRecorder.Close()
	}

	for _, w := range s.writers {
		if err := w.Close(); err != nil {
			return err
		}
	}

	if s.mt {
		return output.Merge(s.baseName, s.workerCount)
	}

	return nil
}
