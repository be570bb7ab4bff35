package tracing

import (
	"strconv"
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/phoswich/datarecording"
	"github.com/sarchlab/phoswich/tracking"
)

// traceTableName is the table completed tracks land in.
const traceTableName = "track_trace"

// A TrackTrace is one row of the track_trace table: one finished particle
// track. The fate is the process name of the step that ended the track.
type TrackTrace struct {
	TrackID        int
	ParentID       int
	Particle       string
	CreatorProcess string
	BirthVolume    string
	Fate           string
	WavelengthNM   float64
	StartTimeNS    float64
	EndTimeNS      float64
	TrackLengthMM  float64
}

// A DBTracer stores completed tracks into a database. Tasks are matched
// by ID between start and end, so one tracer must never see two in-flight
// tracks with the same ID; give every worker its own.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder
	tasks   map[string]Task
}

// NewDBTracer creates a DBTracer writing into the given recorder.
func NewDBTracer(backend datarecording.DataRecorder) *DBTracer {
	if backend == nil {
		panic("db tracer requires a recorder")
	}

	backend.CreateTable(traceTableName, TrackTrace{})

	t := &DBTracer{
		backend: backend,
		tasks:   make(map[string]Task),
	}

	atexit.Register(func() { t.Terminate() })

	return t
}

// StartTask opens a task. A task that never ends is never written.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startingTaskMustBeValid(task)

	t.tasks[task.ID] = task
}

func (t *DBTracer) startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task where must be set")
	}
}

// EndTask closes a started task and writes its trace row. Ending a task
// that never started does nothing.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	started, ok := t.tasks[task.ID]
	if !ok {
		return
	}
	delete(t.tasks, task.ID)

	started.End = task.End
	if task.Detail != nil {
		started.Detail = task.Detail
	}

	t.backend.InsertData(traceTableName, t.rowFromTask(started))
}

// Terminate drops any still-open tasks and flushes the backend.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks = nil
	t.backend.Flush()
}

func (t *DBTracer) rowFromTask(task Task) TrackTrace {
	row := TrackTrace{
		Particle:    task.What,
		BirthVolume: task.Where,
		StartTimeNS: task.Start,
		EndTimeNS:   task.End,
	}
	row.TrackID, _ = strconv.Atoi(task.ID)
	row.ParentID, _ = strconv.Atoi(task.ParentID)

	if trk, ok := task.Detail.(*tracking.Track); ok {
		row.CreatorProcess = trk.CreatorProcess
		row.Fate = trk.EndProcess
		row.TrackLengthMM = trk.TrackLengthMM
		if trk.IsOpticalPhoton() {
			row.WavelengthNM = trk.WavelengthNM()
		}
	}

	return row
}
