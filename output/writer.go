// Package output persists finalized event tallies into the run's output
// database and merges per-worker databases after multithreaded runs.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sarchlab/phoswich/datarecording"
	"github.com/sarchlab/phoswich/tally"
)

// Table names, one per record group.
const (
	TableInput        = "input"
	TableZnS          = "zns"
	TableScintillator = "scintillator"
	TableOptical      = "optical"
	TablePhotonHit    = "photon_hit"
	TablePhotonBirth  = "photon_birth"
)

// A Writer persists one worker's finished events. Every writer of a run
// shares one mutex, so the recorders never see concurrent access.
type Writer struct {
	workerID int
	mu       *sync.Mutex
	recorder datarecording.DataRecorder
	tables   map[string]bool
	errOut   io.Writer
}

// BaseName returns the database path for one worker. Multithreaded runs
// give every worker its own file next to the final merged one.
func BaseName(base string, workerID int, mt bool) string {
	if mt {
		return fmt.Sprintf("%s_%d", base, workerID)
	}
	return base
}

// NewWriter opens the worker's SQLite database and creates the record
// tables.
func NewWriter(base string, workerID int, mt bool, mu *sync.Mutex) *Writer {
	if mu == nil {
		panic("writer requires the shared mutex")
	}

	mu.Lock()
	recorder := datarecording.New(BaseName(base, workerID, mt))
	mu.Unlock()

	return NewWriterWithRecorder(recorder, workerID, mu)
}

// NewWriterWithRecorder wraps an already constructed recorder. The record
// tables are created idempotently, so several writers may share one
// server-backed recorder.
func NewWriterWithRecorder(
	recorder datarecording.DataRecorder,
	workerID int,
	mu *sync.Mutex,
) *Writer {
	if recorder == nil {
		panic("writer requires a recorder")
	}
	if mu == nil {
		panic("writer requires the shared mutex")
	}

	w := &Writer{
		workerID: workerID,
		mu:       mu,
		recorder: recorder,
		tables:   make(map[string]bool),
		errOut:   os.Stderr,
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.createTable(TableInput, tally.InputRecord{})
	w.createTable(TableZnS, tally.DetectorRecord{})
	w.createTable(TableScintillator, tally.DetectorRecord{})
	w.createTable(TableOptical, tally.EventRecord{})
	w.createTable(TablePhotonHit, tally.PhotonHit{})
	w.createTable(TablePhotonBirth, tally.PhotonBirth{})

	return w
}

func (w *Writer) createTable(name string, sample any) {
	w.recorder.CreateTable(name, sample)
	w.tables[name] = true
}

// WriteEvent finalizes the event's tally and inserts its rows. Row groups
// follow the reference conditions: the input row is written only when the
// event saw a primary with energy, detector rows only for closed episodes,
// and the optical summary always.
func (w *Writer) WriteEvent(eventID int, t *tally.EventTally) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := t.FinalizeEvent()
	rec.EventID = eventID
	rec.WorkerID = w.workerID

	if in, ok := t.Input(); ok && in.Energy > 0 {
		in.EventID = eventID
		in.WorkerID = w.workerID
		w.insert(TableInput, in)
	}

	for _, det := range t.ZnS().Records() {
		det.EventID = eventID
		det.WorkerID = w.workerID
		w.insert(TableZnS, det)
	}

	for _, det := range t.Scintillator().Records() {
		det.EventID = eventID
		det.WorkerID = w.workerID
		w.insert(TableScintillator, det)
	}

	w.insert(TableOptical, rec)

	for _, hit := range t.PhotonHits() {
		hit.EventID = eventID
		hit.WorkerID = w.workerID
		w.insert(TablePhotonHit, hit)
	}

	for _, birth := range t.PhotonBirths() {
		birth.EventID = eventID
		birth.WorkerID = w.workerID
		w.insert(TablePhotonBirth, birth)
	}
}

// insert drops the row with a diagnostic instead of crashing when the
// table never came up.
func (w *Writer) insert(table string, entry any) {
	if !w.tables[table] {
		fmt.Fprintf(w.errOut, "Error: table %s is nil\n", table)
		return
	}

	w.recorder.InsertData(table, entry)
}

// Flush drains buffered rows to the database.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.recorder.Flush()
}

// Close flushes and closes the worker's database.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.recorder.Close()
}
