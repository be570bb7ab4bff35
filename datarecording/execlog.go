package datarecording

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// execTableName is where run metadata lands in every output database.
const execTableName = "exec_info"

// ExecInfo is one property of the recorded execution.
type ExecInfo struct {
	Property string
	Value    string
}

// An ExecRecorder stamps run metadata into the exec_info table: what
// command ran, with which event plan, and when it started and finished.
type ExecRecorder struct {
	recorder DataRecorder
}

// NewExecRecorder attaches an execution log to the given recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{recorder: recorder}
	e.recorder.CreateTable(execTableName, ExecInfo{})

	return e
}

// Start records the run configuration and the start time.
func (e *ExecRecorder) Start(events, workers int, seed int64) {
	startTime := time.Now().Format("2006-01-02 15:04:05")
	e.put("Start Time", startTime)

	e.put("Command", strings.Join(os.Args, " "))

	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	e.put("Path", filepath.Dir(ex))

	e.put("Events", strconv.Itoa(events))
	e.put("Workers", strconv.Itoa(workers))
	e.put("Seed", strconv.FormatInt(seed, 10))
}

// End stamps the end time and flushes everything the recorder buffered.
func (e *ExecRecorder) End() {
	endTime := time.Now().Format("2006-01-02 15:04:05")
	e.put("End Time", endTime)

	e.recorder.Flush()
}

func (e *ExecRecorder) put(property, value string) {
	e.recorder.InsertData(execTableName, ExecInfo{
		Property: property,
		Value:    value,
	})
}
