// Package tracing records per-track traces. Every particle track becomes a
// task spanning its first step to the step that ends it, and a database
// tracer turns completed tasks into rows of the track_trace table.
package tracing

// A Task is one traced unit of work: a particle track from its birth to
// its terminal fate. Times are in nanoseconds on the event clock.
type Task struct {
	ID       string  `json:"id"`
	ParentID string  `json:"parent_id"`
	Kind     string  `json:"kind"`
	What     string  `json:"what"`
	Where    string  `json:"where"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Detail   any     `json:"-"`
}

// KindTrack is the task kind of a particle track.
const KindTrack = "track"
