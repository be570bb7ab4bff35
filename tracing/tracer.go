package tracing

// A Tracer can collect task traces. StartTask opens a task when its unit
// of work takes its first step; EndTask closes it and delivers the
// completed state.
type Tracer interface {
	StartTask(task Task)
	EndTask(task Task)
}
