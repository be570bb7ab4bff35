package sim

// VTimeInSec is the virtual time in the simulated space, in seconds. The
// phoswich run loop advances it one event round at a time: every primary
// particle event scheduled in round r carries time VTimeInSec(r).
type VTimeInSec float64

// An Event is something that happens in the simulated future.
type Event interface {
	// Time returns the time at which the event happens.
	Time() VTimeInSec

	// Handler returns the handler that handles the event.
	Handler() Handler

	// IsSecondary tells if the event is a secondary event. Secondary events
	// are handled after all same-time primary events are handled.
	IsSecondary() bool
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates a new EventBase.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler
	e.secondary = false
	return e
}

// Time returns the time at which the event happens.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler that handles the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler is the domain an event belongs to. An event is only handled by
// the handler it was created with, so a handler's state is only mutated from
// its own events.
type Handler interface {
	Handle(e Event) error
}
