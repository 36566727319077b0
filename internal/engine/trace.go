package engine

// EventType names a trace event.
type EventType string

const (
	// EventBoundAdded is emitted whenever a bound is stored.
	EventBoundAdded EventType = "bound_added"

	// EventMismatch is emitted when a constraint cannot hold.
	EventMismatch EventType = "mismatch"

	// EventVariableFixed is emitted when a variable is committed.
	EventVariableFixed EventType = "variable_fixed"

	// EventDepthExceeded is emitted when incorporation is cut off.
	EventDepthExceeded EventType = "depth_exceeded"
)

// Event is one entry of a solve trace.
type Event struct {
	Seq      int64
	Type     EventType
	Variable string
	Kind     string // Bound kind for bound events
	Bound    string // Rendered bound or relation
	Position string
	Pure     bool
	Value    string // Committed value for fixation events; empty if unresolved
}

// Observer receives trace events in emission order.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) {
	f(ev)
}

// Recorder is an Observer that keeps every event in memory.
type Recorder struct {
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe appends the event.
func (r *Recorder) Observe(ev Event) {
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events of the given type.
func (r *Recorder) Filter(t EventType) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
