package harness

import "github.com/roach88/tyinfer/internal/store"

// TraceEvent is one stored trace event of a scenario run.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Type     string `json:"type"`
	Variable string `json:"variable,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Bound    string `json:"bound,omitempty"`
	Position string `json:"position,omitempty"`
	Pure     bool   `json:"pure,omitempty"`
	Value    string `json:"value,omitempty"`
}

func traceEventFromRecord(r store.EventRecord) TraceEvent {
	return TraceEvent{
		Seq:      r.Seq,
		Type:     r.Type,
		Variable: r.Variable,
		Kind:     r.Kind,
		Bound:    r.Bound,
		Position: r.Position,
		Pure:     r.Pure,
		Value:    r.Value,
	}
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	SessionID string `json:"session_id"`
	Status    string `json:"status"`

	// Trace is read back from the store, in seq order.
	Trace []TraceEvent `json:"trace"`

	// FixOrder lists variables in the order fixation started on them.
	FixOrder []string `json:"fix_order"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Values holds the committed value of each resolved variable.
	Values map[string]string `json:"values"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		FixOrder: []string{},
		Errors:   []string{},
		Values:   make(map[string]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
