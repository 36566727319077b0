package store

import (
	"fmt"

	"github.com/roach88/tyinfer/internal/engine"
	"github.com/roach88/tyinfer/internal/ir"
)

// Session is one solved problem.
type Session struct {
	ID            string
	Problem       string
	ProblemHash   string
	EngineVersion string
	IRVersion     string
	Seq           int64  // Seq of the first event; orders sessions
	Status        string // engine.Status.String()
	Errors        []ErrorRecord
}

// ErrorRecord is a stored engine.InferenceError.
type ErrorRecord struct {
	Code     string `json:"code"`
	Variable string `json:"variable"`
	Message  string `json:"message"`
	Position string `json:"position"`
}

// EventRecord is a stored trace event.
type EventRecord struct {
	ID        string
	SessionID string
	Seq       int64
	Type      string
	Variable  string
	Kind      string
	Bound     string
	Position  string
	Pure      bool
	Value     string
}

// Event converts the record back to the engine's trace event.
func (r EventRecord) Event() engine.Event {
	return engine.Event{
		Seq:      r.Seq,
		Type:     engine.EventType(r.Type),
		Variable: r.Variable,
		Kind:     r.Kind,
		Bound:    r.Bound,
		Position: r.Position,
		Pure:     r.Pure,
		Value:    r.Value,
	}
}

// FixationRecord is one committed variable of a session.
type FixationRecord struct {
	ID        string
	SessionID string
	Order     int
	Variable  string
	Value     string // empty if unresolved
	Resolved  bool
}

// NewSession builds the session row for a solution.
func NewSession(id string, p *ir.Problem, sol *engine.Solution) (Session, error) {
	hash, err := ir.ProblemHash(p)
	if err != nil {
		return Session{}, fmt.Errorf("new session: %w", err)
	}

	sess := Session{
		ID:            id,
		Problem:       p.Name,
		ProblemHash:   hash,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
		Status:        sol.Status.String(),
		Errors:        []ErrorRecord{},
	}
	if len(sol.Events) > 0 {
		sess.Seq = sol.Events[0].Seq
	}
	for _, e := range sol.Errors {
		sess.Errors = append(sess.Errors, ErrorRecord{
			Code:     string(e.Code),
			Variable: e.Variable,
			Message:  e.Message,
			Position: e.Position,
		})
	}
	return sess, nil
}

// NewEventRecords assigns content-addressed IDs to the events of a session.
func NewEventRecords(sessionID string, events []engine.Event) ([]EventRecord, error) {
	records := make([]EventRecord, 0, len(events))
	for _, ev := range events {
		id, err := ir.BoundEventID(sessionID, ev.Seq, string(ev.Type), ev.Variable, ev.Bound)
		if err != nil {
			return nil, fmt.Errorf("new event records: %w", err)
		}
		records = append(records, EventRecord{
			ID:        id,
			SessionID: sessionID,
			Seq:       ev.Seq,
			Type:      string(ev.Type),
			Variable:  ev.Variable,
			Kind:      ev.Kind,
			Bound:     ev.Bound,
			Position:  ev.Position,
			Pure:      ev.Pure,
			Value:     ev.Value,
		})
	}
	return records, nil
}

// NewFixationRecords lists the committed variables of a solution in fix order.
func NewFixationRecords(sessionID string, sol *engine.Solution) ([]FixationRecord, error) {
	records := make([]FixationRecord, 0, len(sol.FixOrder))
	for i, name := range sol.FixOrder {
		id, err := ir.FixationID(sessionID, name, i)
		if err != nil {
			return nil, fmt.Errorf("new fixation records: %w", err)
		}
		rec := FixationRecord{ID: id, SessionID: sessionID, Order: i, Variable: name}
		if v, ok := sol.Variable(name); ok && v.Resolved {
			rec.Value = v.Value.String()
			rec.Resolved = true
		}
		records = append(records, rec)
	}
	return records, nil
}
