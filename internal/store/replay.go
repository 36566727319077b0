package store

import (
	"context"
	"fmt"

	"github.com/roach88/tyinfer/internal/engine"
)

// SessionState is a session rebuilt from its stored trace.
type SessionState struct {
	Session   Session
	Events    []EventRecord
	Fixations []FixationRecord

	// Bounds lists the rendered bounds each variable received, in seq order.
	Bounds map[string][]string
	// Values holds the committed value of each resolved variable.
	Values map[string]string
	// Unresolved lists variables fixed without a value, in fix order.
	Unresolved []string
	// Mismatches lists the relations that could not hold.
	Mismatches []string

	LastSeq int64
	// Consistent is true when the fixations table agrees with the
	// variable_fixed events of the trace.
	Consistent bool
}

// GetSessionState reads a session with its events and fixations and replays
// the trace into per-variable bounds and values.
func (s *Store) GetSessionState(ctx context.Context, sessionID string) (SessionState, error) {
	state := SessionState{
		Bounds: make(map[string][]string),
		Values: make(map[string]string),
	}

	sess, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return state, fmt.Errorf("get session state: %w", err)
	}
	state.Session = sess

	if state.Events, err = s.ReadEvents(ctx, sessionID); err != nil {
		return state, fmt.Errorf("get session state: %w", err)
	}
	if state.Fixations, err = s.ReadFixations(ctx, sessionID); err != nil {
		return state, fmt.Errorf("get session state: %w", err)
	}

	fixedByTrace := make(map[string]string)
	for _, ev := range state.Events {
		if ev.Seq > state.LastSeq {
			state.LastSeq = ev.Seq
		}
		switch engine.EventType(ev.Type) {
		case engine.EventBoundAdded:
			state.Bounds[ev.Variable] = append(state.Bounds[ev.Variable], ev.Bound)
		case engine.EventMismatch:
			state.Mismatches = append(state.Mismatches, ev.Bound)
		case engine.EventVariableFixed:
			fixedByTrace[ev.Variable] = ev.Value
			if ev.Value != "" {
				state.Values[ev.Variable] = ev.Value
			}
		}
	}

	state.Consistent = len(fixedByTrace) == len(state.Fixations)
	for _, f := range state.Fixations {
		if !f.Resolved {
			state.Unresolved = append(state.Unresolved, f.Variable)
		}
		value, ok := fixedByTrace[f.Variable]
		if !ok || value != f.Value {
			state.Consistent = false
		}
	}

	return state, nil
}

// GetLastSeq returns the highest seq stored in any session, or 0 for an
// empty store. A new solve continues the log with engine.NewClockAt(seq).
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM bound_events
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

// ListProblems returns the distinct problem names with stored sessions,
// sorted by name.
func (s *Store) ListProblems(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT problem FROM sessions
		ORDER BY problem COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	defer rows.Close()

	problems := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan problem: %w", err)
		}
		problems = append(problems, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate problems: %w", err)
	}
	return problems, nil
}
