package store

import (
	"context"
	"database/sql"
	"fmt"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ReadSessions returns all sessions with deterministic ordering:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the store has no sessions.
func (s *Store) ReadSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, problem, problem_hash, engine_version, ir_version, seq, status, errors
		FROM sessions
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession retrieves a single session by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, problem, problem_hash, engine_version, ir_version, seq, status, errors
		FROM sessions
		WHERE id = ?
	`, id)
	return scanSession(row)
}

func scanSession(row scanner) (Session, error) {
	var sess Session
	var errsJSON string
	err := row.Scan(
		&sess.ID,
		&sess.Problem,
		&sess.ProblemHash,
		&sess.EngineVersion,
		&sess.IRVersion,
		&sess.Seq,
		&sess.Status,
		&errsJSON,
	)
	if err == sql.ErrNoRows {
		return Session{}, err
	}
	if err != nil {
		return Session{}, fmt.Errorf("scan session: %w", err)
	}

	sess.Errors, err = unmarshalErrors(errsJSON)
	if err != nil {
		return Session{}, fmt.Errorf("scan session %s: %w", sess.ID, err)
	}
	return sess, nil
}

// ReadEvents returns the trace of a session in seq order.
// Returns an empty slice (not nil) if the session has no events.
func (s *Store) ReadEvents(ctx context.Context, sessionID string) ([]EventRecord, error) {
	return s.queryEvents(ctx, `
		SELECT id, session_id, seq, type, variable, kind, bound, position, pure, value
		FROM bound_events
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
}

// ReadEventsForVariable returns the events of one variable within a session.
func (s *Store) ReadEventsForVariable(ctx context.Context, sessionID, variable string) ([]EventRecord, error) {
	return s.queryEvents(ctx, `
		SELECT id, session_id, seq, type, variable, kind, bound, position, pure, value
		FROM bound_events
		WHERE session_id = ? AND variable = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID, variable)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var ev EventRecord
		if err := rows.Scan(
			&ev.ID,
			&ev.SessionID,
			&ev.Seq,
			&ev.Type,
			&ev.Variable,
			&ev.Kind,
			&ev.Bound,
			&ev.Position,
			&ev.Pure,
			&ev.Value,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadFixations returns the committed variables of a session in fix order.
// Returns an empty slice (not nil) if the session fixed nothing.
func (s *Store) ReadFixations(ctx context.Context, sessionID string) ([]FixationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, fix_order, variable, value, resolved
		FROM fixations
		WHERE session_id = ?
		ORDER BY fix_order ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query fixations: %w", err)
	}
	defer rows.Close()

	fixations := []FixationRecord{}
	for rows.Next() {
		var f FixationRecord
		if err := rows.Scan(&f.ID, &f.SessionID, &f.Order, &f.Variable, &f.Value, &f.Resolved); err != nil {
			return nil, fmt.Errorf("scan fixation: %w", err)
		}
		fixations = append(fixations, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixations: %w", err)
	}
	return fixations, nil
}
