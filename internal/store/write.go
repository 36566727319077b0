package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tyinfer/internal/engine"
	"github.com/roach88/tyinfer/internal/ir"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteSession inserts a session record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
//
// The session's Errors are serialized to canonical JSON.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	return writeSession(ctx, s.db, sess)
}

func writeSession(ctx context.Context, db execer, sess Session) error {
	errsJSON, err := marshalErrors(sess.Errors)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, problem, problem_hash, engine_version, ir_version, seq, status, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Problem,
		sess.ProblemHash,
		sess.EngineVersion,
		sess.IRVersion,
		sess.Seq,
		sess.Status,
		errsJSON,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteEvents inserts trace events in a single transaction.
// Uses ON CONFLICT(id) DO NOTHING, so rewriting the same events is a no-op.
//
// Note: The session referenced by each event must exist (foreign key constraint).
func (s *Store) WriteEvents(ctx context.Context, events []EventRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := writeEvents(ctx, tx, events); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	return nil
}

func writeEvents(ctx context.Context, db execer, events []EventRecord) error {
	for _, ev := range events {
		_, err := db.ExecContext(ctx, `
			INSERT INTO bound_events
			(id, session_id, seq, type, variable, kind, bound, position, pure, value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			ev.ID,
			ev.SessionID,
			ev.Seq,
			ev.Type,
			ev.Variable,
			ev.Kind,
			ev.Bound,
			ev.Position,
			ev.Pure,
			ev.Value,
		)
		if err != nil {
			return fmt.Errorf("write event seq=%d: %w", ev.Seq, err)
		}
	}
	return nil
}

// WriteFixations inserts fixation records in a single transaction.
// Uses ON CONFLICT DO NOTHING: a variable is fixed at most once per session.
func (s *Store) WriteFixations(ctx context.Context, fixations []FixationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write fixations: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := writeFixations(ctx, tx, fixations); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write fixations: commit: %w", err)
	}
	return nil
}

func writeFixations(ctx context.Context, db execer, fixations []FixationRecord) error {
	for _, f := range fixations {
		_, err := db.ExecContext(ctx, `
			INSERT INTO fixations
			(id, session_id, fix_order, variable, value, resolved)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			f.ID,
			f.SessionID,
			f.Order,
			f.Variable,
			f.Value,
			f.Resolved,
		)
		if err != nil {
			return fmt.Errorf("write fixation %s: %w", f.Variable, err)
		}
	}
	return nil
}

// RecordSolution stores a solved problem (session, events and fixations)
// atomically and returns the session row.
func (s *Store) RecordSolution(ctx context.Context, sessionID string, p *ir.Problem, sol *engine.Solution) (Session, error) {
	sess, err := NewSession(sessionID, p, sol)
	if err != nil {
		return Session{}, err
	}
	events, err := NewEventRecords(sessionID, sol.Events)
	if err != nil {
		return Session{}, err
	}
	fixations, err := NewFixationRecords(sessionID, sol)
	if err != nil {
		return Session{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("record solution: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := writeSession(ctx, tx, sess); err != nil {
		return Session{}, err
	}
	if err := writeEvents(ctx, tx, events); err != nil {
		return Session{}, err
	}
	if err := writeFixations(ctx, tx, fixations); err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("record solution: commit: %w", err)
	}
	return sess, nil
}
