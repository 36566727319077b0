package store

import (
	"context"
	"testing"

	"github.com/roach88/tyinfer/internal/ir"
)

func TestNewSession(t *testing.T) {
	p, sol := solveBroken(10)

	sess, err := NewSession("s1", p, sol)
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}

	wantHash, _ := ir.ProblemHash(p)
	if sess.ProblemHash != wantHash {
		t.Errorf("problem_hash = %q, want %q", sess.ProblemHash, wantHash)
	}
	if sess.Problem != "broken" {
		t.Errorf("problem = %q, want broken", sess.Problem)
	}
	if sess.Seq != 11 {
		t.Errorf("seq = %d, want 11 (first event after clock start)", sess.Seq)
	}
	if sess.Status != "mismatch" {
		t.Errorf("status = %q, want mismatch", sess.Status)
	}
	if sess.EngineVersion != ir.EngineVersion || sess.IRVersion != ir.IRVersion {
		t.Errorf("versions = %q/%q", sess.EngineVersion, sess.IRVersion)
	}
	if len(sess.Errors) != 3 {
		t.Fatalf("errors = %d, want 3", len(sess.Errors))
	}
	if sess.Errors[0].Code != "TYPE_MISMATCH" || sess.Errors[1].Variable != "T" || sess.Errors[2].Variable != "F" {
		t.Errorf("unexpected errors: %+v", sess.Errors)
	}
}

func TestNewEventRecords_ContentAddressed(t *testing.T) {
	_, sol := solveCovariant(0)

	a, err := NewEventRecords("s1", sol.Events)
	if err != nil {
		t.Fatalf("NewEventRecords() failed: %v", err)
	}
	b, _ := NewEventRecords("s1", sol.Events)
	c, _ := NewEventRecords("s2", sol.Events)

	if len(a) != len(sol.Events) {
		t.Fatalf("records = %d, want %d", len(a), len(sol.Events))
	}
	seen := make(map[string]bool)
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("record %d: ID not deterministic", i)
		}
		if a[i].ID == c[i].ID {
			t.Errorf("record %d: ID does not depend on session", i)
		}
		if seen[a[i].ID] {
			t.Errorf("record %d: duplicate ID", i)
		}
		seen[a[i].ID] = true

		want := ir.MustBoundEventID("s1", sol.Events[i].Seq, string(sol.Events[i].Type), sol.Events[i].Variable, sol.Events[i].Bound)
		if a[i].ID != want {
			t.Errorf("record %d: ID = %s, want %s", i, a[i].ID, want)
		}
	}
}

func TestNewFixationRecords(t *testing.T) {
	_, sol := solveBroken(0)

	records, err := NewFixationRecords("s1", sol)
	if err != nil {
		t.Fatalf("NewFixationRecords() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for i, want := range []string{"T", "F"} {
		if records[i].Variable != want || records[i].Order != i {
			t.Errorf("record %d = %s@%d, want %s@%d", i, records[i].Variable, records[i].Order, want, i)
		}
		if records[i].Resolved || records[i].Value != "" {
			t.Errorf("record %d should be unresolved: %+v", i, records[i])
		}
	}
}

func TestWriteSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p, sol := solveCovariant(0)

	sess, err := NewSession("s1", p, sol)
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.WriteSession(ctx, sess); err != nil {
			t.Fatalf("WriteSession() #%d failed: %v", i, err)
		}
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions = %d, want 1", count)
	}

	var errsJSON string
	if err := s.db.QueryRow("SELECT errors FROM sessions WHERE id = 's1'").Scan(&errsJSON); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if errsJSON != "[]" {
		t.Errorf("errors = %s, want []", errsJSON)
	}
}

func TestWriteEvents_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p, sol := solveCovariant(0)

	sess, _ := NewSession("s1", p, sol)
	if err := s.WriteSession(ctx, sess); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
	events, _ := NewEventRecords("s1", sol.Events)

	if err := s.WriteEvents(ctx, events); err != nil {
		t.Fatalf("WriteEvents() failed: %v", err)
	}
	if err := s.WriteEvents(ctx, events); err != nil {
		t.Fatalf("second WriteEvents() failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM bound_events").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 7 {
		t.Errorf("bound_events = %d, want 7", count)
	}
}

func TestWriteEvents_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, sol := solveCovariant(0)

	// No session row: the first insert violates the foreign key.
	events, _ := NewEventRecords("missing", sol.Events)
	if err := s.WriteEvents(ctx, events); err == nil {
		t.Fatal("expected foreign key error")
	}

	var count int
	s.db.QueryRow("SELECT COUNT(*) FROM bound_events").Scan(&count)
	if count != 0 {
		t.Errorf("bound_events = %d after failed write, want 0", count)
	}
}

func TestWriteFixations(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p, sol := solveCovariant(0)

	sess, _ := NewSession("s1", p, sol)
	if err := s.WriteSession(ctx, sess); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
	fixations, _ := NewFixationRecords("s1", sol)
	if err := s.WriteFixations(ctx, fixations); err != nil {
		t.Fatalf("WriteFixations() failed: %v", err)
	}
	if err := s.WriteFixations(ctx, fixations); err != nil {
		t.Fatalf("second WriteFixations() failed: %v", err)
	}

	var variable, value string
	var resolved bool
	err := s.db.QueryRow(`
		SELECT variable, value, resolved FROM fixations
		WHERE session_id = 's1' AND fix_order = 1
	`).Scan(&variable, &value, &resolved)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if variable != "R" || value != "Int" || !resolved {
		t.Errorf("fixation 1 = %s/%s/%v, want R/Int/true", variable, value, resolved)
	}
}

func TestRecordSolution(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p, sol := solveCovariant(0)

	sess, err := s.RecordSolution(ctx, "s1", p, sol)
	if err != nil {
		t.Fatalf("RecordSolution() failed: %v", err)
	}
	if sess.Status != "success" {
		t.Errorf("status = %q, want success", sess.Status)
	}

	// Recording again is a no-op.
	if _, err := s.RecordSolution(ctx, "s1", p, sol); err != nil {
		t.Fatalf("second RecordSolution() failed: %v", err)
	}

	counts := map[string]int{"sessions": 1, "bound_events": 7, "fixations": 2}
	for table, want := range counts {
		var got int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got != want {
			t.Errorf("%s = %d, want %d", table, got, want)
		}
	}
}
