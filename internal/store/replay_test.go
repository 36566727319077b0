package store

import (
	"context"
	"reflect"
	"testing"
)

func TestGetSessionState_Resolved(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p, sol := solveCovariant(0)

	if _, err := s.RecordSolution(ctx, "s1", p, sol); err != nil {
		t.Fatalf("RecordSolution() failed: %v", err)
	}

	state, err := s.GetSessionState(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSessionState() failed: %v", err)
	}

	if state.LastSeq != 7 {
		t.Errorf("LastSeq = %d, want 7", state.LastSeq)
	}
	if !state.Consistent {
		t.Error("state should be consistent")
	}
	wantValues := map[string]string{"T": "List<Int>", "R": "Int"}
	if !reflect.DeepEqual(state.Values, wantValues) {
		t.Errorf("Values = %v, want %v", state.Values, wantValues)
	}
	wantT := []string{"T <: List<R>", "T <: List<Int>", "T == List<Int>"}
	if !reflect.DeepEqual(state.Bounds["T"], wantT) {
		t.Errorf("Bounds[T] = %v, want %v", state.Bounds["T"], wantT)
	}
	if len(state.Unresolved) != 0 || len(state.Mismatches) != 0 {
		t.Errorf("unexpected failures: %v %v", state.Unresolved, state.Mismatches)
	}
}

func TestGetSessionState_Broken(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p, sol := solveBroken(0)

	if _, err := s.RecordSolution(ctx, "s1", p, sol); err != nil {
		t.Fatalf("RecordSolution() failed: %v", err)
	}

	state, err := s.GetSessionState(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSessionState() failed: %v", err)
	}

	if !reflect.DeepEqual(state.Unresolved, []string{"T", "F"}) {
		t.Errorf("Unresolved = %v, want [T F]", state.Unresolved)
	}
	if !reflect.DeepEqual(state.Mismatches, []string{"String <: Number"}) {
		t.Errorf("Mismatches = %v", state.Mismatches)
	}
	if len(state.Values) != 0 {
		t.Errorf("Values = %v, want empty", state.Values)
	}
	if !state.Consistent {
		t.Error("state should be consistent")
	}
	if state.Session.Status != "mismatch" {
		t.Errorf("status = %q", state.Session.Status)
	}
}

func TestGetSessionState_DetectsMissingFixation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p, sol := solveCovariant(0)

	if _, err := s.RecordSolution(ctx, "s1", p, sol); err != nil {
		t.Fatalf("RecordSolution() failed: %v", err)
	}
	if _, err := s.db.Exec("DELETE FROM fixations WHERE variable = 'R'"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	state, err := s.GetSessionState(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSessionState() failed: %v", err)
	}
	if state.Consistent {
		t.Error("state with a missing fixation row should be inconsistent")
	}
}

func TestGetSessionState_NotFound(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.GetSessionState(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestGetLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.GetLastSeq(ctx)
	if err != nil {
		t.Fatalf("GetLastSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("empty store seq = %d, want 0", seq)
	}

	p1, sol1 := solveCovariant(0)
	if _, err := s.RecordSolution(ctx, "s1", p1, sol1); err != nil {
		t.Fatal(err)
	}
	seq, _ = s.GetLastSeq(ctx)
	if seq != 7 {
		t.Errorf("seq = %d, want 7", seq)
	}

	// A second session continues the log.
	p2, sol2 := solveBroken(seq)
	if _, err := s.RecordSolution(ctx, "s2", p2, sol2); err != nil {
		t.Fatal(err)
	}
	seq, _ = s.GetLastSeq(ctx)
	if seq != 12 {
		t.Errorf("seq = %d, want 12", seq)
	}
}

func TestListProblems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	p1, sol1 := solveCovariant(0)
	p2, sol2 := solveBroken(10)
	p3, sol3 := solveCovariant(20)
	if _, err := s.RecordSolution(ctx, "s1", p1, sol1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordSolution(ctx, "s2", p2, sol2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordSolution(ctx, "s3", p3, sol3); err != nil {
		t.Fatal(err)
	}

	problems, err := s.ListProblems(ctx)
	if err != nil {
		t.Fatalf("ListProblems() failed: %v", err)
	}
	if !reflect.DeepEqual(problems, []string{"broken", "covariantUpper"}) {
		t.Errorf("problems = %v", problems)
	}
}
