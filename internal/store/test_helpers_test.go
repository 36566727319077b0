package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/tyinfer/internal/engine"
	"github.com/roach88/tyinfer/internal/ir"
	"github.com/roach88/tyinfer/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// solveCovariant solves T <: List<R>, R <: Int with the clock starting
// after seq start. The trace has 7 events and fixes T then R.
func solveCovariant(start int64) (*ir.Problem, *engine.Solution) {
	u := testutil.NewStandardUniverse()
	tv, r := u.NewVariable("T"), u.NewVariable("R")
	p := &ir.Problem{
		Name:      "covariantUpper",
		Universe:  u.Universe,
		Variables: []ir.VariableDecl{{Var: tv}, {Var: r, Local: true}},
		Constraints: []ir.ConstraintDecl{
			{Kind: ir.Subtype, Sub: ir.VariableType(tv), Super: u.List(ir.VariableType(r)), Position: "receiver"},
			{Kind: ir.Subtype, Sub: ir.VariableType(r), Super: u.Int()},
		},
	}
	sol := engine.Solve(p,
		engine.WithLogger(testutil.DiscardLogger()),
		engine.WithClock(engine.NewClockAt(start)),
	)
	return p, sol
}

// solveBroken solves a problem with one mismatch and two unresolved
// variables (T and F).
func solveBroken(start int64) (*ir.Problem, *engine.Solution) {
	u := testutil.NewStandardUniverse()
	tv, f := u.NewVariable("T"), u.NewVariable("F")
	p := &ir.Problem{
		Name:      "broken",
		Universe:  u.Universe,
		Variables: []ir.VariableDecl{{Var: tv}, {Var: f}},
		Constraints: []ir.ConstraintDecl{
			{Kind: ir.Subtype, Sub: u.Str(), Super: ir.VariableType(tv)},
			{Kind: ir.Subtype, Sub: ir.VariableType(tv), Super: u.Number()},
		},
	}
	sol := engine.Solve(p,
		engine.WithLogger(testutil.DiscardLogger()),
		engine.WithClock(engine.NewClockAt(start)),
	)
	return p, sol
}
