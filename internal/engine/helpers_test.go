package engine

import (
	"log/slog"
	"testing"

	"github.com/roach88/tyinfer/internal/ir"
	"github.com/roach88/tyinfer/internal/testutil"
)

type engineFixture struct {
	*testutil.StandardUniverse
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	return &engineFixture{StandardUniverse: testutil.NewStandardUniverse()}
}

// newSystem returns a quiet system with a recorder attached.
func (f *engineFixture) newSystem(opts ...Option) (*System, *Recorder) {
	rec := NewRecorder()
	all := []Option{WithLogger(discardLogger()), WithObserver(rec)}
	return NewSystem(append(all, opts...)...), rec
}

func (f *engineFixture) v(tv *ir.TypeVariable) *ir.Type {
	return ir.VariableType(tv)
}

// sub is an AddConstraint argument list for a <: b at param:0.
func (f *engineFixture) sub(a, b *ir.Type) (ir.RelationKind, *ir.Type, *ir.Type, Position) {
	return ir.Subtype, a, b, ValueParameterPosition(0)
}

// eq is an AddConstraint argument list for a == b at param:0.
func (f *engineFixture) eq(a, b *ir.Type) (ir.RelationKind, *ir.Type, *ir.Type, Position) {
	return ir.Equality, a, b, ValueParameterPosition(0)
}

func vars(vs ...*ir.TypeVariable) []*ir.TypeVariable {
	return vs
}

func discardLogger() *slog.Logger {
	return testutil.DiscardLogger()
}

// boundStrings renders the bounds of v in insertion order.
func boundStrings(s *System, v *ir.TypeVariable) []string {
	tb := s.TypeBounds(v)
	if tb == nil {
		return nil
	}
	out := make([]string, 0)
	for _, b := range tb.Bounds() {
		out = append(out, b.String())
	}
	return out
}
