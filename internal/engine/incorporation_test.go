package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tyinfer/internal/ir"
)

func TestCombineBounds_Table(t *testing.T) {
	f := newEngineFixture(t)
	tv := f.NewVariable("T")
	a, b := f.Int(), f.Number()

	tests := []struct {
		first, second BoundKind
		want          string // "" means no constraint
	}{
		{Lower, Upper, "Int <: Number"},
		{Lower, Exact, "Int <: Number"},
		{Exact, Upper, "Int <: Number"},
		{Upper, Lower, "Number <: Int"},
		{Upper, Exact, "Number <: Int"},
		{Exact, Lower, "Number <: Int"},
		{Exact, Exact, "Int == Number"},
		{Lower, Lower, ""},
		{Upper, Upper, ""},
	}
	for _, tt := range tests {
		t.Run(tt.first.String()+"/"+tt.second.String(), func(t *testing.T) {
			rel, ok := combineBounds(
				Bound{Variable: tv, Type: a, Kind: tt.first},
				Bound{Variable: tv, Type: b, Kind: tt.second},
			)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, rel.String())
		})
	}
}

func TestComputeKindOfNewBound(t *testing.T) {
	tests := []struct {
		name      string
		outer     BoundKind
		variance  ir.Variance
		inner     BoundKind
		want      BoundKind
		determine bool
	}{
		{"exact substitution keeps outer lower", Lower, ir.Invariant, Exact, Lower, true},
		{"exact substitution keeps outer upper", Upper, ir.In, Exact, Upper, true},
		{"exact substitution keeps outer exact", Exact, ir.Out, Exact, Exact, true},
		{"invariant lower", Lower, ir.Invariant, Lower, 0, false},
		{"invariant upper", Upper, ir.Invariant, Upper, 0, false},
		{"invariant under exact", Exact, ir.Invariant, Upper, 0, false},
		{"covariant lower lower", Lower, ir.Out, Lower, Lower, true},
		{"covariant upper upper", Upper, ir.Out, Upper, Upper, true},
		{"covariant disagreeing", Upper, ir.Out, Lower, 0, false},
		{"covariant under exact", Exact, ir.Out, Upper, Upper, true},
		{"contravariant flips under exact", Exact, ir.In, Upper, Lower, true},
		{"contravariant agreeing", Upper, ir.In, Lower, Upper, true},
		{"contravariant disagreeing", Upper, ir.In, Upper, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := computeKindOfNewBound(tt.outer, tt.variance, tt.inner)
			assert.Equal(t, tt.determine, ok)
			if tt.determine {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIncorporation_CovariantUpper(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(tv), f.List(f.v(r))))
	sys.AddConstraint(f.sub(f.v(r), f.Int()))

	assert.Equal(t, []string{"T <: List<R>", "T <: List<Int>"}, boundStrings(sys, tv))
	assert.Equal(t, []string{"R <: Int"}, boundStrings(sys, r))

	derived := sys.TypeBounds(tv).Bounds()[1]
	assert.Equal(t, Upper, derived.Kind)
	assert.True(t, derived.Pure)
	assert.Equal(t, PositionCompound, derived.Position.Kind)
}

func TestIncorporation_InvariantDerivesNothing(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(tv), f.MutableList(f.v(r))))
	sys.AddConstraint(f.sub(f.v(r), f.Int()))

	assert.Equal(t, []string{"T <: MutableList<R>"}, boundStrings(sys, tv))
}

func TestIncorporation_ContravariantExactFlips(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.eq(f.v(tv), f.Comparator(f.v(r))))
	sys.AddConstraint(f.sub(f.v(r), f.Int()))

	assert.Equal(t, []string{"T == Comparator<R>", "T >: Comparator<Int>"}, boundStrings(sys, tv))
	assert.Equal(t, []string{"R <: Int"}, boundStrings(sys, r))
	assert.Empty(t, sys.Errors())
}

func TestIncorporation_KnownSubstitutionAppliedToNewBound(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(r), f.Int()))
	sys.AddConstraint(f.sub(f.v(tv), f.List(f.v(r))))

	assert.Equal(t, []string{"T <: List<R>", "T <: List<Int>"}, boundStrings(sys, tv))
}

func TestIncorporation_MixedVarianceIsInvariant(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(tv), f.Pair(f.v(r), f.Comparator(f.v(r)))))
	sys.AddConstraint(f.sub(f.v(r), f.Int()))

	assert.Equal(t, []string{"T <: Pair<R, Comparator<R>>"}, boundStrings(sys, tv))
}

func TestIncorporation_VariableToVariable(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(tv), f.v(r)))
	assert.Equal(t, []string{"T <: R"}, boundStrings(sys, tv))
	assert.Equal(t, []string{"R >: T"}, boundStrings(sys, r))

	sys.AddConstraint(f.sub(f.Int(), f.v(tv)))
	assert.Equal(t, []string{"T <: R", "T >: Int"}, boundStrings(sys, tv))
	assert.Equal(t, []string{"R >: T", "R >: Int"}, boundStrings(sys, r), "lower bound flows through T <: R")
}

func TestIncorporation_PairwiseEmitsConstraint(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(tv), f.List(f.v(r))))
	sys.AddConstraint(f.sub(f.List(f.Int()), f.v(tv)))

	assert.Equal(t, []string{"R >: Int"}, boundStrings(sys, r), "List<Int> <: T <: List<R> implies Int <: R")
}

func TestIncorporation_AntiRecursion(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(tv), f.List(f.v(tv))))
	assert.Empty(t, boundStrings(sys, tv), "a bound mentioning its own variable is never stored")

	sys.AddConstraint(f.sub(f.v(tv), f.List(f.v(r))))
	sys.AddConstraint(f.sub(f.v(r), f.List(f.v(tv))))

	assert.Equal(t, []string{"T <: List<R>"}, boundStrings(sys, tv))
	assert.Equal(t, []string{"R <: List<T>"}, boundStrings(sys, r))
	for _, v := range sys.TypeVariables() {
		for _, b := range sys.TypeBounds(v).Bounds() {
			assert.False(t, ir.Contains(b.Type, b.Variable), "recursive bound stored: %s", b)
		}
	}
}

func TestIncorporation_Idempotent(t *testing.T) {
	f := newEngineFixture(t)
	sys, rec := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(tv), f.List(f.v(r))))
	sys.AddConstraint(f.sub(f.v(r), f.Int()))
	before := boundStrings(sys, tv)
	events := len(rec.Events())

	sys.AddConstraint(f.sub(f.v(r), f.Int()))
	sys.AddConstraint(f.sub(f.v(tv), f.List(f.v(r))))
	assert.False(t, sys.AddBound(tv, Bound{Type: f.List(f.Int()), Kind: Upper, Position: ReceiverPosition(), Pure: true}))

	assert.Equal(t, before, boundStrings(sys, tv))
	assert.Len(t, rec.Events(), events, "duplicate bounds emit nothing")
}

func TestIncorporation_Monotonic(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r, s := f.NewVariable("T"), f.NewVariable("R"), f.NewVariable("S")
	sys.RegisterVariables(vars(tv, r, s), false)

	steps := []func(){
		func() { sys.AddConstraint(f.sub(f.v(tv), f.List(f.v(r)))) },
		func() { sys.AddConstraint(f.sub(f.v(r), f.v(s))) },
		func() { sys.AddConstraint(f.sub(f.Int(), f.v(r))) },
		func() { sys.AddConstraint(f.sub(f.v(s), f.Number())) },
		func() { sys.AddConstraint(f.eq(f.v(s), f.Int())) },
	}

	prev := map[*ir.TypeVariable][]string{}
	for _, v := range sys.TypeVariables() {
		prev[v] = []string{}
	}
	for i, step := range steps {
		step()
		for _, v := range sys.TypeVariables() {
			cur := boundStrings(sys, v)
			require.GreaterOrEqual(t, len(cur), len(prev[v]), "step %d shrank %s", i, v.Name)
			assert.Equal(t, prev[v], cur[:len(prev[v])], "step %d rewrote %s", i, v.Name)
			prev[v] = cur
		}
	}
	assert.NotEmpty(t, prev[tv])
	assert.NotEmpty(t, prev[r])
	assert.NotEmpty(t, prev[s])
}

func TestIncorporation_DependentBoundsIndex(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(tv), f.Pair(f.v(r), f.v(r))))

	deps := sys.DependentBounds(r)
	require.Len(t, deps, 1)
	assert.Equal(t, "T <: Pair<R, R>", deps[0].String())
	assert.Empty(t, sys.DependentBounds(tv))
}

func TestIncorporation_MismatchRecorded(t *testing.T) {
	f := newEngineFixture(t)
	sys, rec := f.newSystem()
	tv := f.NewVariable("T")
	sys.RegisterVariables(vars(tv), false)

	sys.AddConstraint(ir.Subtype, f.Str(), f.v(tv), ValueParameterPosition(0))
	sys.AddConstraint(ir.Subtype, f.v(tv), f.Number(), ValueParameterPosition(1))

	errs := sys.Errors()
	require.Len(t, errs, 1)
	assert.True(t, IsMismatchError(errs[0]))
	assert.Equal(t, "compound(param:0, param:1)", errs[0].Position)
	assert.True(t, sys.Status().HasMismatch)

	mismatches := rec.Filter(EventMismatch)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "String <: Number", mismatches[0].Bound)
}

func TestIncorporation_DepthGuard(t *testing.T) {
	f := newEngineFixture(t)
	sys, _ := f.newSystem(WithMaxDepth(1))
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(f.sub(f.v(tv), f.List(f.v(r))))
	sys.AddConstraint(f.sub(f.v(r), f.Int()))

	assert.Equal(t, []string{"T <: List<R>", "T <: List<Int>"}, boundStrings(sys, tv), "bound beyond the limit is still stored")
	assert.True(t, sys.Status().DepthExceeded)
	require.Len(t, sys.Errors(), 1)
	assert.True(t, IsDepthError(sys.Errors()[0]))
}

func TestIncorporation_TraceEvents(t *testing.T) {
	f := newEngineFixture(t)
	sys, rec := f.newSystem()
	tv, r := f.NewVariable("T"), f.NewVariable("R")
	sys.RegisterVariables(vars(tv, r), false)

	sys.AddConstraint(ir.Subtype, f.v(tv), f.List(f.v(r)), ReceiverPosition())
	sys.AddConstraint(ir.Subtype, f.v(r), f.Int(), ValueParameterPosition(0))

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, Event{Seq: 1, Type: EventBoundAdded, Variable: "T", Kind: "UPPER", Bound: "T <: List<R>", Position: "receiver"}, events[0])
	assert.Equal(t, Event{Seq: 2, Type: EventBoundAdded, Variable: "R", Kind: "UPPER", Bound: "R <: Int", Position: "param:0", Pure: true}, events[1])
	assert.Equal(t, Event{Seq: 3, Type: EventBoundAdded, Variable: "T", Kind: "UPPER", Bound: "T <: List<Int>", Position: "compound(receiver, param:0)", Pure: true}, events[2])
}
