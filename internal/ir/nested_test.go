package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNestedArguments_IncludesRootAsInvariant(t *testing.T) {
	f := newFixture(t)
	r := f.u.NewVariable("R")

	args := NestedArguments(VariableType(r))
	require.Len(t, args, 1)
	assert.True(t, args[0].Type.Is(r))
	assert.Equal(t, Invariant, args[0].Variance)
}

func TestNestedArguments_Variance(t *testing.T) {
	f := newFixture(t)
	r := VariableType(f.u.NewVariable("R"))

	tests := []struct {
		name string
		typ  *Type
		want Variance
	}{
		{"covariant declaration", f.List(r), Out},
		{"invariant declaration", f.MutableList(r), Invariant},
		{"contravariant declaration", f.Comparator(r), In},
		{"use-site out on invariant", New(f.mutableList, OutArg(r)), Out},
		{"use-site in on invariant", New(f.mutableList, InArg(r)), In},
		{"in of out", f.Comparator(f.List(r)), In},
		{"in of in", f.Comparator(f.Comparator(r)), Out},
		{"out of invariant", f.List(f.MutableList(r)), Invariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var found *NestedArgument
			for _, arg := range NestedArguments(tt.typ) {
				if arg.Type == r {
					a := arg
					found = &a
					break
				}
			}
			require.NotNil(t, found)
			assert.Equal(t, tt.want, found.Variance)
		})
	}
}

func TestNestedVariables(t *testing.T) {
	f := newFixture(t)
	a := f.u.NewVariable("A")
	b := f.u.NewVariable("B")

	typ := f.Pair(VariableType(b), f.List(f.Pair(VariableType(a), VariableType(b))))
	vars := NestedVariables(typ)
	require.Len(t, vars, 2)
	assert.Same(t, b, vars[0])
	assert.Same(t, a, vars[1])

	assert.Empty(t, NestedVariables(f.List(f.Int())))
}

func TestContains(t *testing.T) {
	f := newFixture(t)
	r := f.u.NewVariable("R")
	s := f.u.NewVariable("S")

	assert.True(t, Contains(f.List(f.List(VariableType(r))), r))
	assert.False(t, Contains(f.List(VariableType(s)), r))
	assert.True(t, Contains(VariableType(r), r))
}

func TestSubstitute(t *testing.T) {
	f := newFixture(t)
	r := f.u.NewVariable("R")

	typ := New(f.mutableList, OutArg(VariableType(r)))
	got := Substitute(typ, r, f.Int())
	assert.Equal(t, "MutableList<out Int>", got.String(), "use-site projection is preserved")
	assert.Equal(t, "MutableList<out R>", typ.String(), "input is not mutated")

	nested := f.Pair(VariableType(r), f.List(VariableType(r)))
	assert.Equal(t, "Pair<Int, List<Int>>", Substitute(nested, r, f.Int()).String())
}

func TestSubstitute_SharesUnchangedTypes(t *testing.T) {
	f := newFixture(t)
	r := f.u.NewVariable("R")

	typ := f.List(f.Int())
	assert.Same(t, typ, Substitute(typ, r, f.Number()))
}
