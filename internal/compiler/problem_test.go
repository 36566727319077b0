package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tyinfer/internal/engine"
	"github.com/roach88/tyinfer/internal/ir"
	"github.com/roach88/tyinfer/internal/testutil"
)

const covariantSource = `
problem: covariantUpper: {
	description: "T <: List<R>, R <: Int"
	constructors: {
		Any: {}
		Int: supertypes: ["Any"]
		List: {
			params: [{name: "E", variance: "out"}]
			supertypes: ["Any"]
		}
		MutableList: {
			params: [{name: "E"}]
			supertypes: ["List<E>"]
		}
	}
	variables: {
		T: {}
		R: local: true
	}
	constraints: [
		{sub: "T", super: "List<R>", position: "receiver"},
		{sub: "R", super: "Int"},
	]
	expected: "List<T>"
	fix: ["R"]
}
`

func compileValue(t *testing.T, src, path string) cue.Value {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath(path))
}

func TestDecodeProblem(t *testing.T) {
	spec, err := DecodeProblem(compileValue(t, covariantSource, "problem.covariantUpper"))
	require.NoError(t, err)

	assert.Equal(t, "covariantUpper", spec.Name)
	assert.Equal(t, "T <: List<R>, R <: Int", spec.Description)

	require.Len(t, spec.Constructors, 4)
	assert.Equal(t, "Any", spec.Constructors[0].Name)
	assert.Equal(t, []string{"Any"}, spec.Constructors[1].Supertypes)
	assert.Equal(t, []ParamSpec{{Name: "E", Variance: "out"}}, spec.Constructors[2].Params)
	assert.Equal(t, []ParamSpec{{Name: "E"}}, spec.Constructors[3].Params)

	require.Len(t, spec.Variables, 2)
	assert.Equal(t, "T", spec.Variables[0].Name)
	assert.False(t, spec.Variables[0].Local)
	assert.Equal(t, "R", spec.Variables[1].Name)
	assert.True(t, spec.Variables[1].Local)

	require.Len(t, spec.Constraints, 2)
	assert.Equal(t, "T", spec.Constraints[0].Sub)
	assert.Equal(t, "List<R>", spec.Constraints[0].Super)
	assert.Equal(t, "receiver", spec.Constraints[0].Position)
	assert.Equal(t, "", spec.Constraints[1].Position)
	assert.Equal(t, "", spec.Constraints[1].Kind)

	assert.Equal(t, "List<T>", spec.Expected)
	assert.Equal(t, []string{"R"}, spec.Fix)
}

func TestCompileProblem(t *testing.T) {
	p, err := CompileProblem(compileValue(t, covariantSource, "problem.covariantUpper"))
	require.NoError(t, err)

	assert.Equal(t, "covariantUpper", p.Name)
	assert.Equal(t, []string{"T", "R"}, p.VariableNames())
	assert.False(t, p.Variables[0].Local)
	assert.True(t, p.Variables[1].Local)

	list, ok := p.Universe.Constructor("List")
	require.True(t, ok)
	assert.Equal(t, "List<out E>", list.String())
	require.Len(t, list.Supertypes, 1)
	assert.Equal(t, "Any", list.Supertypes[0].String())

	require.Len(t, p.Constraints, 2)
	assert.Equal(t, ir.Subtype, p.Constraints[0].Kind)
	assert.Equal(t, "T", p.Constraints[0].Sub.String())
	assert.Equal(t, "List<R>", p.Constraints[0].Super.String())
	assert.Equal(t, "receiver", p.Constraints[0].Position)

	r, _ := p.Variable("R")
	assert.True(t, p.Constraints[1].Sub.Is(r), "constraint types refer to the declared variable")

	assert.Equal(t, "List<T>", p.Expected.String())
	require.Len(t, p.Fix, 1)
	assert.Same(t, r, p.Fix[0])
}

func TestCompileProblem_SupertypesUseOwnParameters(t *testing.T) {
	p, err := CompileProblem(compileValue(t, covariantSource, "problem.covariantUpper"))
	require.NoError(t, err)

	ml, ok := p.Universe.Constructor("MutableList")
	require.True(t, ok)
	require.Len(t, ml.Supertypes, 1)
	super := ml.Supertypes[0]
	assert.Equal(t, "List<E>", super.String())
	assert.True(t, super.Args[0].Type.Is(ml.Params[0].Var))
}

func TestCompileProblem_Solves(t *testing.T) {
	p, err := CompileProblem(compileValue(t, covariantSource, "problem.covariantUpper"))
	require.NoError(t, err)

	sol := engine.Solve(p, engine.WithLogger(testutil.DiscardLogger()))

	assert.True(t, sol.Status.IsSuccessful())
	tr, _ := sol.Variable("T")
	assert.Equal(t, "List<Int>", tr.Value.String())
	rr, _ := sol.Variable("R")
	assert.Equal(t, "Int", rr.Value.String())
}

func TestCompileProblem_EqualityAndProjections(t *testing.T) {
	src := `
problem: eq: {
	constructors: {
		Any: {}
		Comparator: params: [{name: "T", variance: "in"}]
		Box: params: [{name: "V", variance: "invariant"}]
	}
	variables: X: {}
	constraints: [
		{sub: "X", super: "Box<out Any>", kind: "equal", position: "expected"},
		{sub: "Comparator<X>", super: "Comparator<Any>", kind: "subtype"},
	]
}
`
	p, err := CompileProblem(compileValue(t, src, "problem.eq"))
	require.NoError(t, err)

	assert.Equal(t, ir.Equality, p.Constraints[0].Kind)
	assert.Equal(t, "Box<out Any>", p.Constraints[0].Super.String())
	assert.Equal(t, ir.Out, p.Constraints[0].Super.Args[0].Variance)
	assert.Equal(t, ir.Subtype, p.Constraints[1].Kind)

	cmp, _ := p.Universe.Constructor("Comparator")
	assert.Equal(t, ir.In, cmp.Params[0].Variance)
	box, _ := p.Universe.Constructor("Box")
	assert.Equal(t, ir.Invariant, box.Params[0].Variance)
	assert.Nil(t, p.Expected)
	assert.Empty(t, p.Fix)
}

func TestDecodeProblem_MissingConstraintSide(t *testing.T) {
	src := `
problem: bad: {
	variables: T: {}
	constraints: [{sub: "T"}]
}
`
	_, err := DecodeProblem(compileValue(t, src, "problem.bad"))

	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "constraints[0].super", ce.Field)
	assert.Contains(t, err.Error(), "super is required")
}

func TestDecodeProblem_MissingParamName(t *testing.T) {
	src := `
problem: bad: {
	constructors: List: params: [{variance: "out"}]
}
`
	_, err := DecodeProblem(compileValue(t, src, "problem.bad"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "constructors.List.params[0].name")
}

func TestDecodeProblem_WrongKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"local not bool", `problem: bad: variables: T: local: "yes"`},
		{"fix not list", `problem: bad: { variables: T: {}, fix: "T" }`},
		{"constraints not list", `problem: bad: constraints: {sub: "T", super: "T"}`},
		{"description not string", `problem: bad: description: 3`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProblem(compileValue(t, tt.src, "problem.bad"))
			assert.Error(t, err)
		})
	}
}

func TestBuildProblem_ReportsFirstValidationError(t *testing.T) {
	src := `
problem: bad: {
	constructors: Any: {}
	variables: T: {}
	constraints: [
		{sub: "T", super: "Set<Any>"},
		{sub: "U", super: "Any"},
	]
}
`
	_, err := CompileProblem(compileValue(t, src, "problem.bad"))

	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "constraints[0].super", ce.Field)
	assert.Contains(t, ce.Message, "[E101]")
	assert.Contains(t, ce.Message, "Set")
}

func TestBuildProblem_FromSpec(t *testing.T) {
	spec := &ProblemSpec{
		Name: "manual",
		Constructors: []ConstructorSpec{
			{Name: "Any"},
			{Name: "Int", Supertypes: []string{"Any"}},
		},
		Variables:   []VariableSpec{{Name: "T"}},
		Constraints: []ConstraintSpec{{Sub: "Int", Super: "T"}},
	}

	p, err := BuildProblem(spec)
	require.NoError(t, err)

	assert.Equal(t, "manual", p.Name)
	assert.Equal(t, "Int <: T", ir.Relation{Kind: p.Constraints[0].Kind, Left: p.Constraints[0].Sub, Right: p.Constraints[0].Super}.String())
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "constraints[0].sub", Message: "sub is required"}
	assert.Equal(t, "constraints[0].sub: sub is required", err.Error())
}
