package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tyinfer/internal/ir"
)

// ProblemSpec is a problem as declared in CUE, before any name is resolved.
// Type expressions are kept as source strings so validation can report every
// problem with them, not just the first.
type ProblemSpec struct {
	Name         string
	Description  string
	Constructors []ConstructorSpec
	Variables    []VariableSpec
	Constraints  []ConstraintSpec
	Expected     string   // optional type expression
	Fix          []string // optional variable names
	Pos          token.Pos
}

// ConstructorSpec declares a generic type constructor.
type ConstructorSpec struct {
	Name       string
	Params     []ParamSpec
	Supertypes []string // type expressions over Params
	Pos        token.Pos
}

// ParamSpec declares one constructor parameter.
type ParamSpec struct {
	Name     string
	Variance string // "", "in", "out" or "invariant"
}

// VariableSpec declares one type variable under solution.
type VariableSpec struct {
	Name  string
	Local bool
	Pos   token.Pos
}

// ConstraintSpec is one constraint between two type expressions.
type ConstraintSpec struct {
	Kind     string // "subtype" (default) or "equal"
	Sub      string
	Super    string
	Position string
	Pos      token.Pos
}

// DecodeProblem reads a CUE value into a ProblemSpec. Only structural errors
// (missing fields, wrong kinds) are reported here; names are checked by
// ValidateProblem.
//
// The CUE value should be the problem struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`problem: covariantUpper: { ... }`)
//	spec, err := DecodeProblem(v.LookupPath(cue.ParsePath("problem.covariantUpper")))
func DecodeProblem(v cue.Value) (*ProblemSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ProblemSpec{Pos: v.Pos()}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	desc, _, err := optionalString(v, "description")
	if err != nil {
		return nil, err
	}
	spec.Description = desc

	if spec.Constructors, err = decodeConstructors(v); err != nil {
		return nil, err
	}
	if spec.Variables, err = decodeVariables(v); err != nil {
		return nil, err
	}
	if spec.Constraints, err = decodeConstraints(v); err != nil {
		return nil, err
	}

	if spec.Expected, _, err = optionalString(v, "expected"); err != nil {
		return nil, err
	}

	fixVal := v.LookupPath(cue.ParsePath("fix"))
	if fixVal.Exists() {
		if spec.Fix, err = stringList(fixVal, "fix"); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

func decodeConstructors(v cue.Value) ([]ConstructorSpec, error) {
	var out []ConstructorSpec

	consVal := v.LookupPath(cue.ParsePath("constructors"))
	if !consVal.Exists() {
		return out, nil
	}

	iter, err := consVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		cv := iter.Value()
		cons := ConstructorSpec{Name: name, Pos: cv.Pos()}

		paramsVal := cv.LookupPath(cue.ParsePath("params"))
		if paramsVal.Exists() {
			paramIter, err := paramsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for i := 0; paramIter.Next(); i++ {
				field := fmt.Sprintf("constructors.%s.params[%d]", name, i)
				pv := paramIter.Value()
				pname, err := requiredString(pv, "name", field)
				if err != nil {
					return nil, err
				}
				variance, _, err := optionalString(pv, "variance")
				if err != nil {
					return nil, err
				}
				cons.Params = append(cons.Params, ParamSpec{Name: pname, Variance: variance})
			}
		}

		supersVal := cv.LookupPath(cue.ParsePath("supertypes"))
		if supersVal.Exists() {
			cons.Supertypes, err = stringList(supersVal, fmt.Sprintf("constructors.%s.supertypes", name))
			if err != nil {
				return nil, err
			}
		}

		out = append(out, cons)
	}
	return out, nil
}

func decodeVariables(v cue.Value) ([]VariableSpec, error) {
	var out []VariableSpec

	varsVal := v.LookupPath(cue.ParsePath("variables"))
	if !varsVal.Exists() {
		return out, nil
	}

	iter, err := varsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		vv := iter.Value()
		decl := VariableSpec{Name: iter.Label(), Pos: vv.Pos()}

		localVal := vv.LookupPath(cue.ParsePath("local"))
		if localVal.Exists() {
			local, err := localVal.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
			decl.Local = local
		}
		out = append(out, decl)
	}
	return out, nil
}

func decodeConstraints(v cue.Value) ([]ConstraintSpec, error) {
	var out []ConstraintSpec

	consVal := v.LookupPath(cue.ParsePath("constraints"))
	if !consVal.Exists() {
		return out, nil
	}

	iter, err := consVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("constraints[%d]", i)
		cv := iter.Value()
		c := ConstraintSpec{Pos: cv.Pos()}

		if c.Sub, err = requiredString(cv, "sub", field); err != nil {
			return nil, err
		}
		if c.Super, err = requiredString(cv, "super", field); err != nil {
			return nil, err
		}
		if c.Kind, _, err = optionalString(cv, "kind"); err != nil {
			return nil, err
		}
		if c.Position, _, err = optionalString(cv, "position"); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func requiredString(v cue.Value, name, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, name string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: v.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// BuildProblem resolves a ProblemSpec into an ir.Problem with its own
// Universe. The problem is validated first; the first validation error is
// returned as a *CompileError.
func BuildProblem(spec *ProblemSpec) (*ir.Problem, error) {
	if errs := ValidateProblem(spec); len(errs) > 0 {
		first := errs[0]
		return nil, &CompileError{
			Field:   first.Field,
			Message: fmt.Sprintf("[%s] %s", first.Code, first.Message),
			Pos:     first.pos,
		}
	}

	u := ir.NewUniverse()
	p := &ir.Problem{Name: spec.Name, Description: spec.Description, Universe: u}

	// Declare every constructor before resolving supertypes, which may
	// mention constructors declared later.
	paramScopes := make(map[string]map[string]*ir.TypeVariable, len(spec.Constructors))
	constructors := make([]*ir.Constructor, len(spec.Constructors))
	for i, cs := range spec.Constructors {
		scope := make(map[string]*ir.TypeVariable, len(cs.Params))
		params := make([]ir.Parameter, len(cs.Params))
		for j, ps := range cs.Params {
			variance, err := ir.ParseVariance(ps.Variance)
			if err != nil {
				return nil, &CompileError{Field: fmt.Sprintf("constructors.%s.params[%d].variance", cs.Name, j), Message: err.Error(), Pos: cs.Pos}
			}
			params[j] = u.NewParameter(ps.Name, variance)
			scope[ps.Name] = params[j].Var
		}
		c, err := u.Declare(cs.Name, params...)
		if err != nil {
			return nil, &CompileError{Field: "constructors." + cs.Name, Message: err.Error(), Pos: cs.Pos}
		}
		constructors[i] = c
		paramScopes[cs.Name] = scope
	}

	for i, cs := range spec.Constructors {
		sc := resolveScope{universe: u, vars: paramScopes[cs.Name]}
		for j, src := range cs.Supertypes {
			t, err := sc.resolveString(src)
			if err != nil {
				return nil, &CompileError{Field: fmt.Sprintf("constructors.%s.supertypes[%d]", cs.Name, j), Message: err.Error(), Pos: cs.Pos}
			}
			constructors[i].Supertypes = append(constructors[i].Supertypes, t)
		}
	}

	sc := resolveScope{universe: u, vars: make(map[string]*ir.TypeVariable, len(spec.Variables))}
	for _, vs := range spec.Variables {
		tv := u.NewVariable(vs.Name)
		sc.vars[vs.Name] = tv
		p.Variables = append(p.Variables, ir.VariableDecl{Var: tv, Local: vs.Local})
	}

	for i, cs := range spec.Constraints {
		field := fmt.Sprintf("constraints[%d]", i)
		kind, err := ir.ParseRelationKind(cs.Kind)
		if err != nil {
			return nil, &CompileError{Field: field + ".kind", Message: err.Error(), Pos: cs.Pos}
		}
		sub, err := sc.resolveString(cs.Sub)
		if err != nil {
			return nil, &CompileError{Field: field + ".sub", Message: err.Error(), Pos: cs.Pos}
		}
		super, err := sc.resolveString(cs.Super)
		if err != nil {
			return nil, &CompileError{Field: field + ".super", Message: err.Error(), Pos: cs.Pos}
		}
		p.Constraints = append(p.Constraints, ir.ConstraintDecl{Kind: kind, Sub: sub, Super: super, Position: cs.Position})
	}

	if spec.Expected != "" {
		t, err := sc.resolveString(spec.Expected)
		if err != nil {
			return nil, &CompileError{Field: "expected", Message: err.Error(), Pos: spec.Pos}
		}
		p.Expected = t
	}

	for _, name := range spec.Fix {
		p.Fix = append(p.Fix, sc.vars[name])
	}

	return p, nil
}

// CompileProblem decodes, validates and builds a single problem.
func CompileProblem(v cue.Value) (*ir.Problem, error) {
	spec, err := DecodeProblem(v)
	if err != nil {
		return nil, err
	}
	return BuildProblem(spec)
}

// resolveScope maps names in type expressions to variables and constructors.
// Variables shadow constructors; validation rejects such collisions.
type resolveScope struct {
	universe *ir.Universe
	vars     map[string]*ir.TypeVariable
}

func (s resolveScope) resolveString(src string) (*ir.Type, error) {
	expr, err := ParseTypeExpr(src)
	if err != nil {
		return nil, err
	}
	return s.resolve(expr)
}

func (s resolveScope) resolve(e *TypeExpr) (*ir.Type, error) {
	if v, ok := s.vars[e.Name]; ok {
		if len(e.Args) > 0 {
			return nil, fmt.Errorf("type variable %s takes no type arguments", e.Name)
		}
		return ir.VariableType(v), nil
	}

	c, ok := s.universe.Constructor(e.Name)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", e.Name)
	}
	if len(e.Args) != c.Arity() {
		return nil, fmt.Errorf("%s expects %d type arguments, got %d", c.Name, c.Arity(), len(e.Args))
	}

	args := make([]ir.Projection, len(e.Args))
	for i, a := range e.Args {
		variance, err := ir.ParseVariance(a.Variance)
		if err != nil {
			return nil, err
		}
		t, err := s.resolve(a.Type)
		if err != nil {
			return nil, err
		}
		args[i] = ir.Projection{Variance: variance, Type: t}
	}
	return ir.New(c, args...), nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
