package ir

import "strings"

// TypeVariable identifies a generic parameter. Two variables are the same
// only if they are the same pointer; names are for display.
//
// IDs are assigned by the owning Universe in declaration order and exist
// only to keep iteration deterministic.
type TypeVariable struct {
	ID   int64
	Name string
}

func (v *TypeVariable) String() string {
	return v.Name
}

// Parameter is a declared type parameter of a constructor.
type Parameter struct {
	Var      *TypeVariable
	Variance Variance // Declaration-site variance
}

// Constructor is a nominal generic type such as List<out E>.
//
// Supertypes are expressed over the constructor's own parameters, e.g.
// MutableList<E> declares the supertype List<E>.
type Constructor struct {
	Name       string
	Params     []Parameter
	Supertypes []*Type
}

// Arity returns the number of declared type parameters.
func (c *Constructor) Arity() int {
	return len(c.Params)
}

// paramVariance returns the declared variance of parameter i, or Invariant
// when the index is out of range (malformed types are treated conservatively).
func (c *Constructor) paramVariance(i int) Variance {
	if i < 0 || i >= len(c.Params) {
		return Invariant
	}
	return c.Params[i].Variance
}

func (c *Constructor) String() string {
	if len(c.Params) == 0 {
		return c.Name
	}
	var buf strings.Builder
	buf.WriteString(c.Name)
	buf.WriteByte('<')
	for i, p := range c.Params {
		if i > 0 {
			buf.WriteString(", ")
		}
		if kw := p.Variance.String(); kw != "" {
			buf.WriteString(kw)
			buf.WriteByte(' ')
		}
		buf.WriteString(p.Var.Name)
	}
	buf.WriteByte('>')
	return buf.String()
}

// Projection is a type argument together with its use-site variance.
type Projection struct {
	Variance Variance
	Type     *Type
}

// Arg returns an invariant (unprojected) argument.
func Arg(t *Type) Projection {
	return Projection{Variance: Invariant, Type: t}
}

// OutArg returns a covariant use-site projection.
func OutArg(t *Type) Projection {
	return Projection{Variance: Out, Type: t}
}

// InArg returns a contravariant use-site projection.
func InArg(t *Type) Projection {
	return Projection{Variance: In, Type: t}
}

func (p Projection) String() string {
	if kw := p.Variance.String(); kw != "" {
		return kw + " " + p.Type.String()
	}
	return p.Type.String()
}

// Type is either a type variable reference or a constructor applied to
// argument projections. Types are immutable.
type Type struct {
	Var         *TypeVariable
	Constructor *Constructor
	Args        []Projection
}

// VariableType returns the type that refers to v.
func VariableType(v *TypeVariable) *Type {
	return &Type{Var: v}
}

// New applies a constructor to argument projections.
func New(c *Constructor, args ...Projection) *Type {
	var copied []Projection
	if len(args) > 0 {
		copied = make([]Projection, len(args))
		copy(copied, args)
	}
	return &Type{Constructor: c, Args: copied}
}

// IsVariable reports whether t is exactly a type variable.
func (t *Type) IsVariable() bool {
	return t != nil && t.Var != nil
}

// Is reports whether t is exactly the variable v.
func (t *Type) Is(v *TypeVariable) bool {
	return t != nil && t.Var != nil && t.Var == v
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Var != nil {
		return t.Var.Name
	}
	if len(t.Args) == 0 {
		return t.Constructor.Name
	}
	var buf strings.Builder
	buf.WriteString(t.Constructor.Name)
	buf.WriteByte('<')
	for i, arg := range t.Args {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(arg.String())
	}
	buf.WriteByte('>')
	return buf.String()
}

// Equal reports structural equality. Variables and constructors compare by
// identity; use-site projections must match exactly.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Var != nil || b.Var != nil {
		return a.Var == b.Var
	}
	if a.Constructor != b.Constructor || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i].Variance != b.Args[i].Variance {
			return false
		}
		if !Equal(a.Args[i].Type, b.Args[i].Type) {
			return false
		}
	}
	return true
}
