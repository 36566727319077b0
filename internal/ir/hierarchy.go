package ir

import "fmt"

// RelationKind distinguishes subtyping from equality constraints.
type RelationKind int

const (
	// Subtype relates Left <: Right.
	Subtype RelationKind = iota
	// Equality relates Left == Right.
	Equality
)

func (k RelationKind) String() string {
	if k == Equality {
		return "=="
	}
	return "<:"
}

// Name returns the upper-case kind name used in traces and stores.
func (k RelationKind) Name() string {
	if k == Equality {
		return "EQUAL"
	}
	return "SUB_TYPE"
}

// ParseRelationKind parses "subtype" (or "") and "equal".
func ParseRelationKind(s string) (RelationKind, error) {
	switch s {
	case "", "subtype", "sub_type":
		return Subtype, nil
	case "equal", "equality":
		return Equality, nil
	default:
		return Subtype, fmt.Errorf("invalid constraint kind %q: must be subtype or equal", s)
	}
}

// Relation is a single subtyping or equality relation between two types.
type Relation struct {
	Kind  RelationKind
	Left  *Type
	Right *Type
}

func (r Relation) String() string {
	return fmt.Sprintf("%s %s %s", r.Left, r.Kind, r.Right)
}

// MismatchError reports two constructed types that cannot be related.
type MismatchError struct {
	Kind  RelationKind
	Left  *Type
	Right *Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s %s %s does not hold", e.Left, e.Kind, e.Right)
}

// DirectSupertypes returns the declared supertypes of t's constructor with
// t's argument projections substituted for the constructor's parameters.
//
// A projected argument keeps its projection in the supertype, composed with
// the supertype's own use-site variance. A supertype the projection cannot be
// expressed in (a conflicting composition, or a projected parameter nested
// deeper than a direct argument) is left out.
func DirectSupertypes(t *Type) []*Type {
	if t == nil || t.Var != nil || len(t.Constructor.Supertypes) == 0 {
		return nil
	}
	subst := make(map[*TypeVariable]Projection, len(t.Args))
	for i, p := range t.Constructor.Params {
		if i < len(t.Args) {
			subst[p.Var] = t.Args[i]
		}
	}
	supers := make([]*Type, 0, len(t.Constructor.Supertypes))
	for _, s := range t.Constructor.Supertypes {
		if super, ok := substituteProjections(s, subst, true); ok {
			supers = append(supers, super)
		}
	}
	return supers
}

// substituteProjections applies subst to a declared supertype. Projections
// are composed only for direct arguments of the top-level type.
func substituteProjections(t *Type, subst map[*TypeVariable]Projection, top bool) (*Type, bool) {
	if t.Var != nil {
		p, ok := subst[t.Var]
		switch {
		case !ok:
			return t, true
		case p.Variance != Invariant:
			return nil, false
		default:
			return p.Type, true
		}
	}
	if len(t.Args) == 0 {
		return t, true
	}

	args := make([]Projection, len(t.Args))
	for i, arg := range t.Args {
		if p, ok := subst[varOf(arg.Type)]; ok && top {
			v, ok := composeProjection(arg.Variance, p.Variance)
			if !ok {
				return nil, false
			}
			args[i] = Projection{Variance: v, Type: p.Type}
			continue
		}
		inner, ok := substituteProjections(arg.Type, subst, false)
		if !ok {
			return nil, false
		}
		args[i] = Projection{Variance: arg.Variance, Type: inner}
	}
	return &Type{Constructor: t.Constructor, Args: args}, true
}

func varOf(t *Type) *TypeVariable {
	if t == nil {
		return nil
	}
	return t.Var
}

// composeProjection places an argument projected with inner at a use site
// projected with outer. Opposite projections cannot be combined.
func composeProjection(outer, inner Variance) (Variance, bool) {
	switch {
	case inner == Invariant:
		return outer, true
	case outer == Invariant, outer == inner:
		return inner, true
	default:
		return Invariant, false
	}
}

// FindSupertype walks t's supertype graph breadth-first (t included) and
// returns the first type built from c, or nil.
func FindSupertype(t *Type, c *Constructor) *Type {
	if t == nil || t.Var != nil {
		return nil
	}
	visited := make(map[*Constructor]bool)
	queue := []*Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Var != nil || visited[cur.Constructor] {
			continue
		}
		visited[cur.Constructor] = true
		if cur.Constructor == c {
			return cur
		}
		queue = append(queue, DirectSupertypes(cur)...)
	}
	return nil
}

// Supertypes returns t followed by all of its transitive supertypes in
// breadth-first order, one per constructor.
func Supertypes(t *Type) []*Type {
	if t == nil || t.Var != nil {
		return nil
	}
	var out []*Type
	visited := make(map[*Constructor]bool)
	queue := []*Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Var != nil || visited[cur.Constructor] {
			continue
		}
		visited[cur.Constructor] = true
		out = append(out, cur)
		queue = append(queue, DirectSupertypes(cur)...)
	}
	return out
}

// Decompose performs one structural step of relating two constructed types.
//
// For a subtype relation it finds left's supertype built from right's
// constructor and relates the arguments by the effective variance of
// right's positions: covariant arguments keep the direction, contravariant
// ones flip it, invariant ones must be equal. An out-projected argument of
// left only fits a covariant position of right, an in-projected one only a
// contravariant position. For equality the constructors must match and every
// argument must be equal.
//
// Variables are rigid here; callers that treat some variables as unknowns
// must intercept them before calling Decompose.
func Decompose(kind RelationKind, left, right *Type) ([]Relation, error) {
	if left == nil || right == nil || left.Var != nil || right.Var != nil {
		return nil, &MismatchError{Kind: kind, Left: left, Right: right}
	}

	if kind == Equality {
		if left.Constructor != right.Constructor || len(left.Args) != len(right.Args) {
			return nil, &MismatchError{Kind: kind, Left: left, Right: right}
		}
		rels := make([]Relation, 0, len(left.Args))
		for i := range left.Args {
			if left.Args[i].Variance != right.Args[i].Variance {
				return nil, &MismatchError{Kind: kind, Left: left, Right: right}
			}
			rels = append(rels, Relation{Kind: Equality, Left: left.Args[i].Type, Right: right.Args[i].Type})
		}
		return rels, nil
	}

	super := FindSupertype(left, right.Constructor)
	if super == nil || len(super.Args) != len(right.Args) {
		return nil, &MismatchError{Kind: kind, Left: left, Right: right}
	}

	rels := make([]Relation, 0, len(right.Args))
	for i, arg := range right.Args {
		sub := super.Args[i].Type
		effective := Effective(right.Constructor.paramVariance(i), arg.Variance)
		if projected := super.Args[i].Variance; projected != Invariant && projected != effective {
			return nil, &MismatchError{Kind: kind, Left: left, Right: right}
		}
		switch effective {
		case Out:
			rels = append(rels, Relation{Kind: Subtype, Left: sub, Right: arg.Type})
		case In:
			rels = append(rels, Relation{Kind: Subtype, Left: arg.Type, Right: sub})
		default:
			rels = append(rels, Relation{Kind: Equality, Left: sub, Right: arg.Type})
		}
	}
	return rels, nil
}

// IsSubtype reports whether left <: right holds, treating every variable as
// a rigid type equal only to itself.
func IsSubtype(left, right *Type) bool {
	if Equal(left, right) {
		return true
	}
	rels, err := Decompose(Subtype, left, right)
	if err != nil {
		return false
	}
	for _, rel := range rels {
		if !Holds(rel) {
			return false
		}
	}
	return true
}

// Holds reports whether a relation is satisfied with rigid variables.
func Holds(rel Relation) bool {
	if rel.Kind == Equality {
		return Equal(rel.Left, rel.Right)
	}
	return IsSubtype(rel.Left, rel.Right)
}

// CommonSupertype returns the most specific type every element of ts is a
// subtype of, or nil when none can be built.
//
// Candidates are taken from the supertype closure of the first type in
// breadth-first order. Arguments of a candidate are unified when they agree;
// covariant arguments that disagree are joined recursively.
func CommonSupertype(ts []*Type) *Type {
	switch len(ts) {
	case 0:
		return nil
	case 1:
		return ts[0]
	}

	allEqual := true
	for _, t := range ts[1:] {
		if !Equal(ts[0], t) {
			allEqual = false
			break
		}
	}
	if allEqual {
		return ts[0]
	}

	for _, t := range ts {
		if t.Var != nil {
			return nil
		}
	}

	for _, candidate := range Supertypes(ts[0]) {
		if joined := joinAt(candidate.Constructor, ts); joined != nil {
			return joined
		}
	}
	return nil
}

// joinAt builds a common supertype of ts whose constructor is c.
func joinAt(c *Constructor, ts []*Type) *Type {
	views := make([]*Type, len(ts))
	for i, t := range ts {
		views[i] = FindSupertype(t, c)
		if views[i] == nil || len(views[i].Args) != c.Arity() {
			return nil
		}
	}

	args := make([]Projection, c.Arity())
	for i := range args {
		first := views[0].Args[i]
		agree := true
		for _, view := range views[1:] {
			if !Equal(view.Args[i].Type, first.Type) || view.Args[i].Variance != first.Variance {
				agree = false
				break
			}
		}
		if agree {
			args[i] = first
			continue
		}
		if c.paramVariance(i) != Out {
			return nil
		}
		argTypes := make([]*Type, len(views))
		for j, view := range views {
			argTypes[j] = view.Args[i].Type
		}
		joined := CommonSupertype(argTypes)
		if joined == nil {
			return nil
		}
		args[i] = Arg(joined)
	}

	result := New(c, args...)
	for _, t := range ts {
		if !IsSubtype(t, result) {
			return nil
		}
	}
	return result
}
