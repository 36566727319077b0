package ir

// NestedArgument is a type found inside another type together with the
// variance of its position relative to the root.
type NestedArgument struct {
	Type     *Type
	Variance Variance
}

// NestedArguments enumerates every type nested in t, depth-first in argument
// order. The first entry is t itself with invariant variance.
//
// The variance of a nested entry composes the effective (declaration-site
// combined with use-site) variance of every argument position on the path
// from the root. For Comparator<in T> and List<out E>, R inside
// Comparator<List<R>> is reported as In.
func NestedArguments(t *Type) []NestedArgument {
	if t == nil {
		return nil
	}
	out := []NestedArgument{{Type: t, Variance: Invariant}}
	collectNested(t, Out, &out)
	return out
}

func collectNested(t *Type, path Variance, out *[]NestedArgument) {
	if t.Var != nil {
		return
	}
	for i, arg := range t.Args {
		v := Compose(path, Effective(t.Constructor.paramVariance(i), arg.Variance))
		*out = append(*out, NestedArgument{Type: arg.Type, Variance: v})
		collectNested(arg.Type, v, out)
	}
}

// NestedVariables returns the distinct type variables occurring in t, in
// first-occurrence order. A variable type yields itself.
func NestedVariables(t *Type) []*TypeVariable {
	var vars []*TypeVariable
	seen := make(map[*TypeVariable]bool)
	for _, arg := range NestedArguments(t) {
		if arg.Type.Var != nil && !seen[arg.Type.Var] {
			seen[arg.Type.Var] = true
			vars = append(vars, arg.Type.Var)
		}
	}
	return vars
}

// Contains reports whether v occurs anywhere in t.
func Contains(t *Type, v *TypeVariable) bool {
	if t == nil {
		return false
	}
	if t.Var != nil {
		return t.Var == v
	}
	for _, arg := range t.Args {
		if Contains(arg.Type, v) {
			return true
		}
	}
	return false
}

// Substitute replaces every occurrence of v in t with replacement.
//
// Each occurrence keeps its use-site projection, so the effective variance
// of the substituted position is unchanged. Unchanged subtrees are shared.
func Substitute(t *Type, v *TypeVariable, replacement *Type) *Type {
	return SubstituteAll(t, map[*TypeVariable]*Type{v: replacement})
}

// SubstituteAll applies a simultaneous substitution to t.
func SubstituteAll(t *Type, subst map[*TypeVariable]*Type) *Type {
	if t == nil || len(subst) == 0 {
		return t
	}
	if t.Var != nil {
		if r, ok := subst[t.Var]; ok {
			return r
		}
		return t
	}

	var args []Projection
	for i, arg := range t.Args {
		sub := SubstituteAll(arg.Type, subst)
		if sub == arg.Type && args == nil {
			continue
		}
		if args == nil {
			args = make([]Projection, len(t.Args))
			copy(args, t.Args[:i])
		}
		args[i] = Projection{Variance: arg.Variance, Type: sub}
	}
	if args == nil {
		return t
	}
	return &Type{Constructor: t.Constructor, Args: args}
}
