package engine

import "github.com/roach88/tyinfer/internal/ir"

// incorporate derives consequences of b, which has just been stored on v.
//
// Every path that cannot determine a sound new bound returns silently.
func (s *System) incorporate(v *ir.TypeVariable, b Bound) {
	tb := s.bounds[v]

	// Pairwise with existing bounds of v.
	for _, existing := range tb.Bounds() {
		s.addConstraintFromBounds(existing, b)
	}

	// Substitute b into bounds of other variables that mention v.
	for _, dependent := range s.DependentBounds(v) {
		s.generateNewConstraint(dependent.Variable, dependent, b)
	}

	// Variable-to-variable bound: mirror it onto the other variable.
	if u := s.MyTypeVariable(b.Type); u != nil {
		s.AddBound(u, Bound{
			Variable: u,
			Type:     ir.VariableType(v),
			Kind:     b.Kind.Reverse(),
			Position: b.Position,
		})
		return
	}

	// Apply already-known bounds of variables nested in b.
	for _, u := range s.myNestedVariables(b.Type) {
		for _, ub := range s.bounds[u].Bounds() {
			s.generateNewConstraint(v, b, ub)
		}
	}
}

// addConstraintFromBounds emits the constraint implied by two bounds of the
// same variable.
func (s *System) addConstraintFromBounds(first, second Bound) {
	if first.Equal(second) {
		return
	}
	rel, ok := combineBounds(first, second)
	if !ok {
		return
	}
	s.AddConstraint(rel.Kind, rel.Left, rel.Right, Compound(first.Position, second.Position))
}

// combineBounds is the pairwise kind table:
//
//	LOWER/UPPER, LOWER/EXACT, EXACT/UPPER  first <: second
//	UPPER/LOWER, UPPER/EXACT, EXACT/LOWER  second <: first
//	EXACT/EXACT                            first == second
//
// Same-direction pairs imply nothing.
func combineBounds(first, second Bound) (ir.Relation, bool) {
	switch {
	case first.Kind == Lower && second.Kind == Upper,
		first.Kind == Lower && second.Kind == Exact,
		first.Kind == Exact && second.Kind == Upper:
		return ir.Relation{Kind: ir.Subtype, Left: first.Type, Right: second.Type}, true
	case first.Kind == Upper && second.Kind == Lower,
		first.Kind == Upper && second.Kind == Exact,
		first.Kind == Exact && second.Kind == Lower:
		return ir.Relation{Kind: ir.Subtype, Left: second.Type, Right: first.Type}, true
	case first.Kind == Exact && second.Kind == Exact:
		return ir.Relation{Kind: ir.Equality, Left: first.Type, Right: second.Type}, true
	}
	return ir.Relation{}, false
}

// generateNewConstraint substitutes the bound sub (on variable R) into the
// bound outer (T <=> My<R>) and adds T <=> My<sub.Type> to variable.
func (s *System) generateNewConstraint(variable *ir.TypeVariable, outer, sub Bound) {
	variance, ok := substitutionVariance(outer.Type, sub.Variable)
	if !ok {
		return
	}
	kind, ok := computeKindOfNewBound(outer.Kind, variance, sub.Kind)
	if !ok || sub.Variable == outer.Variable {
		return
	}

	newType := ir.Substitute(outer.Type, sub.Variable, sub.Type)
	if ir.Contains(newType, outer.Variable) {
		s.logger.Debug("substitution rejected: recursive",
			"outer", outer.String(), "substitution", sub.String())
		return
	}

	s.AddBound(variable, Bound{
		Variable: variable,
		Type:     newType,
		Kind:     kind,
		Position: Compound(outer.Position, sub.Position),
		Pure:     s.isPure(newType),
	})
}

// substitutionVariance returns the variance of v inside t. A variable that
// occurs at positions of different variance is treated as invariant.
func substitutionVariance(t *ir.Type, v *ir.TypeVariable) (ir.Variance, bool) {
	found := false
	var variance ir.Variance
	for _, arg := range ir.NestedArguments(t) {
		if !arg.Type.Is(v) {
			continue
		}
		if !found {
			variance = arg.Variance
			found = true
			continue
		}
		if arg.Variance != variance {
			return ir.Invariant, true
		}
	}
	return variance, found
}

// computeKindOfNewBound composes the kind of an outer bound T <=> My<R> with
// the kind of a substitution R <=> X at a position of the given variance.
//
//	T < My<R>, R = Int        -> T < My<Int>
//	T < MutableList<R>, R < X -> nothing (R might still narrow)
//	T = List<R>, R < Int      -> T < List<Int>
//	T = Comparator<R>, R < Int -> T > Comparator<Int>
//	T < List<R>, R > Int      -> nothing
func computeKindOfNewBound(outerKind BoundKind, variance ir.Variance, innerKind BoundKind) (BoundKind, bool) {
	if innerKind == Exact {
		return outerKind, true
	}
	if variance == ir.Invariant {
		return 0, false
	}

	adjusted := innerKind
	if variance == ir.In {
		adjusted = innerKind.Reverse()
	}
	if outerKind == Exact || outerKind == adjusted {
		return adjusted, true
	}
	return 0, false
}
