package engine

import (
	set "github.com/hashicorp/go-set/v3"

	"github.com/roach88/tyinfer/internal/ir"
)

// fixFrame is one variable on the fixation stack.
type fixFrame struct {
	variable *ir.TypeVariable
	deps     []*ir.TypeVariable
	next     int
}

// FixVariable commits v to a final type. Idempotent.
//
// Every variable mentioned by v's bounds is fixed first, since committing a
// dependency may supply the EXACT value v still needs. The walk is
// post-order over an explicit stack; a variable is marked fixed on entry so
// cycles between bounds terminate.
//
// When v has a value it is added back as an EXACT bound at the completer
// position and incorporated, so variables that depend on v receive the
// substitution. When it has none, an UNRESOLVED_VARIABLE error is recorded.
func (s *System) FixVariable(v *ir.TypeVariable) {
	tb := s.bounds[v]
	if tb == nil || tb.fixed {
		return
	}

	visited := set.New[*ir.TypeVariable](len(s.variables))
	stack := []*fixFrame{s.enterFixation(v, visited)}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.deps) {
			dep := top.deps[top.next]
			top.next++
			if !visited.Contains(dep) && !s.bounds[dep].fixed {
				stack = append(stack, s.enterFixation(dep, visited))
			}
			continue
		}
		stack = stack[:len(stack)-1]
		s.completeFixation(top.variable)
	}
}

// enterFixation marks v fixed and snapshots the variables its bounds mention.
func (s *System) enterFixation(v *ir.TypeVariable, visited *set.Set[*ir.TypeVariable]) *fixFrame {
	visited.Insert(v)
	tb := s.bounds[v]
	tb.fixed = true
	s.fixOrder = append(s.fixOrder, v)

	seen := set.New[*ir.TypeVariable](0)
	var deps []*ir.TypeVariable
	for _, b := range tb.bounds {
		for _, dep := range s.myNestedVariables(b.Type) {
			if seen.Insert(dep) {
				deps = append(deps, dep)
			}
		}
	}
	return &fixFrame{variable: v, deps: deps}
}

// completeFixation commits the value of v and seals its bounds.
func (s *System) completeFixation(v *ir.TypeVariable) {
	tb := s.bounds[v]
	value := tb.Value()

	if value == nil {
		tb.seal(nil)
		s.errors = append(s.errors, NewUnresolvedError(v.Name))
		s.logger.Debug("variable unresolved", "variable", v.Name, "bounds", len(tb.bounds))
		s.emit(Event{Type: EventVariableFixed, Variable: v.Name})
		return
	}

	s.logger.Debug("variable fixed", "variable", v.Name, "value", value.String())
	s.emit(Event{Type: EventVariableFixed, Variable: v.Name, Value: value.String()})
	s.AddBound(v, Bound{
		Variable: v,
		Type:     value,
		Kind:     Exact,
		Position: CompleterPosition(),
		Pure:     s.isPure(value),
	})
	tb.seal(value)
}

// FixVariablesInType fixes every variable of this system nested in t.
func (s *System) FixVariablesInType(t *ir.Type) {
	for _, v := range s.myNestedVariables(t) {
		s.FixVariable(v)
	}
}

// FixVariables fixes every registered variable: non-local variables first,
// then local ones, each group in creation order.
func (s *System) FixVariables() {
	var local, nonLocal []*ir.TypeVariable
	for _, v := range s.variables {
		if s.IsLocalVariable(v) {
			local = append(local, v)
		} else {
			nonLocal = append(nonLocal, v)
		}
	}
	for _, v := range nonLocal {
		s.FixVariable(v)
	}
	for _, v := range local {
		s.FixVariable(v)
	}
}
