package engine

import "github.com/roach88/tyinfer/internal/ir"

// Solution is the outcome of solving one problem.
type Solution struct {
	Problem   string
	Variables []VariableResult // Declaration order
	Events    []Event
	FixOrder  []string
	Errors    []*InferenceError
	Status    Status
}

// VariableResult is the final state of one variable.
type VariableResult struct {
	Name     string
	Local    bool
	Value    *ir.Type // nil if unresolved
	Resolved bool
	Bounds   []Bound
}

// Variable returns the result for the named variable.
func (s *Solution) Variable(name string) (VariableResult, bool) {
	for _, v := range s.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VariableResult{}, false
}

// Solve runs a problem through a fresh System:
//  1. registers the declared variables
//  2. replays the constraints in declaration order
//  3. fixes the variables of the expected type, then the explicit fix list
//  4. fixes all remaining variables
//
// Options are passed to NewSystem; a Recorder is always attached so the
// Solution carries the full trace.
func Solve(p *ir.Problem, opts ...Option) *Solution {
	recorder := NewRecorder()
	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	sys := NewSystem(append(all, WithObserver(recorder))...)
	SolveInto(sys, p)

	sol := &Solution{
		Problem: p.Name,
		Events:  recorder.Events(),
		Errors:  sys.Errors(),
		Status:  sys.Status(),
	}
	for _, v := range sys.FixOrder() {
		sol.FixOrder = append(sol.FixOrder, v.Name)
	}
	for _, decl := range p.Variables {
		tb := sys.TypeBounds(decl.Var)
		value := sys.Result(decl.Var)
		sol.Variables = append(sol.Variables, VariableResult{
			Name:     decl.Var.Name,
			Local:    decl.Local,
			Value:    value,
			Resolved: value != nil,
			Bounds:   tb.Bounds(),
		})
	}
	return sol
}

// SolveInto replays p into an existing System and fixes all variables.
func SolveInto(sys *System, p *ir.Problem) {
	for _, decl := range p.Variables {
		sys.RegisterVariables([]*ir.TypeVariable{decl.Var}, decl.Local)
	}

	for i, c := range p.Constraints {
		sys.AddConstraint(c.Kind, c.Sub, c.Super, ParsePosition(c.Position, i))
	}

	if p.Expected != nil {
		sys.FixVariablesInType(p.Expected)
	}
	for _, v := range p.Fix {
		sys.FixVariable(v)
	}
	sys.FixVariables()
}
