package engine

import (
	"log/slog"

	set "github.com/hashicorp/go-set/v3"

	"github.com/roach88/tyinfer/internal/ir"
)

// System is the constraint system of one inference attempt.
//
// It owns a TypeBounds per registered variable (kept in creation order), the
// set of local variables and a reverse index from each variable to the
// bounds of other variables that mention it.
//
// A System is not safe for concurrent use. Each inference attempt (each
// candidate of an overloaded call) gets its own System.
type System struct {
	logger    *slog.Logger
	observers []Observer
	clock     SeqClock
	depth     depthGuard

	variables  []*ir.TypeVariable
	bounds     map[*ir.TypeVariable]*TypeBounds
	local      *set.Set[*ir.TypeVariable]
	dependents map[*ir.TypeVariable][]Bound

	errors   []*InferenceError
	fixOrder []*ir.TypeVariable
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		s.logger = logger
	}
}

// WithObserver registers an observer for trace events. May be repeated.
func WithObserver(o Observer) Option {
	return func(s *System) {
		s.observers = append(s.observers, o)
	}
}

// WithMaxDepth bounds nested incorporation. A bound stored beyond the limit
// is kept but not incorporated, and a DEPTH_EXCEEDED error is recorded.
//
// Default: 0 (unlimited).
func WithMaxDepth(n int) Option {
	return func(s *System) {
		s.depth.max = n
	}
}

// WithClock sets the clock that stamps trace events.
// Use NewClockAt to continue an existing trace.
func WithClock(c SeqClock) Option {
	return func(s *System) {
		s.clock = c
	}
}

// NewSystem creates an empty constraint system.
func NewSystem(opts ...Option) *System {
	s := &System{
		logger:     slog.Default(),
		clock:      NewClock(),
		bounds:     make(map[*ir.TypeVariable]*TypeBounds),
		local:      set.New[*ir.TypeVariable](0),
		dependents: make(map[*ir.TypeVariable][]Bound),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterVariables adds variables under solution. Registering a variable
// twice is a no-op; the first registration decides whether it is local.
func (s *System) RegisterVariables(vars []*ir.TypeVariable, local bool) {
	for _, v := range vars {
		if _, exists := s.bounds[v]; exists {
			continue
		}
		s.bounds[v] = newTypeBounds(v)
		s.variables = append(s.variables, v)
		if local {
			s.local.Insert(v)
		}
	}
}

// TypeVariables returns the registered variables in creation order.
func (s *System) TypeVariables() []*ir.TypeVariable {
	out := make([]*ir.TypeVariable, len(s.variables))
	copy(out, s.variables)
	return out
}

// IsLocalVariable reports whether v was registered as local.
func (s *System) IsLocalVariable(v *ir.TypeVariable) bool {
	return s.local.Contains(v)
}

// IsMyTypeVariable reports whether t is exactly a variable of this system.
func (s *System) IsMyTypeVariable(t *ir.Type) bool {
	return s.MyTypeVariable(t) != nil
}

// MyTypeVariable returns the variable t refers to if it belongs to this
// system, or nil.
func (s *System) MyTypeVariable(t *ir.Type) *ir.TypeVariable {
	if !t.IsVariable() {
		return nil
	}
	if _, ok := s.bounds[t.Var]; !ok {
		return nil
	}
	return t.Var
}

// TypeBounds returns the bounds of v, or nil if v is not registered.
func (s *System) TypeBounds(v *ir.TypeVariable) *TypeBounds {
	return s.bounds[v]
}

// DependentBounds returns the stored bounds of other variables whose type
// mentions v, in the order they were stored.
func (s *System) DependentBounds(v *ir.TypeVariable) []Bound {
	out := make([]Bound, len(s.dependents[v]))
	copy(out, s.dependents[v])
	return out
}

// Result returns the committed value of v, or nil if v is unresolved or
// not yet fixed.
func (s *System) Result(v *ir.TypeVariable) *ir.Type {
	tb := s.bounds[v]
	if tb == nil || !tb.sealed {
		return nil
	}
	return tb.value
}

// FixOrder returns the variables in the order fixation started on them.
// A variable's dependencies are committed before it, but start after it.
func (s *System) FixOrder() []*ir.TypeVariable {
	out := make([]*ir.TypeVariable, len(s.fixOrder))
	copy(out, s.fixOrder)
	return out
}

// Errors returns the recorded inference errors in order.
func (s *System) Errors() []*InferenceError {
	out := make([]*InferenceError, len(s.errors))
	copy(out, s.errors)
	return out
}

// Status summarizes the recorded errors.
func (s *System) Status() Status {
	var st Status
	for _, err := range s.errors {
		switch err.Code {
		case ErrCodeTypeMismatch:
			st.HasMismatch = true
		case ErrCodeUnresolved:
			st.HasUnresolved = true
		case ErrCodeDepthExceeded:
			st.DepthExceeded = true
		}
	}
	return st
}

// AddConstraint is the constraint sink. It turns sub <: super (or
// sub == super) into bounds on this system's variables:
//   - sub is a variable: UPPER bound on it (EXACT for equality)
//   - super is a variable: LOWER bound on it (EXACT for equality)
//   - otherwise the types are decomposed structurally
//
// A constraint between constructed types that cannot hold is recorded as a
// TYPE_MISMATCH error.
func (s *System) AddConstraint(kind ir.RelationKind, sub, super *ir.Type, pos Position) {
	if v := s.MyTypeVariable(sub); v != nil {
		bk := Upper
		if kind == ir.Equality {
			bk = Exact
		}
		s.AddBound(v, s.newBound(v, super, bk, pos))
		return
	}
	if v := s.MyTypeVariable(super); v != nil {
		bk := Lower
		if kind == ir.Equality {
			bk = Exact
		}
		s.AddBound(v, s.newBound(v, sub, bk, pos))
		return
	}
	if ir.Equal(sub, super) {
		return
	}

	rels, err := ir.Decompose(kind, sub, super)
	if err != nil {
		s.recordMismatch(err, ir.Relation{Kind: kind, Left: sub, Right: super}, pos)
		return
	}
	for _, rel := range rels {
		s.AddConstraint(rel.Kind, rel.Left, rel.Right, pos)
	}
}

// AddBound stores b on v and incorporates it. Returns false when the bound
// is not stored: v is unknown or sealed, the bound mentions v itself, or an
// equal bound is already present.
func (s *System) AddBound(v *ir.TypeVariable, b Bound) bool {
	tb := s.bounds[v]
	if tb == nil {
		s.logger.Debug("bound ignored: unknown variable", "type", b.Type.String())
		return false
	}
	b.Variable = v

	if tb.sealed {
		s.logger.Debug("bound ignored: variable sealed", "bound", b.String())
		return false
	}
	if ir.Contains(b.Type, v) {
		s.logger.Debug("bound rejected: recursive", "bound", b.String(), "position", b.Position.String())
		return false
	}
	if tb.contains(b) {
		return false
	}

	tb.add(b)
	for _, dep := range ir.NestedVariables(b.Type) {
		if _, mine := s.bounds[dep]; mine {
			s.dependents[dep] = append(s.dependents[dep], b)
		}
	}
	s.emit(Event{
		Type:     EventBoundAdded,
		Variable: v.Name,
		Kind:     b.Kind.String(),
		Bound:    b.String(),
		Position: b.Position.String(),
		Pure:     b.Pure,
	})

	if !s.depth.enter() {
		s.recordDepthExceeded(b)
		return true
	}
	s.incorporate(v, b)
	s.depth.leave()
	return true
}

// newBound builds a bound, deriving purity from the current variables.
func (s *System) newBound(v *ir.TypeVariable, t *ir.Type, kind BoundKind, pos Position) Bound {
	return Bound{Variable: v, Type: t, Kind: kind, Position: pos, Pure: s.isPure(t)}
}

// isPure reports whether t mentions none of this system's variables.
func (s *System) isPure(t *ir.Type) bool {
	for _, v := range ir.NestedVariables(t) {
		if _, mine := s.bounds[v]; mine {
			return false
		}
	}
	return true
}

// myNestedVariables returns the variables of this system occurring in t.
func (s *System) myNestedVariables(t *ir.Type) []*ir.TypeVariable {
	var out []*ir.TypeVariable
	for _, v := range ir.NestedVariables(t) {
		if _, mine := s.bounds[v]; mine {
			out = append(out, v)
		}
	}
	return out
}

func (s *System) recordMismatch(err error, rel ir.Relation, pos Position) {
	ie := NewMismatchError(err, pos.String())
	s.errors = append(s.errors, ie)
	s.logger.Debug("constraint mismatch", "relation", rel.String(), "position", pos.String())
	s.emit(Event{
		Type:     EventMismatch,
		Bound:    rel.String(),
		Position: pos.String(),
	})
}

func (s *System) recordDepthExceeded(b Bound) {
	s.errors = append(s.errors, NewDepthError(b.Variable.Name, s.depth.max))
	s.logger.Warn("incorporation depth exceeded", "bound", b.String(), "max_depth", s.depth.max)
	s.emit(Event{
		Type:     EventDepthExceeded,
		Variable: b.Variable.Name,
		Kind:     b.Kind.String(),
		Bound:    b.String(),
		Position: b.Position.String(),
		Pure:     b.Pure,
	})
}

func (s *System) emit(ev Event) {
	ev.Seq = s.clock.Next()
	for _, o := range s.observers {
		o.Observe(ev)
	}
}
