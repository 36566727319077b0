package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/tyinfer/internal/ir"
)

// BoundKind is the direction of a bound relative to its variable.
type BoundKind int

const (
	// Lower bounds state Type <: Variable.
	Lower BoundKind = iota
	// Upper bounds state Variable <: Type.
	Upper
	// Exact bounds state Variable == Type.
	Exact
)

// Reverse swaps Lower and Upper. Exact is its own reverse.
func (k BoundKind) Reverse() BoundKind {
	switch k {
	case Lower:
		return Upper
	case Upper:
		return Lower
	default:
		return Exact
	}
}

// String returns the trace name of the kind.
func (k BoundKind) String() string {
	switch k {
	case Lower:
		return "LOWER"
	case Upper:
		return "UPPER"
	default:
		return "EXACT"
	}
}

// Symbol returns the relation written between variable and type.
func (k BoundKind) Symbol() string {
	switch k {
	case Lower:
		return ">:"
	case Upper:
		return "<:"
	default:
		return "=="
	}
}

// ParseBoundKind parses "lower", "upper" or "exact" (case-insensitive).
func ParseBoundKind(s string) (BoundKind, error) {
	switch strings.ToLower(s) {
	case "lower":
		return Lower, nil
	case "upper":
		return Upper, nil
	case "exact":
		return Exact, nil
	default:
		return Lower, fmt.Errorf("invalid bound kind %q: must be lower, upper or exact", s)
	}
}

// Bound is a single constraint attached to a type variable.
//
// Bounds are values; once stored they are never modified.
type Bound struct {
	Variable *ir.TypeVariable
	Type     *ir.Type
	Kind     BoundKind
	Position Position

	// Pure bounds mention no variable under solution. Only pure bounds
	// contribute to the derived value of a variable.
	Pure bool
}

// Equal compares variable, kind and type. Position and purity are
// diagnostic and do not distinguish bounds.
func (b Bound) Equal(other Bound) bool {
	return b.Variable == other.Variable && b.Kind == other.Kind && ir.Equal(b.Type, other.Type)
}

// String renders the bound as "T <: List<Int>".
func (b Bound) String() string {
	name := "?"
	if b.Variable != nil {
		name = b.Variable.Name
	}
	return fmt.Sprintf("%s %s %s", name, b.Kind.Symbol(), b.Type)
}
