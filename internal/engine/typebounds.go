package engine

import "github.com/roach88/tyinfer/internal/ir"

// TypeBounds holds the bounds of one variable.
//
// The bound list only grows. A fixed TypeBounds still accepts bounds derived
// while its own dependencies are being fixed; once sealed it is immutable and
// Value returns the committed value.
type TypeBounds struct {
	variable *ir.TypeVariable
	bounds   []Bound
	fixed    bool
	sealed   bool
	value    *ir.Type // committed at seal time
}

func newTypeBounds(v *ir.TypeVariable) *TypeBounds {
	return &TypeBounds{variable: v}
}

// Variable returns the variable these bounds constrain.
func (tb *TypeBounds) Variable() *ir.TypeVariable {
	return tb.variable
}

// Bounds returns a snapshot of the stored bounds in insertion order.
func (tb *TypeBounds) Bounds() []Bound {
	out := make([]Bound, len(tb.bounds))
	copy(out, tb.bounds)
	return out
}

// IsFixed reports whether fixation of the variable has started.
func (tb *TypeBounds) IsFixed() bool {
	return tb.fixed
}

// IsSealed reports whether the variable has been committed.
func (tb *TypeBounds) IsSealed() bool {
	return tb.sealed
}

// Value returns the committed value of a sealed variable, or the value the
// current pure bounds determine. Returns nil when there is none.
func (tb *TypeBounds) Value() *ir.Type {
	if tb.sealed {
		return tb.value
	}
	return computeValue(tb.bounds)
}

func (tb *TypeBounds) contains(b Bound) bool {
	for _, existing := range tb.bounds {
		if existing.Equal(b) {
			return true
		}
	}
	return false
}

func (tb *TypeBounds) add(b Bound) {
	tb.bounds = append(tb.bounds, b)
}

func (tb *TypeBounds) seal(value *ir.Type) {
	tb.value = value
	tb.sealed = true
}

// computeValue derives a value from the pure bounds:
//  1. the single distinct EXACT type
//  2. else the common supertype of the LOWER types
//  3. else the most specific UPPER type
//
// A candidate is accepted only if it satisfies every pure bound.
func computeValue(bounds []Bound) *ir.Type {
	var exact, lower, upper []*ir.Type
	var pure []Bound
	for _, b := range bounds {
		if !b.Pure {
			continue
		}
		pure = append(pure, b)
		switch b.Kind {
		case Exact:
			exact = appendDistinct(exact, b.Type)
		case Lower:
			lower = appendDistinct(lower, b.Type)
		case Upper:
			upper = appendDistinct(upper, b.Type)
		}
	}
	if len(pure) == 0 {
		return nil
	}

	if len(exact) == 1 && satisfiesAll(exact[0], pure) {
		return exact[0]
	}
	if len(exact) > 1 {
		return nil
	}
	if len(lower) > 0 {
		if v := ir.CommonSupertype(lower); v != nil && satisfiesAll(v, pure) {
			return v
		}
	}
	if v := mostSpecific(upper); v != nil && satisfiesAll(v, pure) {
		return v
	}
	return nil
}

func appendDistinct(ts []*ir.Type, t *ir.Type) []*ir.Type {
	for _, existing := range ts {
		if ir.Equal(existing, t) {
			return ts
		}
	}
	return append(ts, t)
}

// mostSpecific returns the upper bound that is a subtype of every other.
func mostSpecific(upper []*ir.Type) *ir.Type {
	for _, candidate := range upper {
		ok := true
		for _, other := range upper {
			if !ir.IsSubtype(candidate, other) {
				ok = false
				break
			}
		}
		if ok {
			return candidate
		}
	}
	return nil
}

func satisfiesAll(v *ir.Type, bounds []Bound) bool {
	for _, b := range bounds {
		if !satisfies(v, b) {
			return false
		}
	}
	return true
}

func satisfies(v *ir.Type, b Bound) bool {
	switch b.Kind {
	case Lower:
		return ir.IsSubtype(b.Type, v)
	case Upper:
		return ir.IsSubtype(v, b.Type)
	default:
		return ir.Equal(v, b.Type)
	}
}
