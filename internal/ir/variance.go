package ir

import "fmt"

// Variance describes how subtyping of a type argument affects subtyping of
// the enclosing generic type.
type Variance int

const (
	// Invariant positions require argument equality.
	Invariant Variance = iota
	// In (contravariant) positions flip the subtyping direction.
	In
	// Out (covariant) positions preserve the subtyping direction.
	Out
)

// String returns the source keyword for the variance ("" for invariant).
func (v Variance) String() string {
	switch v {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return ""
	}
}

// Name returns the upper-case variance name used in traces.
func (v Variance) Name() string {
	switch v {
	case In:
		return "IN_VARIANCE"
	case Out:
		return "OUT_VARIANCE"
	default:
		return "INVARIANT"
	}
}

// Opposite swaps In and Out. Invariant is its own opposite.
func (v Variance) Opposite() Variance {
	switch v {
	case In:
		return Out
	case Out:
		return In
	default:
		return Invariant
	}
}

// Compose returns the variance of a position with variance inner nested
// inside a position with variance outer.
//
//	Out ∘ x = x
//	In  ∘ x = x.Opposite()
//	Invariant ∘ x = Invariant
func Compose(outer, inner Variance) Variance {
	switch outer {
	case Out:
		return inner
	case In:
		return inner.Opposite()
	default:
		return Invariant
	}
}

// Effective combines declaration-site and use-site variance of one argument.
// A redundant projection keeps the declared variance; a conflicting one
// (declared out, projected in) locks the position.
func Effective(declared, use Variance) Variance {
	switch {
	case declared == Invariant:
		return use
	case use == Invariant, use == declared:
		return declared
	default:
		return Invariant
	}
}

// ParseVariance parses a variance keyword.
// Accepts "", "inv", "invariant", "in" and "out".
func ParseVariance(s string) (Variance, error) {
	switch s {
	case "", "inv", "invariant":
		return Invariant, nil
	case "in":
		return In, nil
	case "out":
		return Out, nil
	default:
		return Invariant, fmt.Errorf("invalid variance %q: must be one of in, out, invariant", s)
	}
}
