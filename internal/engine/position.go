package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// PositionKind classifies where a constraint came from.
type PositionKind int

const (
	PositionReceiver PositionKind = iota
	PositionValueParameter
	PositionExpectedType
	PositionTypeBound
	PositionSpecial
	PositionCompleter
	PositionCompound
)

func (k PositionKind) String() string {
	switch k {
	case PositionReceiver:
		return "RECEIVER"
	case PositionValueParameter:
		return "VALUE_PARAMETER"
	case PositionExpectedType:
		return "EXPECTED_TYPE"
	case PositionTypeBound:
		return "TYPE_BOUND"
	case PositionSpecial:
		return "SPECIAL"
	case PositionCompleter:
		return "COMPLETER"
	default:
		return "COMPOUND"
	}
}

// Position records the origin of a bound for diagnostics. Positions never
// influence solving.
type Position struct {
	Kind  PositionKind
	Index int        // Parameter or type-bound index
	Label string     // Free-form label for SPECIAL positions
	Parts []Position // Flattened origins of a COMPOUND position
}

// ReceiverPosition is the position of a call receiver.
func ReceiverPosition() Position {
	return Position{Kind: PositionReceiver}
}

// ValueParameterPosition is the position of the i-th value argument.
func ValueParameterPosition(i int) Position {
	return Position{Kind: PositionValueParameter, Index: i}
}

// ExpectedTypePosition is the position of the expected result type.
func ExpectedTypePosition() Position {
	return Position{Kind: PositionExpectedType}
}

// TypeBoundPosition is the position of the i-th declared type-parameter bound.
func TypeBoundPosition(i int) Position {
	return Position{Kind: PositionTypeBound, Index: i}
}

// SpecialPosition is a free-form labelled position.
func SpecialPosition(label string) Position {
	return Position{Kind: PositionSpecial, Label: label}
}

// CompleterPosition marks bounds added by fixation.
func CompleterPosition() Position {
	return Position{Kind: PositionCompleter}
}

// Compound joins two origins. Nested compounds are flattened so a derived
// bound lists every leaf origin in order.
func Compound(a, b Position) Position {
	parts := make([]Position, 0, len(a.Parts)+len(b.Parts)+2)
	parts = appendLeaves(parts, a)
	parts = appendLeaves(parts, b)
	return Position{Kind: PositionCompound, Parts: parts}
}

func appendLeaves(parts []Position, p Position) []Position {
	if p.Kind == PositionCompound {
		return append(parts, p.Parts...)
	}
	return append(parts, p)
}

// String renders the position in the label syntax accepted by ParsePosition.
func (p Position) String() string {
	switch p.Kind {
	case PositionReceiver:
		return "receiver"
	case PositionValueParameter:
		return fmt.Sprintf("param:%d", p.Index)
	case PositionExpectedType:
		return "expected"
	case PositionTypeBound:
		return fmt.Sprintf("bound:%d", p.Index)
	case PositionSpecial:
		return p.Label
	case PositionCompleter:
		return "completer"
	default:
		labels := make([]string, len(p.Parts))
		for i, part := range p.Parts {
			labels[i] = part.String()
		}
		return "compound(" + strings.Join(labels, ", ") + ")"
	}
}

// ParsePosition parses a constraint position label. An empty label means the
// value parameter at index. Unrecognized labels become SPECIAL positions.
func ParsePosition(label string, index int) Position {
	switch {
	case label == "":
		return ValueParameterPosition(index)
	case label == "receiver":
		return ReceiverPosition()
	case label == "expected":
		return ExpectedTypePosition()
	case label == "completer":
		return CompleterPosition()
	case strings.HasPrefix(label, "param:"):
		if i, err := strconv.Atoi(strings.TrimPrefix(label, "param:")); err == nil && i >= 0 {
			return ValueParameterPosition(i)
		}
	case strings.HasPrefix(label, "bound:"):
		if i, err := strconv.Atoi(strings.TrimPrefix(label, "bound:")); err == nil && i >= 0 {
			return TypeBoundPosition(i)
		}
	}
	return SpecialPosition(label)
}
