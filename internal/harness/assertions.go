package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tyinfer/internal/compiler"
	"github.com/roach88/tyinfer/internal/engine"
	"github.com/roach88/tyinfer/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the stored trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []store.EventRecord
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, describeEvent(ev))
	}
	return buf.String()
}

func describeEvent(ev store.EventRecord) string {
	switch engine.EventType(ev.Type) {
	case engine.EventVariableFixed:
		if ev.Value == "" {
			return fmt.Sprintf("%s %s (unresolved)", ev.Type, ev.Variable)
		}
		return fmt.Sprintf("%s %s = %s", ev.Type, ev.Variable, ev.Value)
	default:
		return fmt.Sprintf("%s %s at %s", ev.Type, ev.Bound, ev.Position)
	}
}

// EvaluateAssertions checks every assertion against a replayed session and
// returns the failure messages in assertion order.
func EvaluateAssertions(state store.SessionState, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(state, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(state store.SessionState, a Assertion) error {
	switch a.Type {
	case AssertBoundPresent:
		return assertBound(state, a, true)
	case AssertBoundAbsent:
		return assertBound(state, a, false)
	case AssertValue:
		return assertValue(state, a)
	case AssertUnresolved:
		return assertUnresolved(state, a)
	case AssertFixOrder:
		return assertFixOrder(state, a)
	case AssertMismatch:
		return assertMismatch(state, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertBound looks for the rendered bound among the variable's stored
// bound_added events.
func assertBound(state store.SessionState, a Assertion, present bool) error {
	kind, err := engine.ParseBoundKind(a.Kind)
	if err != nil {
		return err
	}
	typ, err := normalizeType(a.Bound)
	if err != nil {
		return err
	}
	want := fmt.Sprintf("%s %s %s", a.Variable, kind.Symbol(), typ)

	found := slices.Contains(state.Bounds[a.Variable], want)
	switch {
	case present && !found:
		return &AssertionError{
			Type:     a.Type,
			Expected: want,
			Actual:   fmt.Sprintf("bounds of %s: %s", a.Variable, formatList(state.Bounds[a.Variable])),
			Trace:    state.Events,
		}
	case !present && found:
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("no bound %s", want),
			Actual:   "bound was added",
			Trace:    state.Events,
		}
	}
	return nil
}

func assertValue(state store.SessionState, a Assertion) error {
	want, err := normalizeType(a.Value)
	if err != nil {
		return err
	}
	got, ok := state.Values[a.Variable]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s = %s", a.Variable, want),
			Actual:   fmt.Sprintf("%s has no value", a.Variable),
			Trace:    state.Events,
		}
	}
	if got != want {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s = %s", a.Variable, want),
			Actual:   fmt.Sprintf("%s = %s", a.Variable, got),
			Trace:    state.Events,
		}
	}
	return nil
}

func assertUnresolved(state store.SessionState, a Assertion) error {
	if slices.Contains(state.Unresolved, a.Variable) {
		return nil
	}
	actual := fmt.Sprintf("unresolved: %s", formatList(state.Unresolved))
	if v, ok := state.Values[a.Variable]; ok {
		actual = fmt.Sprintf("%s = %s", a.Variable, v)
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s unresolved", a.Variable),
		Actual:   actual,
		Trace:    state.Events,
	}
}

func assertFixOrder(state store.SessionState, a Assertion) error {
	got := make([]string, len(state.Fixations))
	for i, f := range state.Fixations {
		got[i] = f.Variable
	}
	if slices.Equal(got, a.Order) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: formatList(a.Order),
		Actual:   formatList(got),
		Trace:    state.Events,
	}
}

func assertMismatch(state store.SessionState, a Assertion) error {
	if a.Relation == "" {
		if len(state.Mismatches) > 0 {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: "at least one mismatch",
			Actual:   "no mismatches",
			Trace:    state.Events,
		}
	}

	want, err := normalizeRelation(a.Relation)
	if err != nil {
		return err
	}
	if slices.Contains(state.Mismatches, want) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("mismatch %s", want),
		Actual:   fmt.Sprintf("mismatches: %s", formatList(state.Mismatches)),
		Trace:    state.Events,
	}
}

// normalizeType re-renders a type expression in the engine's spelling.
func normalizeType(src string) (string, error) {
	expr, err := compiler.ParseTypeExpr(strings.TrimSpace(src))
	if err != nil {
		return "", err
	}
	return expr.String(), nil
}

// normalizeRelation re-renders "A <: B" or "A == B".
func normalizeRelation(src string) (string, error) {
	for _, op := range []string{"<:", "=="} {
		left, right, ok := strings.Cut(src, op)
		if !ok {
			continue
		}
		l, err := normalizeType(left)
		if err != nil {
			return "", err
		}
		r, err := normalizeType(right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", l, op, r), nil
	}
	return "", fmt.Errorf("invalid relation %q: expected A <: B or A == B", src)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	return "[" + strings.Join(items, ", ") + "]"
}
