package engine

import (
	"errors"
	"fmt"
)

// InferenceError is a failure recorded while solving.
//
// Inference errors are never returned from System methods; they accumulate
// on the System and are surfaced through Errors and Status:
//   - Unresolved variable: fixation found no unambiguous value
//   - Type mismatch: a constraint between constructed types cannot hold
//   - Depth exceeded: incorporation was cut off by WithMaxDepth
type InferenceError struct {
	// Code identifies the error category.
	Code InferenceErrorCode

	// Variable names the affected variable, if any.
	Variable string

	// Message is a human-readable description.
	Message string

	// Position is the origin of the failing constraint, if known.
	Position string
}

// InferenceErrorCode categorizes inference errors.
type InferenceErrorCode string

const (
	// ErrCodeUnresolved indicates a fixed variable has no value.
	ErrCodeUnresolved InferenceErrorCode = "UNRESOLVED_VARIABLE"

	// ErrCodeTypeMismatch indicates an unsatisfiable constraint.
	ErrCodeTypeMismatch InferenceErrorCode = "TYPE_MISMATCH"

	// ErrCodeDepthExceeded indicates incorporation hit the depth limit.
	ErrCodeDepthExceeded InferenceErrorCode = "DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *InferenceError) Error() string {
	if e.Variable != "" && e.Position != "" {
		return fmt.Sprintf("%s: %s (variable=%s, position=%s)", e.Code, e.Message, e.Variable, e.Position)
	}
	if e.Variable != "" {
		return fmt.Sprintf("%s: %s (variable=%s)", e.Code, e.Message, e.Variable)
	}
	if e.Position != "" {
		return fmt.Sprintf("%s: %s (position=%s)", e.Code, e.Message, e.Position)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnresolvedError returns true if the error is an unresolved variable error.
// Uses errors.As to handle wrapped errors.
func IsUnresolvedError(err error) bool {
	return hasCode(err, ErrCodeUnresolved)
}

// IsMismatchError returns true if the error is a type mismatch error.
func IsMismatchError(err error) bool {
	return hasCode(err, ErrCodeTypeMismatch)
}

// IsDepthError returns true if the error is a depth exceeded error.
func IsDepthError(err error) bool {
	return hasCode(err, ErrCodeDepthExceeded)
}

func hasCode(err error, code InferenceErrorCode) bool {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}

// NewUnresolvedError creates an InferenceError for a variable without value.
func NewUnresolvedError(variable string) *InferenceError {
	return &InferenceError{
		Code:     ErrCodeUnresolved,
		Variable: variable,
		Message:  "cannot infer a value for type variable",
	}
}

// NewMismatchError creates an InferenceError for a failed constraint.
func NewMismatchError(cause error, position string) *InferenceError {
	return &InferenceError{
		Code:     ErrCodeTypeMismatch,
		Message:  cause.Error(),
		Position: position,
	}
}

// NewDepthError creates an InferenceError for a truncated incorporation.
func NewDepthError(variable string, maxDepth int) *InferenceError {
	return &InferenceError{
		Code:     ErrCodeDepthExceeded,
		Variable: variable,
		Message:  fmt.Sprintf("incorporation exceeded max depth (%d)", maxDepth),
	}
}

// Status summarizes the errors recorded by a System.
type Status struct {
	HasMismatch   bool
	HasUnresolved bool
	DepthExceeded bool
}

// IsSuccessful reports whether no error has been recorded.
func (s Status) IsSuccessful() bool {
	return !s.HasMismatch && !s.HasUnresolved && !s.DepthExceeded
}

// String names the most severe recorded condition.
func (s Status) String() string {
	switch {
	case s.DepthExceeded:
		return "depth_exceeded"
	case s.HasMismatch:
		return "mismatch"
	case s.HasUnresolved:
		return "unresolved"
	default:
		return "success"
	}
}
