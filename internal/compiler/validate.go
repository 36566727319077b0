package compiler

import (
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tyinfer/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported value passed to Validate

	// Name resolution errors (E101-E104)
	ErrUnknownConstructor = "E101" // constructor applied but never declared
	ErrArityMismatch      = "E102" // wrong number of type arguments
	ErrUnknownVariable    = "E103" // name is neither a variable nor a constructor
	ErrDuplicateName      = "E104" // duplicate constructor/parameter/variable name

	// Declaration errors (E105-E109)
	ErrInvalidSupertype      = "E105" // supertype mentions a non-parameter or is not constructed
	ErrInvalidVariance       = "E106" // variance is not in/out/invariant
	ErrInvalidTypeExpr       = "E107" // type expression does not parse
	ErrInvalidConstraintKind = "E108" // kind is not subtype/equal
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`

	pos token.Pos
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

func newValidationError(code, field string, pos token.Pos, format string, args ...any) ValidationError {
	ve := ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		pos:     pos,
	}
	if pos.IsValid() {
		ve.Line = pos.Line()
	}
	return ve
}

// Validate validates a decoded problem.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ProblemSpec:
		return ValidateProblem(spec)
	case ProblemSpec:
		return ValidateProblem(&spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

// ValidateProblem checks every name and type expression of a problem.
// Returns all errors found, in declaration order.
func ValidateProblem(spec *ProblemSpec) []ValidationError {
	var errs []ValidationError

	arities := make(map[string]int, len(spec.Constructors))
	for i, cs := range spec.Constructors {
		if _, dup := arities[cs.Name]; dup {
			errs = append(errs, newValidationError(ErrDuplicateName, fmt.Sprintf("constructors[%d]", i), cs.Pos,
				"duplicate constructor name: %q", cs.Name))
			continue
		}
		arities[cs.Name] = len(cs.Params)
	}

	for _, cs := range spec.Constructors {
		errs = append(errs, validateConstructor(cs, arities)...)
	}

	vars := make(map[string]bool, len(spec.Variables))
	for i, vs := range spec.Variables {
		field := fmt.Sprintf("variables[%d]", i)
		if vars[vs.Name] {
			errs = append(errs, newValidationError(ErrDuplicateName, field, vs.Pos, "duplicate variable name: %q", vs.Name))
			continue
		}
		if _, clash := arities[vs.Name]; clash {
			errs = append(errs, newValidationError(ErrDuplicateName, field, vs.Pos,
				"variable %q has the same name as a constructor", vs.Name))
		}
		vars[vs.Name] = true
	}

	for i, c := range spec.Constraints {
		field := fmt.Sprintf("constraints[%d]", i)
		if _, err := ir.ParseRelationKind(c.Kind); err != nil {
			errs = append(errs, newValidationError(ErrInvalidConstraintKind, field+".kind", c.Pos, "%s", err.Error()))
		}
		errs = append(errs, checkTypeExpr(field+".sub", c.Sub, c.Pos, vars, arities)...)
		errs = append(errs, checkTypeExpr(field+".super", c.Super, c.Pos, vars, arities)...)
	}

	if spec.Expected != "" {
		errs = append(errs, checkTypeExpr("expected", spec.Expected, spec.Pos, vars, arities)...)
	}

	for i, name := range spec.Fix {
		if !vars[name] {
			errs = append(errs, newValidationError(ErrUnknownVariable, fmt.Sprintf("fix[%d]", i), spec.Pos,
				"unknown type variable %q", name))
		}
	}

	return errs
}

// validateConstructor checks parameters and supertypes of one constructor.
func validateConstructor(cs ConstructorSpec, arities map[string]int) []ValidationError {
	var errs []ValidationError
	prefix := "constructors." + cs.Name

	params := make(map[string]bool, len(cs.Params))
	for j, ps := range cs.Params {
		field := fmt.Sprintf("%s.params[%d]", prefix, j)
		if params[ps.Name] {
			errs = append(errs, newValidationError(ErrDuplicateName, field+".name", cs.Pos, "duplicate parameter name: %q", ps.Name))
		}
		params[ps.Name] = true
		if _, err := ir.ParseVariance(ps.Variance); err != nil {
			errs = append(errs, newValidationError(ErrInvalidVariance, field+".variance", cs.Pos, "%s", err.Error()))
		}
	}

	for j, src := range cs.Supertypes {
		field := fmt.Sprintf("%s.supertypes[%d]", prefix, j)
		expr, err := ParseTypeExpr(src)
		if err != nil {
			errs = append(errs, newValidationError(ErrInvalidTypeExpr, field, cs.Pos, "%s", err.Error()))
			continue
		}

		if params[expr.Name] {
			errs = append(errs, newValidationError(ErrInvalidSupertype, field, cs.Pos,
				"supertype %q must be a constructed type, not a parameter", src))
			continue
		}
		if expr.Name == cs.Name {
			errs = append(errs, newValidationError(ErrInvalidSupertype, field, cs.Pos,
				"%s cannot be its own supertype", cs.Name))
			continue
		}

		expr.Walk(func(e *TypeExpr) {
			if params[e.Name] {
				if len(e.Args) > 0 {
					errs = append(errs, newValidationError(ErrArityMismatch, field, cs.Pos,
						"parameter %s takes no type arguments", e.Name))
				}
				return
			}
			arity, ok := arities[e.Name]
			switch {
			case !ok && len(e.Args) == 0:
				errs = append(errs, newValidationError(ErrInvalidSupertype, field, cs.Pos,
					"supertype references %q, which is not a parameter of %s", e.Name, cs.Name))
			case !ok:
				errs = append(errs, newValidationError(ErrUnknownConstructor, field, cs.Pos,
					"unknown constructor %q", e.Name))
			case arity != len(e.Args):
				errs = append(errs, newValidationError(ErrArityMismatch, field, cs.Pos,
					"%s expects %d type arguments, got %d", e.Name, arity, len(e.Args)))
			}
		})
	}

	return errs
}

// checkTypeExpr parses src and checks each name against the declared
// variables and constructors.
func checkTypeExpr(field, src string, pos token.Pos, vars map[string]bool, arities map[string]int) []ValidationError {
	expr, err := ParseTypeExpr(src)
	if err != nil {
		return []ValidationError{newValidationError(ErrInvalidTypeExpr, field, pos, "%s", err.Error())}
	}

	var errs []ValidationError
	expr.Walk(func(e *TypeExpr) {
		if vars[e.Name] {
			if len(e.Args) > 0 {
				errs = append(errs, newValidationError(ErrArityMismatch, field, pos,
					"type variable %s takes no type arguments", e.Name))
			}
			return
		}
		arity, ok := arities[e.Name]
		switch {
		case !ok && len(e.Args) == 0:
			errs = append(errs, newValidationError(ErrUnknownVariable, field, pos,
				"unknown type variable or constructor %q", e.Name))
		case !ok:
			errs = append(errs, newValidationError(ErrUnknownConstructor, field, pos,
				"unknown constructor %q", e.Name))
		case arity != len(e.Args):
			errs = append(errs, newValidationError(ErrArityMismatch, field, pos,
				"%s expects %d type arguments, got %d", e.Name, arity, len(e.Args)))
		}
	})
	return errs
}
