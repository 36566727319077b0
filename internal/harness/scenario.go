package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: one problem solved from
// CUE specs, with assertions over the resulting trace and values.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name" validate:"required"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" validate:"required"`

	// Specs lists CUE files holding the problem. Relative paths are
	// resolved against the scenario file's directory by LoadScenario.
	Specs []string `yaml:"specs" validate:"required,min=1,dive,required"`

	// Problem names the entry under the top-level problem struct.
	Problem string `yaml:"problem" validate:"required"`

	// Session is the fixed session ID. Defaults to
	// testutil.DefaultSessionID so golden traces stay stable.
	Session string `yaml:"session,omitempty"`

	// MaxDepth overrides the incorporation depth guard when positive.
	MaxDepth int `yaml:"max_depth,omitempty" validate:"gte=0"`

	Assertions []Assertion `yaml:"assertions" validate:"required,min=1,dive"`
}

// Assertion checks one property of the solved session.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type" validate:"required,oneof=bound_present bound_absent value unresolved fix_order mismatch"`

	// Variable is required by every type except fix_order and mismatch.
	Variable string `yaml:"variable,omitempty"`

	// Kind is lower, upper or exact (bound_present, bound_absent).
	Kind string `yaml:"kind,omitempty" validate:"omitempty,oneof=lower upper exact"`

	// Bound is the bound type as a type expression (bound_present, bound_absent).
	Bound string `yaml:"bound,omitempty"`

	// Value is the expected committed value (value).
	Value string `yaml:"value,omitempty"`

	// Order is the expected fixation order (fix_order).
	Order []string `yaml:"order,omitempty"`

	// Relation is the failing relation, e.g. "String <: Number" (mismatch).
	// Empty matches any mismatch.
	Relation string `yaml:"relation,omitempty"`
}

// Assertion type constants.
const (
	AssertBoundPresent = "bound_present"
	AssertBoundAbsent  = "bound_absent"
	AssertValue        = "value"
	AssertUnresolved   = "unresolved"
	AssertFixOrder     = "fix_order"
	AssertMismatch     = "mismatch"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadScenario reads and parses a scenario YAML file. Relative spec paths
// are resolved against the directory of path. Unknown fields (typos) and
// missing required fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative spec paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}
	for _, specPath := range scenario.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: spec file not found: %s", specPath)
		}
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. Spec paths are left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ValidateScenario checks struct tags first, then the fields each
// assertion type requires.
func ValidateScenario(s *Scenario) error {
	if err := validate.Struct(s); err != nil {
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			return fieldError(valErrs[0])
		}
		return err
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// fieldError renders a validator failure with the YAML path of the field,
// e.g. "assertions[0].type: must be one of ...".
func fieldError(fe validator.FieldError) error {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "min":
		msg = fmt.Sprintf("must have at least %s entries", fe.Param())
	case "oneof":
		msg = fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		msg = fmt.Sprintf("must be at least %s", fe.Param())
	default:
		msg = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return fmt.Errorf("%s %s", path, msg)
}

// validateAssertion checks the fields required by the assertion's type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertBoundPresent, AssertBoundAbsent:
		if a.Variable == "" {
			return fmt.Errorf("assertions[%d]: variable is required for %s", index, a.Type)
		}
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for %s", index, a.Type)
		}
		if a.Bound == "" {
			return fmt.Errorf("assertions[%d]: bound is required for %s", index, a.Type)
		}
	case AssertValue:
		if a.Variable == "" {
			return fmt.Errorf("assertions[%d]: variable is required for value", index)
		}
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for value (use unresolved for no value)", index)
		}
	case AssertUnresolved:
		if a.Variable == "" {
			return fmt.Errorf("assertions[%d]: variable is required for unresolved", index)
		}
	case AssertFixOrder:
		if len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order list is required for fix_order", index)
		}
	}
	return nil
}
