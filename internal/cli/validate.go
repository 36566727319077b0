package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/tyinfer/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Problems int                        `json:"problems"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []ProblemWarning           `json:"warnings,omitempty"`
}

// ProblemWarning is a variable cycle found in one problem.
type ProblemWarning struct {
	Problem string `json:"problem"`
	compiler.CycleWarning
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate problems without solving them",
		Long: `Validate the CUE problems in a directory without solving them.

Checks that every type expression parses and that every name resolves to a
declared variable or constructor with the right arity. All errors are
reported, not just the first. Problems whose variables depend on each other
in a cycle are reported as warnings; they are still valid.

Exit codes:
  0 - All problems valid
  1 - Validation errors found
  2 - Command error (directory not found, invalid CUE, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	value, fileCount, loadErr := LoadValue(specsDir)
	if loadErr != nil {
		return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", fileCount, specsDir)

	result := validateAll(value, formatter)
	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateAll validates every problem in the CUE value, collecting all
// errors. Problems that validate are built and checked for variable cycles.
func validateAll(value cue.Value, formatter *OutputFormatter) ValidationResult {
	result := ValidationResult{}

	problemsVal := value.LookupPath(cue.ParsePath("problem"))
	if problemsVal.Exists() {
		iter, err := problemsVal.Fields()
		if err != nil {
			result.Errors = append(result.Errors, compiler.ValidationError{
				Field:   "problem",
				Message: err.Error(),
				Code:    ErrCodeGeneric,
			})
			return result
		}
		for iter.Next() {
			name := iter.Label()
			result.Problems++
			formatter.VerboseLog("Validating problem: %s", name)

			spec, decodeErr := compiler.DecodeProblem(iter.Value())
			if decodeErr != nil {
				result.Errors = append(result.Errors, decodeErrorToValidation(name, decodeErr))
				continue
			}

			if errs := compiler.Validate(spec); len(errs) > 0 {
				for _, e := range errs {
					e.Field = "problem." + name + "." + e.Field
					result.Errors = append(result.Errors, e)
				}
				continue
			}

			p, buildErr := compiler.BuildProblem(spec)
			if buildErr != nil {
				result.Errors = append(result.Errors, decodeErrorToValidation(name, buildErr))
				continue
			}
			for _, w := range compiler.AnalyzeCycles(p) {
				result.Warnings = append(result.Warnings, ProblemWarning{Problem: name, CycleWarning: w})
			}
		}
	}

	if result.Problems == 0 {
		result.Errors = append(result.Errors, compiler.ValidationError{
			Field:   "specs",
			Message: "no problems found in specs",
			Code:    ErrCodeGeneric,
		})
	}
	return result
}

// decodeErrorToValidation converts a structural compile error.
func decodeErrorToValidation(problem string, err error) compiler.ValidationError {
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) {
		loadErr := convertCompileError(cErr, "problem."+problem)
		return compiler.ValidationError{
			Field:   "problem." + problem + "." + cErr.Field,
			Message: cErr.Message,
			Code:    loadErr.Code,
			Line:    getLineFromCuePos(cErr.Pos),
		}
	}
	return compiler.ValidationError{
		Field:   "problem." + problem,
		Message: err.Error(),
		Code:    ErrCodeGeneric,
	}
}

// getLineFromCuePos extracts line number from a token.Pos.
func getLineFromCuePos(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	result.Valid = true
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s All specs valid (%d problems)\n", formatter.Marks().Pass, result.Problems)
	writeWarnings(formatter.Writer, result.Warnings)
	return nil
}

func writeWarnings(w io.Writer, warnings []ProblemWarning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "  %s %s: %s (%s)\n", warn.Level, warn.Problem, warn.Message, strings.Join(warn.Path, " -> "))
	}
}

// outputValidateError outputs a single command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", formatter.Marks().Fail)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	writeWarnings(formatter.Writer, result.Warnings)
	return failure
}

// ValidateSpecsDir validates all problems in a directory.
// This is a helper function for external callers.
func ValidateSpecsDir(specsDir string) ([]compiler.ValidationError, error) {
	value, _, loadErr := LoadValue(specsDir)
	if loadErr != nil {
		return nil, loadErr
	}

	silentFormatter := &OutputFormatter{Format: "text", Writer: io.Discard}
	return validateAll(value, silentFormatter).Errors, nil
}
