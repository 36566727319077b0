package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tyinfer/internal/engine"
	"github.com/roach88/tyinfer/internal/ir"
	"github.com/roach88/tyinfer/internal/store"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	Problem  string // optional - solve one problem only
	Database string // optional - record sessions
	MaxDepth int

	sessions engine.SessionIDGenerator
}

// ProblemResult is the outcome of solving one problem.
type ProblemResult struct {
	Problem    string              `json:"problem"`
	SessionID  string              `json:"session_id,omitempty"`
	Status     string              `json:"status"`
	Values     map[string]string   `json:"values"`
	Unresolved []string            `json:"unresolved,omitempty"`
	FixOrder   []string            `json:"fix_order"`
	Errors     []store.ErrorRecord `json:"errors,omitempty"`
	Events     int                 `json:"events"`
}

// SolveResult holds the overall solve result.
type SolveResult struct {
	Problems []ProblemResult `json:"problems"`
	Solved   int             `json:"solved"`
	Failed   int             `json:"failed"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	return newSolveCommand(rootOpts, engine.UUIDv7Generator{})
}

func newSolveCommand(rootOpts *RootOptions, sessions engine.SessionIDGenerator) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts, sessions: sessions}

	cmd := &cobra.Command{
		Use:   "solve <specs-dir>",
		Short: "Solve the problems in a specs directory",
		Long: `Solve every problem declared in a specs directory and print the value
inferred for each type variable.

With --db each solve is recorded as a session. Sequence numbers continue from
the last event already stored, so one database holds one ordered log.

Exit codes:
  0 - Every variable of every problem resolved
  1 - A problem has unresolved variables, a mismatch or hit the depth limit
  2 - Command error (invalid specs, unknown problem, database error)

Examples:
  tyinfer solve ./specs
  tyinfer solve ./specs --problem covariantUpper
  tyinfer solve ./specs --db ./tyinfer.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Problem, "problem", "", "solve only the named problem")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record sessions in this SQLite database")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "incorporation depth limit (0 = unlimited)")

	return cmd
}

func runSolve(opts *SolveOptions, specsDir string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	problems, err := selectProblems(specsDir, opts.Problem)
	if err != nil {
		var exitErr *ExitError
		code := ErrCodeGeneric
		if errors.As(err, &exitErr) {
			var loadErr *LoadError
			if errors.As(exitErr.Err, &loadErr) {
				code = loadErr.Code
			} else if exitErr.Err == nil {
				code = ErrCodeUnknownTarget
			}
		}
		_ = formatter.Error(code, err.Error(), nil)
		return err
	}

	var st *store.Store
	var clock *engine.Clock
	if opts.Database != "" {
		if st, err = store.Open(opts.Database); err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		lastSeq, err := st.GetLastSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read last seq", err)
		}
		clock = engine.NewClockAt(lastSeq)
	}

	result := SolveResult{Problems: make([]ProblemResult, 0, len(problems))}
	for _, p := range problems {
		engineOpts := []engine.Option{engine.WithLogger(opts.Logger())}
		if clock != nil {
			engineOpts = append(engineOpts, engine.WithClock(clock))
		}
		if opts.MaxDepth > 0 {
			engineOpts = append(engineOpts, engine.WithMaxDepth(opts.MaxDepth))
		}

		formatter.VerboseLog("Solving problem: %s", p.Name)
		sol := engine.Solve(p, engineOpts...)
		pr := newProblemResult(sol)

		if st != nil {
			sessionID := opts.sessions.Generate()
			if _, err := st.RecordSolution(ctx, sessionID, p, sol); err != nil {
				_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to record solution", err)
			}
			pr.SessionID = sessionID
		}

		result.Problems = append(result.Problems, pr)
		if sol.Status.IsSuccessful() {
			result.Solved++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputSolveJSON(formatter, result)
	}
	return outputSolveText(formatter, result)
}

// selectProblems loads specsDir and returns every problem, or only the
// named one.
func selectProblems(specsDir, name string) ([]*ir.Problem, error) {
	loaded, errs := LoadSpecs(specsDir, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load specs", errs[0])
	}
	if name == "" {
		return loaded.Problems, nil
	}
	p, ok := loaded.Problem(name)
	if !ok {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("problem %q not found in %s", name, specsDir))
	}
	return []*ir.Problem{p}, nil
}

func newProblemResult(sol *engine.Solution) ProblemResult {
	pr := ProblemResult{
		Problem:  sol.Problem,
		Status:   sol.Status.String(),
		Values:   make(map[string]string),
		FixOrder: sol.FixOrder,
		Events:   len(sol.Events),
	}
	if pr.FixOrder == nil {
		pr.FixOrder = []string{}
	}
	for _, v := range sol.Variables {
		if v.Resolved {
			pr.Values[v.Name] = v.Value.String()
		} else {
			pr.Unresolved = append(pr.Unresolved, v.Name)
		}
	}
	for _, e := range sol.Errors {
		pr.Errors = append(pr.Errors, store.ErrorRecord{
			Code:     string(e.Code),
			Variable: e.Variable,
			Message:  e.Message,
			Position: e.Position,
		})
	}
	return pr
}

func outputSolveJSON(formatter *OutputFormatter, result SolveResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_UNSOLVED",
			Message: fmt.Sprintf("%d problem(s) not solved", result.Failed),
		}
	}
	if len(result.Problems) == 1 {
		response.SessionID = result.Problems[0].SessionID
	}

	if err := encodeIndented(formatter.Writer, response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d problem(s) not solved", result.Failed))
	}
	return nil
}

func outputSolveText(formatter *OutputFormatter, result SolveResult) error {
	w := formatter.Writer
	marks := formatter.Marks()

	for _, pr := range result.Problems {
		fmt.Fprintf(w, "%s %s (%s)\n", marks.mark(pr.Status == "success"), pr.Problem, pr.Status)
		if pr.SessionID != "" {
			fmt.Fprintf(w, "  session: %s\n", pr.SessionID)
		}
		for _, name := range pr.FixOrder {
			if value, ok := pr.Values[name]; ok {
				fmt.Fprintf(w, "  %s = %s\n", name, value)
			} else {
				fmt.Fprintf(w, "  %s = ?\n", name)
			}
		}
		for _, e := range pr.Errors {
			fmt.Fprintf(w, "  %s: %s\n", e.Code, e.Message)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Solved %d of %d problem(s)\n", result.Solved, len(result.Problems))
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d problem(s) not solved: %s",
			result.Failed, strings.Join(failedNames(result), ", ")))
	}
	return nil
}

func failedNames(result SolveResult) []string {
	var names []string
	for _, pr := range result.Problems {
		if pr.Status != "success" {
			names = append(names, pr.Problem)
		}
	}
	return names
}
