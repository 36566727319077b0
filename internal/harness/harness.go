package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tyinfer/internal/compiler"
	"github.com/roach88/tyinfer/internal/engine"
	"github.com/roach88/tyinfer/internal/ir"
	"github.com/roach88/tyinfer/internal/store"
	"github.com/roach88/tyinfer/internal/testutil"
)

// Harness is the scenario execution engine.
// It solves with a deterministic clock and session ID.
type Harness struct {
	store    *store.Store
	clock    *testutil.DeterministicClock
	sessions engine.SessionIDGenerator
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Load and compile the CUE specs, select the named problem
//  2. Solve with a deterministic clock starting at seq 1
//  3. Record the solution and replay it from the store
//  4. Evaluate assertions
//
// An error is returned when the scenario cannot run at all; failed
// assertions are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	p, err := loadProblem(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		clock:    testutil.NewDeterministicClock(),
		sessions: testutil.NewFixedSessionGenerator(scenario.Session),
		logger:   testutil.DiscardLogger(),
	}

	ctx := context.Background()
	state, err := h.solve(ctx, p, scenario.MaxDepth)
	if err != nil {
		return nil, err
	}

	result := newResultFromState(state)
	if !state.Consistent {
		result.AddError("stored fixations disagree with the trace")
	}
	for _, msg := range EvaluateAssertions(state, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// loadProblem compiles the scenario's specs and returns the named problem.
func loadProblem(scenario *Scenario) (*ir.Problem, error) {
	v, err := compiler.LoadFiles(scenario.Specs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}
	problems, err := compiler.CompileProblems(v)
	if err != nil {
		return nil, fmt.Errorf("failed to compile specs: %w", err)
	}
	for _, p := range problems {
		if p.Name == scenario.Problem {
			return p, nil
		}
	}
	return nil, fmt.Errorf("problem %q not found in specs", scenario.Problem)
}

// solve runs the engine, records the solution and replays the session.
func (h *Harness) solve(ctx context.Context, p *ir.Problem, maxDepth int) (store.SessionState, error) {
	opts := []engine.Option{
		engine.WithLogger(h.logger),
		engine.WithClock(h.clock),
	}
	if maxDepth > 0 {
		opts = append(opts, engine.WithMaxDepth(maxDepth))
	}
	sol := engine.Solve(p, opts...)

	sessionID := h.sessions.Generate()
	if _, err := h.store.RecordSolution(ctx, sessionID, p, sol); err != nil {
		return store.SessionState{}, fmt.Errorf("failed to record solution: %w", err)
	}

	state, err := h.store.GetSessionState(ctx, sessionID)
	if err != nil {
		return store.SessionState{}, fmt.Errorf("failed to replay session: %w", err)
	}
	h.logger.Info("scenario solved",
		"problem", p.Name,
		"session", sessionID,
		"status", state.Session.Status,
		"events", len(state.Events),
	)
	return state, nil
}

func newResultFromState(state store.SessionState) *Result {
	result := NewResult()
	result.SessionID = state.Session.ID
	result.Status = state.Session.Status
	for _, ev := range state.Events {
		result.Trace = append(result.Trace, traceEventFromRecord(ev))
	}
	for _, f := range state.Fixations {
		result.FixOrder = append(result.FixOrder, f.Variable)
	}
	for name, value := range state.Values {
		result.Values[name] = value
	}
	return result
}
