package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tyinfer/internal/engine"
	"github.com/roach88/tyinfer/internal/ir"
	"github.com/roach88/tyinfer/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
	MaxDepth int    // must match the limit the sessions were solved with
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID     string `json:"session_id"`
	Problem       string `json:"problem"`
	Events        int    `json:"events"`
	HashMatch     bool   `json:"hash_match"`
	Deterministic bool   `json:"deterministic"`
	Reason        string `json:"reason,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <specs-dir>",
		Short: "Re-solve recorded sessions and verify determinism",
		Long: `Re-solve recorded sessions from their specs and verify that the trace
comes out identical.

Each session is solved again with the clock positioned at its first stored
seq. The problem must hash to the stored problem hash, and every regenerated
event ID must equal the stored one.

Exit codes:
  0 - All sessions are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, problem missing from specs, etc.)

Examples:
  tyinfer replay ./specs --db ./tyinfer.db
  tyinfer replay ./specs --db ./tyinfer.db --session 01928c5e-...
  tyinfer replay ./specs --db ./tyinfer.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "incorporation depth limit used when solving")

	return cmd
}

func runReplay(opts *ReplayOptions, specsDir string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	loaded, errs := LoadSpecs(specsDir, LoadModeFailFast)
	if len(errs) > 0 {
		return WrapExitError(ExitCommandError, "failed to load specs", errs[0])
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var sessions []store.Session
	if opts.Session != "" {
		sess, err := st.ReadSession(ctx, opts.Session)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		sessions = []store.Session{sess}
	} else if sessions, err = st.ReadSessions(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to read sessions", err)
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}
	if len(sessions) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(formatter, result)
		}
		fmt.Fprintln(formatter.Writer, "No sessions found in database.")
		return nil
	}

	for _, sess := range sessions {
		p, ok := loaded.Problem(sess.Problem)
		if !ok {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("session %s: problem %q not found in %s", sess.ID, sess.Problem, specsDir))
		}
		sessResult, err := replaySession(ctx, st, sess, p, opts)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", sess.ID), err)
		}
		result.Sessions = append(result.Sessions, sessResult)
		if !sessResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replaySession re-solves p as session sess and compares the regenerated
// trace with the stored one.
func replaySession(ctx context.Context, st *store.Store, sess store.Session, p *ir.Problem, opts *ReplayOptions) (ReplaySessionResult, error) {
	stored, err := st.ReadEvents(ctx, sess.ID)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	result := ReplaySessionResult{SessionID: sess.ID, Problem: sess.Problem, Events: len(stored)}

	hash, err := ir.ProblemHash(p)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	result.HashMatch = hash == sess.ProblemHash
	if !result.HashMatch {
		result.Reason = "problem changed since the session was recorded"
		return result, nil
	}

	engineOpts := []engine.Option{
		engine.WithLogger(opts.Logger()),
		engine.WithClock(engine.NewClockAt(max(sess.Seq-1, 0))),
	}
	if opts.MaxDepth > 0 {
		engineOpts = append(engineOpts, engine.WithMaxDepth(opts.MaxDepth))
	}
	sol := engine.Solve(p, engineOpts...)

	replayed, err := store.NewEventRecords(sess.ID, sol.Events)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	result.Reason = compareEventRecords(stored, replayed)
	if result.Reason == "" && sol.Status.String() != sess.Status {
		result.Reason = fmt.Sprintf("status %s, stored %s", sol.Status, sess.Status)
	}
	result.Deterministic = result.Reason == ""
	return result, nil
}

// compareEventRecords returns a description of the first difference between
// two traces, or "" if they are identical.
func compareEventRecords(stored, replayed []store.EventRecord) string {
	if len(stored) != len(replayed) {
		return fmt.Sprintf("replay produced %d events, stored %d", len(replayed), len(stored))
	}
	for i := range stored {
		if stored[i].ID != replayed[i].ID {
			return fmt.Sprintf("event %d differs: replayed %s %s, stored %s %s",
				stored[i].Seq, replayed[i].Type, replayed[i].Bound, stored[i].Type, stored[i].Bound)
		}
	}
	return ""
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	if err := encodeIndented(formatter.Writer, response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer
	marks := formatter.Marks()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, sess := range result.Sessions {
		fmt.Fprintf(w, "%s Session: %s (%s)\n", marks.mark(sess.Deterministic), truncateID(sess.SessionID), sess.Problem)
		fmt.Fprintf(w, "  Events: %d\n", sess.Events)
		if sess.Reason != "" {
			fmt.Fprintf(w, "  %s\n", sess.Reason)
		}
	}

	fmt.Fprintln(w)
	if !result.AllDeterministic {
		fmt.Fprintf(w, "%s Determinism verification failed\n", marks.Fail)
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	fmt.Fprintf(w, "%s All sessions deterministic\n", marks.Pass)
	return nil
}
