package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tyinfer/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // optional - without it, sessions are listed
	Variable string // optional - filter to one variable
}

// TraceEvent represents a single event in the trace timeline.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Type     string `json:"type"`
	ID       string `json:"id"`
	Variable string `json:"variable,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Bound    string `json:"bound,omitempty"`
	Position string `json:"position,omitempty"`
	Pure     bool   `json:"pure,omitempty"`
	Value    string `json:"value,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	SessionID string            `json:"session_id"`
	Problem   string            `json:"problem"`
	Status    string            `json:"status"`
	Timeline  []TraceEvent      `json:"timeline"`
	Values    map[string]string `json:"values"`
	Stats     TraceStats        `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int  `json:"total_events"`
	Bounds      int  `json:"bounds"`
	Fixations   int  `json:"fixations"`
	Mismatches  int  `json:"mismatches"`
	Unresolved  int  `json:"unresolved"`
	Consistent  bool `json:"consistent"`
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	ID      string `json:"id"`
	Problem string `json:"problem"`
	Seq     int64  `json:"seq"`
	Status  string `json:"status"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded trace of a solve session",
		Long: `Show what a recorded solve session did.

Without --session, lists the sessions in the database. With --session, shows
the session's timeline of bounds and fixations, the inferred values and
summary statistics.

Examples:
  tyinfer trace --db ./tyinfer.db
  tyinfer trace --db ./tyinfer.db --session 01928c5e-...
  tyinfer trace --db ./tyinfer.db --session 01928c5e-... --variable T
  tyinfer trace --db ./tyinfer.db --session 01928c5e-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session ID to trace")
	cmd.Flags().StringVar(&opts.Variable, "variable", "", "filter to one type variable")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Session == "" {
		return listSessions(ctx, st, formatter)
	}

	state, err := st.GetSessionState(ctx, opts.Session)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeUnknownTarget, fmt.Sprintf("session not found: %s", opts.Session), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	events := state.Events
	if opts.Variable != "" {
		if events, err = st.ReadEventsForVariable(ctx, opts.Session, opts.Variable); err != nil {
			return WrapExitError(ExitCommandError, "failed to read events", err)
		}
	}

	result := TraceResult{
		SessionID: state.Session.ID,
		Problem:   state.Session.Problem,
		Status:    state.Session.Status,
		Timeline:  buildTimeline(events),
		Values:    state.Values,
		Stats: TraceStats{
			TotalEvents: len(state.Events),
			Fixations:   len(state.Fixations),
			Mismatches:  len(state.Mismatches),
			Unresolved:  len(state.Unresolved),
			Consistent:  state.Consistent,
		},
	}
	for _, bounds := range state.Bounds {
		result.Stats.Bounds += len(bounds)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputTraceText(formatter, result)
}

func listSessions(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	sessions, err := st.ReadSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read sessions", err)
	}

	summaries := make([]SessionSummary, len(sessions))
	for i, s := range sessions {
		summaries[i] = SessionSummary{ID: s.ID, Problem: s.Problem, Seq: s.Seq, Status: s.Status}
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}
	fmt.Fprintln(w, "=== Sessions ===")
	for _, s := range summaries {
		fmt.Fprintf(w, "  [%d] %s %s (%s)\n", s.Seq, truncateID(s.ID), s.Problem, s.Status)
	}
	return nil
}

// buildTimeline converts stored events to timeline events.
func buildTimeline(events []store.EventRecord) []TraceEvent {
	timeline := make([]TraceEvent, len(events))
	for i, ev := range events {
		timeline[i] = TraceEvent{
			Seq:      ev.Seq,
			Type:     ev.Type,
			ID:       ev.ID,
			Variable: ev.Variable,
			Kind:     ev.Kind,
			Bound:    ev.Bound,
			Position: ev.Position,
			Pure:     ev.Pure,
			Value:    ev.Value,
		}
	}
	return timeline
}

// outputTraceText outputs the trace result as text.
func outputTraceText(formatter *OutputFormatter, result TraceResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Trace for Session: %s\n", result.SessionID)
	fmt.Fprintf(w, "Problem: %s\n", result.Problem)
	fmt.Fprintf(w, "Status: %s\n", result.Status)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, event := range result.Timeline {
		formatTimelineEvent(w, event, formatter.Verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Values ===")
	if len(result.Values) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, name := range slices.Sorted(maps.Keys(result.Values)) {
		fmt.Fprintf(w, "  %s = %s\n", name, result.Values[name])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Bounds:       %d\n", result.Stats.Bounds)
	fmt.Fprintf(w, "  Fixations:    %d\n", result.Stats.Fixations)
	fmt.Fprintf(w, "  Mismatches:   %d\n", result.Stats.Mismatches)
	fmt.Fprintf(w, "  Unresolved:   %d\n", result.Stats.Unresolved)
	fmt.Fprintf(w, "  Consistent:   %t\n", result.Stats.Consistent)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	switch event.Type {
	case "bound_added", "depth_exceeded":
		fmt.Fprintf(w, "  [%d] %s %s at %s", event.Seq, event.Type, event.Bound, event.Position)
		if event.Pure {
			fmt.Fprint(w, " (pure)")
		}
		fmt.Fprintln(w)
	case "mismatch":
		fmt.Fprintf(w, "  [%d] mismatch %s at %s\n", event.Seq, event.Bound, event.Position)
	case "variable_fixed":
		value := event.Value
		if value == "" {
			value = "?"
		}
		fmt.Fprintf(w, "  [%d] variable_fixed %s = %s\n", event.Seq, event.Variable, value)
	default:
		fmt.Fprintf(w, "  [%d] %s %s\n", event.Seq, event.Type, event.Variable)
	}
	if verbose {
		fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
