package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/metamorph-dev/metamorph/internal/journal"
	"github.com/metamorph-dev/metamorph/internal/meta"
)

// HistorySession summarizes one recorded session.
type HistorySession struct {
	SessionID  string `json:"session_id"`
	Operations int    `json:"operations"`
	LastSeq    int64  `json:"last_seq"`
}

// HistoryOutput is the payload of a history run. Exactly one of Sessions
// and Operations is populated, depending on the flags.
type HistoryOutput struct {
	Sessions    []HistorySession                      `json:"sessions,omitempty"`
	Operations  []journal.OperationRecord             `json:"operations,omitempty"`
	Transitions map[string][]journal.TransitionRecord `json:"transitions,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var sessionID, state string

	cmd := &cobra.Command{
		Use:   "history <journal.db>",
		Short: "Inspect a session journal",
		Long: `Read an audit journal written by apply --journal.

Without flags, lists the recorded sessions. --session shows one
session's operations with their lifecycle transitions; --state filters
operations by lifecycle state across sessions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], sessionID, state, cmd)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "show one session's operations and transitions")
	cmd.Flags().StringVar(&state, "state", "", "filter operations by lifecycle state (pending|ambiguous|applied|failed)")

	return cmd
}

func runHistory(opts *RootOptions, journalPath, sessionID, state string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if state != "" && !isValidState(meta.LifecycleState(state)) {
		msg := fmt.Sprintf("invalid state %q: must be one of: pending, ambiguous, applied, failed", state)
		_ = formatter.Error(ErrCodeJournal, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	// Opening a missing path would create an empty journal there.
	if _, err := os.Stat(journalPath); err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening journal", err)
	}

	j, err := journal.Open(journalPath)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening journal", err)
	}
	defer j.Close()

	switch {
	case sessionID != "":
		return historySession(formatter, j, sessionID)
	case state != "":
		return historyByState(formatter, j, meta.LifecycleState(state))
	default:
		return historyOverview(formatter, j)
	}
}

// historyOverview lists every recorded session with its operation count
// and last sequence number.
func historyOverview(formatter *OutputFormatter, j *journal.Journal) error {
	ids, err := j.Sessions()
	if err != nil {
		return journalReadError(formatter, err)
	}

	sessions := make([]HistorySession, 0, len(ids))
	for _, id := range ids {
		records, err := j.ListOperations(id)
		if err != nil {
			return journalReadError(formatter, err)
		}
		seq, err := j.LastSeq(id)
		if err != nil {
			return journalReadError(formatter, err)
		}
		sessions = append(sessions, HistorySession{
			SessionID:  id,
			Operations: len(records),
			LastSeq:    seq,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(HistoryOutput{Sessions: sessions})
	}

	fmt.Fprintf(formatter.Writer, "journal: %d session(s)\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(formatter.Writer, "  %s: %d operation(s), last seq %d\n", s.SessionID, s.Operations, s.LastSeq)
	}
	return nil
}

// historySession shows one session's operations with their lifecycle
// transitions.
func historySession(formatter *OutputFormatter, j *journal.Journal, sessionID string) error {
	records, err := j.ListOperations(sessionID)
	if err != nil {
		return journalReadError(formatter, err)
	}

	transitions := make(map[string][]journal.TransitionRecord, len(records))
	for _, rec := range records {
		trs, err := j.Transitions(rec.ID)
		if err != nil {
			return journalReadError(formatter, err)
		}
		if len(trs) > 0 {
			transitions[rec.ID] = trs
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(HistoryOutput{Operations: records, Transitions: transitions})
	}

	fmt.Fprintf(formatter.Writer, "session %s: %d operation(s)\n", sessionID, len(records))
	for _, rec := range records {
		writeOperationRecord(formatter.Writer, rec)
		for _, tr := range transitions[rec.ID] {
			if tr.Detail != "" {
				fmt.Fprintf(formatter.Writer, "      %s -> %s: %s\n", tr.From, tr.To, tr.Detail)
			} else {
				fmt.Fprintf(formatter.Writer, "      %s -> %s\n", tr.From, tr.To)
			}
		}
	}
	return nil
}

// historyByState filters operations by lifecycle state across sessions.
func historyByState(formatter *OutputFormatter, j *journal.Journal, state meta.LifecycleState) error {
	records, err := j.OperationsByState(state)
	if err != nil {
		return journalReadError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(HistoryOutput{Operations: records})
	}

	fmt.Fprintf(formatter.Writer, "%d %s operation(s)\n", len(records), state)
	for _, rec := range records {
		writeOperationRecord(formatter.Writer, rec)
		fmt.Fprintf(formatter.Writer, "      session: %s\n", rec.SessionID)
	}
	return nil
}

// writeOperationRecord renders one journal row in the report idiom.
func writeOperationRecord(w io.Writer, rec journal.OperationRecord) {
	fmt.Fprintf(w, "\n  #%d [%s] %s %s (%s)\n", rec.Seq, rec.State, rec.Change, rec.Element, rec.ID)
	if rec.AmbiguityReason != "" {
		fmt.Fprintf(w, "      reason: %s\n", rec.AmbiguityReason)
	}
	if rec.FailureDetail != "" {
		fmt.Fprintf(w, "      failure: %s\n", rec.FailureDetail)
	}
}

// isValidState checks a --state flag value against the known lifecycle
// states.
func isValidState(s meta.LifecycleState) bool {
	switch s {
	case meta.StatePending, meta.StateAmbiguous, meta.StateApplied, meta.StateFailed:
		return true
	}
	return false
}

func journalReadError(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
	return WrapExitError(ExitCommandError, "reading journal", err)
}
