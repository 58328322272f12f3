package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metamorph-dev/metamorph/internal/evolve"
	"github.com/metamorph-dev/metamorph/internal/journal"
)

// ApplyOutput is the payload of an apply run.
type ApplyOutput struct {
	SessionID        string              `json:"session_id"`
	Result           *evolve.ApplyResult `json:"result"`
	Report           *evolve.Report      `json:"report"`
	ResolutionErrors []string            `json:"resolution_errors,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	var journalPath string

	cmd := &cobra.Command{
		Use:   "apply <schema-dir> <script.yaml>",
		Short: "Apply an evolution script as a batch",
		Long: `Interpret an evolution script, apply the script's resolutions, and
sweep the pending queue against the schema.

The batch is refused outright if any ambiguity is left unresolved. A
store rejection fails only that operation; the sweep continues and
already-applied mutations stay applied. Exit code 1 on refusal or any
per-operation failure.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(rootOpts, args[0], args[1], journalPath, cmd)
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "SQLite file recording the session history")

	return cmd
}

func runApply(opts *RootOptions, schemaDir, scriptPath, journalPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var sessionOpts []evolve.SessionOption
	if journalPath != "" {
		j, err := journal.Open(journalPath)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "opening journal", err)
		}
		defer j.Close()
		sessionOpts = append(sessionOpts, evolve.WithJournal(j))
		formatter.VerboseLog("Journaling to %s", journalPath)
	}

	session, _, resolutionErrors, err := prepareSession(formatter, schemaDir, scriptPath, sessionOpts...)
	if err != nil {
		return err
	}

	result, err := session.Apply()
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "applying batch", err)
	}

	output := ApplyOutput{
		SessionID:        session.ID(),
		Result:           result,
		Report:           session.Report(),
		ResolutionErrors: resolutionErrors,
	}

	if formatter.Format == "json" {
		if err := formatter.Success(output); err != nil {
			return err
		}
	} else {
		fmt.Fprint(formatter.Writer, output.Report.Render())
		fmt.Fprintf(formatter.Writer, "\napplied %d, failed %d\n", len(result.Applied), len(result.Failed))
		for _, msg := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  error: %s\n", msg)
		}
	}

	if !result.Success {
		return NewExitError(ExitFailure, "batch apply did not fully succeed")
	}
	return nil
}

// ErrCodeJournal flags journal open/write failures.
const ErrCodeJournal = "E201"
