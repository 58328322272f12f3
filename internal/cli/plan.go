package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metamorph-dev/metamorph/internal/compiler"
	"github.com/metamorph-dev/metamorph/internal/evolve"
	"github.com/metamorph-dev/metamorph/internal/meta"
	"github.com/metamorph-dev/metamorph/internal/script"
)

// PlanResult is the payload of a plan run.
type PlanResult struct {
	SessionID        string         `json:"session_id"`
	Report           *evolve.Report `json:"report"`
	ResolutionErrors []string       `json:"resolution_errors,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <schema-dir> <script.yaml>",
		Short: "Interpret an evolution script without applying it",
		Long: `Interpret every step of an evolution script against the schema and
report what would happen: which operations are safe to apply and which
are ambiguous, with the reason for each ambiguity.

Resolutions listed in the script are applied before reporting. Nothing
is mutated. Exit code 1 means unresolved ambiguities remain.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runPlan(opts *RootOptions, schemaDir, scriptPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	session, _, resolutionErrors, err := prepareSession(formatter, schemaDir, scriptPath)
	if err != nil {
		return err
	}

	result := PlanResult{
		SessionID:        session.ID(),
		Report:           session.Report(),
		ResolutionErrors: resolutionErrors,
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprint(formatter.Writer, result.Report.Render())
		for _, msg := range resolutionErrors {
			fmt.Fprintf(formatter.Writer, "\nresolution error: %s\n", msg)
		}
	}

	if n := result.Report.AmbiguousCount; n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d unresolved ambiguous operation(s)", n))
	}
	return nil
}

// prepareSession loads the schema and script, interprets every step and
// applies the script's pre-supplied resolutions. Shared by plan and
// apply: the two commands differ only in whether the batch is swept.
func prepareSession(formatter *OutputFormatter, schemaDir, scriptPath string, sessionOpts ...evolve.SessionOption) (*evolve.Session, *script.Script, []string, error) {
	loadResult, validationErrors, err := loadSchema(formatter, schemaDir, compiler.LoadModeFailFast)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(validationErrors) > 0 {
		return nil, nil, nil, outputValidationErrors(formatter, validationErrors)
	}

	store, err := compiler.BuildStore(loadResult)
	if err != nil {
		_ = formatter.Error(compiler.ErrCodeBuildFailed, err.Error(), nil)
		return nil, nil, nil, WrapExitError(ExitCommandError, "building schema store", err)
	}

	s, err := script.Load(scriptPath)
	if err != nil {
		_ = formatter.Error(compiler.ErrCodeGeneric, err.Error(), nil)
		return nil, nil, nil, WrapExitError(ExitCommandError, "loading script", err)
	}

	formatter.VerboseLog("Script %q: %d step(s), %d resolution(s)", s.Name, len(s.Steps), len(s.Resolutions))

	session := evolve.NewSession(store, sessionOpts...)

	ops := make([]*meta.Operation, len(s.Steps))
	for i, step := range s.Steps {
		op, err := session.Interpret(step.Descriptor())
		if err != nil {
			return nil, nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("interpreting step %d", i+1), err)
		}
		ops[i] = op
	}

	// Resolution failures (e.g. a step that turned out unresolvable) are
	// reported, not fatal: the plan/report shows what remains stuck.
	var resolutionErrors []string
	for _, r := range s.Resolutions {
		op := ops[r.Step-1]
		if _, err := session.Resolve(op.ID, r.With); err != nil {
			resolutionErrors = append(resolutionErrors, fmt.Sprintf("step %d: %v", r.Step, err))
		}
	}

	return session, s, resolutionErrors, nil
}
