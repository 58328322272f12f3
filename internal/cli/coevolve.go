package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metamorph-dev/metamorph/internal/evolve"
)

// NewCoevolveCommand creates the coevolve command.
func NewCoevolveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coevolve <schema-dir> <model-dir>",
		Short: "Adapt instance models to a schema change",
		Long: `Adapt existing instance documents so they stay valid after a schema
evolution. The contract exists but the transformation is not
implemented: every invocation reports that co-evolution is not
supported.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoevolve(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runCoevolve(opts *RootOptions, schemaDir, modelDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := evolve.CoEvolveModel(schemaDir, modelDir)

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, result.Message)
	}

	if !result.Success {
		return NewExitError(ExitFailure, result.Message)
	}
	return nil
}
