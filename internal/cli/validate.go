package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metamorph-dev/metamorph/internal/compiler"
	"github.com/metamorph-dev/metamorph/internal/meta"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	ClassCount int                        `json:"class_count"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate a CUE schema",
		Long: `Validate CUE schema definitions without evolving anything.

Checks syntax, bound sanity, and referential consistency (supertypes and
reference targets must name declared classes).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result, validationErrors, err := loadSchema(formatter, schemaDir, compiler.LoadModeCollectAll)
	if err != nil {
		return err
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	for _, c := range result.Classes {
		formatter.VerboseLog("class %s", c.Name)
		for _, a := range c.Attributes {
			formatter.VerboseLog("  %s: %s %s", a.Name, a.Type, meta.Bounds(a.Lower, a.Upper))
		}
		for _, r := range c.References {
			formatter.VerboseLog("  %s -> %s %s", r.Name, r.Target, meta.Bounds(r.Lower, r.Upper))
		}
	}

	return outputValidateSuccess(formatter, len(result.Classes))
}

// loadSchema loads a schema directory. Hard load failures (missing
// directory, CUE build errors) come back as ExitErrors; structural
// validation errors are returned separately so callers can render them.
func loadSchema(formatter *OutputFormatter, dir string, mode compiler.LoadMode) (*compiler.LoadResult, []compiler.ValidationError, error) {
	result, loadErrors := compiler.LoadSchema(dir, mode)

	if result == nil && len(loadErrors) > 0 {
		var loadErr *compiler.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
		}
		_ = formatter.Error(compiler.ErrCodeGeneric, loadErrors[0].Error(), nil)
		return nil, nil, NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var verr compiler.ValidationError
		if errors.As(err, &verr) {
			validationErrors = append(validationErrors, verr)
		}
	}
	return result, validationErrors, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, classCount int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, ClassCount: classCount})
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema valid (%d class(es))\n", classCount)
	return nil
}

// outputValidationErrors outputs validation failures and returns an
// ExitError with the failure exit code.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := encodeIndented(formatter, response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}
	fmt.Fprintln(formatter.Writer)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
