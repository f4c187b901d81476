package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/perfmodel/internal/validate"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Scenarios int                        `json:"scenarios"`
	Errors    []validate.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the stored model for consistency",
		Long: `Check the stored model against the export schema and the model's
consistency rules: ownership back-links, span statistics against applied
trace ids, entry spans, and dangling static edges.

Runs even when validation is disabled in the config.

Exit codes:
  0 - Model is valid
  1 - One or more violations found
  2 - Command error (database not found, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := st.Load(commandContext(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load model", err)
	}

	v, err := validate.New(validate.WithRateScale(opts.settings().Merge.ArrivalRateScale))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build validator", err)
	}

	formatter.VerboseLog("Validating %d scenario(s)", len(m.Scenarios))
	errs := v.Check(m)
	result := ValidationResult{Valid: len(errs) == 0, Scenarios: len(m.Scenarios), Errors: errs}

	if len(errs) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ Model valid (%d scenario(s))\n", result.Scenarios)
		return nil
	}
	return outputValidationErrors(formatter, result)
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		resp := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeInvalidModel,
				Message: errs[0].Error(),
			},
		}
		if err := formatter.Response(resp); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
