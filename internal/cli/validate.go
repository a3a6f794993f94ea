package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/roach88/querydsl/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Compact  string
	Language string
}

// ValidationResult is the JSON payload of the validate command.
type ValidationResult struct {
	Valid  bool             `json:"valid"`
	Errors []validate.Error `json:"errors"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [tree.json]",
		Short: "Check rule operands of a query tree",
		Long: `Validate the operands of every rule in a query tree: date formats,
numbers, UUIDs and between bounds.

Exit codes:
  0 - Tree is valid
  1 - One or more rules are invalid
  2 - Command error`,
		Args: cobra.MaximumNArgs(1),
		RunE: rootOpts.run(func(cmd *cobra.Command, args []string, out *OutputFormatter) error {
			return runValidate(opts, cmd, args, out)
		}),
	}
	cmd.Flags().StringVar(&opts.Compact, "compact", "", "compact query string to validate instead of a tree file")
	cmd.Flags().StringVar(&opts.Language, "lang", "en", "message language (en|fr)")
	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command, args []string, out *OutputFormatter) error {
	tag, err := language.Parse(opts.Language)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --lang", err).withCode(ErrCodeInput)
	}
	reg, err := opts.loadRegistry()
	if err != nil {
		return err
	}
	tree, err := opts.loadTree(cmd, args, opts.Compact, reg.Registry)
	if err != nil {
		return err
	}

	var errs []validate.Error
	if tree != nil {
		v := validate.New(reg.Registry, validate.WithLanguage(tag), validate.WithLogger(opts.Logger))
		errs = v.Validate(tree)
	}
	if len(errs) == 0 {
		if out.Format == "json" {
			return out.Success(ValidationResult{Valid: true, Errors: []validate.Error{}})
		}
		return out.Success("✓ Tree is valid")
	}

	msg := fmt.Sprintf("%d invalid rule(s)", len(errs))
	if out.Format == "json" {
		if err := out.Error(ErrCodeValidation, msg, errs); err != nil {
			return err
		}
	} else {
		var b strings.Builder
		for _, e := range errs {
			fmt.Fprintf(&b, "✗ %s\n", e.ErrorMessage)
		}
		fmt.Fprint(out.Writer, b.String())
		_ = out.Error(ErrCodeValidation, msg, nil)
	}
	exitErr := NewExitError(ExitFailure, msg).withCode(ErrCodeValidation)
	exitErr.reported = true
	return exitErr
}
