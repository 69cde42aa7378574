package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/synthkit/internal/compiler"
)

// ProblemValidation holds the validation errors of one problem, or of one
// file that failed to load.
type ProblemValidation struct {
	Name   string                     `json:"name,omitempty"`
	Path   string                     `json:"path"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Problems []ProblemValidation `json:"problems"`
}

// errorCount returns the number of errors across all problems.
func (r ValidationResult) errorCount() int {
	n := 0
	for _, p := range r.Problems {
		n += len(p.Errors)
	}
	return n
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Watch bool // revalidate whenever a problem file changes
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <problem>...",
		Short: "Validate problem files without compiling",
		Long: `Validate problem files without compiling or synthesizing.

Checks the document schema, state and proposition references, formula
syntax and variable ownership. Every error is reported, not just the
first one. Faster than compile for development feedback.

With --watch the problems are validated again whenever a problem file
below the given paths changes, until interrupted.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "revalidate when problem files change")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if !opts.Watch {
		return validatePaths(paths, formatter)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchValidate(ctx, paths, formatter, newLogger(opts.RootOptions, cmd.ErrOrStderr()))
}

// validatePaths validates every problem under paths and reports the result.
func validatePaths(paths []string, formatter *OutputFormatter) error {
	result := ValidationResult{Valid: true, Problems: []ProblemValidation{}}
	for _, path := range paths {
		files, err := FindProblemFiles(path)
		if err != nil {
			return outputValidateError(formatter, errorCode(err), err.Error(), nil)
		}
		for _, file := range files {
			formatter.VerboseLog("Validating %s", file)
			result.Problems = append(result.Problems, validateFile(file)...)
		}
	}
	for _, p := range result.Problems {
		if len(p.Errors) > 0 {
			result.Valid = false
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateFile loads one file and validates each problem in it. A file
// that fails to load yields a single entry holding the load error.
func validateFile(path string) []ProblemValidation {
	problems, err := LoadProblemFile(path)
	if err != nil {
		verr := compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			verr.Message = loadErr.Message
			verr.Code = loadErr.Code
			verr.Line = loadErr.Line()
		}
		return []ProblemValidation{{Path: path, Errors: []compiler.ValidationError{verr}}}
	}

	out := make([]ProblemValidation, 0, len(problems))
	for _, lp := range problems {
		out = append(out, ProblemValidation{
			Name:   lp.Name,
			Path:   lp.Path,
			Errors: compiler.ValidateProblem(lp.Problem),
		})
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d problem(s) valid\n", len(result.Problems))
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	count := result.errorCount()
	if formatter.Format == "json" {
		var first compiler.ValidationError
		for _, p := range result.Problems {
			if len(p.Errors) > 0 {
				first = p.Errors[0]
				break
			}
		}
		response := Response{
			Status: "error",
			Data:   result,
			Error: &ErrorBody{
				Code:    first.Code,
				Message: first.Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	for _, p := range result.Problems {
		if len(p.Errors) == 0 {
			continue
		}
		fmt.Fprintln(formatter.Writer)
		if p.Name != "" {
			fmt.Fprintf(formatter.Writer, "%s (%s)\n", p.Name, p.Path)
		} else {
			fmt.Fprintln(formatter.Writer, p.Path)
		}
		for _, err := range p.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
}
