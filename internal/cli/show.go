package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/synthkit/internal/ir"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run from the run log",
		Long: `Print a recorded run: its backend, outcome, hashes, pruned states and
the canonical result (strategy or counterexamples) as stored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	rec, err := st.ReadRun(context.Background(), id)
	if errors.Is(err, sql.ErrNoRows) {
		msg := fmt.Sprintf("run not found: %s", id)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to read run", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(rec)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "run:      %s (seq %d)\n", rec.ID, rec.Seq)
	fmt.Fprintf(w, "backend:  %s\n", rec.Backend)
	fmt.Fprintf(w, "outcome:  %s\n", rec.Outcome)
	fmt.Fprintf(w, "spec:     %s\n", rec.SpecHash)
	if rec.SystemHash != "" {
		fmt.Fprintf(w, "system:   %s\n", rec.SystemHash)
	}
	if len(rec.RemovedStates) > 0 {
		fmt.Fprintf(w, "pruned:   %s\n", strings.Join(rec.RemovedStates, ", "))
	}
	fmt.Fprintf(w, "versions: tool %s, ir %s\n", rec.ToolVersion, rec.IRVersion)
	if rec.ErrorMessage != "" {
		fmt.Fprintf(w, "error:    %s\n", rec.ErrorMessage)
	}
	if rec.Result != nil {
		data, err := ir.MarshalCanonical(rec.Result)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode result", err)
		}
		fmt.Fprintf(w, "result:   %s\n", data)
	}
	return nil
}
