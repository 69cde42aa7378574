package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/synthkit/internal/ir"
	"github.com/roach88/synthkit/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Backend  string
	Outcome  string
	SpecHash string
	After    int64
	Limit    int
	Stats    bool
}

// HistoryEntry is one run in the history listing.
type HistoryEntry struct {
	Seq      int64      `json:"seq"`
	ID       string     `json:"id"`
	Backend  string     `json:"backend"`
	Outcome  ir.Outcome `json:"outcome"`
	SpecHash string     `json:"spec_hash"`
	Removed  int        `json:"removed"`
	Error    string     `json:"error,omitempty"`
}

// HistoryResult holds the history output.
type HistoryResult struct {
	Runs  []HistoryEntry     `json:"runs"`
	Stats map[ir.Outcome]int `json:"stats,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs from the run log",
		Long: `List recorded synthesis runs in the order they were logged.

Filters combine: only runs matching every given filter are listed. With
--limit the newest runs are kept. --stats adds a count of every outcome in
the whole log.

Examples:
  synthkit history --db runs.db
  synthkit history --db runs.db --outcome unrealizable --limit 10
  synthkit history --db runs.db --spec-hash 3f2a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "only runs on this backend")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only runs with this outcome")
	cmd.Flags().StringVar(&opts.SpecHash, "spec-hash", "", "only runs of this specification")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only runs with a larger sequence number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "keep the newest N runs (0 = all)")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "count runs by outcome")

	return cmd
}

// validOutcomes lists the values --outcome accepts.
var validOutcomes = []ir.Outcome{
	ir.OutcomeRealizable,
	ir.OutcomeUnrealizable,
	ir.OutcomeInvalidSystem,
	ir.OutcomeSpecConflict,
	ir.OutcomeUnsupportedBackend,
	ir.OutcomeBackendFailure,
}

// openExisting opens a run log that must already exist.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	return store.Open(path)
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := context.Background()

	if opts.Outcome != "" && !slices.Contains(validOutcomes, ir.Outcome(opts.Outcome)) {
		msg := fmt.Sprintf("invalid outcome %q: must be one of %v", opts.Outcome, validOutcomes)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	records, err := st.ListRuns(ctx, store.RunFilter{
		Backend:  opts.Backend,
		Outcome:  ir.Outcome(opts.Outcome),
		SpecHash: opts.SpecHash,
		AfterSeq: opts.After,
		Limit:    opts.Limit,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to list runs", err)
	}

	result := HistoryResult{Runs: make([]HistoryEntry, 0, len(records))}
	for _, rec := range records {
		result.Runs = append(result.Runs, HistoryEntry{
			Seq:      rec.Seq,
			ID:       rec.ID,
			Backend:  rec.Backend,
			Outcome:  rec.Outcome,
			SpecHash: rec.SpecHash,
			Removed:  len(rec.RemovedStates),
			Error:    rec.ErrorMessage,
		})
	}
	if opts.Stats {
		result.Stats, err = st.CountByOutcome(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to count runs", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputHistoryText(formatter, result)
}

func outputHistoryText(formatter *OutputFormatter, result HistoryResult) error {
	w := formatter.Writer
	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
	}
	for _, r := range result.Runs {
		fmt.Fprintf(w, "%4d  %s  %-6s %-19s %s\n", r.Seq, r.ID, r.Backend, r.Outcome, shortHash(r.SpecHash))
		if formatter.Verbose && r.Error != "" {
			fmt.Fprintf(w, "      error: %s\n", r.Error)
		}
	}
	if result.Stats != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Outcomes:")
		for _, o := range validOutcomes {
			if n := result.Stats[o]; n > 0 {
				fmt.Fprintf(w, "  %-19s %d\n", o, n)
			}
		}
	}
	return nil
}

// shortHash trims a hash for tables.
func shortHash(h string) string {
	h = strings.TrimPrefix(h, "sha256:")
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
