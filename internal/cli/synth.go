package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/synthkit/internal/backend"
	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/ir"
	"github.com/roach88/synthkit/internal/store"
	"github.com/roach88/synthkit/internal/synth"
)

// SynthOptions holds flags for the synth command.
type SynthOptions struct {
	*RootOptions
	Backend  string // Overrides the problem's backend; empty means problem, then gr1c
	Database string // Run log; empty disables recording
	Jobs     int
	Verify   bool

	// Runner overrides how engines are executed (for testing).
	// If nil, defaults to backend.ExecRunner.
	Runner backend.Runner

	// IDGenerator overrides run ids (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator synth.IDGenerator
}

// SynthResult is the synth command's result for one problem.
type SynthResult struct {
	Name            string     `json:"name"`
	Path            string     `json:"path"`
	RunID           string     `json:"run_id,omitempty"`
	Backend         string     `json:"backend"`
	Outcome         ir.Outcome `json:"outcome,omitempty"` // Empty when the problem did not build
	SpecHash        string     `json:"spec_hash,omitempty"`
	Removed         []string   `json:"removed"`
	Nodes           int        `json:"nodes,omitempty"`
	InitialNodes    []int      `json:"initial_nodes,omitempty"`
	Counterexamples int        `json:"counterexamples,omitempty"`
	Violations      []string   `json:"violations,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// failed reports whether the run ended in an error rather than a verdict.
func (r SynthResult) failed() bool {
	return r.Error != ""
}

// NewSynthCommand creates the synth command.
func NewSynthCommand(rootOpts *RootOptions) *cobra.Command {
	return newSynthCommand(&SynthOptions{RootOptions: rootOpts})
}

// newSynthCommand builds the synth command around opts, so tests can set
// the runner and id generator.
func newSynthCommand(opts *SynthOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth <problem>...",
		Short: "Synthesize controllers with a GR(1) backend",
		Long: `Prune, compile and merge each problem, then ask a synthesis engine
whether the result is realizable.

Independent problems run concurrently (--jobs). Realizable answers are
checked against the compiled safety formulas before they are reported.
With --db every run is appended to a SQLite run log.

Exit codes:
  0 - Every problem is realizable and its strategy verified
  1 - A problem is unrealizable, invalid or its strategy failed verification
  2 - Command error (engine failure, bad config, database error)

Examples:
  synthkit synth robot.yaml
  synthkit synth ./problems --jobs 4 --db runs.db
  synthkit synth arbiter.cue --backend jtlv --config backends.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", "", "backend to use (gr1c|jtlv); defaults to the problem's backend, then gr1c")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 1, "number of problems to synthesize concurrently")
	cmd.Flags().BoolVar(&opts.Verify, "verify", true, "check realizable strategies against the compiled safety formulas")

	return cmd
}

func runSynth(opts *SynthOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Jobs < 1 {
		_ = formatter.Error(ErrCodeGeneric, "--jobs must be at least 1", nil)
		return NewExitError(ExitCommandError, "invalid --jobs")
	}

	cfg, err := backendConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBackend, "failed to load backend config", err)
	}

	problems, err := loadValid(paths, formatter)
	if err != nil {
		return err
	}

	runner := opts.Runner
	if runner == nil {
		runner = backend.ExecRunner{Logger: logger}
	}
	registry := synth.NewRegistry()
	backend.Register(registry, cfg, runner, logger)

	promRegistry := prometheus.NewRegistry()
	dispatchOpts := []synth.Option{
		synth.WithLogger(logger),
		synth.WithMetrics(synth.NewMetrics(promRegistry)),
	}
	if opts.IDGenerator != nil {
		dispatchOpts = append(dispatchOpts, synth.WithIDGenerator(opts.IDGenerator))
	}

	if opts.Database != "" {
		logger.Debug("opening run log", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		dispatchOpts = append(dispatchOpts, synth.WithRecorder(st))
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make([]SynthResult, len(problems))
	var g errgroup.Group
	g.SetLimit(opts.Jobs)
	for i, lp := range problems {
		i, lp := i, lp
		g.Go(func() error {
			d := synth.NewDispatcher(registry, dispatchOpts...)
			results[i] = synthesizeOne(ctx, d, lp, opts, logger)
			return nil
		})
	}
	_ = g.Wait()

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, promRegistry); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing metrics file: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		logger.Debug("wrote metrics", "path", opts.MetricsFile)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		outputSynthText(formatter, results)
	}

	return synthExitError(results)
}

// synthesizeOne runs the full pipeline for one problem. Every failure is
// reported in the result so one bad problem does not stop the others.
func synthesizeOne(ctx context.Context, d *synth.Dispatcher, lp LoadedProblem, opts *SynthOptions, logger *slog.Logger) SynthResult {
	id := opts.Backend
	if id == "" {
		id = lp.Problem.Backend
	}
	if id == "" {
		id = string(synth.GR1C)
	}
	r := SynthResult{Name: lp.Name, Path: lp.Path, Backend: id, Removed: []string{}}

	sys, frag, err := compiler.Build(lp.Problem)
	if err != nil {
		r.Error = err.Error()
		return r
	}

	logger.Debug("synthesizing", "problem", lp.Name, "backend", id)
	run, err := d.Synthesize(ctx, synth.BackendID(id), frag, sys)
	if err != nil {
		r.Outcome = synth.ErrorOutcome(err)
		r.Error = err.Error()
		return r
	}

	r.RunID = run.ID
	r.SpecHash = run.SpecHash
	r.Outcome = run.Result.Outcome()
	for _, s := range run.Removed() {
		r.Removed = append(r.Removed, string(s))
	}
	r.Counterexamples = len(run.Result.Counterexamples)

	if st := run.Result.Strategy; st != nil {
		r.Nodes = len(st.Nodes)
		r.InitialNodes = st.Initial()
		if opts.Verify {
			violations, err := synth.VerifyStrategy(st, run.Fragment)
			if err != nil {
				r.Error = fmt.Sprintf("verify strategy: %v", err)
				return r
			}
			for _, v := range violations {
				r.Violations = append(r.Violations, v.String())
			}
			if len(violations) > 0 {
				logger.Warn("strategy violates compiled safety", "problem", lp.Name, "run", run.ID, "violations", len(violations))
			}
		}
	}
	return r
}

// synthExitError picks the exit code. Engine failures and unknown backends
// are command errors and win over unrealizable verdicts, invalid problems
// and failed verifications.
func synthExitError(results []SynthResult) error {
	var errored, failed int
	for _, r := range results {
		switch {
		case r.Outcome == ir.OutcomeBackendFailure, r.Outcome == ir.OutcomeUnsupportedBackend:
			errored++
		case r.failed(), r.Outcome != ir.OutcomeRealizable, len(r.Violations) > 0:
			failed++
		}
	}
	if errored > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%d problem(s) could not be sent to a working backend", errored))
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d problem(s) not realized", failed))
	}
	return nil
}

func outputSynthText(formatter *OutputFormatter, results []SynthResult) {
	w := formatter.Writer
	for _, r := range results {
		ok := !r.failed() && r.Outcome == ir.OutcomeRealizable && len(r.Violations) == 0
		mark := "✗"
		if ok {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %s: %s (%s)\n", mark, r.Name, r.Outcome, r.Backend)
		if r.RunID != "" {
			fmt.Fprintf(w, "  run: %s\n", r.RunID)
		}
		if len(r.Removed) > 0 {
			fmt.Fprintf(w, "  pruned: %s\n", strings.Join(r.Removed, ", "))
		}
		if r.Nodes > 0 {
			fmt.Fprintf(w, "  strategy: %d node(s), %d initial\n", r.Nodes, len(r.InitialNodes))
		}
		if r.Counterexamples > 0 {
			fmt.Fprintf(w, "  counterexamples: %d\n", r.Counterexamples)
		}
		for _, v := range r.Violations {
			fmt.Fprintf(w, "  violation: %s\n", v)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
		}
	}
}
