package synth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/ir"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/ts"
)

// Recorder persists one record per dispatch. Implemented by store.Store.
type Recorder interface {
	RecordRun(ctx context.Context, rec ir.RunRecord) error
}

// Run is a completed dispatch.
type Run struct {
	ID         string
	Backend    BackendID
	SpecHash   string // FragmentHash of Fragment
	SystemHash string // Hash of the caller's system, empty without one

	// Prune is nil when no system was supplied.
	Prune *compiler.PruneReport

	// Fragment is what the backend received: the caller's fragment merged
	// with the compiled system.
	Fragment *spec.Fragment

	Result *Result
}

// Removed returns the states pruning dropped.
func (r *Run) Removed() []ts.State {
	if r.Prune == nil {
		return nil
	}
	return r.Prune.Removed
}

// Dispatcher drives the prune, compile, combine and backend steps.
//
// The caller's fragment and system are never modified. Pruning and
// compilation work on a private clone of the system.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	recorder Recorder
	metrics  *Metrics
	ids      IDGenerator
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithRecorder persists every dispatch, including failed ones.
// Recording failures are logged and never fail the dispatch.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Dispatcher) {
		d.ids = g
	}
}

// NewDispatcher creates a dispatcher over the backends in reg.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		logger:   slog.Default(),
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Synthesize resolves id, optionally folds sys into frag, and asks the
// backend for a verdict.
//
// Errors, in the order they can occur:
//   - *UnsupportedBackendError before anything else is touched
//   - *compiler.InvalidSystemError from compiling the pruned system
//   - *spec.ConflictError from merging the compiled fragment into frag
//   - *BackendError for an engine that failed or answered nonsense
//
// Only the backend call observes ctx.
func (d *Dispatcher) Synthesize(ctx context.Context, id BackendID, frag *spec.Fragment, sys *ts.System) (*Run, error) {
	start := time.Now()
	if frag == nil {
		frag = &spec.Fragment{}
	}
	run := &Run{ID: d.ids.Generate(), Backend: id, Fragment: frag}

	err := d.dispatch(ctx, run, frag, sys)

	outcome := outcomeOf(run, err)
	d.observe(run, outcome, time.Since(start))
	d.record(ctx, run, sys, outcome, err)

	if err != nil {
		d.logger.Warn("dispatch failed",
			"run", run.ID,
			"backend", id,
			"outcome", outcome,
			"error", err,
		)
		return nil, err
	}
	d.logger.Info("dispatch complete",
		"run", run.ID,
		"backend", id,
		"outcome", outcome,
		"removed", len(run.Removed()),
		"duration", time.Since(start),
	)
	return run, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, run *Run, frag *spec.Fragment, sys *ts.System) error {
	backend, err := d.registry.Lookup(run.Backend)
	if err != nil {
		return err
	}

	merged, report, err := compiler.Assemble(frag, sys)
	run.Prune = report
	if report != nil {
		d.logger.Debug("pruned system",
			"run", run.ID,
			"removed", len(report.Removed),
			"passes", report.Passes,
			"components", len(report.Components),
		)
	}
	if err != nil {
		return err
	}
	run.Fragment = merged

	d.logger.Debug("invoking backend",
		"run", run.ID,
		"backend", run.Backend,
		"env_vars", len(merged.EnvVars),
		"sys_vars", len(merged.SysVars),
		"formulas", merged.Len(),
	)
	res, err := backend.Synthesize(ctx, merged)
	if err != nil {
		var be *BackendError
		if errors.As(err, &be) {
			return err
		}
		return &BackendError{Backend: run.Backend, Message: "engine call failed", Err: err}
	}
	if err := checkResult(run.Backend, res); err != nil {
		return err
	}
	run.Result = res
	return nil
}

// checkResult rejects answers that do not fit the Result shape.
func checkResult(id BackendID, res *Result) error {
	if res == nil {
		return NewBackendError(id, "", "engine returned no result")
	}
	if res.Realizable && res.Strategy == nil {
		return NewBackendError(id, "", "realizable verdict without a strategy")
	}
	if res.Strategy != nil {
		if err := res.Strategy.Validate(); err != nil {
			return &BackendError{Backend: id, Message: "malformed strategy", Err: err}
		}
	}
	return nil
}

func outcomeOf(run *Run, err error) ir.Outcome {
	if err == nil {
		return run.Result.Outcome()
	}
	return ErrorOutcome(err)
}

// ErrorOutcome classifies a dispatch error. Anything that is not an
// unsupported backend, invalid system or spec conflict is a backend failure.
func ErrorOutcome(err error) ir.Outcome {
	switch {
	case IsUnsupportedBackend(err):
		return ir.OutcomeUnsupportedBackend
	case IsInvalidSystem(err):
		return ir.OutcomeInvalidSystem
	case IsSpecConflict(err):
		return ir.OutcomeSpecConflict
	default:
		return ir.OutcomeBackendFailure
	}
}

func (d *Dispatcher) observe(run *Run, outcome ir.Outcome, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.DispatchTotal.WithLabelValues(string(run.Backend), string(outcome)).Inc()
	d.metrics.DispatchDuration.WithLabelValues(string(run.Backend)).Observe(elapsed.Seconds())
	if run.Prune != nil {
		d.metrics.PrunedStates.Observe(float64(len(run.Prune.Removed)))
		d.metrics.PrunePasses.Observe(float64(run.Prune.Passes))
	}
}

func (d *Dispatcher) record(ctx context.Context, run *Run, sys *ts.System, outcome ir.Outcome, err error) {
	run.SpecHash = d.hash(run.Fragment.Hash)
	run.SystemHash = d.systemHash(sys)
	if d.recorder == nil {
		return
	}

	rec := ir.RunRecord{
		ID:            run.ID,
		Backend:       string(run.Backend),
		SpecHash:      run.SpecHash,
		SystemHash:    run.SystemHash,
		Outcome:       outcome,
		RemovedStates: stateStrings(run.Removed()),
		ToolVersion:   ir.ToolVersion,
		IRVersion:     ir.IRVersion,
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	} else {
		rec.Result = run.Result.Canonical()
	}
	// A cancelled dispatch is still recorded
	if rerr := d.recorder.RecordRun(context.WithoutCancel(ctx), rec); rerr != nil {
		d.logger.Error("failed to record run", "run", run.ID, "error", rerr)
	}
}

func (d *Dispatcher) systemHash(sys *ts.System) string {
	if sys == nil {
		return ""
	}
	return d.hash(sys.Hash)
}

func (d *Dispatcher) hash(fn func() (string, error)) string {
	h, err := fn()
	if err != nil {
		d.logger.Warn("hash failed", "error", err)
		return ""
	}
	return h
}

func stateStrings(states []ts.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
