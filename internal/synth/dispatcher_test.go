package synth_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthkit/internal/ir"
	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/synth"
	"github.com/roach88/synthkit/internal/testutil"
	"github.com/roach88/synthkit/internal/ts"
)

// memRecorder keeps records in memory.
type memRecorder struct {
	mu      sync.Mutex
	records []ir.RunRecord
	err     error
}

func (r *memRecorder) RecordRun(_ context.Context, rec ir.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.err
}

func newDispatcher(t *testing.T, id synth.BackendID, b synth.Backend, opts ...synth.Option) *synth.Dispatcher {
	t.Helper()
	reg := synth.NewRegistry()
	reg.Register(id, b)
	opts = append([]synth.Option{
		synth.WithIDGenerator(testutil.NewSequentialIDs("run")),
		synth.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}, opts...)
	return synth.NewDispatcher(reg, opts...)
}

// TestSynthesize_UnsupportedBackend tests that an unknown selector fails
// first and leaves the inputs untouched.
func TestSynthesize_UnsupportedBackend(t *testing.T) {
	stub := &testutil.StubBackend{}
	rec := &memRecorder{}
	d := newDispatcher(t, synth.GR1C, stub, synth.WithRecorder(rec))

	frag := testutil.HomeGoal()
	sys := testutil.RobotSystem()
	fragBefore, sysBefore := frag.Clone(), sys.Clone()

	run, err := d.Synthesize(context.Background(), "slugs", frag, sys)

	assert.Nil(t, run)
	require.True(t, synth.IsUnsupportedBackend(err))
	var ube *synth.UnsupportedBackendError
	require.ErrorAs(t, err, &ube)
	assert.Equal(t, synth.BackendID("slugs"), ube.ID)
	assert.Equal(t, []synth.BackendID{synth.GR1C}, ube.Known)

	assert.Equal(t, fragBefore, frag)
	assert.Equal(t, sysBefore, sys)
	assert.Empty(t, stub.Calls())

	require.Len(t, rec.records, 1)
	assert.Equal(t, ir.OutcomeUnsupportedBackend, rec.records[0].Outcome)
	assert.Empty(t, rec.records[0].RemovedStates)
}

// TestSynthesize_RobotEndToEnd tests compile, merge and dispatch of the
// four-region robot with a home progress goal.
func TestSynthesize_RobotEndToEnd(t *testing.T) {
	sys := testutil.RobotSystem()
	sysHash, err := sys.Hash()
	require.NoError(t, err)

	d := newDispatcher(t, synth.GR1C, testutil.SystemBackend(sys))
	run, err := d.Synthesize(context.Background(), synth.GR1C, testutil.HomeGoal(), sys)
	require.NoError(t, err)

	assert.Equal(t, "run-0001", run.ID)
	assert.Empty(t, run.Removed())
	assert.Equal(t, sysHash, run.SystemHash)
	assert.NotEmpty(t, run.SpecHash)
	assert.Equal(t, []string{"home", "lot", "s0", "s1", "s2", "s3"}, run.Fragment.SysVars)
	assert.Equal(t, []string{"home"}, spec.Strings(run.Fragment.SysProgress))

	require.True(t, run.Result.Realizable)
	strategy := run.Result.Strategy
	require.NotNil(t, strategy)
	for _, n := range strategy.Nodes {
		assert.NotEmpty(t, n.Next, "node %d", n.ID)
	}
	violations, err := synth.VerifyStrategy(strategy, run.Fragment)
	require.NoError(t, err)
	assert.Empty(t, violations)

	after, err := sys.Hash()
	require.NoError(t, err)
	assert.Equal(t, sysHash, after, "caller's system untouched")
}

// TestSynthesize_PrunesBeforeCompiling tests that the backend sees only the
// recurrent core.
func TestSynthesize_PrunesBeforeCompiling(t *testing.T) {
	stub := &testutil.StubBackend{Result: &synth.Result{Realizable: false}}
	d := newDispatcher(t, synth.JTLV, stub)

	run, err := d.Synthesize(context.Background(), synth.JTLV, &spec.Fragment{}, testutil.TwoStateSystem())
	require.NoError(t, err)

	assert.Equal(t, []ts.State{"s0"}, run.Removed())
	assert.Equal(t, 2, run.Prune.Passes)

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"p", "s1"}, calls[0].SysVars)
	for _, e := range calls[0].SysInit {
		assert.NotContains(t, ltl.Vars(e), "s0")
	}
	assert.False(t, run.Result.Realizable)
}

// TestSynthesize_SpecOnly tests dispatch without a system.
func TestSynthesize_SpecOnly(t *testing.T) {
	stub := &testutil.StubBackend{Result: &synth.Result{Realizable: false}}
	d := newDispatcher(t, synth.GR1C, stub)

	frag := &spec.Fragment{SysVars: []string{"a"}, SysProgress: []ltl.Expr{ltl.V("a")}}
	run, err := d.Synthesize(context.Background(), synth.GR1C, frag, nil)
	require.NoError(t, err)

	assert.Nil(t, run.Prune)
	assert.Empty(t, run.SystemHash)
	assert.Same(t, frag, stub.Calls()[0])
}

// TestSynthesize_InvalidSystem tests that compile failures pass through
// unchanged and the backend is never called.
func TestSynthesize_InvalidSystem(t *testing.T) {
	stub := &testutil.StubBackend{}
	rec := &memRecorder{}
	d := newDispatcher(t, synth.GR1C, stub, synth.WithRecorder(rec))

	sys := ts.New()
	require.NoError(t, sys.AddState("a"))
	require.NoError(t, sys.AddState("b"))
	require.NoError(t, sys.AddTransition("a", "b", ""))

	_, err := d.Synthesize(context.Background(), synth.GR1C, &spec.Fragment{}, sys)

	assert.True(t, synth.IsInvalidSystem(err))
	assert.False(t, synth.IsBackendFailure(err))
	assert.Empty(t, stub.Calls())
	require.Len(t, rec.records, 1)
	assert.Equal(t, ir.OutcomeInvalidSystem, rec.records[0].Outcome)
	assert.ElementsMatch(t, []string{"a", "b"}, rec.records[0].RemovedStates)
}

// TestSynthesize_SpecConflict tests an env variable named like a proposition.
func TestSynthesize_SpecConflict(t *testing.T) {
	stub := &testutil.StubBackend{}
	d := newDispatcher(t, synth.GR1C, stub)

	frag := &spec.Fragment{EnvVars: []string{"home"}}
	_, err := d.Synthesize(context.Background(), synth.GR1C, frag, testutil.RobotSystem())

	assert.True(t, synth.IsSpecConflict(err))
	var ce *spec.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"home"}, ce.Variables)
	assert.Empty(t, stub.Calls())
}

// TestSynthesize_BackendErrors tests how engine failures are surfaced.
func TestSynthesize_BackendErrors(t *testing.T) {
	boom := errors.New("boom")
	own := &synth.BackendError{Backend: synth.GR1C, Message: "exit status 3", Diagnostic: "syntax error"}

	tests := []struct {
		name  string
		stub  *testutil.StubBackend
		check func(t *testing.T, err error)
	}{
		{
			name: "plain error is wrapped",
			stub: &testutil.StubBackend{Err: boom},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, boom)
				var be *synth.BackendError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, synth.GR1C, be.Backend)
			},
		},
		{
			name: "backend error is surfaced unmodified",
			stub: &testutil.StubBackend{Err: own},
			check: func(t *testing.T, err error) {
				assert.Same(t, own, err)
			},
		},
		{
			name: "nil result",
			stub: &testutil.StubBackend{},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "no result")
			},
		},
		{
			name: "realizable without strategy",
			stub: &testutil.StubBackend{Result: &synth.Result{Realizable: true}},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "without a strategy")
			},
		},
		{
			name: "dangling successor",
			stub: &testutil.StubBackend{Result: &synth.Result{
				Realizable: true,
				Strategy:   &synth.Strategy{Nodes: []synth.Node{{ID: 0, Next: []int{7}}}},
			}},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "unknown successor 7")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(t, synth.GR1C, tt.stub)
			run, err := d.Synthesize(context.Background(), synth.GR1C, &spec.Fragment{}, nil)
			assert.Nil(t, run)
			require.Error(t, err)
			assert.True(t, synth.IsBackendFailure(err))
			tt.check(t, err)
		})
	}
}

// TestSynthesize_ForwardsCounterexamples tests that unrealizable results are
// passed through as they are.
func TestSynthesize_ForwardsCounterexamples(t *testing.T) {
	traces := []synth.Trace{{{"park": true}, {"park": false}}}
	stub := &testutil.StubBackend{Result: &synth.Result{Counterexamples: traces}}
	d := newDispatcher(t, synth.JTLV, stub)

	run, err := d.Synthesize(context.Background(), synth.JTLV, &spec.Fragment{}, nil)
	require.NoError(t, err)
	assert.False(t, run.Result.Realizable)
	assert.Equal(t, traces, run.Result.Counterexamples)
}

// TestSynthesize_ContextCancelled tests that cancellation reaches the backend
// and comes back as a backend failure.
func TestSynthesize_ContextCancelled(t *testing.T) {
	b := synth.BackendFunc(func(ctx context.Context, _ *spec.Fragment) (*synth.Result, error) {
		return nil, ctx.Err()
	})
	rec := &memRecorder{}
	d := newDispatcher(t, synth.GR1C, b, synth.WithRecorder(rec))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Synthesize(ctx, synth.GR1C, &spec.Fragment{}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, synth.IsBackendFailure(err))
	assert.Len(t, rec.records, 1)
}

// TestSynthesize_Records tests the persisted record of a successful run.
func TestSynthesize_Records(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	sys := testutil.TwoStateSystem()
	d := newDispatcher(t, synth.GR1C, testutil.SystemBackend(sys), synth.WithRecorder(rec))

	run, err := d.Synthesize(context.Background(), synth.GR1C, &spec.Fragment{}, sys)
	require.NoError(t, err, "recording failures do not fail the dispatch")

	require.Len(t, rec.records, 1)
	r := rec.records[0]
	assert.Equal(t, run.ID, r.ID)
	assert.Equal(t, "gr1c", r.Backend)
	assert.Equal(t, run.SpecHash, r.SpecHash)
	assert.Equal(t, run.SystemHash, r.SystemHash)
	assert.Equal(t, ir.OutcomeRealizable, r.Outcome)
	assert.Equal(t, []string{"s0"}, r.RemovedStates)
	assert.Equal(t, ir.Bool(true), r.Result["realizable"])
	assert.Equal(t, ir.ToolVersion, r.ToolVersion)
	assert.Empty(t, r.ErrorMessage)
}

// TestSynthesize_Metrics tests counter and histogram updates.
func TestSynthesize_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := synth.NewMetrics(reg)
	sys := testutil.TwoStateSystem()
	d := newDispatcher(t, synth.GR1C, testutil.SystemBackend(sys), synth.WithMetrics(m))

	_, err := d.Synthesize(context.Background(), synth.GR1C, &spec.Fragment{}, sys)
	require.NoError(t, err)
	_, err = d.Synthesize(context.Background(), "nope", &spec.Fragment{}, sys)
	require.Error(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.DispatchTotal.WithLabelValues("gr1c", "realizable")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.DispatchTotal.WithLabelValues("nope", "unsupported_backend")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var passes uint64
	for _, mf := range families {
		if mf.GetName() == "synthkit_prune_passes" {
			passes = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), passes, "only the dispatch that reached pruning is observed")
}
