package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/store"
	"github.com/roach88/synthkit/internal/synth"
	"github.com/roach88/synthkit/internal/testutil"
	"github.com/roach88/synthkit/internal/ts"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory run log with sequential run
// ids. The problem is built without schema validation so that conflicts
// reach the dispatcher. A formula that does not parse is an error, not a
// failed assertion; dispatch errors are classified into the result's outcome.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for the dispatch.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	sys, frag, err := compiler.Build(&scenario.Problem)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	reg := synth.NewRegistry()
	for _, id := range scenario.registered() {
		reg.Register(synth.BackendID(id), stubBackend(scenario, synth.BackendID(id), sys))
	}
	d := synth.NewDispatcher(reg,
		synth.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		synth.WithRecorder(st),
		synth.WithIDGenerator(testutil.NewSequentialIDs("run")),
		synth.WithMetrics(synth.NewMetrics(prometheus.NewRegistry())),
	)

	result := NewResult()
	result.Fragment = frag
	result.System = sys
	result.Run, result.Err = d.Synthesize(ctx, synth.BackendID(scenario.backendID()), frag, sys)
	if result.Err != nil {
		result.Outcome = synth.ErrorOutcome(result.Err)
	} else {
		result.Outcome = result.Run.Result.Outcome()
	}

	result.Records, err = st.ListRuns(ctx, store.RunFilter{})
	if err != nil {
		return nil, fmt.Errorf("read run log: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// stubBackend answers according to the scenario verdict.
func stubBackend(s *Scenario, id synth.BackendID, sys *ts.System) synth.Backend {
	switch s.Verdict {
	case VerdictRealizable:
		if sys != nil {
			return testutil.SystemBackend(sys)
		}
		return synth.BackendFunc(func(_ context.Context, f *spec.Fragment) (*synth.Result, error) {
			return &synth.Result{Realizable: true, Strategy: singleNode(f)}, nil
		})
	case VerdictUnrealizable:
		return &testutil.StubBackend{Result: &synth.Result{}}
	default:
		return &testutil.StubBackend{Err: synth.NewBackendError(id, "", "%s", s.FailureMessage)}
	}
}

// singleNode is a one-node strategy holding every variable false.
func singleNode(f *spec.Fragment) *synth.Strategy {
	values := make(ltl.Valuation, len(f.EnvVars)+len(f.SysVars))
	for _, v := range f.EnvVars {
		values[v] = false
	}
	for _, v := range f.SysVars {
		values[v] = false
	}
	return &synth.Strategy{
		EnvVars: f.EnvVars,
		SysVars: f.SysVars,
		Nodes:   []synth.Node{{ID: 0, Initial: true, Values: values, Next: []int{0}}},
	}
}
