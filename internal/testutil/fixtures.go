package testutil

import (
	"context"
	"sync"

	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/synth"
	"github.com/roach88/synthkit/internal/ts"
)

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// RobotSystem is a four-region robot workspace: home (s0), transit (s1),
// lot (s2) and other (s3). Transit connects to every other region in both
// directions. The robot starts at home.
func RobotSystem() *ts.System {
	sys := ts.New()
	sys.AddPropositions("home", "lot")
	must(sys.AddState("s0", "home"))
	must(sys.AddState("s1"))
	must(sys.AddState("s2", "lot"))
	must(sys.AddState("s3"))
	must(sys.SetInitial("s0"))
	for _, e := range [][2]ts.State{
		{"s0", "s1"}, {"s1", "s0"},
		{"s1", "s2"}, {"s2", "s1"},
		{"s1", "s3"}, {"s3", "s1"},
	} {
		must(sys.AddTransition(e[0], e[1], ""))
	}
	return sys
}

// TwoStateSystem is s0 -> s1, s1 -> s1 with initial s0 and label(s1) = {p}.
// Pruning removes s0.
func TwoStateSystem() *ts.System {
	sys := ts.New()
	sys.AddPropositions("p")
	must(sys.AddState("s0"))
	must(sys.AddState("s1", "p"))
	must(sys.SetInitial("s0"))
	must(sys.AddTransition("s0", "s1", ""))
	must(sys.AddTransition("s1", "s1", ""))
	return sys
}

// HomeGoal requires visiting home infinitely often.
func HomeGoal() *spec.Fragment {
	return &spec.Fragment{SysProgress: []ltl.Expr{ltl.V("home")}}
}

// StrategyFromSystem builds the strategy that simply follows sys: one node
// per state, successors as in sys, and a one-hot state encoding with the
// state's label. Env variables and any other sys variables of f are false.
// When sys has no initial states every node is initial.
//
// For a pruned system this strategy satisfies the compiled safety formulas.
func StrategyFromSystem(sys *ts.System, f *spec.Fragment) *synth.Strategy {
	states := sys.States()
	index := make(map[ts.State]int, len(states))
	for i, s := range states {
		index[s] = i
	}
	anyInitial := len(sys.Initial()) > 0

	st := &synth.Strategy{EnvVars: f.EnvVars, SysVars: f.SysVars}
	for i, s := range states {
		values := make(ltl.Valuation)
		for _, v := range f.EnvVars {
			values[v] = false
		}
		for _, v := range f.SysVars {
			values[v] = false
		}
		for _, other := range states {
			values[string(other)] = other == s
		}
		for _, p := range sys.Propositions() {
			values[p] = sys.HasLabel(s, p)
		}

		var next []int
		for _, succ := range sys.Successors(s) {
			next = append(next, index[succ])
		}
		st.Nodes = append(st.Nodes, synth.Node{
			ID:      i,
			Initial: !anyInitial || sys.IsInitial(s),
			Values:  values,
			Next:    next,
		})
	}
	return st
}

// StubBackend returns a canned answer and remembers what it was asked.
//
// Thread-safety: StubBackend is safe for concurrent use.
type StubBackend struct {
	Result *synth.Result
	Err    error

	mu    sync.Mutex
	calls []*spec.Fragment
}

// Synthesize records f and returns the canned answer.
func (b *StubBackend) Synthesize(_ context.Context, f *spec.Fragment) (*synth.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, f)
	return b.Result, b.Err
}

// Calls returns the fragments received so far.
func (b *StubBackend) Calls() []*spec.Fragment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*spec.Fragment(nil), b.calls...)
}

// SystemBackend answers realizable with StrategyFromSystem over the pruned
// form of sys, built against whatever fragment it receives.
func SystemBackend(sys *ts.System) synth.Backend {
	pruned, _ := compiler.Prune(sys)
	return synth.BackendFunc(func(_ context.Context, f *spec.Fragment) (*synth.Result, error) {
		return &synth.Result{Realizable: true, Strategy: StrategyFromSystem(pruned, f)}, nil
	})
}
