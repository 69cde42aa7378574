package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthkit/internal/ir"
	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
)

// arbiter is a one-client arbiter: grant follows request one step later.
func arbiter() *spec.Fragment {
	return &spec.Fragment{
		EnvVars:   []string{"req"},
		SysVars:   []string{"grant"},
		SysInit:   []ltl.Expr{ltl.MustParse("!grant")},
		EnvSafety: []ltl.Expr{ltl.MustParse("req -> X(req)")},
		SysSafety: []ltl.Expr{ltl.MustParse("X(grant) <-> req")},
	}
}

func arbiterStrategy() *Strategy {
	return &Strategy{
		EnvVars: []string{"req"},
		SysVars: []string{"grant"},
		Nodes: []Node{
			{ID: 0, Initial: true, Values: ltl.Valuation{"req": false, "grant": false}, Next: []int{0, 1}},
			{ID: 1, Values: ltl.Valuation{"req": true, "grant": false}, Next: []int{2}},
			{ID: 2, Values: ltl.Valuation{"req": true, "grant": true}, Next: []int{2}},
		},
	}
}

// TestVerifyStrategy_Correct tests a strategy that meets every guarantee.
func TestVerifyStrategy_Correct(t *testing.T) {
	violations, err := VerifyStrategy(arbiterStrategy(), arbiter())
	require.NoError(t, err)
	assert.Empty(t, violations)
}

// TestVerifyStrategy_Violations tests the three kinds of violation.
func TestVerifyStrategy_Violations(t *testing.T) {
	s := arbiterStrategy()
	s.Nodes[1].Next = []int{1} // req held but grant withheld
	s.Nodes = append(s.Nodes,
		Node{ID: 3, Values: ltl.Valuation{}},
		Node{ID: 4, Initial: true, Values: ltl.Valuation{"grant": true}, Next: []int{1}},
	)

	violations, err := VerifyStrategy(s, arbiter())
	require.NoError(t, err)

	var got []string
	for _, v := range violations {
		got = append(got, v.String())
	}
	assert.ElementsMatch(t, []string{
		"node 4 violates sys_init: !grant",
		"node 1 -> 1 violates sys_safety: X(grant) <-> req",
		"node 3: successors",
	}, got)
}

// TestVerifyStrategy_AssumptionViolatedIsVacuous tests that edges the
// environment may not take are not held against the system.
func TestVerifyStrategy_AssumptionViolatedIsVacuous(t *testing.T) {
	s := arbiterStrategy()
	// req drops from 2 to 0, which env_safety forbids
	s.Nodes[2].Next = []int{0}

	violations, err := VerifyStrategy(s, arbiter())
	require.NoError(t, err)
	assert.Empty(t, violations)
}

// TestVerifyStrategy_UnknownSuccessor tests malformed input.
func TestVerifyStrategy_UnknownSuccessor(t *testing.T) {
	s := arbiterStrategy()
	s.Nodes[2].Next = []int{9}
	_, err := VerifyStrategy(s, arbiter())
	assert.Error(t, err)
}

// TestStrategy_Step tests the transition function keyed by input.
func TestStrategy_Step(t *testing.T) {
	s := arbiterStrategy()

	next, ok := s.Step(0, ltl.Valuation{"req": true})
	require.True(t, ok)
	assert.Equal(t, 1, next)
	assert.Equal(t, ltl.Valuation{"grant": false}, s.Outputs(next))

	next, ok = s.Step(1, ltl.Valuation{"req": true})
	require.True(t, ok)
	assert.Equal(t, ltl.Valuation{"grant": true}, s.Outputs(next))

	_, ok = s.Step(2, ltl.Valuation{"req": false})
	assert.False(t, ok)

	assert.Equal(t, []int{0}, s.Initial())
	assert.Equal(t, "{grant, req}", Describe(s.Nodes[2]))
}

// TestResult_Canonical tests the persisted form of a verdict.
func TestResult_Canonical(t *testing.T) {
	r := &Result{Realizable: true, Strategy: arbiterStrategy()}
	obj := r.Canonical()
	assert.Equal(t, ir.Bool(true), obj["realizable"])
	assert.NotContains(t, obj, "counterexamples")

	_, err := ir.MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, ir.OutcomeRealizable, r.Outcome())

	u := &Result{Counterexamples: []Trace{{{"req": true}}}}
	obj = u.Canonical()
	assert.Equal(t, ir.OutcomeUnrealizable, u.Outcome())
	assert.Equal(t, ir.List{ir.List{ir.Object{"req": ir.Bool(true)}}}, obj["counterexamples"])
}
