package satcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/ts"
)

func exprs(src ...string) []ltl.Expr {
	out := make([]ltl.Expr, len(src))
	for i, s := range src {
		out[i] = ltl.MustParse(s)
	}
	return out
}

// TestSatisfiable tests basic propositional cases.
func TestSatisfiable(t *testing.T) {
	tests := []struct {
		name     string
		formulas []string
		want     bool
	}{
		{"empty", nil, true},
		{"single var", []string{"a"}, true},
		{"contradiction", []string{"a", "!a"}, false},
		{"false constant", []string{"False"}, false},
		{"implication chain", []string{"a", "a -> b", "b -> c", "!c"}, false},
		{"iff", []string{"a <-> b", "a", "!b"}, false},
		{"disjunction", []string{"a || b", "!a"}, true},
		{"next is separate", []string{"a", "X(!a)"}, true},
		{"next contradiction", []string{"X(a)", "X(!a)"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Satisfiable(exprs(tt.formulas...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestSatisfiable_NestedNext tests rejection of next under next.
func TestSatisfiable_NestedNext(t *testing.T) {
	_, err := Satisfiable(ltl.X(ltl.X(ltl.V("a"))))
	assert.ErrorIs(t, err, ltl.ErrNestedNext)
}

// TestEncoder_Witness tests that the witness satisfies the formulas.
func TestEncoder_Witness(t *testing.T) {
	formulas := exprs("a || b", "!a", "b -> X(c)")
	enc := NewEncoder()
	for _, f := range formulas {
		require.NoError(t, enc.Require(f))
	}

	ok, cur, next := enc.Solve()
	require.True(t, ok)
	for _, f := range formulas {
		v, err := ltl.Eval(f, cur, next)
		require.NoError(t, err)
		assert.True(t, v, ltl.String(f))
	}
}

// TestEncoder_Models tests projected enumeration.
func TestEncoder_Models(t *testing.T) {
	enc := NewEncoder()
	require.NoError(t, enc.Require(ltl.MustParse("a || b")))

	models := enc.Models([]string{"a", "b"}, 0)
	assert.Len(t, models, 3)

	assert.Len(t, enc.Models([]string{"a", "b"}, 2), 2)
	assert.Len(t, enc.Models(nil, 0), 1)
}

// TestInitialStates tests that a compiled system admits exactly its initial states.
func TestInitialStates(t *testing.T) {
	sys := ts.New()
	sys.AddPropositions("p")
	for _, s := range []ts.State{"a", "b", "c"} {
		require.NoError(t, sys.AddState(s))
	}
	require.NoError(t, sys.SetLabel("c", "p"))
	require.NoError(t, sys.SetInitial("a", "c"))
	for _, e := range [][2]ts.State{{"a", "b"}, {"b", "c"}, {"c", "a"}} {
		require.NoError(t, sys.AddTransition(e[0], e[1], ""))
	}

	frag, err := compiler.Compile(sys)
	require.NoError(t, err)

	got, err := InitialStates(frag, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got)
}

// TestCheck tests the fragment report.
func TestCheck(t *testing.T) {
	good := &spec.Fragment{
		EnvVars:   []string{"req"},
		SysVars:   []string{"grant"},
		EnvInit:   exprs("!req"),
		SysInit:   exprs("!grant"),
		SysSafety: exprs("req -> X(grant)"),
	}
	r, err := Check(good)
	require.NoError(t, err)
	assert.True(t, r.Consistent())
	assert.Equal(t, ltl.Valuation{"req": false, "grant": false}, r.Witness)

	badInit := good.Clone()
	badInit.SysInit = exprs("grant", "!grant")
	r, err = Check(badInit)
	require.NoError(t, err)
	assert.False(t, r.InitSatisfiable)
	assert.Nil(t, r.Witness)
	assert.False(t, r.Consistent())

	badStep := good.Clone()
	badStep.SysSafety = exprs("X(grant)", "X(!grant)")
	r, err = Check(badStep)
	require.NoError(t, err)
	assert.True(t, r.InitSatisfiable)
	assert.True(t, r.AssumptionsSatisfiable)
	assert.False(t, r.StepSatisfiable)

	badEnv := good.Clone()
	badEnv.EnvSafety = exprs("X(req) && X(!req)")
	r, err = Check(badEnv)
	require.NoError(t, err)
	assert.False(t, r.AssumptionsSatisfiable)
}
