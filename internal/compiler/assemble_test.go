package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/ts"
)

func TestAssemble_WithoutSystem(t *testing.T) {
	frag := &spec.Fragment{SysVars: []string{"x"}, SysProgress: []ltl.Expr{ltl.V("x")}}

	merged, report, err := Assemble(frag, nil)
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Same(t, frag, merged)
}

func TestAssemble_MergesPrunedSystem(t *testing.T) {
	sys := twoStateSystem(t)
	frag := &spec.Fragment{SysVars: []string{"p"}, SysProgress: []ltl.Expr{ltl.V("p")}}

	merged, report, err := Assemble(frag, sys)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, []ts.State{"s0"}, report.Removed)
	assert.Equal(t, []string{"p", "s1"}, merged.SysVars)
	assert.Equal(t, []string{"p"}, spec.Strings(merged.SysProgress))
	assert.Equal(t, []string{"s1", "s1 -> p"}, spec.Strings(merged.SysInit))
	assert.True(t, sys.HasState("s0"), "input system must not be pruned")
	assert.Equal(t, []string{"p"}, frag.SysVars, "input fragment must not change")
}

func TestAssemble_ConflictKeepsReport(t *testing.T) {
	frag := &spec.Fragment{EnvVars: []string{"p"}}

	merged, report, err := Assemble(frag, twoStateSystem(t))
	assert.Nil(t, merged)
	assert.ErrorIs(t, err, spec.ErrSpecConflict)
	require.NotNil(t, report)
	assert.Equal(t, []ts.State{"s0"}, report.Removed)
}

func TestAssemble_EverythingPruned(t *testing.T) {
	sys := buildSystem(t, []ts.State{"a", "b"}, [][2]ts.State{{"a", "b"}})

	_, report, err := Assemble(nil, sys)
	assert.ErrorIs(t, err, ErrInvalidSystem)
	require.NotNil(t, report)
	assert.ElementsMatch(t, []ts.State{"a", "b"}, report.Removed)
}
