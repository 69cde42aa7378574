package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransient(t *testing.T) {
	out, _, err := execute(t, NewCheckCommand(&RootOptions{Format: "json"}), "testdata/problems/transient.yaml")
	require.NoError(t, err)

	resp := decode[[]CheckResult](t, out)
	require.Len(t, resp.Data, 1)
	r := resp.Data[0]
	assert.True(t, r.Consistent)
	assert.Equal(t, []string{"s1"}, r.InitialStates)
}

func TestCheckWithoutSystem(t *testing.T) {
	out, _, err := execute(t, NewCheckCommand(&RootOptions{Format: "json"}), "testdata/problems/arbiter.cue")
	require.NoError(t, err)

	resp := decode[[]CheckResult](t, out)
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].Consistent)
	assert.Nil(t, resp.Data[0].InitialStates, "initial states are only reported for systems")
}

func TestCheckText(t *testing.T) {
	out, _, err := execute(t, NewCheckCommand(&RootOptions{Format: "text", Verbose: true}), "testdata/problems/transient.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ transient")
	assert.Contains(t, out, "✓ initial condition satisfiable")
	assert.Contains(t, out, "initial states: s1")
	assert.Contains(t, out, "witness: {")
}

func TestCheckInconsistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contradiction.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: contradiction
spec:
  sys_vars: [x]
  sys_init: ["x", "!x"]
`), 0o644))

	out, _, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}), path)
	requireExitCode(t, err, ExitFailure)
	assert.Contains(t, out, "✗ contradiction")
	assert.Contains(t, out, "✗ initial condition satisfiable")
}

func TestCheckEverythingPruned(t *testing.T) {
	out, _, err := execute(t, NewCheckCommand(&RootOptions{Format: "json"}), "testdata/broken/transient_only.yaml")
	requireExitCode(t, err, ExitFailure)

	resp := decode[any](t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidSystem, resp.Error.Code)
}
