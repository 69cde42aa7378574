package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidProblems(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "testdata/problems")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All 3 problem(s) valid")
}

func TestValidateJSON(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "testdata/problems/arbiter.cue")
	require.NoError(t, err)

	resp := decode[ValidationResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Problems, 1)
	assert.Equal(t, "arbiter", resp.Data.Problems[0].Name)
	assert.Empty(t, resp.Data.Problems[0].Errors)
}

func TestValidateBrokenProblems(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "testdata/broken")
	requireExitCode(t, err, ExitFailure)

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E202", "unknown state references are reported")
	assert.Contains(t, out, "syntax.cue", "load failures are listed by path")
	assert.NotContains(t, out, "transient_only", "a prunable system is still a valid document")
}

func TestValidateBrokenJSON(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "testdata/broken/bad_refs.yaml")
	requireExitCode(t, err, ExitFailure)

	resp := decode[ValidationResult](t, out)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E202", resp.Error.Code)

	require.Len(t, resp.Data.Problems, 1)
	assert.GreaterOrEqual(t, len(resp.Data.Problems[0].Errors), 2, "every error is reported, not just the first")
}

func TestValidateSyntaxErrorHasLine(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "testdata/broken/syntax.cue")
	requireExitCode(t, err, ExitFailure)

	resp := decode[ValidationResult](t, out)
	require.Len(t, resp.Data.Problems, 1)
	require.Len(t, resp.Data.Problems[0].Errors, 1)
	verr := resp.Data.Problems[0].Errors[0]
	assert.Equal(t, ErrCodeBuildFailed, verr.Code)
	assert.Positive(t, verr.Line)
}

func TestValidateNonExistentPath(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "testdata/nonexistent")
	requireExitCode(t, err, ExitCommandError)
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}
