package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/synth"
)

func TestOutputFormatter_JSON(t *testing.T) {
	tests := []struct {
		name    string
		write   func(f *OutputFormatter) error
		status  string
		code    string
		details bool
	}{
		{
			name:   "success",
			write:  func(f *OutputFormatter) error { return f.Success(map[string]string{"outcome": "realizable"}) },
			status: "ok",
		},
		{
			name:   "error",
			write:  func(f *OutputFormatter) error { return f.Error(ErrCodeInvalidSystem, "system is empty", nil) },
			status: "error",
			code:   ErrCodeInvalidSystem,
		},
		{
			name: "error_with_details",
			write: func(f *OutputFormatter) error {
				return f.Error("E202", "initial state \"zz\" is not declared", map[string]string{"field": "system.initial[0]"})
			},
			status:  "error",
			code:    "E202",
			details: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, tt.write(&OutputFormatter{Format: "json", Writer: buf}))

			var resp Response
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			if tt.code == "" {
				assert.Nil(t, resp.Error)
				assert.NotNil(t, resp.Data)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.details, resp.Error.Details != nil)
		})
	}
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("robot: realizable"))
	require.NoError(t, formatter.Error(ErrCodeSpecConflict, "declared as both env and sys: home", "details are hidden"))

	out := buf.String()
	assert.Contains(t, out, "robot: realizable\n")
	assert.Contains(t, out, "Error [E011]: declared as both env and sys: home")
	assert.NotContains(t, out, "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error(ErrCodeNotFound, "path not found: x.yaml", map[string]string{"path": "x.yaml"}))
	assert.Contains(t, buf.String(), "Error [E005]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Compiling %s", "robot.yaml")

			assert.Empty(t, out.String(), "verbose logs must not corrupt JSON output")
			if tt.wantLog {
				assert.Equal(t, "Compiling robot.yaml\n", errOut.String())
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_VerboseLogWithoutErrWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Writer: buf, Verbose: true}
	formatter.VerboseLog("Compiling %s", "robot.yaml")
	assert.Equal(t, "Compiling robot.yaml\n", buf.String())
}

func TestErrorCode(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"load error":     {&LoadError{Code: ErrCodeNoFiles, Message: "no problem files found in ."}, ErrCodeNoFiles},
		"invalid system": {fmt.Errorf("robot: %w", compiler.ErrInvalidSystem), ErrCodeInvalidSystem},
		"spec conflict":  {fmt.Errorf("robot: %w", spec.ErrSpecConflict), ErrCodeSpecConflict},
		"backend":        {&synth.BackendError{Backend: synth.GR1C, Message: "gr1c exited with status 2"}, ErrCodeBackend},
		"other":          {errors.New("boom"), ErrCodeGeneric},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	t.Run("explicit code", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: buf}

		err := formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", errors.New("database is locked"))
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Equal(t, "failed to open database: database is locked", err.Error())

		var resp Response
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeDatabase, resp.Error.Code)
		assert.Equal(t, "database is locked", resp.Error.Message)
	})

	t.Run("code from error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		cause := &LoadError{Code: ErrCodeNotFound, Message: "path not found: x.yaml"}
		err := formatter.Fail(ExitCommandError, "", "failed to load problems", cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "Error [E005]: E005: path not found: x.yaml\n", buf.String())
	})
}

func TestExitError(t *testing.T) {
	cause := errors.New("database is locked")
	err := WrapExitError(ExitCommandError, "failed to open database", cause)

	assert.Equal(t, "failed to open database: database is locked", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("synth: %w", err)))

	assert.Equal(t, "1 problem(s) not realized", NewExitError(ExitFailure, "1 problem(s) not realized").Error())
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
