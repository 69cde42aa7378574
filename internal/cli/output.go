package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/synth"
)

// Process exit codes. A problem that is unrealizable, fails a check or a
// scenario exits 1; anything that kept synthkit from reaching a verdict
// exits 2.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// Error codes reported in the error payload. Problem schema violations use
// the E2xx codes defined by the compiler package.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002" // directory walk failed
	ErrCodeNoFiles     = "E003" // directory holds no problem files
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006" // CUE or YAML did not parse
	ErrCodeWriteFailed = "E007"
	ErrCodeDatabase    = "E008" // run log could not be opened or queried
	ErrCodeBackend     = "E009" // backend misconfigured or engine failed

	ErrCodeInvalidSystem = "E010" // system does not compile after pruning
	ErrCodeSpecConflict  = "E011" // requirement and system disagree on variable ownership
	ErrCodeNoSystem      = "E012" // command needs a system and the problem has none
)

// errorCode picks the payload code for err by walking its chain.
func errorCode(err error) string {
	var loadErr *LoadError
	var backendErr *synth.BackendError
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code
	case errors.Is(err, compiler.ErrInvalidSystem):
		return ErrCodeInvalidSystem
	case errors.Is(err, spec.ErrSpecConflict):
		return ErrCodeSpecConflict
	case errors.As(err, &backendErr):
		return ErrCodeBackend
	default:
		return ErrCodeGeneric
	}
}

// ExitError carries the process exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the envelope every --format json command prints.
type Response struct {
	Status string     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the error half of a Response. Details holds the full list of
// validation errors when there is more than one.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or as a JSON Response.
// Verbose logs go to ErrWriter so they never interleave with JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ErrorBody{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
// An empty code lets errorCode pick one from err.
func (f *OutputFormatter) Fail(exit int, code, message string, err error) *ExitError {
	if code == "" {
		code = errorCode(err)
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exit, message, err)
}

func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.diag(), format+"\n", args...)
}

func (f *OutputFormatter) diag() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
