package synth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/spec"
)

var (
	// ErrUnsupportedBackend is matched by every *UnsupportedBackendError.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrBackendFailure is matched by every *BackendError.
	ErrBackendFailure = errors.New("backend failure")
)

// UnsupportedBackendError reports a selector with no registered backend.
type UnsupportedBackendError struct {
	ID    BackendID
	Known []BackendID
}

func (e *UnsupportedBackendError) Error() string {
	known := make([]string, len(e.Known))
	for i, id := range e.Known {
		known[i] = string(id)
	}
	return fmt.Sprintf("unsupported backend %q (known: %s)", e.ID, strings.Join(known, ", "))
}

// Is reports whether target is ErrUnsupportedBackend.
func (e *UnsupportedBackendError) Is(target error) bool {
	return target == ErrUnsupportedBackend
}

// BackendError reports an engine that could not be run or whose answer
// could not be read. It carries the engine's own diagnostic output.
type BackendError struct {
	// Backend identifies the failing engine.
	Backend BackendID

	// Message is a human-readable description.
	Message string

	// Diagnostic is the engine's stderr or other raw output, if any.
	Diagnostic string

	// Err is the underlying cause, if any.
	Err error
}

func (e *BackendError) Error() string {
	var b strings.Builder
	b.WriteString("backend failure")
	if e.Backend != "" {
		fmt.Fprintf(&b, " (%s)", e.Backend)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is ErrBackendFailure.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendFailure
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError creates a BackendError with a formatted message.
func NewBackendError(id BackendID, diagnostic string, format string, args ...any) *BackendError {
	return &BackendError{
		Backend:    id,
		Message:    fmt.Sprintf(format, args...),
		Diagnostic: diagnostic,
	}
}

// IsInvalidSystem returns true if err reports a system the compiler rejected.
// Uses errors.Is to handle wrapped errors.
func IsInvalidSystem(err error) bool {
	return errors.Is(err, compiler.ErrInvalidSystem)
}

// IsSpecConflict returns true if err reports an env/sys ownership clash.
func IsSpecConflict(err error) bool {
	return errors.Is(err, spec.ErrSpecConflict)
}

// IsUnsupportedBackend returns true if err reports an unknown selector.
func IsUnsupportedBackend(err error) bool {
	return errors.Is(err, ErrUnsupportedBackend)
}

// IsBackendFailure returns true if err reports a failed engine call.
func IsBackendFailure(err error) bool {
	return errors.Is(err, ErrBackendFailure)
}
