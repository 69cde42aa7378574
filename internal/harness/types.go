package harness

import (
	"github.com/roach88/synthkit/internal/ir"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/synth"
	"github.com/roach88/synthkit/internal/ts"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Outcome classifies the dispatch.
	Outcome ir.Outcome `json:"outcome"`

	// Run is the completed dispatch, nil when it failed.
	Run *synth.Run `json:"-"`

	// Err is the dispatch error, nil on success.
	Err error `json:"-"`

	// Fragment is the requirement as authored, before combination.
	Fragment *spec.Fragment `json:"-"`

	// System is the system as authored, nil without one.
	System *ts.System `json:"-"`

	// Records is the run log after the dispatch.
	Records []ir.RunRecord `json:"records"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Records: []ir.RunRecord{},
		Errors:  []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// ErrorMessage is the dispatch error text, empty on success.
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
