package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/ts"
)

// ErrInvalidSystem is the sentinel matched by every *InvalidSystemError.
var ErrInvalidSystem = errors.New("invalid system")

// InvalidReason classifies why a system cannot be compiled.
type InvalidReason string

const (
	ReasonEmpty     InvalidReason = "empty"     // No states
	ReasonDeadEnd   InvalidReason = "dead_end"  // States without successors
	ReasonCollision InvalidReason = "collision" // State named like a proposition
	ReasonMalformed InvalidReason = "malformed" // Structural invariant violated
)

// InvalidSystemError reports a system the compiler refuses to encode.
type InvalidSystemError struct {
	Reason InvalidReason
	States []ts.State // Offending states, in system order
	Err    error      // Underlying cause for ReasonMalformed
}

func (e *InvalidSystemError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "invalid system: no states"
	case ReasonDeadEnd:
		return fmt.Sprintf("invalid system: states without successors: %s", joinStates(e.States))
	case ReasonCollision:
		return fmt.Sprintf("invalid system: states named like propositions: %s", joinStates(e.States))
	}
	return fmt.Sprintf("invalid system: %s: %v", e.Reason, e.Err)
}

// Is reports whether target is ErrInvalidSystem.
func (e *InvalidSystemError) Is(target error) bool {
	return target == ErrInvalidSystem
}

func (e *InvalidSystemError) Unwrap() error {
	return e.Err
}

func joinStates(states []ts.State) string {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Compile encodes sys as a specification fragment whose system variables
// are the propositions followed by one variable per state.
//
// sys_init holds a one-hot disjunction over the initial states, then for
// each initial state an implication fixing every proposition to its label.
// When no state is marked initial every state is admissible. This happens
// when pruning removed all initial states.
//
// sys_safety holds, in order: for each state s, s -> X(successors of s);
// the one-hot constraint under X; for each state s, X(s -> label of s).
// Label bindings are omitted when the vocabulary is empty.
//
// Compile does not prune and never modifies sys.
func Compile(sys *ts.System) (*spec.Fragment, error) {
	if err := sys.Validate(); err != nil {
		return nil, &InvalidSystemError{Reason: ReasonMalformed, Err: err}
	}
	states := sys.States()
	if len(states) == 0 {
		return nil, &InvalidSystemError{Reason: ReasonEmpty}
	}

	var collisions, deadEnds []ts.State
	for _, s := range states {
		if sys.HasProposition(string(s)) {
			collisions = append(collisions, s)
		}
		if len(sys.Successors(s)) == 0 {
			deadEnds = append(deadEnds, s)
		}
	}
	if len(collisions) > 0 {
		return nil, &InvalidSystemError{Reason: ReasonCollision, States: collisions}
	}
	if len(deadEnds) > 0 {
		return nil, &InvalidSystemError{Reason: ReasonDeadEnd, States: deadEnds}
	}

	props := sys.Propositions()
	enc := encoder{sys: sys, states: states, props: props}

	frag := &spec.Fragment{
		EnvVars: []string{},
		SysVars: append(append([]string(nil), props...), stateNames(states)...),
	}

	initial := sys.Initial()
	if len(initial) == 0 {
		initial = states
	}
	frag.SysInit = append(frag.SysInit, enc.exactlyOne(initial))
	if len(props) > 0 {
		for _, s := range initial {
			frag.SysInit = append(frag.SysInit, ltl.Imp(ltl.V(string(s)), enc.binding(s)))
		}
	}

	for _, s := range states {
		succ := make([]ltl.Expr, 0)
		for _, t := range sys.Successors(s) {
			succ = append(succ, ltl.V(string(t)))
		}
		frag.SysSafety = append(frag.SysSafety, ltl.Imp(ltl.V(string(s)), ltl.X(ltl.Disj(succ...))))
	}
	frag.SysSafety = append(frag.SysSafety, ltl.X(enc.exactlyOne(states)))
	if len(props) > 0 {
		for _, s := range states {
			frag.SysSafety = append(frag.SysSafety, ltl.X(ltl.Imp(ltl.V(string(s)), enc.binding(s))))
		}
	}

	return frag, nil
}

type encoder struct {
	sys    *ts.System
	states []ts.State
	props  []string
}

// oneHot is s && !u for every other state u.
func (e encoder) oneHot(s ts.State) ltl.Expr {
	args := []ltl.Expr{ltl.V(string(s))}
	for _, u := range e.states {
		if u != s {
			args = append(args, ltl.Neg(ltl.V(string(u))))
		}
	}
	return ltl.Conj(args...)
}

// exactlyOne is the disjunction of oneHot over candidates.
func (e encoder) exactlyOne(candidates []ts.State) ltl.Expr {
	args := make([]ltl.Expr, 0, len(candidates))
	for _, s := range candidates {
		args = append(args, e.oneHot(s))
	}
	return ltl.Disj(args...)
}

// binding fixes every proposition to its value in the label of s.
func (e encoder) binding(s ts.State) ltl.Expr {
	holds := make(map[string]bool)
	for _, p := range e.sys.LabelOf(s) {
		holds[p] = true
	}
	args := make([]ltl.Expr, 0, len(e.props))
	for _, p := range e.props {
		if holds[p] {
			args = append(args, ltl.V(p))
		} else {
			args = append(args, ltl.Neg(ltl.V(p)))
		}
	}
	return ltl.Conj(args...)
}

func stateNames(states []ts.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
