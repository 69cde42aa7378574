package satcheck

import (
	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
)

// Report summarizes the propositional checks on a fragment.
type Report struct {
	// InitSatisfiable is false when env_init and sys_init contradict.
	InitSatisfiable bool `json:"init_satisfiable"`
	// AssumptionsSatisfiable is false when the environment cannot take a
	// single step from any initial state it admits.
	AssumptionsSatisfiable bool `json:"assumptions_satisfiable"`
	// StepSatisfiable is false when no initial state has a successor that
	// both safety sections allow.
	StepSatisfiable bool `json:"step_satisfiable"`
	// Witness is an initial valuation when InitSatisfiable holds.
	Witness ltl.Valuation `json:"witness,omitempty"`
}

// Consistent reports whether every check passed.
func (r *Report) Consistent() bool {
	return r.InitSatisfiable && r.AssumptionsSatisfiable && r.StepSatisfiable
}

// Check runs the propositional checks on f.
func Check(f *spec.Fragment) (*Report, error) {
	r := &Report{}

	init, err := encoderFor(f.EnvInit, f.SysInit)
	if err != nil {
		return nil, err
	}
	var cur ltl.Valuation
	r.InitSatisfiable, cur, _ = init.Solve()
	if r.InitSatisfiable {
		r.Witness = restrict(cur, f.EnvVars, f.SysVars)
	}

	assume, err := encoderFor(f.EnvInit, f.EnvSafety)
	if err != nil {
		return nil, err
	}
	r.AssumptionsSatisfiable, _, _ = assume.Solve()

	step, err := encoderFor(f.EnvInit, f.SysInit, f.EnvSafety, f.SysSafety)
	if err != nil {
		return nil, err
	}
	r.StepSatisfiable, _, _ = step.Solve()

	return r, nil
}

// InitialStates returns the states that sys_init admits, in the order of
// states. Each name is a one-hot state variable of a compiled system.
func InitialStates(f *spec.Fragment, states []string) ([]string, error) {
	enc, err := encoderFor(f.SysInit)
	if err != nil {
		return nil, err
	}
	var admitted []string
	for _, m := range enc.Models(states, 0) {
		for _, s := range states {
			if m[s] {
				admitted = append(admitted, s)
			}
		}
	}
	return orderLike(admitted, states), nil
}

func encoderFor(sections ...[]ltl.Expr) (*Encoder, error) {
	enc := NewEncoder()
	for _, sec := range sections {
		for _, e := range sec {
			if err := enc.Require(e); err != nil {
				return nil, err
			}
		}
	}
	return enc, nil
}

// restrict keeps only declared variables, defaulting missing ones to false.
func restrict(val ltl.Valuation, groups ...[]string) ltl.Valuation {
	out := make(ltl.Valuation)
	for _, g := range groups {
		for _, name := range g {
			out[name] = val[name]
		}
	}
	return out
}

// orderLike returns the distinct members of names sorted by their index in order.
func orderLike(names, order []string) []string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	var out []string
	for _, n := range order {
		if seen[n] {
			out = append(out, n)
		}
	}
	return out
}
