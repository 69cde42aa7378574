package synth

import (
	"fmt"
	"strings"

	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
)

// Violation is one place where a strategy breaks a fragment's guarantees.
type Violation struct {
	Node      int    `json:"node"`
	Successor int    `json:"successor,omitempty"` // Set for transition violations
	Section   string `json:"section"`             // spec section, or "successors"
	Formula   string `json:"formula,omitempty"`
}

func (v Violation) String() string {
	switch {
	case v.Formula == "":
		return fmt.Sprintf("node %d: %s", v.Node, v.Section)
	case v.Section == string(spec.SysSafety):
		return fmt.Sprintf("node %d -> %d violates %s: %s", v.Node, v.Successor, v.Section, v.Formula)
	default:
		return fmt.Sprintf("node %d violates %s: %s", v.Node, v.Section, v.Formula)
	}
}

// VerifyStrategy checks a strategy against the safety part of f.
//
// Every node must have a successor. Initial nodes satisfying env_init must
// satisfy sys_init. Every edge whose endpoints satisfy env_safety must
// satisfy sys_safety. Progress goals are not checked. Variables missing from
// a node's valuation read as false.
func VerifyStrategy(s *Strategy, f *spec.Fragment) ([]Violation, error) {
	var out []Violation
	for _, n := range s.Nodes {
		if len(n.Next) == 0 {
			out = append(out, Violation{Node: n.ID, Section: "successors"})
		}

		if n.Initial {
			ok, _, err := holdsAll(f.EnvInit, n.Values, nil)
			if err != nil {
				return nil, err
			}
			if ok {
				_, failed, err := holdsAll(f.SysInit, n.Values, nil)
				if err != nil {
					return nil, err
				}
				for _, e := range failed {
					out = append(out, Violation{Node: n.ID, Section: string(spec.SysInit), Formula: ltl.String(e)})
				}
			}
		}

		for _, succ := range n.Next {
			m, ok := s.Node(succ)
			if !ok {
				return nil, fmt.Errorf("strategy node %d has unknown successor %d", n.ID, succ)
			}
			assumed, _, err := holdsAll(f.EnvSafety, n.Values, nonNil(m.Values))
			if err != nil {
				return nil, err
			}
			if !assumed {
				continue
			}
			_, failed, err := holdsAll(f.SysSafety, n.Values, nonNil(m.Values))
			if err != nil {
				return nil, err
			}
			for _, e := range failed {
				out = append(out, Violation{Node: n.ID, Successor: succ, Section: string(spec.SysSafety), Formula: ltl.String(e)})
			}
		}
	}
	return out, nil
}

// holdsAll evaluates every formula and returns those that fail.
func holdsAll(formulas []ltl.Expr, cur, next ltl.Valuation) (bool, []ltl.Expr, error) {
	var failed []ltl.Expr
	for _, e := range formulas {
		v, err := ltl.Eval(e, cur, next)
		if err != nil {
			return false, nil, err
		}
		if !v {
			failed = append(failed, e)
		}
	}
	return len(failed) == 0, failed, nil
}

func nonNil(v ltl.Valuation) ltl.Valuation {
	if v == nil {
		return ltl.Valuation{}
	}
	return v
}

// Describe renders a node's true variables for diagnostics, e.g. "{home, s0}".
func Describe(n Node) string {
	return "{" + strings.Join(sortedTrue(n.Values), ", ") + "}"
}
