package synth

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/synthkit/internal/ir"
	"github.com/roach88/synthkit/internal/ltl"
)

// Node is one state of a strategy machine.
type Node struct {
	ID      int           `json:"id"`
	Initial bool          `json:"initial,omitempty"`
	Rank    int           `json:"rank,omitempty"`
	Values  ltl.Valuation `json:"values"`     // Env and sys variables in this state
	Next    []int         `json:"successors"` // Node ids
}

// Strategy is a finite-state controller. Each node fixes the environment
// input that led to it and the system output chosen in response; the
// transition function picks the successor whose input matches the next
// environment move.
type Strategy struct {
	EnvVars []string `json:"env_vars"`
	SysVars []string `json:"sys_vars"`
	Nodes   []Node   `json:"nodes"`
}

// Node returns the node with the given id.
func (s *Strategy) Node(id int) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Initial returns the ids of the initial nodes in node order.
func (s *Strategy) Initial() []int {
	var out []int
	for _, n := range s.Nodes {
		if n.Initial {
			out = append(out, n.ID)
		}
	}
	return out
}

// Outputs returns the system part of a node's valuation.
func (s *Strategy) Outputs(id int) ltl.Valuation {
	n, ok := s.Node(id)
	if !ok {
		return nil
	}
	return project(n.Values, s.SysVars)
}

// Step returns the successor of id that answers the environment move input.
func (s *Strategy) Step(id int, input ltl.Valuation) (int, bool) {
	n, ok := s.Node(id)
	if !ok {
		return 0, false
	}
	want := project(input, s.EnvVars)
	for _, succ := range n.Next {
		m, ok := s.Node(succ)
		if ok && maps.Equal(project(m.Values, s.EnvVars), want) {
			return succ, true
		}
	}
	return 0, false
}

// Validate checks that every successor names an existing node.
func (s *Strategy) Validate() error {
	ids := make(map[int]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("duplicate strategy node %d", n.ID)
		}
		ids[n.ID] = true
	}
	for _, n := range s.Nodes {
		for _, succ := range n.Next {
			if !ids[succ] {
				return fmt.Errorf("strategy node %d has unknown successor %d", n.ID, succ)
			}
		}
	}
	return nil
}

// Trace is one step sequence of a counterexample.
type Trace []ltl.Valuation

// Result is a backend's verdict. A realizable result carries a strategy;
// an unrealizable one carries whatever counterexamples the engine produced.
type Result struct {
	Realizable      bool      `json:"realizable"`
	Strategy        *Strategy `json:"strategy,omitempty"`
	Counterexamples []Trace   `json:"counterexamples,omitempty"`
}

// Outcome maps the verdict onto the run log's outcome.
func (r *Result) Outcome() ir.Outcome {
	if r.Realizable {
		return ir.OutcomeRealizable
	}
	return ir.OutcomeUnrealizable
}

// Canonical returns the result as an IR object with deterministic content.
func (r *Result) Canonical() ir.Object {
	obj := ir.Obj(ir.O("realizable", ir.Bool(r.Realizable)))
	if r.Strategy != nil {
		nodes := make(ir.List, len(r.Strategy.Nodes))
		for i, n := range r.Strategy.Nodes {
			next := make(ir.List, len(n.Next))
			for j, succ := range n.Next {
				next[j] = ir.Int(succ)
			}
			nodes[i] = ir.Obj(
				ir.O("id", ir.Int(n.ID)),
				ir.O("initial", ir.Bool(n.Initial)),
				ir.O("rank", ir.Int(n.Rank)),
				ir.O("values", valuationObject(n.Values)),
				ir.O("successors", next),
			)
		}
		obj["strategy"] = ir.Obj(
			ir.O("env_vars", ir.Strs(r.Strategy.EnvVars)),
			ir.O("sys_vars", ir.Strs(r.Strategy.SysVars)),
			ir.O("nodes", nodes),
		)
	}
	if len(r.Counterexamples) > 0 {
		traces := make(ir.List, len(r.Counterexamples))
		for i, tr := range r.Counterexamples {
			steps := make(ir.List, len(tr))
			for j, v := range tr {
				steps[j] = valuationObject(v)
			}
			traces[i] = steps
		}
		obj["counterexamples"] = traces
	}
	return obj
}

func valuationObject(v ltl.Valuation) ir.Object {
	obj := make(ir.Object, len(v))
	for name, val := range v {
		obj[name] = ir.Bool(val)
	}
	return obj
}

// project restricts v to names; absent names read as false.
func project(v ltl.Valuation, names []string) ltl.Valuation {
	out := make(ltl.Valuation, len(names))
	for _, n := range names {
		out[n] = v[n]
	}
	return out
}

// sortedTrue lists the names set in v, sorted.
func sortedTrue(v ltl.Valuation) []string {
	var out []string
	for name, val := range v {
		if val {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
