package ts

import "github.com/roach88/synthkit/internal/ir"

// Canonical returns the system as a canonical value, suitable for hashing.
// Order is preserved everywhere except the initial set, which is a set.
func (s *System) Canonical() ir.Object {
	states := make(ir.List, 0, len(s.states))
	for _, st := range s.states {
		states = append(states, ir.Obj(
			ir.O("name", ir.Str(st)),
			ir.O("label", ir.Strs(s.labels[st])),
			ir.O("initial", ir.Bool(s.initial[st])),
		))
	}
	transitions := make(ir.List, 0, len(s.transitions))
	for _, t := range s.transitions {
		transitions = append(transitions, ir.Obj(
			ir.O("from", ir.Str(t.From)),
			ir.O("to", ir.Str(t.To)),
			ir.O("label", ir.Str(t.Label)),
		))
	}
	return ir.Obj(
		ir.O("propositions", ir.Strs(s.props)),
		ir.O("states", states),
		ir.O("transitions", transitions),
	)
}

// Hash returns the content address of the system.
func (s *System) Hash() (string, error) {
	return ir.SystemHash(s.Canonical())
}
