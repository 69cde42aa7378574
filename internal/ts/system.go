// Package ts models finite labeled transition systems.
//
// A System is a directed graph of states labeled with atomic propositions.
// Insertion order of states, propositions and transitions is preserved and
// every enumeration follows it, so anything derived from a System (formulas,
// hashes, diagnostics) is deterministic.
//
// Mutators validate their arguments: no operation can leave a transition with
// a dangling endpoint or a label outside the vocabulary.
package ts

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownState is returned when an operation names a state that is not in the system.
	ErrUnknownState = errors.New("unknown state")

	// ErrUnknownProposition is returned when a label uses a name outside the vocabulary.
	ErrUnknownProposition = errors.New("unknown proposition")

	// ErrDuplicateState is returned when a state is added twice.
	ErrDuplicateState = errors.New("duplicate state")
)

// State identifies a state.
type State string

// Transition is a directed edge with an optional label.
// Parallel transitions between the same pair are allowed when labels differ;
// a System holds each (from, to, label) triple at most once.
type Transition struct {
	From  State  `json:"from" yaml:"from"`
	To    State  `json:"to" yaml:"to"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// System is a finite transition system.
type System struct {
	states      []State
	stateIndex  map[State]int
	props       []string
	propIndex   map[string]bool
	labels      map[State][]string // sorted by vocabulary order
	initial     map[State]bool
	transitions []Transition
	edges       map[Transition]bool
	out         map[State][]int // indexes into transitions, in insertion order
	in          map[State][]int
}

// New creates an empty system.
func New() *System {
	return &System{
		stateIndex: make(map[State]int),
		propIndex:  make(map[string]bool),
		labels:     make(map[State][]string),
		initial:    make(map[State]bool),
		edges:      make(map[Transition]bool),
		out:        make(map[State][]int),
		in:         make(map[State][]int),
	}
}

// AddPropositions extends the vocabulary. Re-adding a name is a no-op.
func (s *System) AddPropositions(names ...string) {
	for _, p := range names {
		if s.propIndex[p] {
			continue
		}
		s.propIndex[p] = true
		s.props = append(s.props, p)
	}
}

// AddState adds a state labeled with props. Every prop must be in the vocabulary.
func (s *System) AddState(st State, props ...string) error {
	if _, ok := s.stateIndex[st]; ok {
		return fmt.Errorf("add state %q: %w", st, ErrDuplicateState)
	}
	label, err := s.normalizeLabel(props)
	if err != nil {
		return fmt.Errorf("add state %q: %w", st, err)
	}
	s.stateIndex[st] = len(s.states)
	s.states = append(s.states, st)
	if len(label) > 0 {
		s.labels[st] = label
	}
	return nil
}

// SetLabel replaces the label of an existing state.
func (s *System) SetLabel(st State, props ...string) error {
	if !s.HasState(st) {
		return fmt.Errorf("set label of %q: %w", st, ErrUnknownState)
	}
	label, err := s.normalizeLabel(props)
	if err != nil {
		return fmt.Errorf("set label of %q: %w", st, err)
	}
	if len(label) == 0 {
		delete(s.labels, st)
		return nil
	}
	s.labels[st] = label
	return nil
}

// normalizeLabel checks props against the vocabulary and orders them by it.
func (s *System) normalizeLabel(props []string) ([]string, error) {
	set := make(map[string]bool, len(props))
	for _, p := range props {
		if !s.propIndex[p] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProposition, p)
		}
		set[p] = true
	}
	var label []string
	for _, p := range s.props {
		if set[p] {
			label = append(label, p)
		}
	}
	return label, nil
}

// SetInitial marks states as initial.
func (s *System) SetInitial(states ...State) error {
	for _, st := range states {
		if !s.HasState(st) {
			return fmt.Errorf("set initial %q: %w", st, ErrUnknownState)
		}
	}
	for _, st := range states {
		s.initial[st] = true
	}
	return nil
}

// AddTransition adds an edge between two existing states.
// Transitions form a set of (from, to, label) triples: adding a triple that
// is already present is a no-op and does not change enumeration order.
func (s *System) AddTransition(from, to State, label string) error {
	if !s.HasState(from) {
		return fmt.Errorf("add transition %s->%s: from %w %q", from, to, ErrUnknownState, from)
	}
	if !s.HasState(to) {
		return fmt.Errorf("add transition %s->%s: to %w %q", from, to, ErrUnknownState, to)
	}
	t := Transition{From: from, To: to, Label: label}
	if s.edges[t] {
		return nil
	}
	s.link(t)
	return nil
}

// link appends t and indexes it.
func (s *System) link(t Transition) {
	i := len(s.transitions)
	s.transitions = append(s.transitions, t)
	s.edges[t] = true
	s.out[t.From] = append(s.out[t.From], i)
	s.in[t.To] = append(s.in[t.To], i)
}

// HasState reports whether st belongs to the system.
func (s *System) HasState(st State) bool {
	_, ok := s.stateIndex[st]
	return ok
}

// HasProposition reports whether p is in the vocabulary.
func (s *System) HasProposition(p string) bool {
	return s.propIndex[p]
}

// Len returns the number of states.
func (s *System) Len() int {
	return len(s.states)
}

// States returns all states in insertion order.
func (s *System) States() []State {
	return slices.Clone(s.states)
}

// Propositions returns the vocabulary in insertion order.
func (s *System) Propositions() []string {
	return slices.Clone(s.props)
}

// Initial returns the initial states in state order.
func (s *System) Initial() []State {
	var out []State
	for _, st := range s.states {
		if s.initial[st] {
			out = append(out, st)
		}
	}
	return out
}

// IsInitial reports whether st is marked initial.
func (s *System) IsInitial(st State) bool {
	return s.initial[st]
}

// Transitions returns all transitions in insertion order.
func (s *System) Transitions() []Transition {
	return slices.Clone(s.transitions)
}

// Post returns the transitions leaving st.
func (s *System) Post(st State) []Transition {
	return s.pick(s.out[st])
}

// Pre returns the transitions entering st.
func (s *System) Pre(st State) []Transition {
	return s.pick(s.in[st])
}

func (s *System) pick(idx []int) []Transition {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Transition, len(idx))
	for i, j := range idx {
		out[i] = s.transitions[j]
	}
	return out
}

// Successors returns the distinct targets of transitions leaving st,
// in first-seen order.
func (s *System) Successors(st State) []State {
	idx := s.out[st]
	if len(idx) == 0 {
		return nil
	}
	out := make([]State, 0, len(idx))
	seen := make(map[State]bool, len(idx))
	for _, j := range idx {
		to := s.transitions[j].To
		if !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	return out
}

// LabelOf returns the propositions true at st, in vocabulary order.
// It is total: unlabeled and unknown states yield an empty label.
func (s *System) LabelOf(st State) []string {
	return slices.Clone(s.labels[st])
}

// HasLabel reports whether proposition p holds at st.
func (s *System) HasLabel(st State, p string) bool {
	return slices.Contains(s.labels[st], p)
}

// RemoveState deletes st together with its incident transitions,
// its label and its initial mark. Removing an unknown state is an error.
func (s *System) RemoveState(st State) error {
	return s.RemoveStates(st)
}

// RemoveStates deletes every listed state as RemoveState does, in a single
// sweep over the states and transitions. Nothing is removed when any listed
// state is unknown.
func (s *System) RemoveStates(states ...State) error {
	gone := make(map[State]bool, len(states))
	for _, st := range states {
		if !s.HasState(st) {
			return fmt.Errorf("remove state %q: %w", st, ErrUnknownState)
		}
		gone[st] = true
	}
	if len(gone) == 0 {
		return nil
	}

	kept := s.states[:0]
	for _, st := range s.states {
		if gone[st] {
			delete(s.stateIndex, st)
			delete(s.labels, st)
			delete(s.initial, st)
			continue
		}
		s.stateIndex[st] = len(kept)
		kept = append(kept, st)
	}
	s.states = kept

	old := s.transitions
	s.transitions = make([]Transition, 0, len(old))
	clear(s.edges)
	clear(s.out)
	clear(s.in)
	for _, t := range old {
		if !gone[t.From] && !gone[t.To] {
			s.link(t)
		}
	}
	return nil
}

// Clone returns an independent deep copy.
func (s *System) Clone() *System {
	c := New()
	c.states = slices.Clone(s.states)
	for k, v := range s.stateIndex {
		c.stateIndex[k] = v
	}
	c.props = slices.Clone(s.props)
	for k, v := range s.propIndex {
		c.propIndex[k] = v
	}
	for k, v := range s.labels {
		c.labels[k] = slices.Clone(v)
	}
	for k, v := range s.initial {
		c.initial[k] = v
	}
	c.transitions = slices.Clone(s.transitions)
	for k, v := range s.edges {
		c.edges[k] = v
	}
	for k, v := range s.out {
		c.out[k] = slices.Clone(v)
	}
	for k, v := range s.in {
		c.in[k] = slices.Clone(v)
	}
	return c
}

// Validate re-checks the structural invariants. Systems built only through
// the mutators always pass; this guards values assembled elsewhere.
func (s *System) Validate() error {
	var errs []error
	for _, t := range s.transitions {
		if !s.HasState(t.From) {
			errs = append(errs, fmt.Errorf("transition %s->%s: from %w", t.From, t.To, ErrUnknownState))
		}
		if !s.HasState(t.To) {
			errs = append(errs, fmt.Errorf("transition %s->%s: to %w", t.From, t.To, ErrUnknownState))
		}
	}
	for st, label := range s.labels {
		for _, p := range label {
			if !s.propIndex[p] {
				errs = append(errs, fmt.Errorf("label of %q: %w: %q", st, ErrUnknownProposition, p))
			}
		}
	}
	return errors.Join(errs...)
}

// String renders a compact multi-line description, used in verbose logs.
func (s *System) String() string {
	out := fmt.Sprintf("System: %d state(s), %d transition(s), props %v\n", len(s.states), len(s.transitions), s.props)
	for _, st := range s.states {
		mark := " "
		if s.initial[st] {
			mark = "*"
		}
		out += fmt.Sprintf(" %s %s %v -> %v\n", mark, st, s.labels[st], s.Successors(st))
	}
	return out
}
