package compiler

import (
	"fmt"

	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/ts"
)

// Problem is a synthesis problem as written in a problem file: an optional
// transition system and a GR(1) requirement whose formulas are text.
type Problem struct {
	Name    string     `json:"name,omitempty" yaml:"name,omitempty" validate:"omitempty,ident"`
	Backend string     `json:"backend,omitempty" yaml:"backend,omitempty" validate:"omitempty,ident"`
	System  *SystemDoc `json:"system,omitempty" yaml:"system,omitempty"`
	Spec    SpecDoc    `json:"spec" yaml:"spec"`
}

// SystemDoc is the authored form of a transition system.
type SystemDoc struct {
	Propositions []string        `json:"propositions,omitempty" yaml:"propositions,omitempty" validate:"dive,ident"`
	States       []StateDoc      `json:"states" yaml:"states" validate:"required,min=1,dive"`
	Initial      []string        `json:"initial,omitempty" yaml:"initial,omitempty" validate:"dive,required"`
	Transitions  []TransitionDoc `json:"transitions,omitempty" yaml:"transitions,omitempty" validate:"dive"`
}

// StateDoc is one state and its label.
type StateDoc struct {
	Name  string   `json:"name" yaml:"name" validate:"required,ident"`
	Label []string `json:"label,omitempty" yaml:"label,omitempty"`
}

// TransitionDoc is one transition.
type TransitionDoc struct {
	From  string `json:"from" yaml:"from" validate:"required"`
	To    string `json:"to" yaml:"to" validate:"required"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// SpecDoc is the authored form of a specification fragment.
type SpecDoc struct {
	EnvVars     []string `json:"env_vars,omitempty" yaml:"env_vars,omitempty" validate:"dive,ident"`
	SysVars     []string `json:"sys_vars,omitempty" yaml:"sys_vars,omitempty" validate:"dive,ident"`
	EnvInit     []string `json:"env_init,omitempty" yaml:"env_init,omitempty" validate:"dive,required"`
	SysInit     []string `json:"sys_init,omitempty" yaml:"sys_init,omitempty" validate:"dive,required"`
	EnvSafety   []string `json:"env_safety,omitempty" yaml:"env_safety,omitempty" validate:"dive,required"`
	SysSafety   []string `json:"sys_safety,omitempty" yaml:"sys_safety,omitempty" validate:"dive,required"`
	EnvProgress []string `json:"env_progress,omitempty" yaml:"env_progress,omitempty" validate:"dive,required"`
	SysProgress []string `json:"sys_progress,omitempty" yaml:"sys_progress,omitempty" validate:"dive,required"`
}

// formulas returns the text of the collection for s.
func (d *SpecDoc) formulas(s spec.Section) []string {
	switch s {
	case spec.EnvInit:
		return d.EnvInit
	case spec.SysInit:
		return d.SysInit
	case spec.EnvSafety:
		return d.EnvSafety
	case spec.SysSafety:
		return d.SysSafety
	case spec.EnvProgress:
		return d.EnvProgress
	case spec.SysProgress:
		return d.SysProgress
	}
	return nil
}

// Build converts a problem into a system (nil when the problem has none)
// and a requirement fragment. Run ValidateProblem first: Build stops at the
// first error instead of collecting them.
func Build(p *Problem) (*ts.System, *spec.Fragment, error) {
	var sys *ts.System
	if p.System != nil {
		var err error
		sys, err = BuildSystem(p.System)
		if err != nil {
			return nil, nil, err
		}
	}

	frag := &spec.Fragment{
		EnvVars: append([]string{}, p.Spec.EnvVars...),
		SysVars: append([]string{}, p.Spec.SysVars...),
	}
	sections := map[spec.Section]*[]ltl.Expr{
		spec.EnvInit:     &frag.EnvInit,
		spec.SysInit:     &frag.SysInit,
		spec.EnvSafety:   &frag.EnvSafety,
		spec.SysSafety:   &frag.SysSafety,
		spec.EnvProgress: &frag.EnvProgress,
		spec.SysProgress: &frag.SysProgress,
	}
	for _, s := range spec.Sections {
		for i, text := range p.Spec.formulas(s) {
			e, err := ltl.Parse(text)
			if err != nil {
				return nil, nil, fmt.Errorf("spec.%s[%d]: %w", s, i, err)
			}
			*sections[s] = append(*sections[s], e)
		}
	}
	return sys, frag, nil
}

// BuildSystem converts an authored system.
func BuildSystem(doc *SystemDoc) (*ts.System, error) {
	sys := ts.New()
	sys.AddPropositions(doc.Propositions...)
	for _, st := range doc.States {
		if err := sys.AddState(ts.State(st.Name), st.Label...); err != nil {
			return nil, err
		}
	}
	for _, name := range doc.Initial {
		if err := sys.SetInitial(ts.State(name)); err != nil {
			return nil, err
		}
	}
	for _, t := range doc.Transitions {
		if err := sys.AddTransition(ts.State(t.From), ts.State(t.To), t.Label); err != nil {
			return nil, err
		}
	}
	return sys, nil
}
