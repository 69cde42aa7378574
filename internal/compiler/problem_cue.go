package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileProblem parses a CUE value into a Problem.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the problem struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`problem: robot: { system: {...}, spec: {...} }`)
//	p, err := CompileProblem(v.LookupPath(cue.ParsePath("problem.robot")))
//
// States may be written as a list of {name, label} structs or as a struct
// keyed by state name; field order is preserved either way.
func CompileProblem(v cue.Value) (*Problem, error) {
	if err := v.Err(); err != nil {
		return nil, FormatCUEError(err)
	}

	p := &Problem{}

	// Problem name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		p.Name = labels[len(labels)-1].String()
	}

	var err error
	if p.Backend, err = optionalString(v, "backend"); err != nil {
		return nil, err
	}

	sysVal := v.LookupPath(cue.ParsePath("system"))
	if sysVal.Exists() {
		p.System, err = parseSystem(sysVal)
		if err != nil {
			return nil, err
		}
	}

	specVal := v.LookupPath(cue.ParsePath("spec"))
	if !specVal.Exists() {
		if p.System == nil {
			return nil, &CompileError{
				Field:   "spec",
				Message: "a problem needs a spec, a system, or both",
				Pos:     v.Pos(),
			}
		}
		return p, nil
	}

	fields := []struct {
		name string
		dst  *[]string
	}{
		{"env_vars", &p.Spec.EnvVars},
		{"sys_vars", &p.Spec.SysVars},
		{"env_init", &p.Spec.EnvInit},
		{"sys_init", &p.Spec.SysInit},
		{"env_safety", &p.Spec.EnvSafety},
		{"sys_safety", &p.Spec.SysSafety},
		{"env_progress", &p.Spec.EnvProgress},
		{"sys_progress", &p.Spec.SysProgress},
	}
	for _, f := range fields {
		if *f.dst, err = stringList(specVal, f.name); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// parseSystem parses the system block.
func parseSystem(v cue.Value) (*SystemDoc, error) {
	doc := &SystemDoc{}
	var err error

	if doc.Propositions, err = stringList(v, "propositions"); err != nil {
		return nil, err
	}
	if doc.Initial, err = stringList(v, "initial"); err != nil {
		return nil, err
	}

	statesVal := v.LookupPath(cue.ParsePath("states"))
	if !statesVal.Exists() {
		return nil, &CompileError{
			Field:   "states",
			Message: "system requires states",
			Pos:     v.Pos(),
		}
	}
	if doc.States, err = parseStates(statesVal); err != nil {
		return nil, err
	}

	transVal := v.LookupPath(cue.ParsePath("transitions"))
	if transVal.Exists() {
		iter, err := transVal.List()
		if err != nil {
			return nil, FormatCUEError(err)
		}
		for iter.Next() {
			t, err := parseTransition(iter.Value())
			if err != nil {
				return nil, err
			}
			doc.Transitions = append(doc.Transitions, t)
		}
	}

	return doc, nil
}

// parseStates accepts a list of {name, label} or a struct keyed by name.
func parseStates(v cue.Value) ([]StateDoc, error) {
	var states []StateDoc

	if v.IncompleteKind() == cue.StructKind {
		iter, err := v.Fields()
		if err != nil {
			return nil, FormatCUEError(err)
		}
		for iter.Next() {
			label, err := stringList(iter.Value(), "label")
			if err != nil {
				return nil, err
			}
			states = append(states, StateDoc{Name: iter.Label(), Label: label})
		}
		return states, nil
	}

	iter, err := v.List()
	if err != nil {
		return nil, FormatCUEError(err)
	}
	for iter.Next() {
		stateVal := iter.Value()
		name, err := requiredString(stateVal, "name")
		if err != nil {
			return nil, err
		}
		label, err := stringList(stateVal, "label")
		if err != nil {
			return nil, err
		}
		states = append(states, StateDoc{Name: name, Label: label})
	}
	return states, nil
}

func parseTransition(v cue.Value) (TransitionDoc, error) {
	var t TransitionDoc
	var err error
	if t.From, err = requiredString(v, "from"); err != nil {
		return t, err
	}
	if t.To, err = requiredString(v, "to"); err != nil {
		return t, err
	}
	if t.Label, err = optionalString(v, "label"); err != nil {
		return t, err
	}
	return t, nil
}

// requiredString reads a string field that must exist.
func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", FormatCUEError(err)
	}
	return s, nil
}

// optionalString reads a string field, returning "" when absent.
func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", FormatCUEError(err)
	}
	return s, nil
}

// stringList reads an optional list of strings.
func stringList(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, FormatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, FormatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FormatCUEError converts the first of a list of CUE errors into a
// CompileError carrying its position.
func FormatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
