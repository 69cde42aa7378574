// Package spec defines GR(1) specification fragments and their combination.
//
// A Fragment partitions its variables between the environment and the
// system and carries six formula collections. Fragments are values: nothing
// in this module mutates a Fragment after it is built, and Combine returns
// a fresh one.
package spec

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/synthkit/internal/ir"
	"github.com/roach88/synthkit/internal/ltl"
)

// Fragment is a GR(1) specification fragment.
type Fragment struct {
	EnvVars []string
	SysVars []string

	EnvInit   []ltl.Expr
	SysInit   []ltl.Expr
	EnvSafety []ltl.Expr
	SysSafety []ltl.Expr

	EnvProgress []ltl.Expr
	SysProgress []ltl.Expr
}

// Section names one formula collection.
type Section string

const (
	EnvInit     Section = "env_init"
	SysInit     Section = "sys_init"
	EnvSafety   Section = "env_safety"
	SysSafety   Section = "sys_safety"
	EnvProgress Section = "env_progress"
	SysProgress Section = "sys_progress"
)

// Sections lists the formula collections in rendering order.
var Sections = []Section{EnvInit, SysInit, EnvSafety, SysSafety, EnvProgress, SysProgress}

// Formulas returns the collection for s.
func (f *Fragment) Formulas(s Section) []ltl.Expr {
	switch s {
	case EnvInit:
		return f.EnvInit
	case SysInit:
		return f.SysInit
	case EnvSafety:
		return f.EnvSafety
	case SysSafety:
		return f.SysSafety
	case EnvProgress:
		return f.EnvProgress
	case SysProgress:
		return f.SysProgress
	}
	return nil
}

// section returns a pointer to the collection for s, for building fragments.
func (f *Fragment) section(s Section) *[]ltl.Expr {
	switch s {
	case EnvInit:
		return &f.EnvInit
	case SysInit:
		return &f.SysInit
	case EnvSafety:
		return &f.EnvSafety
	case SysSafety:
		return &f.SysSafety
	case EnvProgress:
		return &f.EnvProgress
	case SysProgress:
		return &f.SysProgress
	}
	return nil
}

// Clone returns a copy that shares no slices with f.
// Expression trees are immutable and are shared.
func (f *Fragment) Clone() *Fragment {
	c := &Fragment{
		EnvVars: slices.Clone(f.EnvVars),
		SysVars: slices.Clone(f.SysVars),
	}
	for _, s := range Sections {
		*c.section(s) = slices.Clone(f.Formulas(s))
	}
	return c
}

// Len returns the total number of formulas.
func (f *Fragment) Len() int {
	n := 0
	for _, s := range Sections {
		n += len(f.Formulas(s))
	}
	return n
}

var (
	// ErrDuplicateVariable is returned when a name is declared twice in one fragment.
	ErrDuplicateVariable = errors.New("duplicate variable")

	// ErrUndeclaredVariable is returned when a formula references an undeclared variable.
	ErrUndeclaredVariable = errors.New("undeclared variable")

	// ErrTemporalOperator is returned when next appears where GR(1) forbids it.
	ErrTemporalOperator = errors.New("next operator not allowed")
)

// Validate checks that variables are declared once, that formulas only
// reference declared variables, and that next appears only in safety
// formulas. All problems are reported together.
func (f *Fragment) Validate() error {
	var errs []error
	declared := make(map[string]string)
	for _, group := range []struct {
		owner string
		vars  []string
	}{{"env", f.EnvVars}, {"sys", f.SysVars}} {
		for _, v := range group.vars {
			if prev, ok := declared[v]; ok {
				errs = append(errs, fmt.Errorf("%w: %q declared as %s and %s", ErrDuplicateVariable, v, prev, group.owner))
				continue
			}
			declared[v] = group.owner
		}
	}
	for _, s := range Sections {
		for i, e := range f.Formulas(s) {
			for _, v := range ltl.Vars(e) {
				if _, ok := declared[v]; !ok {
					errs = append(errs, fmt.Errorf("%s[%d]: %w %q", s, i, ErrUndeclaredVariable, v))
				}
			}
			if s != EnvSafety && s != SysSafety && ltl.HasNext(e) {
				errs = append(errs, fmt.Errorf("%s[%d]: %w", s, i, ErrTemporalOperator))
			}
		}
	}
	return errors.Join(errs...)
}

// Canonical returns the fragment as a canonical value, suitable for hashing.
func (f *Fragment) Canonical() ir.Object {
	obj := ir.Obj(
		ir.O("env_vars", ir.Strs(f.EnvVars)),
		ir.O("sys_vars", ir.Strs(f.SysVars)),
	)
	for _, s := range Sections {
		list := make(ir.List, 0, len(f.Formulas(s)))
		for _, e := range f.Formulas(s) {
			list = append(list, ltl.Canonical(e))
		}
		obj[string(s)] = list
	}
	return obj
}

// Hash returns the content address of the fragment.
func (f *Fragment) Hash() (string, error) {
	return ir.FragmentHash(f.Canonical())
}
