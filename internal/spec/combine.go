package spec

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/synthkit/internal/ltl"
)

// ErrSpecConflict is the sentinel matched by every *ConflictError.
var ErrSpecConflict = errors.New("spec conflict")

// ConflictError reports variables owned by the environment in one fragment
// and by the system in the other.
type ConflictError struct {
	Variables []string // Sorted
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("spec conflict: variables declared as both env and sys: %s", strings.Join(e.Variables, ", "))
}

// Is reports whether target is ErrSpecConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrSpecConflict
}

// Combine merges two fragments. Variable lists are unioned with a's order
// first. Each formula collection becomes the union of both inputs with
// structurally identical formulas collapsed, so Combine(a, a) equals a with
// its duplicates removed. Neither input is modified.
func Combine(a, b *Fragment) (*Fragment, error) {
	if conflicts := ownershipConflicts(a, b); len(conflicts) > 0 {
		return nil, &ConflictError{Variables: conflicts}
	}

	out := &Fragment{
		EnvVars: unionNames(a.EnvVars, b.EnvVars),
		SysVars: unionNames(a.SysVars, b.SysVars),
	}
	for _, s := range Sections {
		*out.section(s) = unionFormulas(a.Formulas(s), b.Formulas(s))
	}
	return out, nil
}

// ownershipConflicts returns the sorted names owned differently by a and b.
func ownershipConflicts(a, b *Fragment) []string {
	seen := make(map[string]bool)
	var out []string
	check := func(env, sys []string) {
		for _, v := range env {
			if slices.Contains(sys, v) && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	check(a.EnvVars, b.SysVars)
	check(b.EnvVars, a.SysVars)
	slices.Sort(out)
	return out
}

func unionNames(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string(nil), a...), b...) {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func unionFormulas(a, b []ltl.Expr) []ltl.Expr {
	out := make([]ltl.Expr, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, e := range append(append([]ltl.Expr(nil), a...), b...) {
		k := ltl.Key(e)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}
