// Package satcheck answers satisfiability questions about specification
// fragments with a SAT solver.
//
// Synthesis engines report an unrealizable specification the same way
// whether the game is lost or the formulas contradict each other before
// any game is played. The checks here separate the second case: they look
// at initial conditions and single safety steps, where a contradiction is
// a plain propositional one.
//
// Formulas are translated to an and-inverter circuit (gini/logic), converted
// to CNF and solved with gini. Next-state variables get their own literals,
// so a safety formula becomes a constraint over one (current, next) pair.
package satcheck

import (
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/roach88/synthkit/internal/ltl"
)

// Encoder translates formulas into a shared circuit.
type Encoder struct {
	c     *logic.C
	cur   map[string]z.Lit
	next  map[string]z.Lit
	roots []z.Lit
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{
		c:    logic.NewC(),
		cur:  make(map[string]z.Lit),
		next: make(map[string]z.Lit),
	}
}

// Var returns the literal for name in the current or next step.
func (e *Encoder) Var(name string, next bool) z.Lit {
	m := e.cur
	if next {
		m = e.next
	}
	if lit, ok := m[name]; ok {
		return lit
	}
	lit := e.c.Lit()
	m[name] = lit
	return lit
}

// Require adds x as a constraint.
func (e *Encoder) Require(x ltl.Expr) error {
	lit, err := e.encode(x, false)
	if err != nil {
		return err
	}
	e.roots = append(e.roots, lit)
	return nil
}

func (e *Encoder) encode(x ltl.Expr, primed bool) (z.Lit, error) {
	switch n := x.(type) {
	case ltl.Var:
		return e.Var(n.Name, primed), nil
	case ltl.Const:
		if n.Value {
			return e.c.T, nil
		}
		return e.c.F, nil
	case ltl.Not:
		lit, err := e.encode(n.X, primed)
		return lit.Not(), err
	case ltl.Next:
		if primed {
			return z.LitNull, ltl.ErrNestedNext
		}
		return e.encode(n.X, true)
	case ltl.And:
		lits, err := e.encodeAll(n.Args, primed)
		if err != nil {
			return z.LitNull, err
		}
		if len(lits) == 0 {
			return e.c.T, nil
		}
		return e.c.Ands(lits...), nil
	case ltl.Or:
		lits, err := e.encodeAll(n.Args, primed)
		if err != nil {
			return z.LitNull, err
		}
		if len(lits) == 0 {
			return e.c.F, nil
		}
		return e.c.Ors(lits...), nil
	case ltl.Implies:
		l, r, err := e.encodePair(n.L, n.R, primed)
		if err != nil {
			return z.LitNull, err
		}
		return e.c.Or(l.Not(), r), nil
	case ltl.Iff:
		l, r, err := e.encodePair(n.L, n.R, primed)
		if err != nil {
			return z.LitNull, err
		}
		return e.c.And(e.c.Or(l.Not(), r), e.c.Or(r.Not(), l)), nil
	}
	return z.LitNull, fmt.Errorf("satcheck: unknown expression node %T", x)
}

func (e *Encoder) encodeAll(args []ltl.Expr, primed bool) ([]z.Lit, error) {
	lits := make([]z.Lit, 0, len(args))
	for _, a := range args {
		lit, err := e.encode(a, primed)
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
	}
	return lits, nil
}

func (e *Encoder) encodePair(l, r ltl.Expr, primed bool) (z.Lit, z.Lit, error) {
	ll, err := e.encode(l, primed)
	if err != nil {
		return z.LitNull, z.LitNull, err
	}
	rl, err := e.encode(r, primed)
	return ll, rl, err
}

// solver loads the circuit and the required roots into a fresh gini instance.
func (e *Encoder) solver() *gini.Gini {
	g := gini.New()
	e.c.ToCnf(g)
	for _, root := range e.roots {
		g.Add(root)
		g.Add(z.LitNull)
	}
	return g
}

// Solve reports whether the constraints are satisfiable and, if so, returns
// a witness over the current and next variables seen so far.
func (e *Encoder) Solve() (bool, ltl.Valuation, ltl.Valuation) {
	g := e.solver()
	if g.Solve() != 1 {
		return false, nil, nil
	}
	return true, e.model(g, e.cur), e.model(g, e.next)
}

func (e *Encoder) model(g *gini.Gini, vars map[string]z.Lit) ltl.Valuation {
	out := make(ltl.Valuation, len(vars))
	for name, lit := range vars {
		out[name] = g.Value(lit)
	}
	return out
}

// Models enumerates satisfying assignments projected onto project
// (current-step variables), stopping after limit models when limit > 0.
// Each projection is reported once.
func (e *Encoder) Models(project []string, limit int) []ltl.Valuation {
	lits := make([]z.Lit, len(project))
	for i, name := range project {
		lits[i] = e.Var(name, false)
	}

	g := e.solver()
	var out []ltl.Valuation
	for limit <= 0 || len(out) < limit {
		if g.Solve() != 1 {
			break
		}
		val := make(ltl.Valuation, len(project))
		for i, name := range project {
			val[name] = g.Value(lits[i])
		}
		out = append(out, val)
		if len(project) == 0 {
			break
		}

		// Block this projection
		for i, name := range project {
			if val[name] {
				g.Add(lits[i].Not())
			} else {
				g.Add(lits[i])
			}
		}
		g.Add(z.LitNull)
	}
	return out
}

// Satisfiable reports whether the conjunction of formulas is satisfiable.
func Satisfiable(formulas ...ltl.Expr) (bool, error) {
	enc := NewEncoder()
	for _, f := range formulas {
		if err := enc.Require(f); err != nil {
			return false, err
		}
	}
	ok, _, _ := enc.Solve()
	return ok, nil
}
