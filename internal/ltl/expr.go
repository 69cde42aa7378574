// Package ltl defines the formula trees used in GR(1) specification fragments.
//
// Formulas are built as typed trees rather than text. Rendering to a concrete
// syntax happens only at output boundaries, through a Printer.
//
// The core connectives are AND, OR, NOT and NEXT over named boolean variables.
// Implies, Iff and Const are kept as nodes of their own so rendered output
// stays close to what an author would write.
package ltl

import (
	"github.com/roach88/synthkit/internal/ir"
)

// Expr is a sealed interface over formula nodes.
type Expr interface {
	exprNode()
}

// Var references a boolean variable by name.
type Var struct {
	Name string
}

// Const is a boolean literal.
type Const struct {
	Value bool
}

// Not negates its operand.
type Not struct {
	X Expr
}

// And is the conjunction of its operands. An empty And is true.
type And struct {
	Args []Expr
}

// Or is the disjunction of its operands. An empty Or is false.
type Or struct {
	Args []Expr
}

// Implies is material implication.
type Implies struct {
	L, R Expr
}

// Iff is logical equivalence.
type Iff struct {
	L, R Expr
}

// Next evaluates its operand one step ahead.
type Next struct {
	X Expr
}

func (Var) exprNode()     {}
func (Const) exprNode()   {}
func (Not) exprNode()     {}
func (And) exprNode()     {}
func (Or) exprNode()      {}
func (Implies) exprNode() {}
func (Iff) exprNode()     {}
func (Next) exprNode()    {}

// Literals.
var (
	True  Expr = Const{Value: true}
	False Expr = Const{Value: false}
)

// V returns a variable reference.
func V(name string) Expr { return Var{Name: name} }

// Neg returns the negation of x.
func Neg(x Expr) Expr { return Not{X: x} }

// Conj returns the conjunction of args.
func Conj(args ...Expr) Expr { return And{Args: args} }

// Disj returns the disjunction of args.
func Disj(args ...Expr) Expr { return Or{Args: args} }

// Imp returns l -> r.
func Imp(l, r Expr) Expr { return Implies{L: l, R: r} }

// Equiv returns l <-> r.
func Equiv(l, r Expr) Expr { return Iff{L: l, R: r} }

// X returns next(x).
func X(x Expr) Expr { return Next{X: x} }

// Vars returns the variables referenced by e in first-occurrence order.
func Vars(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	walk(e, func(n Expr) {
		if v, ok := n.(Var); ok && !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v.Name)
		}
	})
	return out
}

// HasNext reports whether e contains a Next node.
func HasNext(e Expr) bool {
	found := false
	walk(e, func(n Expr) {
		if _, ok := n.(Next); ok {
			found = true
		}
	})
	return found
}

// walk visits e and its descendants in pre-order.
func walk(e Expr, visit func(Expr)) {
	visit(e)
	switch n := e.(type) {
	case Not:
		walk(n.X, visit)
	case Next:
		walk(n.X, visit)
	case And:
		for _, a := range n.Args {
			walk(a, visit)
		}
	case Or:
		for _, a := range n.Args {
			walk(a, visit)
		}
	case Implies:
		walk(n.L, visit)
		walk(n.R, visit)
	case Iff:
		walk(n.L, visit)
		walk(n.R, visit)
	}
}

// Canonical converts e to a canonical value. Structurally identical trees
// produce identical values, which is what formula identity is built on.
func Canonical(e Expr) ir.Value {
	switch n := e.(type) {
	case Var:
		return ir.Obj(ir.O("op", ir.Str("var")), ir.O("name", ir.Str(n.Name)))
	case Const:
		return ir.Obj(ir.O("op", ir.Str("const")), ir.O("value", ir.Bool(n.Value)))
	case Not:
		return ir.Obj(ir.O("op", ir.Str("not")), ir.O("arg", Canonical(n.X)))
	case Next:
		return ir.Obj(ir.O("op", ir.Str("next")), ir.O("arg", Canonical(n.X)))
	case And:
		return ir.Obj(ir.O("op", ir.Str("and")), ir.O("args", canonicalList(n.Args)))
	case Or:
		return ir.Obj(ir.O("op", ir.Str("or")), ir.O("args", canonicalList(n.Args)))
	case Implies:
		return ir.Obj(ir.O("op", ir.Str("implies")), ir.O("left", Canonical(n.L)), ir.O("right", Canonical(n.R)))
	case Iff:
		return ir.Obj(ir.O("op", ir.Str("iff")), ir.O("left", Canonical(n.L)), ir.O("right", Canonical(n.R)))
	}
	panic("ltl: unknown expression node")
}

func canonicalList(args []Expr) ir.List {
	out := make(ir.List, len(args))
	for i, a := range args {
		out[i] = Canonical(a)
	}
	return out
}

// Key returns the content address of e.
func Key(e Expr) string {
	return ir.MustFormulaKey(Canonical(e))
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Expr) bool {
	return Key(a) == Key(b)
}
