package ltl

import (
	"fmt"
	"strings"
)

// Syntax selects a concrete formula notation.
type Syntax int

const (
	// Plain is the neutral notation: &&, ||, !, ->, <->, X(...).
	Plain Syntax = iota

	// GR1C is the gr1c input language: &, |, !, ->, <->, primed variables for next.
	GR1C

	// JTLV is the JTLV/SMV notation: &, |, !, ->, <->, next(x), TRUE/FALSE.
	JTLV
)

// String returns the syntax name.
func (s Syntax) String() string {
	switch s {
	case Plain:
		return "plain"
	case GR1C:
		return "gr1c"
	case JTLV:
		return "jtlv"
	}
	return fmt.Sprintf("Syntax(%d)", int(s))
}

type notation struct {
	and, or, not, implies, iff string
	tru, fls                   string
}

var notations = map[Syntax]notation{
	Plain: {and: " && ", or: " || ", not: "!", implies: " -> ", iff: " <-> ", tru: "True", fls: "False"},
	GR1C:  {and: " & ", or: " | ", not: "!", implies: " -> ", iff: " <-> ", tru: "True", fls: "False"},
	JTLV:  {and: " & ", or: " | ", not: "!", implies: " -> ", iff: " <-> ", tru: "TRUE", fls: "FALSE"},
}

// Binding strength, loosest first.
const (
	precIff = iota + 1
	precImplies
	precOr
	precAnd
	precUnary
	precAtom
)

// Printer renders formulas in one syntax.
type Printer struct {
	Syntax Syntax

	// Rename, when set, maps variable names before printing.
	// JTLV uses it to add the e./s. ownership prefixes.
	Rename func(name string) string
}

// Format renders e. GR1C and JTLV push next operators down to variables
// first, so a nested next is an error there; Plain prints next as written.
func (p Printer) Format(e Expr) (string, error) {
	nt, ok := notations[p.Syntax]
	if !ok {
		return "", fmt.Errorf("format: unknown syntax %v", p.Syntax)
	}
	if p.Syntax != Plain {
		pushed, err := PushNext(e)
		if err != nil {
			return "", fmt.Errorf("format %s: %w", p.Syntax, err)
		}
		e = pushed
	}
	var b strings.Builder
	if _, err := p.write(&b, nt, e); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Format renders e in syntax s.
func Format(e Expr, s Syntax) (string, error) {
	return Printer{Syntax: s}.Format(e)
}

// String renders e in the Plain syntax.
func String(e Expr) string {
	out, err := Format(e, Plain)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return out
}

func (p Printer) name(n string) string {
	if p.Rename != nil {
		return p.Rename(n)
	}
	return n
}

// write renders e into b and returns the binding strength of what it wrote.
func (p Printer) write(b *strings.Builder, nt notation, e Expr) (int, error) {
	switch n := e.(type) {
	case Var:
		b.WriteString(p.name(n.Name))
		return precAtom, nil
	case Const:
		if n.Value {
			b.WriteString(nt.tru)
		} else {
			b.WriteString(nt.fls)
		}
		return precAtom, nil
	case Next:
		return precAtom, p.writeNext(b, nt, n)
	case Not:
		b.WriteString(nt.not)
		return precUnary, p.child(b, nt, n.X, precUnary)
	case And:
		return p.writeJunction(b, nt, n.Args, nt.and, nt.tru, precAnd)
	case Or:
		return p.writeJunction(b, nt, n.Args, nt.or, nt.fls, precOr)
	case Implies:
		if err := p.child(b, nt, n.L, precImplies+1); err != nil {
			return 0, err
		}
		b.WriteString(nt.implies)
		// Backend syntaxes always parenthesize a nested right operand.
		right := precImplies
		if p.Syntax != Plain {
			right = precImplies + 1
		}
		return precImplies, p.child(b, nt, n.R, right)
	case Iff:
		if err := p.child(b, nt, n.L, precIff+1); err != nil {
			return 0, err
		}
		b.WriteString(nt.iff)
		return precIff, p.child(b, nt, n.R, precIff+1)
	}
	return 0, fmt.Errorf("format: unknown expression node %T", e)
}

func (p Printer) writeNext(b *strings.Builder, nt notation, n Next) error {
	if p.Syntax == Plain {
		b.WriteString("X(")
		_, err := p.write(b, nt, n.X)
		b.WriteString(")")
		return err
	}
	v, ok := n.X.(Var)
	if !ok {
		return fmt.Errorf("format %s: next over %T after push-down", p.Syntax, n.X)
	}
	if p.Syntax == GR1C {
		b.WriteString(p.name(v.Name) + "'")
		return nil
	}
	b.WriteString("next(" + p.name(v.Name) + ")")
	return nil
}

func (p Printer) writeJunction(b *strings.Builder, nt notation, args []Expr, sep, empty string, prec int) (int, error) {
	switch len(args) {
	case 0:
		b.WriteString(empty)
		return precAtom, nil
	case 1:
		return p.write(b, nt, args[0])
	}
	for i, a := range args {
		if i > 0 {
			b.WriteString(sep)
		}
		if err := p.child(b, nt, a, prec+1); err != nil {
			return 0, err
		}
	}
	return prec, nil
}

// child renders e, parenthesized when it binds looser than bound.
func (p Printer) child(b *strings.Builder, nt notation, e Expr, bound int) error {
	var inner strings.Builder
	prec, err := p.write(&inner, nt, e)
	if err != nil {
		return err
	}
	if prec < bound {
		b.WriteString("(" + inner.String() + ")")
		return nil
	}
	b.WriteString(inner.String())
	return nil
}

// PushNext distributes next operators down to variables:
// X(a && !b) becomes X(a) && !X(b). Constants absorb next.
func PushNext(e Expr) (Expr, error) {
	return pushNext(e, false)
}

func pushNext(e Expr, under bool) (Expr, error) {
	switch n := e.(type) {
	case Var:
		if under {
			return Next{X: n}, nil
		}
		return n, nil
	case Const:
		return n, nil
	case Not:
		x, err := pushNext(n.X, under)
		return Not{X: x}, err
	case Next:
		if under {
			return nil, ErrNestedNext
		}
		return pushNext(n.X, true)
	case And:
		args, err := pushNextAll(n.Args, under)
		return And{Args: args}, err
	case Or:
		args, err := pushNextAll(n.Args, under)
		return Or{Args: args}, err
	case Implies:
		l, err := pushNext(n.L, under)
		if err != nil {
			return nil, err
		}
		r, err := pushNext(n.R, under)
		return Implies{L: l, R: r}, err
	case Iff:
		l, err := pushNext(n.L, under)
		if err != nil {
			return nil, err
		}
		r, err := pushNext(n.R, under)
		return Iff{L: l, R: r}, err
	}
	return nil, fmt.Errorf("push next: unknown expression node %T", e)
}

func pushNextAll(args []Expr, under bool) ([]Expr, error) {
	out := make([]Expr, len(args))
	for i, a := range args {
		x, err := pushNext(a, under)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}
