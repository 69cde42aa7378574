package ltl

import (
	"errors"
	"fmt"
)

var (
	// ErrNestedNext is returned for next(next(...)), which GR(1) safety cannot express.
	ErrNestedNext = errors.New("nested next operator")

	// ErrNoNextState is returned when a formula with next is evaluated without a successor valuation.
	ErrNoNextState = errors.New("next operator without successor valuation")
)

// Valuation assigns truth values to variables. Absent variables are false.
type Valuation map[string]bool

// Eval evaluates e over a pair of consecutive valuations. Next subformulas
// are read from next; everything else from cur. Pass a nil next to evaluate
// a state formula.
func Eval(e Expr, cur, next Valuation) (bool, error) {
	return eval(e, cur, next, false)
}

func eval(e Expr, cur, next Valuation, primed bool) (bool, error) {
	switch n := e.(type) {
	case Var:
		if primed {
			return next[n.Name], nil
		}
		return cur[n.Name], nil
	case Const:
		return n.Value, nil
	case Not:
		v, err := eval(n.X, cur, next, primed)
		return !v, err
	case Next:
		if primed {
			return false, ErrNestedNext
		}
		if next == nil {
			return false, ErrNoNextState
		}
		return eval(n.X, cur, next, true)
	case And:
		for _, a := range n.Args {
			v, err := eval(a, cur, next, primed)
			if err != nil || !v {
				return false, err
			}
		}
		return true, nil
	case Or:
		for _, a := range n.Args {
			v, err := eval(a, cur, next, primed)
			if err != nil || v {
				return v, err
			}
		}
		return false, nil
	case Implies:
		l, err := eval(n.L, cur, next, primed)
		if err != nil || !l {
			return !l, err
		}
		return eval(n.R, cur, next, primed)
	case Iff:
		l, err := eval(n.L, cur, next, primed)
		if err != nil {
			return false, err
		}
		r, err := eval(n.R, cur, next, primed)
		if err != nil {
			return false, err
		}
		return l == r, nil
	}
	return false, fmt.Errorf("eval: unknown expression node %T", e)
}
