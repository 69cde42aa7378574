package ltl

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseError reports a malformed formula.
type ParseError struct {
	Input  string
	Offset int // Byte offset of the offending token
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: offset %d: %s", e.Input, e.Offset, e.Msg)
}

// Parse reads a formula written in the Plain syntax. It also accepts the
// spellings found in hand-written GR(1) specifications:
//
//	&& &        conjunction
//	|| |        disjunction
//	! ~         negation
//	-> <-> ==   implication, equivalence
//	X(f) next(f) f'   next
//	True False TRUE FALSE true false
//
// Precedence from loosest: equivalence, implication (right associative),
// disjunction, conjunction, unary operators, postfix prime.
func Parse(input string) (Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks}
	e, err := p.parseIff()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return e, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokLParen
	tokRParen
	tokNot
	tokAnd
	tokOr
	tokImplies
	tokIff
	tokPrime
)

type token struct {
	kind tokKind
	text string
	pos  int
}

// operators is ordered longest spelling first.
var operators = []struct {
	text string
	kind tokKind
}{
	{"<->", tokIff},
	{"&&", tokAnd},
	{"||", tokOr},
	{"->", tokImplies},
	{"==", tokIff},
	{"&", tokAnd},
	{"|", tokOr},
	{"!", tokNot},
	{"~", tokNot},
	{"(", tokLParen},
	{")", tokRParen},
	{"'", tokPrime},
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		r := rune(input[i])
		if unicode.IsSpace(r) {
			i++
			continue
		}
		if isIdentStart(r) {
			j := i + 1
			for j < len(input) && isIdentPart(rune(input[j])) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: input[i:j], pos: i})
			i = j
			continue
		}
		matched := false
		for _, op := range operators {
			if strings.HasPrefix(input[i:], op.text) {
				toks = append(toks, token{kind: op.kind, text: op.text, pos: i})
				i += len(op.text)
				matched = true
				break
			}
		}
		if !matched {
			return nil, &ParseError{Input: input, Offset: i, Msg: fmt.Sprintf("unexpected character %q", input[i])}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(input)}), nil
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || r == '.'
}

type parser struct {
	input string
	toks  []token
	pos   int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Input: p.input, Offset: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokKind, what string) error {
	t := p.next()
	if t.kind != kind {
		if t.kind == tokEOF {
			return p.errorf(t, "expected %s, found end of input", what)
		}
		return p.errorf(t, "expected %s, found %q", what, t.text)
	}
	return nil
}

func (p *parser) parseIff() (Expr, error) {
	left, err := p.parseImplies()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIff {
		p.next()
		right, err := p.parseImplies()
		if err != nil {
			return nil, err
		}
		left = Iff{L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseImplies() (Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokImplies {
		return left, nil
	}
	p.next()
	right, err := p.parseImplies()
	if err != nil {
		return nil, err
	}
	return Implies{L: left, R: right}, nil
}

func (p *parser) parseOr() (Expr, error) {
	args, err := p.parseSeq(tokOr, p.parseAnd)
	if err != nil || len(args) == 1 {
		return first(args), err
	}
	return Or{Args: args}, nil
}

func (p *parser) parseAnd() (Expr, error) {
	args, err := p.parseSeq(tokAnd, p.parseUnary)
	if err != nil || len(args) == 1 {
		return first(args), err
	}
	return And{Args: args}, nil
}

// parseSeq reads operands separated by sep.
func (p *parser) parseSeq(sep tokKind, operand func() (Expr, error)) ([]Expr, error) {
	e, err := operand()
	if err != nil {
		return nil, err
	}
	args := []Expr{e}
	for p.peek().kind == sep {
		p.next()
		e, err := operand()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	return args, nil
}

func first(args []Expr) Expr {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.peek()
	if t.kind == tokNot {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}
	if t.kind == tokIdent && (t.text == "X" || t.text == "next") && p.toks[p.pos+1].kind == tokLParen {
		p.next()
		p.next()
		x, err := p.parseIff()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return p.parsePrimes(Next{X: x})
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	var e Expr
	switch t.kind {
	case tokIdent:
		switch t.text {
		case "True", "TRUE", "true":
			e = True
		case "False", "FALSE", "false":
			e = False
		default:
			e = Var{Name: t.text}
		}
	case tokLParen:
		inner, err := p.parseIff()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		e = inner
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of input")
	default:
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return p.parsePrimes(e)
}

// parsePrimes wraps e in Next once per trailing prime.
func (p *parser) parsePrimes(e Expr) (Expr, error) {
	for p.peek().kind == tokPrime {
		p.next()
		e = Next{X: e}
	}
	return e, nil
}
