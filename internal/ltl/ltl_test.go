package ltl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_Precedence tests operator binding strength and associativity.
func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Expr
	}{
		{"and binds tighter than or", "a || b && c", Disj(V("a"), Conj(V("b"), V("c")))},
		{"flattened conjunction", "a && b && c", Conj(V("a"), V("b"), V("c"))},
		{"implication is right associative", "a -> b -> c", Imp(V("a"), Imp(V("b"), V("c")))},
		{"equivalence is loosest", "a -> b <-> c", Equiv(Imp(V("a"), V("b")), V("c"))},
		{"double equals is equivalence", "next(x) == lot || (x && !park)",
			Equiv(X(V("x")), Disj(V("lot"), Conj(V("x"), Neg(V("park")))))},
		{"single character operators", "a & b | ~c", Disj(Conj(V("a"), V("b")), Neg(V("c")))},
		{"prime is next", "x' -> !y'", Imp(X(V("x")), Neg(X(V("y"))))},
		{"X call", "X(a && b)", X(Conj(V("a"), V("b")))},
		{"X as a variable", "X && Xa", Conj(V("X"), V("Xa"))},
		{"constants", "True || FALSE", Disj(True, False)},
		{"parenthesized prime", "(a)'", X(V("a"))},
		{"dotted names", "e.req -> s.grant", Imp(V("e.req"), V("s.grant"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParse_Errors tests that malformed input reports the offending offset.
func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input  string
		offset int
	}{
		{"a &&", 4},
		{"(a || b", 7},
		{"a b", 2},
		{"a $ b", 2},
		{"X(a", 3},
		{")", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.offset, pe.Offset)
		})
	}
}

// TestFormat_Syntaxes tests each notation on the same formulas.
func TestFormat_Syntaxes(t *testing.T) {
	tests := []struct {
		input string
		plain string
		gr1c  string
		jtlv  string
	}{
		{
			input: "s0 -> X(s1 || s2)",
			plain: "s0 -> X(s1 || s2)",
			gr1c:  "s0 -> s1' | s2'",
			jtlv:  "s0 -> next(s1) | next(s2)",
		},
		{
			input: "X(home -> (p && !q))",
			plain: "X(home -> p && !q)",
			gr1c:  "home' -> p' & !q'",
			jtlv:  "next(home) -> next(p) & !next(q)",
		},
		{
			input: "(a || b) && !(c && d)",
			plain: "(a || b) && !(c && d)",
			gr1c:  "(a | b) & !(c & d)",
			jtlv:  "(a | b) & !(c & d)",
		},
		{
			input: "(a <-> b) <-> True",
			plain: "(a <-> b) <-> True",
			gr1c:  "(a <-> b) <-> True",
			jtlv:  "(a <-> b) <-> TRUE",
		},
		{
			input: "(a -> b) -> c",
			plain: "(a -> b) -> c",
			gr1c:  "(a -> b) -> c",
			jtlv:  "(a -> b) -> c",
		},
		{
			input: "a -> b -> c",
			plain: "a -> b -> c",
			gr1c:  "a -> (b -> c)",
			jtlv:  "a -> (b -> c)",
		},
		{
			input: "s0 -> X(s1 -> !p)",
			plain: "s0 -> X(s1 -> !p)",
			gr1c:  "s0 -> (s1' -> !p')",
			jtlv:  "s0 -> (next(s1) -> !next(p))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e := MustParse(tt.input)
			for syntax, want := range map[Syntax]string{Plain: tt.plain, GR1C: tt.gr1c, JTLV: tt.jtlv} {
				got, err := Format(e, syntax)
				require.NoError(t, err, syntax.String())
				assert.Equal(t, want, got, syntax.String())
			}
		})
	}
}

// TestFormat_RoundTrip tests that Plain output parses back to the same tree.
func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		"a && (b && c)",
		"!(a || b) -> X(c && !d)",
		"(home && !lot) || (!home && lot)",
		"a -> b -> c",
		"X(s0 && !s1 && !s2) || X(s1 && !s0 && !s2)",
		"!!a",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			e := MustParse(in)
			again, err := Parse(String(e))
			require.NoError(t, err)
			assert.True(t, Equal(e, again), "round trip changed %q into %q", in, String(again))
		})
	}
}

// TestFormat_EmptyJunctions tests the identity elements of and/or.
func TestFormat_EmptyJunctions(t *testing.T) {
	assert.Equal(t, "True", String(Conj()))
	assert.Equal(t, "False", String(Disj()))
	assert.Equal(t, "a", String(Conj(V("a"))))

	got, err := Format(Imp(V("s"), X(Disj())), GR1C)
	require.NoError(t, err)
	assert.Equal(t, "s -> False", got)
}

// TestFormat_NestedNext tests that backend syntaxes reject nested next.
func TestFormat_NestedNext(t *testing.T) {
	e := X(Conj(V("a"), X(V("b"))))

	_, err := Format(e, GR1C)
	assert.ErrorIs(t, err, ErrNestedNext)

	_, err = Format(e, JTLV)
	assert.ErrorIs(t, err, ErrNestedNext)

	assert.Equal(t, "X(a && X(b))", String(e))
}

// TestFormat_Rename tests ownership prefixes through Rename.
func TestFormat_Rename(t *testing.T) {
	p := Printer{Syntax: JTLV, Rename: func(n string) string { return "s." + n }}
	got, err := p.Format(MustParse("home -> X(!lot)"))
	require.NoError(t, err)
	assert.Equal(t, "s.home -> !next(s.lot)", got)
}

// TestEval tests evaluation over consecutive valuations.
func TestEval(t *testing.T) {
	cur := Valuation{"s0": true, "p": false}
	next := Valuation{"s1": true, "p": true}

	tests := []struct {
		input string
		want  bool
	}{
		{"s0 -> X(s1)", true},
		{"s0 -> X(s0)", false},
		{"X(s1 -> p)", true},
		{"p <-> X(p)", false},
		{"missing || s0", true},
		{"!missing && True", true},
		{"s0 -> X(s1 && !s0)", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Eval(MustParse(tt.input), cur, next)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEval_Errors tests next without a successor and nested next.
func TestEval_Errors(t *testing.T) {
	_, err := Eval(MustParse("X(a)"), Valuation{}, nil)
	assert.ErrorIs(t, err, ErrNoNextState)

	_, err = Eval(X(X(V("a"))), Valuation{}, Valuation{})
	assert.ErrorIs(t, err, ErrNestedNext)
}

// TestVarsAndKey tests variable collection and structural identity.
func TestVarsAndKey(t *testing.T) {
	e := MustParse("b -> X(a || b) && !c")
	assert.Equal(t, []string{"b", "a", "c"}, Vars(e))
	assert.True(t, HasNext(e))
	assert.False(t, HasNext(MustParse("a && b")))

	assert.Equal(t, Key(MustParse("a && b")), Key(Conj(V("a"), V("b"))))
	assert.NotEqual(t, Key(MustParse("a && b")), Key(MustParse("b && a")))
	assert.NotEqual(t, Key(MustParse("a")), Key(MustParse("X(a)")))
}
