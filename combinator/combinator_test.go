package combinator

import (
	"reflect"
	"testing"

	"github.com/cwbudde/go-clr/cursor"
)

func TestLiteralSuccessAndFailure(t *testing.T) {
	p := Literal("if")
	res := p(cursor.New("if x"))
	if !res.OK || res.Match != "if" || res.Next.Pos != 2 {
		t.Fatalf("expected success consuming 'if', got %+v", res)
	}

	res = p(cursor.New("iffy"))
	if !res.OK {
		t.Fatal("literal should match a prefix regardless of what follows")
	}
	if res.Next.Pos != 2 {
		t.Fatalf("expected to consume exactly len(literal), got Pos=%d", res.Next.Pos)
	}

	res = p(cursor.New("else"))
	if res.OK {
		t.Fatal("expected failure matching 'if' against 'else'")
	}
}

func TestRegexpConsumesFullMatch(t *testing.T) {
	p := Regexp(`[0-9]+`)
	res := p(cursor.New("123abc"))
	if !res.OK || res.Value != "123" || res.Next.Pos != 3 {
		t.Fatalf("expected to match '123', got %+v", res)
	}
}

func TestDeterminism(t *testing.T) {
	p := Seq(Literal("a"), Literal("b"))
	c := cursor.New("ab")
	r1 := p(c)
	r2 := p(c)
	if !reflect.DeepEqual(r1.Value, r2.Value) || r1.OK != r2.OK || r1.Next != r2.Next {
		t.Fatalf("expected identical results for repeated application, got %+v vs %+v", r1, r2)
	}
}

func TestSequenceNoPartialConsumeOnFailure(t *testing.T) {
	p := Seq(Literal("a"), Literal("b"), Literal("c"))
	start := cursor.New("abX")
	res := p(start)
	if res.OK {
		t.Fatal("expected the sequence to fail")
	}
	if res.Next.Pos != start.Pos {
		t.Fatalf("expected failed sequence to restore the starting cursor, got Pos=%d", res.Next.Pos)
	}
	// A Seq nested inside another Seq must look like it never consumed
	// anything from the point of view of its own starting cursor.
	outer := Seq(p, Literal("never runs"))
	outerRes := outer(start)
	if outerRes.OK {
		t.Fatal("expected outer sequence to fail when inner sequence fails")
	}
}

func TestSequenceDropsSkippedValues(t *testing.T) {
	p := Seq(Skip(Literal("(")), Literal("x"), Skip(Literal(")")))
	res := p(cursor.New("(x)"))
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	values := res.Value.([]any)
	if len(values) != 1 || values[0] != "x" {
		t.Fatalf("expected only the unskipped value, got %v", values)
	}
}

func TestAlternationOrderPicksFirstSuccess(t *testing.T) {
	a := Literal("if")
	b := Literal("ifx")
	p := Alt(a, b)
	res := p(cursor.New("ifx"))
	if !res.OK || res.Match != "if" {
		t.Fatalf("expected first alternative (a) to win even though b would also match, got %+v", res)
	}
}

func TestAlternationFallsThroughToLaterBranch(t *testing.T) {
	p := Alt(Literal("true"), Literal("false"))
	res := p(cursor.New("false"))
	if !res.OK || res.Match != "false" {
		t.Fatalf("expected second alternative to succeed, got %+v", res)
	}
}

func TestAlternationAllFail(t *testing.T) {
	p := Alt(Literal("true"), Literal("false"))
	res := p(cursor.New("maybe"))
	if res.OK {
		t.Fatal("expected failure when no alternative matches")
	}
}

func TestOptionIsTotal(t *testing.T) {
	p := Opt(Literal("maybe"))
	res := p(cursor.New("nope"))
	if !res.OK {
		t.Fatal("Opt must always succeed")
	}
	if _, missing := res.Value.(Missing); !missing {
		t.Fatalf("expected Missing{} value, got %v", res.Value)
	}
	if res.Next.Pos != 0 {
		t.Fatalf("expected no consumption on Opt failure path, got Pos=%d", res.Next.Pos)
	}
}

func TestOptionSuccessPassesThrough(t *testing.T) {
	p := Opt(Literal("yes"))
	res := p(cursor.New("yes!"))
	if !res.OK || res.Value != "yes" {
		t.Fatalf("expected Opt to pass through a successful match, got %+v", res)
	}
}

func TestRepetitionMonotonicity(t *testing.T) {
	digit := Regexp(`[0-9]`)

	// Fails iff P succeeds fewer than min times consecutively.
	cases := []struct {
		input string
		min   int
		ok    bool
	}{
		{"123", 3, true},
		{"12", 3, false},
		{"", 0, true},
		{"abc", 1, false},
	}
	for _, tc := range cases {
		res := Rep(digit, tc.min, -1)(cursor.New(tc.input))
		if res.OK != tc.ok {
			t.Fatalf("Rep(digit, min=%d) over %q: expected ok=%v, got ok=%v", tc.min, tc.input, tc.ok, res.OK)
		}
	}
}

func TestRepetitionRespectsMax(t *testing.T) {
	digit := Regexp(`[0-9]`)
	res := Rep(digit, 0, 2)(cursor.New("12345"))
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Next.Pos != 2 {
		t.Fatalf("expected to stop after 2 repetitions, consumed up to Pos=%d", res.Next.Pos)
	}
}

func TestRepetitionRestoresCursorOnFailure(t *testing.T) {
	digit := Regexp(`[0-9]`)
	start := cursor.New("ab")
	res := Rep(digit, 1, -1)(start)
	if res.OK {
		t.Fatal("expected failure: fewer than min repetitions available")
	}
	if res.Next.Pos != start.Pos {
		t.Fatalf("expected restored cursor on failed repetition, got Pos=%d", res.Next.Pos)
	}
}

func TestMapTransformsValue(t *testing.T) {
	p := Map(Regexp(`[0-9]+`), func(v any) any { return len(v.(string)) })
	res := p(cursor.New("12345"))
	if !res.OK || res.Value != 5 {
		t.Fatalf("expected mapped value 5, got %+v", res)
	}
}

func TestForwardReferenceEnablesRecursion(t *testing.T) {
	// list := '(' digit (',' list)? ')'
	var list Parser
	fwd := NewForward()
	list = fwd.Parser()

	digit := Regexp(`[0-9]`)
	fwd.Bind(Seq(
		Skip(Literal("(")),
		digit,
		Opt(Seq(Skip(Literal(",")), list)),
		Skip(Literal(")")),
	))

	res := list(cursor.New("(1,(2,(3)))"))
	if !res.OK {
		t.Fatalf("expected recursive grammar to parse, got %+v", res)
	}
	if !res.Next.AtEOF() {
		t.Fatalf("expected full input consumed, stopped at Pos=%d", res.Next.Pos)
	}
}

func TestForwardUseBeforeBindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic using an unbound Forward")
		}
	}()
	fwd := NewForward()
	fwd.Parser()(cursor.New("x"))
}

func TestForwardDoubleBindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic binding a Forward twice")
		}
	}()
	fwd := NewForward()
	fwd.Bind(Literal("a"))
	fwd.Bind(Literal("b"))
}

func TestTokenSkipsLeadingWhitespace(t *testing.T) {
	skip := Rep(Regexp(`\s`), 0, -1)
	p := Token(skip, Literal("x"))

	res := p(cursor.New("   x"))
	if !res.OK {
		t.Fatalf("expected success after skipping whitespace, got %+v", res)
	}
	if res.Next.Pos != 4 {
		t.Fatalf("expected cursor past the token, got Pos=%d", res.Next.Pos)
	}
}

func TestTokenSkipIsZeroWidthOK(t *testing.T) {
	skip := Rep(Regexp(`\s`), 0, -1)
	p := Token(skip, Literal("x"))
	res := p(cursor.New("x"))
	if !res.OK {
		t.Fatal("expected success with zero leading whitespace")
	}
}

func TestParseReportsInputRemaining(t *testing.T) {
	p := Literal("ab")
	_, err := Parse(p, "abc")
	if err == nil {
		t.Fatal("expected error for residual input")
	}
}

func TestParseSucceedsOnFullConsumption(t *testing.T) {
	p := Literal("ab")
	v, err := Parse(p, "ab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ab" {
		t.Fatalf("expected value 'ab', got %v", v)
	}
}
