// Package combinator implements a minimalistic parser-combinator engine:
// character-level recognizers composed into higher-level parsers with
// explicit success/failure results. It carries immutable cursor
// positions (see the cursor package), supports forward references for
// recursive grammars, and never backtracks across alternatives beyond
// trying each one at the original position in declared order.
package combinator

import (
	"regexp"

	"github.com/cwbudde/go-clr/clerr"
	"github.com/cwbudde/go-clr/cursor"
)

// Parser is the common signature of every recognizer and composer in
// this package: given a cursor, produce a Result.
type Parser func(c cursor.Cursor) Result

// Result is a tagged success/failure outcome (spec §3.2). On success,
// Match and Value are meaningful and Next is a cursor at or after the
// input cursor. On failure, Match and Value are undefined; Next is the
// input cursor or a later one depending on the parser (Seq and Rep hand
// back the input cursor), and Err carries the position of the failure
// for error messages.
type Result struct {
	OK    bool
	Match string
	Next  cursor.Cursor
	Value any
	Err   *clerr.Error
}

// Success builds a successful Result.
func Success(match string, next cursor.Cursor, value any) Result {
	return Result{OK: true, Match: match, Next: next, Value: value}
}

// Failure builds a failed Result. next is the farthest cursor reached;
// it may equal the starting cursor or be further along, depending on how
// much look-ahead the failing parser performed.
func Failure(next cursor.Cursor, message string, args ...any) Result {
	return Result{OK: false, Next: next, Err: clerr.New(clerr.InvalidSource, next, message, args...)}
}

// Dropped is the sentinel value produced by Skip: a calling Sequence
// omits it from the assembled value list.
type Dropped struct{}

// Missing is the sentinel value produced by Option when its inner parser
// fails.
type Missing struct{}

// Literal succeeds iff the cursor's remaining text starts with s,
// consuming exactly len(s) bytes.
func Literal(s string) Parser {
	return func(c cursor.Cursor) Result {
		rem := c.Remaining()
		if len(rem) < len(s) || rem[:len(s)] != s {
			return Failure(c, "expected %q", s)
		}
		return Success(s, c.Advance(len(s)), s)
	}
}

// Regexp compiles pattern once (anchored at the start of the pattern)
// and matches only at the cursor; the full match is consumed and
// returned as the value.
func Regexp(pattern string) Parser {
	re := regexp.MustCompile(`\A(?:` + pattern + `)`)
	return func(c cursor.Cursor) Result {
		loc := re.FindStringIndex(c.Remaining())
		if loc == nil {
			return Failure(c, "expected match for /%s/", pattern)
		}
		match := c.Remaining()[loc[0]:loc[1]]
		return Success(match, c.Advance(len(match)), match)
	}
}

// Seq tries each parser in order, threading the cursor. On success the
// value is the ordered list of sub-values (Dropped entries from Skip are
// omitted). On any sub-failure, the original cursor is restored — no
// partial consumption ever surfaces from a Sequence (spec §8).
func Seq(parsers ...Parser) Parser {
	return func(c cursor.Cursor) Result {
		cur := c
		values := make([]any, 0, len(parsers))
		for _, p := range parsers {
			res := p(cur)
			if !res.OK {
				return Result{OK: false, Next: c, Err: res.Err}
			}
			if _, dropped := res.Value.(Dropped); !dropped {
				values = append(values, res.Value)
			}
			cur = res.Next
		}
		return Success(c.Text[c.Pos:cur.Pos], cur, values)
	}
}

// Alt tries each parser in declared order at the same starting cursor
// and returns the first success. There is no longest-match rule —
// ordering is the disambiguation policy (spec §4.1); callers must order
// specific productions before general ones.
func Alt(parsers ...Parser) Parser {
	return func(c cursor.Cursor) Result {
		var last Result
		for _, p := range parsers {
			res := p(c)
			if res.OK {
				return res
			}
			last = res
		}
		if last.Err == nil {
			return Failure(c, "no alternative matched")
		}
		return last
	}
}

// Opt wraps p: on failure it returns success with an empty match and
// Missing{} as the value, so Opt is total — it always succeeds.
func Opt(p Parser) Parser {
	return func(c cursor.Cursor) Result {
		res := p(c)
		if res.OK {
			return res
		}
		return Success("", c, Missing{})
	}
}

// Rep applies p repeatedly, accumulating values, stopping at the first
// inner failure or once max repetitions are reached (max < 0 means
// unbounded). If fewer than min repetitions succeeded, the whole
// repetition fails and the original cursor is restored.
func Rep(p Parser, min, max int) Parser {
	return func(c cursor.Cursor) Result {
		cur := c
		var values []any
		count := 0
		for max < 0 || count < max {
			res := p(cur)
			if !res.OK {
				break
			}
			zeroWidth := res.Next.Pos == cur.Pos
			values = append(values, res.Value)
			cur = res.Next
			count++
			if zeroWidth {
				// A zero-width success would loop forever; stop here.
				break
			}
		}
		if count < min {
			return Failure(c, "expected at least %d repetitions, got %d", min, count)
		}
		return Success(c.Text[c.Pos:cur.Pos], cur, values)
	}
}

// Map runs p; on success it replaces the value with f(value), keeping
// the match and next cursor unchanged.
func Map(p Parser, f func(any) any) Parser {
	return func(c cursor.Cursor) Result {
		res := p(c)
		if !res.OK {
			return res
		}
		res.Value = f(res.Value)
		return res
	}
}

// Skip runs p; on success it replaces the value with Dropped{} so a
// calling Seq omits it from the assembled value list.
func Skip(p Parser) Parser {
	return Map(p, func(any) any { return Dropped{} })
}

// Forward is a mutable slot bound exactly once to an actual parser,
// enabling recursive grammars: a production can reference a Forward
// from inside its own definition, then Bind the real parser once the
// whole grammar is constructed. Using an unbound Forward, or binding one
// twice, is a programmer error and panics (spec §4.1, §9).
type Forward struct {
	bound Parser
}

// NewForward returns an unbound forward-reference parser.
func NewForward() *Forward {
	return &Forward{}
}

// Bind attaches the real parser. Calling Bind more than once panics.
func (f *Forward) Bind(p Parser) {
	if f.bound != nil {
		panic("combinator: Forward bound twice")
	}
	f.bound = p
}

// Parser returns a Parser that dereferences the forward reference at
// call time, so it can be embedded in other combinators before Bind is
// called.
func (f *Forward) Parser() Parser {
	return func(c cursor.Cursor) Result {
		if f.bound == nil {
			panic("combinator: use of unbound Forward")
		}
		return f.bound(c)
	}
}

// Token wraps p with a leading whitespace/comment parser skip: skip is
// applied first (and must always succeed, even with an empty match),
// then p is applied at the resulting cursor.
func Token(skip Parser, p Parser) Parser {
	return func(c cursor.Cursor) Result {
		skipped := skip(c)
		if !skipped.OK {
			// A well-formed skip parser (e.g. Rep(_, 0, -1)) never fails;
			// if it does, treat it as consuming nothing.
			skipped = Success("", c, nil)
		}
		res := p(skipped.Next)
		if !res.OK {
			return res
		}
		return Success(c.Text[c.Pos:res.Next.Pos], res.Next, res.Value)
	}
}

// Parse runs p against the whole of text from the start and requires it
// to consume all input. Residual input after a successful parse is
// itself an InvalidSource failure ("input remaining"), per spec §4.8.
func Parse(p Parser, text string) (any, error) {
	start := cursor.New(text)
	res := p(start)
	if !res.OK {
		if res.Err != nil {
			return nil, res.Err
		}
		return nil, clerr.New(clerr.InvalidSource, res.Next, "parse failed")
	}
	if !res.Next.AtEOF() {
		return nil, clerr.New(clerr.InvalidSource, res.Next, "input remaining: %q", preview(res.Next.Remaining()))
	}
	return res.Value, nil
}

func preview(s string) string {
	const maxLen = 24
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
