// Package lex provides the lexical recognizers layered on top of the
// combinator engine: identifiers, numbers in several bases, and
// single/double/triple-quoted strings with escape decoding. It also
// provides the comment-and-whitespace skip parser used by the CL
// front-end's Token wrapper.
package lex

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/cwbudde/go-clr/combinator"
	"github.com/cwbudde/go-clr/cursor"
)

// identPattern matches spec §4.2's identifier grammar.
const identPattern = `[A-Za-z_][A-Za-z0-9_]*`

// Identifier recognizes [A-Za-z_][A-Za-z0-9_]*, normalized to Unicode
// NFC so combining-character variants of the same name compare equal
// once stored as a clr.Ref target.
func Identifier() combinator.Parser {
	return combinator.Map(combinator.Regexp(identPattern), func(v any) any {
		return norm.NFC.String(v.(string))
	})
}

// Integer recognizes spec §4.2's integer grammar: an optional leading
// '-', an optional base prefix (0x/0o/0b), and the matching digit run.
// The value is the parsed int64.
func Integer() combinator.Parser {
	pattern := `-?(?:0[xX][0-9a-fA-F]+|0[oO][0-7]+|0[bB][01]+|[0-9]+)`
	return combinator.Map(combinator.Regexp(pattern), func(v any) any {
		n, err := parseInteger(v.(string))
		if err != nil {
			// Regexp already constrained the lexical shape; a parse
			// failure here would be a bug in parseInteger, not bad input.
			panic(err)
		}
		return n
	})
}

func parseInteger(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		base, s = 8, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		n = -n
	}
	return n, nil
}

// Float recognizes standard decimal float syntax: digits, a required
// fractional part or exponent. The value is the parsed float64.
func Float() combinator.Parser {
	pattern := `-?[0-9]+(?:\.[0-9]+(?:[eE][+-]?[0-9]+)?|[eE][+-]?[0-9]+)`
	return combinator.Map(combinator.Regexp(pattern), func(v any) any {
		f, err := strconv.ParseFloat(v.(string), 64)
		if err != nil {
			panic(err)
		}
		return f
	})
}

// Number recognizes a float if one matches, else an integer, producing
// either a float64 or an int64 value. Float is tried first because its
// pattern is strictly longer for inputs like "1.5" (the alternation
// ordering contract, spec §4.1: more specific before more general).
func Number() combinator.Parser {
	return combinator.Alt(Float(), Integer())
}

// StringLiteral recognizes single-, double-, and triple-quoted string
// literals (spec §4.2). Triple-quoted strings may contain embedded
// newlines and un-escaped single/double quotes; single- and
// double-quoted strings decode \n \r \t, \uXXXX, and \x (any other
// character) escapes. The decoded value is normalized to NFC.
func StringLiteral() combinator.Parser {
	return func(c cursor.Cursor) combinator.Result {
		for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
			if res, ok := tryQuoted(c, quote); ok {
				return res
			}
		}
		return combinator.Failure(c, "expected a string literal")
	}
}

func tryQuoted(c cursor.Cursor, quote string) (combinator.Result, bool) {
	rem := c.Remaining()
	if !strings.HasPrefix(rem, quote) {
		return combinator.Result{}, false
	}
	triple := len(quote) == 3

	cur := c.Advance(len(quote))
	var sb strings.Builder
	for {
		if cur.AtEOF() {
			return combinator.Failure(c, "unterminated string literal"), true
		}
		rem := cur.Remaining()
		if strings.HasPrefix(rem, quote) {
			cur = cur.Advance(len(quote))
			break
		}
		if !triple && rem[0] == '\\' {
			decoded, width, err := decodeEscape(rem)
			if err != nil {
				return combinator.Failure(cur, "%s", err.Error()), true
			}
			sb.WriteString(decoded)
			cur = cur.Advance(width)
			continue
		}
		if !triple && rem[0] == '\n' {
			return combinator.Failure(c, "unterminated string literal"), true
		}
		r, size := utf8.DecodeRuneInString(rem)
		sb.WriteRune(r)
		cur = cur.Advance(size)
	}
	return combinator.Success(c.Text[c.Pos:cur.Pos], cur, norm.NFC.String(sb.String())), true
}

// decodeEscape decodes a single backslash escape starting at s[0]=='\\'.
// It returns the decoded text, the number of input bytes consumed, and
// an error if the escape is malformed (e.g. a short \uXXXX).
func decodeEscape(s string) (string, int, error) {
	if len(s) < 2 {
		return "", 0, errUnterminatedEscape
	}
	switch s[1] {
	case 'n':
		return "\n", 2, nil
	case 'r':
		return "\r", 2, nil
	case 't':
		return "\t", 2, nil
	case 'u':
		if len(s) < 6 {
			return "", 0, errShortUnicodeEscape
		}
		n, err := strconv.ParseUint(s[2:6], 16, 32)
		if err != nil {
			return "", 0, errShortUnicodeEscape
		}
		return string(rune(n)), 6, nil
	default:
		return string(s[1]), 2, nil
	}
}

var (
	errUnterminatedEscape = lexError("unterminated escape sequence")
	errShortUnicodeEscape = lexError(`\u escape requires exactly four hex digits`)
)

type lexError string

func (e lexError) Error() string { return string(e) }

// Comment recognizes a single C-style comment: "//...EOL" or
// "/* ... */" (nesting is not required).
func Comment() combinator.Parser {
	line := combinator.Regexp(`//[^\n]*`)
	block := combinator.Regexp(`/\*[\s\S]*?\*/`)
	return combinator.Alt(block, line)
}

// Skip is the default whitespace-and-comment pattern used by the CL
// front-end's Token wrapper: any run of whitespace and/or comments,
// always succeeding (possibly with an empty match).
func Skip() combinator.Parser {
	atom := combinator.Alt(combinator.Regexp(`\s+`), Comment())
	return combinator.Rep(atom, 0, -1)
}
