// Package clerr defines the error taxonomy shared by the combinator
// engine, the CLR evaluator, and the front-end parsers. Every
// user-visible failure in this module is a *clerr.Error carrying enough
// context (source position, or the offending name/index) to be
// formatted without round-tripping through string parsing.
package clerr

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-clr/cursor"
)

// Kind enumerates the abstract error categories from spec §7. It is a
// closed set: every failure in this module fits exactly one of these.
type Kind int

const (
	// InvalidSource is a parser failure: the grammar could not match at
	// the farthest cursor reached, or input remained after a successful
	// top-level parse.
	InvalidSource Kind = iota
	// NameNotFound is a Ref to an identifier absent from its scope.
	NameNotFound
	// FieldNotFound is a FieldAccess naming an unknown field.
	FieldNotFound
	// IndexOutOfRange is a ListAccess with an invalid index.
	IndexOutOfRange
	// TypeMismatch covers field-access/call on a non-record, indexing a
	// non-list, and operators applied to operands of the wrong type
	// (including division by zero, see SPEC_FULL §4 item 3).
	TypeMismatch
	// UnboundReference is a programmer error: a forward reference parser
	// was used before being bound, or bound twice.
	UnboundReference
)

func (k Kind) String() string {
	switch k {
	case InvalidSource:
		return "InvalidSource"
	case NameNotFound:
		return "NameNotFound"
	case FieldNotFound:
		return "FieldNotFound"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	case TypeMismatch:
		return "TypeMismatch"
	case UnboundReference:
		return "UnboundReference"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned across package boundaries in
// this module.
type Error struct {
	Kind    Kind
	Pos     cursor.Cursor // meaningful for InvalidSource
	Name    string        // meaningful for NameNotFound / FieldNotFound
	Index   int           // meaningful for IndexOutOfRange
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Pos, e.Message)
	}
	return fmt.Sprintf("%s at %s", e.Kind, e.Pos)
}

// New constructs a positioned error of the given kind.
func New(kind Kind, pos cursor.Cursor, message string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(message, args...)}
}

// NotFound constructs a NameNotFound or FieldNotFound error naming the
// missing identifier.
func NotFound(kind Kind, pos cursor.Cursor, name string) *Error {
	return &Error{Kind: kind, Pos: pos, Name: name, Message: fmt.Sprintf("%q not found", name)}
}

// OutOfRange constructs an IndexOutOfRange error.
func OutOfRange(pos cursor.Cursor, index, length int) *Error {
	return &Error{
		Kind:    IndexOutOfRange,
		Pos:     pos,
		Index:   index,
		Message: fmt.Sprintf("index %d out of range for list of length %d", index, length),
	}
}

// Format renders err with a source line and a caret pointing at the
// offending column. When color is true, ANSI codes highlight the caret
// and message; callers writing to a non-terminal should pass false.
func Format(err *Error, source string, color bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Error at line %d:%d\n", err.Pos.Line, err.Pos.Col+1)

	if line := sourceLine(source, err.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", err.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+err.Pos.Col))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(err.Error())
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

// FormatAll formats a batch of errors, one after another. The combinator
// engine and CLR evaluator in this module stop at the first failure
// (spec §1 Non-goals: no resynchronization), so this is mostly useful
// for hosts that collect errors from several independent parses.
func FormatAll(errs []*Error, source string, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return Format(errs[0], source, color)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:\n\n", len(errs))
	for i, e := range errs {
		fmt.Fprintf(&sb, "[%d of %d]\n", i+1, len(errs))
		sb.WriteString(Format(e, source, color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}
