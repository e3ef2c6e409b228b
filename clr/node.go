package clr

import (
	"github.com/cwbudde/go-clr/clerr"
	"github.com/cwbudde/go-clr/cursor"
)

// Node is the single capability every CLR expression implements: Eval
// against a scope (the owning Record, see spec §3.4) produces a Value
// or an error.
type Node interface {
	Eval(scope *Record) (Value, error)
}

// Immediate returns a constant primitive Value.
type Immediate struct {
	Val Value
}

func (n *Immediate) Eval(*Record) (Value, error) { return n.Val, nil }

// Ref looks up an identifier in the scope it is evaluated against.
// Per spec §3.4/§9, the CLR has no lexical parent chain beyond the
// single scope it is handed: a Record's own fields only ever see their
// own Record as scope, so a Ref only ever resolves against the Record
// that owns the Field evaluating it.
type Ref struct {
	Name string
	Pos  cursor.Cursor
}

func (n *Ref) Eval(scope *Record) (Value, error) {
	if scope == nil {
		return nil, clerr.NotFound(clerr.NameNotFound, n.Pos, n.Name)
	}
	v, err := scope.Get(n.Name)
	if err != nil {
		if e, ok := err.(*clerr.Error); ok && e.Kind == clerr.FieldNotFound {
			return nil, clerr.NotFound(clerr.NameNotFound, n.Pos, n.Name)
		}
		return nil, err
	}
	return v, nil
}

// List is an ordered expression sequence. Eval returns the List itself
// unevaluated (a lazy container, spec §3.3); its elements are only
// forced by ListAccess or Export.
type List struct {
	Elems []Node
}

func (l *List) Type() string   { return "list" }
func (l *List) String() string { return "list" }
func (l *List) Eval(*Record) (Value, error) { return l, nil }

// ListAccess evaluates ListExpr then IndexExpr against the current
// scope, then evaluates the chosen element against that same scope (a
// List owns no scope of its own to close over).
type ListAccess struct {
	ListExpr  Node
	IndexExpr Node
	Pos       cursor.Cursor
}

func (n *ListAccess) Eval(scope *Record) (Value, error) {
	lv, err := n.ListExpr.Eval(scope)
	if err != nil {
		return nil, err
	}
	list, ok := lv.(*List)
	if !ok {
		return nil, clerr.New(clerr.TypeMismatch, n.Pos, "cannot index into a %s", lv.Type())
	}

	iv, err := n.IndexExpr.Eval(scope)
	if err != nil {
		return nil, err
	}
	idx, ok := iv.(Int)
	if !ok {
		return nil, clerr.New(clerr.TypeMismatch, n.Pos, "list index must be an int, got %s", iv.Type())
	}
	i := int(idx)
	if i < 0 || i >= len(list.Elems) {
		return nil, clerr.OutOfRange(n.Pos, i, len(list.Elems))
	}
	return list.Elems[i].Eval(scope)
}

// FieldAccess evaluates RecordExpr against the current scope, asserts it
// is a Record, then looks up Name in the *result's own scope* — the
// lexical-in-the-target-record rule (spec §4.6).
type FieldAccess struct {
	RecordExpr Node
	Name       string
	Pos        cursor.Cursor
}

func (n *FieldAccess) Eval(scope *Record) (Value, error) {
	rv, err := n.RecordExpr.Eval(scope)
	if err != nil {
		return nil, err
	}
	rec, ok := rv.(*Record)
	if !ok {
		return nil, clerr.New(clerr.TypeMismatch, n.Pos, "cannot access field %q of a %s", n.Name, rv.Type())
	}
	v, err := rec.Get(n.Name)
	if err != nil {
		if e, ok := err.(*clerr.Error); ok && e.Kind == clerr.FieldNotFound {
			e.Pos = n.Pos
		}
		return nil, err
	}
	return v, nil
}

// UnaryOp applies Fn to the evaluated Operand. Op is a display tag kept
// alongside the semantic function so error messages can name the
// operator (spec §9: operators carry both a tag and a function).
type UnaryOp struct {
	Op      string
	Fn      func(Value) (Value, error)
	Operand Node
	Pos     cursor.Cursor
}

func (n *UnaryOp) Eval(scope *Record) (Value, error) {
	v, err := n.Operand.Eval(scope)
	if err != nil {
		return nil, err
	}
	result, err := n.Fn(v)
	if err != nil {
		return nil, wrapOpError(err, n.Op, n.Pos)
	}
	return result, nil
}

// BinOp evaluates both operands against the current scope, then applies
// Fn. and/or are not BinOps: the grammar builds them as ShortCircuitOp
// below.
type BinOp struct {
	Op    string
	Fn    func(Value, Value) (Value, error)
	Left  Node
	Right Node
	Pos   cursor.Cursor
}

func (n *BinOp) Eval(scope *Record) (Value, error) {
	lv, err := n.Left.Eval(scope)
	if err != nil {
		return nil, err
	}
	rv, err := n.Right.Eval(scope)
	if err != nil {
		return nil, err
	}
	result, err := n.Fn(lv, rv)
	if err != nil {
		return nil, wrapOpError(err, n.Op, n.Pos)
	}
	return result, nil
}

// ShortCircuitOp implements `and`/`or`: the right operand is only
// evaluated when it can still affect the result, the same
// evaluate-only-what-you-need discipline the If node already requires
// (spec §3.3, SPEC_FULL §4 item 1).
type ShortCircuitOp struct {
	Op    string // "and" or "or"
	Left  Node
	Right Node
	Pos   cursor.Cursor
}

func (n *ShortCircuitOp) Eval(scope *Record) (Value, error) {
	lv, err := n.Left.Eval(scope)
	if err != nil {
		return nil, err
	}
	lb, ok := lv.(Bool)
	if !ok {
		return nil, clerr.New(clerr.TypeMismatch, n.Pos, "%s requires bool operands, got %s", n.Op, lv.Type())
	}
	if n.Op == "and" && !bool(lb) {
		return Bool(false), nil
	}
	if n.Op == "or" && bool(lb) {
		return Bool(true), nil
	}
	rv, err := n.Right.Eval(scope)
	if err != nil {
		return nil, err
	}
	rb, ok := rv.(Bool)
	if !ok {
		return nil, clerr.New(clerr.TypeMismatch, n.Pos, "%s requires bool operands, got %s", n.Op, rv.Type())
	}
	return rb, nil
}

// If evaluates Cond, then evaluates and returns exactly one branch.
type If struct {
	Cond Node
	Then Node
	Else Node
	Pos  cursor.Cursor
}

func (n *If) Eval(scope *Record) (Value, error) {
	cv, err := n.Cond.Eval(scope)
	if err != nil {
		return nil, err
	}
	b, ok := cv.(Bool)
	if !ok {
		return nil, clerr.New(clerr.TypeMismatch, n.Pos, "if condition must be bool, got %s", cv.Type())
	}
	if b {
		return n.Then.Eval(scope)
	}
	return n.Else.Eval(scope)
}

// Param is one name=expr pair in a Call's parameter list.
type Param struct {
	Name string
	Expr Node
}

// Call implements `callee + {params...}` (spec §4.5): the callee is
// evaluated against the current scope and must be a Record; every
// parameter expression is evaluated against the current (caller's)
// scope — not the callee's — wrapped as an Immediate, and merged over
// the callee. Because Merge clones every field, the resulting Record
// gets fresh memoization slots throughout, which is what lets a
// self-referential record (factorial, Fibonacci) recurse instead of
// replaying a single memoized answer on every call.
type Call struct {
	Callee Node
	Params []Param
	Pos    cursor.Cursor
}

func (n *Call) Eval(scope *Record) (Value, error) {
	cv, err := n.Callee.Eval(scope)
	if err != nil {
		return nil, err
	}
	callee, ok := cv.(*Record)
	if !ok {
		return nil, clerr.New(clerr.TypeMismatch, n.Pos, "cannot call a %s", cv.Type())
	}

	paramFields := make([]*Field, len(n.Params))
	for i, p := range n.Params {
		v, err := p.Expr.Eval(scope)
		if err != nil {
			return nil, err
		}
		paramFields[i] = &Field{Name: p.Name, Expr: &Immediate{Val: v}, Exported: true}
	}
	params := NewRecord(paramFields)

	return callee.Merge(params), nil
}

func wrapOpError(err error, op string, pos cursor.Cursor) error {
	if e, ok := err.(*clerr.Error); ok {
		if e.Message == "" {
			e.Message = "operator " + op
		}
		return e
	}
	return clerr.New(clerr.TypeMismatch, pos, "operator %s: %s", op, err.Error())
}
