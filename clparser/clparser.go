// Package clparser is the configuration-language front end: a grammar
// built atop the combinator engine (spec §4.3/§6.2) that turns CL
// source text into a *clr.Record, the root of a lazily-evaluated
// expression graph.
package clparser

import (
	"github.com/cwbudde/go-clr/clerr"
	"github.com/cwbudde/go-clr/clr"
	"github.com/cwbudde/go-clr/combinator"
	"github.com/cwbudde/go-clr/cursor"
	"github.com/cwbudde/go-clr/lex"
)

// Parse parses text as a CL document: a single record literal at the
// top level (spec §6.1's parse_cl). Any unconsumed input after the
// record is an InvalidSource error ("input remaining").
func Parse(text string) (*clr.Record, error) {
	v, err := combinator.Parse(recordExpr(), text)
	if err != nil {
		return nil, err
	}
	return v.(*clr.Record), nil
}

// token wraps p with the lexer's comment-and-whitespace skip pattern
// (the default §4.1 Token wrapper).
func token(p combinator.Parser) combinator.Parser {
	return combinator.Token(lex.Skip(), p)
}

// kw recognizes a reserved word: a word-boundary-bound literal so
// "iffy" never matches the keyword "if" (no backtracking needed since
// the boundary makes the match fail outright, not partially).
func kw(word string) combinator.Parser {
	return token(combinator.Regexp(word + `\b`))
}

// punct recognizes a fixed operator/punctuation string.
func punct(s string) combinator.Parser {
	return token(combinator.Literal(s))
}

var reserved = map[string]bool{
	"if": true, "then": true, "else": true, "not": true,
	"and": true, "or": true, "true": true, "false": true, "type": true,
}

// identifier recognizes a non-reserved identifier.
func identifier() combinator.Parser {
	return func(c cursor.Cursor) combinator.Result {
		res := token(lex.Identifier())(c)
		if !res.OK {
			return res
		}
		if reserved[res.Value.(string)] {
			return combinator.Failure(c, "%q is a reserved word", res.Value)
		}
		return res
	}
}

// Forward references tie the recursive grammar together: a postfix
// expression can contain a parenthesized expression that is itself a
// full expression, and a primary expression can contain a record or
// list literal whose fields/elements are themselves full expressions.
// unaryFwd breaks the eager-construction cycle between unaryExpr and
// unaryLevel: unaryExpr's operand is itself a unaryLevel (to allow
// chains like `not not x` and `- -x`), which would otherwise recurse
// infinitely while *building* the parser, not just while running it.
var (
	exprFwd   = combinator.NewForward()
	recordFwd = combinator.NewForward()
	unaryFwd  = combinator.NewForward()
)

func init() {
	unaryFwd.Bind(combinator.Alt(unaryExpr(), postfixExpr()))
	exprFwd.Bind(buildOrExpr())
	recordFwd.Bind(buildRecordExpr())
}

func expr() combinator.Parser    { return exprFwd.Parser() }
func recordExpr() combinator.Parser { return recordFwd.Parser() }

// immediate recognizes a bool, number, or string literal, wrapped as a
// clr.Immediate. Bool is tried first among keyword-leading primaries
// since "true"/"false" are reserved words that would otherwise also be
// accepted by identifier() were it not for the reserved-word guard.
func immediate() combinator.Parser {
	boolLit := combinator.Alt(
		combinator.Map(kw("true"), func(any) any { return clr.Bool(true) }),
		combinator.Map(kw("false"), func(any) any { return clr.Bool(false) }),
	)
	numLit := combinator.Map(token(lex.Number()), func(v any) any {
		switch n := v.(type) {
		case int64:
			return clr.Int(n)
		case float64:
			return clr.Float(n)
		default:
			panic("lex.Number produced unexpected type")
		}
	})
	strLit := combinator.Map(token(lex.StringLiteral()), func(v any) any {
		return clr.Str(v.(string))
	})
	lit := combinator.Alt(boolLit, numLit, strLit)
	return func(c cursor.Cursor) combinator.Result {
		res := lit(c)
		if !res.OK {
			return res
		}
		return combinator.Success(res.Match, res.Next, &clr.Immediate{Val: res.Value.(clr.Value)})
	}
}

// ifExpr recognizes `if COND then THEN else ELSE`.
func ifExpr() combinator.Parser {
	p := combinator.Seq(kw("if"), expr(), kw("then"), expr(), kw("else"), expr())
	return func(c cursor.Cursor) combinator.Result {
		res := p(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		node := &clr.If{Cond: vs[1].(clr.Node), Then: vs[3].(clr.Node), Else: vs[5].(clr.Node), Pos: c}
		return combinator.Success(res.Match, res.Next, node)
	}
}

// unaryExpr recognizes `not Expr` or `-Expr`. Both forms bind tighter
// than any binary operator (spec §4.3's precedence level 2) and accept
// a full unary-level expression as their operand so chains like
// `- -x` and `not not b` parse.
func unaryExpr() combinator.Parser {
	notP := combinator.Seq(kw("not"), unaryLevel())
	negP := combinator.Seq(punct("-"), unaryLevel())
	return combinator.Alt(
		mapUnary("not", clr.Not, notP),
		mapUnary("-", clr.Neg, negP),
	)
}

func mapUnary(op string, fn func(clr.Value) (clr.Value, error), p combinator.Parser) combinator.Parser {
	return func(c cursor.Cursor) combinator.Result {
		res := p(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		node := &clr.UnaryOp{Op: op, Fn: fn, Operand: vs[1].(clr.Node), Pos: c}
		return combinator.Success(res.Match, res.Next, node)
	}
}

// unaryLevel is the level-2 production: a unary expression, or (falling
// through) the level-1 postfix chain. It goes through unaryFwd so that
// unaryExpr's own operand (which is itself a unaryLevel, to allow
// chains like `not not x`) doesn't recurse while being *built*.
func unaryLevel() combinator.Parser {
	return unaryFwd.Parser()
}

// primary recognizes the primary-expression alternatives in the order
// spec §4.3 requires: keyword-leading productions (if, record/list
// punctuation) before identifier-leading ones, per the alternation
// ordering contract (spec §4.1).
func primary() combinator.Parser {
	paren := func(c cursor.Cursor) combinator.Result {
		p := combinator.Seq(punct("("), expr(), punct(")"))
		res := p(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		return combinator.Success(res.Match, res.Next, vs[1])
	}
	refExpr := func(c cursor.Cursor) combinator.Result {
		res := identifier()(c)
		if !res.OK {
			return res
		}
		return combinator.Success(res.Match, res.Next, clr.Node(&clr.Ref{Name: res.Value.(string), Pos: c}))
	}
	return combinator.Alt(
		immediate(),
		ifExpr(),
		recordExpr(),
		listExpr(),
		paren,
		refExpr,
	)
}

// postfixExpr applies zero or more `.name`, `[expr]`, `(params)` tails
// onto a primary expression (spec §4.4's topmost base).
func postfixExpr() combinator.Parser {
	type tail struct {
		kind   byte // 'f' field, 'i' index, 'c' call
		name   string
		index  clr.Node
		params []clr.Param
		pos    cursor.Cursor
	}

	fieldTail := func(c cursor.Cursor) combinator.Result {
		p := combinator.Seq(punct("."), identifier())
		res := p(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		return combinator.Success(res.Match, res.Next, tail{kind: 'f', name: vs[1].(string), pos: c})
	}
	indexTail := func(c cursor.Cursor) combinator.Result {
		p := combinator.Seq(punct("["), expr(), punct("]"))
		res := p(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		return combinator.Success(res.Match, res.Next, tail{kind: 'i', index: vs[1].(clr.Node), pos: c})
	}
	paramP := combinator.Seq(identifier(), punct("="), expr())
	paramList := combinator.Seq(
		paramP,
		combinator.Rep(combinator.Seq(punct(","), paramP), 0, -1),
		combinator.Opt(punct(",")),
	)
	callTail := func(c cursor.Cursor) combinator.Result {
		p := combinator.Seq(punct("("), combinator.Opt(paramList), punct(")"))
		res := p(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		var params []clr.Param
		if lst, ok := vs[1].([]any); ok {
			first := lst[0].([]any)
			params = append(params, clr.Param{Name: first[0].(string), Expr: first[2].(clr.Node)})
			for _, rep := range lst[1].([]any) {
				pair := rep.([]any)
				p := pair[1].([]any)
				params = append(params, clr.Param{Name: p[0].(string), Expr: p[2].(clr.Node)})
			}
		}
		return combinator.Success(res.Match, res.Next, tail{kind: 'c', params: params, pos: c})
	}

	tailP := combinator.Rep(combinator.Alt(fieldTail, indexTail, callTail), 0, -1)

	return func(c cursor.Cursor) combinator.Result {
		base := primary()(c)
		if !base.OK {
			return base
		}
		tailsRes := tailP(base.Next)
		node := base.Value.(clr.Node)
		for _, raw := range tailsRes.Value.([]any) {
			t := raw.(tail)
			switch t.kind {
			case 'f':
				node = &clr.FieldAccess{RecordExpr: node, Name: t.name, Pos: t.pos}
			case 'i':
				node = &clr.ListAccess{ListExpr: node, IndexExpr: t.index, Pos: t.pos}
			case 'c':
				node = &clr.Call{Callee: node, Params: t.params, Pos: t.pos}
			}
		}
		return combinator.Success(c.Text[c.Pos:tailsRes.Next.Pos], tailsRes.Next, node)
	}
}

// powExpr implements `**`, spec §4.3 level 3. Level 2 (unary) binds
// tighter than level 3 (**), so `-2**2` parses as `(-2)**2`, not
// `-(2**2)`: powExpr's base is unaryLevel, not the other way around.
// `**` is left-associative by construction: built as the same
// `base (op base)*` left-fold as every other level.
func powExpr() combinator.Parser {
	return leftFold(unaryLevel(), []opSpec{{"**", clr.Pow}})
}

func mulExpr() combinator.Parser {
	return leftFold(powExpr(), []opSpec{{"*", clr.Mul}, {"/", clr.Div}})
}

func addExpr() combinator.Parser {
	return leftFold(mulExpr(), []opSpec{{"+", clr.Add}, {"-", clr.Sub}})
}

func cmpExpr() combinator.Parser {
	return leftFold(addExpr(), []opSpec{
		{"==", clr.Eq}, {"!=", clr.Ne},
		{"<=", clr.Le}, {">=", clr.Ge},
		{"<", clr.Lt}, {">", clr.Gt},
	})
}

// andExpr and orExpr implement spec §4.3 level 7, using
// ShortCircuitOp rather than BinOp so the right operand is only
// evaluated when it can still affect the result (SPEC_FULL §4 item 1).
func andExpr() combinator.Parser {
	return leftFoldShortCircuit("and", cmpExpr())
}

func buildOrExpr() combinator.Parser {
	return leftFoldShortCircuit("or", andExpr())
}

type opSpec struct {
	token string
	fn    func(clr.Value, clr.Value) (clr.Value, error)
}

// leftFold builds `base (op base)*`, folding left, producing a BinOp
// tree for each matched operator (spec §4.4).
func leftFold(base combinator.Parser, ops []opSpec) combinator.Parser {
	opToken := func(c cursor.Cursor) combinator.Result {
		for _, o := range ops {
			res := punct(o.token)(c)
			if res.OK {
				return combinator.Success(res.Match, res.Next, o.token)
			}
		}
		return combinator.Failure(c, "expected an operator")
	}
	rep := combinator.Rep(combinator.Seq(opToken, base), 0, -1)

	return func(c cursor.Cursor) combinator.Result {
		first := base(c)
		if !first.OK {
			return first
		}
		rest := rep(first.Next)
		node := first.Value.(clr.Node)
		for _, raw := range rest.Value.([]any) {
			pair := raw.([]any)
			opTok := pair[0].(string)
			right := pair[1].(clr.Node)
			var fn func(clr.Value, clr.Value) (clr.Value, error)
			for _, o := range ops {
				if o.token == opTok {
					fn = o.fn
					break
				}
			}
			node = &clr.BinOp{Op: opTok, Fn: fn, Left: node, Right: right, Pos: c}
		}
		return combinator.Success(first.Match, rest.Next, node)
	}
}

func leftFoldShortCircuit(op string, base combinator.Parser) combinator.Parser {
	rep := combinator.Rep(combinator.Seq(kw(op), base), 0, -1)
	return func(c cursor.Cursor) combinator.Result {
		first := base(c)
		if !first.OK {
			return first
		}
		rest := rep(first.Next)
		node := first.Value.(clr.Node)
		for _, raw := range rest.Value.([]any) {
			pair := raw.([]any)
			right := pair[1].(clr.Node)
			node = &clr.ShortCircuitOp{Op: op, Left: node, Right: right, Pos: c}
		}
		return combinator.Success(first.Match, rest.Next, node)
	}
}

// listExpr recognizes `[ (expr (',' expr)* ','?)? ]` (spec §4.3).
func listExpr() combinator.Parser {
	elems := combinator.Seq(
		expr(),
		combinator.Rep(combinator.Seq(punct(","), expr()), 0, -1),
		combinator.Opt(punct(",")),
	)
	p := combinator.Seq(punct("["), combinator.Opt(elems), punct("]"))
	return func(c cursor.Cursor) combinator.Result {
		res := p(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		var out []clr.Node
		if lst, ok := vs[1].([]any); ok {
			out = append(out, lst[0].(clr.Node))
			for _, rep := range lst[1].([]any) {
				pair := rep.([]any)
				out = append(out, pair[1].(clr.Node))
			}
		}
		return combinator.Success(res.Match, res.Next, clr.Node(&clr.List{Elems: out}))
	}
}

// missingFieldExpr is the expression assigned to a field declared
// without a `= expr` initializer (spec §6.2 allows the field's value
// to be omitted); referencing such a field's value is a runtime error
// rather than a parse error, matching how every other undefined-name
// failure in this grammar only surfaces at Eval time.
type missingFieldExpr struct {
	name string
	pos  cursor.Cursor
}

func (m *missingFieldExpr) Eval(*clr.Record) (clr.Value, error) {
	return nil, clerr.New(clerr.TypeMismatch, m.pos, "field %q has no initializer", m.name)
}

// fieldDecl recognizes a single `Field` production: `Ident (':' 'type')?
// ('=' Expr)? (',' | ';')?`. The type annotation is parsed and
// discarded, as §4.3 specifies.
func fieldDecl() combinator.Parser {
	typeAnn := combinator.Opt(combinator.Seq(punct(":"), kw("type")))
	valueAnn := combinator.Opt(combinator.Seq(punct("="), expr()))
	sep := combinator.Opt(combinator.Alt(punct(","), punct(";")))
	p := combinator.Seq(identifier(), typeAnn, valueAnn, sep)

	return func(c cursor.Cursor) combinator.Result {
		res := p(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		name := vs[0].(string)

		var fieldExpr clr.Node
		if pair, ok := vs[2].([]any); ok {
			fieldExpr = pair[1].(clr.Node)
		} else {
			fieldExpr = &missingFieldExpr{name: name, pos: c}
		}
		return combinator.Success(res.Match, res.Next, &clr.Field{Name: name, Expr: fieldExpr, Exported: true})
	}
}

// buildRecordExpr recognizes `'{' Field* '}'` (spec §6.2).
func buildRecordExpr() combinator.Parser {
	p := combinator.Seq(punct("{"), combinator.Rep(fieldDecl(), 0, -1), punct("}"))
	return func(c cursor.Cursor) combinator.Result {
		res := p(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		fieldsRaw := vs[1].([]any)
		fields := make([]*clr.Field, len(fieldsRaw))
		for i, f := range fieldsRaw {
			fields[i] = f.(*clr.Field)
		}
		return combinator.Success(res.Match, res.Next, clr.Node(clr.NewRecord(fields)))
	}
}
