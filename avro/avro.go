// Package avro is the Avro-schema adapter grammar (spec §6.3/§9): the
// same combinator engine used by clparser, but producing opaque schema
// objects through a host-provided name registry and builder rather than
// a clr.Record graph. The schema object model itself is owned by the
// host (an external Avro library in a real deployment); this package
// only supplies the grammar and the two-phase record construction that
// lets recursive schemas resolve through the registry.
package avro

import (
	"github.com/cwbudde/go-clr/combinator"
	"github.com/cwbudde/go-clr/cursor"
	"github.com/cwbudde/go-clr/lex"
)

// Schema is deliberately opaque: this package never inspects it beyond
// passing it back to Builder/NameRegistry calls.
type Schema any

// NameRegistry resolves and records named schemas (records, enums,
// fixed) by their fully-qualified name, so later references --
// including self-references inside a still-being-parsed record --
// can find them.
type NameRegistry interface {
	Register(name string, schema Schema)
	Lookup(fullname string) (Schema, bool)
}

// Builder constructs concrete Schema values. It is supplied by the
// host, which owns the actual schema object model (spec §1 Out of
// scope). BeginRecord/FinishRecord split record construction into two
// phases (spec §9): BeginRecord is expected to register the
// in-progress record in the NameRegistry before returning, so that
// field types naming the record itself (directly, or via a union)
// resolve during AddField.
type Builder interface {
	Primitive(name string) (Schema, error)
	Array(items Schema) (Schema, error)
	Map(values Schema) (Schema, error)
	Union(branches []Schema) (Schema, error)
	Enum(name string, symbols []string) (Schema, error)
	Fixed(name string, size int) (Schema, error)
	BeginRecord(name string) (Schema, error)
	AddField(record Schema, fieldType Schema, name string) error
	FinishRecord(record Schema) (Schema, error)
}

var primitiveNames = map[string]bool{
	"null": true, "boolean": true, "int": true, "long": true,
	"float": true, "double": true, "bytes": true, "string": true,
}

// ParseAvroSchema parses text as a single Avro schema production (spec
// §6.3) and returns the Schema the host Builder constructed for it.
func ParseAvroSchema(text string, reg NameRegistry, b Builder) (Schema, error) {
	p := newParser(reg, b)
	v, err := combinator.Parse(p.schema(), text)
	if err != nil {
		return nil, err
	}
	return v, nil
}

type parser struct {
	reg NameRegistry
	b   Builder

	schemaFwd *combinator.Forward
	valueFwd  *combinator.Forward
}

func newParser(reg NameRegistry, b Builder) *parser {
	p := &parser{reg: reg, b: b, schemaFwd: combinator.NewForward(), valueFwd: combinator.NewForward()}
	p.schemaFwd.Bind(p.buildSchema())
	p.valueFwd.Bind(p.buildValue())
	return p
}

func (p *parser) schema() combinator.Parser { return p.schemaFwd.Parser() }

func (p *parser) token(inner combinator.Parser) combinator.Parser {
	return combinator.Token(lex.Skip(), inner)
}

func (p *parser) kw(word string) combinator.Parser {
	return p.token(combinator.Regexp(word + `\b`))
}

func (p *parser) punct(s string) combinator.Parser {
	return p.token(combinator.Literal(s))
}

func (p *parser) identifier() combinator.Parser {
	return p.token(lex.Identifier())
}

// fullName recognizes "[.]?(ident '.')* ident" (spec §6.3's Name
// production) and returns the joined fully-qualified name.
func (p *parser) fullName() combinator.Parser {
	leadDot := combinator.Opt(p.punct("."))
	comp := combinator.Seq(p.identifier(), p.punct("."))
	rest := combinator.Rep(comp, 0, -1)
	seq := combinator.Seq(leadDot, rest, p.identifier())
	return func(c cursor.Cursor) combinator.Result {
		res := seq(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		name := ""
		if _, absolute := vs[0].(string); absolute {
			name = "."
		}
		for _, comp := range vs[1].([]any) {
			pair := comp.([]any)
			name += pair[0].(string) + "."
		}
		name += vs[2].(string)
		return combinator.Success(res.Match, res.Next, name)
	}
}

func (p *parser) primitive() combinator.Parser {
	return func(c cursor.Cursor) combinator.Result {
		res := p.identifier()(c)
		if !res.OK {
			return res
		}
		name := res.Value.(string)
		if !primitiveNames[name] {
			return combinator.Failure(c, "%q is not a primitive type", name)
		}
		s, err := p.b.Primitive(name)
		if err != nil {
			return combinator.Failure(c, "%s", err.Error())
		}
		return combinator.Success(res.Match, res.Next, Schema(s))
	}
}

func (p *parser) array() combinator.Parser {
	seq := combinator.Seq(p.kw("array"), p.punct("<"), p.schema(), p.punct(">"))
	return func(c cursor.Cursor) combinator.Result {
		res := seq(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		s, err := p.b.Array(vs[2].(Schema))
		if err != nil {
			return combinator.Failure(c, "%s", err.Error())
		}
		return combinator.Success(res.Match, res.Next, s)
	}
}

func (p *parser) mapSchema() combinator.Parser {
	seq := combinator.Seq(p.kw("map"), p.punct("<"), p.schema(), p.punct(">"))
	return func(c cursor.Cursor) combinator.Result {
		res := seq(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		s, err := p.b.Map(vs[2].(Schema))
		if err != nil {
			return combinator.Failure(c, "%s", err.Error())
		}
		return combinator.Success(res.Match, res.Next, s)
	}
}

func (p *parser) union() combinator.Parser {
	branch := combinator.Seq(p.schema(), combinator.Opt(p.punct(",")))
	seq := combinator.Seq(p.kw("union"), p.punct("{"), combinator.Rep(branch, 1, -1), p.punct("}"))
	return func(c cursor.Cursor) combinator.Result {
		res := seq(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		var branches []Schema
		for _, raw := range vs[2].([]any) {
			pair := raw.([]any)
			branches = append(branches, pair[0].(Schema))
		}
		s, err := p.b.Union(branches)
		if err != nil {
			return combinator.Failure(c, "%s", err.Error())
		}
		return combinator.Success(res.Match, res.Next, s)
	}
}

func (p *parser) separator() combinator.Parser {
	return combinator.Opt(combinator.Alt(p.punct(","), p.punct(";")))
}

func (p *parser) enum() combinator.Parser {
	sym := combinator.Seq(p.identifier(), p.separator())
	seq := combinator.Seq(p.kw("enum"), p.fullName(), p.punct("{"), combinator.Rep(sym, 0, -1), p.punct("}"))
	return func(c cursor.Cursor) combinator.Result {
		res := seq(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		name := vs[1].(string)
		var symbols []string
		for _, raw := range vs[3].([]any) {
			pair := raw.([]any)
			symbols = append(symbols, pair[0].(string))
		}
		s, err := p.b.Enum(name, symbols)
		if err != nil {
			return combinator.Failure(c, "%s", err.Error())
		}
		p.reg.Register(name, s)
		return combinator.Success(res.Match, res.Next, s)
	}
}

func (p *parser) fixed() combinator.Parser {
	seq := combinator.Seq(p.kw("fixed"), p.fullName(), p.punct("("), p.token(lex.Integer()), p.punct(")"))
	return func(c cursor.Cursor) combinator.Result {
		res := seq(c)
		if !res.OK {
			return res
		}
		vs := res.Value.([]any)
		name := vs[1].(string)
		size := int(vs[3].(int64))
		s, err := p.b.Fixed(name, size)
		if err != nil {
			return combinator.Failure(c, "%s", err.Error())
		}
		p.reg.Register(name, s)
		return combinator.Success(res.Match, res.Next, s)
	}
}

// record implements the two-phase record construction spec §9 requires:
// the prefix ('record' Name '{') is parsed and BeginRecord is called --
// which the host Builder must register in the NameRegistry immediately
// -- before the field list is parsed, so a field naming the record
// itself (typically inside a union, for a recursive type like a linked
// list) resolves via the registry instead of failing.
func (p *parser) record() combinator.Parser {
	prefix := combinator.Seq(p.kw("record"), p.fullName(), p.punct("{"))
	field := combinator.Seq(p.schema(), p.identifier(), combinator.Opt(combinator.Seq(p.punct("="), p.value())), p.separator())
	return func(c cursor.Cursor) combinator.Result {
		pres := prefix(c)
		if !pres.OK {
			return pres
		}
		pvs := pres.Value.([]any)
		name := pvs[1].(string)

		rec, err := p.b.BeginRecord(name)
		if err != nil {
			return combinator.Failure(c, "%s", err.Error())
		}

		fieldsP := combinator.Rep(field, 0, -1)
		fres := fieldsP(pres.Next)
		if !fres.OK {
			return fres
		}
		for _, raw := range fres.Value.([]any) {
			fvs := raw.([]any)
			fieldType := fvs[0].(Schema)
			fieldName := fvs[1].(string)
			if err := p.b.AddField(rec, fieldType, fieldName); err != nil {
				return combinator.Failure(fres.Next, "%s", err.Error())
			}
		}

		closeRes := p.punct("}")(fres.Next)
		if !closeRes.OK {
			return closeRes
		}

		finished, err := p.b.FinishRecord(rec)
		if err != nil {
			return combinator.Failure(c, "%s", err.Error())
		}
		return combinator.Success(c.Text[c.Pos:closeRes.Next.Pos], closeRes.Next, Schema(finished))
	}
}

// byName resolves a bare Name reference (an already-registered
// record/enum/fixed, possibly still under construction per the
// BeginRecord two-phase protocol above) through the NameRegistry.
func (p *parser) byName() combinator.Parser {
	return func(c cursor.Cursor) combinator.Result {
		res := p.fullName()(c)
		if !res.OK {
			return res
		}
		name := res.Value.(string)
		s, ok := p.reg.Lookup(name)
		if !ok {
			return combinator.Failure(c, "no known schema named %q", name)
		}
		return combinator.Success(res.Match, res.Next, Schema(s))
	}
}

// buildSchema assembles the full schema alternation: the keyword-leading
// compound forms (array/map/union/enum/fixed/record) first, then
// primitives, then a bare name reference last -- the alternation-ordering contract (spec §4.1) requires
// keyword-leading productions before the identifier-leading fallback,
// since an unqualified record/enum/fixed name would otherwise look like
// a plain Name reference.
func (p *parser) buildSchema() combinator.Parser {
	return combinator.Alt(
		p.array(), p.mapSchema(), p.union(), p.enum(), p.fixed(), p.record(),
		p.primitive(),
		p.byName(),
	)
}

// value is a minimal JSON-like literal grammar for Avro field default
// values (referenced but not specified by spec §6.3's Field production,
// "('=' value)?"): null, true/false, numbers, strings, arrays, and
// objects, matching JSON's value grammar -- the format Avro's own IDL
// uses for defaults.
func (p *parser) value() combinator.Parser { return p.valueFwd.Parser() }

func (p *parser) buildValue() combinator.Parser {
	nullLit := combinator.Map(p.kw("null"), func(any) any { return nil })
	boolLit := combinator.Alt(
		combinator.Map(p.kw("true"), func(any) any { return true }),
		combinator.Map(p.kw("false"), func(any) any { return false }),
	)
	numLit := p.token(lex.Number())
	strLit := p.token(lex.StringLiteral())

	arrElem := combinator.Seq(p.value(), combinator.Opt(p.punct(",")))
	arrLit := combinator.Seq(p.punct("["), combinator.Rep(arrElem, 0, -1), p.punct("]"))

	objField := combinator.Seq(strLit, p.punct(":"), p.value(), combinator.Opt(p.punct(",")))
	objLit := combinator.Seq(p.punct("{"), combinator.Rep(objField, 0, -1), p.punct("}"))

	return func(c cursor.Cursor) combinator.Result {
		res := combinator.Alt(nullLit, boolLit, numLit, strLit,
			func(c cursor.Cursor) combinator.Result {
				r := arrLit(c)
				if !r.OK {
					return r
				}
				vs := r.Value.([]any)
				var out []any
				for _, raw := range vs[1].([]any) {
					pair := raw.([]any)
					out = append(out, pair[0])
				}
				return combinator.Success(r.Match, r.Next, out)
			},
			func(c cursor.Cursor) combinator.Result {
				r := objLit(c)
				if !r.OK {
					return r
				}
				vs := r.Value.([]any)
				out := map[string]any{}
				for _, raw := range vs[1].([]any) {
					pair := raw.([]any)
					out[pair[0].(string)] = pair[2]
				}
				return combinator.Success(r.Match, r.Next, out)
			},
		)(c)
		return res
	}
}
