// Operator functions wired into UnaryOp/BinOp nodes by the CL
// front-end's precedence cascade (spec §4.3/§4.4). Every function here
// has the `func(Value) (Value, error)` or `func(Value, Value) (Value, error)`
// shape the node types expect as their Fn field.
package clr

import (
	"fmt"
	"math"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func typeMismatch(op string, got ...Value) error {
	types := make([]string, len(got))
	for i, v := range got {
		types[i] = v.Type()
	}
	return fmt.Errorf("operator %s: unsupported operand type(s) %v", op, types)
}

// Neg implements unary `-`.
func Neg(v Value) (Value, error) {
	switch n := v.(type) {
	case Int:
		return -n, nil
	case Float:
		return -n, nil
	default:
		return nil, typeMismatch("-", v)
	}
}

// Not implements unary `not`.
func Not(v Value) (Value, error) {
	b, ok := v.(Bool)
	if !ok {
		return nil, typeMismatch("not", v)
	}
	return !b, nil
}

func numeric(v Value) (float64, bool, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true, true
	case Float:
		return float64(n), false, true
	default:
		return 0, false, false
	}
}

// Add implements `+` over int/int, float/float, and mixed int/float
// (promoted to float). String `+` is concatenation, and record `+` is
// Merge (the right operand's fields shadow the left's).
func Add(l, r Value) (Value, error) {
	if lr, ok := l.(*Record); ok {
		if rr, ok := r.(*Record); ok {
			return lr.Merge(rr), nil
		}
		return nil, typeMismatch("+", l, r)
	}
	if ls, ok := l.(Str); ok {
		if rs, ok := r.(Str); ok {
			return ls + rs, nil
		}
		return nil, typeMismatch("+", l, r)
	}
	return arith("+", l, r,
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b })
}

// Sub implements `-`.
func Sub(l, r Value) (Value, error) {
	return arith("-", l, r,
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b })
}

// Mul implements `*`.
func Mul(l, r Value) (Value, error) {
	return arith("*", l, r,
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b })
}

// Div implements `/`. Per SPEC_FULL §4 item 3, both operands are
// promoted to float64 regardless of their original type (so 1/2 =
// 0.5), and division by zero is a TypeMismatch naming the operator
// rather than a distinct error kind.
func Div(l, r Value) (Value, error) {
	lf, _, lok := numeric(l)
	rf, _, rok := numeric(r)
	if !lok || !rok {
		return nil, typeMismatch("/", l, r)
	}
	if rf == 0 {
		return nil, typeMismatch("/ (division by zero)", l, r)
	}
	return Float(lf / rf), nil
}

// Pow implements `**`. Integer base and non-negative integer exponent
// stay exact integer arithmetic; any other combination (negative or
// fractional exponent, either operand already a float) promotes to
// float and defers to math.Pow.
func Pow(l, r Value) (Value, error) {
	li, liok := l.(Int)
	ri, riok := r.(Int)
	if liok && riok && ri >= 0 {
		result := int64(1)
		base := int64(li)
		for i := int64(0); i < int64(ri); i++ {
			result *= base
		}
		return Int(result), nil
	}
	lf, _, lok := numeric(l)
	rf, _, rok := numeric(r)
	if !lok || !rok {
		return nil, typeMismatch("**", l, r)
	}
	return Float(math.Pow(lf, rf)), nil
}

func arith(op string, l, r Value, intFn func(a, b int64) int64, floatFn func(a, b float64) float64) (Value, error) {
	li, liok := l.(Int)
	ri, riok := r.(Int)
	if liok && riok {
		return Int(intFn(int64(li), int64(ri))), nil
	}
	lf, _, lok := numeric(l)
	rf, _, rok := numeric(r)
	if !lok || !rok {
		return nil, typeMismatch(op, l, r)
	}
	return Float(floatFn(lf, rf)), nil
}

// Eq and Ne implement `==`/`!=` across primitives. Two values of
// different concrete types (other than numeric int/float) are simply
// unequal rather than a type error, matching equality's usual total
// behavior in dynamically-typed configuration languages.
func Eq(l, r Value) (Value, error) { return Bool(valuesEqual(l, r)), nil }
func Ne(l, r Value) (Value, error) { return Bool(!valuesEqual(l, r)), nil }

func valuesEqual(l, r Value) bool {
	lf, _, lok := numeric(l)
	rf, _, rok := numeric(r)
	if lok && rok {
		return lf == rf
	}
	if ls, ok := l.(Str); ok {
		if rs, ok := r.(Str); ok {
			return compareStrings(ls, rs) == 0
		}
	}
	if lb, ok := l.(Bool); ok {
		if rb, ok := r.(Bool); ok {
			return lb == rb
		}
	}
	return false
}

// Lt, Le, Gt, Ge implement the ordering comparisons. Numeric operands
// compare as numbers; string operands compare using a root-locale
// (language.Und) collator from golang.org/x/text/collate rather than raw
// byte order, so accented and composed characters order by Unicode
// collation rather than by byte value.
func Lt(l, r Value) (Value, error) { return compareOp("<", l, r, func(c int) bool { return c < 0 }) }
func Le(l, r Value) (Value, error) {
	return compareOp("<=", l, r, func(c int) bool { return c <= 0 })
}
func Gt(l, r Value) (Value, error) { return compareOp(">", l, r, func(c int) bool { return c > 0 }) }
func Ge(l, r Value) (Value, error) {
	return compareOp(">=", l, r, func(c int) bool { return c >= 0 })
}

func compareOp(op string, l, r Value, test func(int) bool) (Value, error) {
	c, err := compareValues(op, l, r)
	if err != nil {
		return nil, err
	}
	return Bool(test(c)), nil
}

func compareValues(op string, l, r Value) (int, error) {
	lf, _, lok := numeric(l)
	rf, _, rok := numeric(r)
	if lok && rok {
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	ls, lok := l.(Str)
	rs, rok := r.(Str)
	if lok && rok {
		return compareStrings(ls, rs), nil
	}
	return 0, typeMismatch(op, l, r)
}

var collator = collate.New(language.Und)

func compareStrings(a, b Str) int {
	return collator.CompareString(string(a), string(b))
}

// And and Or exist so the front-end can build a plain BinOp for
// `and`/`or` where short-circuiting is not required (e.g. in contexts
// fully eager already); the CL grammar itself uses ShortCircuitOp, see
// node.go, so these are a non-lazy fallback that the grammar does not
// use.
func And(l, r Value) (Value, error) {
	lb, ok := l.(Bool)
	if !ok {
		return nil, typeMismatch("and", l, r)
	}
	rb, ok := r.(Bool)
	if !ok {
		return nil, typeMismatch("and", l, r)
	}
	return lb && rb, nil
}

func Or(l, r Value) (Value, error) {
	lb, ok := l.(Bool)
	if !ok {
		return nil, typeMismatch("or", l, r)
	}
	rb, ok := r.(Bool)
	if !ok {
		return nil, typeMismatch("or", l, r)
	}
	return lb || rb, nil
}
