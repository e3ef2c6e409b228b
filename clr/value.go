// Package clr implements the configuration-language runtime: a
// lazily-evaluated expression graph over records, lists, and first-class
// record "functions". See spec §3 and §4 for the node set and
// evaluation semantics this package implements.
package clr

import "strconv"

// Value is anything a CLR expression can evaluate to: a primitive,
// a *Record, or a *List.
type Value interface {
	Type() string
	String() string
}

// Bool, Int, Float, and Str wrap the four primitive kinds named in
// spec §3.3 (bool/int/float/string) as Values.
type (
	Bool  bool
	Int   int64
	Float float64
	Str   string
)

func (Bool) Type() string  { return "bool" }
func (Int) Type() string   { return "int" }
func (Float) Type() string { return "float" }
func (Str) Type() string   { return "string" }

func (b Bool) String() string  { return strconv.FormatBool(bool(b)) }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }
func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (s Str) String() string   { return string(s) }
