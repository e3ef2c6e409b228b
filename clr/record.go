package clr

import (
	"github.com/cwbudde/go-clr/clerr"
	"github.com/cwbudde/go-clr/cursor"
)

// Field pairs a name with a lazily-evaluated expression. The memoized
// value is populated at most once per Field instance (spec §3.4); the
// scope used on that first evaluation is always the owning Record, not
// whatever scope the caller happens to be evaluating under.
type Field struct {
	Name     string
	Expr     Node
	Exported bool

	evaluated bool
	value     Value
	err       error
}

// Eval evaluates the field's expression against owner exactly once,
// caching the result (or error) for every subsequent call regardless of
// what owner is passed afterward.
func (f *Field) Eval(owner *Record) (Value, error) {
	if f.evaluated {
		return f.value, f.err
	}
	f.value, f.err = f.Expr.Eval(owner)
	f.evaluated = true
	return f.value, f.err
}

// Clone returns a Field with the same name, expression, and exported
// flag, but a fresh, unevaluated memoization slot. This is what lets a
// Call or a Record merge reuse a field's expression in a new owning
// Record without leaking the old memoized value (spec §3.4).
func (f *Field) Clone() *Field {
	return &Field{Name: f.Name, Expr: f.Expr, Exported: f.Exported}
}

// Record is an ordered map from field name to Field. Order is the
// declaration order of the fields as parsed; it is preserved through
// Clone and Merge and drives ToJSON's output ordering (SPEC_FULL §4
// item 4); Export returns a Go map, which keeps no order.
type Record struct {
	order  []string
	fields map[string]*Field
}

// NewRecord builds a Record from fields in the given order. Later
// fields with a name already seen overwrite the earlier entry but keep
// its original position, matching how record-literal parsing handles a
// repeated field name.
func NewRecord(fields []*Field) *Record {
	r := &Record{fields: make(map[string]*Field, len(fields))}
	for _, f := range fields {
		r.set(f)
	}
	return r
}

func (r *Record) set(f *Field) {
	if _, exists := r.fields[f.Name]; !exists {
		r.order = append(r.order, f.Name)
	}
	r.fields[f.Name] = f
}

func (r *Record) Type() string   { return "record" }
func (r *Record) String() string { return "record" }

// Eval returns the Record itself: a Record is a self-describing value,
// not an expression that reduces to something else (spec §3.3).
func (r *Record) Eval(*Record) (Value, error) { return r, nil }

// Get evaluates the named field against r itself — the invariant from
// spec §3.4: record.Get(name) ≡ fields[name].Eval(record), never the
// scope passed to whatever expression is calling Get.
func (r *Record) Get(name string) (Value, error) {
	f, ok := r.fields[name]
	if !ok {
		return nil, clerr.NotFound(clerr.FieldNotFound, cursor.Cursor{}, name)
	}
	return f.Eval(r)
}

// Fields returns the record's fields in declaration order. Callers must
// not mutate the returned slice's Fields in place; use Clone.
func (r *Record) Fields() []*Field {
	out := make([]*Field, len(r.order))
	for i, name := range r.order {
		out[i] = r.fields[name]
	}
	return out
}

// Clone returns a Record with the same fields (Cloned, so each gets a
// fresh memoization slot) in the same order.
func (r *Record) Clone() *Record {
	out := &Record{fields: make(map[string]*Field, len(r.fields)), order: append([]string(nil), r.order...)}
	for name, f := range r.fields {
		out.fields[name] = f.Clone()
	}
	return out
}

// Merge implements `+` (spec §3.4): the receiver's fields (cloned),
// extended by other's fields (cloned); on name collision other
// shadows the receiver but keeps the receiver's original position in
// the field order.
func (r *Record) Merge(other *Record) *Record {
	out := r.Clone()
	for _, name := range other.order {
		out.set(other.fields[name].Clone())
	}
	return out
}
