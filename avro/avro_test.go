package avro

import (
	"fmt"
	"testing"
)

// recordSchema and the other *Schema types below stand in for a real
// Avro library's schema object model (spec §1 Out of scope: "its
// schema object model is owned by an external library"). They exist
// only so these tests can drive the grammar end to end.
type primitiveSchema struct{ name string }
type arraySchema struct{ items Schema }
type mapSchema struct{ values Schema }
type unionSchema struct{ branches []Schema }
type enumSchema struct {
	name    string
	symbols []string
}
type fixedSchema struct {
	name string
	size int
}
type fieldSchema struct {
	name string
	typ  Schema
}
type recordSchema struct {
	name   string
	fields []fieldSchema
}

type testRegistry struct {
	byName map[string]Schema
}

func newTestRegistry() *testRegistry {
	return &testRegistry{byName: map[string]Schema{}}
}

func (r *testRegistry) Register(name string, schema Schema) { r.byName[name] = schema }
func (r *testRegistry) Lookup(fullname string) (Schema, bool) {
	s, ok := r.byName[fullname]
	return s, ok
}

type testBuilder struct{ reg *testRegistry }

func (b *testBuilder) Primitive(name string) (Schema, error) { return &primitiveSchema{name: name}, nil }
func (b *testBuilder) Array(items Schema) (Schema, error)    { return &arraySchema{items: items}, nil }
func (b *testBuilder) Map(values Schema) (Schema, error)     { return &mapSchema{values: values}, nil }
func (b *testBuilder) Union(branches []Schema) (Schema, error) {
	return &unionSchema{branches: branches}, nil
}
func (b *testBuilder) Enum(name string, symbols []string) (Schema, error) {
	return &enumSchema{name: name, symbols: symbols}, nil
}
func (b *testBuilder) Fixed(name string, size int) (Schema, error) {
	return &fixedSchema{name: name, size: size}, nil
}
func (b *testBuilder) BeginRecord(name string) (Schema, error) {
	rec := &recordSchema{name: name}
	b.reg.Register(name, rec)
	return rec, nil
}
func (b *testBuilder) AddField(record Schema, fieldType Schema, name string) error {
	rec := record.(*recordSchema)
	rec.fields = append(rec.fields, fieldSchema{name: name, typ: fieldType})
	return nil
}
func (b *testBuilder) FinishRecord(record Schema) (Schema, error) { return record, nil }

func newTestBuilder(reg *testRegistry) *testBuilder { return &testBuilder{reg: reg} }

func TestParsePrimitive(t *testing.T) {
	reg := newTestRegistry()
	s, err := ParseAvroSchema("string", reg, newTestBuilder(reg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := s.(*primitiveSchema)
	if !ok || p.name != "string" {
		t.Fatalf("expected primitive string, got %#v", s)
	}
}

func TestParseArrayOfMap(t *testing.T) {
	reg := newTestRegistry()
	s, err := ParseAvroSchema("array<map<int>>", reg, newTestBuilder(reg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arr, ok := s.(*arraySchema)
	if !ok {
		t.Fatalf("expected array schema, got %#v", s)
	}
	m, ok := arr.items.(*mapSchema)
	if !ok {
		t.Fatalf("expected array of map, got %#v", arr.items)
	}
	if _, ok := m.values.(*primitiveSchema); !ok {
		t.Fatalf("expected map of int, got %#v", m.values)
	}
}

func TestParseUnion(t *testing.T) {
	reg := newTestRegistry()
	s, err := ParseAvroSchema("union { null, string, int }", reg, newTestBuilder(reg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := s.(*unionSchema)
	if !ok || len(u.branches) != 3 {
		t.Fatalf("expected a 3-branch union, got %#v", s)
	}
}

func TestParseEnum(t *testing.T) {
	reg := newTestRegistry()
	s, err := ParseAvroSchema("enum Suit { SPADES, HEARTS, CLUBS, DIAMONDS }", reg, newTestBuilder(reg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, ok := s.(*enumSchema)
	if !ok || e.name != "Suit" || len(e.symbols) != 4 {
		t.Fatalf("expected a 4-symbol Suit enum, got %#v", s)
	}
	if looked, ok := reg.Lookup("Suit"); !ok || looked != s {
		t.Fatalf("expected Suit to be registered")
	}
}

func TestParseFixed(t *testing.T) {
	reg := newTestRegistry()
	s, err := ParseAvroSchema("fixed MD5(16)", reg, newTestBuilder(reg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, ok := s.(*fixedSchema)
	if !ok || f.name != "MD5" || f.size != 16 {
		t.Fatalf("expected fixed MD5(16), got %#v", s)
	}
}

func TestParseRecord(t *testing.T) {
	reg := newTestRegistry()
	s, err := ParseAvroSchema(`record Person {
		string name;
		int age;
	}`, reg, newTestBuilder(reg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, ok := s.(*recordSchema)
	if !ok || r.name != "Person" || len(r.fields) != 2 {
		t.Fatalf("expected a 2-field Person record, got %#v", s)
	}
	if r.fields[0].name != "name" || r.fields[1].name != "age" {
		t.Fatalf("expected fields [name, age] in declaration order, got %#v", r.fields)
	}
}

// TestParseRecursiveRecord exercises the two-phase BeginRecord/
// FinishRecord construction (spec §9): IntList's own name must resolve
// inside its own field list, via the registry, before the record
// finishes parsing.
func TestParseRecursiveRecord(t *testing.T) {
	reg := newTestRegistry()
	s, err := ParseAvroSchema(`record IntList {
		int value;
		union { null, IntList } next;
	}`, reg, newTestBuilder(reg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, ok := s.(*recordSchema)
	if !ok || r.name != "IntList" || len(r.fields) != 2 {
		t.Fatalf("expected a 2-field IntList record, got %#v", s)
	}
	nextField := r.fields[1]
	u, ok := nextField.typ.(*unionSchema)
	if !ok || len(u.branches) != 2 {
		t.Fatalf("expected next: union{null, IntList}, got %#v", nextField.typ)
	}
	self, ok := u.branches[1].(*recordSchema)
	if !ok || self != r {
		t.Fatalf("expected the union's second branch to be IntList itself, got %#v", u.branches[1])
	}
}

func TestParseFieldDefaultValue(t *testing.T) {
	reg := newTestRegistry()
	_, err := ParseAvroSchema(`record Point {
		int x = 0;
		int y = 0;
	}`, reg, newTestBuilder(reg))
	if err != nil {
		t.Fatalf("unexpected error parsing field defaults: %v", err)
	}
}

func TestParseUnknownNameFails(t *testing.T) {
	reg := newTestRegistry()
	if _, err := ParseAvroSchema("NoSuchType", reg, newTestBuilder(reg)); err == nil {
		t.Fatal("expected an error for an unregistered name reference")
	}
}

func TestParseResidualInputFails(t *testing.T) {
	reg := newTestRegistry()
	if _, err := ParseAvroSchema("string garbage", reg, newTestBuilder(reg)); err == nil {
		t.Fatal("expected an InvalidSource error for residual input")
	}
}

func ExampleParseAvroSchema() {
	reg := newTestRegistry()
	s, _ := ParseAvroSchema("array<string>", reg, newTestBuilder(reg))
	arr := s.(*arraySchema)
	fmt.Println(arr.items.(*primitiveSchema).name)
	// Output: string
}
