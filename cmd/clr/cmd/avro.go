package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-clr/avro"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var flagAvroPath string

var avroCmd = &cobra.Command{
	Use:   "avro [file]",
	Short: "Resolve an Avro schema written in the shorthand grammar and dump it as JSON",
	Long: `Avro reads an Avro schema (from a file argument, or stdin if none is
given) written in the shorthand grammar from spec §6.3/§9, resolves
named-type references, and prints the result as a JSON document built
field by field with sjson.

Pass --path to read a single field back out of that document with
gjson instead of printing the whole thing, demonstrating that the
sjson-built document round-trips through gjson.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAvro,
}

func init() {
	avroCmd.Flags().StringVar(&flagAvroPath, "path", "", "gjson path to read back from the resolved schema instead of printing it whole")
	rootCmd.AddCommand(avroCmd)
}

func runAvro(cmd *cobra.Command, args []string) error {
	source, err := readInput(args)
	if err != nil {
		return err
	}

	reg := newJSONRegistry()
	schema, err := avro.ParseAvroSchema(source, reg, reg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	doc := schema.(*jsonSchema).doc
	if flagAvroPath != "" {
		fmt.Println(gjson.Get(doc, flagAvroPath).String())
		return nil
	}
	fmt.Println(doc)
	return nil
}

// jsonSchema is a mutable handle onto a schema's JSON rendering. It is
// a pointer so that BeginRecord can register a record in the registry
// before AddField has finished appending its fields, letting a
// self-referential field (e.g. spec §9's IntList) resolve to the same
// node that record() goes on to fill in.
type jsonSchema struct {
	doc string
}

// jsonRegistry is both the avro.NameRegistry and avro.Builder for the
// CLI's JSON rendering: it builds each schema shape as a JSON
// document with sjson rather than a host-specific schema object,
// matching how clr/export.go builds ToJSON's output field by field.
type jsonRegistry struct {
	named map[string]*jsonSchema
}

func newJSONRegistry() *jsonRegistry {
	return &jsonRegistry{named: make(map[string]*jsonSchema)}
}

func (r *jsonRegistry) Register(name string, schema avro.Schema) {
	r.named[name] = schema.(*jsonSchema)
}

func (r *jsonRegistry) Lookup(fullname string) (avro.Schema, bool) {
	s, ok := r.named[fullname]
	if !ok {
		return nil, false
	}
	return s, true
}

func (r *jsonRegistry) Primitive(name string) (avro.Schema, error) {
	doc, err := sjson.Set("{}", "type", name)
	if err != nil {
		return nil, err
	}
	return &jsonSchema{doc: doc}, nil
}

func (r *jsonRegistry) Array(items avro.Schema) (avro.Schema, error) {
	doc, err := sjson.Set("{}", "type", "array")
	if err != nil {
		return nil, err
	}
	doc, err = sjson.SetRaw(doc, "items", items.(*jsonSchema).doc)
	if err != nil {
		return nil, err
	}
	return &jsonSchema{doc: doc}, nil
}

func (r *jsonRegistry) Map(values avro.Schema) (avro.Schema, error) {
	doc, err := sjson.Set("{}", "type", "map")
	if err != nil {
		return nil, err
	}
	doc, err = sjson.SetRaw(doc, "values", values.(*jsonSchema).doc)
	if err != nil {
		return nil, err
	}
	return &jsonSchema{doc: doc}, nil
}

func (r *jsonRegistry) Union(branches []avro.Schema) (avro.Schema, error) {
	doc := "[]"
	var err error
	for i, b := range branches {
		doc, err = sjson.SetRaw(doc, fmt.Sprintf("%d", i), b.(*jsonSchema).doc)
		if err != nil {
			return nil, err
		}
	}
	return &jsonSchema{doc: doc}, nil
}

func (r *jsonRegistry) Enum(name string, symbols []string) (avro.Schema, error) {
	doc, err := sjson.Set("{}", "type", "enum")
	if err != nil {
		return nil, err
	}
	doc, err = sjson.Set(doc, "name", name)
	if err != nil {
		return nil, err
	}
	doc, err = sjson.Set(doc, "symbols", symbols)
	if err != nil {
		return nil, err
	}
	s := &jsonSchema{doc: doc}
	r.named[name] = s
	return s, nil
}

func (r *jsonRegistry) Fixed(name string, size int) (avro.Schema, error) {
	doc, err := sjson.Set("{}", "type", "fixed")
	if err != nil {
		return nil, err
	}
	doc, err = sjson.Set(doc, "name", name)
	if err != nil {
		return nil, err
	}
	doc, err = sjson.Set(doc, "size", size)
	if err != nil {
		return nil, err
	}
	s := &jsonSchema{doc: doc}
	r.named[name] = s
	return s, nil
}

func (r *jsonRegistry) BeginRecord(name string) (avro.Schema, error) {
	doc, err := sjson.Set("{}", "type", "record")
	if err != nil {
		return nil, err
	}
	doc, err = sjson.Set(doc, "name", name)
	if err != nil {
		return nil, err
	}
	doc, err = sjson.Set(doc, "fields", []any{})
	if err != nil {
		return nil, err
	}
	s := &jsonSchema{doc: doc}
	r.named[name] = s
	return s, nil
}

func (r *jsonRegistry) AddField(record avro.Schema, fieldType avro.Schema, name string) error {
	rec := record.(*jsonSchema)
	fieldDoc, err := sjson.Set("{}", "name", name)
	if err != nil {
		return err
	}
	fieldDoc, err = sjson.SetRaw(fieldDoc, "type", fieldType.(*jsonSchema).doc)
	if err != nil {
		return err
	}
	doc, err := sjson.SetRaw(rec.doc, "fields.-1", fieldDoc)
	if err != nil {
		return err
	}
	rec.doc = doc
	return nil
}

func (r *jsonRegistry) FinishRecord(record avro.Schema) (avro.Schema, error) {
	return record, nil
}
