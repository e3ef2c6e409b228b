package clr

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Export materializes v into a plain tree of Go primitives, maps, and
// slices (spec §4.7). This is the single point at which laziness
// becomes strictness: a Record export forces every *exported* field
// exactly once (via its memoization slot); non-exported fields are
// omitted from the result but stay reachable for internal references
// that never go through Export.
func Export(v Value) (any, error) {
	switch val := v.(type) {
	case *Record:
		out := make(map[string]any, len(val.order))
		for _, name := range val.order {
			f := val.fields[name]
			if !f.Exported {
				continue
			}
			fv, err := f.Eval(val)
			if err != nil {
				return nil, err
			}
			ev, err := Export(fv)
			if err != nil {
				return nil, err
			}
			out[name] = ev
		}
		return out, nil
	case *List:
		out := make([]any, len(val.Elems))
		for i, elem := range val.Elems {
			ev, err := elem.Eval(nil)
			if err != nil {
				return nil, err
			}
			exported, err := Export(ev)
			if err != nil {
				return nil, err
			}
			out[i] = exported
		}
		return out, nil
	case Bool:
		return bool(val), nil
	case Int:
		return int64(val), nil
	case Float:
		return float64(val), nil
	case Str:
		return string(val), nil
	default:
		return nil, fmt.Errorf("clr: cannot export value of type %s", v.Type())
	}
}

// ToJSON exports v and serializes it as JSON. Unlike Export (which
// hands back a plain Go map with no ordering guarantee), ToJSON walks
// the Record/List graph directly and builds the document field by
// field with sjson, so a record's declaration order (SPEC_FULL §4 item
// 4) survives into the JSON key order instead of being scrambled by a
// Go map round trip.
func ToJSON(v Value) (string, error) {
	switch val := v.(type) {
	case *Record:
		doc := "{}"
		for _, name := range val.order {
			f := val.fields[name]
			if !f.Exported {
				continue
			}
			fv, err := f.Eval(val)
			if err != nil {
				return "", err
			}
			doc, err = setJSONField(doc, name, fv)
			if err != nil {
				return "", err
			}
		}
		return doc, nil
	case *List:
		doc := "[]"
		for i, elem := range val.Elems {
			ev, err := elem.Eval(nil)
			if err != nil {
				return "", err
			}
			doc, err = setJSONField(doc, fmt.Sprintf("%d", i), ev)
			if err != nil {
				return "", err
			}
		}
		return doc, nil
	default:
		return scalarJSON(val)
	}
}

// scalarJSON renders a bare primitive as a JSON literal. Top-level CL
// documents are always records (§4.3's grammar starts at a record
// literal), so this path only matters for ad-hoc primitive values
// handed to ToJSON directly, e.g. from tests.
func scalarJSON(v Value) (string, error) {
	switch val := v.(type) {
	case Bool:
		return fmt.Sprintf("%t", bool(val)), nil
	case Int:
		return fmt.Sprintf("%d", int64(val)), nil
	case Float:
		return fmt.Sprintf("%v", float64(val)), nil
	case Str:
		return strconv.Quote(string(val)), nil
	default:
		return "", fmt.Errorf("clr: cannot render %s as JSON", v.Type())
	}
}

// setJSONField sets path within doc to v's JSON rendering, recursing
// through ToJSON for nested records/lists (via SetRaw) and through
// sjson.Set directly for primitives.
func setJSONField(doc, path string, v Value) (string, error) {
	switch v.(type) {
	case *Record, *List:
		raw, err := ToJSON(v)
		if err != nil {
			return "", err
		}
		return sjson.SetRaw(doc, path, raw)
	default:
		exported, err := Export(v)
		if err != nil {
			return "", err
		}
		return sjson.Set(doc, path, exported)
	}
}

// ParseJSONPath reads a single field out of a JSON document built by
// ToJSON with gjson, without re-decoding the whole document.
func ParseJSONPath(document, path string) gjson.Result {
	return gjson.Get(document, path)
}

// ToYAML exports v and marshals it as YAML.
func ToYAML(v Value) (string, error) {
	exported, err := Export(v)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(exported)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
