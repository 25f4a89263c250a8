// Package gql models the boolean filter expression consumed by the
// aggregation backend (the "GQL filter").
//
// A filter is a tree of primitive predicates:
//
//	{"IN":{"field":["a","b"]}}                  membership
//	{"GTE":{"field":0}} / {"LTE":{"field":1}}   inclusive bounds
//	{"AND":[...]} / {"OR":[...]}                boolean combination
//	{"nested":{"path":"p","AND":[...]}}         scope to a nested document
//
// Every node implements [Filter] and marshals to exactly the wire shape
// above. [Parse] reads the same shape back.
package gql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Op is a boolean combinator.
type Op string

const (
	OpAnd Op = "AND"
	OpOr  Op = "OR"
)

// Valid reports whether op is AND or OR.
func (op Op) Valid() bool {
	return op == OpAnd || op == OpOr
}

// Filter is a node of a GQL filter tree.
type Filter interface {
	json.Marshaler
	// Clone returns a deep copy of the node and its children.
	Clone() Filter
	isFilter()
}

// In is a membership predicate: the field must hold one of Values.
type In struct {
	Field  string
	Values []string
}

// GTE is an inclusive lower bound on a numeric field.
type GTE struct {
	Field string
	Value float64
}

// LTE is an inclusive upper bound on a numeric field.
type LTE struct {
	Field string
	Value float64
}

// Bool combines child filters with AND or OR.
type Bool struct {
	Op      Op
	Filters []Filter
}

// Nested restricts its children to documents under Path. Children are
// combined with Op.
type Nested struct {
	Path    string
	Op      Op
	Filters []Filter
}

// And returns a conjunction of filters.
func And(filters ...Filter) *Bool {
	return &Bool{Op: OpAnd, Filters: filters}
}

// Or returns a disjunction of filters.
func Or(filters ...Filter) *Bool {
	return &Bool{Op: OpOr, Filters: filters}
}

// Range returns AND[GTE, LTE] for an inclusive range.
func Range(field string, lo, hi float64) *Bool {
	return And(&GTE{Field: field, Value: lo}, &LTE{Field: field, Value: hi})
}

func (*In) isFilter()     {}
func (*GTE) isFilter()    {}
func (*LTE) isFilter()    {}
func (*Bool) isFilter()   {}
func (*Nested) isFilter() {}

func (f *In) Clone() Filter  { return &In{Field: f.Field, Values: slices.Clone(f.Values)} }
func (f *GTE) Clone() Filter { c := *f; return &c }
func (f *LTE) Clone() Filter { c := *f; return &c }

func (f *Bool) Clone() Filter {
	return &Bool{Op: f.Op, Filters: cloneAll(f.Filters)}
}

func (f *Nested) Clone() Filter {
	return &Nested{Path: f.Path, Op: f.Op, Filters: cloneAll(f.Filters)}
}

func cloneAll(filters []Filter) []Filter {
	if filters == nil {
		return nil
	}
	out := make([]Filter, len(filters))
	for i, f := range filters {
		out[i] = f.Clone()
	}
	return out
}

// MarshalJSON encodes {"IN":{field:[values]}}.
func (f *In) MarshalJSON() ([]byte, error) {
	values := f.Values
	if values == nil {
		values = []string{}
	}
	return json.Marshal(map[string]map[string][]string{"IN": {f.Field: values}})
}

// MarshalJSON encodes {"GTE":{field:value}}.
func (f *GTE) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]float64{"GTE": {f.Field: f.Value}})
}

// MarshalJSON encodes {"LTE":{field:value}}.
func (f *LTE) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]float64{"LTE": {f.Field: f.Value}})
}

// MarshalJSON encodes {"AND":[...]} or {"OR":[...]}.
func (f *Bool) MarshalJSON() ([]byte, error) {
	if !f.Op.Valid() {
		return nil, fmt.Errorf("gql: invalid combinator %q", f.Op)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "{%q:", f.Op)
	if err := writeList(&buf, f.Filters); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes {"nested":{"path":path,"AND":[...]}}.
func (f *Nested) MarshalJSON() ([]byte, error) {
	if !f.Op.Valid() {
		return nil, fmt.Errorf("gql: invalid combinator %q", f.Op)
	}
	path, err := json.Marshal(f.Path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"nested":{"path":`)
	buf.Write(path)
	fmt.Fprintf(&buf, ",%q:", f.Op)
	if err := writeList(&buf, f.Filters); err != nil {
		return nil, err
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func writeList(buf *bytes.Buffer, filters []Filter) error {
	buf.WriteByte('[')
	for i, child := range filters {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := child.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return nil
}

// Parse decodes a filter tree from its JSON wire shape.
func Parse(data []byte) (Filter, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("gql: %w", err)
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("gql: filter node must have exactly one key, got %d", len(obj))
	}
	for key, raw := range obj {
		switch key {
		case "IN":
			field, values, err := single[[]string](key, raw)
			if err != nil {
				return nil, err
			}
			return &In{Field: field, Values: values}, nil
		case "GTE":
			field, v, err := single[float64](key, raw)
			if err != nil {
				return nil, err
			}
			return &GTE{Field: field, Value: v}, nil
		case "LTE":
			field, v, err := single[float64](key, raw)
			if err != nil {
				return nil, err
			}
			return &LTE{Field: field, Value: v}, nil
		case string(OpAnd), string(OpOr):
			children, err := parseList(raw)
			if err != nil {
				return nil, err
			}
			return &Bool{Op: Op(key), Filters: children}, nil
		case "nested":
			return parseNested(raw)
		default:
			return nil, fmt.Errorf("gql: unknown filter operator %q", key)
		}
	}
	panic("unreachable")
}

func single[T any](op string, raw json.RawMessage) (string, T, error) {
	var zero T
	var m map[string]T
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", zero, fmt.Errorf("gql: %s: %w", op, err)
	}
	if len(m) != 1 {
		return "", zero, fmt.Errorf("gql: %s must name exactly one field", op)
	}
	for field, v := range m {
		return field, v, nil
	}
	return "", zero, nil
}

func parseList(raw json.RawMessage) ([]Filter, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("gql: %w", err)
	}
	out := make([]Filter, 0, len(items))
	for _, item := range items {
		f, err := Parse(item)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func parseNested(raw json.RawMessage) (Filter, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("gql: nested: %w", err)
	}
	var n Nested
	if err := json.Unmarshal(obj["path"], &n.Path); err != nil || n.Path == "" {
		return nil, fmt.Errorf("gql: nested filter requires a path")
	}
	for _, op := range []Op{OpAnd, OpOr} {
		list, ok := obj[string(op)]
		if !ok {
			continue
		}
		if n.Op != "" {
			return nil, fmt.Errorf("gql: nested filter has both AND and OR")
		}
		children, err := parseList(list)
		if err != nil {
			return nil, err
		}
		n.Op, n.Filters = op, children
	}
	if n.Op == "" {
		return nil, fmt.Errorf("gql: nested filter %q has no AND or OR list", n.Path)
	}
	return &n, nil
}
