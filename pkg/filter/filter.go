// Package filter models the explorer's filter state and compiles it into
// the boolean GQL filter expression consumed by the aggregation backend.
//
// # Filter state
//
// A [State] maps filter keys to values. A key is either a field name
// ("gender") or a compound "path.field" key addressing a field inside a
// nested document ("diagnoses.stage"). Values form a closed tagged union:
//
//   - [Option]: selected values, optionally with a combine mode
//   - [Range]: an inclusive numeric range
//   - [Anchored]: a sub-state scoped by an "anchorField:anchorValue" key
//
// Key order is significant. A State remembers insertion order and
// [Compile] walks keys in that order, so compiled output is reproducible
// down to list order.
//
// # JSON
//
// Each value carries a "__type" discriminant ("OPTION", "RANGE" or
// "ANCHORED"). Values from producers that omit the discriminant are
// classified once at decode time from the keys they carry. Values that
// match no shape decode successfully but fail compilation with an
// [*InvalidFilterError] holding the raw JSON.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Kind discriminates filter values.
type Kind string

const (
	KindOption   Kind = "OPTION"
	KindRange    Kind = "RANGE"
	KindAnchored Kind = "ANCHORED"
)

// CombineMode selects how sibling predicates are combined.
type CombineMode string

const (
	CombineAnd CombineMode = "AND"
	CombineOr  CombineMode = "OR"
)

// Value is one entry of a filter state.
type Value interface {
	Kind() Kind
	clone() Value
}

// Option is a membership filter. With CombineMode AND every selected value
// must match on its own; otherwise any selected value matches.
// An Option with no values but a combine mode is a setting-only entry.
type Option struct {
	SelectedValues []string
	CombineMode    CombineMode
}

// Range is an inclusive numeric range.
type Range struct {
	LowerBound float64
	UpperBound float64
}

// Anchored is a sub-state whose nested predicates are restricted to
// documents matching the anchor encoded in its key.
type Anchored struct {
	Filter State
}

// invalid holds a value that matched no known shape.
type invalid struct {
	raw json.RawMessage
}

func (Option) Kind() Kind   { return KindOption }
func (Range) Kind() Kind    { return KindRange }
func (Anchored) Kind() Kind { return KindAnchored }
func (invalid) Kind() Kind  { return "" }

func (o Option) clone() Value {
	return Option{SelectedValues: slices.Clone(o.SelectedValues), CombineMode: o.CombineMode}
}
func (r Range) clone() Value    { return r }
func (a Anchored) clone() Value { return Anchored{Filter: a.Filter.Clone()} }
func (v invalid) clone() Value  { return invalid{raw: slices.Clone(v.raw)} }

// IsEmpty reports whether the option neither filters nor carries a setting.
func (o Option) IsEmpty() bool {
	return len(o.SelectedValues) == 0 && o.CombineMode == ""
}

// Entry is a key/value pair used to build a State.
type Entry struct {
	Key   string
	Value Value
}

// State is an insertion-ordered filter state. The zero value is an empty
// state ready to use.
type State struct {
	keys   []string
	values map[string]Value
}

// NewState returns a state holding entries in the given order. A repeated
// key keeps its first position and its last value.
func NewState(entries ...Entry) State {
	var s State
	for _, e := range entries {
		s.Set(e.Key, e.Value)
	}
	return s
}

// Len returns the number of entries.
func (s State) Len() int { return len(s.keys) }

// Keys returns the keys in insertion order.
func (s State) Keys() []string { return slices.Clone(s.keys) }

// Get returns the value stored under key.
func (s State) Get(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores v under key. An existing key keeps its position.
func (s *State) Set(key string, v Value) {
	if s.values == nil {
		s.values = make(map[string]Value)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// Delete removes key from the state.
func (s *State) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{keys: slices.Clone(s.keys)}
	if s.values != nil {
		out.values = make(map[string]Value, len(s.values))
		for k, v := range s.values {
			if v != nil {
				v = v.clone()
			}
			out.values[k] = v
		}
	}
	return out
}

// Equal reports whether two states hold the same entries in the same order.
func (s State) Equal(other State) bool {
	a, errA := json.Marshal(s)
	b, errB := json.Marshal(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// MarshalJSON writes the state as a JSON object in insertion order.
func (s State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := marshalValue(s.values[key])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping key order.
func (s *State) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = State{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("filter state must be a JSON object")
	}
	var out State
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("filter %q: %w", key, err)
		}
		out.Set(key, decodeValue(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

type wireValue struct {
	Type           Kind        `json:"__type,omitempty"`
	SelectedValues []string    `json:"selectedValues,omitempty"`
	CombineMode    CombineMode `json:"__combineMode,omitempty"`
	LowerBound     *float64    `json:"lowerBound,omitempty"`
	UpperBound     *float64    `json:"upperBound,omitempty"`
	Filter         *State      `json:"filter,omitempty"`
}

func marshalValue(v Value) ([]byte, error) {
	switch v := v.(type) {
	case Option:
		return json.Marshal(wireValue{Type: KindOption, SelectedValues: v.SelectedValues, CombineMode: v.CombineMode})
	case Range:
		lo, hi := v.LowerBound, v.UpperBound
		return json.Marshal(wireValue{Type: KindRange, LowerBound: &lo, UpperBound: &hi})
	case Anchored:
		f := v.Filter
		return json.Marshal(wireValue{Type: KindAnchored, Filter: &f})
	case invalid:
		return v.raw, nil
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("unsupported filter value %T", v)
	}
}

// decodeValue classifies one raw JSON value. It never fails; unrecognised
// input becomes an invalid value that compilation rejects.
func decodeValue(raw json.RawMessage) Value {
	bad := invalid{raw: slices.Clone(raw)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return bad
	}

	var kind Kind
	if t, ok := fields["__type"]; ok {
		if err := json.Unmarshal(t, &kind); err != nil {
			return bad
		}
	} else {
		kind = inferKind(fields)
	}

	switch kind {
	case KindOption:
		var o Option
		if v, ok := fields["selectedValues"]; ok {
			if err := json.Unmarshal(v, &o.SelectedValues); err != nil {
				return bad
			}
		}
		if v, ok := combineModeField(fields); ok {
			if err := json.Unmarshal(v, &o.CombineMode); err != nil {
				return bad
			}
			if o.CombineMode != CombineAnd && o.CombineMode != CombineOr {
				return bad
			}
		}
		return o
	case KindRange:
		lo, okLo := number(fields["lowerBound"])
		hi, okHi := number(fields["upperBound"])
		if !okLo || !okHi {
			return bad
		}
		return Range{LowerBound: lo, UpperBound: hi}
	case KindAnchored:
		var sub State
		v, ok := fields["filter"]
		if !ok {
			return bad
		}
		if err := json.Unmarshal(v, &sub); err != nil {
			return bad
		}
		return Anchored{Filter: sub}
	default:
		return bad
	}
}

// inferKind classifies a value without a discriminant by the keys it
// carries. A range-shaped value whose bounds are not numbers falls back to
// the option shape when it also carries option keys.
func inferKind(fields map[string]json.RawMessage) Kind {
	_, hasFilter := fields["filter"]
	_, hasLower := fields["lowerBound"]
	_, hasValues := fields["selectedValues"]
	_, hasMode := combineModeField(fields)

	switch {
	case hasFilter:
		return KindAnchored
	case hasLower:
		_, okLo := number(fields["lowerBound"])
		_, okHi := number(fields["upperBound"])
		if (okLo && okHi) || !(hasValues || hasMode) {
			return KindRange
		}
		return KindOption
	case hasValues || hasMode:
		return KindOption
	default:
		return ""
	}
}

// combineModeField returns the option combine mode, written either as
// "__combineMode" or "combineMode". The former wins when both are present.
func combineModeField(fields map[string]json.RawMessage) (json.RawMessage, bool) {
	if v, ok := fields["__combineMode"]; ok {
		return v, true
	}
	v, ok := fields["combineMode"]
	return v, ok
}

func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}
