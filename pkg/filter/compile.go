package filter

import (
	"math"
	"strings"

	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/gql"
)

// Compile converts a filter state into a GQL filter.
//
// It returns nil for an empty state. Otherwise the result is a single
// combinator node holding top-level predicates first, then one nested node
// per document path in first-seen order. An empty mode means AND.
//
// Compilation is all-or-nothing: the first malformed value aborts it with
// an [*InvalidFilterError].
func Compile(s State, mode CombineMode) (gql.Filter, error) {
	if mode == "" {
		mode = CombineAnd
	}
	if mode != CombineAnd && mode != CombineOr {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid combine mode %q", mode)
	}
	if s.Len() == 0 {
		return nil, nil
	}

	op := gql.Op(mode)
	simple := []gql.Filter{}
	nested := newNestedSet(op)

	for _, key := range s.keys {
		value := s.values[key]
		path, field, isNested := splitKey(key)

		if a, ok := value.(Anchored); ok {
			groups, err := compileAnchored(field, a, op)
			if err != nil {
				return nil, err
			}
			for _, g := range groups {
				node := nested.get(g.Path)
				node.Filters = append(node.Filters, &gql.Bool{Op: op, Filters: g.Filters})
			}
			continue
		}

		pred, err := compileSimple(field, value)
		if err != nil {
			return nil, err
		}
		if pred == nil {
			continue
		}
		if isNested {
			node := nested.get(path)
			node.Filters = append(node.Filters, pred)
		} else {
			simple = append(simple, pred)
		}
	}

	return &gql.Bool{Op: op, Filters: append(simple, nested.filters()...)}, nil
}

// splitKey splits "path.field" at the first dot.
func splitKey(key string) (path, field string, nested bool) {
	path, field, nested = strings.Cut(key, ".")
	if !nested {
		return "", key, false
	}
	return path, field, true
}

// compileSimple compiles an option or range value. A nil filter with a nil
// error means the value contributes no predicate.
func compileSimple(field string, v Value) (gql.Filter, error) {
	switch v := v.(type) {
	case Range:
		if !finite(v.LowerBound) || !finite(v.UpperBound) {
			return nil, &InvalidFilterError{Field: field, Value: v}
		}
		return gql.Range(field, v.LowerBound, v.UpperBound), nil
	case Option:
		if len(v.SelectedValues) == 0 {
			return nil, nil
		}
		if v.CombineMode == CombineAnd {
			all := make([]gql.Filter, len(v.SelectedValues))
			for i, sv := range v.SelectedValues {
				all[i] = &gql.In{Field: field, Values: []string{sv}}
			}
			return gql.And(all...), nil
		}
		return &gql.In{Field: field, Values: append([]string(nil), v.SelectedValues...)}, nil
	default:
		return nil, &InvalidFilterError{Field: field, Value: v}
	}
}

// compileAnchored compiles the sub-state of an anchored value keyed
// "anchorField:anchorValue". Every sub-state key must address a nested
// field. Each resulting group starts with the anchor membership predicate.
func compileAnchored(anchorKey string, a Anchored, op gql.Op) ([]*gql.Nested, error) {
	if a.Filter.Len() == 0 {
		return nil, nil
	}
	anchorField, anchorValue, ok := strings.Cut(anchorKey, ":")
	if !ok || anchorField == "" {
		return nil, &InvalidFilterError{Field: anchorKey, Value: a}
	}
	anchor := &gql.In{Field: anchorField, Values: []string{anchorValue}}

	groups := newNestedSet(op)
	for _, key := range a.Filter.keys {
		value := a.Filter.values[key]
		path, field, isNested := splitKey(key)
		if !isNested {
			return nil, &InvalidFilterError{Field: key, Value: value}
		}
		pred, err := compileSimple(field, value)
		if err != nil {
			return nil, err
		}
		if pred == nil {
			continue
		}
		node, created := groups.getOrCreate(path)
		if created {
			node.Filters = append(node.Filters, anchor.Clone())
		}
		node.Filters = append(node.Filters, pred)
	}
	return groups.nodes, nil
}

// nestedSet merges predicates under one nested node per path, keeping
// first-seen path order.
type nestedSet struct {
	op    gql.Op
	index map[string]int
	nodes []*gql.Nested
}

func newNestedSet(op gql.Op) *nestedSet {
	return &nestedSet{op: op, index: make(map[string]int)}
}

func (n *nestedSet) get(path string) *gql.Nested {
	node, _ := n.getOrCreate(path)
	return node
}

func (n *nestedSet) getOrCreate(path string) (*gql.Nested, bool) {
	if i, ok := n.index[path]; ok {
		return n.nodes[i], false
	}
	node := &gql.Nested{Path: path, Op: n.op, Filters: []gql.Filter{}}
	n.index[path] = len(n.nodes)
	n.nodes = append(n.nodes, node)
	return node, true
}

func (n *nestedSet) filters() []gql.Filter {
	out := make([]gql.Filter, len(n.nodes))
	for i, node := range n.nodes {
		out[i] = node
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
