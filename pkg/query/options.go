package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/portalcore/pkg/gql"
)

// MainGroup collects the option fields that are not anchored.
const MainGroup = "main"

// AnchorConfig names the anchor field and the filter tabs it applies to.
type AnchorConfig struct {
	Field string   `json:"field" toml:"field"`
	Tabs  []string `json:"tabs" toml:"tabs"`
}

// FilterTab is one tab of the filter panel and the fields it shows.
type FilterTab struct {
	Title  string   `json:"title" toml:"title"`
	Fields []string `json:"fields" toml:"fields"`
}

// Group is a set of option fields queried under one filter.
type Group struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// OptionsInfo splits option fields into groups and gives each group the
// filter it is queried with, keyed by "filter_" + group name.
type OptionsInfo struct {
	Groups  []Group               `json:"groups"`
	Filters map[string]gql.Filter `json:"filters"`
}

func (info *OptionsInfo) group(name string) (*Group, bool) {
	for i := range info.Groups {
		if info.Groups[i].Name == name {
			return &info.Groups[i], true
		}
	}
	info.Groups = append(info.Groups, Group{Name: name})
	return &info.Groups[len(info.Groups)-1], false
}

// Fields returns the fields of a group, nil when the group is absent.
func (info OptionsInfo) Fields(name string) []string {
	for _, g := range info.Groups {
		if g.Name == name {
			return g.Fields
		}
	}
	return nil
}

// OptionsQueryInfo plans the option queries for the filter panel.
//
// Anchoring applies when anchor is set and anchorValue is not empty. Fields
// of anchored tabs written as "path.field" are grouped by path. Each path
// group is queried with a copy of f that also requires anchor.Field to be
// anchorValue inside the nested path. The anchor predicate is only added
// when the top-level combinator is AND, since adding it to an OR would
// widen the result. Every other field lands in the main group, which is
// queried with f itself.
func OptionsQueryInfo(anchor *AnchorConfig, anchorValue string, tabs []FilterTab, f gql.Filter) OptionsInfo {
	info := OptionsInfo{Filters: map[string]gql.Filter{}}
	anchoring := anchor != nil && anchorValue != ""

	var main []string
	for _, tab := range tabs {
		if !anchoring || !slices.Contains(anchor.Tabs, tab.Title) {
			main = append(main, tab.Fields...)
			continue
		}
		for _, field := range tab.Fields {
			path, _, nested := strings.Cut(field, ".")
			if !nested {
				main = append(main, field)
				continue
			}
			g, existed := info.group(path)
			g.Fields = append(g.Fields, field)
			if existed {
				continue
			}
			info.Filters["filter_"+path] = anchoredFilter(f, path, anchor.Field, anchorValue)
		}
	}

	if len(main) > 0 {
		g, _ := info.group(MainGroup)
		g.Fields = append(g.Fields, main...)
		if f != nil {
			info.Filters["filter_"+MainGroup] = f
		}
	}
	// main is queried first.
	slices.SortStableFunc(info.Groups, func(a, b Group) int {
		switch {
		case a.Name == MainGroup:
			return -1
		case b.Name == MainGroup:
			return 1
		}
		return 0
	})
	return info
}

func anchoredFilter(f gql.Filter, path, field, value string) gql.Filter {
	var root *gql.Bool
	switch f := f.(type) {
	case nil:
		root = gql.And()
	case *gql.Bool:
		root = f.Clone().(*gql.Bool)
	default:
		root = gql.And(f.Clone())
	}
	if root.Op != gql.OpAnd {
		return root
	}

	pin := &gql.In{Field: field, Values: []string{value}}
	for _, child := range root.Filters {
		if n, ok := child.(*gql.Nested); ok && n.Path == path {
			if n.Op == root.Op {
				n.Filters = append(n.Filters, pin)
			}
			return root
		}
	}
	root.Filters = append(root.Filters, &gql.Nested{Path: path, Op: root.Op, Filters: []gql.Filter{pin}})
	return root
}

// AggregationOptions builds the query for the filter panel options
// planned by [OptionsQueryInfo].
//
// When the filter is empty the main group is queried unfiltered. On the
// initial query with a non-empty filter an extra "unfiltered" block is
// requested so the panel can show counts before filtering.
func AggregationOptions(typ string, info OptionsInfo, filterEmpty, initial bool) (Payload, error) {
	if err := validate(typ); err != nil {
		return Payload{}, err
	}
	var decls, blocks []string
	vars := map[string]any{}
	for _, g := range info.Groups {
		if err := validate(typ, g.Fields...); err != nil {
			return Payload{}, err
		}
		if g.Name == MainGroup && filterEmpty {
			continue
		}
		name := "filter_" + g.Name
		decls = append(decls, fmt.Sprintf("$%s: JSON", name))
		if f, ok := info.Filters[name]; ok && f != nil {
			vars[name] = f
		}
	}

	for _, g := range info.Groups {
		if len(g.Fields) == 0 {
			continue
		}
		if g.Name == MainGroup {
			if filterEmpty {
				blocks = append(blocks, fmt.Sprintf("main: %s (accessibility: all) { %s }", typ, histograms(g.Fields)))
				continue
			}
			blocks = append(blocks, fmt.Sprintf("main: %s (filter: $filter_main, filterSelf: false, accessibility: all) { %s }",
				typ, histograms(g.Fields)))
			if initial {
				blocks = append(blocks, fmt.Sprintf("unfiltered: %s (accessibility: all) { %s }", typ, histograms(g.Fields)))
			}
			continue
		}
		blocks = append(blocks, fmt.Sprintf("anchored_%s: %s (filter: $filter_%s, filterSelf: false, accessibility: all) { %s }",
			g.Name, typ, g.Name, histograms(g.Fields)))
	}

	q := fmt.Sprintf("query %s { _aggregation { %s } }", varDecl(len(decls) > 0, decls...), strings.Join(blocks, " "))
	return newPayload(q, vars), nil
}
