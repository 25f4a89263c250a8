package dictionary

import (
	"slices"
	"strings"

	"github.com/matzehuels/portalcore/pkg/dag"
)

// DefaultHidden lists the types hidden when BuildOptions.Hidden is nil.
var DefaultHidden = []string{"program"}

// BuildOptions controls which types and links become graph elements.
type BuildOptions struct {
	// CreateAll keeps every valid type and link regardless of observed
	// data.
	CreateAll bool
	// Hidden types never appear in the graph. Nil means DefaultHidden;
	// an empty non-nil slice hides nothing.
	Hidden []string
}

func (o BuildOptions) hidden() []string {
	if o.Hidden == nil {
		return DefaultHidden
	}
	return o.Hidden
}

// BuildGraph turns a dictionary into a graph of its entity types.
//
// A type qualifies when its key does not start with "_", its schema type
// is "object", its category is not "internal" and it is not hidden.
// Unless CreateAll is set, a qualifying type is kept only when it has
// observed records, or when a kept type links to it: link targets are
// always materialized so that edges out of populated types survive.
//
// Edges run from a type to each (flattened) link target present in the
// graph. Without CreateAll an edge is dropped only when links reports it
// as observed and empty.
func BuildGraph(d *Dictionary, counts Counts, links Links, opts BuildOptions) *dag.DAG {
	g := dag.New(nil)
	if d == nil {
		return g
	}
	hidden := opts.hidden()

	qualifies := func(key string) bool {
		e, ok := d.entries[key]
		return ok &&
			!strings.HasPrefix(key, "_") &&
			e.Type == "object" &&
			e.Category != "internal" &&
			!slices.Contains(hidden, key)
	}

	keep := map[string]bool{}
	var pending []string
	for _, key := range d.keys {
		if qualifies(key) && (opts.CreateAll || counts.Count(key) != 0) {
			keep[key] = true
			pending = append(pending, key)
		}
	}
	for len(pending) > 0 {
		key := pending[0]
		pending = pending[1:]
		for _, l := range Flatten(d.entries[key].Links) {
			if !keep[l.Target] && qualifies(l.Target) {
				keep[l.Target] = true
				pending = append(pending, l.Target)
			}
		}
	}

	for _, key := range d.keys {
		if !keep[key] {
			continue
		}
		e := d.entries[key]
		title := e.Title
		if title == "" {
			title = key
		}
		_ = g.AddNode(dag.Node{
			ID:          key,
			Title:       title,
			Type:        e.Type,
			Category:    e.Category,
			Description: e.Description,
			Required:    slices.Clone(e.Required),
			Properties:  e.Properties,
			Links:       Flatten(e.Links),
			Count:       counts.Count(key),
		})
	}

	for _, n := range g.Nodes() {
		for _, l := range n.Links {
			if !keep[l.Target] {
				continue
			}
			exists := links.Exists(n.ID, l.Name, l.Target)
			if !opts.CreateAll && exists != nil && !*exists {
				continue
			}
			_ = g.AddEdge(dag.Edge{
				Source:   n.ID,
				Target:   l.Target,
				Name:     l.Name,
				Label:    l.Label,
				Required: l.Required,
				Exists:   exists,
			})
		}
	}
	return g
}
