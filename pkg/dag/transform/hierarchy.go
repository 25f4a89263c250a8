package transform

import "github.com/matzehuels/portalcore/pkg/dag"

// Hierarchy maps a node ID to the IDs below it in a depth-first spanning
// tree over incoming edges, the node itself included.
//
// A node reached a second time is not re-expanded and is not added to the
// later parent's set. The sets therefore describe tree descendants, which
// is what makes [Hierarchy.IsAncestor] identify back edges.
type Hierarchy map[string]map[string]struct{}

// BuildHierarchy walks incoming edges depth-first from root.
func BuildHierarchy(g *dag.DAG, root string) Hierarchy {
	return addDescendants(g, root, Hierarchy{})
}

// addDescendants records id and its unvisited predecessors in h and
// returns h.
func addDescendants(g *dag.DAG, id string, h Hierarchy) Hierarchy {
	desc := map[string]struct{}{id: {}}
	h[id] = desc
	for _, src := range g.Incoming(id) {
		if _, seen := h[src]; seen {
			continue
		}
		h = addDescendants(g, src, h)
		for n := range h[src] {
			desc[n] = struct{}{}
		}
	}
	return h
}

// IsAncestor reports whether descendant lies in ancestor's subtree.
func (h Hierarchy) IsAncestor(ancestor, descendant string) bool {
	_, ok := h[ancestor][descendant]
	return ok
}

// Descendants returns the subtree size of id, itself included.
func (h Hierarchy) Descendants(id string) int {
	return len(h[id])
}
