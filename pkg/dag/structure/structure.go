// Package structure answers structural questions about a dictionary graph
// and its subgraphs: what lies below a node, which nodes are unavoidable
// on the way down, in which order they appear, and which routes connect
// two nodes.
//
// Edges follow the dictionary convention (child -> parent). "Descendant"
// here means reachable along edges, i.e. the types a node links up to.
//
// Most helpers take a [Subgraph]: a node ID list plus the edges between
// those nodes. Whole-graph helpers take the full [dag.DAG]. Every result
// lists nodes in subgraph (or insertion) order and links in edge order.
//
// Cycles are not errors. Operations that cannot order a cyclic subgraph
// report that through a false ok value and callers treat it as "no
// summary available".
package structure

import (
	"slices"

	"github.com/matzehuels/portalcore/pkg/dag"
)

// Link is a directed edge by node IDs.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Subgraph is a view of part of a graph. Edges with an endpoint outside
// NodeIDs are ignored.
type Subgraph struct {
	NodeIDs []string `json:"nodeIds"`
	Edges   []Link   `json:"edges"`
}

// SubgraphOf returns the subgraph of g induced by ids. Unknown IDs are
// dropped.
func SubgraphOf(g *dag.DAG, ids []string) Subgraph {
	keep := make(map[string]bool, len(ids))
	sub := Subgraph{NodeIDs: []string{}, Edges: []Link{}}
	for _, id := range ids {
		if _, ok := g.Node(id); ok && !keep[id] {
			keep[id] = true
			sub.NodeIDs = append(sub.NodeIDs, id)
		}
	}
	for _, e := range g.Edges() {
		if keep[e.Source] && keep[e.Target] {
			sub.Edges = append(sub.Edges, Link{Source: e.Source, Target: e.Target})
		}
	}
	return sub
}

// WholeGraph returns the subgraph covering all of g.
func WholeGraph(g *dag.DAG) Subgraph {
	return SubgraphOf(g, g.NodeIDs())
}

// index is the adjacency of a subgraph. Parallel edges collapse.
type index struct {
	nodes []string
	in    map[string]bool
	out   map[string][]string
	links []Link
}

func newIndex(sub Subgraph) *index {
	ix := &index{
		in:  make(map[string]bool, len(sub.NodeIDs)),
		out: make(map[string][]string, len(sub.NodeIDs)),
	}
	for _, id := range sub.NodeIDs {
		if !ix.in[id] {
			ix.in[id] = true
			ix.nodes = append(ix.nodes, id)
		}
	}
	seen := make(map[Link]bool, len(sub.Edges))
	for _, e := range sub.Edges {
		if !ix.in[e.Source] || !ix.in[e.Target] || seen[e] {
			continue
		}
		seen[e] = true
		ix.out[e.Source] = append(ix.out[e.Source], e.Target)
		ix.links = append(ix.links, e)
	}
	return ix
}

// reach returns every node reachable from start along out, start excluded
// unless a cycle leads back to it.
func reach(start string, out func(string) []string) map[string]bool {
	seen := map[string]bool{}
	stack := slices.Clone(out(start))
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, out(id)...)
	}
	return seen
}

// DescendantIDs returns the IDs reachable from id in g, level by level.
// The starting node is included only when a cycle leads back to it.
func DescendantIDs(g *dag.DAG, id string) []string {
	ids, _ := descend(g, id)
	return ids
}

// DescendantLinks returns the edges walked by DescendantIDs.
func DescendantLinks(g *dag.DAG, id string) []Link {
	_, links := descend(g, id)
	return links
}

func descend(g *dag.DAG, start string) ([]string, []Link) {
	ids := []string{}
	links := []Link{}
	seenNode := map[string]bool{}
	seenLink := map[Link]bool{}
	expanded := map[string]bool{start: true}

	current := []string{start}
	for len(current) > 0 {
		var next []string
		for _, id := range current {
			for _, target := range g.Outgoing(id) {
				l := Link{Source: id, Target: target}
				if !seenLink[l] {
					seenLink[l] = true
					links = append(links, l)
				}
				if !seenNode[target] {
					seenNode[target] = true
					ids = append(ids, target)
				}
				if !expanded[target] {
					expanded[target] = true
					next = append(next, target)
				}
			}
		}
		current = next
	}
	return ids, links
}

// RelatedNodeIDs returns the node followed by its descendants, the set
// highlighted when a node is selected.
func RelatedNodeIDs(g *dag.DAG, id string) []string {
	if _, ok := g.Node(id); !ok {
		return []string{}
	}
	ids := DescendantIDs(g, id)
	if slices.Contains(ids, id) {
		return ids
	}
	return append([]string{id}, ids...)
}

// PathToSecondHighlight returns the links below second plus the link from
// first to second, the routes drawn when a second node is selected.
func PathToSecondHighlight(g *dag.DAG, first, second string) []Link {
	if first == "" || second == "" {
		return []Link{}
	}
	links := DescendantLinks(g, second)
	return append(links, Link{Source: first, Target: second})
}

// ArticulationNodeIDs returns the nodes whose removal disconnects the
// subgraph's undirected skeleton, in subgraph order.
func ArticulationNodeIDs(sub Subgraph) []string {
	ix := newIndex(sub)

	adj := make(map[string][]string, len(ix.nodes))
	linked := map[Link]bool{}
	for _, l := range ix.links {
		if l.Source == l.Target {
			continue
		}
		a, b := l.Source, l.Target
		if b < a {
			a, b = b, a
		}
		if linked[Link{a, b}] {
			continue
		}
		linked[Link{a, b}] = true
		adj[l.Source] = append(adj[l.Source], l.Target)
		adj[l.Target] = append(adj[l.Target], l.Source)
	}

	t := &tarjan{
		adj:  adj,
		disc: map[string]int{},
		low:  map[string]int{},
		cut:  map[string]bool{},
	}
	for _, id := range ix.nodes {
		if _, visited := t.disc[id]; !visited {
			t.visit(id, "", true)
		}
	}

	out := []string{}
	for _, id := range ix.nodes {
		if t.cut[id] {
			out = append(out, id)
		}
	}
	return out
}

// tarjan holds the state of the articulation point search.
type tarjan struct {
	adj  map[string][]string
	disc map[string]int
	low  map[string]int
	cut  map[string]bool
	time int
}

func (t *tarjan) visit(id, parent string, root bool) {
	t.time++
	t.disc[id] = t.time
	t.low[id] = t.time
	children := 0

	for _, next := range t.adj[id] {
		if _, visited := t.disc[next]; !visited {
			children++
			t.visit(next, id, false)
			t.low[id] = min(t.low[id], t.low[next])
			if !root && t.low[next] >= t.disc[id] {
				t.cut[id] = true
			}
		} else if next != parent {
			t.low[id] = min(t.low[id], t.disc[next])
		}
	}

	if root && children > 1 {
		t.cut[id] = true
	}
}

// TopologicalSort orders ids so that every edge source in the subgraph
// comes before its target, following paths through other subgraph nodes
// too. It reports false when a cycle prevents ordering any of ids.
func TopologicalSort(ids []string, sub Subgraph) ([]string, bool) {
	ix := newIndex(sub)

	inDegree := make(map[string]int, len(ix.nodes))
	for _, l := range ix.links {
		inDegree[l.Target]++
	}
	queue := make([]string, 0, len(ix.nodes))
	for _, id := range ix.nodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	pos := make(map[string]int, len(ix.nodes))
	for head := 0; head < len(queue); head++ {
		id := queue[head]
		pos[id] = head
		for _, target := range ix.out[id] {
			inDegree[target]--
			if inDegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}

	sorted := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := pos[id]; !ok {
			return nil, false
		}
		if !slices.Contains(sorted, id) {
			sorted = append(sorted, id)
		}
	}
	slices.SortStableFunc(sorted, func(a, b string) int { return pos[a] - pos[b] })
	return sorted, true
}

// SingleTerminalDescendantID returns the only subgraph node without an
// outgoing subgraph edge. It reports false when there is none or more
// than one.
func SingleTerminalDescendantID(sub Subgraph) (string, bool) {
	ix := newIndex(sub)
	var terminal string
	count := 0
	for _, id := range ix.nodes {
		if len(ix.out[id]) == 0 {
			terminal = id
			count++
		}
	}
	if count != 1 {
		return "", false
	}
	return terminal, true
}

// Between is the part of a subgraph lying on paths from one node to
// another.
type Between struct {
	NodeIDs []string `json:"nodeIds"`
	Links   []Link   `json:"links"`
}

// SummarizeBetween returns the nodes strictly between from and to on any
// path from from to to, and the links of those paths.
func SummarizeBetween(from, to string, sub Subgraph) Between {
	ix := newIndex(sub)
	result := Between{NodeIDs: []string{}, Links: []Link{}}
	if !ix.in[from] || !ix.in[to] {
		return result
	}

	reverse := make(map[string][]string, len(ix.nodes))
	for _, l := range ix.links {
		reverse[l.Target] = append(reverse[l.Target], l.Source)
	}
	below := reach(from, func(id string) []string { return ix.out[id] })
	above := reach(to, func(id string) []string { return reverse[id] })

	mid := map[string]bool{}
	for _, id := range ix.nodes {
		if id != from && id != to && below[id] && above[id] {
			mid[id] = true
			result.NodeIDs = append(result.NodeIDs, id)
		}
	}
	for _, l := range ix.links {
		if (l.Source == from || mid[l.Source]) && (l.Target == to || mid[l.Target]) {
			result.Links = append(result.Links, l)
		}
	}
	return result
}

// AllSimplePaths enumerates every path from start to end that visits no
// node twice. Paths are listed in depth-first edge order.
func AllSimplePaths(start, end string, sub Subgraph) [][]string {
	ix := newIndex(sub)
	paths := [][]string{}
	if !ix.in[start] || !ix.in[end] {
		return paths
	}
	return walkPaths(ix, []string{start}, map[string]bool{start: true}, end, paths)
}

// walkPaths extends path depth-first and appends every completed path to
// paths.
func walkPaths(ix *index, path []string, onPath map[string]bool, end string, paths [][]string) [][]string {
	last := path[len(path)-1]
	if last == end {
		return append(paths, slices.Clone(path))
	}
	for _, next := range ix.out[last] {
		if onPath[next] {
			continue
		}
		onPath[next] = true
		paths = walkPaths(ix, append(path, next), onPath, end, paths)
		delete(onPath, next)
	}
	return paths
}
