package structure

import (
	"slices"

	"github.com/matzehuels/portalcore/pkg/dag"
)

// Entry is one step of a data model summary: a critical node and the
// part of the graph between it and the next critical node.
type Entry struct {
	NodeID        string   `json:"nodeID"`
	NodeIDsBefore []string `json:"nodeIDsBefore"`
	LinksBefore   []Link   `json:"linksBefore"`
	Category      string   `json:"category"`
}

// Summary describes how a start node connects down to the root of its
// subgraph.
type Summary struct {
	// Structure lists critical nodes from the root end back to the start.
	Structure []Entry `json:"dataModelStructure"`
	// Routes are the simple paths from the start to the terminal node(s).
	Routes [][]string `json:"routesBetweenStartEndNodes"`
}

// SummarizeDataModelStructure collapses the subgraph below start into the
// chain of nodes every path must pass through. Categories are read from
// whole. It reports false when the subgraph has a cycle or start is not
// part of it.
func SummarizeDataModelStructure(start string, sub Subgraph, whole *dag.DAG) (Summary, bool) {
	ix := newIndex(sub)
	if !ix.in[start] {
		return Summary{}, false
	}

	critical := ArticulationNodeIDs(sub)
	if !slices.Contains(critical, start) {
		critical = append(critical, start)
	}
	critical, ok := TopologicalSort(critical, sub)
	if !ok || len(critical) == 0 {
		return Summary{}, false
	}

	terminal, single := SingleTerminalDescendantID(sub)
	if single && !slices.Contains(critical, terminal) {
		critical = append(critical, terminal)
	}

	var entries []Entry
	for i := 1; i < len(critical); i++ {
		between := SummarizeBetween(critical[i-1], critical[i], sub)
		entries = append(entries, Entry{
			NodeID:        critical[i-1],
			NodeIDsBefore: between.NodeIDs,
			LinksBefore:   between.Links,
		})
	}

	var routes [][]string
	if single {
		entries = append(entries, Entry{NodeID: terminal, NodeIDsBefore: []string{}, LinksBefore: []Link{}})
		routes = AllSimplePaths(start, terminal, sub)
	} else {
		last := critical[len(critical)-1]
		below := DescendantIDs(whole, last)
		entries = append(entries, Entry{
			NodeID:        last,
			NodeIDsBefore: below,
			LinksBefore:   DescendantLinks(whole, last),
		})
		routes = [][]string{}
		for _, id := range below {
			routes = append(routes, AllSimplePaths(start, id, sub)...)
		}
	}
	if routes == nil {
		routes = [][]string{}
	}

	for i := range entries {
		if n, ok := whole.Node(entries[i].NodeID); ok {
			entries[i].Category = n.Category
		}
	}
	slices.Reverse(entries)
	return Summary{Structure: entries, Routes: routes}, true
}
