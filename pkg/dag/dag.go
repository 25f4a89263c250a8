package dag

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the Source node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the Target node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	// Dictionaries may legitimately contain cycles, so only callers that
	// need acyclicity should check this.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// Metadata maps are never nil after AddNode, AddEdge or New.
type Metadata map[string]any

// Link is a flattened dictionary link declared on a node.
type Link struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Target   string `json:"target_type"`
	Required bool   `json:"required,omitempty"`
}

// Node is an entity type of the data dictionary.
//
// Position and PositionIndex are assigned by layout and are the only fields
// mutated after the graph is built.
type Node struct {
	ID          string         // Unique identifier (dictionary key)
	Title       string         // Display name
	Type        string         // Dictionary schema type, "object" for entity types
	Category    string         // Dictionary category (administrative, clinical, ...)
	Description string         // Free-text description
	Required    []string       // Required property names
	Properties  map[string]any // Property schemas keyed by property name
	Links       []Link         // Declared links, subgroups flattened
	Count       int            // Observed record count

	Position      [2]float64 // (x, y) in the unit square
	PositionIndex [2]int     // (index in row, row)

	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Edge is a typed relationship. By dictionary convention the Source is the
// dependent (child) type and the Target is the type it links up to.
type Edge struct {
	Source   string // Child node ID
	Target   string // Parent node ID
	Name     string // Link name
	Label    string // Link label (e.g. "member_of")
	Required bool

	// Exists reports whether observed data populates the edge. Nil means
	// unknown, which is treated as present.
	Exists *bool

	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// DAG is a directed graph of dictionary nodes that remembers insertion
// order. Despite the name it tolerates cycles; algorithms that need an
// acyclic graph detect cycles themselves.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	outgoing map[string][]string // source ID -> target IDs
	incoming map[string][]string // target ID -> source IDs
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode appends a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is
// missing. Parallel edges with different link names are allowed.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.Target]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.Source] = append(d.outgoing[e.Source], e.Target)
	d.incoming[e.Target] = append(d.incoming[e.Target], e.Source)
	return nil
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// graph's nodes, so position updates are visible through the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, len(d.order))
	for i, id := range d.order {
		nodes[i] = d.nodes[id]
	}
	return nodes
}

// NodeIDs returns all node IDs in insertion order.
func (d *DAG) NodeIDs() []string { return slices.Clone(d.order) }

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Outgoing returns the targets of edges leaving the node. For dictionary
// graphs these are the types the node links up to.
func (d *DAG) Outgoing(id string) []string { return d.outgoing[id] }

// Incoming returns the sources of edges entering the node.
func (d *DAG) Incoming(id string) []string { return d.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Sinks returns nodes with no outgoing edges, in insertion order. In a
// dictionary graph the sink is the root type.
func (d *DAG) Sinks() []*Node {
	var sinks []*Node
	for _, id := range d.order {
		if len(d.outgoing[id]) == 0 {
			sinks = append(sinks, d.nodes[id])
		}
	}
	return sinks
}

// Validate returns ErrGraphHasCycle if the graph contains a directed cycle.
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, next := range d.outgoing[id] {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// PosMap creates a position lookup map from a slice of node IDs.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
