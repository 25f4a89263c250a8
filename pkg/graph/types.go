package graph

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
)

// Graph is the serialization format of a dictionary graph.
type Graph struct {
	Nodes  []Node            `json:"nodes"`
	Edges  []Edge            `json:"edges"`
	Levels *transform.Levels `json:"levels,omitempty"`
}

// Node is a serialized dictionary node.
type Node struct {
	ID            string         `json:"id"`
	Title         string         `json:"title,omitempty"`
	Type          string         `json:"type,omitempty"`
	Category      string         `json:"category,omitempty"`
	Description   string         `json:"description,omitempty"`
	Required      []string       `json:"required,omitempty"`
	Properties    map[string]any `json:"properties,omitempty"`
	Links         []dag.Link     `json:"links,omitempty"`
	Count         int            `json:"count,omitempty"`
	Position      [2]float64     `json:"position"`
	PositionIndex [2]int         `json:"positionIndex"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// DisplayLabel returns the title if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Title != "" {
		return n.Title
	}
	return n.ID
}

// Edge is a serialized relationship from a child type (Source) to the type
// it links up to (Target).
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Name     string `json:"name,omitempty"`
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required,omitempty"`
	Exists   *bool  `json:"exists,omitempty"`
}

// FromDAG converts a DAG to its serialization format. Levels are attached
// when non-nil.
func FromDAG(g *dag.DAG, levels *transform.Levels) Graph {
	out := Graph{
		Nodes:  make([]Node, 0, g.NodeCount()),
		Edges:  make([]Edge, 0, g.EdgeCount()),
		Levels: levels,
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, nodeFromDAG(n))
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{
			Source:   e.Source,
			Target:   e.Target,
			Name:     e.Name,
			Label:    e.Label,
			Required: e.Required,
			Exists:   e.Exists,
		})
	}
	return out
}

// ToDAG converts a Graph to a DAG. Levels are not part of the DAG and are
// returned by the caller's own copy of Graph.Levels.
func ToDAG(gj Graph) (*dag.DAG, error) {
	d := dag.New(nil)
	for _, nj := range gj.Nodes {
		n := dag.Node{
			ID:            nj.ID,
			Title:         nj.Title,
			Type:          nj.Type,
			Category:      nj.Category,
			Description:   nj.Description,
			Required:      nj.Required,
			Properties:    nj.Properties,
			Links:         nj.Links,
			Count:         nj.Count,
			Position:      nj.Position,
			PositionIndex: nj.PositionIndex,
			Meta:          maps.Clone(nj.Meta),
		}
		if err := d.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}
	for _, ej := range gj.Edges {
		e := dag.Edge{
			Source:   ej.Source,
			Target:   ej.Target,
			Name:     ej.Name,
			Label:    ej.Label,
			Required: ej.Required,
			Exists:   ej.Exists,
		}
		if err := d.AddEdge(e); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", ej.Source, ej.Target, err)
		}
	}
	return d, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

func nodeFromDAG(n *dag.Node) Node {
	meta := maps.Clone(map[string]any(n.Meta))
	if len(meta) == 0 {
		meta = nil
	}
	return Node{
		ID:            n.ID,
		Title:         n.Title,
		Type:          n.Type,
		Category:      n.Category,
		Description:   n.Description,
		Required:      n.Required,
		Properties:    n.Properties,
		Links:         n.Links,
		Count:         n.Count,
		Position:      n.Position,
		PositionIndex: n.PositionIndex,
		Meta:          meta,
	}
}
