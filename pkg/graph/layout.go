package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/portalcore/pkg/render/nodelink"
)

// Layout is the serialization format of a rendered dictionary layout.
//
// Nodes, Edges and GraphBoundingBox come from the layout engine's drawn
// coordinates. DOT and Engine record how they were produced so a cached
// layout can be traced back to its input.
type Layout struct {
	Engine           string          `json:"engine"`
	DOT              string          `json:"dot,omitempty"`
	Nodes            []nodelink.Node `json:"nodes"`
	Edges            []nodelink.Edge `json:"edges"`
	GraphBoundingBox [][2]float64    `json:"graphBoundingBox"`
	Levels           [][]string      `json:"levels,omitempty"`
}

// FromRendered wraps a rendered layout for serialization.
func FromRendered(l *nodelink.Layout, engine, dot string, levels [][]string) Layout {
	return Layout{
		Engine:           engine,
		DOT:              dot,
		Nodes:            l.Nodes,
		Edges:            l.Edges,
		GraphBoundingBox: l.GraphBoundingBox,
		Levels:           levels,
	}
}

// Rendered returns the nodelink layout held by l.
func (l Layout) Rendered() *nodelink.Layout {
	return &nodelink.Layout{Nodes: l.Nodes, Edges: l.Edges, GraphBoundingBox: l.GraphBoundingBox}
}

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Engine == "" {
		return Layout{}, fmt.Errorf("layout must name its engine")
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
