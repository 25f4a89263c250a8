package graph

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
	"github.com/matzehuels/portalcore/pkg/render/nodelink"
)

func boolPtr(b bool) *bool { return &b }

func TestMarshalGraph(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *dag.DAG
		wantNodes int
		wantEdges int
		check     func(t *testing.T, g Graph)
	}{
		{
			name:      "Empty",
			build:     func() *dag.DAG { return dag.New(nil) },
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name: "Simple",
			build: func() *dag.DAG {
				g := dag.New(nil)
				g.AddNode(dag.Node{ID: "project", Category: "administrative"})
				g.AddNode(dag.Node{ID: "subject", Category: "clinical", Count: 3})
				g.AddEdge(dag.Edge{Source: "subject", Target: "project", Name: "projects", Required: true})
				return g
			},
			wantNodes: 2,
			wantEdges: 1,
			check: func(t *testing.T, g Graph) {
				if g.Nodes[1].Count != 3 || g.Nodes[1].Category != "clinical" {
					t.Errorf("node = %+v", g.Nodes[1])
				}
				want := Edge{Source: "subject", Target: "project", Name: "projects", Required: true}
				if !reflect.DeepEqual(g.Edges[0], want) {
					t.Errorf("edge = %+v, want %+v", g.Edges[0], want)
				}
			},
		},
		{
			name: "PreservesInsertionOrder",
			build: func() *dag.DAG {
				g := dag.New(nil)
				for _, id := range []string{"zeta", "alpha", "mid"} {
					g.AddNode(dag.Node{ID: id})
				}
				return g
			},
			wantNodes: 3,
			check: func(t *testing.T, g Graph) {
				var ids []string
				for _, n := range g.Nodes {
					ids = append(ids, n.ID)
				}
				if want := []string{"zeta", "alpha", "mid"}; !reflect.DeepEqual(ids, want) {
					t.Errorf("ids = %v, want %v", ids, want)
				}
			},
		},
		{
			name: "Exists",
			build: func() *dag.DAG {
				g := dag.New(nil)
				g.AddNode(dag.Node{ID: "a"})
				g.AddNode(dag.Node{ID: "b"})
				g.AddEdge(dag.Edge{Source: "a", Target: "b", Exists: boolPtr(false)})
				return g
			},
			wantNodes: 2,
			wantEdges: 1,
			check: func(t *testing.T, g Graph) {
				if g.Edges[0].Exists == nil || *g.Edges[0].Exists {
					t.Errorf("exists = %v, want false", g.Edges[0].Exists)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalGraph(tt.build(), nil)
			if err != nil {
				t.Fatalf("MarshalGraph: %v", err)
			}

			var result Graph
			if err := json.Unmarshal(data, &result); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := len(result.Nodes); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}
			if got := len(result.Edges); got != tt.wantEdges {
				t.Errorf("edges = %d, want %d", got, tt.wantEdges)
			}
			if result.Levels != nil {
				t.Errorf("levels = %+v, want nil", result.Levels)
			}
			if tt.check != nil {
				tt.check(t, result)
			}
		})
	}
}

func TestMarshalGraphWithLevels(t *testing.T) {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "project"})
	g.AddNode(dag.Node{ID: "subject"})
	g.AddEdge(dag.Edge{Source: "subject", Target: "project"})
	levels := transform.AssignPositions(g, transform.PositionOptions{})

	data, err := MarshalGraph(g, &levels)
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}
	var result Graph
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Levels == nil {
		t.Fatal("levels missing")
	}
	if want := [][]string{{"project"}, {"subject"}}; !reflect.DeepEqual(result.Levels.LevelsToIDs, want) {
		t.Errorf("levels = %v, want %v", result.Levels.LevelsToIDs, want)
	}
	if got := result.Nodes[1].PositionIndex; got != [2]int{0, 1} {
		t.Errorf("positionIndex = %v, want [0 1]", got)
	}
}

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		wantEdges int
		wantErr   bool
		check     func(t *testing.T, g *dag.DAG)
	}{
		{
			name: "Valid",
			input: `{
				"nodes": [
					{"id": "subject", "title": "Subject", "meta": {"source": "test"}},
					{"id": "project"}
				],
				"edges": [
					{"source": "subject", "target": "project", "name": "projects", "exists": true}
				]
			}`,
			wantNodes: 2,
			wantEdges: 1,
			check: func(t *testing.T, g *dag.DAG) {
				n, ok := g.Node("subject")
				if !ok {
					t.Fatal("node subject not found")
				}
				if n.Title != "Subject" || n.Meta["source"] != "test" {
					t.Errorf("node = %+v", n)
				}
				if e := g.Edges()[0]; e.Exists == nil || !*e.Exists {
					t.Errorf("exists = %v, want true", e.Exists)
				}
			},
		},
		{
			name:      "Empty",
			input:     `{"nodes": [], "edges": []}`,
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name:    "Invalid",
			input:   `{invalid json}`,
			wantErr: true,
		},
		{
			name:    "UnknownTarget",
			input:   `{"nodes": [{"id": "a"}], "edges": [{"source": "a", "target": "b"}]}`,
			wantErr: true,
		},
		{
			name:    "DuplicateNode",
			input:   `{"nodes": [{"id": "a"}, {"id": "a"}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadGraph(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadGraph: %v", err)
			}
			if got := g.NodeCount(); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("edges = %d, want %d", got, tt.wantEdges)
			}
			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}

func TestGraphFileRoundTrip(t *testing.T) {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "project", Links: []dag.Link{}})
	g.AddNode(dag.Node{ID: "subject", Links: []dag.Link{{Name: "projects", Target: "project", Required: true}}})
	g.AddEdge(dag.Edge{Source: "subject", Target: "project", Name: "projects", Required: true})

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteGraphFile(g, nil, path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}
	back, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if !reflect.DeepEqual(back.NodeIDs(), g.NodeIDs()) {
		t.Errorf("ids = %v, want %v", back.NodeIDs(), g.NodeIDs())
	}
	n, _ := back.Node("subject")
	if len(n.Links) != 1 || n.Links[0].Target != "project" || !n.Links[0].Required {
		t.Errorf("links = %+v", n.Links)
	}
}

func TestReadGraphFileNotFound(t *testing.T) {
	if _, err := ReadGraphFile("nonexistent.json"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestWriteGraph(t *testing.T) {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "a"})
	g.AddNode(dag.Node{ID: "b"})
	g.AddEdge(dag.Edge{Source: "a", Target: "b"})

	var buf bytes.Buffer
	if err := WriteGraph(g, nil, &buf); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	var result Graph
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(result.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(result.Nodes))
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	rendered := &nodelink.Layout{
		Nodes:            []nodelink.Node{{ID: "subject", Type: "clinical", Names: []string{"Subject"}, Level: 1}},
		Edges:            []nodelink.Edge{{Source: "subject", Target: "project", PathString: "M0 0 L 1 1"}},
		GraphBoundingBox: [][2]float64{{0, 0}, {0, 100}, {100, 100}, {100, 0}},
	}
	l := FromRendered(rendered, "dot", "digraph dictionary {}", [][]string{{"project"}, {"subject"}})

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	back, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if !reflect.DeepEqual(back, l) {
		t.Errorf("round trip = %+v, want %+v", back, l)
	}
	if got := back.Rendered(); !reflect.DeepEqual(got, rendered) {
		t.Errorf("Rendered() = %+v, want %+v", got, rendered)
	}
}

func TestUnmarshalLayoutRequiresEngine(t *testing.T) {
	if _, err := UnmarshalLayout([]byte(`{"nodes": []}`)); err == nil {
		t.Error("expected error for layout without engine")
	}
	if _, err := UnmarshalLayout([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
