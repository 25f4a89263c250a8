package graph_test

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/graph"
)

func ExampleReadGraph() {
	jsonData := `{
		"nodes": [
			{"id": "project", "category": "administrative"},
			{"id": "subject", "category": "clinical"}
		],
		"edges": [
			{"source": "subject", "target": "project", "name": "projects"}
		]
	}`

	g, err := graph.ReadGraph(strings.NewReader(jsonData))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Nodes:", g.NodeIDs())
	for _, e := range g.Edges() {
		fmt.Printf("%s -%s-> %s\n", e.Source, e.Name, e.Target)
	}
	// Output:
	// Nodes: [project subject]
	// subject -projects-> project
}

func ExampleFromDAG() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "project", Title: "Project"})
	_ = g.AddNode(dag.Node{ID: "subject"})
	_ = g.AddEdge(dag.Edge{Source: "subject", Target: "project"})

	out := graph.FromDAG(g, nil)
	for _, n := range out.Nodes {
		fmt.Println(n.ID, "->", n.DisplayLabel())
	}

	var buf bytes.Buffer
	_ = graph.WriteGraph(g, nil, &buf)
	fmt.Println(strings.Contains(buf.String(), `"source": "subject"`))
	// Output:
	// project -> Project
	// subject -> subject
	// true
}
