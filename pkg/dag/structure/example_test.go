package structure_test

import (
	"fmt"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/structure"
)

func ExampleSummarizeDataModelStructure() {
	// aliquot -> sample -> case, with a shortcut aliquot -> case
	g := dag.New(nil)
	for _, n := range []dag.Node{
		{ID: "case", Category: "administrative"},
		{ID: "sample", Category: "biospecimen"},
		{ID: "aliquot", Category: "biospecimen"},
	} {
		_ = g.AddNode(n)
	}
	_ = g.AddEdge(dag.Edge{Source: "sample", Target: "case"})
	_ = g.AddEdge(dag.Edge{Source: "aliquot", Target: "sample"})
	_ = g.AddEdge(dag.Edge{Source: "aliquot", Target: "case"})

	summary, ok := structure.SummarizeDataModelStructure("aliquot", structure.WholeGraph(g), g)
	fmt.Println("ok:", ok)
	for _, e := range summary.Structure {
		fmt.Println(e.NodeID, e.Category, e.NodeIDsBefore)
	}
	fmt.Println("routes:", summary.Routes)
	// Output:
	// ok: true
	// case administrative []
	// aliquot biospecimen [sample]
	// routes: [[aliquot sample case] [aliquot case]]
}

func ExampleArticulationNodeIDs() {
	g := dag.New(nil)
	for _, id := range []string{"a", "b", "c"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{Source: "a", Target: "b"})
	_ = g.AddEdge(dag.Edge{Source: "b", Target: "c"})

	fmt.Println(structure.ArticulationNodeIDs(structure.WholeGraph(g)))
	// Output: [b]
}
