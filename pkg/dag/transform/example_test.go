package transform_test

import (
	"fmt"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
)

func ExampleBreadthFirstLevels() {
	// case has two children; aliquot hangs off sample
	g := dag.New(nil)
	for _, id := range []string{"case", "sample", "diagnosis", "aliquot"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{Source: "sample", Target: "case"})
	_ = g.AddEdge(dag.Edge{Source: "diagnosis", Target: "case"})
	_ = g.AddEdge(dag.Edge{Source: "aliquot", Target: "sample"})

	levels := transform.BreadthFirstLevels(g)
	fmt.Println("Order:", levels.Order)
	fmt.Println("Levels:", levels.LevelsToIDs)
	fmt.Println("aliquot level:", levels.IDToLevel["aliquot"])
	// Output:
	// Order: [case sample diagnosis aliquot]
	// Levels: [[case] [sample diagnosis] [aliquot]]
	// aliquot level: 2
}

func ExampleAssignPositions() {
	g := dag.New(nil)
	for _, id := range []string{"project", "subject", "sample"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{Source: "subject", Target: "project"})
	_ = g.AddEdge(dag.Edge{Source: "sample", Target: "project"})

	transform.AssignPositions(g, transform.PositionOptions{})
	for _, n := range g.Nodes() {
		fmt.Printf("%s %.3f %v\n", n.ID, n.Position, n.PositionIndex)
	}
	// Output:
	// project [0.500 0.333] [0 0]
	// subject [0.333 0.667] [0 1]
	// sample [0.667 0.667] [1 1]
}
