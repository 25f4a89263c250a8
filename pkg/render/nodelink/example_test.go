package nodelink_test

import (
	"fmt"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
	"github.com/matzehuels/portalcore/pkg/render/nodelink"
)

func ExampleToDOT() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "project", Title: "Project", Category: "administrative"})
	_ = g.AddNode(dag.Node{ID: "subject", Title: "Subject", Category: "clinical"})
	_ = g.AddEdge(dag.Edge{Source: "subject", Target: "project"})

	levels := transform.AssignPositions(g, transform.PositionOptions{})
	fmt.Println(nodelink.ToDOT(g, levels.LevelsToIDs, nodelink.DefaultDOTOptions()))
	// Output:
	// digraph dictionary {
	// size="5, 5"
	// ratio=1
	// "project" [type="administrative" label="Project" fixedsize=true width=1.2 height=0.8 shape=rectangle
	// ]
	// "subject" [type="clinical" label="Subject" fixedsize=true width=1.2 height=0.8 shape=rectangle
	// ]
	// "subject" -> "project"[arrowhead=none tailport=s ]
	// {rank=same "project"}
	// {rank=same "subject"}
	// }
}
