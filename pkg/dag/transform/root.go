package transform

import "github.com/matzehuels/portalcore/pkg/dag"

// FindRoot returns the first node, in insertion order, that never appears
// as an edge source. Dictionary edges point from child to parent, so this
// is the top of the hierarchy. It returns false when every node has an
// outgoing edge.
func FindRoot(g *dag.DAG) (string, bool) {
	for _, id := range g.NodeIDs() {
		if g.OutDegree(id) == 0 {
			return id, true
		}
	}
	return "", false
}
