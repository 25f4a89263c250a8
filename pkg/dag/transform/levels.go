package transform

import "github.com/matzehuels/portalcore/pkg/dag"

// Levels is the breadth-first arrangement of a dictionary graph.
type Levels struct {
	Order       []string       `json:"order"`       // node IDs in breadth-first order
	LevelsToIDs [][]string     `json:"levels"`      // node IDs per level, root level first
	IDToLevel   map[string]int `json:"nodeToLevel"` // level of every placed node
}

func emptyLevels() Levels {
	return Levels{Order: []string{}, LevelsToIDs: [][]string{}, IDToLevel: map[string]int{}}
}

type queued struct {
	id    string
	level int
}

// BreadthFirstLevels arranges the graph in levels below its root.
//
// Predecessors (sources of incoming edges) of a node sit one level below
// it. The traversal runs twice. The first pass records each node's true
// level in plain breadth-first order, skipping predecessors that are tree
// ancestors of the current node so back edges cannot loop. The second pass
// places a predecessor only the first time it is reached and only under a
// parent exactly one level above its true level, so a node with several
// parents lands under the shallowest one.
//
// Nodes not reachable from the root are left out. A graph without a root
// yields empty levels.
func BreadthFirstLevels(g *dag.DAG) Levels {
	result := emptyLevels()

	root, ok := FindRoot(g)
	if !ok {
		return result
	}

	trueLevel := trueLevels(g, root, BuildHierarchy(g, root))

	processed := map[string]bool{root: true}
	queue := []queued{{id: root}}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		result.Order = append(result.Order, cur.id)
		if len(result.LevelsToIDs) <= cur.level {
			result.LevelsToIDs = append(result.LevelsToIDs, []string{})
		}
		result.LevelsToIDs[cur.level] = append(result.LevelsToIDs[cur.level], cur.id)
		result.IDToLevel[cur.id] = cur.level

		for _, src := range g.Incoming(cur.id) {
			lvl, ok := trueLevel[src]
			if processed[src] || !ok || lvl != cur.level+1 {
				continue
			}
			processed[src] = true
			queue = append(queue, queued{id: src, level: cur.level + 1})
		}
	}
	return result
}

// trueLevels is the first breadth-first pass.
func trueLevels(g *dag.DAG, root string, h Hierarchy) map[string]int {
	levels := make(map[string]int, g.NodeCount())
	queue := []queued{{id: root}}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if _, seen := levels[cur.id]; seen {
			continue
		}
		levels[cur.id] = cur.level
		for _, src := range g.Incoming(cur.id) {
			if h.IsAncestor(src, cur.id) {
				continue
			}
			if _, seen := levels[src]; seen {
				continue
			}
			queue = append(queue, queued{id: src, level: cur.level + 1})
		}
	}
	return levels
}
