package transform

import "github.com/matzehuels/portalcore/pkg/dag"

// PositionOptions configures AssignPositions.
type PositionOptions struct {
	// Levels reuses a previous BreadthFirstLevels result. Computed when nil.
	Levels *Levels
	// RowSize switches to grid mode: the root gets a row of its own and the
	// remaining nodes fill rows of RowSize in breadth-first order.
	RowSize int
}

// AssignPositions writes Position and PositionIndex on every placed node
// and returns the levels it used.
//
// Within a row of n nodes, node i sits at x = (i+1)/(n+1). Rows are spaced
// the same way vertically. Positions therefore lie strictly inside the
// unit square.
func AssignPositions(g *dag.DAG, opts PositionOptions) Levels {
	var levels Levels
	if opts.Levels != nil {
		levels = *opts.Levels
	} else {
		levels = BreadthFirstLevels(g)
	}

	rows := levels.LevelsToIDs
	if opts.RowSize > 0 {
		rows = gridRows(levels.Order, opts.RowSize)
	}

	for r, ids := range rows {
		for i, id := range ids {
			n, ok := g.Node(id)
			if !ok {
				continue
			}
			n.Position = [2]float64{
				float64(i+1) / float64(len(ids)+1),
				float64(r+1) / float64(len(rows)+1),
			}
			n.PositionIndex = [2]int{i, r}
		}
	}
	return levels
}

func gridRows(order []string, size int) [][]string {
	var rows [][]string
	for i, id := range order {
		if i < 2 || len(rows[len(rows)-1]) >= size {
			rows = append(rows, []string{id})
			continue
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], id)
	}
	return rows
}
