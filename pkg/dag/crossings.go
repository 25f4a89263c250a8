package dag

import "slices"

// CountCrossings returns the number of edge crossings in a leveled drawing
// of g. levels lists node IDs left to right per level, root level first.
// Only edges between consecutive levels are counted; edges that skip a
// level or stay within one are routed freely by the layout engine.
func CountCrossings(g *DAG, levels [][]string) int {
	crossings := 0
	for i := 0; i+1 < len(levels); i++ {
		crossings += CountLevelCrossings(g, levels[i], levels[i+1])
	}
	return crossings
}

// CountLevelCrossings counts crossings between the edges joining two
// adjacent levels. upper holds the edge targets and lower the sources.
//
// Two edges (u1,v1) and (u2,v2) cross if and only if
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// which is the number of inversions in the lower positions once edges are
// sorted by upper position. A Fenwick tree counts them in O(E log V).
func CountLevelCrossings(g *DAG, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := PosMap(lower)

	type edge struct{ upper, lower int }
	var edges []edge
	for i, id := range upper {
		for _, src := range g.Incoming(id) {
			if pos, ok := lowerPos[src]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		// edges seen so far ending at or left of e.lower
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
