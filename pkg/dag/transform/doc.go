// Package transform arranges a dictionary graph for drawing.
//
// # Root
//
// [FindRoot] returns the node that is never an edge source. Dictionary
// edges run from a child type up to its parent, so this is the top of the
// hierarchy (usually "program" or "project").
//
// # Hierarchy
//
// [BuildHierarchy] builds a depth-first spanning tree over incoming edges
// and records, for each node, the nodes below it. The state is threaded
// through the recursion explicitly and returned, never captured.
//
// # Breadth-first levels
//
// [BreadthFirstLevels] computes the order, per-level node lists and level
// of each node with a two-pass breadth-first traversal:
//
//  1. The first pass finds each node's true level, using the hierarchy to
//     skip edges that point back up the tree so cycles cannot loop.
//  2. The second pass places each node once, under a parent exactly one
//     level above its true level.
//
// A node with several parents is therefore leveled under its shallowest
// parent, and output is identical across runs for identical input.
//
// # Positions
//
// [AssignPositions] spreads levels (or fixed-size grid rows) evenly over
// the unit square and writes Position and PositionIndex on each node.
//
// # Usage
//
//	levels := transform.BreadthFirstLevels(g)
//	transform.AssignPositions(g, transform.PositionOptions{Levels: &levels})
package transform
