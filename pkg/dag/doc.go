// Package dag provides the directed graph of data-dictionary entity types
// used by the dictionary visualizer.
//
// # Overview
//
// Nodes are entity types (program, project, subject, ...) and edges are the
// typed links declared between them. By dictionary convention an edge runs
// from the dependent type (Source) up to the type it belongs to (Target), so
// the root of a dictionary graph is the node that is never an edge source.
//
// Unlike a map-backed graph, [DAG] remembers node and edge insertion order.
// Every traversal in this module walks nodes and edges in that order, which
// is what makes leveling, layout and structure summaries reproducible
// between runs.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "project", Category: "administrative"})
//	g.AddNode(dag.Node{ID: "subject", Category: "clinical"})
//	g.AddEdge(dag.Edge{Source: "subject", Target: "project", Name: "projects"})
//
// Query the graph with [DAG.Outgoing], [DAG.Incoming], [DAG.Sinks] and
// related methods.
//
// # Cycles
//
// Dictionaries are expected to be acyclic but the type does not enforce it.
// [DAG.Validate] reports cycles; the leveling and structure algorithms in
// the subpackages tolerate them without looping.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Layout writes node
// positions in place, so callers must not share a graph across concurrent
// layout calls.
//
// # Related Packages
//
// The [transform] subpackage finds the root, computes breadth-first levels
// and assigns positions. The [structure] subpackage answers structural
// queries (descendants, articulation nodes, topological order, routes).
//
// [transform]: github.com/matzehuels/portalcore/pkg/dag/transform
// [structure]: github.com/matzehuels/portalcore/pkg/dag/structure
package dag
