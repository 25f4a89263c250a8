// Package graph provides serialization types for dictionary graphs and
// rendered layouts.
//
// This package defines the wire format used for JSON files, API responses
// and cached results:
//
//   - [Graph]: node-link format of a built dictionary graph, optionally
//     carrying its breadth-first [transform.Levels]
//   - [Layout]: a rendered nodelink layout together with the DOT
//     description and engine that produced it
//
// Use [FromDAG] and [ToDAG] to convert between [Graph] and dag.DAG.
//
// # Graph Serialization
//
//	{
//	  "nodes": [{"id": "project", "category": "administrative"}, {"id": "subject"}],
//	  "edges": [{"source": "subject", "target": "project", "name": "projects"}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("graph.json")   // File -> DAG
//	graph.WriteGraphFile(g, levels, "out.json") // DAG -> File
//	data, _ := graph.MarshalGraph(g, nil)       // DAG -> []byte
//
// Node order is the graph's insertion order, which is the dictionary key
// order, so output is deterministic without sorting.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
