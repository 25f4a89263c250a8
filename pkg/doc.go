// Package pkg provides the core libraries of the portalcore data portal
// engine.
//
// # Overview
//
// Two independent engines sit at the center:
//
//  1. [filter] and [gql] - compile the filter panel state into a GraphQL
//     filter tree, and [gql/sqlfilter] renders the same tree as SQL.
//     [query] builds the explorer's GraphQL requests around it.
//  2. [dictionary], [dag] and [render/nodelink] - turn a data dictionary
//     into a leveled graph, describe it in DOT and lay it out with
//     Graphviz. [dag/structure] summarizes how a node connects to the root.
//
// Around them:
//
//   - [pipeline] - orchestration with caching (build → level → describe → layout)
//   - [graph] - serialization types for graphs and layouts
//   - [cache] - file, Redis and null result caches
//   - [workspace] and [session] - per-client filter set workspaces
//   - [survival] - survival curve helpers for the explorer charts
//   - [api] - the HTTP JSON API
//   - [config], [errors], [observability], [buildinfo] - ambient concerns
//
// # Architecture
//
// The data flow for dictionaries:
//
//	Data dictionary JSON (+ observed counts and links)
//	         ↓
//	    [dictionary] package (entries → DAG)
//	         ↓
//	    [dag/transform] package (root, breadth-first levels, positions)
//	         ↓
//	    [render/nodelink] package (DOT → Graphviz → nodes and edges)
//	         ↓
//	    layout.json
//
// And for filters:
//
//	Filter panel state → [filter.Compile] → [gql.Filter] → GraphQL variables or SQL
//
// # Quick Start
//
//	d, _ := dictionary.ReadFile("dictionary.json")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	defer runner.Close()
//	res, err := runner.Execute(ctx, pipeline.Options{Dictionary: d, CreateAll: true})
//	// res.Layout holds rendered nodes and edges
package pkg
