// Package dictionary reads data dictionaries and builds their type graph.
//
// A dictionary is a JSON object mapping type IDs to schema entries:
//
//	{
//	  "program": {"id": "program", "type": "object", "category": "administrative"},
//	  "project": {"id": "project", "type": "object", "category": "administrative",
//	              "links": [{"name": "programs", "target_type": "program"}]}
//	}
//
// Entry order is preserved. [BuildGraph] turns the entity types into a
// [dag.DAG] whose edges point from each type to the types it links up to,
// gated by observed [Counts] and [Links] unless every type is requested.
package dictionary
