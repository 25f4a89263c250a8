// Package nodelink draws dictionary graphs as node-link diagrams.
//
// # Overview
//
// Layout is delegated to Graphviz. [ToDOT] describes a leveled graph as
// fixed-size rectangles with one rank group per level, a [Provider] turns
// that description into Graphviz JSON with drawn coordinates, and
// [Convert] merges the coordinates back with the graph's semantics into a
// [Layout] a rendering layer can draw directly.
//
// # Usage
//
//	levels := transform.AssignPositions(g, transform.PositionOptions{})
//	dot := nodelink.ToDOT(g, levels.LevelsToIDs, nodelink.DefaultDOTOptions())
//
//	gv := nodelink.NewGraphviz("dot", logger)
//	defer gv.Close()
//	drawn, err := gv.Layout(ctx, dot)
//	if err != nil {
//	    return err // *LayoutError, code LAYOUT_UNAVAILABLE
//	}
//	layout, err := nodelink.Convert(g, drawn, levels.IDToLevel, nodelink.DefaultStyle())
//
// # Providers
//
// [Graphviz] runs the WebAssembly build of Graphviz in-process through
// [github.com/goccy/go-graphviz]. The runtime is created lazily, shared by
// all calls and dropped with [Graphviz.Invalidate]. Tests substitute a
// [ProviderFunc] returning canned JSON.
package nodelink
