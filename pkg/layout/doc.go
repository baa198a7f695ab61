// Package layout orchestrates graph layout computation.
//
// The package owns everything around the core pipeline: the options
// schema, strategy selection, compound-node recursion, connected-component
// separation, fallback handling, debug snapshots, and result caching. The
// pipeline itself lives in the layered package; alternate strategies plug
// in through the Strategy interface and the compile-time registry.
//
// # Basic Usage
//
//	g := graph.New(nil)
//	a, _ := g.AddNode(graph.Node{ID: "a", Size: graph.Size{W: 80, H: 40}})
//	b, _ := g.AddNode(graph.Node{ID: "b", Size: graph.Size{W: 80, H: 40}})
//	g.AddEdge(graph.Edge{From: a.ID, To: b.ID})
//
//	res, err := layout.Compute(ctx, g, layout.Options{Direction: layout.DirectionDown})
//	if err != nil {
//	    return err
//	}
//	// g now carries positions, port placements, and edge routes.
//
// # Hierarchy
//
// Compound nodes (nodes with a non-nil child graph) are handled according
// to the hierarchy option. In separate-children mode each child graph is
// laid out independently, bottom-up, and the compound node is sized to
// enclose it; in include-children mode the hierarchy is flattened into one
// graph so layering crosses compound boundaries. Child graph coordinates
// are always relative to their parent node's top-left corner.
//
// # Failure Handling
//
// Invalid graphs and options fail the whole call before any mutation.
// Once the pipeline runs, failures are contained per subgraph: the grid
// strategy places the affected nodes instead and the result carries a
// WarnFallback warning.
//
// # Caching
//
// Runner wraps the engine with a content-addressed result cache; see the
// cache package for backends.
package layout
