// Package graph provides the in-memory graph model consumed and annotated
// by the stratum layout engine.
//
// # Overview
//
// A [Graph] holds an ordered set of nodes and edges, optionally nested:
// a [Node] with a non-nil Children graph is a compound node whose final
// size encloses its laid-out child graph. Nodes carry ports and labels;
// edges carry bend points, labels, and a layering-direction flag set by
// cycle breaking.
//
// The caller constructs a graph, hands it to the layout engine, and reads
// positions, sizes, routes, and label placements back from the same
// structure. No entity is created or destroyed across a layout call except
// transient dummy nodes, which never survive into results.
//
// # Basic Usage
//
// Create a graph with [New], add nodes with [Graph.AddNode], and edges with
// [Graph.AddEdge]. Node IDs must be unique within their graph:
//
//	g := graph.New(nil)
//	g.AddNode(graph.Node{ID: "a", Size: graph.Size{W: 60, H: 30}})
//	g.AddNode(graph.Node{ID: "b", Size: graph.Size{W: 60, H: 30}})
//	g.AddEdge(graph.Edge{From: "a", To: "b"})
//
// # Determinism
//
// Node and edge iteration order is insertion order, everywhere. The layout
// engine relies on this as the canonical tie-break order, so identical
// construction sequences produce identical layouts.
//
// # Serialization
//
// [Marshal], [Unmarshal], and the Read/Write helpers convert graphs to a
// JSON wire form with round-trip fidelity; the same format carries both
// bare input graphs and fully annotated results.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. A layout invocation
// assumes exclusive ownership of its graph; [Graph.Components] produces
// pointer-sharing partitions whose node sets are disjoint, which is what
// allows components to be laid out on separate goroutines.
package graph
