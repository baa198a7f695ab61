// Package pkg provides the core libraries for Stratum graph layout.
//
// # Overview
//
// Stratum computes layered (rank-based) drawings of directed graphs: given
// nodes, edges, ports, and labels, it produces node positions, edge routes,
// and label placements. The pkg directory is organized as:
//
//  1. [graph] - The graph model and its JSON wire format
//  2. [layered] - The five-phase layered drawing pipeline
//  3. [layout] - Orchestration (options, strategies, hierarchy, caching)
//  4. [cache] - Result cache backends (file, redis, null)
//  5. [observability] - Hook interfaces for metrics and tracing
//  6. [buildinfo] - Build-time version information
//
// # Architecture
//
// The typical data flow through Stratum:
//
//	JSON/DOT graph input
//	         ↓
//	    [graph] package (model, validation)
//	         ↓
//	    [layout] package (hierarchy traversal, components, strategy)
//	         ↓
//	    [layered] package (cycles → layers → ordering → coords → routing)
//	         ↓
//	    annotated graph (positions, routes, labels) → JSON/DOT output
//
// # Quick Start
//
//	g := graph.New(nil)
//	g.AddNode(graph.Node{ID: "a", Size: graph.Size{W: 80, H: 40}})
//	g.AddNode(graph.Node{ID: "b", Size: graph.Size{W: 80, H: 40}})
//	g.AddEdge(graph.Edge{From: "a", To: "b"})
//
//	res, err := layout.Compute(ctx, g, layout.Options{})
//
// See the individual package documentation for details.
package pkg
