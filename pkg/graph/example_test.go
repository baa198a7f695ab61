package graph_test

import (
	"fmt"

	"github.com/stratumlab/stratum/pkg/graph"
)

func ExampleGraph_basic() {
	// Build a small service graph: gateway → auth → store
	g := graph.New(nil)
	_, _ = g.AddNode(graph.Node{ID: "gateway", Size: graph.Size{W: 80, H: 40}})
	_, _ = g.AddNode(graph.Node{ID: "auth", Size: graph.Size{W: 80, H: 40}})
	_, _ = g.AddNode(graph.Node{ID: "store", Size: graph.Size{W: 80, H: 40}})
	_, _ = g.AddEdge(graph.Edge{From: "gateway", To: "auth"})
	_, _ = g.AddEdge(graph.Edge{From: "auth", To: "store"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	// Output:
	// Nodes: 3
	// Edges: 2
}

func ExampleGraph_Components() {
	// Two disjoint subsystems in one graph
	g := graph.New(nil)
	_, _ = g.AddNode(graph.Node{ID: "web"})
	_, _ = g.AddNode(graph.Node{ID: "api"})
	_, _ = g.AddNode(graph.Node{ID: "cron"})
	_, _ = g.AddEdge(graph.Edge{From: "web", To: "api"})

	for i, comp := range g.Components() {
		fmt.Printf("Component %d: %d nodes\n", i, comp.NodeCount())
	}
	// Output:
	// Component 0: 2 nodes
	// Component 1: 1 nodes
}

func ExampleEdge_Tail() {
	// A reversed edge keeps its drawn orientation but flips its
	// layering direction.
	e := graph.Edge{From: "worker", To: "queue", Reversed: true}
	fmt.Println("Drawn:", e.From, "→", e.To)
	fmt.Println("Layered:", e.Tail(), "→", e.Head())
	// Output:
	// Drawn: worker → queue
	// Layered: queue → worker
}
