package layout_test

import (
	"context"
	"fmt"

	"github.com/stratumlab/stratum/pkg/graph"
	"github.com/stratumlab/stratum/pkg/layout"
)

func ExampleCompute() {
	// A three-stage pipeline laid out top to bottom.
	g := graph.New(nil)
	_, _ = g.AddNode(graph.Node{ID: "ingest", Size: graph.Size{W: 100, H: 40}})
	_, _ = g.AddNode(graph.Node{ID: "transform", Size: graph.Size{W: 100, H: 40}})
	_, _ = g.AddNode(graph.Node{ID: "publish", Size: graph.Size{W: 100, H: 40}})
	_, _ = g.AddEdge(graph.Edge{From: "ingest", To: "transform"})
	_, _ = g.AddEdge(graph.Edge{From: "transform", To: "publish"})

	res, err := layout.Compute(context.Background(), g, layout.Options{})
	if err != nil {
		fmt.Println("layout failed:", err)
		return
	}

	fmt.Println("Layers:", res.Stats.Layers)
	for _, n := range g.Nodes() {
		fmt.Printf("%s: layer %d\n", n.ID, n.Layer)
	}
	// Output:
	// Layers: 3
	// ingest: layer 0
	// transform: layer 1
	// publish: layer 2
}

func ExampleOptions_ValidateAndSetDefaults() {
	opts := layout.Options{Direction: "sideways"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		fmt.Println("invalid:", err)
	}

	opts = layout.Options{}
	_ = opts.ValidateAndSetDefaults()
	fmt.Println("Algorithm:", opts.Algorithm)
	fmt.Println("Direction:", opts.Direction)
	// Output:
	// invalid: invalid direction: "sideways" (must be one of: down, up, right, left)
	// Algorithm: layered
	// Direction: down
}
