package layered

import (
	"fmt"

	"github.com/stratumlab/stratum/pkg/graph"
)

// assignLayers writes a layer index ≥ 0 to every node such that for every
// edge the effective source layer is strictly smaller than the effective
// target layer, self-loops exempted.
//
// The heuristic is longest-path layering via a topological traversal
// (Kahn's algorithm) over effective edge directions: sources sit at layer
// 0 and every other node at one plus the maximum layer of its effective
// predecessors. This minimizes the layer count; graph width is not an
// objective. The queue is seeded in node insertion order, keeping the
// traversal deterministic.
//
// Returns ErrInvalidGraph if an effective-direction cycle survives cycle
// breaking, which indicates breakCycles was skipped or the graph was
// mutated in between.
func assignLayers(g *graph.Graph) error {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	layers := make(map[string]int, len(nodes))

	succs := func(id string) []*graph.Edge {
		var out []*graph.Edge
		for _, e := range g.Outgoing(id) {
			if !e.IsSelfLoop() && !e.Reversed {
				out = append(out, e)
			}
		}
		for _, e := range g.Incoming(id) {
			if !e.IsSelfLoop() && e.Reversed {
				out = append(out, e)
			}
		}
		return out
	}

	for _, n := range nodes {
		deg := 0
		for _, e := range g.Incoming(n.ID) {
			if !e.IsSelfLoop() && !e.Reversed {
				deg++
			}
		}
		for _, e := range g.Outgoing(n.ID) {
			if !e.IsSelfLoop() && e.Reversed {
				deg++
			}
		}
		inDegree[n.ID] = deg
	}

	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		visited++

		for _, e := range succs(curr) {
			head := e.Head()
			if l := layers[curr] + 1; l > layers[head] {
				layers[head] = l
			}
			inDegree[head]--
			if inDegree[head] == 0 {
				queue = append(queue, head)
			}
		}
	}

	if visited != len(nodes) {
		return fmt.Errorf("%w: effective edge directions contain a cycle", ErrInvalidGraph)
	}

	for _, n := range nodes {
		n.Layer = layers[n.ID]
	}
	return nil
}
