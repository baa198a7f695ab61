package layered

import "github.com/stratumlab/stratum/pkg/graph"

// breakCycles marks a set of edges as direction-reversed so that the graph
// restricted to effective edge directions is acyclic. The declared From/To
// orientation is untouched; renderers keep drawing arrowheads from it.
//
// The traversal is a depth-first search over nodes in insertion order,
// visiting sources first so that natural roots anchor the forest. Every
// back edge of the search (an edge into a node currently on the stack) is
// reversed. After reversal all effective edges point from later to earlier
// finish times, so a topological order exists by construction.
//
// Self-loops are never reversed. Multi-edges between the same pair are
// evaluated independently; reversing one does not imply reversing others.
// Any reversal flags left over from a previous run are cleared first.
//
// Returns the number of edges reversed; zero for acyclic input.
func breakCycles(g *graph.Graph) int {
	for _, e := range g.Edges() {
		e.Reversed = false
	}

	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	reversed := 0

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, e := range g.Outgoing(id) {
			if e.IsSelfLoop() {
				continue
			}
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				e.Reversed = true
				reversed++
			}
		}
		color[id] = black
	}

	for _, n := range g.Nodes() {
		if len(g.Incoming(n.ID)) == 0 && color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	return reversed
}
