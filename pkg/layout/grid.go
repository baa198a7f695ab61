package layout

import (
	"math"

	"github.com/stratumlab/stratum/pkg/graph"
)

// gridStrategy places nodes on a near-square grid in insertion order and
// routes every edge as a straight line. It ignores layers, ordering, and
// routing style, which makes it immune to the failure modes of the
// layered pipeline; the engine uses it as the fallback when the selected
// strategy errors on a subgraph.
type gridStrategy struct{}

func (gridStrategy) Name() string { return AlgorithmGrid }

func (gridStrategy) Layout(g *graph.Graph, opts *Options) ([]Warning, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, nil
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))

	// Uniform cells sized to the largest node keep rows and columns
	// aligned without per-cell bookkeeping.
	var cellW, cellH float64
	for _, n := range nodes {
		cellW = math.Max(cellW, math.Max(n.Size.W, opts.MinNodeWidth))
		cellH = math.Max(cellH, math.Max(n.Size.H, opts.MinNodeHeight))
	}
	cellW += opts.NodeSpacing
	cellH += opts.NodeSpacing

	for i, n := range nodes {
		if n.Size.W < opts.MinNodeWidth && !opts.FixedNodeSize {
			n.Size.W = opts.MinNodeWidth
		}
		if n.Size.H < opts.MinNodeHeight && !opts.FixedNodeSize {
			n.Size.H = opts.MinNodeHeight
		}
		col := i % cols
		row := i / cols
		cx := float64(col)*cellW + cellW/2
		cy := float64(row)*cellH + cellH/2
		n.Pos = graph.Point{X: cx - n.Size.W/2, Y: cy - n.Size.H/2}
		n.Layer = row
		n.Order = col

		for _, p := range n.Ports {
			p.Pos = gridPortPos(n, p)
		}
	}

	for _, e := range g.Edges() {
		e.Bends = nil
		if e.Label != nil {
			from, okF := g.Node(e.From)
			to, okT := g.Node(e.To)
			if okF && okT {
				mid := graph.Point{
					X: (from.Bounds().Center().X + to.Bounds().Center().X) / 2,
					Y: (from.Bounds().Center().Y + to.Bounds().Center().Y) / 2,
				}
				e.Label.Pos = graph.Point{
					X: mid.X + opts.LabelDistance,
					Y: mid.Y,
				}
			}
		}
	}
	return nil, nil
}

// gridPortPos spreads a node's ports evenly along their declared side.
func gridPortPos(n *graph.Node, p *graph.Port) graph.Point {
	side := n.PortsOnSide(p.Side)
	rank := 0
	for i, q := range side {
		if q == p {
			rank = i
			break
		}
	}
	frac := float64(rank+1) / float64(len(side)+1)
	b := n.Bounds()
	switch p.Side {
	case graph.SideNorth:
		return graph.Point{X: b.X + frac*b.W, Y: b.Y}
	case graph.SideSouth:
		return graph.Point{X: b.X + frac*b.W, Y: b.Bottom()}
	case graph.SideWest:
		return graph.Point{X: b.X, Y: b.Y + frac*b.H}
	default:
		return graph.Point{X: b.Right(), Y: b.Y + frac*b.H}
	}
}
