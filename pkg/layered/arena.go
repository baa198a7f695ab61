package layered

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/stratumlab/stratum/pkg/graph"
)

// The pipeline's middle phases never touch the caller's graph structure.
// They run on an arena: a flat slice of vnodes addressed by stable integer
// ids, holding every real node plus one dummy vnode per layer an edge
// skips. Workers and phases write into the arena; only finished positions
// and orders are copied back onto real nodes.

// vnode is one arena entry, either a real node or a dummy subdividing a
// long edge.
type vnode struct {
	node  *graph.Node // nil for dummies
	id    string
	layer int
	order int

	minor    float64 // center along the minor (in-layer) axis
	major    float64 // center along the major (flow) axis
	minorExt float64 // size along the minor axis
	majorExt float64 // size along the major axis
	marginLo float64 // margin on the low-minor side
	marginHi float64 // margin on the high-minor side
}

func (v *vnode) isDummy() bool { return v.node == nil }

func (v *vnode) fixedPorts() bool { return v.node != nil && v.node.FixedPorts }

// seg is an arena edge between adjacent layers, in effective direction:
// head.layer == tail.layer + 1. A graph edge spanning k layers contributes
// k segs chained through dummies.
type seg struct {
	tail, head int
	edge       *graph.Edge
}

// arena holds the complete working state of one layered pipeline run.
type arena struct {
	g   *graph.Graph
	cfg Config
	ax  axes

	vnodes []*vnode
	byID   map[string]int
	segs   []seg
	out    [][]int // vnode index -> indices of segs leaving it
	in     [][]int // vnode index -> indices of segs entering it

	layers [][]int // layer -> vnode indices in current order

	// chains maps each long edge to its dummy vnode indices, tail to head.
	chains map[*graph.Edge][]int

	// major geometry, filled by coordinate assignment
	layerTop   []float64
	layerExt   []float64
	totalMajor float64
	totalMinor float64

	rng *rand.Rand
}

// buildArena constructs the arena from a layered graph. Node sizes are
// finalized here (minimum size, fixed size, port feasibility) because every
// later phase reads extents.
func buildArena(g *graph.Graph, cfg Config) (*arena, error) {
	ax := axesFor(cfg.Direction)
	a := &arena{
		g:      g,
		cfg:    cfg,
		ax:     ax,
		byID:   make(map[string]int, g.NodeCount()),
		chains: make(map[*graph.Edge][]int),
		rng:    rand.New(rand.NewSource(int64(cfg.Seed))),
	}

	maxLayer := 0
	for _, n := range g.Nodes() {
		if err := sizeNode(n, cfg); err != nil {
			return nil, err
		}
		v := &vnode{
			node:     n,
			id:       n.ID,
			layer:    n.Layer,
			minorExt: ax.minorExtent(n.Size),
			majorExt: ax.majorExtent(n.Size),
			marginLo: ax.minorMarginLo(n.Margin),
			marginHi: ax.minorMarginHi(n.Margin),
		}
		a.byID[n.ID] = len(a.vnodes)
		a.vnodes = append(a.vnodes, v)
		if n.Layer > maxLayer {
			maxLayer = n.Layer
		}
	}

	for ei, e := range g.Edges() {
		if e.IsSelfLoop() {
			continue // routed around the node, never layered
		}
		tail := a.byID[e.Tail()]
		head := a.byID[e.Head()]
		span := a.vnodes[head].layer - a.vnodes[tail].layer
		if span == 1 {
			a.addSeg(seg{tail: tail, head: head, edge: e})
			continue
		}
		// Subdivide: one dummy per skipped layer. A labeled edge gets room
		// for its label at the dummy nearest the edge's midpoint.
		prev := tail
		labelAt := -1
		if e.Label != nil {
			labelAt = a.vnodes[tail].layer + span/2
		}
		for layer := a.vnodes[tail].layer + 1; layer < a.vnodes[head].layer; layer++ {
			d := &vnode{
				id:       fmt.Sprintf("#dummy:%d:%d", ei, layer),
				layer:    layer,
				minorExt: 1,
			}
			if layer == labelAt {
				d.minorExt = math.Max(1, a.ax.minorExtent(e.Label.Size))
			}
			di := len(a.vnodes)
			a.byID[d.id] = di
			a.vnodes = append(a.vnodes, d)
			a.chains[e] = append(a.chains[e], di)
			a.addSeg(seg{tail: prev, head: di, edge: e})
			prev = di
		}
		a.addSeg(seg{tail: prev, head: head, edge: e})
	}

	// Initial in-layer order: insertion order, dummies after real nodes.
	a.layers = make([][]int, maxLayer+1)
	for i, v := range a.vnodes {
		a.layers[v.layer] = append(a.layers[v.layer], i)
	}
	a.renumber()

	a.layerTop = make([]float64, len(a.layers))
	a.layerExt = make([]float64, len(a.layers))
	return a, nil
}

func (a *arena) addSeg(s seg) {
	for len(a.out) < len(a.vnodes) {
		a.out = append(a.out, nil)
		a.in = append(a.in, nil)
	}
	si := len(a.segs)
	a.segs = append(a.segs, s)
	a.out[s.tail] = append(a.out[s.tail], si)
	a.in[s.head] = append(a.in[s.head], si)
}

// renumber refreshes every vnode's order index from the layers slices.
func (a *arena) renumber() {
	for _, layer := range a.layers {
		for pos, vi := range layer {
			a.vnodes[vi].order = pos
		}
	}
}

// sizeNode applies sizing rules before any geometry is computed. With fixed
// sizing the declared size is final and port feasibility becomes a hard
// constraint; otherwise nodes grow to the configured minimum and to
// whatever their fixed ports require.
func sizeNode(n *graph.Node, cfg Config) error {
	if !cfg.FixedNodeSize || n.Size.IsZero() {
		n.Size.W = math.Max(n.Size.W, cfg.MinNodeSize.W)
		n.Size.H = math.Max(n.Size.H, cfg.MinNodeSize.H)
	}

	if !n.FixedPorts {
		return nil
	}
	for _, side := range []graph.Side{graph.SideNorth, graph.SideEast, graph.SideSouth, graph.SideWest} {
		count := len(n.PortsOnSide(side))
		if count < 2 {
			continue
		}
		need := float64(count+1) * minPortSpacing
		length := n.Size.W
		if side == graph.SideEast || side == graph.SideWest {
			length = n.Size.H
		}
		if length >= need {
			continue
		}
		if cfg.FixedNodeSize {
			return fmt.Errorf("%w: node %s needs %.0f on side %s for %d fixed ports, has %.0f",
				ErrUnsatisfiableConstraint, n.ID, need, side, count, length)
		}
		if side == graph.SideEast || side == graph.SideWest {
			n.Size.H = need
		} else {
			n.Size.W = need
		}
	}
	return nil
}

// =============================================================================
// Axes - direction-independent geometry
// =============================================================================

// axes translates between the pipeline's internal (minor, major) plane and
// final (x, y) coordinates. Internally layer 0 always sits at major 0 and
// layers stack toward growing major; the direction option only changes the
// final mapping. flipped mirrors the major axis (up, left); horizontal
// swaps the axes (right, left).
type axes struct {
	horizontal bool
	flipped    bool
}

func axesFor(direction string) axes {
	switch direction {
	case DirectionUp:
		return axes{flipped: true}
	case DirectionRight:
		return axes{horizontal: true}
	case DirectionLeft:
		return axes{horizontal: true, flipped: true}
	default:
		return axes{}
	}
}

func (a axes) minorExtent(s graph.Size) float64 {
	if a.horizontal {
		return s.H
	}
	return s.W
}

func (a axes) majorExtent(s graph.Size) float64 {
	if a.horizontal {
		return s.W
	}
	return s.H
}

func (a axes) minorMarginLo(in graph.Insets) float64 {
	if a.horizontal {
		return in.Top
	}
	return in.Left
}

func (a axes) minorMarginHi(in graph.Insets) float64 {
	if a.horizontal {
		return in.Bottom
	}
	return in.Right
}

// point maps an internal (minor, major) pair to final coordinates, given
// the total major extent of the drawing for mirrored directions.
func (a axes) point(minor, major, totalMajor float64) graph.Point {
	if a.flipped {
		major = totalMajor - major
	}
	if a.horizontal {
		return graph.Point{X: major, Y: minor}
	}
	return graph.Point{X: minor, Y: major}
}

// =============================================================================
// Canonical port sides
// =============================================================================

// canonSide names a node boundary in the internal plane: facing the
// previous layer, the next layer, or the low/high end of the minor axis.
type canonSide int

const (
	sidePrev canonSide = iota
	sideNext
	sideLow
	sideHigh
)

// canonicalSide maps a declared (final-space) port side to the internal
// plane for the given flow direction.
func canonicalSide(direction string, s graph.Side) canonSide {
	switch direction {
	case DirectionUp:
		switch s {
		case graph.SideSouth:
			return sidePrev
		case graph.SideNorth:
			return sideNext
		case graph.SideWest:
			return sideLow
		default:
			return sideHigh
		}
	case DirectionRight:
		switch s {
		case graph.SideWest:
			return sidePrev
		case graph.SideEast:
			return sideNext
		case graph.SideNorth:
			return sideLow
		default:
			return sideHigh
		}
	case DirectionLeft:
		switch s {
		case graph.SideEast:
			return sidePrev
		case graph.SideWest:
			return sideNext
		case graph.SideNorth:
			return sideLow
		default:
			return sideHigh
		}
	default: // down
		switch s {
		case graph.SideNorth:
			return sidePrev
		case graph.SideSouth:
			return sideNext
		case graph.SideWest:
			return sideLow
		default:
			return sideHigh
		}
	}
}
