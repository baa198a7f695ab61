package layered

import (
	"math"
	"slices"

	"github.com/stratumlab/stratum/pkg/graph"
)

// assignCoords converts layer and order indices into concrete coordinates.
//
// Within a layer, nodes are placed along the minor axis with at least
// NodeSpacing between consecutive boundaries (margins included). Across
// layers, separation is LayerSpacing scaled by LayerSpacingFac, plus
// EdgeLabelSpacing whenever a labeled edge runs between the two layers.
// A secondary objective straightens edges: bounded median-relaxation
// passes move each node toward the median of its neighbors' positions as
// far as the spacing slack to its in-layer neighbors permits. Finally an
// overlap-removal pass re-establishes the spacing invariant by shifting
// nodes minimally; node sizes are never shrunk.
func assignCoords(a *arena) []Warning {
	a.placeInitialMinors()

	var warnings []Warning
	if w := a.straighten(); w != nil {
		warnings = append(warnings, *w)
	}

	if a.cfg.OverlapMode != OverlapNone {
		a.removeOverlaps()
	}
	a.normalizeMinors()
	a.placeMajors()
	a.writePositions()
	a.placePorts()
	return warnings
}

// minSpacingBetween is the required center distance between two vnodes
// adjacent in a layer.
func (a *arena) minSpacingBetween(left, right *vnode) float64 {
	return left.minorExt/2 + left.marginHi + a.cfg.NodeSpacing + right.marginLo + right.minorExt/2
}

// placeInitialMinors lays every layer out left-packed in order.
func (a *arena) placeInitialMinors() {
	for _, layer := range a.layers {
		cursor := 0.0
		for i, vi := range layer {
			v := a.vnodes[vi]
			if i > 0 {
				cursor += a.minSpacingBetween(a.vnodes[layer[i-1]], v)
			} else {
				cursor += v.marginLo + v.minorExt/2
			}
			v.minor = cursor
		}
	}
}

// straighten runs bounded median-relaxation passes. Each node moves toward
// the median of its effective neighbors' minor centers, clamped to the
// slack left by its in-layer neighbors so the spacing invariant is never
// violated. Passes alternate sweep direction; the phase stops once the
// largest movement in a pass drops below Epsilon, or returns a convergence
// warning when MaxIter passes were not enough.
func (a *arena) straighten() *Warning {
	maxIter := a.cfg.MaxIter
	if maxIter < 1 {
		maxIter = 1
	}
	for iter := 0; iter < maxIter; iter++ {
		maxDelta := 0.0
		topDown := iter%2 == 0
		for li := range a.layers {
			l := li
			if !topDown {
				l = len(a.layers) - 1 - li
			}
			maxDelta = math.Max(maxDelta, a.relaxLayer(l))
		}
		if maxDelta < a.cfg.Epsilon {
			return nil
		}
	}
	w := Warning{
		Phase:   PhaseCoordinates,
		Message: "straightening pass budget exhausted before positions settled",
	}
	return &w
}

// relaxLayer moves each node of one layer toward its median neighbor
// position within slack and returns the largest movement applied.
func (a *arena) relaxLayer(l int) float64 {
	layer := a.layers[l]
	maxDelta := 0.0
	for i, vi := range layer {
		v := a.vnodes[vi]
		desired, ok := a.medianNeighborMinor(vi)
		if !ok {
			continue
		}

		lo := math.Inf(-1)
		hi := math.Inf(1)
		if i > 0 {
			lo = a.vnodes[layer[i-1]].minor + a.minSpacingBetween(a.vnodes[layer[i-1]], v)
		}
		if i+1 < len(layer) {
			hi = a.vnodes[layer[i+1]].minor - a.minSpacingBetween(v, a.vnodes[layer[i+1]])
		}
		if lo > hi {
			continue // neighbors leave no slack
		}

		target := math.Min(math.Max(desired, lo), hi)
		delta := math.Abs(target - v.minor)
		if delta > 0 {
			v.minor = target
			maxDelta = math.Max(maxDelta, delta)
		}
	}
	return maxDelta
}

// medianNeighborMinor returns the median minor center of the node's
// effective neighbors in both adjacent layers. Dummies weigh the same as
// real nodes, which keeps long edges straight.
func (a *arena) medianNeighborMinor(vi int) (float64, bool) {
	var minors []float64
	for _, si := range a.in[vi] {
		minors = append(minors, a.vnodes[a.segs[si].tail].minor)
	}
	for _, si := range a.out[vi] {
		minors = append(minors, a.vnodes[a.segs[si].head].minor)
	}
	if len(minors) == 0 {
		return 0, false
	}
	slices.Sort(minors)
	mid := len(minors) / 2
	if len(minors)%2 == 1 {
		return minors[mid], true
	}
	return (minors[mid-1] + minors[mid]) / 2, true
}

// removeOverlaps restores the minimum spacing invariant with a single
// left-to-right pass per layer, shifting each violating node (and
// transitively its right neighbors) by the smallest sufficient amount.
// Node sizes are never changed.
func (a *arena) removeOverlaps() {
	for _, layer := range a.layers {
		for i := 1; i < len(layer); i++ {
			prev := a.vnodes[layer[i-1]]
			v := a.vnodes[layer[i]]
			if min := prev.minor + a.minSpacingBetween(prev, v); v.minor < min {
				v.minor = min
			}
		}
	}
}

// normalizeMinors shifts the whole drawing so the smallest node boundary
// sits at minor 0, and records the total minor extent.
func (a *arena) normalizeMinors() {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, v := range a.vnodes {
		lo = math.Min(lo, v.minor-v.minorExt/2-v.marginLo)
		hi = math.Max(hi, v.minor+v.minorExt/2+v.marginHi)
	}
	if math.IsInf(lo, 1) {
		a.totalMinor = 0
		return
	}
	for _, v := range a.vnodes {
		v.minor -= lo
	}
	a.totalMinor = hi - lo
}

// placeMajors stacks layer bands along the major axis. Band extent is the
// largest node extent in the layer; the gap to the next band is the scaled
// layer spacing plus the edge-label reservation when a labeled edge runs
// through that gap.
func (a *arena) placeMajors() {
	gap := a.cfg.LayerSpacing * a.cfg.LayerSpacingFac
	if gap <= 0 {
		gap = a.cfg.LayerSpacing
	}

	labeled := make([]bool, len(a.layers))
	for _, s := range a.segs {
		if s.edge != nil && s.edge.Label != nil {
			labeled[a.vnodes[s.tail].layer] = true
		}
	}

	cursor := 0.0
	for l, layer := range a.layers {
		ext := 0.0
		for _, vi := range layer {
			ext = math.Max(ext, a.vnodes[vi].majorExt)
		}
		a.layerTop[l] = cursor
		a.layerExt[l] = ext
		for _, vi := range layer {
			a.vnodes[vi].major = cursor + ext/2
		}
		cursor += ext + gap
		if labeled[l] {
			cursor += a.cfg.EdgeLabelSpacing
		}
	}
	if len(a.layers) > 0 {
		cursor -= gap // no gap after the last band
		if labeled[len(a.layers)-1] {
			cursor -= a.cfg.EdgeLabelSpacing
		}
	}
	a.totalMajor = cursor
}

// writePositions converts internal centers to final coordinates on the
// real nodes and centers node labels.
func (a *arena) writePositions() {
	for _, v := range a.vnodes {
		if v.node == nil {
			continue
		}
		c := a.ax.point(v.minor, v.major, a.totalMajor)
		v.node.Pos = graph.Point{X: c.X - v.node.Size.W/2, Y: c.Y - v.node.Size.H/2}
		if v.node.Label != nil {
			v.node.Label.Pos = graph.Point{
				X: c.X - v.node.Label.Size.W/2,
				Y: c.Y - v.node.Label.Size.H/2,
			}
		}
	}
}

// placePorts distributes each node's ports along their sides. Fixed-port
// nodes keep declared index order; free ports are ordered by where their
// edges' other endpoints sit, which shortens the first and last route
// segments.
func (a *arena) placePorts() {
	for _, v := range a.vnodes {
		if v.node == nil || len(v.node.Ports) == 0 {
			continue
		}
		n := v.node
		for _, side := range []graph.Side{graph.SideNorth, graph.SideEast, graph.SideSouth, graph.SideWest} {
			ports := n.PortsOnSide(side)
			if len(ports) == 0 {
				continue
			}
			if !n.FixedPorts {
				a.sortFreePorts(v, ports)
			}
			placeSidePorts(n, side, ports)
		}
	}
}

// sortFreePorts orders ports by the mean minor position of the opposite
// endpoints of the edges using them; portless measurements keep their
// declared order (stable sort).
func (a *arena) sortFreePorts(v *vnode, ports []*graph.Port) {
	mean := make(map[string]float64, len(ports))
	for _, p := range ports {
		sum, cnt := 0.0, 0
		for _, e := range a.g.Outgoing(v.id) {
			if e.FromPort == p.ID && !e.IsSelfLoop() {
				if o, ok := a.byID[e.To]; ok {
					sum += a.vnodes[o].minor
					cnt++
				}
			}
		}
		for _, e := range a.g.Incoming(v.id) {
			if e.ToPort == p.ID && !e.IsSelfLoop() {
				if o, ok := a.byID[e.From]; ok {
					sum += a.vnodes[o].minor
					cnt++
				}
			}
		}
		if cnt > 0 {
			mean[p.ID] = sum / float64(cnt)
		} else {
			mean[p.ID] = v.minor
		}
	}
	slices.SortStableFunc(ports, func(x, y *graph.Port) int {
		switch dx, dy := mean[x.ID], mean[y.ID]; {
		case dx < dy:
			return -1
		case dx > dy:
			return 1
		default:
			return 0
		}
	})
}

// placeSidePorts spreads ports evenly along one side of a placed node.
func placeSidePorts(n *graph.Node, side graph.Side, ports []*graph.Port) {
	b := n.Bounds()
	length := b.W
	if side == graph.SideEast || side == graph.SideWest {
		length = b.H
	}
	for i, p := range ports {
		frac := (float64(i) + 1) / (float64(len(ports)) + 1)
		p.Offset = frac * length
		switch side {
		case graph.SideNorth:
			p.Pos = graph.Point{X: b.X + p.Offset, Y: b.Y}
		case graph.SideSouth:
			p.Pos = graph.Point{X: b.X + p.Offset, Y: b.Bottom()}
		case graph.SideWest:
			p.Pos = graph.Point{X: b.X, Y: b.Y + p.Offset}
		case graph.SideEast:
			p.Pos = graph.Point{X: b.Right(), Y: b.Y + p.Offset}
		}
	}
}
