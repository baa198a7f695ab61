package layered

import (
	"math"
	"slices"

	"github.com/stratumlab/stratum/pkg/graph"
)

// routeEdges computes bend points for every edge in the routing style the
// configuration selects, places edge labels, and optionally adapts free
// port positions to the routes. Dummy chain positions become the route
// skeleton: polyline emits them directly, orthogonal threads horizontal
// and vertical segments through the corridor midlines between layer bands,
// and splines smooths the polyline skeleton.
//
// Bend points are stored in the edge's declared From→To orientation even
// for reversed edges, so renderers never need to consult the flag.
func routeEdges(a *arena) {
	if a.cfg.AdaptPortPositions {
		a.adaptPorts()
	}

	bundles := a.bundleEdges()

	for _, e := range a.g.Edges() {
		if e.IsSelfLoop() {
			a.routeSelfLoop(e)
		} else {
			a.routeEdge(e, bundles[e])
		}
		if e.Label != nil {
			a.placeEdgeLabel(e)
		}
	}
}

// internalPoint inverts the axes mapping, returning (minor, major) for a
// final-space point.
func (a *arena) internalPoint(p graph.Point) (minor, major float64) {
	if a.ax.horizontal {
		minor, major = p.Y, p.X
	} else {
		minor, major = p.X, p.Y
	}
	if a.ax.flipped {
		major = a.totalMajor - major
	}
	return minor, major
}

// ipoint is a route point in internal coordinates.
type ipoint struct{ minor, major float64 }

// anchor returns the internal point where an edge leaves or enters a node:
// the declared port if any, otherwise the center of the boundary facing
// the adjacent layer.
func (a *arena) anchor(vi int, e *graph.Edge, incoming bool) ipoint {
	v := a.vnodes[vi]
	if portID := attachPortID(e, incoming); portID != "" && v.node != nil {
		if p, ok := v.node.Port(portID); ok {
			minor, major := a.internalPoint(p.Pos)
			return ipoint{minor: minor, major: major}
		}
	}
	if incoming {
		return ipoint{minor: v.minor, major: v.major - v.majorExt/2}
	}
	return ipoint{minor: v.minor, major: v.major + v.majorExt/2}
}

// corridorMid is the major coordinate halfway through the gap between
// layer band l and band l+1.
func (a *arena) corridorMid(l int) float64 {
	bottom := a.layerTop[l] + a.layerExt[l]
	return (bottom + a.layerTop[l+1]) / 2
}

// routeEdge computes the route of a non-self-loop edge. bundleOffset
// shifts interior points along the minor axis to keep merged parallel
// edges distinguishable.
func (a *arena) routeEdge(e *graph.Edge, bundleOffset float64) {
	tail := a.byID[e.Tail()]
	head := a.byID[e.Head()]

	start := a.anchor(tail, e, false)
	end := a.anchor(head, e, true)

	var waypoints []ipoint
	for _, di := range a.chains[e] {
		d := a.vnodes[di]
		waypoints = append(waypoints, ipoint{minor: d.minor, major: d.major})
	}

	if bundleOffset != 0 && len(waypoints) == 0 {
		// Parallel edges between adjacent layers need at least one interior
		// point to fan out around.
		waypoints = append(waypoints, ipoint{
			minor: (start.minor + end.minor) / 2,
			major: a.corridorMid(a.vnodes[tail].layer),
		})
	}
	for i := range waypoints {
		waypoints[i].minor += bundleOffset
	}

	var route []ipoint
	switch a.cfg.Routing {
	case RoutingOrthogonal:
		route = a.orthogonalRoute(tail, start, end, waypoints)
	case RoutingSplines:
		route = smoothRoute(append(append([]ipoint{start}, waypoints...), end))
	default:
		route = waypoints
	}

	bends := make([]graph.Point, len(route))
	for i, p := range route {
		bends[i] = a.ax.point(p.minor, p.major, a.totalMajor)
	}
	if e.Reversed {
		slices.Reverse(bends)
	}
	e.Bends = bends
}

// orthogonalRoute rebuilds the skeleton as horizontal/vertical segments:
// every minor change happens on the corridor midline between the two
// layers it separates.
func (a *arena) orthogonalRoute(tail int, start, end ipoint, waypoints []ipoint) []ipoint {
	full := append(append([]ipoint{start}, waypoints...), end)
	layer := a.vnodes[tail].layer

	var route []ipoint
	for i := 0; i+1 < len(full); i++ {
		p, q := full[i], full[i+1]
		if p.minor != q.minor {
			mid := a.corridorMid(layer + i)
			route = append(route, ipoint{minor: p.minor, major: mid}, ipoint{minor: q.minor, major: mid})
		}
	}
	return route
}

// smoothRoute applies two rounds of corner cutting to the skeleton,
// keeping the endpoints, and returns the interior points of the result.
func smoothRoute(skeleton []ipoint) []ipoint {
	if len(skeleton) < 3 {
		return skeleton[1 : len(skeleton)-1]
	}
	pts := skeleton
	for round := 0; round < 2; round++ {
		out := []ipoint{pts[0]}
		for i := 0; i+1 < len(pts); i++ {
			p, q := pts[i], pts[i+1]
			out = append(out,
				ipoint{minor: p.minor*0.75 + q.minor*0.25, major: p.major*0.75 + q.major*0.25},
				ipoint{minor: p.minor*0.25 + q.minor*0.75, major: p.major*0.25 + q.major*0.75},
			)
		}
		out = append(out, pts[len(pts)-1])
		pts = out
	}
	return pts[1 : len(pts)-1]
}

// bundleEdges assigns each edge a minor-axis offset when parallel edges
// between the same node pair are merged into a shared corridor. Offsets
// are symmetric around zero so the bundle stays centered.
func (a *arena) bundleEdges() map[*graph.Edge]float64 {
	offsets := make(map[*graph.Edge]float64)
	if !a.cfg.MergeParallelEdges {
		return offsets
	}

	const fan = 4.0
	groups := make(map[[2]string][]*graph.Edge)
	var keys [][2]string
	for _, e := range a.g.Edges() {
		if e.IsSelfLoop() {
			continue
		}
		key := [2]string{e.From, e.To}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if groups[key] == nil {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], e)
	}
	for _, key := range keys {
		bundle := groups[key]
		if len(bundle) < 2 {
			continue
		}
		for i, e := range bundle {
			offsets[e] = (float64(i) - float64(len(bundle)-1)/2) * fan
		}
	}
	return offsets
}

// routeSelfLoop routes an edge from a node to itself around the high-minor
// side of the node, outside its boundary but inside its own layer band, so
// the loop never enters an adjacent layer's corridor.
func (a *arena) routeSelfLoop(e *graph.Edge) {
	vi, ok := a.byID[e.From]
	if !ok {
		return
	}
	v := a.vnodes[vi]
	clearance := math.Max(a.cfg.NodeSpacing/2, 6)
	loopMinor := v.minor + v.minorExt/2 + v.marginHi + clearance
	rise := math.Min(v.majorExt/4, a.layerExt[v.layer]/4)

	bends := []graph.Point{
		a.ax.point(loopMinor, v.major-rise, a.totalMajor),
		a.ax.point(loopMinor, v.major+rise, a.totalMajor),
	}
	e.Bends = bends
}

// placeEdgeLabel puts the label at the configured distance and angle from
// the edge's source anchor, nudged along the same direction until it
// clears every bend point of its own edge.
func (a *arena) placeEdgeLabel(e *graph.Edge) {
	var anchor graph.Point
	if vi, ok := a.byID[e.From]; ok {
		p := a.anchor(vi, e, e.Reversed)
		anchor = a.ax.point(p.minor, p.major, a.totalMajor)
	}

	rad := a.cfg.LabelAngle * math.Pi / 180
	dx := math.Cos(rad) * a.cfg.LabelDistance
	dy := math.Sin(rad) * a.cfg.LabelDistance

	pos := graph.Point{X: anchor.X + dx, Y: anchor.Y + dy}
	box := func(p graph.Point) graph.Rect {
		return graph.Rect{X: p.X, Y: p.Y, W: e.Label.Size.W, H: e.Label.Size.H}
	}
	for tries := 0; tries < 8 && labelHitsBend(box(pos), e.Bends); tries++ {
		pos = pos.Add(dx/2+1, dy/2)
	}
	e.Label.Pos = pos
}

func labelHitsBend(r graph.Rect, bends []graph.Point) bool {
	for _, b := range bends {
		if b.X >= r.X && b.X <= r.Right() && b.Y >= r.Y && b.Y <= r.Bottom() {
			return true
		}
	}
	return false
}

// adaptPorts moves ports on nodes without fixed port order to the minor
// position their edges actually head toward, clamped to the node side, so
// routes meet the boundary without a kink at the port.
func (a *arena) adaptPorts() {
	for _, v := range a.vnodes {
		if v.node == nil || v.node.FixedPorts || len(v.node.Ports) == 0 {
			continue
		}
		for _, p := range v.node.Ports {
			target, ok := a.portTargetMinor(v, p)
			if !ok {
				continue
			}
			moveTowardMinor(a, v, p, target)
		}
	}
}

// portTargetMinor is the mean minor position of the nearest route points
// of the edges using the port: the adjacent dummy if the edge has a chain,
// otherwise the opposite endpoint.
func (a *arena) portTargetMinor(v *vnode, p *graph.Port) (float64, bool) {
	sum, cnt := 0.0, 0
	consider := func(e *graph.Edge, other string) {
		if e.IsSelfLoop() {
			return
		}
		if chain := a.chains[e]; len(chain) > 0 {
			if e.Tail() == v.id {
				sum += a.vnodes[chain[0]].minor
			} else {
				sum += a.vnodes[chain[len(chain)-1]].minor
			}
			cnt++
			return
		}
		if o, ok := a.byID[other]; ok {
			sum += a.vnodes[o].minor
			cnt++
		}
	}
	for _, e := range a.g.Outgoing(v.id) {
		if e.FromPort == p.ID {
			consider(e, e.To)
		}
	}
	for _, e := range a.g.Incoming(v.id) {
		if e.ToPort == p.ID {
			consider(e, e.From)
		}
	}
	if cnt == 0 {
		return 0, false
	}
	return sum / float64(cnt), true
}

// moveTowardMinor slides a port along its side toward the target minor
// position, keeping minPortSpacing clearance from the side's corners.
func moveTowardMinor(a *arena, v *vnode, p *graph.Port, target float64) {
	switch canonicalSide(a.cfg.Direction, p.Side) {
	case sidePrev, sideNext:
		lo := v.minor - v.minorExt/2 + minPortSpacing
		hi := v.minor + v.minorExt/2 - minPortSpacing
		if lo > hi {
			return
		}
		minor := math.Min(math.Max(target, lo), hi)
		_, major := a.internalPoint(p.Pos)
		p.Pos = a.ax.point(minor, major, a.totalMajor)
		p.Offset = minor - (v.minor - v.minorExt/2)
	default:
		// lateral sides follow the flow axis; edge routes reach them at
		// arbitrary majors, so the declared placement stands
	}
}
