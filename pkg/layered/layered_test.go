package layered

import (
	"errors"
	"math"
	"testing"

	"github.com/stratumlab/stratum/pkg/graph"
)

func chain(t *testing.T, ids ...string) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	for _, id := range ids {
		if _, err := g.AddNode(graph.Node{ID: id, Size: graph.Size{W: 40, H: 20}}); err != nil {
			t.Fatalf("AddNode(%s) error = %v", id, err)
		}
	}
	for i := 0; i+1 < len(ids); i++ {
		if _, err := g.AddEdge(graph.Edge{From: ids[i], To: ids[i+1]}); err != nil {
			t.Fatalf("AddEdge error = %v", err)
		}
	}
	return g
}

// =============================================================================
// Cycle Breaking
// =============================================================================

func TestBreakCycles_Acyclic(t *testing.T) {
	g := chain(t, "a", "b", "c")
	if removed := breakCycles(g); removed != 0 {
		t.Errorf("breakCycles() = %d, want 0", removed)
	}
	for _, e := range g.Edges() {
		if e.Reversed {
			t.Errorf("edge %s→%s reversed in acyclic graph", e.From, e.To)
		}
	}
}

func TestBreakCycles_TwoCycle(t *testing.T) {
	g := chain(t, "a", "b")
	g.AddEdge(graph.Edge{From: "b", To: "a"})

	if removed := breakCycles(g); removed != 1 {
		t.Errorf("breakCycles() = %d, want 1", removed)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d after breaking, want 2 (edges are flagged, not removed)", g.EdgeCount())
	}
}

func TestBreakCycles_Triangle(t *testing.T) {
	g := chain(t, "a", "b", "c")
	g.AddEdge(graph.Edge{From: "c", To: "a"})

	if removed := breakCycles(g); removed != 1 {
		t.Errorf("breakCycles() = %d, want 1", removed)
	}
	if err := assignLayers(g); err != nil {
		t.Errorf("assignLayers() after breaking error = %v", err)
	}
}

func TestBreakCycles_SelfLoopUntouched(t *testing.T) {
	g := chain(t, "a")
	e, _ := g.AddEdge(graph.Edge{From: "a", To: "a"})

	if removed := breakCycles(g); removed != 0 {
		t.Errorf("breakCycles() = %d, want 0", removed)
	}
	if e.Reversed {
		t.Error("self-loop was reversed")
	}
}

func TestBreakCycles_ClearsStaleFlags(t *testing.T) {
	g := chain(t, "a", "b")
	g.Edges()[0].Reversed = true

	breakCycles(g)
	if g.Edges()[0].Reversed {
		t.Error("stale reversal flag survived a fresh run")
	}
}

// =============================================================================
// Layer Assignment
// =============================================================================

func TestAssignLayers_Diamond(t *testing.T) {
	g := chain(t, "a", "b")
	g.AddNode(graph.Node{ID: "c"})
	g.AddNode(graph.Node{ID: "d"})
	g.AddEdge(graph.Edge{From: "a", To: "c"})
	g.AddEdge(graph.Edge{From: "b", To: "d"})
	g.AddEdge(graph.Edge{From: "c", To: "d"})

	if err := assignLayers(g); err != nil {
		t.Fatalf("assignLayers() error = %v", err)
	}

	want := map[string]int{"a": 0, "b": 1, "c": 1, "d": 2}
	for id, layer := range want {
		n, _ := g.Node(id)
		if n.Layer != layer {
			t.Errorf("node %s layer = %d, want %d", id, n.Layer, layer)
		}
	}
}

func TestAssignLayers_ReversedEdge(t *testing.T) {
	g := chain(t, "a", "b")
	e, _ := g.AddEdge(graph.Edge{From: "b", To: "a"})
	e.Reversed = true

	if err := assignLayers(g); err != nil {
		t.Fatalf("assignLayers() error = %v", err)
	}
	a, _ := g.Node("a")
	b, _ := g.Node("b")
	if !(a.Layer < b.Layer) {
		t.Errorf("layers a=%d b=%d, want a < b", a.Layer, b.Layer)
	}
}

func TestAssignLayers_UnbrokenCycle(t *testing.T) {
	g := chain(t, "a", "b")
	g.AddEdge(graph.Edge{From: "b", To: "a"})

	if err := assignLayers(g); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("assignLayers() error = %v, want ErrInvalidGraph", err)
	}
}

// =============================================================================
// Crossing Minimization
// =============================================================================

func TestMinimizeCrossings_RemovesAvoidableCrossing(t *testing.T) {
	// Two parallel chains a→c and b→d, inserted so that the initial order
	// (a, b / d, c) crosses once. The sweep must untangle it.
	g := graph.New(nil)
	for _, id := range []string{"a", "b", "d", "c"} {
		g.AddNode(graph.Node{ID: id, Size: graph.Size{W: 20, H: 20}})
	}
	g.AddEdge(graph.Edge{From: "a", To: "c"})
	g.AddEdge(graph.Edge{From: "b", To: "d"})
	a, _ := g.Node("a")
	b, _ := g.Node("b")
	c, _ := g.Node("c")
	d, _ := g.Node("d")
	a.Layer, b.Layer, c.Layer, d.Layer = 0, 0, 1, 1

	arena, err := buildArena(g, Defaults())
	if err != nil {
		t.Fatalf("buildArena() error = %v", err)
	}
	if before := arena.countCrossings(); before != 1 {
		t.Fatalf("initial crossings = %d, want 1", before)
	}

	minimizeCrossings(arena)

	if after := arena.countCrossings(); after != 0 {
		t.Errorf("crossings after minimization = %d, want 0", after)
	}
}

func TestMinimizeCrossings_NeverWorse(t *testing.T) {
	// Dense bipartite layers: the sweep may not reach zero, but the kept
	// order must never be worse than the initial one.
	g := graph.New(nil)
	tops := []string{"t0", "t1", "t2", "t3"}
	bots := []string{"b0", "b1", "b2", "b3"}
	for _, id := range append(append([]string{}, tops...), bots...) {
		g.AddNode(graph.Node{ID: id, Size: graph.Size{W: 20, H: 20}})
	}
	for i, from := range tops {
		n, _ := g.Node(from)
		n.Layer = 0
		g.AddEdge(graph.Edge{From: from, To: bots[(i+2)%4]})
		g.AddEdge(graph.Edge{From: from, To: bots[(i+3)%4]})
	}
	for _, id := range bots {
		n, _ := g.Node(id)
		n.Layer = 1
	}

	arena, err := buildArena(g, Defaults())
	if err != nil {
		t.Fatalf("buildArena() error = %v", err)
	}
	before := arena.countCrossings()

	minimizeCrossings(arena)

	if after := arena.countCrossings(); after > before {
		t.Errorf("crossings went from %d to %d", before, after)
	}
}

// =============================================================================
// Full Pipeline
// =============================================================================

func TestRun_LayerSeparation(t *testing.T) {
	g := chain(t, "a", "b", "c")
	cfg := Defaults()

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a, _ := g.Node("a")
	b, _ := g.Node("b")
	c, _ := g.Node("c")
	if !(a.Pos.Y < b.Pos.Y && b.Pos.Y < c.Pos.Y) {
		t.Errorf("downward flow violated: y = %v, %v, %v", a.Pos.Y, b.Pos.Y, c.Pos.Y)
	}
	if gap := b.Pos.Y - a.Bounds().Bottom(); gap < cfg.LayerSpacing {
		t.Errorf("layer gap = %v, want >= %v", gap, cfg.LayerSpacing)
	}
}

func TestRun_DirectionUp(t *testing.T) {
	g := chain(t, "a", "b")
	cfg := Defaults()
	cfg.Direction = DirectionUp

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	a, _ := g.Node("a")
	b, _ := g.Node("b")
	if !(a.Pos.Y > b.Pos.Y) {
		t.Errorf("upward flow violated: a.y = %v, b.y = %v", a.Pos.Y, b.Pos.Y)
	}
}

func TestRun_DirectionRight(t *testing.T) {
	g := chain(t, "a", "b")
	cfg := Defaults()
	cfg.Direction = DirectionRight

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	a, _ := g.Node("a")
	b, _ := g.Node("b")
	if !(a.Pos.X < b.Pos.X) {
		t.Errorf("rightward flow violated: a.x = %v, b.x = %v", a.Pos.X, b.Pos.X)
	}
}

func TestRun_NodeSpacingWithinLayer(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{ID: "root", Size: graph.Size{W: 40, H: 20}})
	for _, id := range []string{"x", "y", "z"} {
		g.AddNode(graph.Node{ID: id, Size: graph.Size{W: 40, H: 20}})
		g.AddEdge(graph.Edge{From: "root", To: id})
	}
	cfg := Defaults()

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var second []*graph.Node
	for _, n := range g.Nodes() {
		if n.Layer == 1 {
			second = append(second, n)
		}
	}
	for _, m := range second {
		for _, n := range second {
			if m == n || m.Pos.X > n.Pos.X {
				continue
			}
			if gap := n.Pos.X - m.Bounds().Right(); gap < cfg.NodeSpacing-1e-9 {
				t.Errorf("gap between %s and %s = %v, want >= %v", m.ID, n.ID, gap, cfg.NodeSpacing)
			}
		}
	}
}

func TestRun_MinimumNodeSize(t *testing.T) {
	g := chain(t, "a")
	a, _ := g.Node("a")
	a.Size = graph.Size{}

	if _, err := Run(g, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if a.Size.W < 10 || a.Size.H < 10 {
		t.Errorf("node size = %+v, want at least 10x10", a.Size)
	}
}

func TestRun_FixedNodeSizeNotGrown(t *testing.T) {
	g := chain(t, "a", "b")
	a, _ := g.Node("a")
	a.Size = graph.Size{W: 4, H: 4}
	cfg := Defaults()
	cfg.FixedNodeSize = true

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if a.Size != (graph.Size{W: 4, H: 4}) {
		t.Errorf("fixed size grew to %+v", a.Size)
	}
}

func TestRun_UnsatisfiableFixedPorts(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{
		ID:   "tiny",
		Size: graph.Size{W: 6, H: 6},
		Ports: []*graph.Port{
			{ID: "p0", Side: graph.SideSouth, Index: 0},
			{ID: "p1", Side: graph.SideSouth, Index: 1},
			{ID: "p2", Side: graph.SideSouth, Index: 2},
		},
		FixedPorts: true,
	})
	cfg := Defaults()
	cfg.FixedNodeSize = true

	if _, err := Run(g, cfg); !errors.Is(err, ErrUnsatisfiableConstraint) {
		t.Errorf("Run() error = %v, want ErrUnsatisfiableConstraint", err)
	}
}

func TestRun_LongEdgeGetsBends(t *testing.T) {
	g := chain(t, "a", "b", "c")
	g.AddEdge(graph.Edge{From: "a", To: "c"}) // spans two layers

	if _, err := Run(g, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var long *graph.Edge
	for _, e := range g.Edges() {
		if e.From == "a" && e.To == "c" {
			long = e
		}
	}
	if len(long.Bends) == 0 {
		t.Error("layer-spanning edge has no bend points")
	}
}

func TestRun_NoDummiesLeak(t *testing.T) {
	g := chain(t, "a", "b", "c")
	g.AddEdge(graph.Edge{From: "a", To: "c"})

	if _, err := Run(g, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d after layout, want 3", g.NodeCount())
	}
	for _, n := range g.Nodes() {
		if n.IsDummy() {
			t.Errorf("dummy node %s leaked into the result", n.ID)
		}
	}
}

func TestRun_OrthogonalSegmentsAxisAligned(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{ID: "root", Size: graph.Size{W: 40, H: 20}})
	g.AddNode(graph.Node{ID: "far", Size: graph.Size{W: 40, H: 20}})
	g.AddNode(graph.Node{ID: "near", Size: graph.Size{W: 40, H: 20}})
	g.AddEdge(graph.Edge{From: "root", To: "far"})
	g.AddEdge(graph.Edge{From: "root", To: "near"})
	cfg := Defaults()
	cfg.Routing = RoutingOrthogonal

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, e := range g.Edges() {
		for i := 0; i+1 < len(e.Bends); i++ {
			p, q := e.Bends[i], e.Bends[i+1]
			if p.X != q.X && p.Y != q.Y {
				t.Errorf("edge %s→%s has diagonal segment %+v to %+v", e.From, e.To, p, q)
			}
		}
	}
}

func TestRun_SelfLoopStaysBesideNode(t *testing.T) {
	g := chain(t, "a", "b")
	g.AddEdge(graph.Edge{From: "a", To: "a"})

	if _, err := Run(g, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var loop *graph.Edge
	for _, e := range g.Edges() {
		if e.IsSelfLoop() {
			loop = e
		}
	}
	if len(loop.Bends) != 2 {
		t.Fatalf("self-loop bends = %d, want 2", len(loop.Bends))
	}
	a, _ := g.Node("a")
	for _, b := range loop.Bends {
		if b.X <= a.Bounds().Right() {
			t.Errorf("loop bend %+v not outside the node's right side %v", b, a.Bounds().Right())
		}
	}
}

func TestRun_MergeParallelEdgesFanOut(t *testing.T) {
	g := chain(t, "a", "b")
	g.AddEdge(graph.Edge{From: "a", To: "b"})
	cfg := Defaults()
	cfg.MergeParallelEdges = true

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	seen := map[float64]bool{}
	for _, e := range g.Edges() {
		if len(e.Bends) == 0 {
			t.Fatalf("bundled edge %s→%s has no interior point", e.From, e.To)
		}
		seen[e.Bends[0].X] = true
	}
	if len(seen) != 2 {
		t.Errorf("bundle fan-out produced %d distinct x offsets, want 2", len(seen))
	}
}

func TestRun_EdgeLabelPlaced(t *testing.T) {
	g := chain(t, "a", "b")
	g.Edges()[0].Label = &graph.Label{Text: "flow", Size: graph.Size{W: 24, H: 10}}

	if _, err := Run(g, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if pos := g.Edges()[0].Label.Pos; pos == (graph.Point{}) {
		t.Error("edge label position was not set")
	}
}

func TestRun_FixedPortOrderPreserved(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{
		ID:   "hub",
		Size: graph.Size{W: 60, H: 30},
		Ports: []*graph.Port{
			{ID: "right", Side: graph.SideSouth, Index: 1},
			{ID: "left", Side: graph.SideSouth, Index: 0},
		},
		FixedPorts: true,
	})
	g.AddNode(graph.Node{ID: "x", Size: graph.Size{W: 30, H: 20}})
	g.AddNode(graph.Node{ID: "y", Size: graph.Size{W: 30, H: 20}})
	// wired crosswise; fixed order must still win
	g.AddEdge(graph.Edge{From: "hub", To: "y", FromPort: "left"})
	g.AddEdge(graph.Edge{From: "hub", To: "x", FromPort: "right"})

	if _, err := Run(g, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	hub, _ := g.Node("hub")
	left, _ := hub.Port("left")
	right, _ := hub.Port("right")
	if !(left.Pos.X < right.Pos.X) {
		t.Errorf("fixed ports reordered: left.x = %v, right.x = %v", left.Pos.X, right.Pos.X)
	}
}

func TestRun_PortsOnBoundary(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{
		ID:   "n",
		Size: graph.Size{W: 40, H: 40},
		Ports: []*graph.Port{
			{ID: "top", Side: graph.SideNorth},
			{ID: "side", Side: graph.SideEast},
		},
	})

	if _, err := Run(g, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	n, _ := g.Node("n")
	top, _ := n.Port("top")
	side, _ := n.Port("side")
	if top.Pos.Y != n.Bounds().Y {
		t.Errorf("north port y = %v, want node top %v", top.Pos.Y, n.Bounds().Y)
	}
	if side.Pos.X != n.Bounds().Right() {
		t.Errorf("east port x = %v, want node right %v", side.Pos.X, n.Bounds().Right())
	}
}

func TestRun_Deterministic(t *testing.T) {
	build := func() *graph.Graph {
		g := graph.New(nil)
		ids := []string{"a", "b", "c", "d", "e", "f"}
		for _, id := range ids {
			g.AddNode(graph.Node{ID: id, Size: graph.Size{W: 30, H: 20}})
		}
		g.AddEdge(graph.Edge{From: "a", To: "b"})
		g.AddEdge(graph.Edge{From: "a", To: "c"})
		g.AddEdge(graph.Edge{From: "b", To: "d"})
		g.AddEdge(graph.Edge{From: "c", To: "d"})
		g.AddEdge(graph.Edge{From: "d", To: "e"})
		g.AddEdge(graph.Edge{From: "c", To: "f"})
		g.AddEdge(graph.Edge{From: "f", To: "a"}) // cycle
		return g
	}

	g1, g2 := build(), build()
	if _, err := Run(g1, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := Run(g2, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	d1, _ := graph.Marshal(g1)
	d2, _ := graph.Marshal(g2)
	if string(d1) != string(d2) {
		t.Error("identical inputs produced different layouts")
	}
}

func TestRun_SnapshotPhases(t *testing.T) {
	g := chain(t, "a", "b")
	cfg := Defaults()
	var phases []string
	cfg.Snapshot = func(phase string) { phases = append(phases, phase) }

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{PhaseCycleBreaking, PhaseLayering, PhaseOrdering, PhaseCoordinates, PhaseRouting}
	if len(phases) != len(want) {
		t.Fatalf("snapshot phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase[%d] = %s, want %s", i, phases[i], want[i])
		}
	}
}

func TestRun_SplineSmoothsLongEdge(t *testing.T) {
	g := chain(t, "a", "b", "c")
	g.AddEdge(graph.Edge{From: "a", To: "c"}) // spans two layers
	cfg := Defaults()
	cfg.Routing = RoutingSplines

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var long, short *graph.Edge
	for _, e := range g.Edges() {
		switch {
		case e.From == "a" && e.To == "c":
			long = e
		case e.From == "a" && e.To == "b":
			short = e
		}
	}

	// Corner cutting expands the three-point skeleton well beyond the
	// single waypoint polyline routing would emit.
	if len(long.Bends) < 4 {
		t.Errorf("spline bends = %d, want >= 4", len(long.Bends))
	}
	a, _ := g.Node("a")
	c, _ := g.Node("c")
	for _, b := range long.Bends {
		if b.Y < a.Bounds().Bottom() || b.Y > c.Bounds().Y {
			t.Errorf("spline bend %+v outside the corridor [%v, %v]", b, a.Bounds().Bottom(), c.Bounds().Y)
		}
	}
	if len(short.Bends) != 0 {
		t.Errorf("adjacent-layer spline has %d bends, want 0", len(short.Bends))
	}
}

func TestRun_AdaptPortsFollowsEdgeTarget(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{
		ID:    "hub",
		Size:  graph.Size{W: 100, H: 30},
		Ports: []*graph.Port{{ID: "out", Side: graph.SideSouth}},
	})
	g.AddNode(graph.Node{ID: "l", Size: graph.Size{W: 40, H: 20}})
	g.AddNode(graph.Node{ID: "r", Size: graph.Size{W: 40, H: 20}})
	g.AddEdge(graph.Edge{From: "hub", To: "l", FromPort: "out"})
	g.AddEdge(graph.Edge{From: "hub", To: "r"})
	cfg := Defaults()
	cfg.AdaptPortPositions = true

	if _, err := Run(g, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	hub, _ := g.Node("hub")
	l, _ := g.Node("l")
	out, _ := hub.Port("out")
	if want := l.Bounds().Center().X; math.Abs(out.Pos.X-want) > 1e-9 {
		t.Errorf("adapted port x = %v, want edge target center %v", out.Pos.X, want)
	}
	if out.Pos.Y != hub.Bounds().Bottom() {
		t.Errorf("adapted port left its side: y = %v, want %v", out.Pos.Y, hub.Bounds().Bottom())
	}
}

func TestRun_FreePortStaysWithoutAdapt(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{
		ID:    "hub",
		Size:  graph.Size{W: 100, H: 30},
		Ports: []*graph.Port{{ID: "out", Side: graph.SideSouth}},
	})
	g.AddNode(graph.Node{ID: "l", Size: graph.Size{W: 40, H: 20}})
	g.AddNode(graph.Node{ID: "r", Size: graph.Size{W: 40, H: 20}})
	g.AddEdge(graph.Edge{From: "hub", To: "l", FromPort: "out"})
	g.AddEdge(graph.Edge{From: "hub", To: "r"})

	if _, err := Run(g, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	hub, _ := g.Node("hub")
	out, _ := hub.Port("out")
	if want := hub.Bounds().Center().X; math.Abs(out.Pos.X-want) > 1e-9 {
		t.Errorf("single free port x = %v, want side midpoint %v", out.Pos.X, want)
	}
}

func TestRun_EdgeLabelDistanceAndAngle(t *testing.T) {
	place := func(angle, distance float64) (graph.Point, graph.Point) {
		g := chain(t, "a", "b")
		g.Edges()[0].Label = &graph.Label{Text: "flow", Size: graph.Size{W: 24, H: 10}}
		cfg := Defaults()
		cfg.LabelAngle = angle
		cfg.LabelDistance = distance

		if _, err := Run(g, cfg); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		a, _ := g.Node("a")
		anchor := graph.Point{X: a.Bounds().Center().X, Y: a.Bounds().Bottom()}
		return g.Edges()[0].Label.Pos, anchor
	}

	// Angle 0: the full distance goes along x from the source anchor.
	pos, anchor := place(0, 10)
	if math.Abs(pos.X-anchor.X-10) > 1e-9 || math.Abs(pos.Y-anchor.Y) > 1e-9 {
		t.Errorf("label at angle 0 = %+v, want %v right of anchor %+v", pos, 10.0, anchor)
	}

	// Angle 90: the full distance goes along y.
	pos, anchor = place(90, 10)
	if math.Abs(pos.X-anchor.X) > 1e-9 || math.Abs(pos.Y-anchor.Y-10) > 1e-9 {
		t.Errorf("label at angle 90 = %+v, want %v below anchor %+v", pos, 10.0, anchor)
	}

	// Larger distance scales the offset.
	pos, anchor = place(0, 25)
	if math.Abs(pos.X-anchor.X-25) > 1e-9 {
		t.Errorf("label at distance 25 = %+v, want offset 25 from anchor %+v", pos, anchor)
	}
}

func TestRemoveOverlaps_RestoresMinimumSpacing(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{ID: "root", Size: graph.Size{W: 40, H: 20}})
	g.AddNode(graph.Node{ID: "x", Size: graph.Size{W: 40, H: 20}})
	g.AddNode(graph.Node{ID: "y", Size: graph.Size{W: 40, H: 20}})
	g.AddEdge(graph.Edge{From: "root", To: "x"})
	g.AddEdge(graph.Edge{From: "root", To: "y"})
	breakCycles(g)
	if err := assignLayers(g); err != nil {
		t.Fatalf("assignLayers() error = %v", err)
	}
	a, err := buildArena(g, Defaults())
	if err != nil {
		t.Fatalf("buildArena() error = %v", err)
	}

	// Collapse the child layer onto one position, then repair.
	for _, vi := range a.layers[1] {
		a.vnodes[vi].minor = 0
	}
	a.removeOverlaps()

	layer := a.layers[1]
	for i := 1; i < len(layer); i++ {
		prev, v := a.vnodes[layer[i-1]], a.vnodes[layer[i]]
		if gap := v.minor - prev.minor; gap < a.minSpacingBetween(prev, v) {
			t.Errorf("spacing after repair = %v, want >= %v", gap, a.minSpacingBetween(prev, v))
		}
	}
}

func TestRun_OverlapModeNone(t *testing.T) {
	build := func() *graph.Graph {
		g := graph.New(nil)
		g.AddNode(graph.Node{ID: "root", Size: graph.Size{W: 40, H: 20}})
		for _, id := range []string{"x", "y", "z"} {
			g.AddNode(graph.Node{ID: id, Size: graph.Size{W: 40, H: 20}})
			g.AddEdge(graph.Edge{From: "root", To: id})
		}
		return g
	}

	skipped := build()
	cfg := Defaults()
	cfg.OverlapMode = OverlapNone
	if _, err := Run(skipped, cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Straightening is slack-clamped, so skipping the repair pass must
	// not surface overlaps.
	nodes := skipped.Nodes()
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[i].Bounds().Overlaps(nodes[j].Bounds()) {
				t.Errorf("nodes %s and %s overlap under mode %q", nodes[i].ID, nodes[j].ID, OverlapNone)
			}
		}
	}

	shifted := build()
	if _, err := Run(shifted, Defaults()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, n := range shifted.Nodes() {
		if got := nodes[i].Pos; got != n.Pos {
			t.Errorf("node %s at %+v under %q, %+v under %q", n.ID, got, OverlapNone, n.Pos, OverlapShift)
		}
	}
}

func TestRun_InvalidGraph(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{ID: "a", Ports: []*graph.Port{{ID: "p", Side: graph.SideSouth}}})
	g.AddNode(graph.Node{ID: "b"})
	e, _ := g.AddEdge(graph.Edge{From: "a", To: "b", FromPort: "p"})
	e.FromPort = "ghost" // corrupt after insertion

	if _, err := Run(g, Defaults()); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("Run() error = %v, want ErrInvalidGraph", err)
	}
}
