package layout

import (
	"testing"

	"github.com/stratumlab/stratum/pkg/graph"
)

func nestedGraph(t *testing.T) *graph.Graph {
	t.Helper()
	deep := graph.New(nil)
	deep.AddNode(graph.Node{ID: "leaf", Size: graph.Size{W: 20, H: 20}})

	inner := graph.New(nil)
	inner.AddNode(graph.Node{ID: "w1", Size: graph.Size{W: 40, H: 20}})
	inner.AddNode(graph.Node{ID: "sub", Children: deep, Padding: graph.UniformInsets(8)})
	inner.AddEdge(graph.Edge{From: "w1", To: "sub"})

	g := graph.New(nil)
	g.AddNode(graph.Node{ID: "api", Size: graph.Size{W: 50, H: 25}})
	g.AddNode(graph.Node{ID: "grp", Children: inner, Padding: graph.UniformInsets(10)})
	g.AddEdge(graph.Edge{From: "api", To: "grp"})
	return g
}

func TestFlatten_QualifiedIDs(t *testing.T) {
	g := nestedGraph(t)

	flat, fm, err := flatten(g)
	if err != nil {
		t.Fatalf("flatten() error = %v", err)
	}

	for _, id := range []string{"api", "grp/w1", "grp/sub/leaf"} {
		if _, ok := flat.Node(id); !ok {
			t.Errorf("flat graph missing %s", id)
		}
	}
	if flat.NodeCount() != 3 {
		t.Errorf("flat NodeCount() = %d, want 3 leaves", flat.NodeCount())
	}
	if len(fm.nodes) != 3 {
		t.Errorf("flatMap tracks %d nodes, want 3", len(fm.nodes))
	}
}

func TestFlatten_CompoundEdgeReattached(t *testing.T) {
	g := nestedGraph(t)

	flat, _, err := flatten(g)
	if err != nil {
		t.Fatalf("flatten() error = %v", err)
	}

	// api→grp attaches to grp's first leaf descendant
	var found bool
	for _, e := range flat.Edges() {
		if e.From == "api" && e.To == "grp/w1" {
			found = true
		}
	}
	if !found {
		t.Errorf("edges = %+v, want api → grp/w1", flat.Edges())
	}
}

func TestFlatten_DropsPortOnCompoundEndpoint(t *testing.T) {
	inner := graph.New(nil)
	inner.AddNode(graph.Node{ID: "w", Size: graph.Size{W: 20, H: 20}})

	g := graph.New(nil)
	g.AddNode(graph.Node{ID: "src", Ports: []*graph.Port{{ID: "out", Side: graph.SideSouth}}})
	g.AddNode(graph.Node{ID: "box", Children: inner, Ports: []*graph.Port{{ID: "in", Side: graph.SideNorth}}})
	g.AddEdge(graph.Edge{From: "src", To: "box", FromPort: "out", ToPort: "in"})

	flat, _, err := flatten(g)
	if err != nil {
		t.Fatalf("flatten() error = %v", err)
	}

	e := flat.Edges()[0]
	if e.FromPort != "out" {
		t.Errorf("leaf-side port = %q, want out", e.FromPort)
	}
	if e.ToPort != "" {
		t.Errorf("compound-side port = %q, want dropped", e.ToPort)
	}
}

func TestFlatten_EmptyCompoundIsLeaf(t *testing.T) {
	g := graph.New(nil)
	g.AddNode(graph.Node{ID: "a", Size: graph.Size{W: 20, H: 20}})
	g.AddNode(graph.Node{ID: "empty", Children: graph.New(nil)})
	g.AddEdge(graph.Edge{From: "a", To: "empty"})

	flat, _, err := flatten(g)
	if err != nil {
		t.Fatalf("flatten() error = %v", err)
	}
	if flat.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1 (edge to empty compound survives)", flat.EdgeCount())
	}
	if _, ok := flat.Node("empty"); !ok {
		t.Error("empty compound not lifted as a leaf")
	}
}

func TestCopyBack(t *testing.T) {
	g := nestedGraph(t)
	flat, fm, err := flatten(g)
	if err != nil {
		t.Fatalf("flatten() error = %v", err)
	}

	fw, _ := flat.Node("grp/w1")
	fw.Pos = graph.Point{X: 100, Y: 200}
	fw.Layer = 3
	fw.Order = 1
	flat.Edges()[0].Bends = []graph.Point{{X: 5, Y: 5}}

	fm.copyBack()

	grp, _ := g.Node("grp")
	w1, _ := grp.Children.Node("w1")
	if w1.Pos != (graph.Point{X: 100, Y: 200}) {
		t.Errorf("w1.Pos = %+v after copyBack, want {100 200}", w1.Pos)
	}
	if w1.Layer != 3 || w1.Order != 1 {
		t.Errorf("w1 layer/order = %d/%d, want 3/1", w1.Layer, w1.Order)
	}
}

func TestResolveCompoundBounds(t *testing.T) {
	inner := graph.New(nil)
	inner.AddNode(graph.Node{ID: "a", Pos: graph.Point{X: 50, Y: 60}, Size: graph.Size{W: 30, H: 20}, Layer: 2})
	inner.AddNode(graph.Node{ID: "b", Pos: graph.Point{X: 100, Y: 60}, Size: graph.Size{W: 30, H: 20}, Layer: 3})

	g := graph.New(nil)
	g.AddNode(graph.Node{ID: "box", Children: inner, Padding: graph.UniformInsets(10)})

	resolveCompoundBounds(g)

	box, _ := g.Node("box")
	if box.Pos != (graph.Point{X: 40, Y: 50}) {
		t.Errorf("box.Pos = %+v, want {40 50} (child min minus padding)", box.Pos)
	}
	if box.Size.W != 100 || box.Size.H != 40 {
		t.Errorf("box.Size = %+v, want {100 40}", box.Size)
	}
	if box.Layer != 2 {
		t.Errorf("box.Layer = %d, want min child layer 2", box.Layer)
	}
	// children shifted into box-relative coordinates
	a, _ := inner.Node("a")
	if a.Pos != (graph.Point{X: 10, Y: 10}) {
		t.Errorf("a.Pos = %+v, want padding offset {10 10}", a.Pos)
	}
}
