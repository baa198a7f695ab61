package graph

import (
	"strings"
	"testing"
)

func layoutSample(t *testing.T) *Graph {
	t.Helper()
	child := New(nil)
	child.AddNode(Node{ID: "inner", Size: Size{W: 30, H: 20}, Pos: Point{X: 12, Y: 12}})

	g := New(Metadata{"name": "sample"})
	g.AddNode(Node{
		ID:    "a",
		Label: &Label{Text: "A", Size: Size{W: 18, H: 10}},
		Size:  Size{W: 60, H: 40},
		Ports: []*Port{
			{ID: "out", Side: SideSouth, Index: 0},
			{ID: "aux", Side: SideEast, Index: 1},
		},
		FixedPorts: true,
	})
	g.AddNode(Node{ID: "grp", Children: child, Padding: UniformInsets(12)})
	g.AddEdge(Edge{
		From: "a", To: "grp", FromPort: "out",
		Bends: []Point{{X: 30, Y: 50}, {X: 30, Y: 80}},
		Label: &Label{Text: "calls"},
	})
	return g
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	g := layoutSample(t)

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.NodeCount() != 2 || got.EdgeCount() != 1 {
		t.Fatalf("round trip = %d nodes, %d edges, want 2, 1", got.NodeCount(), got.EdgeCount())
	}
	a, ok := got.Node("a")
	if !ok {
		t.Fatal("round trip lost node a")
	}
	if !a.FixedPorts || len(a.Ports) != 2 {
		t.Errorf("node a ports = %d (fixed=%v), want 2 (fixed=true)", len(a.Ports), a.FixedPorts)
	}
	if a.Label == nil || a.Label.Text != "A" {
		t.Errorf("node a label = %+v, want text A", a.Label)
	}
	grp, _ := got.Node("grp")
	if grp.Children == nil || grp.Children.NodeCount() != 1 {
		t.Fatalf("compound child graph not preserved: %+v", grp.Children)
	}
	if grp.Padding != UniformInsets(12) {
		t.Errorf("grp.Padding = %+v, want uniform 12", grp.Padding)
	}
	e := got.Edges()[0]
	if e.FromPort != "out" || len(e.Bends) != 2 {
		t.Errorf("edge = port %q with %d bends, want out with 2", e.FromPort, len(e.Bends))
	}
	if got.Meta()["name"] != "sample" {
		t.Errorf("graph meta = %v, want name=sample", got.Meta())
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	g := layoutSample(t)

	first, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := Marshal(g)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(first) != string(again) {
			t.Fatalf("Marshal() output differs between calls")
		}
	}
}

func TestExport_SkipsDummies(t *testing.T) {
	g := New(nil)
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "d1", Kind: NodeKindDummy})

	gj := Export(g)
	if len(gj.Nodes) != 1 || gj.Nodes[0].ID != "a" {
		t.Errorf("Export() nodes = %+v, want only a", gj.Nodes)
	}
}

func TestUnmarshal_RejectsBrokenStructure(t *testing.T) {
	in := `{"nodes":[{"id":"a"}],"edges":[{"from":"a","to":"ghost"}]}`
	if _, err := Unmarshal([]byte(in)); err == nil {
		t.Error("Unmarshal() accepted edge to missing node")
	}
}

func TestWriteFile_ReadFile(t *testing.T) {
	g := layoutSample(t)
	path := t.TempDir() + "/g.json"

	if err := WriteFile(g, path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.NodeCount() != g.NodeCount() || got.EdgeCount() != g.EdgeCount() {
		t.Errorf("file round trip = %d nodes, %d edges, want %d, %d",
			got.NodeCount(), got.EdgeCount(), g.NodeCount(), g.EdgeCount())
	}
}

func TestReadFile_MissingFile(t *testing.T) {
	if _, err := ReadFile(t.TempDir() + "/nope.json"); err == nil {
		t.Error("ReadFile() succeeded on missing file")
	}
}

func TestRead_BadJSON(t *testing.T) {
	if _, err := Read(strings.NewReader("{nope")); err == nil {
		t.Error("Read() accepted malformed JSON")
	}
}
