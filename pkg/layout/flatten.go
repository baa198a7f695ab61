package layout

import (
	"fmt"
	"sort"

	"github.com/stratumlab/stratum/pkg/graph"
)

// Include-children mode lays out a compound hierarchy as one flat graph:
// nested nodes are lifted into a working graph under path-qualified IDs
// ("parent/child"), edges incident to a compound node are re-attached to
// the compound's first leaf descendant, and after layout the compound
// nodes' bounds are derived from their children. Leaf results are copied
// back onto the caller's nodes and edges, so the original hierarchy never
// gains or loses entities.

// flatMap remembers which original entity each working entity stands for.
type flatMap struct {
	nodes map[*graph.Node]*graph.Node // flat node -> original node
	edges map[*graph.Edge]*graph.Edge // flat edge -> original edge
}

// hasCompound reports whether any node carries a non-empty child graph.
func hasCompound(g *graph.Graph) bool {
	for _, n := range g.Nodes() {
		if n.IsCompound() && n.Children.NodeCount() > 0 {
			return true
		}
	}
	return false
}

// flatten lifts every leaf node of the hierarchy into one working graph.
// Traversal uses an explicit stack so nesting depth stays off the call
// stack. Empty compound nodes are treated as leaves.
func flatten(g *graph.Graph) (*graph.Graph, *flatMap, error) {
	flat := graph.New(nil)
	fm := &flatMap{
		nodes: make(map[*graph.Node]*graph.Node),
		edges: make(map[*graph.Edge]*graph.Edge),
	}

	type frame struct {
		g      *graph.Graph
		prefix string
		i      int
	}

	stack := []*frame{{g: g}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.i >= f.g.NodeCount() {
			stack = stack[:len(stack)-1]
			continue
		}
		n := f.g.Nodes()[f.i]
		f.i++
		qid := f.prefix + n.ID
		if n.IsCompound() && n.Children.NodeCount() > 0 {
			stack = append(stack, &frame{g: n.Children, prefix: qid + "/"})
			continue
		}
		fn, err := flat.AddNode(graph.Node{
			ID:         qid,
			Label:      cloneLabel(n.Label),
			Size:       n.Size,
			Margin:     n.Margin,
			Ports:      clonePorts(n.Ports),
			FixedPorts: n.FixedPorts,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("lift node %s: %w", qid, err)
		}
		fm.nodes[fn] = n
	}

	// Second pass for edges, once every endpoint exists in the flat graph.
	stack = []*frame{{g: g}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range f.g.Edges() {
			from, fromPort := flatEndpoint(f.g, f.prefix, e.From, e.FromPort)
			to, toPort := flatEndpoint(f.g, f.prefix, e.To, e.ToPort)
			fe, err := flat.AddEdge(graph.Edge{
				From:     from,
				To:       to,
				FromPort: fromPort,
				ToPort:   toPort,
				Label:    cloneLabel(e.Label),
			})
			if err != nil {
				return nil, nil, fmt.Errorf("lift edge %s -> %s: %w", from, to, err)
			}
			fm.edges[fe] = e
		}
		for _, n := range f.g.Nodes() {
			if n.IsCompound() && n.Children.NodeCount() > 0 {
				stack = append(stack, &frame{g: n.Children, prefix: f.prefix + n.ID + "/"})
			}
		}
	}

	return flat, fm, nil
}

// flatEndpoint resolves one edge endpoint to its flat-graph node ID. For a
// compound endpoint the edge attaches to the compound's first leaf
// descendant in insertion order; the declared port is dropped because it
// belongs to a node absent from the flat graph.
func flatEndpoint(g *graph.Graph, prefix, id, port string) (string, string) {
	n, _ := g.Node(id)
	if n == nil || !n.IsCompound() || n.Children.NodeCount() == 0 {
		return prefix + id, port
	}
	qid := prefix + id
	for {
		c := n.Children.Nodes()[0]
		qid = qid + "/" + c.ID
		if !c.IsCompound() || c.Children.NodeCount() == 0 {
			return qid, ""
		}
		n = c
	}
}

// copyBack writes the working graph's results onto the original entities:
// positions, sizes, layer and order indices, port placements, bend points,
// and label positions.
func (fm *flatMap) copyBack() {
	for fn, n := range fm.nodes {
		n.Pos = fn.Pos
		n.Size = fn.Size
		n.Layer = fn.Layer
		n.Order = fn.Order
		for _, fp := range fn.Ports {
			if p, ok := n.Port(fp.ID); ok {
				p.Offset = fp.Offset
				p.Pos = fp.Pos
			}
		}
		if n.Label != nil && fn.Label != nil {
			n.Label.Pos = fn.Label.Pos
		}
	}
	for fe, e := range fm.edges {
		e.Reversed = fe.Reversed
		e.Bends = append([]graph.Point(nil), fe.Bends...)
		if e.Label != nil && fe.Label != nil {
			e.Label.Pos = fe.Label.Pos
		}
	}
}

// resolveCompoundBounds derives compound node geometry from the flat
// results: deepest compounds first, each node's bounds become the union of
// its children grown by its padding, and the child graph is shifted into
// coordinates relative to the node's top-left corner.
func resolveCompoundBounds(g *graph.Graph) {
	type entry struct {
		n     *graph.Node
		depth int
	}
	var compounds []entry

	type frame struct {
		g     *graph.Graph
		depth int
	}
	stack := []frame{{g: g}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range f.g.Nodes() {
			if n.IsCompound() && n.Children.NodeCount() > 0 {
				compounds = append(compounds, entry{n: n, depth: f.depth})
				stack = append(stack, frame{g: n.Children, depth: f.depth + 1})
			}
		}
	}

	sort.SliceStable(compounds, func(i, j int) bool {
		return compounds[i].depth > compounds[j].depth
	})

	for _, c := range compounds {
		n := c.n
		bb := n.Children.BoundingBox()
		content := bb.Grow(n.Padding)
		n.Pos = graph.Point{X: content.X, Y: content.Y}
		if n.Size.W < content.W {
			n.Size.W = content.W
		}
		if n.Size.H < content.H {
			n.Size.H = content.H
		}
		n.Children.Translate(-n.Pos.X, -n.Pos.Y)

		layer := -1
		for _, ch := range n.Children.Nodes() {
			if layer == -1 || ch.Layer < layer {
				layer = ch.Layer
			}
		}
		if layer >= 0 {
			n.Layer = layer
		}
		for _, p := range n.Ports {
			p.Pos = gridPortPos(n, p)
		}
	}
}

func cloneLabel(l *graph.Label) *graph.Label {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

func clonePorts(ports []*graph.Port) []*graph.Port {
	if len(ports) == 0 {
		return nil
	}
	out := make([]*graph.Port, len(ports))
	for i, p := range ports {
		c := *p
		out[i] = &c
	}
	return out
}
