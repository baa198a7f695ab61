package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownPort is returned by [Graph.AddEdge] and [Graph.Validate] when
	// an edge references a port ID its endpoint node does not declare.
	ErrUnknownPort = errors.New("unknown port")

	// ErrDuplicatePortID is returned by [Graph.AddNode] when two ports on the
	// same node share an ID.
	ErrDuplicatePortID = errors.New("duplicate port ID")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges, or the
// graph. Metadata maps are never nil - they are automatically initialized to
// empty maps when needed. Layout algorithms never read metadata; it is
// carried through untouched for callers.
type Metadata map[string]any

// Side identifies one of the four boundaries of a node where ports attach.
type Side int

const (
	SideNorth Side = iota
	SideEast
	SideSouth
	SideWest
)

// String returns the lowercase side name.
func (s Side) String() string {
	switch s {
	case SideNorth:
		return "north"
	case SideEast:
		return "east"
	case SideSouth:
		return "south"
	case SideWest:
		return "west"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// NodeKind distinguishes caller-supplied nodes from synthetic nodes created
// while a layout pass is in flight.
type NodeKind int

const (
	// NodeKindRegular is an original node supplied by the caller.
	NodeKindRegular NodeKind = iota
	// NodeKindDummy is a synthetic node inserted to subdivide an edge that
	// spans more than one layer. Dummies exist only between layering and
	// edge routing; a finished layout contains none.
	NodeKindDummy
)

// Port is a fixed attachment point on a node boundary where edges connect.
// When the owning node has FixedPorts set, the Index order within a side is
// preserved through all layout phases.
type Port struct {
	ID     string  `json:"id"`
	Side   Side    `json:"side"`
	Index  int     `json:"index,omitempty"`  // order on its side, meaningful with fixed ports
	Offset float64 `json:"offset,omitempty"` // distance along the side, set during placement
	Pos    Point   `json:"pos"`              // absolute position, set during placement
}

// Label carries measured text attached to a node or edge. The layout fills
// in Pos; the caller supplies Text and Size (text measurement is not a
// layout concern).
type Label struct {
	Text string `json:"text,omitempty"`
	Size Size   `json:"size"`
	Pos  Point  `json:"pos"`
}

// Node is a vertex of the graph. Size is mutable until coordinate
// assignment; Pos, Layer, and Order are produced by the layout. A node with
// a non-nil Children graph is a compound node whose final size encloses the
// laid-out child graph plus Padding.
//
// The zero value is not usable - ID must be set before adding to a Graph.
type Node struct {
	ID      string
	Label   *Label
	Size    Size
	Pos     Point
	Margin  Insets
	Padding Insets

	Ports      []*Port
	FixedPorts bool // preserve declared port order within each side

	Children *Graph // non-nil for compound nodes

	Layer int // layer index, assigned by layer assignment
	Order int // position within the layer, assigned by crossing minimization

	Kind     NodeKind
	MasterID string // for dummies, the ID of the edge's source node
	Meta     Metadata
}

// IsDummy reports whether the node was inserted to subdivide a long edge.
func (n *Node) IsDummy() bool { return n.Kind == NodeKindDummy }

// IsCompound reports whether the node contains a nested child graph.
func (n *Node) IsCompound() bool { return n.Children != nil }

// Bounds returns the node's rectangle from its position and size.
func (n *Node) Bounds() Rect { return Rect{X: n.Pos.X, Y: n.Pos.Y, W: n.Size.W, H: n.Size.H} }

// Port returns the port with the given ID and true, or nil and false.
func (n *Node) Port(id string) (*Port, bool) {
	for _, p := range n.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// PortsOnSide returns the node's ports on one side, sorted by Index.
func (n *Node) PortsOnSide(s Side) []*Port {
	var out []*Port
	for _, p := range n.Ports {
		if p.Side == s {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b *Port) int { return a.Index - b.Index })
	return out
}

// Edge is a directed connection between two nodes, optionally attached to
// named ports. The Reversed flag is set by cycle breaking and affects only
// the layering direction - the declared From/To orientation is what a
// renderer should draw. Bends are produced by edge routing.
type Edge struct {
	From     string
	To       string
	FromPort string // optional port ID on the source node
	ToPort   string // optional port ID on the target node

	Reversed bool    // layering direction is To→From; rendering is unaffected
	Bends    []Point // intermediate route points, set by edge routing
	Label    *Label

	Meta Metadata
}

// IsSelfLoop reports whether the edge connects a node to itself.
func (e *Edge) IsSelfLoop() bool { return e.From == e.To }

// Tail returns the layering source: From, or To when the edge is reversed.
func (e *Edge) Tail() string {
	if e.Reversed {
		return e.To
	}
	return e.From
}

// Head returns the layering target: To, or From when the edge is reversed.
func (e *Edge) Head() string {
	if e.Reversed {
		return e.From
	}
	return e.To
}

// Graph is an ordered collection of nodes and edges, possibly nested inside
// a compound node. Node insertion order is preserved and serves as the
// canonical iteration order everywhere a deterministic order is needed.
//
// The zero value is not usable - use New to create a valid Graph.
// Graph is not safe for concurrent mutation without external synchronization;
// a layout invocation assumes exclusive ownership.
type Graph struct {
	nodes    []*Node
	index    map[string]*Node
	edges    []*Edge
	outgoing map[string][]*Edge
	incoming map[string][]*Edge
	meta     Metadata
}

// New creates an empty Graph with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		index:    make(map[string]*Node),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map. Never nil.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node to the graph, preserving insertion order.
// Returns ErrInvalidNodeID if the node ID is empty, ErrDuplicateNodeID if a
// node with the same ID already exists, or ErrDuplicatePortID if two of the
// node's ports share an ID. The node's Meta field is initialized to an
// empty map if nil. The returned pointer refers to the stored node.
func (g *Graph) AddNode(n Node) (*Node, error) {
	if n.ID == "" {
		return nil, ErrInvalidNodeID
	}
	if _, exists := g.index[n.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	seen := make(map[string]struct{}, len(n.Ports))
	for _, p := range n.Ports {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s on node %s", ErrDuplicatePortID, p.ID, n.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes = append(g.nodes, node)
	g.index[node.ID] = node
	return node, nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode if an endpoint is
// missing, or ErrUnknownPort if a named port does not exist on its node.
// Multiple edges between the same node pair are allowed, as are self-loops.
// The returned pointer refers to the stored edge.
func (g *Graph) AddEdge(e Edge) (*Edge, error) {
	src, ok := g.index[e.From]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSourceNode, e.From)
	}
	dst, ok := g.index[e.To]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTargetNode, e.To)
	}
	if e.FromPort != "" {
		if _, ok := src.Port(e.FromPort); !ok {
			return nil, fmt.Errorf("%w: %s on node %s", ErrUnknownPort, e.FromPort, e.From)
		}
	}
	if e.ToPort != "" {
		if _, ok := dst.Port(e.ToPort); !ok {
			return nil, fmt.Errorf("%w: %s on node %s", ErrUnknownPort, e.ToPort, e.To)
		}
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	edge := &e
	g.edges = append(g.edges, edge)
	g.outgoing[edge.From] = append(g.outgoing[edge.From], edge)
	g.incoming[edge.To] = append(g.incoming[edge.To], edge)
	return edge, nil
}

// RemoveNode removes the node and every edge touching it.
// No error is returned if the node does not exist.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.index[id]; !ok {
		return
	}
	for _, e := range slices.Clone(g.outgoing[id]) {
		g.RemoveEdge(e)
	}
	for _, e := range slices.Clone(g.incoming[id]) {
		g.RemoveEdge(e)
	}
	delete(g.index, id)
	g.nodes = slices.DeleteFunc(g.nodes, func(n *Node) bool { return n.ID == id })
}

// RemoveEdge removes the given edge instance. Other edges between the same
// node pair are unaffected. No-op if the edge is not in the graph.
func (g *Graph) RemoveEdge(e *Edge) {
	same := func(x *Edge) bool { return x == e }
	g.edges = slices.DeleteFunc(g.edges, same)
	g.outgoing[e.From] = slices.DeleteFunc(g.outgoing[e.From], same)
	g.incoming[e.To] = slices.DeleteFunc(g.incoming[e.To], same)
}

// Node returns the node with the given ID and true, or nil and false.
// The returned pointer refers to the actual node, so modifications affect
// the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
// The returned slice must not be modified; node structs may be.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns all edges in insertion order.
// The returned slice must not be modified; edge structs may be.
func (g *Graph) Edges() []*Edge { return g.edges }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Outgoing returns the edges leaving the node, in insertion order, using
// the declared (not effective) direction.
func (g *Graph) Outgoing(id string) []*Edge { return g.outgoing[id] }

// Incoming returns the edges entering the node, in insertion order, using
// the declared (not effective) direction.
func (g *Graph) Incoming(id string) []*Edge { return g.incoming[id] }

// Validate checks structural integrity: every edge endpoint exists and
// every named port exists on its node. Cycle checks are not performed here;
// cyclic input is legal and handled by cycle breaking.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		src, okS := g.index[e.From]
		dst, okD := g.index[e.To]
		if !okS || !okD {
			return fmt.Errorf("%w: %s→%s", ErrInvalidEdgeEndpoint, e.From, e.To)
		}
		if e.FromPort != "" {
			if _, ok := src.Port(e.FromPort); !ok {
				return fmt.Errorf("%w: %s on node %s", ErrUnknownPort, e.FromPort, e.From)
			}
		}
		if e.ToPort != "" {
			if _, ok := dst.Port(e.ToPort); !ok {
				return fmt.Errorf("%w: %s on node %s", ErrUnknownPort, e.ToPort, e.To)
			}
		}
	}
	for _, n := range g.nodes {
		if n.Children != nil {
			if err := n.Children.Validate(); err != nil {
				return fmt.Errorf("child graph of %s: %w", n.ID, err)
			}
		}
	}
	return nil
}

// BoundingBox returns the smallest rectangle containing every node box
// (including margins) and every edge bend point. Returns the zero Rect for
// an empty graph.
func (g *Graph) BoundingBox() Rect {
	var box Rect
	for _, n := range g.nodes {
		box = box.Union(n.Bounds().Grow(n.Margin))
	}
	for _, e := range g.edges {
		for _, b := range e.Bends {
			box = box.Union(Rect{X: b.X, Y: b.Y})
		}
	}
	return box
}

// Translate shifts every node position, port position, bend point, and
// label placement in the graph by (dx, dy). Child graphs are not touched;
// their coordinates are relative to the compound node's content area.
func (g *Graph) Translate(dx, dy float64) {
	for _, n := range g.nodes {
		n.Pos = n.Pos.Add(dx, dy)
		for _, p := range n.Ports {
			p.Pos = p.Pos.Add(dx, dy)
		}
		if n.Label != nil {
			n.Label.Pos = n.Label.Pos.Add(dx, dy)
		}
	}
	for _, e := range g.edges {
		for i := range e.Bends {
			e.Bends[i] = e.Bends[i].Add(dx, dy)
		}
		if e.Label != nil {
			e.Label.Pos = e.Label.Pos.Add(dx, dy)
		}
	}
}

// Clone returns a deep copy of the graph. Node, edge, port, and label
// structs are copied; metadata maps are shallow-copied. Child graphs are
// cloned recursively.
func (g *Graph) Clone() *Graph {
	out := New(copyMeta(g.meta))
	for _, n := range g.nodes {
		cp := *n
		cp.Meta = copyMeta(n.Meta)
		cp.Ports = make([]*Port, len(n.Ports))
		for i, p := range n.Ports {
			pc := *p
			cp.Ports[i] = &pc
		}
		if n.Label != nil {
			l := *n.Label
			cp.Label = &l
		}
		if n.Children != nil {
			cp.Children = n.Children.Clone()
		}
		if _, err := out.AddNode(cp); err != nil {
			panic(err) // ids were unique in the source graph
		}
	}
	for _, e := range g.edges {
		cp := *e
		cp.Meta = copyMeta(e.Meta)
		cp.Bends = slices.Clone(e.Bends)
		if e.Label != nil {
			l := *e.Label
			cp.Label = &l
		}
		if _, err := out.AddEdge(cp); err != nil {
			panic(err)
		}
	}
	return out
}

// Components partitions the graph into connected components, treating edges
// as undirected. Each component is a new Graph sharing node and edge
// pointers with g, so coordinates written while laying out a component are
// visible on the original graph. Components are ordered by the insertion
// position of their first node, and self-contained: no edge crosses a
// component boundary. Self-loops stay with their node's component.
func (g *Graph) Components() []*Graph {
	comp := make(map[string]int, len(g.nodes))
	next := 0
	for _, n := range g.nodes {
		if _, seen := comp[n.ID]; seen {
			continue
		}
		stack := []string{n.ID}
		comp[n.ID] = next
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range g.outgoing[id] {
				if _, seen := comp[e.To]; !seen {
					comp[e.To] = next
					stack = append(stack, e.To)
				}
			}
			for _, e := range g.incoming[id] {
				if _, seen := comp[e.From]; !seen {
					comp[e.From] = next
					stack = append(stack, e.From)
				}
			}
		}
		next++
	}

	out := make([]*Graph, next)
	for i := range out {
		out[i] = New(g.meta)
	}
	for _, n := range g.nodes {
		c := out[comp[n.ID]]
		c.nodes = append(c.nodes, n)
		c.index[n.ID] = n
	}
	for _, e := range g.edges {
		c := out[comp[e.From]]
		c.edges = append(c.edges, e)
		c.outgoing[e.From] = append(c.outgoing[e.From], e)
		c.incoming[e.To] = append(c.incoming[e.To], e)
	}
	return out
}

// copyMeta creates a shallow copy of metadata to avoid mutation.
func copyMeta(m Metadata) Metadata {
	if m == nil {
		return nil
	}
	result := make(Metadata, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
