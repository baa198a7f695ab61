package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Wire Format
// =============================================================================

// GraphJSON is the canonical serialization format for graphs, before or
// after layout. The format is designed for round-trip fidelity: decode →
// layout → encode → decode yields an equivalent graph with layout fields
// filled in.
type GraphJSON struct {
	Nodes []NodeJSON     `json:"nodes"`
	Edges []EdgeJSON     `json:"edges"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// NodeJSON is the wire form of a node.
type NodeJSON struct {
	ID         string         `json:"id"`
	Label      *Label         `json:"label,omitempty"`
	W          float64        `json:"w,omitempty"`
	H          float64        `json:"h,omitempty"`
	X          float64        `json:"x,omitempty"`
	Y          float64        `json:"y,omitempty"`
	Margin     *Insets        `json:"margin,omitempty"`
	Padding    *Insets        `json:"padding,omitempty"`
	Ports      []Port         `json:"ports,omitempty"`
	FixedPorts bool           `json:"fixed_ports,omitempty"`
	Children   *GraphJSON     `json:"children,omitempty"`
	Layer      int            `json:"layer,omitempty"`
	Order      int            `json:"order,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// EdgeJSON is the wire form of an edge.
type EdgeJSON struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	FromPort string         `json:"from_port,omitempty"`
	ToPort   string         `json:"to_port,omitempty"`
	Reversed bool           `json:"reversed,omitempty"`
	Bends    []Point        `json:"bends,omitempty"`
	Label    *Label         `json:"label,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// =============================================================================
// Conversion
// =============================================================================

// Export converts a Graph to its serialization format. Node and edge order
// follows the graph's insertion order, so output is deterministic. Dummy
// nodes are never exported; a finished layout contains none, and exporting
// mid-pipeline snapshots skips them.
func Export(g *Graph) GraphJSON {
	out := GraphJSON{Meta: g.meta}
	for _, n := range g.Nodes() {
		if n.IsDummy() {
			continue
		}
		nj := NodeJSON{
			ID:         n.ID,
			Label:      n.Label,
			W:          n.Size.W,
			H:          n.Size.H,
			X:          n.Pos.X,
			Y:          n.Pos.Y,
			FixedPorts: n.FixedPorts,
			Layer:      n.Layer,
			Order:      n.Order,
			Meta:       nonEmptyMeta(n.Meta),
		}
		if n.Margin != (Insets{}) {
			m := n.Margin
			nj.Margin = &m
		}
		if n.Padding != (Insets{}) {
			p := n.Padding
			nj.Padding = &p
		}
		for _, p := range n.Ports {
			nj.Ports = append(nj.Ports, *p)
		}
		if n.Children != nil {
			child := Export(n.Children)
			nj.Children = &child
		}
		out.Nodes = append(out.Nodes, nj)
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, EdgeJSON{
			From:     e.From,
			To:       e.To,
			FromPort: e.FromPort,
			ToPort:   e.ToPort,
			Reversed: e.Reversed,
			Bends:    e.Bends,
			Label:    e.Label,
			Meta:     nonEmptyMeta(e.Meta),
		})
	}
	return out
}

// Import converts the serialization format back into a Graph.
// Returns an error if the structure violates graph constraints.
func Import(gj GraphJSON) (*Graph, error) {
	g := New(gj.Meta)
	for _, nj := range gj.Nodes {
		n := Node{
			ID:         nj.ID,
			Label:      nj.Label,
			Size:       Size{W: nj.W, H: nj.H},
			Pos:        Point{X: nj.X, Y: nj.Y},
			FixedPorts: nj.FixedPorts,
			Layer:      nj.Layer,
			Order:      nj.Order,
			Meta:       nj.Meta,
		}
		if nj.Margin != nil {
			n.Margin = *nj.Margin
		}
		if nj.Padding != nil {
			n.Padding = *nj.Padding
		}
		for _, p := range nj.Ports {
			pc := p
			n.Ports = append(n.Ports, &pc)
		}
		if nj.Children != nil {
			child, err := Import(*nj.Children)
			if err != nil {
				return nil, fmt.Errorf("child graph of %s: %w", nj.ID, err)
			}
			n.Children = child
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}
	for _, ej := range gj.Edges {
		if _, err := g.AddEdge(Edge{
			From:     ej.From,
			To:       ej.To,
			FromPort: ej.FromPort,
			ToPort:   ej.ToPort,
			Reversed: ej.Reversed,
			Bends:    ej.Bends,
			Label:    ej.Label,
			Meta:     ej.Meta,
		}); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ej.From, ej.To, err)
		}
	}
	return g, nil
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal converts a Graph to indented JSON bytes with deterministic order.
func Marshal(g *Graph) ([]byte, error) {
	return json.MarshalIndent(Export(g), "", "  ")
}

// Unmarshal deserializes JSON bytes to a Graph.
func Unmarshal(data []byte) (*Graph, error) {
	var gj GraphJSON
	if err := json.Unmarshal(data, &gj); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return Import(gj)
}

// Write writes a Graph as indented JSON to an io.Writer.
func Write(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON graph from an io.Reader.
func Read(r io.Reader) (*Graph, error) {
	var gj GraphJSON
	if err := json.NewDecoder(r).Decode(&gj); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return Import(gj)
}

// WriteFile writes a Graph to a JSON file with 0644 permissions.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// ReadFile reads a JSON file and returns the decoded Graph.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func nonEmptyMeta(m Metadata) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}
