package cli

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/stratumlab/stratum/pkg/graph"
)

// dotPointsPerInch converts DOT width/height attributes (inches) to points.
const dotPointsPerInch = 72.0

// readDOTFile reads a Graphviz DOT digraph into the graph model.
func readDOTFile(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return readDOT(data)
}

// readDOT parses DOT input. The full input is validated with graphviz
// first, so malformed files are rejected with a proper parse error; the
// statement scanner then extracts the common digraph subset (node
// statements, edge chains, label/width/height attributes). Subgraph
// grouping and graph-level attributes are ignored.
func readDOT(data []byte) (*graph.Graph, error) {
	parsed, err := graphviz.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	g := graph.New(nil)
	ensure := func(id string) error {
		if _, ok := g.Node(id); ok {
			return nil
		}
		_, err := g.AddNode(graph.Node{ID: id})
		return err
	}

	for _, stmt := range dotStatements(string(data)) {
		head, attrs := splitDOTAttrs(stmt)
		if head == "" || isDOTKeyword(head) {
			continue
		}

		if strings.Contains(head, "->") {
			var chain []string
			for _, part := range strings.Split(head, "->") {
				id := unquoteDOT(strings.TrimSpace(part))
				if id == "" {
					continue
				}
				chain = append(chain, id)
			}
			for i := 0; i+1 < len(chain); i++ {
				if err := ensure(chain[i]); err != nil {
					return nil, err
				}
				if err := ensure(chain[i+1]); err != nil {
					return nil, err
				}
				e := graph.Edge{From: chain[i], To: chain[i+1]}
				if label := attrs["label"]; label != "" {
					e.Label = &graph.Label{Text: label}
				}
				if _, err := g.AddEdge(e); err != nil {
					return nil, fmt.Errorf("edge %s -> %s: %w", chain[i], chain[i+1], err)
				}
			}
			continue
		}

		id := unquoteDOT(head)
		if id == "" || strings.Contains(head, "=") {
			continue // graph-level attribute
		}
		if err := ensure(id); err != nil {
			return nil, err
		}
		n, _ := g.Node(id)
		if label := attrs["label"]; label != "" {
			n.Label = &graph.Label{Text: label}
		}
		if w, err := strconv.ParseFloat(attrs["width"], 64); err == nil {
			n.Size.W = w * dotPointsPerInch
		}
		if h, err := strconv.ParseFloat(attrs["height"], 64); err == nil {
			n.Size.H = h * dotPointsPerInch
		}
	}

	return g, nil
}

var dotCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*|#[^\n]*`)

// dotStatements splits DOT source into individual statements. Braces and
// semicolons terminate statements; newlines do as well, which covers the
// usual one-statement-per-line layout. Attribute lists with embedded
// separators must fit on one line.
func dotStatements(src string) []string {
	src = dotCommentRe.ReplaceAllString(src, "")

	var stmts []string
	var cur strings.Builder
	inQuote := false
	inBracket := false
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}
	for _, r := range src {
		switch {
		case inQuote:
			cur.WriteRune(r)
			if r == '"' {
				inQuote = false
			}
		case r == '"':
			inQuote = true
			cur.WriteRune(r)
		case r == '[':
			inBracket = true
			cur.WriteRune(r)
		case r == ']':
			inBracket = false
			cur.WriteRune(r)
		case r == ';' || r == '{' || r == '}' || (r == '\n' && !inBracket):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return stmts
}

// splitDOTAttrs separates a statement into its head and its [...] attribute
// pairs.
func splitDOTAttrs(stmt string) (string, map[string]string) {
	attrs := map[string]string{}
	open := strings.Index(stmt, "[")
	if open < 0 {
		return strings.TrimSpace(stmt), attrs
	}
	head := strings.TrimSpace(stmt[:open])
	body := stmt[open+1:]
	if close := strings.LastIndex(body, "]"); close >= 0 {
		body = body[:close]
	}

	// key=value pairs separated by commas or spaces, values possibly quoted
	for len(body) > 0 {
		eq := strings.Index(body, "=")
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(strings.Trim(strings.TrimSpace(body[:eq]), ","))
		rest := strings.TrimSpace(body[eq+1:])
		var value string
		if strings.HasPrefix(rest, `"`) {
			end := 1
			for end < len(rest) && (rest[end] != '"' || rest[end-1] == '\\') {
				end++
			}
			value = unquoteDOT(rest[:min(end+1, len(rest))])
			body = rest[min(end+1, len(rest)):]
		} else {
			end := strings.IndexAny(rest, ", \t")
			if end < 0 {
				end = len(rest)
			}
			value = rest[:end]
			body = rest[end:]
		}
		if key != "" {
			attrs[key] = value
		}
	}
	return head, attrs
}

// isDOTKeyword reports whether a statement head is structural rather than a
// node or edge.
func isDOTKeyword(head string) bool {
	first := strings.ToLower(strings.Fields(head)[0])
	switch first {
	case "digraph", "graph", "subgraph", "strict", "node", "edge":
		return true
	}
	return false
}

// unquoteDOT strips surrounding quotes and unescapes the content.
func unquoteDOT(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)
		s = strings.ReplaceAll(s, `\\`, `\`)
	}
	return s
}

// writeDOTFile writes a laid-out graph as a DOT file with position
// attributes, renderable with graphviz's neato -n.
func writeDOTFile(g *graph.Graph, path string) error {
	return os.WriteFile(path, []byte(toDOT(g)), 0o644)
}

// toDOT converts a laid-out graph to Graphviz DOT format. Node positions
// are emitted as pinned pos attributes in points; edge routes become pos
// splines.
func toDOT(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  node [shape=box];\n\n")

	for _, n := range g.Nodes() {
		center := n.Bounds().Center()
		attrs := []string{
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", center.X, center.Y),
			fmt.Sprintf("width=%.3f", n.Size.W/dotPointsPerInch),
			fmt.Sprintf("height=%.3f", n.Size.H/dotPointsPerInch),
		}
		if n.Label != nil && n.Label.Text != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", n.Label.Text))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if len(e.Bends) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		var pts []string
		for _, b := range e.Bends {
			pts = append(pts, fmt.Sprintf("%.2f,%.2f", b.X, b.Y))
		}
		fmt.Fprintf(&buf, "  %q -> %q [pos=%q];\n", e.From, e.To, strings.Join(pts, " "))
	}

	buf.WriteString("}\n")
	return buf.String()
}
