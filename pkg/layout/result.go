package layout

import (
	"time"

	"github.com/stratumlab/stratum/pkg/graph"
)

// Warning kinds reported alongside a successful layout.
const (
	// WarnConvergence means an iterative phase hit its bound before
	// settling; the result is valid but may be visually suboptimal.
	WarnConvergence = "convergence"

	// WarnFallback means the selected strategy failed on a subgraph and
	// the grid fallback produced its coordinates instead.
	WarnFallback = "fallback"
)

// Warning is a non-fatal diagnostic from one pipeline phase.
type Warning struct {
	Kind    string `json:"kind"`
	Phase   string `json:"phase,omitempty"`
	Graph   string `json:"graph,omitempty"`
	Message string `json:"message"`
}

// Snapshot is an intermediate pipeline state captured in debug mode.
// Graph is a deep copy; mutating it does not affect the result.
type Snapshot struct {
	Phase    string       `json:"phase"`
	Subgraph string       `json:"subgraph,omitempty"`
	Graph    *graph.Graph `json:"-"`
}

// Stats summarizes one layout invocation.
type Stats struct {
	Nodes      int           `json:"nodes"`
	Edges      int           `json:"edges"`
	Layers     int           `json:"layers"`
	Components int           `json:"components"`
	Duration   time.Duration `json:"duration"`
}

// Result bundles the laid-out graph with everything observed on the way.
// Graph is the same instance the caller passed in, now carrying positions,
// port placements, and edge bend points.
type Result struct {
	ID        string       `json:"id"`
	Graph     *graph.Graph `json:"-"`
	Warnings  []Warning    `json:"warnings,omitempty"`
	Snapshots []Snapshot   `json:"-"`
	Stats     Stats        `json:"stats"`
	FromCache bool         `json:"from_cache,omitempty"`
}
