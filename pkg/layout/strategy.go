package layout

import (
	"sort"
	"strings"

	"github.com/stratumlab/stratum/pkg/graph"
	"github.com/stratumlab/stratum/pkg/layered"
)

// Pipeline errors, re-exported so callers can match them with errors.Is
// without importing the layered package.
var (
	ErrInvalidGraph            = layered.ErrInvalidGraph
	ErrUnsatisfiableConstraint = layered.ErrUnsatisfiableConstraint
)

// Strategy computes coordinates for one flat graph. Implementations must
// be deterministic for a given graph and options, and must not add or
// remove nodes or edges from the graph they receive.
type Strategy interface {
	// Name returns the registry identifier of the strategy.
	Name() string

	// Layout assigns positions, port placements, and edge bend points
	// in place. Warnings report non-fatal issues such as iteration
	// bounds being hit.
	Layout(g *graph.Graph, opts *Options) ([]Warning, error)
}

// strategies is the compile-time registry. Selection happens once per
// Compute call; every subgraph of that call uses the same strategy.
var strategies = map[string]Strategy{
	AlgorithmLayered: layeredStrategy{},
	AlgorithmGrid:    gridStrategy{},
}

func strategyNames() string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// layeredStrategy runs the rank-based pipeline: cycle breaking, layer
// assignment, crossing minimization, coordinate assignment, routing.
type layeredStrategy struct{}

func (layeredStrategy) Name() string { return AlgorithmLayered }

func (layeredStrategy) Layout(g *graph.Graph, opts *Options) ([]Warning, error) {
	cfg := opts.config()
	warns, err := layered.Run(g, cfg)
	if err != nil {
		return nil, err
	}
	out := make([]Warning, 0, len(warns))
	for _, w := range warns {
		out = append(out, Warning{
			Kind:    WarnConvergence,
			Phase:   w.Phase,
			Message: w.Message,
		})
	}
	return out, nil
}
