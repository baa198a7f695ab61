package layered

import (
	"errors"
	"fmt"

	"github.com/stratumlab/stratum/pkg/graph"
)

// Flow directions. The first layer is drawn at the top (down), bottom (up),
// left (right), or right (left) edge of the drawing.
const (
	DirectionDown  = "down"
	DirectionUp    = "up"
	DirectionRight = "right"
	DirectionLeft  = "left"
)

// Edge routing styles.
const (
	RoutingPolyline   = "polyline"
	RoutingOrthogonal = "orthogonal"
	RoutingSplines    = "splines"
)

// Overlap removal modes.
const (
	// OverlapShift restores minimum spacing by shifting nodes minimally.
	OverlapShift = "shift"
	// OverlapNone skips the overlap removal post-pass.
	OverlapNone = "none"
)

var (
	// ErrInvalidGraph is returned when the graph holds a structural
	// contradiction the pipeline cannot resolve, such as an effective-direction
	// cycle surviving cycle breaking.
	ErrInvalidGraph = errors.New("invalid graph structure")

	// ErrUnsatisfiableConstraint is returned when fixed port order and fixed
	// node size cannot be jointly satisfied, e.g. more fixed ports on a side
	// than the side can hold at minimum port spacing.
	ErrUnsatisfiableConstraint = errors.New("unsatisfiable constraint")
)

// minPortSpacing is the smallest center-to-center distance between two
// ports on the same side.
const minPortSpacing = 4.0

// Config carries the knobs the layered pipeline reads. The zero value is
// not usable; Defaults returns a complete configuration and callers
// override individual fields.
type Config struct {
	Direction string

	NodeSpacing      float64 // minimum gap between node boundaries in a layer
	EdgeLabelSpacing float64 // extra layer separation when edges carry labels
	LayerSpacing     float64 // base gap between adjacent layers
	LayerSpacingFac  float64 // scales LayerSpacing

	MinNodeSize   graph.Size // lower bound applied to every node
	FixedNodeSize bool       // declared sizes are final, never grown

	Routing            string
	MergeParallelEdges bool
	OverlapMode        string

	MaxIter    int     // iteration bound for coordinate straightening
	Epsilon    float64 // convergence threshold for straightening
	Iterations int     // crossing-minimization sweep bound

	LabelDistance float64 // edge label distance from the edge's source anchor
	LabelAngle    float64 // edge label angle at the source anchor, degrees

	Seed               uint64 // tie-break seed, determinism anchor
	AdaptPortPositions bool

	// Snapshot, when non-nil, is invoked after every phase with the phase
	// name. The caller clones whatever state it wants to retain; the
	// pipeline itself keeps nothing.
	Snapshot func(phase string)
}

// Defaults returns the standard configuration.
func Defaults() Config {
	return Config{
		Direction:        DirectionDown,
		NodeSpacing:      20,
		EdgeLabelSpacing: 8,
		LayerSpacing:     40,
		LayerSpacingFac:  1,
		MinNodeSize:      graph.Size{W: 10, H: 10},
		Routing:          RoutingPolyline,
		OverlapMode:      OverlapShift,
		MaxIter:          50,
		Epsilon:          0.25,
		Iterations:       7,
		LabelDistance:    10,
		LabelAngle:       0,
		Seed:             42,
	}
}

// Warning is a non-fatal diagnostic from an iterative phase that hit its
// iteration bound before converging. The best result found is kept.
type Warning struct {
	Phase   string
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Phase, w.Message) }

// Phase names, used for warnings and debug snapshots.
const (
	PhaseCycleBreaking = "cycle-breaking"
	PhaseLayering      = "layering"
	PhaseOrdering      = "ordering"
	PhaseCoordinates   = "coordinates"
	PhaseRouting       = "routing"
)

// Run executes the five-phase layered pipeline on g, writing positions,
// sizes, orders, bend points, and label placements into the graph. The
// graph gains and loses no nodes or edges; synthetic dummy nodes live in a
// private arena for the duration of the call.
//
// Compound children of g must already be laid out and their node sizes
// final; Run treats every node size as given (subject to Config sizing
// rules) and never recurses. Recursion across the hierarchy is the
// orchestrator's job.
//
// Run is deterministic: identical graph construction order, Config, and
// Seed produce identical results.
func Run(g *graph.Graph, cfg Config) ([]Warning, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}

	breakCycles(g)
	snapshot(cfg, PhaseCycleBreaking)

	if err := assignLayers(g); err != nil {
		return nil, err
	}
	snapshot(cfg, PhaseLayering)

	a, err := buildArena(g, cfg)
	if err != nil {
		return nil, err
	}

	var warnings []Warning
	warnings = append(warnings, minimizeCrossings(a)...)
	snapshot(cfg, PhaseOrdering)

	warnings = append(warnings, assignCoords(a)...)
	snapshot(cfg, PhaseCoordinates)

	routeEdges(a)
	snapshot(cfg, PhaseRouting)

	return warnings, nil
}

func snapshot(cfg Config, phase string) {
	if cfg.Snapshot != nil {
		cfg.Snapshot(phase)
	}
}
