package layout

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/stratumlab/stratum/pkg/graph"
	"github.com/stratumlab/stratum/pkg/layered"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and library callers
// =============================================================================

const (
	// DefaultAlgorithm is the layout strategy used when none is named.
	DefaultAlgorithm = AlgorithmLayered

	// DefaultPadding is the outer margin reserved around the drawing.
	DefaultPadding = 12.0

	// DefaultNodeSpacing is the minimum gap between nodes in a layer.
	DefaultNodeSpacing = 20.0

	// DefaultEdgeLabelSpacing is the gap reserved for edge labels.
	DefaultEdgeLabelSpacing = 8.0

	// DefaultLayerSpacing is the base gap between adjacent layers.
	DefaultLayerSpacing = 40.0

	// DefaultMaxIter bounds the straightening passes of coordinate assignment.
	DefaultMaxIter = 50

	// DefaultEpsilon is the movement threshold that counts as converged.
	DefaultEpsilon = 0.25

	// DefaultIterationsFactor bounds the crossing-minimization sweeps.
	DefaultIterationsFactor = 7

	// DefaultLabelDistance is the edge-label offset from the edge's
	// source anchor.
	DefaultLabelDistance = 10.0

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)
)

// Algorithm identifiers for the strategy registry.
const (
	AlgorithmLayered = "layered"
	AlgorithmGrid    = "grid"
)

// Flow directions, re-exported so callers configure everything through
// this package.
const (
	DirectionDown  = layered.DirectionDown
	DirectionUp    = layered.DirectionUp
	DirectionRight = layered.DirectionRight
	DirectionLeft  = layered.DirectionLeft
)

// Edge routing styles.
const (
	RoutingPolyline   = layered.RoutingPolyline
	RoutingOrthogonal = layered.RoutingOrthogonal
	RoutingSplines    = layered.RoutingSplines
)

// Hierarchy handling modes for compound nodes.
const (
	// HierarchyInherit takes the effective mode of the parent graph.
	HierarchyInherit = "inherit"
	// HierarchyIncludeChildren flattens child graphs into the parent's
	// layer space.
	HierarchyIncludeChildren = "include-children"
	// HierarchySeparateChildren lays out each child graph independently;
	// its bounding box becomes the compound node's size in the parent pass.
	HierarchySeparateChildren = "separate-children"
)

// Overlap removal modes.
const (
	OverlapShift = layered.OverlapShift
	OverlapNone  = layered.OverlapNone
)

// ValidDirections is the set of supported flow directions.
var ValidDirections = map[string]bool{
	DirectionDown:  true,
	DirectionUp:    true,
	DirectionRight: true,
	DirectionLeft:  true,
}

// ValidRoutings is the set of supported edge routing styles.
var ValidRoutings = map[string]bool{
	RoutingPolyline:   true,
	RoutingOrthogonal: true,
	RoutingSplines:    true,
}

// ValidHierarchyModes is the set of supported hierarchy handling modes.
var ValidHierarchyModes = map[string]bool{
	HierarchyInherit:          true,
	HierarchyIncludeChildren:  true,
	HierarchySeparateChildren: true,
}

// ValidOverlapModes is the set of supported overlap removal modes.
var ValidOverlapModes = map[string]bool{
	OverlapShift: true,
	OverlapNone:  true,
}

// =============================================================================
// Options
// =============================================================================

// Options is the complete, declarative configuration of one layout call.
// Every field is optional; ValidateAndSetDefaults fills in defaults. The
// struct supports JSON and TOML round-trips for CLI options files.
//
// Options are revalidated per call and never mutated by the engine after
// validation.
type Options struct {
	Algorithm string `json:"algorithm,omitempty" toml:"algorithm"`
	Direction string `json:"direction,omitempty" toml:"direction"`

	Padding          float64 `json:"padding,omitempty" toml:"padding"`
	NodeSpacing      float64 `json:"node_spacing,omitempty" toml:"node_spacing"`
	EdgeLabelSpacing float64 `json:"edge_label_spacing,omitempty" toml:"edge_label_spacing"`
	LayerSpacing     float64 `json:"layer_spacing,omitempty" toml:"layer_spacing"`
	LayerSpacingFac  float64 `json:"layer_spacing_factor,omitempty" toml:"layer_spacing_factor"`

	MinNodeWidth  float64 `json:"min_node_width,omitempty" toml:"min_node_width"`
	MinNodeHeight float64 `json:"min_node_height,omitempty" toml:"min_node_height"`
	FixedNodeSize bool    `json:"fixed_node_size,omitempty" toml:"fixed_node_size"`

	EdgeRouting string `json:"edge_routing,omitempty" toml:"edge_routing"`
	Hierarchy   string `json:"hierarchy,omitempty" toml:"hierarchy"`
	OverlapMode string `json:"overlap_mode,omitempty" toml:"overlap_mode"`

	DebugMode          bool `json:"debug_mode,omitempty" toml:"debug_mode"`
	SeparateComponents bool `json:"separate_components,omitempty" toml:"separate_components"`
	MergeParallelEdges bool `json:"merge_parallel_edges,omitempty" toml:"merge_parallel_edges"`
	AdaptPortPositions bool `json:"adapt_port_positions,omitempty" toml:"adapt_port_positions"`

	MaxIter          int     `json:"maxiter,omitempty" toml:"maxiter"`
	Epsilon          float64 `json:"epsilon,omitempty" toml:"epsilon"`
	IterationsFactor int     `json:"iterations_factor,omitempty" toml:"iterations_factor"`

	LabelDistance float64 `json:"label_distance,omitempty" toml:"label_distance"`
	LabelAngle    float64 `json:"label_angle,omitempty" toml:"label_angle"`

	RandomSeed uint64 `json:"random_seed,omitempty" toml:"random_seed"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	// snapshot, when set, is invoked by the pipeline after each phase.
	// The engine installs it per subgraph in debug mode.
	snapshot func(phase string)

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks enum fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if o.Direction == "" {
		o.Direction = DirectionDown
	}
	if o.EdgeRouting == "" {
		o.EdgeRouting = RoutingPolyline
	}
	if o.Hierarchy == "" {
		o.Hierarchy = HierarchySeparateChildren
	}
	if o.OverlapMode == "" {
		o.OverlapMode = OverlapShift
	}

	if _, ok := strategies[o.Algorithm]; !ok {
		return fmt.Errorf("invalid algorithm: %q (must be one of: %s)", o.Algorithm, strategyNames())
	}
	if !ValidDirections[o.Direction] {
		return fmt.Errorf("invalid direction: %q (must be one of: down, up, right, left)", o.Direction)
	}
	if !ValidRoutings[o.EdgeRouting] {
		return fmt.Errorf("invalid edge_routing: %q (must be one of: polyline, orthogonal, splines)", o.EdgeRouting)
	}
	if !ValidHierarchyModes[o.Hierarchy] {
		return fmt.Errorf("invalid hierarchy: %q (must be one of: inherit, include-children, separate-children)", o.Hierarchy)
	}
	if !ValidOverlapModes[o.OverlapMode] {
		return fmt.Errorf("invalid overlap_mode: %q (must be one of: shift, none)", o.OverlapMode)
	}

	if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if o.NodeSpacing == 0 {
		o.NodeSpacing = DefaultNodeSpacing
	}
	if o.EdgeLabelSpacing == 0 {
		o.EdgeLabelSpacing = DefaultEdgeLabelSpacing
	}
	if o.LayerSpacing == 0 {
		o.LayerSpacing = DefaultLayerSpacing
	}
	if o.LayerSpacingFac == 0 {
		o.LayerSpacingFac = 1
	}
	if o.MinNodeWidth == 0 {
		o.MinNodeWidth = 10
	}
	if o.MinNodeHeight == 0 {
		o.MinNodeHeight = 10
	}
	if o.MaxIter == 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Epsilon == 0 {
		o.Epsilon = DefaultEpsilon
	}
	if o.IterationsFactor == 0 {
		o.IterationsFactor = DefaultIterationsFactor
	}
	if o.LabelDistance == 0 {
		o.LabelDistance = DefaultLabelDistance
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = DefaultSeed
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// config translates validated options into the layered pipeline's knobs.
func (o *Options) config() layered.Config {
	return layered.Config{
		Direction:          o.Direction,
		NodeSpacing:        o.NodeSpacing,
		EdgeLabelSpacing:   o.EdgeLabelSpacing,
		LayerSpacing:       o.LayerSpacing,
		LayerSpacingFac:    o.LayerSpacingFac,
		MinNodeSize:        graph.Size{W: o.MinNodeWidth, H: o.MinNodeHeight},
		FixedNodeSize:      o.FixedNodeSize,
		Routing:            o.EdgeRouting,
		MergeParallelEdges: o.MergeParallelEdges,
		OverlapMode:        o.OverlapMode,
		MaxIter:            o.MaxIter,
		Epsilon:            o.Epsilon,
		Iterations:         o.IterationsFactor,
		LabelDistance:      o.LabelDistance,
		LabelAngle:         o.LabelAngle,
		Seed:               o.RandomSeed,
		AdaptPortPositions: o.AdaptPortPositions,
		Snapshot:           o.snapshot,
	}
}

// effectiveHierarchy resolves HierarchyInherit against the enclosing
// graph's mode, top-down.
func effectiveHierarchy(mode, parent string) string {
	if mode == HierarchyInherit || mode == "" {
		if parent == "" {
			return HierarchySeparateChildren
		}
		return parent
	}
	return mode
}
