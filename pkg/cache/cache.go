// Package cache provides caching for computed layout results.
//
// Layouts are deterministic in the graph, the options, and the seed, so a
// result can be keyed by a content hash of its inputs and reused across
// invocations. The package offers several backends behind one interface:
//
//   - FileCache: directory-based cache for CLI usage
//   - RedisCache: shared cache for service deployments
//   - NullCache: caching disabled
//
// Keys are produced by a Keyer so that key construction stays consistent
// across callers; ScopedKeyer adds a prefix for namespace isolation on
// shared backends.
package cache

import (
	"context"
	"time"
)

// TTLLayout is how long cached layout results stay valid. Layouts are
// cheap to keep and deterministic, so the TTL mainly bounds disk usage.
const TTLLayout = 7 * 24 * time.Hour

// Cache stores opaque byte values under string keys.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// errors are reserved for backend failures. Implementations must be safe
// for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts carries every option that affects layout output. Two
// invocations with equal graph hashes and equal LayoutKeyOpts produce
// identical results and may share a cache entry.
type LayoutKeyOpts struct {
	Algorithm          string  `json:"algorithm"`
	Direction          string  `json:"direction"`
	Padding            float64 `json:"padding"`
	NodeSpacing        float64 `json:"node_spacing"`
	EdgeLabelSpacing   float64 `json:"edge_label_spacing"`
	LayerSpacing       float64 `json:"layer_spacing"`
	LayerSpacingFac    float64 `json:"layer_spacing_factor"`
	MinNodeWidth       float64 `json:"min_node_width"`
	MinNodeHeight      float64 `json:"min_node_height"`
	FixedNodeSize      bool    `json:"fixed_node_size"`
	EdgeRouting        string  `json:"edge_routing"`
	Hierarchy          string  `json:"hierarchy"`
	OverlapMode        string  `json:"overlap_mode"`
	SeparateComponents bool    `json:"separate_components"`
	MergeParallelEdges bool    `json:"merge_parallel_edges"`
	AdaptPortPositions bool    `json:"adapt_port_positions"`
	MaxIter            int     `json:"maxiter"`
	Epsilon            float64 `json:"epsilon"`
	IterationsFactor   int     `json:"iterations_factor"`
	LabelDistance      float64 `json:"label_distance"`
	LabelAngle         float64 `json:"label_angle"`
	Seed               uint64  `json:"seed"`
}

// Keyer generates cache keys. A Keyer must be deterministic: equal inputs
// yield equal keys across processes.
type Keyer interface {
	// LayoutKey generates a key for a layout result, from the content
	// hash of the input graph and the effective options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer generates keys by hashing the inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for a layout result.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}
