package layout

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/stratumlab/stratum/pkg/cache"
	"github.com/stratumlab/stratum/pkg/graph"
	"github.com/stratumlab/stratum/pkg/observability"
)

// Runner wraps the engine with result caching. Layouts are deterministic
// in (graph, options, seed), so a result is keyed by the content hash of
// the input graph plus the effective options and reused across
// invocations.
//
// The Runner is stateless except for the cache and logger - multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Engine *Engine
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Engine: New(logger),
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Compute returns a laid-out graph, from cache when possible.
//
// On a cache hit the returned Result carries a freshly deserialized graph
// (FromCache=true) and the caller's graph is left untouched; on a miss the
// engine annotates the caller's graph in place and the result is stored
// for next time. Debug mode bypasses the cache entirely, since snapshots
// are not serialized.
func (r *Runner) Compute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.DebugMode {
		return r.Engine.Compute(ctx, g, opts)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidGraph)
	}

	input, err := graph.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	key := r.Keyer.LayoutKey(cache.Hash(input), opts.LayoutKeyOpts())

	start := time.Now()
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		if cached, err := graph.Unmarshal(data); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			r.Logger.Debug("layout cache hit", "nodes", cached.NodeCount())
			res := &Result{
				ID:        uuid.NewString(),
				Graph:     cached,
				FromCache: true,
			}
			res.Stats.Nodes = cached.NodeCount()
			res.Stats.Edges = cached.EdgeCount()
			for _, n := range cached.Nodes() {
				if n.Layer+1 > res.Stats.Layers {
					res.Stats.Layers = n.Layer + 1
				}
			}
			res.Stats.Duration = time.Since(start)
			return res, nil
		}
		// Undecodable entry - recompute and overwrite.
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	res, err := r.Engine.Compute(ctx, g, opts)
	if err != nil {
		return nil, err
	}

	if data, err := graph.Marshal(res.Graph); err == nil {
		// Network-backed caches mark transient failures retryable.
		writeErr := cache.RetryWithBackoff(ctx, func() error {
			return r.Cache.Set(ctx, key, data, cache.TTLLayout)
		})
		if writeErr != nil {
			r.Logger.Debug("layout cache write failed", "err", writeErr)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// LayoutKeyOpts returns cache key options covering every output-affecting
// option.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Algorithm:          o.Algorithm,
		Direction:          o.Direction,
		Padding:            o.Padding,
		NodeSpacing:        o.NodeSpacing,
		EdgeLabelSpacing:   o.EdgeLabelSpacing,
		LayerSpacing:       o.LayerSpacing,
		LayerSpacingFac:    o.LayerSpacingFac,
		MinNodeWidth:       o.MinNodeWidth,
		MinNodeHeight:      o.MinNodeHeight,
		FixedNodeSize:      o.FixedNodeSize,
		EdgeRouting:        o.EdgeRouting,
		Hierarchy:          o.Hierarchy,
		OverlapMode:        o.OverlapMode,
		SeparateComponents: o.SeparateComponents,
		MergeParallelEdges: o.MergeParallelEdges,
		AdaptPortPositions: o.AdaptPortPositions,
		MaxIter:            o.MaxIter,
		Epsilon:            o.Epsilon,
		IterationsFactor:   o.IterationsFactor,
		LabelDistance:      o.LabelDistance,
		LabelAngle:         o.LabelAngle,
		Seed:               o.RandomSeed,
	}
}
