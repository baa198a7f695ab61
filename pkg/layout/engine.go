package layout

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stratumlab/stratum/pkg/graph"
	"github.com/stratumlab/stratum/pkg/observability"
)

// Engine orchestrates layout computation over a possibly nested graph:
// strategy selection, post-order compound traversal, connected-component
// separation, fallback handling, and debug snapshots.
//
// The Engine is stateless except for its logger - multiple goroutines can
// safely share one Engine with different graphs and options.
type Engine struct {
	Logger *log.Logger
}

// New creates an engine. If logger is nil, log.Default() is used.
func New(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{Logger: logger}
}

// Compute is a convenience wrapper around Engine.Compute using the options'
// logger.
func Compute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	return New(opts.Logger).Compute(ctx, g, opts)
}

// Compute runs one layout invocation. The graph is annotated in place -
// node positions and sizes, port placements, edge bend points, and label
// positions are filled in - and returned on the Result together with
// warnings, statistics, and (in debug mode) phase snapshots.
//
// Child graphs of compound nodes end up in coordinates relative to their
// parent node's top-left corner; the root graph is shifted so its content
// starts at (padding, padding).
//
// Compute never returns a partially laid-out graph on error: validation
// failures are reported before any mutation, and per-subgraph strategy
// failures fall back to grid placement with a WarnFallback warning instead
// of failing the call.
func (e *Engine) Compute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	start := time.Now()

	if opts.Logger == nil {
		opts.Logger = e.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidGraph)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}

	id := uuid.NewString()
	logger := opts.Logger.With("layout", id[:8])
	strat := strategies[opts.Algorithm]
	hooks := observability.Layout()

	res := &Result{ID: id, Graph: g}
	hooks.OnLayoutStart(ctx, opts.Algorithm, g.NodeCount())

	err := e.process(ctx, strat, g, opts, logger, res)
	res.Stats.Duration = time.Since(start)
	hooks.OnLayoutComplete(ctx, opts.Algorithm, res.Stats.Duration, err)
	if err != nil {
		return nil, err
	}

	res.Stats.Nodes = g.NodeCount()
	res.Stats.Edges = g.EdgeCount()
	for _, n := range g.Nodes() {
		if n.Layer+1 > res.Stats.Layers {
			res.Stats.Layers = n.Layer + 1
		}
	}
	res.Stats.Components = len(g.Components())

	logger.Info("layout complete",
		"algorithm", opts.Algorithm,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"layers", res.Stats.Layers,
		"warnings", len(res.Warnings),
		"duration", res.Stats.Duration)
	return res, nil
}

// process walks the compound hierarchy post-order with an explicit work
// stack, so nesting depth never translates into call-stack depth. Child
// graphs in separate-children mode are laid out before their parent; the
// resulting bounding box plus padding becomes the compound node's minimum
// size for the parent pass.
func (e *Engine) process(ctx context.Context, strat Strategy, root *graph.Graph, opts Options, logger *log.Logger, res *Result) error {
	type job struct {
		g        *graph.Graph
		owner    *graph.Node // compound node owning g, nil for the root
		mode     string
		path     string
		expanded bool
	}

	rootMode := effectiveHierarchy(opts.Hierarchy, "")
	if mh := metaHierarchy(root); mh != "" {
		rootMode = effectiveHierarchy(mh, rootMode)
	}

	stack := []*job{{g: root, mode: rootMode, path: "root"}}
	for len(stack) > 0 {
		j := stack[len(stack)-1]
		if !j.expanded {
			j.expanded = true
			if j.mode == HierarchySeparateChildren {
				nodes := j.g.Nodes()
				for i := len(nodes) - 1; i >= 0; i-- {
					n := nodes[i]
					if !n.IsCompound() || n.Children.NodeCount() == 0 {
						continue
					}
					stack = append(stack, &job{
						g:     n.Children,
						owner: n,
						mode:  effectiveHierarchy(metaHierarchy(n.Children), j.mode),
						path:  j.path + "/" + n.ID,
					})
				}
			}
			continue
		}
		stack = stack[:len(stack)-1]

		if err := e.layoutFlat(ctx, strat, j.g, j.mode, j.path, opts, logger, res); err != nil {
			return err
		}

		if j.owner == nil {
			bb := j.g.BoundingBox()
			j.g.Translate(opts.Padding-bb.X, opts.Padding-bb.Y)
		} else {
			fitCompound(j.owner)
		}
	}
	return nil
}

// layoutFlat lays out one graph of the hierarchy. In include-children mode
// nested child graphs are flattened into a working graph first and results
// copied back afterwards. With separate_components enabled, connected
// components are laid out independently - in parallel outside debug mode -
// and placed side by side, separated by the configured padding.
func (e *Engine) layoutFlat(ctx context.Context, strat Strategy, g *graph.Graph, mode, path string, opts Options, logger *log.Logger, res *Result) error {
	if g.NodeCount() == 0 {
		return nil
	}

	work := g
	var fm *flatMap
	if mode == HierarchyIncludeChildren && hasCompound(g) {
		var err error
		work, fm, err = flatten(g)
		if err != nil {
			return fmt.Errorf("flatten %s: %w", path, err)
		}
		logger.Debug("flattened hierarchy", "subgraph", path, "nodes", work.NodeCount())
	}

	var capture func(phase, subPath string, sg *graph.Graph)
	if opts.DebugMode {
		capture = func(phase, subPath string, sg *graph.Graph) {
			res.Snapshots = append(res.Snapshots, Snapshot{
				Phase:    phase,
				Subgraph: subPath,
				Graph:    sg.Clone(),
			})
		}
	}

	comps := []*graph.Graph{work}
	if opts.SeparateComponents {
		comps = work.Components()
	}

	switch {
	case len(comps) == 1:
		warns, err := e.layoutComponent(ctx, strat, work, path, opts, logger, capture)
		if err != nil {
			return err
		}
		res.Warnings = append(res.Warnings, warns...)

	case opts.DebugMode:
		// Sequential in debug mode so snapshot order follows component order.
		for i, c := range comps {
			warns, err := e.layoutComponent(ctx, strat, c, componentPath(path, i), opts, logger, capture)
			if err != nil {
				return err
			}
			res.Warnings = append(res.Warnings, warns...)
		}
		placeComponents(comps, opts)

	default:
		// Components share no nodes or edges, so workers mutate disjoint
		// state; warnings are collected per component and merged in
		// component order to keep the result deterministic.
		warns := make([][]Warning, len(comps))
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(runtime.GOMAXPROCS(0))
		for i, c := range comps {
			eg.Go(func() error {
				w, err := e.layoutComponent(gctx, strat, c, componentPath(path, i), opts, logger, nil)
				warns[i] = w
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		for _, w := range warns {
			res.Warnings = append(res.Warnings, w...)
		}
		placeComponents(comps, opts)
	}

	if fm != nil {
		fm.copyBack()
		resolveCompoundBounds(g)
	}
	return nil
}

// layoutComponent runs the strategy on one flat, connected piece. On
// strategy failure the grid fallback produces the coordinates instead and
// the failure is reported as a warning, so a single problematic subgraph
// never sinks the whole invocation.
func (e *Engine) layoutComponent(ctx context.Context, strat Strategy, g *graph.Graph, path string, opts Options, logger *log.Logger, capture func(phase, subPath string, sg *graph.Graph)) ([]Warning, error) {
	hooks := observability.Layout()
	phaseStart := time.Now()

	local := opts
	local.snapshot = func(phase string) {
		hooks.OnPhase(ctx, phase, path, time.Since(phaseStart))
		phaseStart = time.Now()
		if capture != nil {
			capture(phase, path, g)
		}
	}

	warns, err := strat.Layout(g, &local)
	if err != nil {
		logger.Warn("strategy failed, using grid placement",
			"strategy", strat.Name(), "subgraph", path, "err", err)
		warns = []Warning{{
			Kind:    WarnFallback,
			Graph:   path,
			Message: fmt.Sprintf("%s strategy failed (%v); grid placement used", strat.Name(), err),
		}}
		if _, gerr := (gridStrategy{}).Layout(g, &local); gerr != nil {
			return nil, fmt.Errorf("grid fallback on %s: %w", path, gerr)
		}
		return warns, nil
	}
	for i := range warns {
		if warns[i].Graph == "" {
			warns[i].Graph = path
		}
	}
	return warns, nil
}

// placeComponents arranges independently laid-out components side by side
// across the flow direction, in component order, separated by the padding.
func placeComponents(comps []*graph.Graph, opts Options) {
	horizontal := opts.Direction == DirectionDown || opts.Direction == DirectionUp
	offset := 0.0
	for _, c := range comps {
		bb := c.BoundingBox()
		if horizontal {
			c.Translate(offset-bb.X, -bb.Y)
			offset += bb.W + opts.Padding
		} else {
			c.Translate(-bb.X, offset-bb.Y)
			offset += bb.H + opts.Padding
		}
	}
}

// fitCompound sizes a compound node around its already laid-out child
// graph and shifts the children so their content starts at the node's
// padding offsets, relative to the node's top-left corner. The node's size
// only ever grows.
func fitCompound(n *graph.Node) {
	bb := n.Children.BoundingBox()
	n.Children.Translate(n.Padding.Left-bb.X, n.Padding.Top-bb.Y)
	if w := bb.W + n.Padding.Horizontal(); n.Size.W < w {
		n.Size.W = w
	}
	if h := bb.H + n.Padding.Vertical(); n.Size.H < h {
		n.Size.H = h
	}
}

func componentPath(path string, i int) string {
	return fmt.Sprintf("%s#%d", path, i)
}

// metaHierarchy reads a per-graph hierarchy override from the graph's
// metadata, if present.
func metaHierarchy(g *graph.Graph) string {
	if v, ok := g.Meta()["hierarchy"].(string); ok {
		return v
	}
	return ""
}
