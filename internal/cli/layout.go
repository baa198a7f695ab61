package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stratumlab/stratum/pkg/graph"
	"github.com/stratumlab/stratum/pkg/layout"
)

// layoutCommand creates the layout command for computing graph layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output      string
		optionsFile string
		dotOutput   string
		noCache     bool
	)
	opts := layout.Options{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json|graph.dot]",
		Short: "Compute a layout for a graph file",
		Long: `Compute a layout for a graph file.

The layout command reads a graph from a JSON file (the stratum graph format)
or a Graphviz DOT file, computes node positions and edge routes using the
layered pipeline, and writes the annotated graph as JSON.

Options can be given as flags or collected in a TOML file (--options);
flags override file values. Results are cached locally for faster
subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if optionsFile != "" {
				fileOpts, err := loadOptionsFile(optionsFile)
				if err != nil {
					return fmt.Errorf("load options %s: %w", optionsFile, err)
				}
				opts = mergeOptions(cmd, opts, fileOpts)
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, dotOutput, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&optionsFile, "options", "", "TOML file with layout options")
	cmd.Flags().StringVar(&dotOutput, "dot", "", "also write the laid-out graph as a DOT file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	// Layout flags
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", "", "layout algorithm: layered (default), grid")
	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", "", "flow direction: down (default), up, right, left")
	cmd.Flags().StringVarP(&opts.EdgeRouting, "routing", "r", "", "edge routing: polyline (default), orthogonal, splines")
	cmd.Flags().StringVar(&opts.Hierarchy, "hierarchy", "", "compound handling: separate-children (default), include-children")
	cmd.Flags().Float64Var(&opts.NodeSpacing, "node-spacing", 0, "minimum gap between nodes in a layer")
	cmd.Flags().Float64Var(&opts.LayerSpacing, "layer-spacing", 0, "base gap between layers")
	cmd.Flags().Float64Var(&opts.Padding, "padding", 0, "outer margin around the drawing")
	cmd.Flags().BoolVar(&opts.SeparateComponents, "separate-components", false, "lay out disjoint components independently")
	cmd.Flags().BoolVar(&opts.MergeParallelEdges, "concentrate", false, "bundle parallel edges")
	cmd.Flags().BoolVar(&opts.AdaptPortPositions, "adapt-ports", false, "move free ports to actual edge crossing points")
	cmd.Flags().BoolVar(&opts.DebugMode, "debug", false, "retain intermediate phase snapshots (disables caching)")
	cmd.Flags().Uint64Var(&opts.RandomSeed, "seed", 0, "random seed for reproducible tie-breaking")

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts layout.Options, output, dotOutput string, noCache bool) error {
	p := newProgress(c.Logger)
	g, err := readGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	p.done(fmt.Sprintf("Loaded %d nodes and %d edges", g.NodeCount(), g.EdgeCount()))

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	res, err := runner.Compute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := graph.WriteFile(res.Graph, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}
	if dotOutput != "" {
		if err := writeDOTFile(res.Graph, dotOutput); err != nil {
			return fmt.Errorf("write DOT %s: %w", dotOutput, err)
		}
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	if dotOutput != "" {
		printFile(dotOutput)
	}
	printStats(res.Stats.Nodes, res.Stats.Edges, res.Stats.Layers, res.FromCache)
	for _, w := range res.Warnings {
		printWarning("%s: %s", w.Kind, w.Message)
	}
	printNewline()
	if dotOutput == "" {
		printNextStep("Export DOT", fmt.Sprintf("stratum layout %s --dot %s.dot", input, strings.TrimSuffix(input, filepath.Ext(input))))
	}

	return nil
}

// readGraphFile loads a graph from JSON or, for .dot/.gv files, DOT.
func readGraphFile(path string) (*graph.Graph, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return readDOTFile(path)
	default:
		return graph.ReadFile(path)
	}
}
