package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/stratumlab/stratum/pkg/layout"
)

// loadOptionsFile reads layout options from a TOML file.
//
// Example file:
//
//	direction = "right"
//	edge_routing = "orthogonal"
//	node_spacing = 30.0
//	separate_components = true
func loadOptionsFile(path string) (layout.Options, error) {
	var opts layout.Options
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse TOML: %w", err)
	}
	return opts, nil
}

// mergeOptions layers explicitly-set flags over options loaded from a
// file. Flags the user did not touch keep the file's values.
func mergeOptions(cmd *cobra.Command, flags, file layout.Options) layout.Options {
	out := file
	f := cmd.Flags()
	if f.Changed("algorithm") {
		out.Algorithm = flags.Algorithm
	}
	if f.Changed("direction") {
		out.Direction = flags.Direction
	}
	if f.Changed("routing") {
		out.EdgeRouting = flags.EdgeRouting
	}
	if f.Changed("hierarchy") {
		out.Hierarchy = flags.Hierarchy
	}
	if f.Changed("node-spacing") {
		out.NodeSpacing = flags.NodeSpacing
	}
	if f.Changed("layer-spacing") {
		out.LayerSpacing = flags.LayerSpacing
	}
	if f.Changed("padding") {
		out.Padding = flags.Padding
	}
	if f.Changed("separate-components") {
		out.SeparateComponents = flags.SeparateComponents
	}
	if f.Changed("concentrate") {
		out.MergeParallelEdges = flags.MergeParallelEdges
	}
	if f.Changed("adapt-ports") {
		out.AdaptPortPositions = flags.AdaptPortPositions
	}
	if f.Changed("debug") {
		out.DebugMode = flags.DebugMode
	}
	if f.Changed("seed") {
		out.RandomSeed = flags.RandomSeed
	}
	return out
}
