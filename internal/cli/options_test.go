package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/stratumlab/stratum/pkg/layout"
)

func writeOptionsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write options file: %v", err)
	}
	return path
}

func TestLoadOptionsFile(t *testing.T) {
	path := writeOptionsFile(t, `
direction = "right"
edge_routing = "orthogonal"
node_spacing = 30.0
separate_components = true
random_seed = 7
`)

	opts, err := loadOptionsFile(path)
	if err != nil {
		t.Fatalf("loadOptionsFile() error = %v", err)
	}
	if opts.Direction != layout.DirectionRight {
		t.Errorf("Direction = %q, want right", opts.Direction)
	}
	if opts.EdgeRouting != layout.RoutingOrthogonal {
		t.Errorf("EdgeRouting = %q, want orthogonal", opts.EdgeRouting)
	}
	if opts.NodeSpacing != 30 {
		t.Errorf("NodeSpacing = %v, want 30", opts.NodeSpacing)
	}
	if !opts.SeparateComponents {
		t.Error("SeparateComponents = false, want true")
	}
	if opts.RandomSeed != 7 {
		t.Errorf("RandomSeed = %v, want 7", opts.RandomSeed)
	}
}

func TestLoadOptionsFile_Missing(t *testing.T) {
	if _, err := loadOptionsFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("loadOptionsFile() succeeded on missing file")
	}
}

func TestLoadOptionsFile_BadTOML(t *testing.T) {
	path := writeOptionsFile(t, `direction = [broken`)
	if _, err := loadOptionsFile(path); err == nil {
		t.Error("loadOptionsFile() accepted malformed TOML")
	}
}

func TestMergeOptions_FlagsWinOverFile(t *testing.T) {
	var flags layout.Options
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVarP(&flags.Direction, "direction", "d", "", "")
	cmd.Flags().Float64Var(&flags.NodeSpacing, "node-spacing", 0, "")
	cmd.Flags().BoolVar(&flags.SeparateComponents, "separate-components", false, "")

	if err := cmd.Flags().Parse([]string{"--direction", "up"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	file := layout.Options{Direction: layout.DirectionRight, NodeSpacing: 55}
	merged := mergeOptions(cmd, flags, file)

	if merged.Direction != layout.DirectionUp {
		t.Errorf("Direction = %q, want explicit flag value up", merged.Direction)
	}
	if merged.NodeSpacing != 55 {
		t.Errorf("NodeSpacing = %v, want file value 55", merged.NodeSpacing)
	}
	if merged.SeparateComponents {
		t.Error("untouched bool flag overrode the file")
	}
}
