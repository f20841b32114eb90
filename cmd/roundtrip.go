// cmd/roundtrip.go - Splice-through re-encode command
package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/tile_to_json/pkg/mvt"
)

// roundtripCmd represents the roundtrip command
var roundtripCmd = &cobra.Command{
	Use:   "roundtrip",
	Short: "Re-encode an existing tile's layers verbatim, to verify byte-exact splicing",
	Long: `Read an existing Mapbox Vector Tile, split it into its layers, and feed
each layer back through TileBuilder.AddExistingLayer, splicing the raw layer
bytes into a freshly serialized tile without re-parsing features.

The output is byte-identical to the input when the input's layers carry no
trailing padding; this is mainly useful to confirm that the builder's
existing-layer path reproduces a tile exactly, the way copying an unchanged
layer between tiles should.

Examples:
  # Re-encode a tile through the existing-layer path and compare sizes
  geojson-to-mvt roundtrip --file roads.mvt --output roads.roundtrip.mvt`,
	RunE: runRoundtrip,
}

func init() {
	rootCmd.AddCommand(roundtripCmd)

	roundtripCmd.Flags().String("file", "", "path to an existing tile")
	roundtripCmd.Flags().StringP("output", "o", "", "output tile path (default: stdout)")
	roundtripCmd.MarkFlagRequired("file")
}

func runRoundtrip(cmd *cobra.Command, args []string) error {
	filePath, _ := cmd.Flags().GetString("file")
	outputPath, _ := cmd.Flags().GetString("output")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read tile: %w", err)
	}

	layers, err := mvt.ParseTile(data)
	if err != nil {
		return fmt.Errorf("failed to split tile into layers: %w", err)
	}

	tb := mvt.NewTileBuilder()
	for _, layer := range layers {
		tb.AddExistingLayer(layer)
	}
	out := tb.Serialize()

	if outputPath == "" || outputPath == "-" {
		if _, err := os.Stdout.Write(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		if err := os.WriteFile(outputPath, out, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "roundtrip: %d layers, %d bytes in, %d bytes out, identical=%t\n",
		len(layers), len(data), len(out), bytes.Equal(data, out))
	return nil
}
