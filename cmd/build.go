// cmd/build.go - Single tile build command
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/tile_to_json/internal/encodeconfig"
	"github.com/valpere/tile_to_json/internal/geojsonsrc"
	"github.com/valpere/tile_to_json/internal/mvtwrite"
	"github.com/valpere/tile_to_json/pkg/mvt"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a single Mapbox Vector Tile from one GeoJSON feature collection",
	Long: `Build a single Mapbox Vector Tile from a GeoJSON feature collection, read
either from a file or from standard input.

Examples:
  # Build from stdin, write to stdout
  geojson-to-mvt build --layer roads --version 2 < roads.geojson > roads.mvt

  # Build from a file, write to a file
  geojson-to-mvt build --file roads.geojson --output roads.mvt --layer roads`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("file", "", "path to a GeoJSON file (default: stdin)")
	buildCmd.Flags().StringP("output", "o", "", "output tile path (default: stdout)")
	buildCmd.Flags().Int("z", 0, "tile zoom, for WGS84 projection")
	buildCmd.Flags().Int("x", 0, "tile x coordinate, for WGS84 projection")
	buildCmd.Flags().Int("y", 0, "tile y coordinate, for WGS84 projection")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := encodeconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	filePath, _ := cmd.Flags().GetString("file")
	outputPath, _ := cmd.Flags().GetString("output")
	z, _ := cmd.Flags().GetInt("z")
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")

	reader := geojsonsrc.NewReader(afero.NewOsFs(), "", os.Stdin)
	var src geojsonsrc.Source
	if filePath != "" {
		reader = geojsonsrc.NewDirReader(afero.NewOsFs(), "")
		src = geojsonsrc.Source{Name: cfg.Layer.Name, Path: filePath}
	} else {
		sources, err := reader.List()
		if err != nil {
			return fmt.Errorf("failed to read stdin source: %w", err)
		}
		src = sources[0]
	}

	if viper.GetBool("logging.verbose") {
		if filePath != "" {
			fmt.Fprintf(os.Stderr, "Reading GeoJSON from: %s\n", filePath)
		} else {
			fmt.Fprintln(os.Stderr, "Reading GeoJSON from stdin")
		}
	}

	result, err := reader.Read(src)
	if err != nil {
		return fmt.Errorf("failed to read GeoJSON: %w", err)
	}

	tb := mvt.NewTileBuilder()
	opts := mvt.EncodeOptions{
		LayerName: cfg.Layer.Name,
		Version:   cfg.Layer.Version,
		Extent:    cfg.Layer.Extent,
		Z:         z, X: x, Y: y,
	}
	if err := mvt.EncodeFeatureCollection(tb, result.Collection, opts); err != nil {
		fmt.Fprintf(os.Stderr, "warning: some features failed to encode: %v\n", err)
	}
	data := tb.Serialize()

	writer, err := mvtwrite.NewWriter(&mvtwrite.WriterConfig{Compression: cfg.Output.Compression}, outputPath, false)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer writer.Close()

	if err := writer.Write(&mvtwrite.BuiltTile{Name: src.Name, Data: data}); err != nil {
		return fmt.Errorf("failed to write tile: %w", err)
	}

	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "Built tile %s: %d bytes\n", src.Name, len(data))
	}
	return nil
}
