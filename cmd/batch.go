// cmd/batch.go - Batch tile build command
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/tile_to_json/internal/buildbatch"
	"github.com/valpere/tile_to_json/internal/encodeconfig"
	"github.com/valpere/tile_to_json/internal/geojsonsrc"
	"github.com/valpere/tile_to_json/internal/mvtwrite"
	"github.com/valpere/tile_to_json/pkg/mvt"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Build a Mapbox Vector Tile for every GeoJSON file in a directory",
	Long: `Batch-build every *.geojson file in a directory into its own Mapbox Vector
Tile, concurrently, writing one tile file per input under the output
directory.

Examples:
  # Build every tile under ./tiles, 16 at a time
  geojson-to-mvt batch --base-path ./tiles --output ./built --concurrency 16

  # Stop the whole run on the first failure
  geojson-to-mvt batch --base-path ./tiles --output ./built --fail-on-error`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("output", "o", "", "output directory for built tiles")
	batchCmd.Flags().Bool("fail-on-error", false, "abort the batch on the first build failure")
	batchCmd.Flags().Int("z", 0, "tile zoom, for WGS84 projection")
	batchCmd.Flags().Int("x", 0, "tile x coordinate, for WGS84 projection")
	batchCmd.Flags().Int("y", 0, "tile y coordinate, for WGS84 projection")

	batchCmd.MarkFlagRequired("output")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := encodeconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	outputDir, _ := cmd.Flags().GetString("output")
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")
	z, _ := cmd.Flags().GetInt("z")
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")

	if cfg.Source.BasePath == "" {
		return fmt.Errorf("--base-path is required for batch builds")
	}

	reader := geojsonsrc.NewDirReader(afero.NewOsFs(), cfg.Source.BasePath)
	writer, err := mvtwrite.NewMultiFileWriter(&mvtwrite.WriterConfig{Compression: cfg.Output.Compression}, outputDir)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer writer.Close()

	build := func(src geojsonsrc.Source) ([]byte, error) {
		result, err := reader.Read(src)
		if err != nil {
			return nil, err
		}
		tb := mvt.NewTileBuilder()
		opts := mvt.EncodeOptions{
			LayerName: cfg.Layer.Name,
			Version:   cfg.Layer.Version,
			Extent:    cfg.Layer.Extent,
			Z:         z, X: x, Y: y,
		}
		if err := mvt.EncodeFeatureCollection(tb, result.Collection, opts); err != nil {
			return nil, err
		}
		return tb.Serialize(), nil
	}

	batchCfg := &buildbatch.Config{
		Concurrency: cfg.Batch.Concurrency,
		Timeout:     cfg.Batch.Timeout,
		FailOnError: failOnError || cfg.Batch.FailOnError,
	}
	runner := buildbatch.NewRunner(reader, build, writer, batchCfg)

	if viper.GetBool("logging.verbose") {
		fmt.Fprintf(os.Stderr, "Building tiles from %s into %s\n", cfg.Source.BasePath, outputDir)
	}

	start := time.Now()
	summary, err := runner.Run(context.Background())
	if summary != nil {
		fmt.Fprintf(os.Stderr, "Built %d/%d tiles in %s (%.1f tiles/sec)\n",
			summary.Succeeded, summary.TotalSources, time.Since(start).Round(time.Millisecond), summary.Throughput())
	}
	if err != nil {
		return fmt.Errorf("batch build finished with errors: %w", err)
	}
	return nil
}
