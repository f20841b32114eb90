// cmd/root.go - Root command implementation
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "geojson-to-mvt",
	Short: "Encode GeoJSON feature collections into Mapbox Vector Tiles",
	Long: `geojson-to-mvt builds Mapbox Vector Tiles (Protocol Buffer format) from
GeoJSON feature collections. It supports building a single tile from one
collection, batch-building a directory of collections concurrently, and a
roundtrip mode that re-encodes an existing tile's layers verbatim.

Input Sources:
- A directory of *.geojson files, one per tile
- Standard input, for a single collection

Features:
- Single-tile and directory batch building
- Selectable tile schema version (1, 2, or 3) and extent
- Concurrent batch builds with bounded goroutine pools
- Optional gzip compression on written tiles

Examples:
  # Build a single tile from stdin
  geojson-to-mvt build --layer roads --version 2 < roads.geojson > roads.mvt

  # Build a single tile from a file
  geojson-to-mvt build --file roads.geojson --output roads.mvt

  # Batch-build every *.geojson file in a directory
  geojson-to-mvt batch --base-path ./tiles --output ./built --concurrency 16

  # Re-encode a tile's layers through the existing-layer path
  geojson-to-mvt roundtrip --file roads.mvt

  # Use a configuration file
  geojson-to-mvt build --config config.yaml --file roads.geojson`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.geojson-to-mvt.yaml)")

	// Source configuration flags
	rootCmd.PersistentFlags().String("source-type", "", "input source type (dir, stdin)")
	rootCmd.PersistentFlags().String("base-path", "", "base path for a directory of GeoJSON files")

	// Layer configuration flags
	rootCmd.PersistentFlags().String("layer", "", "layer name")
	rootCmd.PersistentFlags().Uint32("version", 0, "tile schema version (1, 2, or 3)")
	rootCmd.PersistentFlags().Uint32("extent", 0, "layer extent")

	// Output flags
	rootCmd.PersistentFlags().Bool("compression", false, "gzip-compress written tiles")

	// Processing flags
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")
	rootCmd.PersistentFlags().Int("concurrency", 0, "number of concurrent builds")

	// Bind flags to viper
	viper.BindPFlag("source.type", rootCmd.PersistentFlags().Lookup("source-type"))
	viper.BindPFlag("source.base_path", rootCmd.PersistentFlags().Lookup("base-path"))
	viper.BindPFlag("layer.name", rootCmd.PersistentFlags().Lookup("layer"))
	viper.BindPFlag("layer.version", rootCmd.PersistentFlags().Lookup("version"))
	viper.BindPFlag("layer.extent", rootCmd.PersistentFlags().Lookup("extent"))
	viper.BindPFlag("output.compression", rootCmd.PersistentFlags().Lookup("compression"))
	viper.BindPFlag("logging.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("batch.concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".geojson-to-mvt")
	}

	viper.SetEnvPrefix("GEOJSON_TO_MVT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("logging.verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
