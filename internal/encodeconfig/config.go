// internal/encodeconfig/config.go - configuration management for the encoder
package encodeconfig

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/valpere/tile_to_json/internal"
)

// Config is the complete application configuration: where GeoJSON
// input comes from, how the resulting tiles are written out, how many
// tiles build concurrently, and how the run logs.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Output  OutputConfig  `mapstructure:"output"`
	Layer   LayerConfig   `mapstructure:"layer"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig describes where GeoJSON input is read from.
type SourceConfig struct {
	Type         string `mapstructure:"type"` // "dir" or "stdin"
	BasePath     string `mapstructure:"base_path"`
	PathTemplate string `mapstructure:"path_template"`
	AutoDetect   bool   `mapstructure:"auto_detect"`
}

// OutputConfig describes where and how encoded tiles are written.
type OutputConfig struct {
	Directory   string `mapstructure:"directory"`
	Filename    string `mapstructure:"filename"`
	Compression bool   `mapstructure:"compression"`
	Stdout      bool   `mapstructure:"stdout"`
}

// LayerConfig controls the single layer's encoding parameters when
// building a tile from one GeoJSON feature collection.
type LayerConfig struct {
	Name    string `mapstructure:"name"`
	Version uint32 `mapstructure:"version"`
	Extent  uint32 `mapstructure:"extent"`
}

// BatchConfig controls concurrent tile building across a directory of
// GeoJSON inputs.
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	FailOnError bool          `mapstructure:"fail_on_error"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Verbose  bool   `mapstructure:"verbose"`
	Progress bool   `mapstructure:"progress"`
}

// Load loads configuration from viper-bound flags/env/config file.
func Load() (*Config, error) {
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("source.type", "dir")
	viper.SetDefault("source.path_template", "{base_path}/{name}.geojson")
	viper.SetDefault("source.auto_detect", true)

	viper.SetDefault("output.compression", false)
	viper.SetDefault("output.stdout", false)

	viper.SetDefault("layer.name", "default")
	viper.SetDefault("layer.version", uint32(2))
	viper.SetDefault("layer.extent", uint32(4096))

	viper.SetDefault("batch.concurrency", 10)
	viper.SetDefault("batch.timeout", 5*time.Minute)
	viper.SetDefault("batch.fail_on_error", false)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stderr")
	viper.SetDefault("logging.verbose", false)
	viper.SetDefault("logging.progress", true)
}

// ToApplicationConfig converts Config to the shared internal.ApplicationConfig.
func (c *Config) ToApplicationConfig() *internal.ApplicationConfig {
	sourceType := internal.SourceTypeDir
	if c.Source.Type == "stdin" {
		sourceType = internal.SourceTypeStdin
	}
	return &internal.ApplicationConfig{
		LogLevel:       c.Logging.Level,
		MaxConcurrency: c.Batch.Concurrency,
		SourceType:     sourceType,
	}
}

// DetermineSourceType resolves the effective input source, honoring
// auto-detection when the type isn't pinned explicitly.
func (c *Config) DetermineSourceType() internal.SourceType {
	if !c.Source.AutoDetect {
		if c.Source.Type == "stdin" {
			return internal.SourceTypeStdin
		}
		return internal.SourceTypeDir
	}
	if c.Source.BasePath != "" {
		return internal.SourceTypeDir
	}
	return internal.SourceTypeStdin
}
