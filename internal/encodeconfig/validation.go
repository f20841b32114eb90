// internal/encodeconfig/validation.go - configuration validation
package encodeconfig

import (
	"fmt"
	"strings"
)

// Validate validates the configuration structure and values.
func Validate(cfg *Config) error {
	if err := validateSource(&cfg.Source); err != nil {
		return fmt.Errorf("source configuration invalid: %w", err)
	}
	if err := validateOutput(&cfg.Output); err != nil {
		return fmt.Errorf("output configuration invalid: %w", err)
	}
	if err := validateLayer(&cfg.Layer); err != nil {
		return fmt.Errorf("layer configuration invalid: %w", err)
	}
	if err := validateBatch(&cfg.Batch); err != nil {
		return fmt.Errorf("batch configuration invalid: %w", err)
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging configuration invalid: %w", err)
	}
	return nil
}

func validateSource(cfg *SourceConfig) error {
	validTypes := []string{"dir", "stdin"}
	if !contains(validTypes, cfg.Type) {
		return fmt.Errorf("invalid source type: %s, must be one of %v", cfg.Type, validTypes)
	}
	if cfg.Type == "dir" && cfg.BasePath == "" {
		return fmt.Errorf("base_path is required for the dir source type")
	}
	return nil
}

func validateOutput(cfg *OutputConfig) error {
	if !cfg.Stdout && cfg.Directory == "" {
		return fmt.Errorf("directory is required when not using stdout")
	}
	return nil
}

func validateLayer(cfg *LayerConfig) error {
	if cfg.Version < 1 || cfg.Version > 3 {
		return fmt.Errorf("layer version must be 1, 2, or 3, got %d", cfg.Version)
	}
	if cfg.Extent == 0 {
		return fmt.Errorf("layer extent must be positive")
	}
	if cfg.Name == "" {
		return fmt.Errorf("layer name cannot be empty")
	}
	return nil
}

func validateBatch(cfg *BatchConfig) error {
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if cfg.Concurrency > 1000 {
		return fmt.Errorf("concurrency must not exceed 1000")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	if !contains(validLevels, cfg.Level) {
		return fmt.Errorf("invalid log level: %s, must be one of %v", cfg.Level, validLevels)
	}
	validFormats := []string{"text", "json"}
	if !contains(validFormats, cfg.Format) {
		return fmt.Errorf("invalid log format: %s, must be one of %v", cfg.Format, validFormats)
	}
	validOutputs := []string{"stdout", "stderr", "file"}
	if !contains(validOutputs, cfg.Output) {
		return fmt.Errorf("invalid log output: %s, must be one of %v", cfg.Output, validOutputs)
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
