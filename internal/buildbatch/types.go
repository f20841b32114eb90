// internal/buildbatch/types.go - batch build types
package buildbatch

import (
	"time"

	"github.com/valpere/tile_to_json/internal/geojsonsrc"
)

// Config controls a batch build run.
type Config struct {
	Concurrency int
	Timeout     time.Duration
	FailOnError bool
}

// DefaultConfig returns batch defaults matching encodeconfig's.
func DefaultConfig() *Config {
	return &Config{Concurrency: 10, Timeout: 5 * time.Minute, FailOnError: false}
}

// WorkResult is the outcome of building one source into a tile.
type WorkResult struct {
	Source   geojsonsrc.Source
	Data     []byte
	Error    error
	Duration time.Duration
}

// Summary aggregates a completed batch run.
type Summary struct {
	TotalSources int64
	Succeeded    int64
	Failed       int64
	StartTime    time.Time
	EndTime      time.Time
}

// Throughput returns sources built per second over the run's wall time.
func (s *Summary) Throughput() float64 {
	elapsed := s.EndTime.Sub(s.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Succeeded) / elapsed
}
