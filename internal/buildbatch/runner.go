// internal/buildbatch/runner.go - bounded concurrent tile building
package buildbatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/valpere/tile_to_json/internal/geojsonsrc"
	"github.com/valpere/tile_to_json/internal/mvtwrite"
)

// BuildFunc turns one GeoJSON source into tile bytes. Supplied by the
// caller so this package stays independent of pkg/mvt's exact API.
type BuildFunc func(src geojsonsrc.Source) ([]byte, error)

// Runner builds every source a Reader lists into a tile, writing
// results through a mvtwrite.Writer with bounded concurrency.
type Runner struct {
	reader geojsonsrc.Reader
	build  BuildFunc
	writer mvtwrite.Writer
	config *Config
}

// NewRunner creates a batch runner over reader, building each listed
// source with build and writing the result through writer.
func NewRunner(reader geojsonsrc.Reader, build BuildFunc, writer mvtwrite.Writer, config *Config) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Runner{reader: reader, build: build, writer: writer, config: config}
}

// Run builds every source the reader lists and writes the successful
// results. It returns a Summary plus the combined error of every
// failed source (nil if none failed). Set FailOnError to abort as soon
// as one source fails instead of running the whole batch to completion.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sources, err := r.reader.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	summary := &Summary{TotalSources: int64(len(sources)), StartTime: time.Now()}
	succeeded := atomic.NewInt64(0)
	failed := atomic.NewInt64(0)

	var mu sync.Mutex
	var tiles []*mvtwrite.BuiltTile
	var buildErr error

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	p := pool.New().WithMaxGoroutines(r.config.Concurrency).WithErrors().WithContext(ctx)
	if r.config.FailOnError {
		p = p.WithCancelOnError()
	}

	for _, src := range sources {
		src := src
		p.Go(func(ctx context.Context) error {
			if r.config.FailOnError && ctx.Err() != nil {
				return ctx.Err()
			}
			result := r.buildOne(src)
			if result.Error != nil {
				failed.Inc()
				mu.Lock()
				buildErr = multierr.Append(buildErr, fmt.Errorf("%s: %w", src.Name, result.Error))
				mu.Unlock()
				if r.config.FailOnError {
					return result.Error
				}
				return nil
			}
			succeeded.Inc()
			mu.Lock()
			tiles = append(tiles, &mvtwrite.BuiltTile{Name: src.Name, Data: result.Data, Duration: result.Duration})
			mu.Unlock()
			return nil
		})
	}

	waitErr := p.Wait()

	summary.EndTime = time.Now()
	summary.Succeeded = succeeded.Load()
	summary.Failed = failed.Load()

	if len(tiles) > 0 {
		if err := r.writer.WriteBatch(tiles); err != nil {
			buildErr = multierr.Append(buildErr, fmt.Errorf("failed to write batch: %w", err))
		}
	}

	if r.config.FailOnError && waitErr != nil {
		return summary, waitErr
	}
	return summary, buildErr
}

func (r *Runner) buildOne(src geojsonsrc.Source) *WorkResult {
	start := time.Now()
	data, err := r.build(src)
	return &WorkResult{Source: src, Data: data, Error: err, Duration: time.Since(start)}
}
