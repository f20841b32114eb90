// internal/geojsonsrc/reader.go - GeoJSON input reading
//
// A small interface plus directory- and stdin-backed implementations,
// selected by configuration, reading the GeoJSON feature collections
// that become tiles -- the input-side counterpart of a tile fetcher,
// but reading source data to encode rather than already-encoded tiles.
package geojsonsrc

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/afero"

	"github.com/valpere/tile_to_json/internal"
)

// Source identifies one GeoJSON input to build into a tile.
type Source struct {
	Name string // logical tile/layer name, used to derive output paths
	Path string // filesystem path, empty for stdin
}

// Result is a successfully parsed GeoJSON input.
type Result struct {
	Source     Source
	Collection *geojson.FeatureCollection
	ReadTime   time.Duration
}

// Reader reads GeoJSON input. Implementations: DirReader (a directory
// of .geojson files, one per tile) and StdinReader (a single
// collection read from standard input).
type Reader interface {
	List() ([]Source, error)
	Read(src Source) (*Result, error)
}

// DirReader walks a base directory (via afero, so it can be swapped
// for an in-memory filesystem in tests) collecting *.geojson files.
type DirReader struct {
	fs       afero.Fs
	basePath string
}

// NewDirReader creates a directory-backed reader rooted at basePath.
func NewDirReader(fs afero.Fs, basePath string) *DirReader {
	return &DirReader{fs: fs, basePath: basePath}
}

// List enumerates every *.geojson file under the base path.
func (r *DirReader) List() ([]Source, error) {
	var sources []Source
	err := afero.Walk(r.fs, r.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".geojson") {
			return nil
		}
		sources = append(sources, Source{Name: nameFromPath(path), Path: path})
		return nil
	})
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem, fmt.Sprintf("cannot scan %s", r.basePath), err)
	}
	return sources, nil
}

// Read parses one GeoJSON file into a feature collection.
func (r *DirReader) Read(src Source) (*Result, error) {
	start := time.Now()
	data, err := afero.ReadFile(r.fs, src.Path)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem, fmt.Sprintf("cannot read %s", src.Path), err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("invalid geojson in %s", src.Path), err)
	}
	return &Result{Source: src, Collection: fc, ReadTime: time.Since(start)}, nil
}

// StdinReader reads a single feature collection from an io.Reader,
// used for the "build" subcommand's non-batch, single-tile mode.
type StdinReader struct {
	In   io.Reader
	Name string
}

func (r *StdinReader) List() ([]Source, error) {
	return []Source{{Name: r.Name}}, nil
}

func (r *StdinReader) Read(src Source) (*Result, error) {
	start := time.Now()
	data, err := io.ReadAll(r.In)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem, "failed to read stdin", err)
	}
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, internal.NewError(internal.ErrorCodeValidation, "stdin is not valid JSON", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeValidation, "invalid geojson on stdin", err)
	}
	return &Result{Source: src, Collection: fc, ReadTime: time.Since(start)}, nil
}

// NewReader selects a Reader based on configuration: a base path
// picks a DirReader, otherwise input is read from stdin.
func NewReader(fs afero.Fs, basePath string, stdin io.Reader) Reader {
	if basePath != "" {
		return NewDirReader(fs, basePath)
	}
	return &StdinReader{In: stdin, Name: "stdin"}
}

// nameFromPath derives a layer/tile name from a .geojson file path.
func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
