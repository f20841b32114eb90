// internal/mvtwrite/writer.go - tile byte output
package mvtwrite

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileWriter writes every tile's bytes, concatenated, to one file with
// optional gzip compression.
type FileWriter struct {
	destination Destination
	config      *WriterConfig
}

// NewFileWriter creates a writer that appends tile bytes to destination.
func NewFileWriter(config *WriterConfig, destination string) (*FileWriter, error) {
	dest, err := newFileDestination(destination, config.Compression)
	if err != nil {
		return nil, fmt.Errorf("failed to create file destination: %w", err)
	}
	return &FileWriter{destination: dest, config: config}, nil
}

func (w *FileWriter) Write(tile *BuiltTile) error {
	if _, err := w.destination.Write(tile.Data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func (w *FileWriter) WriteBatch(tiles []*BuiltTile) error {
	for _, t := range tiles {
		if err := w.Write(t); err != nil {
			return fmt.Errorf("failed to write tile %s: %w", t.Name, err)
		}
	}
	return nil
}

func (w *FileWriter) Close() error { return w.destination.Close() }

// StdoutWriter writes tile bytes to standard output.
type StdoutWriter struct{}

// NewStdoutWriter creates a writer over os.Stdout.
func NewStdoutWriter() *StdoutWriter { return &StdoutWriter{} }

func (w *StdoutWriter) Write(tile *BuiltTile) error {
	_, err := os.Stdout.Write(tile.Data)
	return err
}

func (w *StdoutWriter) WriteBatch(tiles []*BuiltTile) error {
	for _, t := range tiles {
		if err := w.Write(t); err != nil {
			return err
		}
	}
	return nil
}

func (w *StdoutWriter) Close() error { return nil }

// MultiFileWriter writes each tile to its own file under baseDir, named
// after the tile's logical name.
type MultiFileWriter struct {
	baseDir string
	config  *WriterConfig
}

// NewMultiFileWriter creates a writer that fans tiles out under baseDir.
func NewMultiFileWriter(config *WriterConfig, baseDir string) (*MultiFileWriter, error) {
	if err := validateBaseDir(baseDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &MultiFileWriter{baseDir: baseDir, config: config}, nil
}

func (w *MultiFileWriter) Write(tile *BuiltTile) error {
	ext := ".mvt"
	if w.config.Compression {
		ext += ".gz"
	}
	path := filepath.Join(w.baseDir, tile.Name+ext)

	dest, err := newFileDestination(path, w.config.Compression)
	if err != nil {
		return fmt.Errorf("failed to create file destination: %w", err)
	}
	defer dest.Close()

	if _, err := dest.Write(tile.Data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func (w *MultiFileWriter) WriteBatch(tiles []*BuiltTile) error {
	for _, t := range tiles {
		if err := w.Write(t); err != nil {
			return fmt.Errorf("failed to write tile %s: %w", t.Name, err)
		}
	}
	return nil
}

func (w *MultiFileWriter) Close() error { return nil }

// fileDestination implements Destination for file output, transparently
// gzip-wrapping the stream when compression is requested.
type fileDestination struct {
	file   *os.File
	writer io.WriteCloser
	name   string
	size   int64
}

func newFileDestination(path string, compression bool) (*fileDestination, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if compression && !strings.HasSuffix(path, ".gz") {
		path += ".gz"
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	var writer io.WriteCloser = file
	if compression {
		writer = gzip.NewWriter(file)
	}

	return &fileDestination{file: file, writer: writer, name: path}, nil
}

func (d *fileDestination) Write(p []byte) (n int, err error) {
	n, err = d.writer.Write(p)
	d.size += int64(n)
	return n, err
}

func (d *fileDestination) Close() error {
	if d.writer != d.file {
		if err := d.writer.Close(); err != nil {
			d.file.Close()
			return err
		}
	}
	return d.file.Close()
}

func (d *fileDestination) Name() string { return d.name }
func (d *fileDestination) Size() int64  { return d.size }

// NewWriter selects the appropriate Writer for a destination: stdout
// when destination is empty or "-", one file per tile under baseDir
// when multiFile is set, otherwise one concatenated file.
func NewWriter(config *WriterConfig, destination string, multiFile bool) (Writer, error) {
	if destination == "" || destination == "-" {
		return NewStdoutWriter(), nil
	}
	if multiFile {
		return NewMultiFileWriter(config, destination)
	}
	return NewFileWriter(config, destination)
}
