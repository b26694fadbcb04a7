package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wegman-software/osmshapes-go/internal/export"
	"github.com/wegman-software/osmshapes-go/internal/loader"
)

// Sink receives the output for one named input
type Sink interface {
	// Write stores out and returns where it went
	Write(ctx context.Context, name string, out *Output) (string, error)
}

// PathSink is a Sink that writes each input to a predictable path
type PathSink interface {
	Sink
	OutputPath(name string) string
}

// FileSink writes one export file per input into a directory
type FileSink struct {
	Dir    string
	Format export.Format
}

// OutputPath returns the file an input named name is written to
func (s *FileSink) OutputPath(name string) string {
	base := filepath.Base(name)
	for _, ext := range []string{".gz", ".pbf", ".osm", ".xml", ".json"} {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(s.Dir, base+s.Format.Extension())
}

func (s *FileSink) Write(_ context.Context, name string, out *Output) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := s.OutputPath(name)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}

	w := bufio.NewWriter(f)
	err = export.Write(w, s.Format, out.Result, out.View)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to rename output file: %w", err)
	}
	return path, nil
}

// LoaderSink copies every output into PostGIS
type LoaderSink struct {
	Loader *loader.Loader
}

func (s *LoaderSink) Write(ctx context.Context, name string, out *Output) (string, error) {
	if _, err := s.Loader.Load(ctx, out.Result, filepath.Base(name)); err != nil {
		return "", err
	}
	return "", nil
}
