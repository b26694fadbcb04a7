// Package source reads raw elements from Overpass JSON, OSM XML and PBF files.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/element"
)

// Format is an input encoding
type Format string

const (
	FormatOverpass Format = "overpass"
	FormatXML      Format = "xml"
	FormatPBF      Format = "pbf"
)

// DetectFormat picks the format from a file extension
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".osm.pbf"), strings.HasSuffix(name, ".pbf"):
		return FormatPBF, nil
	case strings.HasSuffix(name, ".osm"), strings.HasSuffix(name, ".xml"):
		return FormatXML, nil
	case strings.HasSuffix(name, ".json"):
		return FormatOverpass, nil
	default:
		return "", fmt.Errorf("cannot detect input format of %q", path)
	}
}

// ParseFormat validates a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatOverpass, "json":
		return FormatOverpass, nil
	case FormatXML, "osm":
		return FormatXML, nil
	case FormatPBF:
		return FormatPBF, nil
	default:
		return "", fmt.Errorf("unknown input format %q", s)
	}
}

// Stats holds read statistics
type Stats struct {
	Nodes     int64
	Ways      int64
	Relations int64
	Skipped   int64
	BytesRead int64
}

// Elements returns the number of elements read
func (s Stats) Elements() int64 {
	return s.Nodes + s.Ways + s.Relations
}

// Reader reads elements from one input
type Reader struct {
	log   *zap.Logger
	procs int
}

// NewReader creates a reader. procs bounds PBF decoding goroutines; zero
// means one per CPU.
func NewReader(procs int, log *zap.Logger) *Reader {
	if procs <= 0 {
		procs = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{log: log, procs: procs}
}

// ReadFile opens path and decodes it in the format given by its extension
func (r *Reader) ReadFile(ctx context.Context, path string) ([]element.Element, Stats, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, Stats{}, err
	}
	return r.ReadFileAs(ctx, path, format)
}

// ReadFileAs opens path and decodes it as format
func (r *Reader) ReadFileAs(ctx context.Context, path string, format Format) ([]element.Element, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	elems, stats, err := r.Read(ctx, f, format)
	if info, statErr := f.Stat(); statErr == nil {
		stats.BytesRead = info.Size()
	}
	return elems, stats, err
}

// Read decodes src as format
func (r *Reader) Read(ctx context.Context, src io.Reader, format Format) ([]element.Element, Stats, error) {
	switch format {
	case FormatOverpass:
		return r.ReadOverpass(src)
	case FormatXML:
		return r.ReadXML(ctx, src)
	case FormatPBF:
		return r.ReadPBF(ctx, src)
	default:
		return nil, Stats{}, fmt.Errorf("unknown input format %q", format)
	}
}

// ReadOverpass decodes an Overpass [out:json] document
func (r *Reader) ReadOverpass(src io.Reader) ([]element.Element, Stats, error) {
	elems, ds, err := element.DecodeOverpass(src, r.log)
	if err != nil {
		return nil, Stats{}, err
	}
	stats := countElements(elems)
	stats.Skipped = int64(ds.Skipped)
	return elems, stats, nil
}

// ReadXML decodes an OSM XML document
func (r *Reader) ReadXML(ctx context.Context, src io.Reader) ([]element.Element, Stats, error) {
	scanner := osmxml.New(ctx, src)
	defer scanner.Close()
	return r.scan(ctx, scanner)
}

// ReadPBF decodes an OSM PBF file. Ways only carry node ids; locations are
// resolved later against the nodes read here.
func (r *Reader) ReadPBF(ctx context.Context, src io.Reader) ([]element.Element, Stats, error) {
	scanner := osmpbf.New(ctx, src, r.procs)
	defer scanner.Close()
	return r.scan(ctx, scanner)
}

// osmScanner is the subset of osmxml.Scanner and osmpbf.Scanner used here
type osmScanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
}

func (r *Reader) scan(ctx context.Context, scanner osmScanner) ([]element.Element, Stats, error) {
	var objs []osm.Object
	var count atomic.Int64

	progressCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go NewProgressTicker(progressCtx, 2*time.Second, func() {
		r.log.Debug("Read progress", zap.Int64("objects", count.Load()))
	}).Run()

	for scanner.Scan() {
		objs = append(objs, scanner.Object())
		count.Add(1)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, Stats{}, fmt.Errorf("failed to scan input: %w", err)
	}

	elems := element.FromObjects(objs, r.log)
	stats := countElements(elems)
	stats.Skipped = int64(len(objs)) - stats.Elements()
	if stats.Skipped < 0 {
		stats.Skipped = 0
	}
	return elems, stats, nil
}

func countElements(elems []element.Element) Stats {
	var s Stats
	for _, e := range elems {
		switch e.Kind() {
		case element.KindNode:
			s.Nodes++
		case element.KindWay:
			s.Ways++
		case element.KindRelation:
			s.Relations++
		}
	}
	return s
}
