package style

import (
	"github.com/paulmach/osm"

	"github.com/wegman-software/osmshapes-go/internal/shape"
)

var metadataKeys = map[string]bool{
	"created_by": true,
	"source":     true,
	"note":       true,
	"fixme":      true,
	"FIXME":      true,
}

// HasMeaningfulTags reports whether tags carry more than editing metadata
func HasMeaningfulTags(tags osm.Tags) bool {
	for _, tag := range tags {
		if !metadataKeys[tag.Key] {
			return true
		}
	}
	return false
}

// Stats counts features removed by a Styler
type Stats struct {
	Markers int
	Paths   int
	Areas   int
}

// Total returns the number of removed features
func (s Stats) Total() int {
	return s.Markers + s.Paths + s.Areas
}

// Styler applies a Config to converted results
type Styler struct {
	cfg     *Config
	markers *Filter
	paths   *Filter
	areas   *Filter
	strip   map[string]bool
}

// NewStyler creates a styler; a nil config keeps everything
func NewStyler(cfg *Config) *Styler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	strip := make(map[string]bool, len(cfg.StripKeys))
	for _, k := range cfg.StripKeys {
		strip[k] = true
	}
	return &Styler{
		cfg:     cfg,
		markers: NewFilter(cfg.Markers),
		paths:   NewFilter(cfg.Paths),
		areas:   NewFilter(cfg.Areas),
		strip:   strip,
	}
}

// Apply returns a copy of res without the features the style rejects.
// Bounds are recomputed over what is left.
func (s *Styler) Apply(res *shape.Result) (*shape.Result, Stats) {
	var stats Stats
	out := &shape.Result{}

	for _, m := range res.Markers {
		if !s.keep(s.markers, m.Tags) {
			stats.Markers++
			continue
		}
		m.Tags = s.stripTags(m.Tags)
		out.Markers = append(out.Markers, m)
	}

	for _, p := range res.Polygons {
		f := s.paths
		if p.Closed {
			f = s.areas
		}
		if !s.keep(f, p.Tags) {
			if p.Closed {
				stats.Areas++
			} else {
				stats.Paths++
			}
			continue
		}
		p.Tags = s.stripTags(p.Tags)
		out.Polygons = append(out.Polygons, p)
	}

	out.Bounds, out.HasBounds = shape.Bounds(out.Markers, out.Polygons)
	return out, stats
}

func (s *Styler) keep(f *Filter, tags osm.Tags) bool {
	if s.cfg.DropMetadataOnly && tags != nil && !HasMeaningfulTags(tags) {
		return false
	}
	return f.MatchTags(tags)
}

func (s *Styler) stripTags(tags osm.Tags) osm.Tags {
	if len(s.strip) == 0 || tags == nil {
		return tags
	}
	out := make(osm.Tags, 0, len(tags))
	for _, t := range tags {
		if !s.strip[t.Key] {
			out = append(out, t)
		}
	}
	return out
}
