package style

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/osm"

	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/shape"
)

const sampleStyle = `
markers:
  include:
    amenity: [cafe, restaurant]
paths:
  exclude:
    highway: [service]
areas:
  require_any: [building, landuse]
drop_metadata_only: true
strip_keys: [source]
`

func TestFilterMatch(t *testing.T) {
	f := NewFilter(&FilterConfig{
		Include:    map[string][]string{"amenity": {"cafe"}, "shop": nil},
		Exclude:    map[string][]string{"access": {"private"}},
		RequireAny: []string{"name"},
	})

	tests := []struct {
		name string
		tags map[string]string
		want bool
	}{
		{"included value", map[string]string{"amenity": "cafe", "name": "A"}, true},
		{"any value of included key", map[string]string{"shop": "bakery", "name": "B"}, true},
		{"other value", map[string]string{"amenity": "bank", "name": "C"}, false},
		{"missing required", map[string]string{"amenity": "cafe"}, false},
		{"excluded", map[string]string{"amenity": "cafe", "name": "D", "access": "private"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Match(tt.tags); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}

	if NewFilter(nil).HasFilter() {
		t.Error("nil config should not filter")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	if err := os.WriteFile(path, []byte(sampleStyle), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Markers.Include["amenity"]) != 2 || !cfg.DropMetadataOnly || cfg.StripKeys[0] != "source" {
		t.Errorf("config = %+v", cfg)
	}

	if _, err := ParseConfig([]byte("markers: [")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestHasMeaningfulTags(t *testing.T) {
	if HasMeaningfulTags(osm.Tags{{Key: "created_by", Value: "JOSM"}}) {
		t.Error("metadata only tags are not meaningful")
	}
	if !HasMeaningfulTags(osm.Tags{{Key: "source", Value: "survey"}, {Key: "name", Value: "X"}}) {
		t.Error("name is meaningful")
	}
}

func TestStylerApply(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleStyle))
	if err != nil {
		t.Fatal(err)
	}

	res := &shape.Result{
		Markers: []shape.Marker{
			{Lat: 1, Lon: 1, Tags: osm.Tags{{Key: "amenity", Value: "cafe"}, {Key: "source", Value: "survey"}}},
			{Lat: 2, Lon: 2, Tags: osm.Tags{{Key: "amenity", Value: "bank"}}},
			{Lat: 3, Lon: 3, Tags: osm.Tags{{Key: "created_by", Value: "JOSM"}}},
		},
		Polygons: []shape.Polygon{
			{Coords: []geom.Coord{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}, Tags: osm.Tags{{Key: "highway", Value: "service"}}},
			{Coords: []geom.Coord{{Lat: 5, Lon: 5}, {Lat: 5, Lon: 6}}, Tags: osm.Tags{{Key: "highway", Value: "footway"}}},
			{Coords: []geom.Coord{{Lat: 9, Lon: 9}, {Lat: 9, Lon: 9.1}, {Lat: 9, Lon: 9}}, Closed: true, Tags: osm.Tags{{Key: "natural", Value: "water"}}},
			{Coords: []geom.Coord{{Lat: 7, Lon: 7}, {Lat: 7, Lon: 7.1}, {Lat: 7, Lon: 7}}, Closed: true, Tags: osm.Tags{{Key: "building", Value: "yes"}}},
		},
	}

	out, stats := NewStyler(cfg).Apply(res)

	if len(out.Markers) != 1 || len(out.Polygons) != 2 {
		t.Fatalf("kept %d markers and %d polygons", len(out.Markers), len(out.Polygons))
	}
	if stats.Markers != 2 || stats.Paths != 1 || stats.Areas != 1 || stats.Total() != 4 {
		t.Errorf("stats = %+v", stats)
	}
	if out.Markers[0].Tags.Find("source") != "" {
		t.Error("source should be stripped")
	}
	if res.Markers[0].Tags.Find("source") != "survey" {
		t.Error("input tags must not be modified")
	}

	want := geom.BBox{MinLon: 1, MinLat: 1, MaxLon: 7.1, MaxLat: 7}
	if !out.HasBounds || out.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", out.Bounds, want)
	}
}

func TestStylerNilKeepsEverything(t *testing.T) {
	res := &shape.Result{Markers: []shape.Marker{{Lat: 1, Lon: 1, Tags: osm.Tags{}}}}
	out, stats := NewStyler(nil).Apply(res)
	if len(out.Markers) != 1 || stats.Total() != 0 {
		t.Errorf("out = %+v stats = %+v", out, stats)
	}
}
