package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wegman-software/osmshapes-go/internal/element"
)

const xmlSample = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="43.7384" lon="7.4246">
    <tag k="amenity" v="cafe"/>
  </node>
  <node id="2" lat="43.7390" lon="7.4250"/>
  <node id="3" lat="43.7395" lon="7.4260"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <nd ref="1"/>
    <tag k="building" v="yes"/>
  </way>
  <relation id="20">
    <member type="way" ref="10" role="outer"/>
    <tag k="type" v="multipolygon"/>
  </relation>
</osm>`

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"monaco-latest.osm.pbf", FormatPBF, false},
		{"/tmp/extract.PBF", FormatPBF, false},
		{"map.osm", FormatXML, false},
		{"map.xml", FormatXML, false},
		{"overpass.json", FormatOverpass, false},
		{"notes.txt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatOverpass, "OSM": FormatXML, "pbf": FormatPBF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gpx"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestReadXML(t *testing.T) {
	r := NewReader(1, nil)
	elems, stats, err := r.ReadXML(context.Background(), strings.NewReader(xmlSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Nodes != 3 || stats.Ways != 1 || stats.Relations != 1 {
		t.Errorf("stats = %+v", stats)
	}

	way := elems[3].(*element.Way)
	if len(way.NodeRefs) != 4 || way.Geometry != nil {
		t.Errorf("way = %+v", way)
	}

	rel := elems[4].(*element.Relation)
	if rel.Bounds.MinLat != 43.7384 || rel.Bounds.MaxLon != 7.4260 {
		t.Errorf("relation bounds should come from member nodes, got %+v", rel.Bounds)
	}
}

func TestReadFileOverpass(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	data := `{"elements":[{"type":"node","id":1,"lat":1,"lon":2,"tags":{"name":"x"}},{"type":"area","id":2}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	elems, stats, err := NewReader(0, nil).ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(elems) != 1 || stats.Nodes != 1 || stats.Skipped != 1 {
		t.Errorf("elems = %d, stats = %+v", len(elems), stats)
	}
	if stats.BytesRead != int64(len(data)) {
		t.Errorf("bytes read = %d, want %d", stats.BytesRead, len(data))
	}
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := NewReader(0, nil).ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.osm"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
