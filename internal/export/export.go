// Package export renders a shape result as GeoJSON, KML or encoded
// polylines.
//
// Every format follows the same mapping: markers become points, closed
// shapes become filled polygons, open shapes become lines, and very small
// shapes additionally get a point at their centroid so they stay visible.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/osm"

	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/shape"
)

// Format is an output encoding
type Format string

const (
	FormatGeoJSON  Format = "geojson"
	FormatKML      Format = "kml"
	FormatPolyline Format = "polyline"
)

// Formats lists every supported output format
var Formats = []Format{FormatGeoJSON, FormatKML, FormatPolyline}

// ParseFormat validates a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatGeoJSON, "json":
		return FormatGeoJSON, nil
	case FormatKML:
		return FormatKML, nil
	case FormatPolyline, "polylines":
		return FormatPolyline, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want one of %v)", s, Formats)
	}
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatKML:
		return ".kml"
	case FormatPolyline:
		return ".polyline.json"
	default:
		return ".geojson"
	}
}

// ContentType returns the HTTP media type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatKML:
		return "application/vnd.google-earth.kml+xml"
	case FormatPolyline:
		return "application/json"
	default:
		return "application/geo+json"
	}
}

// Write encodes res to w. view frames the result for formats that carry a
// view hint.
func Write(w io.Writer, format Format, res *shape.Result, view geom.View) error {
	switch format {
	case FormatGeoJSON:
		return WriteGeoJSON(w, res, view)
	case FormatKML:
		return WriteKML(w, res)
	case FormatPolyline:
		return WritePolylines(w, res, view)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// label picks a human readable name for a feature
func label(tags osm.Tags) string {
	for _, k := range []string{"name", "ref", "brand", "operator"} {
		if v := tags.Find(k); v != "" {
			return v
		}
	}
	for _, t := range tags {
		if t.Key != "type" {
			return t.Key + "=" + t.Value
		}
	}
	return ""
}

// kind names the rendering of a shape
func kind(p *shape.Polygon) string {
	if p.Closed {
		return "area"
	}
	return "path"
}
