package export

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/shape"
)

func sampleResult() *shape.Result {
	id := int64(42)
	res := &shape.Result{
		Markers: []shape.Marker{
			{Lat: 43.7384, Lon: 7.4246, Tags: osm.Tags{{Key: "amenity", Value: "cafe"}, {Key: "name", Value: "Café de Paris"}}},
		},
		Polygons: []shape.Polygon{
			{
				ID:     &id,
				Coords: []geom.Coord{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 0}},
				Tags:   osm.Tags{{Key: "building", Value: "yes"}},
				Closed: true,
			},
			{
				Coords: []geom.Coord{{Lat: 2, Lon: 2}, {Lat: 2, Lon: 3}},
				Tags:   osm.Tags{{Key: "highway", Value: "footway"}},
			},
			{
				Coords:    []geom.Coord{{Lat: 10, Lon: 10}, {Lat: 10, Lon: 10.0001}, {Lat: 10.0001, Lon: 10.0001}},
				Closed:    true,
				Role:      shape.RoleOuter,
				VerySmall: true,
			},
		},
	}
	res.Bounds, res.HasBounds = shape.Bounds(res.Markers, res.Polygons)
	return res
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("GeoJSON")
	require.NoError(t, err)
	assert.Equal(t, FormatGeoJSON, f)

	f, err = ParseFormat("polylines")
	require.NoError(t, err)
	assert.Equal(t, FormatPolyline, f)

	_, err = ParseFormat("shp")
	assert.Error(t, err)

	assert.Equal(t, ".kml", FormatKML.Extension())
	assert.Equal(t, "application/geo+json", FormatGeoJSON.ContentType())
}

func TestGeoJSON(t *testing.T) {
	res := sampleResult()
	view := geom.View{Center: res.Center(), Zoom: 5}

	fc := GeoJSON(res, view)

	// marker, area, path, small area + its centroid
	require.Len(t, fc.Features, 5)

	marker := fc.Features[0]
	assert.Equal(t, orb.Point{7.4246, 43.7384}, marker.Geometry)
	assert.Equal(t, "marker", marker.Properties["@kind"])
	assert.Equal(t, "cafe", marker.Properties["amenity"])

	area := fc.Features[1]
	poly, ok := area.Geometry.(orb.Polygon)
	require.True(t, ok, "closed shape should be a polygon, got %T", area.Geometry)
	assert.Len(t, poly[0], 4)
	assert.Equal(t, int64(42), area.Properties["@id"])

	path := fc.Features[2]
	_, ok = path.Geometry.(orb.LineString)
	assert.True(t, ok, "open shape should be a line string, got %T", path.Geometry)
	assert.Equal(t, "path", path.Properties["@kind"])

	small := fc.Features[3]
	smallRing := small.Geometry.(orb.Polygon)[0]
	assert.Len(t, smallRing, 4, "ring should be closed")
	assert.Equal(t, true, small.Properties["@very_small"])
	assert.Equal(t, "outer", small.Properties["@role"])

	centroid := fc.Features[4]
	_, ok = centroid.Geometry.(orb.Point)
	assert.True(t, ok)
	assert.Equal(t, "centroid", centroid.Properties["@kind"])

	require.NotNil(t, fc.BBox)
	assert.Equal(t, 5, fc.ExtraMembers["zoom"])
	assert.NotContains(t, fc.ExtraMembers, "tiles")

	tiles := &geom.TileRange{Z: 5, MinX: 16, MaxX: 17, MinY: 11, MaxY: 11}
	fc = GeoJSON(res, geom.View{Center: res.Center(), Zoom: 5, Tiles: tiles})
	assert.Equal(t, tiles, fc.ExtraMembers["tiles"])
}

func TestWriteGeoJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, &shape.Result{}, geom.View{}))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
	assert.NotContains(t, doc, "bbox")
}

func TestWriteKML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, sampleResult()))
	out := buf.String()

	assert.Equal(t, 5, strings.Count(out, "<Placemark>"))
	assert.Contains(t, out, "<Polygon>")
	assert.Contains(t, out, "<LineString>")
	assert.Contains(t, out, "<name>Café de Paris</name>")
	assert.Contains(t, out, "<name>building=yes</name>")
}

func TestEncodePolyline(t *testing.T) {
	// reference example from the encoded polyline algorithm documentation
	coords := []geom.Coord{{Lat: 38.5, Lon: -120.2}, {Lat: 40.7, Lon: -120.95}, {Lat: 43.252, Lon: -126.453}}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", EncodePolyline(coords))
}

func TestPolylines(t *testing.T) {
	res := sampleResult()
	doc := Polylines(res, geom.View{Zoom: 7})

	require.Len(t, doc.Markers, 1)
	require.Len(t, doc.Shapes, 3)
	assert.Equal(t, "area", doc.Shapes[0].Kind)
	assert.Equal(t, "path", doc.Shapes[1].Kind)
	assert.Nil(t, doc.Shapes[1].Centroid)
	require.NotNil(t, doc.Shapes[2].Centroid)
	require.NotNil(t, doc.View)
	assert.Equal(t, 7, doc.View.Zoom)

	// the open small ring is closed before encoding
	assert.Len(t, res.Polygons[2].Coords, 3, "input must not be modified")

	var buf bytes.Buffer
	require.NoError(t, WritePolylines(&buf, res, geom.View{}))
	assert.Contains(t, buf.String(), `"polyline"`)
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, Format("svg"), sampleResult(), geom.View{}))
}
