package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenter(t *testing.T) {
	c := Center([]Coord{{Lat: 1, Lon: 10}, {Lat: 3, Lon: 20}})
	assert.InDelta(t, 2.0, c.Lat, 1e-12)
	assert.InDelta(t, 15.0, c.Lon, 1e-12)

	// Empty input is the documented (0,0) default, not an error
	assert.Equal(t, Coord{}, Center(nil))
}

func TestSpan(t *testing.T) {
	latSpan, lonSpan := Span([]Coord{{Lat: 48.1, Lon: 11.5}, {Lat: 48.1002, Lon: 11.5003}, {Lat: 48.1001, Lon: 11.5001}})
	assert.InDelta(t, 0.0002, latSpan, 1e-9)
	assert.InDelta(t, 0.0003, lonSpan, 1e-9)

	latSpan, lonSpan = Span(nil)
	assert.Zero(t, latSpan)
	assert.Zero(t, lonSpan)
}

func TestReversed(t *testing.T) {
	in := []Coord{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}}
	out := Reversed(in)
	assert.Equal(t, []Coord{{Lat: 3, Lon: 3}, {Lat: 2, Lon: 2}, {Lat: 1, Lon: 1}}, out)
	// Input is left untouched
	assert.Equal(t, Coord{Lat: 1, Lon: 1}, in[0])
}

func TestRingClosesOpenInput(t *testing.T) {
	ring := Ring([]Coord{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}})
	require.Len(t, ring, 4)
	assert.Equal(t, ring[0], ring[3])

	closed := Ring([]Coord{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 0}})
	assert.Len(t, closed, 3)
}

func TestNewBBoxFromCoords(t *testing.T) {
	_, ok := NewBBoxFromCoords(nil)
	assert.False(t, ok, "empty input has no bounds")

	bbox, ok := NewBBoxFromCoords([]Coord{{Lat: 43.73, Lon: 7.42}, {Lat: 43.75, Lon: 7.41}})
	require.True(t, ok)
	assert.Equal(t, BBox{MinLon: 7.41, MinLat: 43.73, MaxLon: 7.42, MaxLat: 43.75}, bbox)
	assert.True(t, bbox.Contains(Coord{Lat: 43.74, Lon: 7.415}))
	assert.False(t, bbox.Contains(Coord{Lat: 43.76, Lon: 7.415}))
}

func TestBBoxRing(t *testing.T) {
	bbox := BBox{MinLon: 1, MinLat: 2, MaxLon: 3, MaxLat: 4}
	ring := bbox.Ring()
	require.Len(t, ring, 5)
	assert.True(t, ring[0].Equal(ring[4]))

	got, ok := NewBBoxFromCoords(ring)
	require.True(t, ok)
	assert.Equal(t, bbox, got)
}

func TestParseBBox(t *testing.T) {
	bbox, err := ParseBBox("7.409, 43.724, 7.440, 43.752")
	require.NoError(t, err)
	assert.Equal(t, 7.409, bbox.MinLon)
	assert.Equal(t, 43.752, bbox.MaxLat)
	assert.Equal(t, "43.7240000,7.4090000,43.7520000,7.4400000", bbox.OverpassString())

	_, err = ParseBBox("1,2,3")
	assert.Error(t, err)

	_, err = ParseBBox("3,2,1,4")
	assert.Error(t, err, "minlon greater than maxlon")

	_, err = ParseBBox("a,2,3,4")
	assert.Error(t, err)
}

func TestLatLonToTile(t *testing.T) {
	tests := []struct {
		name         string
		coord        Coord
		zoom         int
		wantX, wantY int
	}{
		{"London at zoom 10", Coord{Lat: 51.5074, Lon: -0.1278}, 10, 511, 340},
		{"Monaco at zoom 12", Coord{Lat: 43.7384, Lon: 7.4246}, 12, 2132, 1493},
		{"Origin at zoom 0", Coord{}, 0, 0, 0},
		{"Origin at zoom 1", Coord{}, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := LatLonToTile(tt.coord, tt.zoom)
			assert.Equal(t, tt.wantX, tile.X)
			assert.Equal(t, tt.wantY, tile.Y)
		})
	}
}

func TestFitZoom(t *testing.T) {
	bbox := BBox{MinLon: 0, MinLat: 0, MaxLon: 0.01, MaxLat: 0.01}
	assert.Equal(t, 16, FitZoom(bbox, 800, 600, MaxZoom))

	point := BBox{MinLon: 7.42, MinLat: 43.73, MaxLon: 7.42, MaxLat: 43.73}
	assert.Equal(t, MaxZoom, FitZoom(point, 800, 600, 0))

	world := BBox{MinLon: -180, MinLat: -85, MaxLon: 180, MaxLat: 85}
	assert.Equal(t, 1, FitZoom(world, 600, 600, MaxZoom))
}

func TestFrame(t *testing.T) {
	view := Frame(Coord{Lat: 1, Lon: 2}, BBox{}, false, 800, 600)
	assert.Equal(t, DefaultZoom, view.Zoom)
	assert.Equal(t, Coord{Lat: 1, Lon: 2}, view.Center)

	bbox := BBox{MinLon: 7.409, MinLat: 43.724, MaxLon: 7.440, MaxLat: 43.752}
	view = Frame(Coord{Lat: 43.738, Lon: 7.4245}, bbox, true, 800, 600)
	require.NotNil(t, view.Tiles)
	assert.Equal(t, view.Zoom, view.Tiles.Z)
	assert.GreaterOrEqual(t, view.Tiles.TileCount(), 1)
	assert.LessOrEqual(t, view.Tiles.MinX, view.Tiles.MaxX)
	assert.LessOrEqual(t, view.Tiles.MinY, view.Tiles.MaxY)

	assert.Nil(t, Frame(Coord{}, BBox{}, false, 800, 600).Tiles)
}
