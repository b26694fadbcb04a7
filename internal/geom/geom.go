package geom

import "github.com/paulmach/orb"

// Coord is a WGS84 latitude/longitude pair
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Equal reports exact equality on both axes.
// Endpoints are compared without tolerance: adjacent segments from the same
// source share bit-identical coordinates.
func (c Coord) Equal(other Coord) bool {
	return c.Lat == other.Lat && c.Lon == other.Lon
}

// Point converts the coordinate to an orb point (X=lon, Y=lat)
func (c Coord) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Center returns the arithmetic mean of latitude and longitude.
// An empty input yields (0,0).
func Center(coords []Coord) Coord {
	if len(coords) == 0 {
		return Coord{}
	}

	var sumLat, sumLon float64
	for _, c := range coords {
		sumLat += c.Lat
		sumLon += c.Lon
	}

	n := float64(len(coords))
	return Coord{Lat: sumLat / n, Lon: sumLon / n}
}

// Span returns max-min of latitude and of longitude independently.
// An empty input has zero span.
func Span(coords []Coord) (latSpan, lonSpan float64) {
	bbox, ok := NewBBoxFromCoords(coords)
	if !ok {
		return 0, 0
	}
	return bbox.Span()
}

// Reversed returns a reversed copy of coords
func Reversed(coords []Coord) []Coord {
	out := make([]Coord, len(coords))
	for i, c := range coords {
		out[len(coords)-1-i] = c
	}
	return out
}

// LineString converts coordinates to an orb line string
func LineString(coords []Coord) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = c.Point()
	}
	return ls
}

// Ring converts coordinates to an orb ring, closing it if needed
func Ring(coords []Coord) orb.Ring {
	ring := make(orb.Ring, 0, len(coords)+1)
	for _, c := range coords {
		ring = append(ring, c.Point())
	}
	if len(coords) > 0 && !coords[0].Equal(coords[len(coords)-1]) {
		ring = append(ring, coords[0].Point())
	}
	return ring
}
