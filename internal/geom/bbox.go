package geom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// BBox represents a geographic bounding box
type BBox struct {
	MinLon float64 `json:"minlon"`
	MinLat float64 `json:"minlat"`
	MaxLon float64 `json:"maxlon"`
	MaxLat float64 `json:"maxlat"`
}

// NewBBoxFromCoord creates a zero-area bbox around a single coordinate
func NewBBoxFromCoord(c Coord) BBox {
	return BBox{
		MinLon: c.Lon,
		MaxLon: c.Lon,
		MinLat: c.Lat,
		MaxLat: c.Lat,
	}
}

// NewBBoxFromCoords returns the minimal bbox covering coords.
// The second result is false when coords is empty.
func NewBBoxFromCoords(coords []Coord) (BBox, bool) {
	if len(coords) == 0 {
		return BBox{}, false
	}

	bbox := NewBBoxFromCoord(coords[0])
	for _, c := range coords[1:] {
		bbox.ExpandCoord(c)
	}
	return bbox, true
}

// ParseBBox parses a bbox string in format "minlon,minlat,maxlon,maxlat"
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("bbox must have 4 values: minlon,minlat,maxlon,maxlat")
	}

	var coords [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("invalid bbox coordinate %q: %w", p, err)
		}
		coords[i] = v
	}

	bbox := BBox{MinLon: coords[0], MinLat: coords[1], MaxLon: coords[2], MaxLat: coords[3]}
	if !bbox.IsValid() {
		return BBox{}, fmt.Errorf("invalid bbox %s", s)
	}
	return bbox, nil
}

// IsValid checks if the bounding box is valid
func (b BBox) IsValid() bool {
	return b.MinLon <= b.MaxLon && b.MinLat <= b.MaxLat &&
		b.MinLon >= -180 && b.MaxLon <= 180 &&
		b.MinLat >= -90 && b.MaxLat <= 90
}

// Contains checks if a coordinate is within the bounding box
func (b BBox) Contains(c Coord) bool {
	return c.Lon >= b.MinLon && c.Lon <= b.MaxLon && c.Lat >= b.MinLat && c.Lat <= b.MaxLat
}

// ExpandCoord expands the bounding box to include a coordinate
func (b *BBox) ExpandCoord(c Coord) {
	if c.Lon < b.MinLon {
		b.MinLon = c.Lon
	}
	if c.Lon > b.MaxLon {
		b.MaxLon = c.Lon
	}
	if c.Lat < b.MinLat {
		b.MinLat = c.Lat
	}
	if c.Lat > b.MaxLat {
		b.MaxLat = c.Lat
	}
}

// Span returns the latitude and longitude extent
func (b BBox) Span() (latSpan, lonSpan float64) {
	return b.MaxLat - b.MinLat, b.MaxLon - b.MinLon
}

// Ring returns the box outline as a closed ring, counter-clockwise from the
// south-west corner
func (b BBox) Ring() []Coord {
	return []Coord{
		{Lat: b.MinLat, Lon: b.MinLon},
		{Lat: b.MinLat, Lon: b.MaxLon},
		{Lat: b.MaxLat, Lon: b.MaxLon},
		{Lat: b.MaxLat, Lon: b.MinLon},
		{Lat: b.MinLat, Lon: b.MinLon},
	}
}

// Bound converts the box to an orb bound
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// String returns the box in "minlon,minlat,maxlon,maxlat" form
func (b BBox) String() string {
	return fmt.Sprintf("%.7f,%.7f,%.7f,%.7f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// OverpassString returns the box in Overpass QL order "south,west,north,east"
func (b BBox) OverpassString() string {
	return fmt.Sprintf("%.7f,%.7f,%.7f,%.7f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}
