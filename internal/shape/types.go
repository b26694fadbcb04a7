// Package shape turns raw OSM elements into renderable markers, areas and
// paths.
//
// The pipeline is pure and synchronous: Partition splits the input by kind,
// BuildMarkers and ResolveWay produce shapes, relation members are fused by
// Merge, and Classify flags degenerate rings. Builder runs the whole chain.
package shape

import (
	"github.com/paulmach/osm"

	"github.com/wegman-software/osmshapes-go/internal/geom"
)

// Member roles that take part in segment merging
const (
	RoleOuter = "outer"
	RoleInner = "inner"
)

// DefaultSmallExtent is the span in degrees below which a shape is very small
const DefaultSmallExtent = 0.0005

// Marker is a tagged point
type Marker struct {
	Lat  float64
	Lon  float64
	Tags osm.Tags
}

// Coord returns the marker position
func (m Marker) Coord() geom.Coord {
	return geom.Coord{Lat: m.Lat, Lon: m.Lon}
}

// Polygon is an assembled shape. Closed shapes render as filled areas, open
// ones as lines.
type Polygon struct {
	ID        *int64
	Coords    []geom.Coord
	Tags      osm.Tags
	Closed    bool
	Role      string
	VerySmall bool
}

// Center returns the centroid of the shape's coordinates
func (p *Polygon) Center() geom.Coord {
	return geom.Center(p.Coords)
}

// Start returns the first coordinate. Coords must not be empty.
func (p *Polygon) Start() geom.Coord {
	return p.Coords[0]
}

// End returns the last coordinate. Coords must not be empty.
func (p *Polygon) End() geom.Coord {
	return p.Coords[len(p.Coords)-1]
}

// Mergeable reports whether the shape takes part in segment merging
func (p *Polygon) Mergeable() bool {
	return p.Role == RoleOuter || p.Role == RoleInner
}

func (p Polygon) clone() Polygon {
	out := p
	out.Coords = make([]geom.Coord, len(p.Coords))
	copy(out.Coords, p.Coords)
	return out
}

// Result is the output of one Build call
type Result struct {
	Markers  []Marker
	Polygons []Polygon

	// Bounds covers every marker and polygon coordinate; only meaningful
	// when HasBounds is true
	Bounds    geom.BBox
	HasBounds bool
}

// Center returns the mean of all marker and polygon coordinates
func (r *Result) Center() geom.Coord {
	return geom.Center(r.Coords())
}

// Coords returns every marker and polygon coordinate in output order
func (r *Result) Coords() []geom.Coord {
	n := len(r.Markers)
	for i := range r.Polygons {
		n += len(r.Polygons[i].Coords)
	}
	coords := make([]geom.Coord, 0, n)
	for _, m := range r.Markers {
		coords = append(coords, m.Coord())
	}
	for i := range r.Polygons {
		coords = append(coords, r.Polygons[i].Coords...)
	}
	return coords
}

// Counts returns the number of markers, closed areas and open paths
func (r *Result) Counts() (markers, areas, paths int) {
	for i := range r.Polygons {
		if r.Polygons[i].Closed {
			areas++
		} else {
			paths++
		}
	}
	return len(r.Markers), areas, paths
}
