package shape

import (
	"github.com/wegman-software/osmshapes-go/internal/element"
	"github.com/wegman-software/osmshapes-go/internal/geom"
)

// Buckets holds the elements of one input split by kind
type Buckets struct {
	Nodes     []*element.Node
	Ways      []*element.Way
	Relations []*element.Relation
}

// Partition splits elems by kind, preserving relative order. Nil entries are
// skipped; nothing else is dropped.
func Partition(elems []element.Element) Buckets {
	var b Buckets
	for _, e := range elems {
		switch v := e.(type) {
		case *element.Node:
			if v != nil {
				b.Nodes = append(b.Nodes, v)
			}
		case *element.Way:
			if v != nil {
				b.Ways = append(b.Ways, v)
			}
		case *element.Relation:
			if v != nil {
				b.Relations = append(b.Relations, v)
			}
		}
	}
	return b
}

// IsVerySmall reports whether both the latitude and longitude spans of
// coords are below extent
func IsVerySmall(coords []geom.Coord, extent float64) bool {
	if len(coords) == 0 {
		return false
	}
	latSpan, lonSpan := geom.Span(coords)
	return latSpan < extent && lonSpan < extent
}

// Classify sets VerySmall on every shape using the given extent. A
// non-positive extent falls back to DefaultSmallExtent.
func Classify(polys []Polygon, extent float64) {
	if extent <= 0 {
		extent = DefaultSmallExtent
	}
	for i := range polys {
		polys[i].VerySmall = IsVerySmall(polys[i].Coords, extent)
	}
}
