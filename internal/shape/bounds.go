package shape

import "github.com/wegman-software/osmshapes-go/internal/geom"

// Bounds returns the smallest box covering every marker and polygon
// coordinate. ok is false when there is nothing to cover.
func Bounds(markers []Marker, polys []Polygon) (bbox geom.BBox, ok bool) {
	add := func(c geom.Coord) {
		if !ok {
			bbox = geom.NewBBoxFromCoord(c)
			ok = true
			return
		}
		bbox.ExpandCoord(c)
	}

	for _, m := range markers {
		add(m.Coord())
	}
	for i := range polys {
		for _, c := range polys[i].Coords {
			add(c)
		}
	}
	return bbox, ok
}
