package shape

import "github.com/wegman-software/osmshapes-go/internal/geom"

// Clip keeps the markers inside b and the polygons with at least one
// coordinate inside b. Polygons are kept whole, never cut at the edge.
func Clip(res Result, b geom.BBox) Result {
	out := Result{}
	for _, m := range res.Markers {
		if b.Contains(m.Coord()) {
			out.Markers = append(out.Markers, m)
		}
	}
	for i := range res.Polygons {
		if touches(res.Polygons[i].Coords, b) {
			out.Polygons = append(out.Polygons, res.Polygons[i])
		}
	}
	out.Bounds, out.HasBounds = Bounds(out.Markers, out.Polygons)
	return out
}

func touches(coords []geom.Coord, b geom.BBox) bool {
	for _, c := range coords {
		if b.Contains(c) {
			return true
		}
	}
	return false
}
