package export

import (
	"io"

	json "github.com/goccy/go-json"
	"github.com/twpayne/go-polyline"

	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/shape"
)

// PolylineShape is a shape with its coordinates in the encoded polyline
// algorithm format
type PolylineShape struct {
	ID        *int64            `json:"id,omitempty"`
	Kind      string            `json:"kind"`
	Role      string            `json:"role,omitempty"`
	Polyline  string            `json:"polyline"`
	Closed    bool              `json:"closed"`
	VerySmall bool              `json:"very_small,omitempty"`
	Centroid  *[2]float64       `json:"centroid,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// PolylineMarker is a marker in the polyline document
type PolylineMarker struct {
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags,omitempty"`
}

// PolylineDocument is the polyline output format
type PolylineDocument struct {
	Markers []PolylineMarker `json:"markers"`
	Shapes  []PolylineShape  `json:"shapes"`
	Bounds  *geom.BBox       `json:"bounds,omitempty"`
	View    *geom.View       `json:"view,omitempty"`
}

// EncodePolyline encodes coords with the polyline algorithm at 1e-5
// precision
func EncodePolyline(coords []geom.Coord) string {
	pts := make([][]float64, len(coords))
	for i, c := range coords {
		pts[i] = []float64{c.Lat, c.Lon}
	}
	return string(polyline.EncodeCoords(pts))
}

// Polylines builds the polyline document for res
func Polylines(res *shape.Result, view geom.View) PolylineDocument {
	doc := PolylineDocument{
		Markers: make([]PolylineMarker, 0, len(res.Markers)),
		Shapes:  make([]PolylineShape, 0, len(res.Polygons)),
	}

	for _, m := range res.Markers {
		doc.Markers = append(doc.Markers, PolylineMarker{Lat: m.Lat, Lon: m.Lon, Tags: m.Tags.Map()})
	}

	for i := range res.Polygons {
		p := &res.Polygons[i]
		coords := p.Coords
		if p.Closed && !coords[0].Equal(coords[len(coords)-1]) {
			coords = append(coords[:len(coords):len(coords)], coords[0])
		}

		s := PolylineShape{
			ID:        p.ID,
			Kind:      kind(p),
			Role:      p.Role,
			Polyline:  EncodePolyline(coords),
			Closed:    p.Closed,
			VerySmall: p.VerySmall,
			Tags:      p.Tags.Map(),
		}
		if p.VerySmall {
			c := p.Center()
			s.Centroid = &[2]float64{c.Lat, c.Lon}
		}
		doc.Shapes = append(doc.Shapes, s)
	}

	if res.HasBounds {
		b := res.Bounds
		doc.Bounds = &b
		v := view
		doc.View = &v
	}
	return doc
}

// WritePolylines encodes res as a JSON polyline document
func WritePolylines(w io.Writer, res *shape.Result, view geom.View) error {
	return json.NewEncoder(w).Encode(Polylines(res, view))
}
