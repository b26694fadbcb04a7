package loader

import (
	"github.com/wegman-software/osmshapes-go/internal/shape"
	"github.com/wegman-software/osmshapes-go/internal/wkb"
)

// BuildRows converts res into COPY rows keyed by table kind. Very small
// areas also get a marker row at their centroid.
func BuildRows(res *shape.Result, source string) map[string][][]any {
	rows := make(map[string][][]any, len(kinds))
	encoder := wkb.NewEncoder(1024)

	for _, m := range res.Markers {
		geom := copyBytes(encoder.EncodePoint(m.Coord()))
		rows[KindMarkers] = append(rows[KindMarkers], []any{nil, nil, false, source, m.Tags.Map(), geom})
	}

	for i := range res.Polygons {
		p := &res.Polygons[i]

		var id any
		if p.ID != nil {
			id = *p.ID
		}
		var role any
		if p.Role != "" {
			role = p.Role
		}
		tags := p.Tags.Map()

		if p.Closed {
			geom := copyBytes(encoder.EncodePolygon(p.Coords))
			rows[KindAreas] = append(rows[KindAreas], []any{id, role, p.VerySmall, source, tags, geom})
		} else {
			geom := copyBytes(encoder.EncodeLineString(p.Coords))
			rows[KindPaths] = append(rows[KindPaths], []any{id, role, p.VerySmall, source, tags, geom})
		}

		if p.VerySmall {
			geom := copyBytes(encoder.EncodePoint(p.Center()))
			rows[KindMarkers] = append(rows[KindMarkers], []any{id, role, true, source, tags, geom})
		}
	}

	return rows
}

// copyBytes detaches encoder output from its reused buffer
func copyBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
