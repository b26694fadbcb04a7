package export

import (
	"io"

	json "github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"

	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/shape"
)

// GeoJSON builds a feature collection for res. Tags become properties;
// "@kind", "@id", "@role" and "@very_small" describe the shape.
func GeoJSON(res *shape.Result, view geom.View) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, m := range res.Markers {
		f := geojson.NewFeature(m.Coord().Point())
		setTags(f.Properties, m.Tags)
		f.Properties["@kind"] = "marker"
		fc.Append(f)
	}

	for i := range res.Polygons {
		p := &res.Polygons[i]

		var g orb.Geometry
		if p.Closed {
			g = orb.Polygon{geom.Ring(p.Coords)}
		} else {
			g = geom.LineString(p.Coords)
		}

		f := geojson.NewFeature(g)
		setShapeProperties(f.Properties, p, kind(p))
		fc.Append(f)

		if p.VerySmall {
			c := geojson.NewFeature(p.Center().Point())
			setShapeProperties(c.Properties, p, "centroid")
			fc.Append(c)
		}
	}

	if res.HasBounds {
		fc.BBox = geojson.NewBBox(res.Bounds.Bound())
		fc.ExtraMembers = geojson.Properties{
			"center": []float64{view.Center.Lon, view.Center.Lat},
			"zoom":   view.Zoom,
		}
		if view.Tiles != nil {
			fc.ExtraMembers["tiles"] = view.Tiles
		}
	}

	return fc
}

// WriteGeoJSON encodes res as a GeoJSON feature collection
func WriteGeoJSON(w io.Writer, res *shape.Result, view geom.View) error {
	data, err := json.Marshal(GeoJSON(res, view))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func setShapeProperties(props geojson.Properties, p *shape.Polygon, kind string) {
	setTags(props, p.Tags)
	props["@kind"] = kind
	if p.ID != nil {
		props["@id"] = *p.ID
	}
	if p.Role != "" {
		props["@role"] = p.Role
	}
	if p.VerySmall {
		props["@very_small"] = true
	}
}

func setTags(props geojson.Properties, tags osm.Tags) {
	for _, t := range tags {
		props[t.Key] = t.Value
	}
}
