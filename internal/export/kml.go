package export

import (
	"io"
	"strings"

	"github.com/paulmach/osm"
	"github.com/twpayne/go-kml"

	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/shape"
)

// KML builds a KML document for res
func KML(res *shape.Result) *kml.CompoundElement {
	var placemarks []kml.Element

	for _, m := range res.Markers {
		placemarks = append(placemarks, placemark(m.Tags,
			kml.Point(kml.Coordinates(kmlCoord(m.Coord())))))
	}

	for i := range res.Polygons {
		p := &res.Polygons[i]

		if p.Closed {
			placemarks = append(placemarks, placemark(p.Tags,
				kml.Polygon(
					kml.OuterBoundaryIs(
						kml.LinearRing(kml.Coordinates(kmlRing(p.Coords)...)),
					),
				)))
		} else {
			placemarks = append(placemarks, placemark(p.Tags,
				kml.LineString(kml.Coordinates(kmlCoords(p.Coords)...))))
		}

		if p.VerySmall {
			placemarks = append(placemarks, placemark(p.Tags,
				kml.Point(kml.Coordinates(kmlCoord(p.Center())))))
		}
	}

	return kml.KML(kml.Document(placemarks...))
}

// WriteKML encodes res as an indented KML document
func WriteKML(w io.Writer, res *shape.Result) error {
	return KML(res).WriteIndent(w, "", "  ")
}

func placemark(tags osm.Tags, g kml.Element) kml.Element {
	children := make([]kml.Element, 0, 3)
	if name := label(tags); name != "" {
		children = append(children, kml.Name(name))
	}
	if len(tags) > 0 {
		children = append(children, kml.Description(describeTags(tags)))
	}
	children = append(children, g)
	return kml.Placemark(children...)
}

// describeTags lists tags one per line as key=value
func describeTags(tags osm.Tags) string {
	var sb strings.Builder
	for i, t := range tags {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(t.Key)
		sb.WriteByte('=')
		sb.WriteString(t.Value)
	}
	return sb.String()
}

func kmlCoord(c geom.Coord) kml.Coordinate {
	return kml.Coordinate{Lon: c.Lon, Lat: c.Lat}
}

func kmlCoords(coords []geom.Coord) []kml.Coordinate {
	out := make([]kml.Coordinate, len(coords))
	for i, c := range coords {
		out[i] = kmlCoord(c)
	}
	return out
}

// kmlRing closes the ring; KML linear rings must end where they start
func kmlRing(coords []geom.Coord) []kml.Coordinate {
	out := kmlCoords(coords)
	if len(coords) > 0 && !coords[0].Equal(coords[len(coords)-1]) {
		out = append(out, kmlCoord(coords[0]))
	}
	return out
}
