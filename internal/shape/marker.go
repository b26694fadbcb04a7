package shape

import "github.com/wegman-software/osmshapes-go/internal/element"

// BuildMarkers returns a marker for every tagged node. Untagged nodes are
// way support nodes and produce nothing.
func BuildMarkers(nodes []*element.Node) []Marker {
	var markers []Marker
	for _, n := range nodes {
		if n == nil || n.Tags == nil {
			continue
		}
		markers = append(markers, Marker{Lat: n.Lat, Lon: n.Lon, Tags: n.Tags})
	}
	return markers
}
