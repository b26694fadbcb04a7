package shape

import (
	"github.com/wegman-software/osmshapes-go/internal/element"
	"github.com/wegman-software/osmshapes-go/internal/geom"
)

// NodeIndex maps node ids to locations for reference resolution
type NodeIndex map[int64]geom.Coord

// NewNodeIndex indexes every node, tagged or not. A later node with the same
// id replaces an earlier one.
func NewNodeIndex(nodes []*element.Node) NodeIndex {
	idx := make(NodeIndex, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		idx[n.ID] = n.Coord()
	}
	return idx
}

// ResolveWay builds the shape of a single way.
//
// Embedded geometry wins over node references. Otherwise every reference
// must resolve against idx; one miss discards the whole way. Closure comes
// from the reference list only, so geometry-only ways are open.
func ResolveWay(w *element.Way, idx NodeIndex) (Polygon, bool) {
	if w == nil {
		return Polygon{}, false
	}

	var coords []geom.Coord
	switch {
	case w.Geometry != nil:
		coords = make([]geom.Coord, len(w.Geometry))
		copy(coords, w.Geometry)
	case w.NodeRefs != nil:
		coords = make([]geom.Coord, 0, len(w.NodeRefs))
		for _, ref := range w.NodeRefs {
			c, ok := idx[ref]
			if !ok {
				return Polygon{}, false
			}
			coords = append(coords, c)
		}
	}

	if len(coords) == 0 {
		return Polygon{}, false
	}

	return Polygon{
		ID:     w.ID,
		Coords: coords,
		Tags:   w.Tags,
		Closed: closedRefs(w.NodeRefs),
		Role:   w.Role,
	}, true
}

func closedRefs(refs []int64) bool {
	return len(refs) >= 2 && refs[0] == refs[len(refs)-1]
}
