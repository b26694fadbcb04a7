package shape

import (
	"github.com/wegman-software/osmshapes-go/internal/element"
)

// WayIndex maps way ids to ways so relation members given by reference can
// be resolved
type WayIndex map[int64]*element.Way

// NewWayIndex indexes every way that carries an id
func NewWayIndex(ways []*element.Way) WayIndex {
	idx := make(WayIndex, len(ways))
	for _, w := range ways {
		if w == nil || w.ID == nil {
			continue
		}
		idx[*w.ID] = w
	}
	return idx
}

// RelationSegments resolves the way members of rel into segments. Members
// are closed when their role is inner or outer. Every segment carries the
// relation's id and tags. Node members are not shapes and are ignored.
func RelationSegments(rel *element.Relation, nodes NodeIndex, ways WayIndex) []Polygon {
	if rel == nil {
		return nil
	}

	var segs []Polygon
	for _, m := range rel.Members {
		w, ok := m.(*element.Way)
		if !ok || w == nil {
			continue
		}

		p, ok := resolveMember(w, nodes, ways)
		if !ok {
			continue
		}
		p.ID = element.Int64(rel.ID)
		p.Tags = rel.Tags
		p.Role = w.Role
		p.Closed = p.Mergeable()
		segs = append(segs, p)
	}
	return segs
}

// resolveMember prefers the member's own geometry and falls back to the
// referenced way
func resolveMember(w *element.Way, nodes NodeIndex, ways WayIndex) (Polygon, bool) {
	if w.Geometry != nil || w.NodeRefs != nil {
		return ResolveWay(w, nodes)
	}
	if w.Ref == nil {
		return Polygon{}, false
	}
	target, ok := ways[*w.Ref]
	if !ok {
		return Polygon{}, false
	}
	return ResolveWay(target, nodes)
}

// RelationShapes merges the segments of rel. A relation without any
// resolvable way member becomes a closed rectangle over its bounds.
func RelationShapes(rel *element.Relation, nodes NodeIndex, ways WayIndex) []Polygon {
	if rel == nil {
		return nil
	}

	segs := RelationSegments(rel, nodes, ways)
	if len(segs) == 0 {
		return []Polygon{{
			ID:     element.Int64(rel.ID),
			Coords: rel.Bounds.Ring(),
			Tags:   rel.Tags,
			Closed: true,
		}}
	}
	return Merge(segs)
}
