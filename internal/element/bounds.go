package element

import (
	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/geom"
)

// resolvePendingBounds derives bounds for relations that arrived without
// them, from member geometry and from the nodes and ways in elems.
// Relations with no locatable member are removed.
func resolvePendingBounds(elems []Element, pending []*Relation, log *zap.Logger) ([]Element, int) {
	if len(pending) == 0 {
		return elems, 0
	}

	nodes := make(map[int64]*Node)
	ways := make(map[int64]*Way)
	for _, e := range elems {
		switch v := e.(type) {
		case *Node:
			nodes[v.ID] = v
		case *Way:
			if v.ID != nil {
				ways[*v.ID] = v
			}
		}
	}

	unresolved := make(map[*Relation]bool)
	for _, rel := range pending {
		bbox, ok := memberBounds(rel, nodes, ways)
		if !ok {
			unresolved[rel] = true
			log.Debug("Dropping relation without locatable members", zap.Int64("id", rel.ID))
			continue
		}
		rel.Bounds = bbox
	}

	if len(unresolved) == 0 {
		return elems, 0
	}

	out := elems[:0]
	for _, e := range elems {
		if rel, ok := e.(*Relation); ok && unresolved[rel] {
			continue
		}
		out = append(out, e)
	}
	return out, len(unresolved)
}

// memberBounds computes the bbox covering every locatable member of rel
func memberBounds(rel *Relation, nodes map[int64]*Node, ways map[int64]*Way) (geom.BBox, bool) {
	var bbox geom.BBox
	found := false

	add := func(c geom.Coord) {
		if !found {
			bbox = geom.NewBBoxFromCoord(c)
			found = true
			return
		}
		bbox.ExpandCoord(c)
	}

	addWay := func(w *Way) {
		if w.Geometry != nil {
			for _, c := range w.Geometry {
				add(c)
			}
			return
		}
		for _, ref := range w.NodeRefs {
			if n, ok := nodes[ref]; ok {
				add(n.Coord())
			}
		}
	}

	for _, m := range rel.Members {
		switch v := m.(type) {
		case *Node:
			add(v.Coord())
		case *Way:
			if v.Geometry == nil && v.NodeRefs == nil && v.Ref != nil {
				if target, ok := ways[*v.Ref]; ok {
					addWay(target)
				}
				continue
			}
			addWay(v)
		}
	}

	return bbox, found
}
