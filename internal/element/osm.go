package element

import (
	"github.com/paulmach/osm"
	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/geom"
)

// FromObjects converts paulmach/osm objects (as produced by the XML and PBF
// scanners) into elements. Relations get their bounds from member geometry
// or from the nodes and ways in the same batch.
func FromObjects(objs []osm.Object, log *zap.Logger) []Element {
	if log == nil {
		log = zap.NewNop()
	}

	elems := make([]Element, 0, len(objs))
	var pending []*Relation

	for _, obj := range objs {
		switch o := obj.(type) {
		case *osm.Node:
			elems = append(elems, fromNode(o))
		case *osm.Way:
			elems = append(elems, fromWay(o))
		case *osm.Relation:
			rel := fromRelation(o)
			pending = append(pending, rel)
			elems = append(elems, rel)
		default:
			// bounds, changesets, notes and users carry no features
		}
	}

	elems, dropped := resolvePendingBounds(elems, pending, log)
	if dropped > 0 {
		log.Debug("Dropped unlocatable relations", zap.Int("count", dropped))
	}
	return elems
}

func fromNode(n *osm.Node) *Node {
	return &Node{
		ID:   int64(n.ID),
		Lat:  n.Lat,
		Lon:  n.Lon,
		Tags: optionalTags(n.Tags),
	}
}

func fromWay(w *osm.Way) *Way {
	refs := make([]int64, len(w.Nodes))
	for i, wn := range w.Nodes {
		refs[i] = int64(wn.ID)
	}

	return &Way{
		ID:       Int64(int64(w.ID)),
		Geometry: wayNodeGeometry(w.Nodes),
		NodeRefs: refs,
		Tags:     optionalTags(w.Tags),
	}
}

func fromRelation(r *osm.Relation) *Relation {
	rel := &Relation{
		ID:   int64(r.ID),
		Tags: optionalTags(r.Tags),
	}

	for _, m := range r.Members {
		switch m.Type {
		case osm.TypeWay:
			rel.Members = append(rel.Members, &Way{
				Ref:      Int64(m.Ref),
				Role:     m.Role,
				Geometry: wayNodeGeometry(m.Nodes),
			})
		case osm.TypeNode:
			if m.Lat == 0 && m.Lon == 0 {
				continue
			}
			rel.Members = append(rel.Members, &Node{ID: m.Ref, Lat: m.Lat, Lon: m.Lon})
		}
	}
	return rel
}

// wayNodeGeometry returns the embedded coordinates of way nodes, or nil when
// any node lacks a location (PBF and plain XML only carry node ids)
func wayNodeGeometry(nodes osm.WayNodes) []geom.Coord {
	if len(nodes) == 0 {
		return nil
	}
	coords := make([]geom.Coord, len(nodes))
	for i, wn := range nodes {
		if wn.Lat == 0 && wn.Lon == 0 {
			return nil
		}
		coords[i] = geom.Coord{Lat: wn.Lat, Lon: wn.Lon}
	}
	return coords
}

// optionalTags maps an empty tag list to nil; OSM XML and PBF cannot express
// "present but empty"
func optionalTags(tags osm.Tags) osm.Tags {
	if len(tags) == 0 {
		return nil
	}
	out := make(osm.Tags, len(tags))
	copy(out, tags)
	return out
}
