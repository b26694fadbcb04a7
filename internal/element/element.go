// Package element models raw OSM features as returned by a geographic query
// service: nodes, ways and relations.
package element

import (
	"sort"

	"github.com/paulmach/osm"

	"github.com/wegman-software/osmshapes-go/internal/geom"
)

// Kind identifies the variant of an Element
type Kind int

const (
	KindNode Kind = iota
	KindWay
	KindRelation
)

// String returns the Overpass type name
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Element is a raw feature. The set of implementations is closed:
// *Node, *Way and *Relation.
type Element interface {
	Kind() Kind
	element()
}

// Node is a single coordinate with optional tags.
// A nil Tags means the node carries no tags at all.
type Node struct {
	ID   int64
	Lat  float64
	Lon  float64
	Tags osm.Tags
}

// Coord returns the node position
func (n *Node) Coord() geom.Coord {
	return geom.Coord{Lat: n.Lat, Lon: n.Lon}
}

// Way is a coordinate sequence given directly (Geometry) or through node
// references (NodeRefs). Nil slices and pointers mean absent.
type Way struct {
	ID       *int64
	Geometry []geom.Coord
	NodeRefs []int64
	Tags     osm.Tags
	Bounds   *geom.BBox

	// Role is the member role inside a relation, empty when none
	Role string
	// Ref points to a way described elsewhere in the same result
	Ref *int64
}

// Relation is a collection of way and node members describing a compound
// area or route
type Relation struct {
	ID      int64
	Bounds  geom.BBox
	Members []Element // *Way or *Node
	Tags    osm.Tags
}

func (*Node) Kind() Kind     { return KindNode }
func (*Way) Kind() Kind      { return KindWay }
func (*Relation) Kind() Kind { return KindRelation }

func (*Node) element()     {}
func (*Way) element()      {}
func (*Relation) element() {}

// Int64 returns a pointer to v
func Int64(v int64) *int64 {
	return &v
}

// TagsFromMap converts a tag map into key-ordered osm.Tags.
// A nil map stays nil so that "no tags" is distinguishable from "empty tags".
func TagsFromMap(m map[string]string) osm.Tags {
	if m == nil {
		return nil
	}
	tags := make(osm.Tags, 0, len(m))
	for k, v := range m {
		tags = append(tags, osm.Tag{Key: k, Value: v})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Key < tags[j].Key })
	return tags
}
