package element

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/geom"
)

// overpassResponse is the envelope of an Overpass API [out:json] response
type overpassResponse struct {
	Version   float64           `json:"version"`
	Generator string            `json:"generator"`
	Remark    string            `json:"remark"`
	Elements  []json.RawMessage `json:"elements"`
}

type wireCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type wireBounds struct {
	MinLat float64 `json:"minlat"`
	MinLon float64 `json:"minlon"`
	MaxLat float64 `json:"maxlat"`
	MaxLon float64 `json:"maxlon"`
}

type wireMember struct {
	Type     string       `json:"type"`
	Ref      *int64       `json:"ref"`
	Role     string       `json:"role"`
	Lat      *float64     `json:"lat"`
	Lon      *float64     `json:"lon"`
	Geometry []*wireCoord `json:"geometry"`
}

// wireElement covers all three element types; presence is tracked with
// pointers and nil slices
type wireElement struct {
	Type     string                 `json:"type"`
	ID       *int64                 `json:"id"`
	Lat      *float64               `json:"lat"`
	Lon      *float64               `json:"lon"`
	Tags     map[string]interface{} `json:"tags"`
	Nodes    []int64                `json:"nodes"`
	Geometry []*wireCoord           `json:"geometry"`
	Bounds   *wireBounds            `json:"bounds"`
	Members  []wireMember           `json:"members"`
}

// DecodeStats counts what happened while decoding a response
type DecodeStats struct {
	Decoded int
	Skipped int
	Remark  string
}

// DecodeOverpass reads an Overpass [out:json] response.
// Malformed or unsupported elements are logged and skipped; only an
// unreadable envelope is an error.
func DecodeOverpass(r io.Reader, log *zap.Logger) ([]Element, DecodeStats, error) {
	var stats DecodeStats
	if log == nil {
		log = zap.NewNop()
	}

	var resp overpassResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, stats, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	if resp.Remark != "" {
		stats.Remark = resp.Remark
		log.Warn("Overpass response carries a remark", zap.String("remark", resp.Remark))
	}

	elems := make([]Element, 0, len(resp.Elements))
	var pending []*Relation

	for i, raw := range resp.Elements {
		var we wireElement
		if err := json.Unmarshal(raw, &we); err != nil {
			stats.Skipped++
			log.Debug("Skipping malformed element", zap.Int("index", i), zap.Error(err))
			continue
		}

		elem, needsBounds, err := we.convert()
		if err != nil {
			stats.Skipped++
			log.Debug("Skipping element", zap.Int("index", i), zap.String("type", we.Type), zap.Error(err))
			continue
		}
		if needsBounds {
			pending = append(pending, elem.(*Relation))
		}
		elems = append(elems, elem)
	}

	elems, dropped := resolvePendingBounds(elems, pending, log)
	stats.Skipped += dropped
	stats.Decoded = len(elems)

	return elems, stats, nil
}

func (we *wireElement) convert() (Element, bool, error) {
	switch we.Type {
	case "node":
		if we.ID == nil || we.Lat == nil || we.Lon == nil {
			return nil, false, fmt.Errorf("node requires id, lat and lon")
		}
		return &Node{ID: *we.ID, Lat: *we.Lat, Lon: *we.Lon, Tags: TagsFromMap(stringTags(we.Tags))}, false, nil

	case "way":
		way := &Way{
			ID:       we.ID,
			Geometry: convertGeometry(we.Geometry),
			NodeRefs: we.Nodes,
			Tags:     TagsFromMap(stringTags(we.Tags)),
		}
		if we.Bounds != nil {
			b := we.Bounds.bbox()
			way.Bounds = &b
		}
		return way, false, nil

	case "relation":
		if we.ID == nil {
			return nil, false, fmt.Errorf("relation requires id")
		}
		rel := &Relation{
			ID:      *we.ID,
			Members: convertMembers(we.Members),
			Tags:    TagsFromMap(stringTags(we.Tags)),
		}
		if we.Bounds == nil {
			return rel, true, nil
		}
		rel.Bounds = we.Bounds.bbox()
		return rel, false, nil

	default:
		return nil, false, fmt.Errorf("unsupported element type %q", we.Type)
	}
}

func (b *wireBounds) bbox() geom.BBox {
	return geom.BBox{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: b.MaxLat}
}

// convertGeometry returns nil when any entry is null, which Overpass emits
// for nodes cut off by a bbox-limited "out geom". A gapped line is never
// stitched together; the way falls back to its node refs instead.
func convertGeometry(in []*wireCoord) []geom.Coord {
	if len(in) == 0 {
		return nil
	}
	out := make([]geom.Coord, 0, len(in))
	for _, c := range in {
		if c == nil {
			return nil
		}
		out = append(out, geom.Coord{Lat: c.Lat, Lon: c.Lon})
	}
	return out
}

func convertMembers(in []wireMember) []Element {
	members := make([]Element, 0, len(in))
	for _, m := range in {
		switch m.Type {
		case "way":
			members = append(members, &Way{
				Ref:      m.Ref,
				Role:     m.Role,
				Geometry: convertGeometry(m.Geometry),
			})
		case "node":
			if m.Ref == nil || m.Lat == nil || m.Lon == nil {
				continue
			}
			members = append(members, &Node{ID: *m.Ref, Lat: *m.Lat, Lon: *m.Lon})
		}
		// nested relations are not followed
	}
	return members
}

// stringTags flattens tag values to strings; Overpass only emits strings but
// hand-written inputs sometimes carry numbers or booleans
func stringTags(in map[string]interface{}) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
