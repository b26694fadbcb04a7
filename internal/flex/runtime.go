// Package flex runs user Lua hooks over converted features.
//
// A script defines osmshapes.process_marker(object) and/or
// osmshapes.process_shape(object). Hooks may edit object.tags in place and
// return false to drop the feature.
package flex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/osm"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/shape"
)

// Runtime wraps one Lua interpreter. It is not safe for concurrent use;
// see Pool.
type Runtime struct {
	L             *lua.LState
	log           *zap.Logger
	processMarker lua.LValue
	processShape  lua.LValue
}

// NewRuntime creates a runtime with the osmshapes API registered
func NewRuntime(log *zap.Logger) *Runtime {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runtime{
		L:   lua.NewState(),
		log: log,
	}
	r.registerAPI()
	return r
}

// Close releases Lua resources
func (r *Runtime) Close() {
	r.L.Close()
}

func (r *Runtime) registerAPI() {
	api := r.L.NewTable()
	api.RawSetString("version", lua.LString("1.0.0"))
	r.L.SetGlobal("osmshapes", api)

	RegisterTransforms(r.L)

	r.L.SetGlobal("print", r.L.NewFunction(r.luaPrint))
}

// LoadFile loads and executes a Lua script
func (r *Runtime) LoadFile(path string) error {
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to load Lua file: %w", err)
	}
	r.extractCallbacks()
	return nil
}

// LoadString loads and executes Lua code from a string
func (r *Runtime) LoadString(code string) error {
	if err := r.L.DoString(code); err != nil {
		return fmt.Errorf("failed to load Lua code: %w", err)
	}
	r.extractCallbacks()
	return nil
}

func (r *Runtime) extractCallbacks() {
	api, ok := r.L.GetGlobal("osmshapes").(*lua.LTable)
	if !ok {
		return
	}
	r.processMarker = api.RawGetString("process_marker")
	r.processShape = api.RawGetString("process_shape")
}

// HasProcessMarker returns true if process_marker is defined
func (r *Runtime) HasProcessMarker() bool {
	return r.processMarker != nil && r.processMarker.Type() == lua.LTFunction
}

// HasProcessShape returns true if process_shape is defined
func (r *Runtime) HasProcessShape() bool {
	return r.processShape != nil && r.processShape.Type() == lua.LTFunction
}

// ProcessMarker runs process_marker on m and returns the resulting tags and
// whether the marker is kept
func (r *Runtime) ProcessMarker(m shape.Marker) (osm.Tags, bool, error) {
	if !r.HasProcessMarker() {
		return m.Tags, true, nil
	}

	obj := r.newObject("marker", m.Tags)
	obj.RawSetString("lat", lua.LNumber(m.Lat))
	obj.RawSetString("lon", lua.LNumber(m.Lon))

	return r.call(r.processMarker, obj, m.Tags)
}

// ProcessShape runs process_shape on p and returns the resulting tags and
// whether the shape is kept
func (r *Runtime) ProcessShape(p *shape.Polygon) (osm.Tags, bool, error) {
	if !r.HasProcessShape() {
		return p.Tags, true, nil
	}

	kind := "path"
	if p.Closed {
		kind = "area"
	}
	obj := r.newObject(kind, p.Tags)
	if p.ID != nil {
		obj.RawSetString("id", lua.LNumber(*p.ID))
	}
	obj.RawSetString("role", lua.LString(p.Role))
	obj.RawSetString("is_closed", lua.LBool(p.Closed))
	obj.RawSetString("very_small", lua.LBool(p.VerySmall))
	obj.RawSetString("num_coords", lua.LNumber(len(p.Coords)))
	c := p.Center()
	obj.RawSetString("center_lat", lua.LNumber(c.Lat))
	obj.RawSetString("center_lon", lua.LNumber(c.Lon))

	return r.call(r.processShape, obj, p.Tags)
}

// newObject builds the table passed to a hook
func (r *Runtime) newObject(kind string, tags osm.Tags) *lua.LTable {
	obj := r.L.NewTable()
	obj.RawSetString("kind", lua.LString(kind))

	tagTbl := r.L.NewTable()
	for _, t := range tags {
		tagTbl.RawSetString(t.Key, lua.LString(t.Value))
	}
	obj.RawSetString("tags", tagTbl)
	obj.RawSetString("has_tags", lua.LBool(tags != nil))

	r.L.SetField(obj, "grab_tag", r.L.NewFunction(grabTag(tagTbl)))
	return obj
}

// call invokes fn and reads the tags back. A returned table replaces the
// tags, false drops the feature, and anything else keeps object.tags.
func (r *Runtime) call(fn lua.LValue, obj *lua.LTable, orig osm.Tags) (osm.Tags, bool, error) {
	if err := r.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, obj); err != nil {
		return orig, true, fmt.Errorf("lua callback error: %w", err)
	}

	ret := r.L.Get(-1)
	r.L.Pop(1)
	if ret == lua.LFalse {
		return nil, false, nil
	}
	if replaced, ok := ret.(*lua.LTable); ok {
		return tagsFromTable(replaced, true), true, nil
	}

	tagTbl, ok := obj.RawGetString("tags").(*lua.LTable)
	if !ok {
		return nil, true, nil
	}
	return tagsFromTable(tagTbl, orig != nil), true, nil
}

// tagsFromTable converts a Lua table back to key-ordered tags. Non-string
// keys are ignored. keepEmpty preserves "present but empty".
func tagsFromTable(tbl *lua.LTable, keepEmpty bool) osm.Tags {
	var tags osm.Tags
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		tags = append(tags, osm.Tag{Key: string(key), Value: lua.LVAsString(v)})
	})
	if tags == nil && keepEmpty {
		return osm.Tags{}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Key < tags[j].Key })
	return tags
}

// grabTag implements object:grab_tag(key), which returns and removes a tag
func grabTag(tags *lua.LTable) lua.LGFunction {
	return func(L *lua.LState) int {
		// called with ':' the object is argument 1
		key := L.CheckString(L.GetTop())
		val := tags.RawGetString(key)
		if val == lua.LNil {
			L.Push(lua.LNil)
			return 1
		}
		tags.RawSetString(key, lua.LNil)
		L.Push(val)
		return 1
	}
}

func (r *Runtime) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	r.log.Info(strings.Join(parts, "\t"), zap.String("source", "lua"))
	return 0
}

// Stats counts what the hooks did
type Stats struct {
	Dropped int
	Errors  int
}

// Apply runs the hooks over res and returns the rewritten result with
// bounds recomputed. A failing hook keeps the feature unchanged and is
// counted in Stats.Errors.
func (r *Runtime) Apply(res *shape.Result) (*shape.Result, Stats) {
	var stats Stats
	out := &shape.Result{}

	for _, m := range res.Markers {
		tags, keep, err := r.ProcessMarker(m)
		if err != nil {
			stats.Errors++
			r.log.Warn("process_marker failed", zap.Error(err))
		}
		if !keep {
			stats.Dropped++
			continue
		}
		m.Tags = tags
		out.Markers = append(out.Markers, m)
	}

	for i := range res.Polygons {
		p := res.Polygons[i]
		tags, keep, err := r.ProcessShape(&p)
		if err != nil {
			stats.Errors++
			r.log.Warn("process_shape failed", zap.Error(err))
		}
		if !keep {
			stats.Dropped++
			continue
		}
		p.Tags = tags
		out.Polygons = append(out.Polygons, p)
	}

	out.Bounds, out.HasBounds = shape.Bounds(out.Markers, out.Polygons)
	return out, stats
}
