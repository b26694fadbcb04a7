package flex

import (
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	lua "github.com/yuin/gopher-lua"
)

// Tag helper functions for Lua hooks

var whitespaceRegex = regexp.MustCompile(`\s+`)

// areaKeys are keys that make a closed way an area
var areaKeys = []string{
	"building", "landuse", "natural", "water", "leisure",
	"amenity", "shop", "tourism", "place", "man_made",
}

// RegisterTransforms registers the helpers as osmshapes.transforms and the
// most common ones as globals
func RegisterTransforms(L *lua.LState) {
	transforms := L.NewTable()

	fns := map[string]lua.LGFunction{
		"trim":               luaTrim,
		"lower":              luaLower,
		"upper":              luaUpper,
		"clean_spaces":       luaCleanSpaces,
		"truncate":           luaTruncate,
		"parse_int":          luaParseInt,
		"parse_real":         luaParseReal,
		"parse_bool":         luaParseBool,
		"parse_layer":        luaParseLayer,
		"get_name":           luaGetName,
		"get_name_localized": luaGetNameLocalized,
		"tags_to_json":       luaTagsToJSON,
		"filter_tags":        luaFilterTags,
		"is_area":            luaIsArea,
	}
	for name, fn := range fns {
		L.SetField(transforms, name, L.NewFunction(fn))
	}

	api, ok := L.GetGlobal("osmshapes").(*lua.LTable)
	if !ok {
		api = L.NewTable()
		L.SetGlobal("osmshapes", api)
	}
	L.SetField(api, "transforms", transforms)

	for _, name := range []string{"trim", "parse_int", "parse_bool", "get_name"} {
		L.SetGlobal(name, L.NewFunction(fns[name]))
	}
}

func luaTrim(L *lua.LState) int {
	L.Push(lua.LString(strings.TrimSpace(L.CheckString(1))))
	return 1
}

func luaLower(L *lua.LState) int {
	L.Push(lua.LString(strings.ToLower(L.CheckString(1))))
	return 1
}

func luaUpper(L *lua.LState) int {
	L.Push(lua.LString(strings.ToUpper(L.CheckString(1))))
	return 1
}

// luaCleanSpaces collapses runs of whitespace and trims
func luaCleanSpaces(L *lua.LState) int {
	s := whitespaceRegex.ReplaceAllString(L.CheckString(1), " ")
	L.Push(lua.LString(strings.TrimSpace(s)))
	return 1
}

// luaTruncate cuts a string to at most n runes
func luaTruncate(L *lua.LState) int {
	s := L.CheckString(1)
	n := L.CheckInt(2)

	runes := []rune(s)
	if n < 0 {
		n = 0
	}
	if len(runes) > n {
		s = string(runes[:n])
	}
	L.Push(lua.LString(s))
	return 1
}

// luaParseInt parses an integer, truncating decimals, with optional default
func luaParseInt(L *lua.LState) int {
	s := strings.TrimSpace(L.CheckString(1))
	def := L.OptInt64(2, 0)

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		L.Push(lua.LNumber(v))
	} else if f, err := strconv.ParseFloat(s, 64); err == nil {
		L.Push(lua.LNumber(int64(f)))
	} else {
		L.Push(lua.LNumber(def))
	}
	return 1
}

// luaParseReal parses a float with optional default
func luaParseReal(L *lua.LState) int {
	s := strings.TrimSpace(L.CheckString(1))
	def := L.OptNumber(2, 0)

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		L.Push(lua.LNumber(v))
	} else {
		L.Push(def)
	}
	return 1
}

// luaParseBool reads OSM style booleans; any other non-empty value is true
func luaParseBool(L *lua.LState) int {
	switch strings.ToLower(strings.TrimSpace(L.CheckString(1))) {
	case "no", "false", "0", "off", "":
		L.Push(lua.LFalse)
	default:
		L.Push(lua.LTrue)
	}
	return 1
}

// luaParseLayer parses a layer tag clamped to [-10, 10]
func luaParseLayer(L *lua.LState) int {
	layer, _ := strconv.ParseInt(strings.TrimSpace(L.CheckString(1)), 10, 64)
	layer = max(-10, min(10, layer))
	L.Push(lua.LNumber(layer))
	return 1
}

// firstTag returns the first non-empty value among keys
func firstTag(L *lua.LState, tags *lua.LTable, keys ...string) lua.LValue {
	for _, k := range keys {
		if v := L.GetField(tags, k); v != lua.LNil {
			if s := lua.LVAsString(v); s != "" {
				return lua.LString(s)
			}
		}
	}
	return lua.LNil
}

// luaGetName returns name, int_name or name:en
func luaGetName(L *lua.LState) int {
	L.Push(firstTag(L, L.CheckTable(1), "name", "int_name", "name:en"))
	return 1
}

// luaGetNameLocalized returns name:<lang>, falling back to name
func luaGetNameLocalized(L *lua.LState) int {
	tags := L.CheckTable(1)
	lang := L.CheckString(2)
	L.Push(firstTag(L, tags, "name:"+lang, "name"))
	return 1
}

func luaTagsToJSON(L *lua.LState) int {
	tags := L.CheckTable(1)

	m := make(map[string]string)
	tags.ForEach(func(k, v lua.LValue) {
		if key := lua.LVAsString(k); key != "" {
			m[key] = lua.LVAsString(v)
		}
	})

	data, err := json.Marshal(m)
	if err != nil {
		L.Push(lua.LString("{}"))
		return 1
	}
	L.Push(lua.LString(data))
	return 1
}

// luaFilterTags returns a copy of tags with only the listed keys.
// Usage: filter_tags(tags, {"name", "highway"})
func luaFilterTags(L *lua.LState) int {
	tags := L.CheckTable(1)
	keys := L.CheckTable(2)

	keep := make(map[string]bool)
	keys.ForEach(func(_, v lua.LValue) {
		if s := lua.LVAsString(v); s != "" {
			keep[s] = true
		}
	})

	result := L.NewTable()
	tags.ForEach(func(k, v lua.LValue) {
		if key := lua.LVAsString(k); keep[key] {
			L.SetField(result, key, v)
		}
	})

	L.Push(result)
	return 1
}

// luaIsArea reports whether tags describe an area; the optional second
// argument is the closed flag
func luaIsArea(L *lua.LState) int {
	tags := L.CheckTable(1)
	if !L.OptBool(2, true) {
		L.Push(lua.LFalse)
		return 1
	}

	switch strings.ToLower(lua.LVAsString(L.GetField(tags, "area"))) {
	case "yes":
		L.Push(lua.LTrue)
		return 1
	case "no":
		L.Push(lua.LFalse)
		return 1
	}

	L.Push(lua.LBool(firstTag(L, tags, areaKeys...) != lua.LNil))
	return 1
}
