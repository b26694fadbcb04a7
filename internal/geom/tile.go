package geom

import "math"

// Web Mercator constants
const (
	// Maximum latitude for Web Mercator (approximately 85.051129°)
	MaxMercatorLat = 85.0511287798
	// Minimum latitude for Web Mercator
	MinMercatorLat = -85.0511287798

	// TileSize is the edge length of a map tile in pixels
	TileSize = 256
	// MaxZoom is the deepest zoom level the framing considers
	MaxZoom = 19
	// DefaultZoom is used when there is nothing to frame
	DefaultZoom = 13
)

// Tile represents a map tile at a specific zoom level
type Tile struct {
	Z int // Zoom level
	X int // X coordinate (column)
	Y int // Y coordinate (row)
}

// worldPixel projects a coordinate to fractional pixel space at a zoom level
func worldPixel(c Coord, zoom int) (x, y float64) {
	lat := math.Max(MinMercatorLat, math.Min(MaxMercatorLat, c.Lat))
	lon := math.Max(-180, math.Min(180, c.Lon))

	n := float64(TileSize) * math.Exp2(float64(zoom))
	latRad := lat * math.Pi / 180.0

	x = (lon + 180.0) / 360.0 * n
	y = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n
	return x, y
}

// LatLonToTile converts a coordinate to tile coordinates at a given zoom level
// Uses the standard Web Mercator tile scheme (OSM/Google style)
func LatLonToTile(c Coord, zoom int) Tile {
	px, py := worldPixel(c, zoom)
	n := 1 << zoom

	x := int(px / TileSize)
	if x >= n {
		x = n - 1
	}
	y := int(py / TileSize)
	if y >= n {
		y = n - 1
	}
	if y < 0 {
		y = 0
	}

	return Tile{Z: zoom, X: x, Y: y}
}

// TileRange represents a range of tiles at a specific zoom level
type TileRange struct {
	Z    int `json:"z"`
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

// BBoxToTileRange converts a bounding box to a range of tiles at a given zoom level
func BBoxToTileRange(bbox BBox, zoom int) TileRange {
	// In tile coordinates, Y increases downward (north to south)
	topLeft := LatLonToTile(Coord{Lat: bbox.MaxLat, Lon: bbox.MinLon}, zoom)
	bottomRight := LatLonToTile(Coord{Lat: bbox.MinLat, Lon: bbox.MaxLon}, zoom)

	return TileRange{
		Z:    zoom,
		MinX: topLeft.X,
		MaxX: bottomRight.X,
		MinY: topLeft.Y,
		MaxY: bottomRight.Y,
	}
}

// TileCount returns the number of tiles in the range
func (r TileRange) TileCount() int {
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// FitZoom returns the deepest zoom at which bbox fits into a viewport of
// width x height pixels. Degenerate boxes fit at every zoom and get maxZoom.
func FitZoom(bbox BBox, width, height, maxZoom int) int {
	if maxZoom <= 0 || maxZoom > MaxZoom {
		maxZoom = MaxZoom
	}
	for z := maxZoom; z > 0; z-- {
		x1, y1 := worldPixel(Coord{Lat: bbox.MaxLat, Lon: bbox.MinLon}, z)
		x2, y2 := worldPixel(Coord{Lat: bbox.MinLat, Lon: bbox.MaxLon}, z)
		if x2-x1 <= float64(width) && y2-y1 <= float64(height) {
			return z
		}
	}
	return 0
}

// View is the initial map framing for a set of shapes
type View struct {
	Center Coord `json:"center"`
	Zoom   int   `json:"zoom"`
	// Tiles covers the framed bounds at Zoom; nil without bounds
	Tiles *TileRange `json:"tiles,omitempty"`
}

// Frame computes the initial view centred on center for a bbox in a viewport.
// Without bounds the view sits at center with DefaultZoom.
func Frame(center Coord, bbox BBox, hasBounds bool, width, height int) View {
	if !hasBounds {
		return View{Center: center, Zoom: DefaultZoom}
	}
	zoom := FitZoom(bbox, width, height, MaxZoom)
	tiles := BBoxToTileRange(bbox, zoom)
	return View{
		Center: center,
		Zoom:   zoom,
		Tiles:  &tiles,
	}
}
