// Package wkb encodes shapes as PostGIS extended WKB.
package wkb

import (
	"encoding/binary"
	"math"

	"github.com/wegman-software/osmshapes-go/internal/geom"
)

// WKB type constants (ISO SQL/MM specification)
const (
	wkbPoint      = 1
	wkbLineString = 2
	wkbPolygon    = 3

	// SRID flag for EWKB (PostGIS extended WKB)
	wkbSRIDFlag = 0x20000000
)

// SRID4326 is WGS84, the only frame shapes are expressed in
const SRID4326 = 4326

// Encoder encodes geometries to EWKB.
// Uses little-endian byte order and includes the SRID. The returned slices
// alias the internal buffer and are only valid until the next call.
type Encoder struct {
	buf  []byte
	srid uint32
}

// NewEncoder creates an encoder with a pre-allocated buffer and SRID 4326
func NewEncoder(initialSize int) *Encoder {
	return &Encoder{
		buf:  make([]byte, 0, initialSize),
		srid: SRID4326,
	}
}

// SRID returns the encoder's SRID
func (e *Encoder) SRID() int {
	return int(e.srid)
}

// Reset clears the buffer for reuse
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// EncodePoint encodes a point
func (e *Encoder) EncodePoint(c geom.Coord) []byte {
	e.Reset()
	// 1 (byte order) + 4 (type) + 4 (srid) + 16 (x, y)
	e.ensureCapacity(25)
	e.header(wkbPoint)
	e.appendCoord(c)
	return e.buf
}

// EncodeLineString encodes an open path. A single coordinate is repeated so
// PostGIS accepts it.
func (e *Encoder) EncodeLineString(coords []geom.Coord) []byte {
	e.Reset()
	if len(coords) == 0 {
		return nil
	}
	if len(coords) == 1 {
		coords = []geom.Coord{coords[0], coords[0]}
	}

	e.ensureCapacity(13 + len(coords)*16)
	e.header(wkbLineString)
	e.appendUint32(uint32(len(coords)))
	for _, c := range coords {
		e.appendCoord(c)
	}
	return e.buf
}

// EncodePolygon encodes coords as the outer ring of a polygon, closing the
// ring when the last coordinate differs from the first
func (e *Encoder) EncodePolygon(coords []geom.Coord) []byte {
	e.Reset()
	if len(coords) == 0 {
		return nil
	}

	closeRing := !coords[0].Equal(coords[len(coords)-1])
	n := len(coords)
	if closeRing {
		n++
	}

	// 1 + 4 + 4 + 4 (ring count) + 4 (ring size) + points
	e.ensureCapacity(17 + n*16)
	e.header(wkbPolygon)
	e.appendUint32(1)
	e.appendUint32(uint32(n))
	for _, c := range coords {
		e.appendCoord(c)
	}
	if closeRing {
		e.appendCoord(coords[0])
	}
	return e.buf
}

func (e *Encoder) header(geomType uint32) {
	e.buf = append(e.buf, 0x01)
	e.appendUint32(geomType | wkbSRIDFlag)
	e.appendUint32(e.srid)
}

func (e *Encoder) ensureCapacity(n int) {
	if cap(e.buf) < n {
		e.buf = make([]byte, 0, n)
	}
}

// appendCoord writes X=lon, Y=lat
func (e *Encoder) appendCoord(c geom.Coord) {
	e.appendFloat64(c.Lon)
	e.appendFloat64(c.Lat)
}

func (e *Encoder) appendUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) appendFloat64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}
