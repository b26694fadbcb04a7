package shape

import "github.com/wegman-software/osmshapes-go/internal/geom"

// Merge fuses inner and outer segments that share endpoints into longer
// chains. Segments with any other role pass through untouched.
//
// The input is copied into a private arena and never modified. Each pass
// walks the surviving segments in index order and, for every eligible A,
// looks for another segment B with the same role whose endpoints touch A's.
// On the first match A is spliced into B and removed. Passes repeat until
// one completes without a fusion. The shared joint coordinate is kept once,
// so every fusion lowers the total coordinate count by one while the set of
// distinct coordinates stays the same.
func Merge(segs []Polygon) []Polygon {
	work := make([]Polygon, 0, len(segs))
	for _, s := range segs {
		if len(s.Coords) == 0 {
			continue
		}
		work = append(work, s.clone())
	}

	for {
		removed := make([]bool, len(work))
		fused := 0

		for i := range work {
			if removed[i] || !work[i].Mergeable() {
				continue
			}
			a := &work[i]
			for j := range work {
				if j == i || removed[j] || work[j].Role != a.Role {
					continue
				}
				if splice(a, &work[j]) {
					removed[i] = true
					fused++
					break
				}
			}
		}

		if fused == 0 {
			return work
		}

		next := make([]Polygon, 0, len(work)-fused)
		for i := range work {
			if !removed[i] {
				next = append(next, work[i])
			}
		}
		work = next
	}
}

// splice joins a onto b when an endpoint matches, checking
// start/end, end/start, start/start and end/end in that order
func splice(a, b *Polygon) bool {
	switch {
	case a.Start().Equal(b.End()):
		b.Coords = concat(b.Coords, a.Coords[1:])
	case a.End().Equal(b.Start()):
		b.Coords = concat(a.Coords, b.Coords[1:])
	case a.Start().Equal(b.Start()):
		b.Coords = concat(geom.Reversed(a.Coords), b.Coords[1:])
	case a.End().Equal(b.End()):
		b.Coords = concat(b.Coords, geom.Reversed(a.Coords)[1:])
	default:
		return false
	}
	return true
}

func concat(head, tail []geom.Coord) []geom.Coord {
	out := make([]geom.Coord, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}
