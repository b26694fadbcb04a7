package shape

import (
	"reflect"
	"sort"
	"testing"

	"github.com/wegman-software/osmshapes-go/internal/geom"
)

func seg(role string, coords ...geom.Coord) Polygon {
	return Polygon{Role: role, Coords: coords, Closed: role == RoleOuter || role == RoleInner}
}

func TestMergeCases(t *testing.T) {
	tests := []struct {
		name string
		a, b Polygon
		want []geom.Coord
	}{
		{
			name: "start meets end",
			a:    seg(RoleOuter, c(1, 1), c(2, 2)),
			b:    seg(RoleOuter, c(3, 3), c(1, 1)),
			want: []geom.Coord{c(3, 3), c(1, 1), c(2, 2)},
		},
		{
			name: "end meets start",
			a:    seg(RoleOuter, c(1, 1), c(2, 2)),
			b:    seg(RoleOuter, c(2, 2), c(4, 4)),
			want: []geom.Coord{c(1, 1), c(2, 2), c(4, 4)},
		},
		{
			name: "start meets start",
			a:    seg(RoleInner, c(1, 1), c(2, 2)),
			b:    seg(RoleInner, c(1, 1), c(5, 5)),
			want: []geom.Coord{c(2, 2), c(1, 1), c(5, 5)},
		},
		{
			name: "end meets end",
			a:    seg(RoleOuter, c(1, 1), c(2, 2)),
			b:    seg(RoleOuter, c(6, 6), c(2, 2)),
			want: []geom.Coord{c(6, 6), c(2, 2), c(1, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Merge([]Polygon{tt.a, tt.b})
			if len(out) != 1 {
				t.Fatalf("got %d segments, want 1", len(out))
			}
			if !reflect.DeepEqual(out[0].Coords, tt.want) {
				t.Errorf("coords = %v, want %v", out[0].Coords, tt.want)
			}
		})
	}
}

func TestMergeCaseOrder(t *testing.T) {
	// both start/end and end/end match; start/end wins
	a := seg(RoleOuter, c(1, 1), c(2, 2))
	b := seg(RoleOuter, c(2, 2), c(1, 1))

	out := Merge([]Polygon{a, b})
	want := []geom.Coord{c(2, 2), c(1, 1), c(2, 2)}
	if len(out) != 1 || !reflect.DeepEqual(out[0].Coords, want) {
		t.Errorf("got %v, want single segment %v", out, want)
	}
}

func TestMergeRoles(t *testing.T) {
	t.Run("different roles do not merge", func(t *testing.T) {
		out := Merge([]Polygon{
			seg(RoleOuter, c(1, 1), c(2, 2)),
			seg(RoleInner, c(2, 2), c(3, 3)),
		})
		if len(out) != 2 {
			t.Errorf("got %d segments, want 2", len(out))
		}
	})

	t.Run("other roles pass through", func(t *testing.T) {
		in := []Polygon{
			seg("", c(1, 1), c(2, 2)),
			seg("", c(2, 2), c(3, 3)),
			seg("forward", c(3, 3), c(4, 4)),
		}
		out := Merge(in)
		if !reflect.DeepEqual(out, in) {
			t.Errorf("got %v, want input unchanged", out)
		}
	})

	t.Run("outer does not absorb a roleless neighbour", func(t *testing.T) {
		out := Merge([]Polygon{
			seg(RoleOuter, c(1, 1), c(2, 2)),
			seg("", c(2, 2), c(3, 3)),
		})
		if len(out) != 2 {
			t.Errorf("got %d segments, want 2", len(out))
		}
	})
}

func TestMergeRing(t *testing.T) {
	p := []geom.Coord{c(0, 0), c(0, 1), c(0, 2), c(1, 2), c(2, 2), c(2, 1), c(2, 0), c(1, 0)}
	in := []Polygon{
		seg(RoleOuter, p[4], p[5], p[6]),
		seg(RoleOuter, p[2], p[1], p[0]),
		seg(RoleOuter, p[6], p[7], p[0]),
		seg(RoleOuter, p[2], p[3], p[4]),
	}

	out := Merge(in)
	if len(out) != 1 {
		t.Fatalf("got %d segments, want 1", len(out))
	}

	ring := out[0].Coords
	if !ring[0].Equal(ring[len(ring)-1]) {
		t.Errorf("merged ring is not closed: %v", ring)
	}
	assertConserved(t, in, out)
}

func TestMergeTwoChains(t *testing.T) {
	in := []Polygon{
		seg(RoleOuter, c(0, 0), c(0, 1)),
		seg(RoleOuter, c(10, 10), c(10, 11)),
		seg(RoleOuter, c(0, 1), c(1, 1)),
		seg(RoleOuter, c(10, 12), c(10, 11)),
		seg(RoleOuter, c(1, 1), c(0, 0)),
	}

	out := Merge(in)
	if len(out) != 2 {
		t.Fatalf("got %d segments, want 2", len(out))
	}
	assertConserved(t, in, out)
}

func TestMergeDoesNotModifyInput(t *testing.T) {
	a := seg(RoleOuter, c(1, 1), c(2, 2))
	b := seg(RoleOuter, c(3, 3), c(1, 1))
	in := []Polygon{a, b}

	Merge(in)

	if !reflect.DeepEqual(in[1].Coords, []geom.Coord{c(3, 3), c(1, 1)}) {
		t.Errorf("input segment was modified: %v", in[1].Coords)
	}
}

func TestMergeSkipsEmptySegments(t *testing.T) {
	out := Merge([]Polygon{seg(RoleOuter), seg(RoleOuter, c(1, 1))})
	if len(out) != 1 || len(out[0].Coords) != 1 {
		t.Errorf("got %v", out)
	}
}

// assertConserved checks that every input coordinate survives and that each
// fusion drops exactly one shared joint
func assertConserved(t *testing.T, in, out []Polygon) {
	t.Helper()

	total := func(ps []Polygon) int {
		n := 0
		for _, p := range ps {
			n += len(p.Coords)
		}
		return n
	}
	fusions := len(in) - len(out)
	if got, want := total(out), total(in)-fusions; got != want {
		t.Errorf("output holds %d coordinates, want %d", got, want)
	}

	if !reflect.DeepEqual(distinct(in), distinct(out)) {
		t.Errorf("distinct coordinates changed: %v -> %v", distinct(in), distinct(out))
	}
}

func distinct(ps []Polygon) []geom.Coord {
	seen := make(map[geom.Coord]bool)
	var out []geom.Coord
	for _, p := range ps {
		for _, co := range p.Coords {
			if !seen[co] {
				seen[co] = true
				out = append(out, co)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lat != out[j].Lat {
			return out[i].Lat < out[j].Lat
		}
		return out[i].Lon < out[j].Lon
	})
	return out
}
