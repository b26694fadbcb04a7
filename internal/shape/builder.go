package shape

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/element"
)

// Options configures a Builder
type Options struct {
	// SmallExtent is the span in degrees below which a shape is flagged
	// very small. Zero means DefaultSmallExtent.
	SmallExtent float64
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{SmallExtent: DefaultSmallExtent}
}

// Builder runs the conversion pipeline. It holds no mutable state and is
// safe for concurrent use.
type Builder struct {
	opts Options
	log  *zap.Logger
}

// NewBuilder creates a builder. A nil logger discards output.
func NewBuilder(opts Options, log *zap.Logger) *Builder {
	if opts.SmallExtent <= 0 {
		opts.SmallExtent = DefaultSmallExtent
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{opts: opts, log: log}
}

// Build converts elems into markers, shapes and bounds. It never fails: a
// component that panics on malformed input is logged and contributes
// nothing.
func (b *Builder) Build(elems []element.Element) Result {
	buckets := guard(b.log, "partition", func() Buckets {
		return Partition(elems)
	})

	nodes := guard(b.log, "node index", func() NodeIndex {
		return NewNodeIndex(buckets.Nodes)
	})

	markers := guard(b.log, "markers", func() []Marker {
		return BuildMarkers(buckets.Nodes)
	})

	ways := guard(b.log, "ways", func() []Polygon {
		return b.resolveWays(buckets.Ways, nodes)
	})

	relations := guard(b.log, "relations", func() []Polygon {
		idx := NewWayIndex(buckets.Ways)
		var out []Polygon
		for _, rel := range buckets.Relations {
			out = append(out, RelationShapes(rel, nodes, idx)...)
		}
		return out
	})

	polys := make([]Polygon, 0, len(ways)+len(relations))
	polys = append(polys, ways...)
	polys = append(polys, relations...)

	guard(b.log, "classify", func() struct{} {
		Classify(polys, b.opts.SmallExtent)
		return struct{}{}
	})

	res := Result{Markers: markers, Polygons: polys}
	res.Bounds, res.HasBounds = Bounds(markers, polys)

	b.log.Debug("Built shapes",
		zap.Int("elements", len(elems)),
		zap.Int("markers", len(markers)),
		zap.Int("ways", len(ways)),
		zap.Int("relation_shapes", len(relations)),
		zap.Bool("has_bounds", res.HasBounds))

	return res
}

func (b *Builder) resolveWays(ways []*element.Way, nodes NodeIndex) []Polygon {
	var out []Polygon
	dropped := 0
	for _, w := range ways {
		p, ok := ResolveWay(w, nodes)
		if !ok {
			dropped++
			continue
		}
		out = append(out, p)
	}
	if dropped > 0 {
		b.log.Debug("Dropped unresolvable ways", zap.Int("count", dropped))
	}
	return out
}

// guard runs fn and converts a panic into the zero value of T
func guard[T any](log *zap.Logger, component string, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Shape component failed",
				zap.String("component", component),
				zap.String("panic", fmt.Sprint(r)))
			var zero T
			out = zero
		}
	}()
	return fn()
}
