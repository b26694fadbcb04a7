package flex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/shape"
)

// Pool holds one Runtime per worker, each loaded with the same script
type Pool struct {
	runtimes chan *Runtime
	all      []*Runtime
}

// NewPool loads script into size runtimes
func NewPool(script string, size int, log *zap.Logger) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	p := &Pool{runtimes: make(chan *Runtime, size)}
	for i := 0; i < size; i++ {
		r := NewRuntime(log)
		if err := r.LoadFile(script); err != nil {
			r.Close()
			p.Close()
			return nil, fmt.Errorf("failed to create runtime %d: %w", i, err)
		}
		p.all = append(p.all, r)
		p.runtimes <- r
	}
	return p, nil
}

// Apply borrows a runtime and runs the hooks over res
func (p *Pool) Apply(ctx context.Context, res *shape.Result) (*shape.Result, Stats, error) {
	var r *Runtime
	select {
	case r = <-p.runtimes:
	case <-ctx.Done():
		return nil, Stats{}, ctx.Err()
	}
	defer func() { p.runtimes <- r }()

	out, stats := r.Apply(res)
	return out, stats, nil
}

// Close releases every runtime. The pool must not be used afterwards.
func (p *Pool) Close() {
	for _, r := range p.all {
		r.Close()
	}
	p.all = nil
}
