package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/config"
	"github.com/wegman-software/osmshapes-go/internal/element"
	"github.com/wegman-software/osmshapes-go/internal/flex"
	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/metrics"
	"github.com/wegman-software/osmshapes-go/internal/shape"
	"github.com/wegman-software/osmshapes-go/internal/style"
)

// Processor turns one element set into styled shapes and a map view.
// It is safe for concurrent use.
type Processor struct {
	cfg     *config.Config
	builder *shape.Builder
	styler  *style.Styler
	hooks   *flex.Pool
	log     *zap.Logger
}

// NewProcessor loads the style file and Lua script named in cfg, if any
func NewProcessor(cfg *config.Config, log *zap.Logger) (*Processor, error) {
	if log == nil {
		log = zap.NewNop()
	}

	p := &Processor{
		cfg:     cfg,
		builder: shape.NewBuilder(shape.Options{SmallExtent: cfg.SmallExtent}, log.Named("shape")),
		log:     log,
	}

	if cfg.StyleFile != "" {
		styleCfg, err := style.LoadConfig(cfg.StyleFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load style: %w", err)
		}
		p.styler = style.NewStyler(styleCfg)
		log.Info("Loaded style", zap.String("file", cfg.StyleFile))
	}

	if cfg.LuaScript != "" {
		hooks, err := flex.NewPool(cfg.LuaScript, cfg.Workers, log.Named("flex"))
		if err != nil {
			return nil, fmt.Errorf("failed to load Lua script: %w", err)
		}
		p.hooks = hooks
		log.Info("Loaded Lua script", zap.String("file", cfg.LuaScript), zap.Int("runtimes", cfg.Workers))
	}

	return p, nil
}

// Close releases the Lua runtimes
func (p *Processor) Close() {
	if p.hooks != nil {
		p.hooks.Close()
	}
}

// Process builds shapes from elems, then applies the style and hooks
func (p *Processor) Process(ctx context.Context, elems []element.Element) (*Output, error) {
	start := time.Now()

	res := p.builder.Build(elems)
	if p.cfg.BBox != nil {
		res = shape.Clip(res, *p.cfg.BBox)
	}
	out := &Output{Result: &res}

	if p.styler != nil {
		styled, stats := p.styler.Apply(out.Result)
		out.Result = styled
		out.Styled = stats
	}

	if p.hooks != nil {
		hooked, stats, err := p.hooks.Apply(ctx, out.Result)
		if err != nil {
			return nil, err
		}
		out.Result = hooked
		out.Hooks = stats
	}

	r := out.Result
	out.View = geom.Frame(r.Center(), r.Bounds, r.HasBounds, p.cfg.ViewWidth, p.cfg.ViewHeight)
	out.Took = time.Since(start)

	markers, areas, paths := r.Counts()
	metrics.RecordBuild(markers, areas, paths, out.Took)

	return out, nil
}
