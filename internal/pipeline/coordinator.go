package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/osmshapes-go/internal/config"
	"github.com/wegman-software/osmshapes-go/internal/logger"
	"github.com/wegman-software/osmshapes-go/internal/metrics"
	"github.com/wegman-software/osmshapes-go/internal/source"
)

// Coordinator converts a batch of input files concurrently
type Coordinator struct {
	cfg       *config.Config
	reader    *source.Reader
	processor *Processor
	sink      Sink
	format    source.Format // empty = detect per file
}

// NewCoordinator creates a coordinator writing every output to sink
func NewCoordinator(cfg *config.Config, processor *Processor, sink Sink) (*Coordinator, error) {
	var format source.Format
	if cfg.InputFormat != "" {
		f, err := source.ParseFormat(cfg.InputFormat)
		if err != nil {
			return nil, err
		}
		format = f
	}

	if ps, ok := sink.(PathSink); ok {
		if err := checkOutputPaths(ps, cfg.InputFiles); err != nil {
			return nil, err
		}
	}

	// PBF decoding goroutines are split between concurrent files
	procs := 1
	if n := len(cfg.InputFiles); n > 0 && cfg.Workers > n {
		procs = cfg.Workers / n
	}

	return &Coordinator{
		cfg:       cfg,
		reader:    source.NewReader(procs, logger.Named("source")),
		processor: processor,
		sink:      sink,
		format:    format,
	}, nil
}

// checkOutputPaths rejects batches where two inputs would overwrite the
// same output file
func checkOutputPaths(sink PathSink, inputs []string) error {
	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		out := sink.OutputPath(in)
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("inputs %s and %s both write %s", prev, in, out)
		}
		seen[out] = in
	}
	return nil
}

// Run converts every input file. The first failure cancels the others.
func (c *Coordinator) Run(ctx context.Context) (*RunStats, error) {
	log := logger.Get()
	start := time.Now()

	if c.cfg.MetricsInterval > 0 {
		metricsCtx, cancelMetrics := context.WithCancel(ctx)
		defer cancelMetrics()

		collector := metrics.NewCollector(c.cfg.MetricsInterval, logger.Named("metrics"), metrics.Observe)
		go collector.Start(metricsCtx)
		log.Info("System metrics collection started",
			zap.Duration("interval", c.cfg.MetricsInterval))
	}

	progress := NewProgressTracker(totalSize(c.cfg.InputFiles), len(c.cfg.InputFiles))

	var mu sync.Mutex
	results := make([]FileStats, len(c.cfg.InputFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.cfg.Workers, 1))

	for i, path := range c.cfg.InputFiles {
		i, path := i, path
		g.Go(func() error {
			fs, err := c.convert(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			mu.Lock()
			results[i] = fs
			p := progress.Done(fs.BytesRead)
			mu.Unlock()

			log.Info("Converted input",
				zap.String("file", path),
				zap.Int64("elements", fs.Elements),
				zap.Int("markers", fs.Markers),
				zap.Int("areas", fs.Areas),
				zap.Int("paths", fs.Paths),
				zap.String("output", fs.Output),
				zap.String("progress", fmt.Sprintf("%d/%d", p.FilesDone, p.FilesTotal)),
				zap.String("throughput", FormatBytes(int64(p.BytesPerSec))+"/s"),
				zap.String("eta", FormatETA(p.ETA)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &RunStats{}
	for _, fs := range results {
		stats.add(fs)
	}
	stats.Duration = time.Since(start)

	log.Info("Conversion complete",
		zap.Int("files", len(stats.Files)),
		zap.Int64("elements", stats.Elements),
		zap.Int("markers", stats.Markers),
		zap.Int("areas", stats.Areas),
		zap.Int("paths", stats.Paths),
		zap.Duration("duration", stats.Duration.Round(time.Millisecond)))

	return stats, nil
}

// convert reads, processes and stores one file
func (c *Coordinator) convert(ctx context.Context, path string) (FileStats, error) {
	fs := FileStats{Path: path}

	format := c.format
	if format == "" {
		detected, err := source.DetectFormat(path)
		if err != nil {
			return fs, err
		}
		format = detected
	}

	elems, readStats, err := c.reader.ReadFileAs(ctx, path, format)
	if err != nil {
		return fs, err
	}
	fs.Elements = readStats.Elements()
	fs.BytesRead = readStats.BytesRead
	metrics.ElementsRead.WithLabelValues("node").Add(float64(readStats.Nodes))
	metrics.ElementsRead.WithLabelValues("way").Add(float64(readStats.Ways))
	metrics.ElementsRead.WithLabelValues("relation").Add(float64(readStats.Relations))

	out, err := c.processor.Process(ctx, elems)
	if err != nil {
		return fs, err
	}
	fs.Markers, fs.Areas, fs.Paths = out.Result.Counts()

	fs.Output, err = c.sink.Write(ctx, path, out)
	if err != nil {
		return fs, err
	}
	return fs, nil
}

func totalSize(paths []string) int64 {
	var total int64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total
}
