package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmshapes-go/internal/config"
	"github.com/wegman-software/osmshapes-go/internal/export"
	"github.com/wegman-software/osmshapes-go/internal/logger"
	"github.com/wegman-software/osmshapes-go/internal/pipeline"
)

var clipStr string

var convertCmd = &cobra.Command{
	Use:   "convert <input>...",
	Short: "Convert OSM files into GeoJSON, KML or polyline files",
	Long: `Convert one or more OSM inputs into map-ready shapes.

Each input is read (format detected from its extension unless --input-format
is given), turned into markers, areas and paths, filtered by the optional
style and Lua hooks, and written to --output-dir as one file per input.
Inputs are converted in parallel.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Directory for output files")
	convertCmd.Flags().StringVarP(&cfg.OutputFormat, "format", "f", cfg.OutputFormat, "Output format: geojson, kml or polyline")
	convertCmd.Flags().StringVarP(&cfg.InputFormat, "input-format", "i", "", "Input format: overpass, xml or pbf (default: from extension)")
	convertCmd.Flags().StringVar(&clipStr, "clip", "", "Keep only shapes touching minlon,minlat,maxlon,maxlat")
}

// applyClip parses --clip into cfg.BBox
func applyClip() {
	bbox, err := config.ParseBBox(clipStr)
	if err != nil {
		exitWithError("invalid --clip", err)
	}
	cfg.BBox = bbox
}

func runConvert(cmd *cobra.Command, args []string) {
	cfg.InputFiles = args
	log := logger.Get()

	if err := cfg.ValidateInput(); err != nil {
		exitWithError("invalid configuration", err)
	}
	applyClip()
	format, err := export.ParseFormat(cfg.OutputFormat)
	if err != nil {
		exitWithError("invalid output format", err)
	}

	log.Info("Starting conversion",
		zap.Int("inputs", len(cfg.InputFiles)),
		zap.String("format", string(format)),
		zap.String("output_dir", cfg.OutputDir),
		zap.Int("workers", cfg.Workers),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor, err := pipeline.NewProcessor(cfg, log)
	if err != nil {
		exitWithError("failed to create processor", err)
	}
	defer processor.Close()

	coord, err := pipeline.NewCoordinator(cfg, processor, &pipeline.FileSink{Dir: cfg.OutputDir, Format: format})
	if err != nil {
		exitWithError("failed to create coordinator", err)
	}

	start := time.Now()
	stats, err := coord.Run(ctx)
	if err != nil {
		exitWithError("conversion failed", err)
	}

	for _, f := range stats.Files {
		log.Info("Wrote output", zap.String("input", f.Path), zap.String("output", f.Output))
	}
	log.Info("Convert complete",
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
		zap.Int("markers", stats.Markers),
		zap.Int("areas", stats.Areas),
		zap.Int("paths", stats.Paths),
	)
}
