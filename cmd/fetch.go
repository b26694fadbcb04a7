package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmshapes-go/internal/config"
	"github.com/wegman-software/osmshapes-go/internal/export"
	"github.com/wegman-software/osmshapes-go/internal/logger"
	"github.com/wegman-software/osmshapes-go/internal/overpass"
	"github.com/wegman-software/osmshapes-go/internal/pipeline"
)

var (
	bboxStr    string
	queryFile  string
	outputFile string
	rawOutput  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Query the Overpass API and convert the result",
	Long: `Run an Overpass query and write the converted shapes.

The query is either read from --query or built from --bbox, selecting every
node, way and relation in the box with inline geometry. With --raw the
Overpass JSON is written unchanged so it can be converted later.`,
	Args: cobra.NoArgs,
	Run:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&bboxStr, "bbox", "b", "", "Bounding box: minlon,minlat,maxlon,maxlat")
	fetchCmd.Flags().StringVarP(&queryFile, "query", "q", "", "File containing an Overpass QL query")
	fetchCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	fetchCmd.Flags().StringVarP(&cfg.OutputFormat, "format", "f", cfg.OutputFormat, "Output format: geojson, kml or polyline")
	fetchCmd.Flags().BoolVar(&rawOutput, "raw", false, "Write the Overpass JSON response without converting it")
}

func runFetch(cmd *cobra.Command, args []string) {
	log := logger.Get()

	query, err := fetchQuery()
	if err != nil {
		exitWithError("invalid query", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := overpass.NewClient(cfg, logger.Named("overpass"))
	log.Info("Querying Overpass", zap.String("endpoint", client.Endpoint()))

	var out io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			exitWithError("failed to create output file", err)
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	if rawOutput {
		body, err := client.Raw(ctx, query)
		if err != nil {
			exitWithError("overpass request failed", err)
		}
		if _, err := w.Write(body); err != nil {
			exitWithError("failed to write output", err)
		}
		return
	}

	format, err := export.ParseFormat(cfg.OutputFormat)
	if err != nil {
		exitWithError("invalid output format", err)
	}

	elems, stats, err := client.Fetch(ctx, query)
	if err != nil {
		exitWithError("overpass request failed", err)
	}
	log.Info("Fetched elements", zap.Int("decoded", stats.Decoded), zap.Int("skipped", stats.Skipped))

	processor, err := pipeline.NewProcessor(cfg, log)
	if err != nil {
		exitWithError("failed to create processor", err)
	}
	defer processor.Close()

	result, err := processor.Process(ctx, elems)
	if err != nil {
		exitWithError("conversion failed", err)
	}
	if err := export.Write(w, format, result.Result, result.View); err != nil {
		exitWithError("failed to write output", err)
	}

	markers, areas, paths := result.Result.Counts()
	log.Info("Fetch complete",
		zap.Int("markers", markers),
		zap.Int("areas", areas),
		zap.Int("paths", paths),
		zap.Int("zoom", result.View.Zoom))
}

// fetchQuery returns the query from --query or builds one from --bbox
func fetchQuery() (string, error) {
	if queryFile != "" {
		data, err := os.ReadFile(queryFile)
		if err != nil {
			return "", fmt.Errorf("failed to read query: %w", err)
		}
		return string(data), nil
	}

	bbox, err := config.ParseBBox(bboxStr)
	if err != nil {
		return "", err
	}
	if bbox == nil {
		return "", fmt.Errorf("either --query or --bbox is required")
	}
	cfg.BBox = bbox
	return overpass.BBoxQuery(*bbox, cfg.OverpassTimeout), nil
}
