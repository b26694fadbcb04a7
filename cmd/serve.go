package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/logger"
	"github.com/wegman-software/osmshapes-go/internal/metrics"
	"github.com/wegman-software/osmshapes-go/internal/overpass"
	"github.com/wegman-software/osmshapes-go/internal/pipeline"
	"github.com/wegman-software/osmshapes-go/internal/server"
)

var noOverpass bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve shape conversion over HTTP",
	Long: `Start an HTTP server converting OSM data on request.

Endpoints:
  POST /v1/shapes?format=geojson   convert an Overpass JSON body
  GET  /v1/shapes?bbox=...         fetch a bounding box from Overpass and convert it
  GET  /v1/formats                 list output formats
  GET  /v1/health                  liveness probe
  GET  /metrics                    Prometheus metrics`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&cfg.ListenAddr, "listen", "l", cfg.ListenAddr, "Address to listen on")
	serveCmd.Flags().IntVar(&cfg.BodyLimit, "body-limit", cfg.BodyLimit, "Maximum request body in bytes")
	serveCmd.Flags().BoolVar(&noOverpass, "no-overpass", false, "Disable bounding box queries against Overpass")
}

func runServe(cmd *cobra.Command, args []string) {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsInterval > 0 {
		collector := metrics.NewCollector(cfg.MetricsInterval, logger.Named("metrics"), metrics.Observe)
		go collector.Start(ctx)
	}

	processor, err := pipeline.NewProcessor(cfg, log)
	if err != nil {
		exitWithError("failed to create processor", err)
	}
	defer processor.Close()

	var fetcher server.Fetcher
	if !noOverpass {
		fetcher = overpass.NewClient(cfg, logger.Named("overpass"))
	}

	srv := server.New(cfg, processor, fetcher, logger.Named("server"))
	if err := srv.Listen(ctx); err != nil {
		exitWithError("server failed", err)
	}
	log.Info("Server exited", zap.String("addr", cfg.ListenAddr))
}
