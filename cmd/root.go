package cmd

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmshapes-go/internal/config"
	"github.com/wegman-software/osmshapes-go/internal/logger"
)

var (
	cfg             = config.DefaultConfig()
	configFile      string
	verbose         bool
	logFile         string
	metricsInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "osmshapes-go",
	Short: "Turn OpenStreetMap features into map-ready shapes",
	Long: `osmshapes-go converts raw OpenStreetMap data into markers, filled areas
and lines ready for a map renderer.

Features:
  - Overpass JSON, OSM XML and PBF input
  - Multipolygon ring assembly from relation member segments
  - Very small shapes flagged and given a centroid marker
  - GeoJSON, KML and encoded polyline output, or PostGIS tables
  - YAML style filters and Lua tag hooks
  - HTTP API with Prometheus metrics`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg.Verbose = verbose
		cfg.LogFile = logFile
		cfg.MetricsInterval = metricsInterval

		// Initialize logger with optional file output
		if logFile != "" {
			logger.InitWithFile(verbose, logFile)
		} else {
			logger.Init(verbose)
		}

		loaded, err := config.Load(configFile, cfg)
		if err != nil {
			exitWithError("invalid configuration", err)
		}
		cfg = loaded
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./osmshapes.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of parallel workers")

	// Shape flags
	rootCmd.PersistentFlags().StringVarP(&cfg.StyleFile, "style", "S", "", "Style YAML file for tag filtering")
	rootCmd.PersistentFlags().StringVar(&cfg.LuaScript, "lua", "", "Lua script with process_marker/process_shape hooks")
	rootCmd.PersistentFlags().Float64Var(&cfg.SmallExtent, "small-extent", cfg.SmallExtent, "Span in degrees below which a shape is very small")
	rootCmd.PersistentFlags().IntVar(&cfg.ViewWidth, "view-width", cfg.ViewWidth, "Viewport width in pixels used to frame results")
	rootCmd.PersistentFlags().IntVar(&cfg.ViewHeight, "view-height", cfg.ViewHeight, "Viewport height in pixels used to frame results")

	// Logging and metrics flags
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file for persistent logging (JSON format)")
	rootCmd.PersistentFlags().DurationVar(&metricsInterval, "metrics-interval", 0, "Interval for system metrics logging, 0 disables (e.g., 10s, 1m)")

	// Overpass flags
	rootCmd.PersistentFlags().StringVar(&cfg.OverpassURL, "overpass-url", cfg.OverpassURL, "Overpass API interpreter endpoint")
	rootCmd.PersistentFlags().DurationVar(&cfg.OverpassTimeout, "overpass-timeout", cfg.OverpassTimeout, "Overpass request timeout")

	// Database flags (persistent so they're available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "PostgreSQL host")
	rootCmd.PersistentFlags().IntVar(&cfg.DBPort, "db-port", cfg.DBPort, "PostgreSQL port")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBName, "db-name", "d", cfg.DBName, "PostgreSQL database name")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBUser, "db-user", "U", cfg.DBUser, "PostgreSQL user")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBPassword, "db-password", "W", cfg.DBPassword, "PostgreSQL password")
	rootCmd.PersistentFlags().StringVar(&cfg.DBSchema, "db-schema", cfg.DBSchema, "PostgreSQL schema")
	rootCmd.PersistentFlags().StringVar(&cfg.TablePrefix, "table-prefix", cfg.TablePrefix, "Prefix for output table names")
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	os.Exit(1)
}
