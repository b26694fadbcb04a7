package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/wegman-software/osmshapes-go/internal/geom"
)

// ParseBBox parses a bbox string in format "minlon,minlat,maxlon,maxlat".
// An empty string means no bbox.
func ParseBBox(s string) (*geom.BBox, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	bbox, err := geom.ParseBBox(s)
	if err != nil {
		return nil, err
	}
	return &bbox, nil
}

// Config holds the global configuration shared by all commands
type Config struct {
	// Input settings
	InputFiles  []string   `mapstructure:"input_files"`
	InputFormat string     `mapstructure:"input_format"` // empty = detect from extension
	BBox        *geom.BBox `mapstructure:"-"`

	// Output settings
	OutputDir    string `mapstructure:"output_dir"`
	OutputFormat string `mapstructure:"output_format"`
	StyleFile    string `mapstructure:"style_file"` // Path to style YAML file for tag filtering
	LuaScript    string `mapstructure:"lua_script"` // Path to Lua tag hooks

	// Shape settings
	SmallExtent float64 `mapstructure:"small_extent"` // Degrees below which a shape is very small
	ViewWidth   int     `mapstructure:"view_width"`   // Viewport used for framing, in pixels
	ViewHeight  int     `mapstructure:"view_height"`

	// Overpass settings
	OverpassURL     string        `mapstructure:"overpass_url"`
	OverpassTimeout time.Duration `mapstructure:"overpass_timeout"`
	OverpassRetries int           `mapstructure:"overpass_retries"`
	UserAgent       string        `mapstructure:"user_agent"`

	// Database settings
	DBHost      string `mapstructure:"db_host"`
	DBPort      int    `mapstructure:"db_port"`
	DBName      string `mapstructure:"db_name"`
	DBUser      string `mapstructure:"db_user"`
	DBPassword  string `mapstructure:"db_password"`
	DBSchema    string `mapstructure:"db_schema"`
	TablePrefix string `mapstructure:"table_prefix"`

	// Processing settings
	Workers   int `mapstructure:"workers"`
	BatchSize int `mapstructure:"batch_size"`

	// Server settings
	ListenAddr   string        `mapstructure:"listen_addr"`
	BodyLimit    int           `mapstructure:"body_limit"` // Max request body in bytes
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Logging and metrics
	Verbose         bool          `mapstructure:"verbose"`
	LogFile         string        `mapstructure:"log_file"` // Path to log file (empty = no file logging)
	MetricsInterval time.Duration `mapstructure:"metrics_interval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OutputDir:       ".",
		OutputFormat:    "geojson",
		SmallExtent:     0.0005,
		ViewWidth:       1024,
		ViewHeight:      768,
		OverpassURL:     "https://overpass-api.de/api/interpreter",
		OverpassTimeout: 3 * time.Minute,
		OverpassRetries: 3,
		UserAgent:       "osmshapes-go/1.0",
		DBHost:          "localhost",
		DBPort:          5432,
		DBName:          "osm",
		DBUser:          "postgres",
		DBPassword:      "",
		DBSchema:        "public",
		TablePrefix:     "osmshapes",
		Workers:         runtime.NumCPU(),
		BatchSize:       10000,
		ListenAddr:      ":8080",
		BodyLimit:       64 << 20,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		MetricsInterval: 30 * time.Second,
	}
}

// ConnectionString returns a PostgreSQL connection string
func (c *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBName, c.DBUser,
	)
	if c.DBPassword != "" {
		connStr += fmt.Sprintf(" password=%s", c.DBPassword)
	}
	return connStr
}

// Table returns the qualified name suffix for an output table
func (c *Config) Table(kind string) string {
	if c.TablePrefix == "" {
		return kind
	}
	return c.TablePrefix + "_" + kind
}

// Validate checks the settings shared by every command
func (c *Config) Validate() error {
	var errs []string

	if c.Workers < 1 {
		errs = append(errs, "workers must be at least 1")
	}
	if c.BatchSize < 1 {
		errs = append(errs, "batch size must be at least 1")
	}
	if c.SmallExtent <= 0 {
		errs = append(errs, "small extent must be positive")
	}
	if c.ViewWidth < 1 || c.ViewHeight < 1 {
		errs = append(errs, fmt.Sprintf("view size must be positive, got %dx%d", c.ViewWidth, c.ViewHeight))
	}
	if c.OverpassRetries < 1 {
		errs = append(errs, "overpass retries must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateInput additionally requires at least one input file
func (c *Config) ValidateInput() error {
	if len(c.InputFiles) == 0 {
		return fmt.Errorf("input file is required")
	}
	return c.Validate()
}
