// Package loader writes converted shapes into PostGIS tables.
package loader

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/config"
	"github.com/wegman-software/osmshapes-go/internal/shape"
	"github.com/wegman-software/osmshapes-go/internal/wkb"
)

// Table kinds
const (
	KindMarkers = "markers"
	KindPaths   = "paths"
	KindAreas   = "areas"
)

var kinds = []string{KindMarkers, KindPaths, KindAreas}

// columns are the COPY columns of every output table
var columns = []string{"osm_id", "role", "very_small", "source", "tags", "geom"}

// DB is the subset of pgxpool.Pool used by the loader
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Stats holds loader statistics
type Stats struct {
	Markers int64
	Paths   int64
	Areas   int64
}

// RowsLoaded returns the total number of rows copied
func (s Stats) RowsLoaded() int64 {
	return s.Markers + s.Paths + s.Areas
}

// Loader copies shape results into PostgreSQL
type Loader struct {
	cfg  *config.Config
	db   DB
	pool *pgxpool.Pool
	log  *zap.Logger

	markers atomic.Int64
	paths   atomic.Int64
	areas   atomic.Int64
}

// NewLoader connects to PostgreSQL
func NewLoader(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Loader, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Workers)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	l := New(cfg, pool, log)
	l.pool = pool
	return l, nil
}

// New creates a loader on an existing connection
func New(cfg *config.Config, db DB, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{cfg: cfg, db: db, log: log}
}

// Close closes the connection pool if the loader owns one
func (l *Loader) Close() error {
	if l.pool != nil {
		l.pool.Close()
	}
	return nil
}

// Identifier returns the schema-qualified name of a table kind
func (l *Loader) Identifier(kind string) pgx.Identifier {
	return pgx.Identifier{l.cfg.DBSchema, l.cfg.Table(kind)}
}

// Prepare creates the PostGIS extension, schema and output tables.
// With drop set, existing tables are replaced.
func (l *Loader) Prepare(ctx context.Context, drop bool) error {
	if _, err := l.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis"); err != nil {
		return fmt.Errorf("failed to create PostGIS extension: %w", err)
	}

	if l.cfg.DBSchema != "public" {
		schema := pgx.Identifier{l.cfg.DBSchema}.Sanitize()
		if _, err := l.db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	for _, kind := range kinds {
		name := l.Identifier(kind).Sanitize()
		if drop {
			if _, err := l.db.Exec(ctx, "DROP TABLE IF EXISTS "+name+" CASCADE"); err != nil {
				return fmt.Errorf("failed to drop %s: %w", name, err)
			}
		}
		if _, err := l.db.Exec(ctx, CreateTableSQL(name)); err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
	}
	return nil
}

// CreateTableSQL returns the DDL of an output table
func CreateTableSQL(name string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			osm_id BIGINT,
			role TEXT,
			very_small BOOLEAN NOT NULL DEFAULT false,
			source TEXT,
			tags JSONB,
			geom GEOMETRY(Geometry, %d)
		)
	`, name, wkb.SRID4326)
}

// Load copies res into the output tables, tagging rows with source
func (l *Loader) Load(ctx context.Context, res *shape.Result, source string) (Stats, error) {
	var stats Stats
	rows := BuildRows(res, source)

	for _, kind := range kinds {
		if len(rows[kind]) == 0 {
			continue
		}
		n, err := l.copyBatches(ctx, kind, rows[kind])
		if err != nil {
			return stats, err
		}

		switch kind {
		case KindMarkers:
			stats.Markers = n
			l.markers.Add(n)
		case KindPaths:
			stats.Paths = n
			l.paths.Add(n)
		case KindAreas:
			stats.Areas = n
			l.areas.Add(n)
		}
	}

	l.log.Debug("Loaded shapes",
		zap.String("source", source),
		zap.Int64("markers", stats.Markers),
		zap.Int64("paths", stats.Paths),
		zap.Int64("areas", stats.Areas))
	return stats, nil
}

// copyBatches copies rows in chunks of at most BatchSize rows
func (l *Loader) copyBatches(ctx context.Context, kind string, rows [][]any) (int64, error) {
	size := l.cfg.BatchSize
	if size < 1 {
		size = len(rows)
	}

	var total int64
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		n, err := l.db.CopyFrom(ctx, l.Identifier(kind), columns, pgx.CopyFromRows(rows[start:end]))
		if err != nil {
			return total, fmt.Errorf("failed to copy %s: %w", kind, err)
		}
		total += n
	}
	return total, nil
}

// Totals returns the rows loaded since the loader was created
func (l *Loader) Totals() Stats {
	return Stats{Markers: l.markers.Load(), Paths: l.paths.Load(), Areas: l.areas.Load()}
}

// Finalize creates indexes and analyzes the output tables
func (l *Loader) Finalize(ctx context.Context) error {
	for _, kind := range kinds {
		name := l.Identifier(kind).Sanitize()
		short := pgx.Identifier{l.cfg.Table(kind) + "_geom_idx"}.Sanitize()

		l.log.Info("Creating index", zap.String("table", l.cfg.Table(kind)))
		if _, err := l.db.Exec(ctx, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (geom)", short, name)); err != nil {
			return fmt.Errorf("failed to index %s: %w", name, err)
		}
		if _, err := l.db.Exec(ctx, "ANALYZE "+name); err != nil {
			return fmt.Errorf("failed to analyze %s: %w", name, err)
		}
	}
	return nil
}
