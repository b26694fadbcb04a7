// Package server exposes shape conversion over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/config"
	"github.com/wegman-software/osmshapes-go/internal/element"
	"github.com/wegman-software/osmshapes-go/internal/export"
	"github.com/wegman-software/osmshapes-go/internal/metrics"
	"github.com/wegman-software/osmshapes-go/internal/overpass"
	"github.com/wegman-software/osmshapes-go/internal/pipeline"
)

// Fetcher runs Overpass queries. Implemented by *overpass.Client.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]element.Element, element.DecodeStats, error)
}

// Server serves the shape API
type Server struct {
	cfg       *config.Config
	app       *fiber.App
	processor *pipeline.Processor
	fetcher   Fetcher
	log       *zap.Logger
}

// New creates a server. fetcher may be nil, which disables bbox queries.
func New(cfg *config.Config, processor *pipeline.Processor, fetcher Fetcher, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "osmshapes-go",
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	s := &Server{
		cfg:       cfg,
		app:       app,
		processor: processor,
		fetcher:   fetcher,
		log:       log,
	}
	s.routes()
	return s
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(metrics.Middleware())

	s.app.Get("/metrics", metrics.Handler())

	v1 := s.app.Group("/v1")
	v1.Get("/health", s.health)
	v1.Get("/formats", s.formats)
	v1.Post("/shapes", s.convertBody)
	v1.Get("/shapes", s.convertBBox)
}

// Listen serves on the configured address until ctx is cancelled
func (s *Server) Listen(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server starting", zap.String("addr", s.cfg.ListenAddr))
		errCh <- s.app.Listen(s.cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("HTTP server stopped")
	return nil
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) formats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"formats": export.Formats})
}

// convertBody converts an Overpass JSON document posted as the body
func (s *Server) convertBody(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format", string(export.FormatGeoJSON)))
	if err != nil {
		return errBadRequest(c, err.Error())
	}

	elems, stats, err := element.DecodeOverpass(bytes.NewReader(c.Body()), s.log)
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	if stats.Skipped > 0 {
		c.Set("X-Skipped-Elements", strconv.Itoa(stats.Skipped))
	}

	return s.render(c, elems, format)
}

// convertBBox fetches everything inside ?bbox= from Overpass and converts it
func (s *Server) convertBBox(c *fiber.Ctx) error {
	if s.fetcher == nil {
		return newError(c, fiber.StatusNotImplemented, "not_implemented", "bbox queries are disabled")
	}

	format, err := export.ParseFormat(c.Query("format", string(export.FormatGeoJSON)))
	if err != nil {
		return errBadRequest(c, err.Error())
	}

	bbox, err := config.ParseBBox(c.Query("bbox"))
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	if bbox == nil {
		return errBadRequest(c, "missing bbox parameter")
	}

	elems, _, err := s.fetcher.Fetch(c.UserContext(), overpass.BBoxQuery(*bbox, s.cfg.OverpassTimeout))
	if err != nil {
		s.log.Warn("Overpass request failed", zap.Error(err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return newError(c, fiber.StatusGatewayTimeout, "upstream_timeout", err.Error())
		}
		return newError(c, fiber.StatusBadGateway, "upstream_error", err.Error())
	}

	return s.render(c, elems, format)
}

func (s *Server) render(c *fiber.Ctx, elems []element.Element, format export.Format) error {
	out, err := s.processor.Process(c.UserContext(), elems)
	if err != nil {
		return errInternal(c, err.Error())
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, out.Result, out.View); err != nil {
		return errInternal(c, err.Error())
	}

	markers, areas, paths := out.Result.Counts()
	s.log.Debug("Rendered shapes",
		zap.String("format", string(format)),
		zap.Int("markers", markers),
		zap.Int("areas", areas),
		zap.Int("paths", paths),
		zap.Duration("took", out.Took))

	if out.View.Tiles != nil {
		c.Set("X-Tiles", strconv.Itoa(out.View.Tiles.TileCount()))
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(buf.Bytes())
}
