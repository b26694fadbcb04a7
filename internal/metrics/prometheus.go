// Package metrics samples process and system health and exposes shape
// conversion counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmshapes",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "osmshapes",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// ShapesBuilt counts emitted features by kind (marker, area, path)
	ShapesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmshapes",
		Subsystem: "build",
		Name:      "shapes_total",
		Help:      "Total features emitted by the shape builder",
	}, []string{"kind"})

	// BuildDuration observes the time spent converting one element set
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "osmshapes",
		Subsystem: "build",
		Name:      "duration_seconds",
		Help:      "Duration of a single shape build",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	// ElementsRead counts raw elements decoded from input, by kind
	ElementsRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmshapes",
		Subsystem: "source",
		Name:      "elements_total",
		Help:      "Total raw OSM elements decoded",
	}, []string{"kind"})

	// OverpassRequests counts upstream Overpass calls by outcome
	OverpassRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmshapes",
		Subsystem: "overpass",
		Name:      "requests_total",
		Help:      "Total Overpass API requests",
	}, []string{"outcome"})

	processCPU = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "osmshapes",
		Subsystem: "process",
		Name:      "cpu_percent",
		Help:      "Process CPU usage sampled by the collector",
	})

	processRSS = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "osmshapes",
		Subsystem: "process",
		Name:      "rss_megabytes",
		Help:      "Process resident set size sampled by the collector",
	})

	systemMemory = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "osmshapes",
		Subsystem: "system",
		Name:      "memory_percent",
		Help:      "System memory usage sampled by the collector",
	})
)

// RecordBuild records one finished build
func RecordBuild(markers, areas, paths int, took time.Duration) {
	ShapesBuilt.WithLabelValues("marker").Add(float64(markers))
	ShapesBuilt.WithLabelValues("area").Add(float64(areas))
	ShapesBuilt.WithLabelValues("path").Add(float64(paths))
	BuildDuration.Observe(took.Seconds())
}

// Observe publishes a collector sample as gauges
func Observe(m *SystemMetrics) {
	processCPU.Set(m.ProcessCPUPercent)
	processRSS.Set(m.ProcessRSSMB)
	systemMemory.Set(m.MemoryPercent)
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus exposition format
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
