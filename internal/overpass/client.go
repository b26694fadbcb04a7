// Package overpass runs Overpass QL queries and decodes their JSON results.
package overpass

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wegman-software/osmshapes-go/internal/config"
	"github.com/wegman-software/osmshapes-go/internal/element"
	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/metrics"
)

// Client posts queries to an Overpass API interpreter endpoint
type Client struct {
	endpoint   string
	userAgent  string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	log        *zap.Logger
}

// NewClient creates a client from the Overpass settings in cfg
func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	retries := cfg.OverpassRetries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		endpoint:  cfg.OverpassURL,
		userAgent: cfg.UserAgent,
		client: &http.Client{
			Timeout: cfg.OverpassTimeout,
		},
		maxRetries: retries,
		retryDelay: 5 * time.Second,
		log:        log,
	}
}

// Endpoint returns the interpreter URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// BBoxQuery returns a query for every node, way and relation inside b,
// with geometry and bounds inlined so no further lookups are needed
func BBoxQuery(b geom.BBox, timeout time.Duration) string {
	secs := int(timeout.Seconds())
	if secs <= 0 {
		secs = 180
	}
	return fmt.Sprintf("[out:json][timeout:%d];(nwr(%s););out geom;", secs, b.OverpassString())
}

// Raw runs query and returns the response body
func (c *Client) Raw(ctx context.Context, query string) ([]byte, error) {
	resp, err := c.postWithRetry(ctx, query)
	if err != nil {
		metrics.OverpassRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.OverpassRequests.WithLabelValues("rejected").Inc()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.OverpassRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	metrics.OverpassRequests.WithLabelValues("ok").Inc()
	return body, nil
}

// Fetch runs query and decodes the result into elements
func (c *Client) Fetch(ctx context.Context, query string) ([]element.Element, element.DecodeStats, error) {
	body, err := c.Raw(ctx, query)
	if err != nil {
		return nil, element.DecodeStats{}, err
	}

	elems, stats, err := element.DecodeOverpass(bytes.NewReader(body), c.log)
	if err != nil {
		return nil, stats, err
	}

	c.log.Debug("Fetched elements",
		zap.Int("decoded", stats.Decoded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("bytes", len(body)))
	return elems, stats, nil
}

// postWithRetry sends the query form-encoded, retrying on gateway timeouts,
// rate limiting and server errors
func (c *Client) postWithRetry(ctx context.Context, query string) (*http.Response, error) {
	form := url.Values{"data": {query}}.Encode()
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			c.log.Debug("Retrying Overpass request", zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
