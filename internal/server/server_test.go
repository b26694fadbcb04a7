package server

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osmshapes-go/internal/config"
	"github.com/wegman-software/osmshapes-go/internal/element"
	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/pipeline"
)

const body = `{
	"elements": [
		{"type": "node", "id": 1, "lat": 43.73, "lon": 7.42, "tags": {"amenity": "cafe"}},
		{"type": "way", "id": 2, "tags": {"highway": "footway"}, "geometry": [
			{"lat": 43.70, "lon": 7.40}, {"lat": 43.71, "lon": 7.41}
		]},
		{"type": "bogus", "id": 3}
	]
}`

type fakeFetcher struct {
	query string
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, query string) ([]element.Element, element.DecodeStats, error) {
	f.query = query
	if f.err != nil {
		return nil, element.DecodeStats{}, f.err
	}
	return []element.Element{
		&element.Way{Geometry: []geom.Coord{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}},
	}, element.DecodeStats{Decoded: 1}, nil
}

func setupApp(t *testing.T, fetcher Fetcher) *fiber.App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ViewWidth = 800
	cfg.ViewHeight = 600

	p, err := pipeline.NewProcessor(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	return New(cfg, p, fetcher, nil).App()
}

func readBody(t *testing.T, r io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return b
}

func TestHealth(t *testing.T) {
	app := setupApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(readBody(t, resp.Body)))
}

func TestFormats(t *testing.T) {
	app := setupApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/formats", nil), -1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"formats":["geojson","kml","polyline"]}`, string(readBody(t, resp.Body)))
}

func TestConvertBodyGeoJSON(t *testing.T) {
	app := setupApp(t, nil)

	req := httptest.NewRequest("POST", "/v1/shapes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "1", resp.Header.Get("X-Skipped-Elements"))
	assert.NotEmpty(t, resp.Header.Get("X-Tiles"))

	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
		Zoom     int               `json:"zoom"`
		Tiles    struct {
			Z int `json:"z"`
		} `json:"tiles"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp.Body), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 2)
	assert.Positive(t, fc.Zoom)
	assert.Equal(t, fc.Zoom, fc.Tiles.Z)
}

func TestConvertBodyKML(t *testing.T) {
	app := setupApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/shapes?format=kml", strings.NewReader(body)), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	out := string(readBody(t, resp.Body))
	assert.Contains(t, out, "<kml")
	assert.Contains(t, out, "<LineString>")
}

func TestConvertBodyErrors(t *testing.T) {
	app := setupApp(t, nil)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"unknown format", "/v1/shapes?format=svg", body},
		{"malformed body", "/v1/shapes", `{"elements": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("POST", tt.target, strings.NewReader(tt.body)), -1)
			require.NoError(t, err)
			assert.Equal(t, 400, resp.StatusCode)

			var apiErr APIError
			require.NoError(t, json.Unmarshal(readBody(t, resp.Body), &apiErr))
			assert.Equal(t, "bad_request", apiErr.Code)
			assert.NotEmpty(t, apiErr.RequestID)
		})
	}
}

func TestConvertBBox(t *testing.T) {
	fetcher := &fakeFetcher{}
	app := setupApp(t, fetcher)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/shapes?bbox=7.4,43.7,7.5,43.8&format=polyline", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, fetcher.query, "nwr(43.7000000,7.4000000,43.8000000,7.5000000)")
	assert.Contains(t, string(readBody(t, resp.Body)), `"polyline"`)
}

func TestConvertBBoxErrors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		resp, err := setupApp(t, nil).Test(httptest.NewRequest("GET", "/v1/shapes?bbox=1,2,3,4", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 501, resp.StatusCode)
	})

	t.Run("missing bbox", func(t *testing.T) {
		resp, err := setupApp(t, &fakeFetcher{}).Test(httptest.NewRequest("GET", "/v1/shapes", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("upstream failure", func(t *testing.T) {
		app := setupApp(t, &fakeFetcher{err: errors.New("max retries exceeded")})
		resp, err := app.Test(httptest.NewRequest("GET", "/v1/shapes?bbox=1,2,3,4", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 502, resp.StatusCode)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupApp(t, nil)

	_, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp.Body)), "osmshapes_http_requests_total")
}
