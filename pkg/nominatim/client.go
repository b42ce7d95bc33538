// Package nominatim resolves a city name to its boundary polygon using the
// OpenStreetMap Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client queries Nominatim for city boundaries. Requests are rate limited to
// 1 req/s by default, per the Nominatim usage policy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the Nominatim endpoint (tests, self-hosted mirrors).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header Nominatim requires.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a Nominatim client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  "uhi-cli/1.0",
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResult struct {
	DisplayName string          `json:"display_name"`
	GeoJSON     json.RawMessage `json:"geojson"`
	BoundingBox []string        `json:"boundingbox"`
}

// CityBoundary geocodes "city[, country]" and returns its boundary polygon.
// Nominatim's polygon is preferred; when the match carries no polygon
// geometry, the bounding box is returned as a rectangle. A query with no
// results is an error.
func (c *Client) CityBoundary(ctx context.Context, city, country string) (*geom.Polygon, error) {
	if city == "" {
		return nil, eris.New("nominatim: city is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit wait")
	}

	q := city
	if country != "" {
		q = city + ", " + country
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("polygon_geojson", "1")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "nominatim: search %q", q)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: search %q: status %d", q, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode response")
	}
	if len(results) == 0 {
		return nil, eris.Errorf("nominatim: could not geocode city %q", q)
	}

	item := results[0]
	zap.L().Debug("nominatim: matched", zap.String("display_name", item.DisplayName))

	if len(item.GeoJSON) > 0 {
		poly, err := decodePolygon(item.GeoJSON)
		if err == nil {
			return poly, nil
		}
		zap.L().Warn("nominatim: unusable geojson, falling back to bounding box",
			zap.String("city", q),
			zap.Error(err),
		)
	}

	return bboxPolygon(item.BoundingBox)
}

// decodePolygon extracts a polygon from a GeoJSON geometry. MultiPolygon
// matches (city archipelagos) collapse to the largest member.
func decodePolygon(raw json.RawMessage) (*geom.Polygon, error) {
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode geojson")
	}

	switch t := g.(type) {
	case *geom.Polygon:
		return t, nil
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil, eris.New("nominatim: empty multipolygon")
		}
		best := t.Polygon(0)
		for i := 1; i < t.NumPolygons(); i++ {
			if t.Polygon(i).Area() > best.Area() {
				best = t.Polygon(i)
			}
		}
		return best, nil
	default:
		return nil, eris.Errorf("nominatim: unsupported geometry %T", g)
	}
}

// bboxPolygon builds a rectangle from Nominatim's boundingbox field, which is
// ordered [min_lat, max_lat, min_lon, max_lon] as strings.
func bboxPolygon(bbox []string) (*geom.Polygon, error) {
	if len(bbox) != 4 {
		return nil, eris.Errorf("nominatim: malformed bounding box %v", bbox)
	}
	vals := make([]float64, 4)
	for i, s := range bbox {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "nominatim: parse bounding box %v", bbox)
		}
		vals[i] = v
	}
	minLat, maxLat, minLon, maxLon := vals[0], vals[1], vals[2], vals[3]

	poly := geom.NewPolygon(geom.XY)
	_, err := poly.SetCoords([][]geom.Coord{{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}})
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build bbox polygon")
	}
	return poly, nil
}
