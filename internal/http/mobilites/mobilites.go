package mobilites

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/internal/model"
	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://data.mobilites-m.fr/api"
	DefaultNetwork = "SEM"

	routesEndpoint   = "routers/default/index/routes"
	geometryEndpoint = "lines/json"
	cacheTTL         = 6 * time.Hour
)

var ErrUnknownGeometry = errors.New("unrecognised line geometry payload")

// Client reads the transit network index: lines, their stops and shapes.
type Client struct {
	BaseURL    *url.URL
	Network    string
	HTTPClient *http.Client
	Logger     *slog.Logger

	cache gcache.Cache
}

func NewClient(baseURL, network string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse transit base URL")
	}
	if network == "" {
		network = DefaultNetwork
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: u,
		Network: network,
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		Logger: logger,
		cache:  gcache.New(256).LRU().Expiration(cacheTTL).Build(),
	}, nil
}

// --- Response Structures ---

type Route struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
	Color     string `json:"color"`
	TextColor string `json:"textColor,omitempty"`
	Mode      string `json:"mode"`
	Type      string `json:"type,omitempty"`
}

type Cluster struct {
	Code    string  `json:"code"`
	City    string  `json:"city"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Visible bool    `json:"visible"`
}

type routesQuery struct {
	Networks string `url:"reseaux"`
}

type geometryQuery struct {
	Types string `url:"types"`
	Codes string `url:"codes"`
}

// Lines lists the routes of the configured network.
func (c *Client) Lines(ctx context.Context) ([]model.TransitLine, error) {
	key := "lines|" + c.Network
	if cached, err := c.cache.Get(key); err == nil {
		return cached.([]model.TransitLine), nil
	}

	var routes []Route
	if err := c.get(ctx, routesEndpoint, routesQuery{Networks: c.Network}, &routes); err != nil {
		return nil, errors.Wrap(err, "fetch routes")
	}

	lines := make([]model.TransitLine, 0, len(routes))
	for _, r := range routes {
		lines = append(lines, model.TransitLine{
			ID:        r.ID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Color:     r.Color,
			Mode:      r.Mode,
		})
	}
	_ = c.cache.Set(key, lines)
	logging.LogOperation(c.Logger, "transit_lines_fetched", slog.String("network", c.Network), slog.Int("count", len(lines)))
	return lines, nil
}

// Stops lists the stop clusters served by a line.
func (c *Client) Stops(ctx context.Context, lineID string) ([]model.TransitStop, error) {
	endpoint := routesEndpoint + "/" + url.PathEscape(lineID) + "/clusters"

	var clusters []Cluster
	if err := c.get(ctx, endpoint, nil, &clusters); err != nil {
		return nil, errors.Wrapf(err, "fetch clusters of %s", lineID)
	}

	stops := make([]model.TransitStop, 0, len(clusters))
	for _, cl := range clusters {
		stops = append(stops, model.TransitStop{
			Code: cl.Code,
			Name: cl.Name,
			City: cl.City,
			At:   model.Coordinate{Lat: cl.Lat, Lon: cl.Lon},
		})
	}
	return stops, nil
}

// Geometry fetches a line shape and resolves which format it came in.
func (c *Client) Geometry(ctx context.Context, lineID string) (model.LineGeometry, error) {
	key := "geometry|" + lineID
	if cached, err := c.cache.Get(key); err == nil {
		return cached.(model.LineGeometry), nil
	}

	var raw json.RawMessage
	params := geometryQuery{Types: "ligne", Codes: strings.ReplaceAll(lineID, ":", "_")}
	if err := c.get(ctx, geometryEndpoint, params, &raw); err != nil {
		return model.LineGeometry{}, errors.Wrapf(err, "fetch geometry of %s", lineID)
	}

	geom, err := ParseLineGeometry(raw)
	if err != nil {
		return model.LineGeometry{}, errors.Wrapf(err, "parse geometry of %s", lineID)
	}
	_ = c.cache.Set(key, geom)
	return geom, nil
}

// ParseLineGeometry accepts either a GeoJSON FeatureCollection or the legacy
// array of encoded polylines (bare strings or {"points": ...} objects).
func ParseLineGeometry(raw []byte) (model.LineGeometry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return model.LineGeometry{}, ErrUnknownGeometry
	}

	switch trimmed[0] {
	case '{':
		var fc model.FeatureCollection
		if err := json.Unmarshal(trimmed, &fc); err != nil {
			return model.LineGeometry{}, errors.Wrap(err, "decode feature collection")
		}
		if fc.Type != "FeatureCollection" {
			return model.LineGeometry{}, ErrUnknownGeometry
		}
		return model.LineGeometry{Format: model.GeometryGeoJSON, GeoJSON: &fc}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return model.LineGeometry{}, errors.Wrap(err, "decode polyline array")
		}
		encoded := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				encoded = append(encoded, s)
				continue
			}
			var obj struct {
				Points string `json:"points"`
			}
			if err := json.Unmarshal(item, &obj); err != nil || obj.Points == "" {
				return model.LineGeometry{}, ErrUnknownGeometry
			}
			encoded = append(encoded, obj.Points)
		}
		return model.LineGeometry{Format: model.GeometryEncoded, Encoded: encoded}, nil
	default:
		return model.LineGeometry{}, ErrUnknownGeometry
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params interface{}, v interface{}) error {
	reqURL, err := c.buildURL(endpoint, params)
	if err != nil {
		return errors.Wrap(err, "build URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	// the index API rejects requests without an origin header
	req.Header.Set("Origin", "trip-planner")
	return c.do(req, v)
}

func (c *Client) buildURL(endpoint string, queryParams interface{}) (string, error) {
	rel, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrap(err, "parse endpoint")
	}
	u := c.BaseURL.ResolveReference(rel)

	if queryParams != nil {
		v, err := query.Values(queryParams)
		if err != nil {
			return "", errors.Wrap(err, "encode query parameters")
		}
		u.RawQuery = v.Encode()
	}
	return u.String(), nil
}

// do executes HTTP requests and decodes JSON responses.
func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "execute HTTP request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("transit request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}
