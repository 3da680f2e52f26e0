package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/internal/model"
	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	searchEndpoint = "search"
	cacheTTL       = 24 * time.Hour
)

// ErrNotFound is returned when the search yields no candidate.
var ErrNotFound = errors.New("no place matches the query")

// Client is a rate limited, caching Nominatim search client.
type Client struct {
	BaseURL    *url.URL
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger

	limiter *rate.Limiter
	cache   gcache.Cache
}

type Options struct {
	BaseURL       string
	UserAgent     string
	RatePerSecond float64
	CacheSize     int
	Timeout       time.Duration
	Logger        *slog.Logger
}

func NewClient(opts Options) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse geocoder base URL")
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		BaseURL:   u,
		UserAgent: opts.UserAgent,
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		Logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		cache: gcache.New(opts.CacheSize).
			LRU().
			Expiration(cacheTTL).
			Build(),
	}, nil
}

// SearchQuery represents parameters for /search.
type SearchQuery struct {
	Format  string `url:"format"`
	Q       string `url:"q"`
	Viewbox string `url:"viewbox,omitempty"`
	Bounded int    `url:"bounded,omitempty"`
	Limit   int    `url:"limit"`
}

// Candidate is one search hit; coordinates come back as strings.
type Candidate struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type,omitempty"`
}

// Search returns the best match for text, bounded to viewbox when one is known.
func (c *Client) Search(ctx context.Context, text string, viewbox model.Viewport) (model.Place, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Place{}, ErrNotFound
	}

	params := SearchQuery{Format: "json", Q: text, Limit: 1}
	if !viewbox.IsZero() {
		params.Viewbox = viewbox.Viewbox()
		params.Bounded = 1
	}

	key := params.Q + "|" + params.Viewbox
	if cached, err := c.cache.Get(key); err == nil {
		return cached.(model.Place), nil
	}

	candidates, err := c.search(ctx, params)
	if err != nil {
		return model.Place{}, err
	}
	if len(candidates) == 0 {
		logging.LogOperation(c.Logger, "geocode_miss", slog.String("query", text))
		return model.Place{}, ErrNotFound
	}

	place, err := candidates[0].Place()
	if err != nil {
		return model.Place{}, err
	}
	_ = c.cache.Set(key, place)
	return place, nil
}

// Place parses the candidate's string coordinates.
func (cd Candidate) Place() (model.Place, error) {
	lat, err := strconv.ParseFloat(cd.Lat, 64)
	if err != nil {
		return model.Place{}, errors.Wrapf(err, "parse latitude %q", cd.Lat)
	}
	lon, err := strconv.ParseFloat(cd.Lon, 64)
	if err != nil {
		return model.Place{}, errors.Wrapf(err, "parse longitude %q", cd.Lon)
	}
	return model.Place{Name: cd.DisplayName, At: model.Coordinate{Lat: lat, Lon: lon}}, nil
}

func (c *Client) search(ctx context.Context, params SearchQuery) ([]Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "wait for geocoder rate limit")
	}

	reqURL, err := c.buildURL(searchEndpoint, params)
	if err != nil {
		return nil, errors.Wrap(err, "build search URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create search request")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	var result []Candidate
	if err := c.do(req, &result); err != nil {
		return nil, errors.Wrap(err, "execute search request")
	}
	return result, nil
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
		return fmt.Errorf("geocoder request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}
