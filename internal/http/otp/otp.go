package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/internal/model"
	"github.com/bwise1/trip_planner/util"
	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://data.mobilites-m.fr/api/routers/default"
	planEndpoint   = "plan"
)

// Client talks to an OpenTripPlanner router.
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse planner base URL")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: u,
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		Logger: logger,
	}, nil
}

// --- Request/Response Structures ---

// PlanQuery is the query string of GET /plan.
type PlanQuery struct {
	FromPlace      string  `url:"fromPlace"`
	ToPlace        string  `url:"toPlace"`
	Mode           string  `url:"mode"`
	Date           string  `url:"date"`
	Time           string  `url:"time"`
	WalkSpeed      float64 `url:"walkSpeed"`
	BikeSpeed      float64 `url:"bikeSpeed"`
	NumItineraries int     `url:"numItineraries"`
}

type PlanResponse struct {
	Plan  *Plan      `json:"plan"`
	Error *PlanError `json:"error,omitempty"`
}

type PlanError struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

type Plan struct {
	Itineraries []Itinerary `json:"itineraries"`
}

type Itinerary struct {
	Duration  float64 `json:"duration"`
	StartTime int64   `json:"startTime"` // epoch ms
	EndTime   int64   `json:"endTime"`
	Legs      []Leg   `json:"legs"`
}

type Leg struct {
	Mode        string  `json:"mode"`
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	StartTime   int64   `json:"startTime"`
	EndTime     int64   `json:"endTime"`
	LegGeometry struct {
		Points string `json:"points"`
		Length int    `json:"length"`
	} `json:"legGeometry"`
	RouteShortName    string  `json:"routeShortName,omitempty"`
	RouteColor        string  `json:"routeColor,omitempty"`
	From              *Place  `json:"from,omitempty"`
	To                *Place  `json:"to,omitempty"`
	IntermediateStops []Place `json:"intermediateStops,omitempty"`
}

type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// NewPlanQuery renders req the way the router expects it.
func NewPlanQuery(req model.PlanRequest) PlanQuery {
	return PlanQuery{
		FromPlace:      req.From.String(),
		ToPlace:        req.To.String(),
		Mode:           string(req.Mode),
		Date:           util.FormatDate(req.Departure),
		Time:           util.FormatClock(req.Departure),
		WalkSpeed:      req.WalkSpeed,
		BikeSpeed:      req.BikeSpeed,
		NumItineraries: req.NumItineraries,
	}
}

// Plan requests itineraries. A response without a plan, or with an empty
// one, yields an empty slice and no error.
func (c *Client) Plan(ctx context.Context, req model.PlanRequest) ([]model.Itinerary, error) {
	reqURL, err := c.buildURL(planEndpoint, NewPlanQuery(req))
	if err != nil {
		return nil, errors.Wrap(err, "build plan URL")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create plan request")
	}

	started := time.Now()
	var result PlanResponse
	if err := c.do(httpReq, &result); err != nil {
		return nil, errors.Wrap(err, "execute plan request")
	}

	if result.Plan == nil || len(result.Plan.Itineraries) == 0 {
		attrs := []slog.Attr{slog.Duration("duration", time.Since(started))}
		if result.Error != nil {
			attrs = append(attrs, slog.Int("planner_error_id", result.Error.ID), slog.String("planner_error", result.Error.Msg))
		}
		logging.LogOperation(c.Logger, "plan_empty", attrs...)
		return []model.Itinerary{}, nil
	}

	logging.LogOperation(c.Logger, "plan_fetched",
		slog.Int("itineraries", len(result.Plan.Itineraries)),
		slog.Duration("duration", time.Since(started)))
	return ToItineraries(result.Plan.Itineraries), nil
}

// ToItineraries maps router itineraries to the domain model.
func ToItineraries(raw []Itinerary) []model.Itinerary {
	out := make([]model.Itinerary, 0, len(raw))
	for _, it := range raw {
		legs := make([]model.Leg, 0, len(it.Legs))
		for _, l := range it.Legs {
			legs = append(legs, toLeg(l))
		}
		out = append(out, model.Itinerary{
			Duration:  it.Duration,
			StartTime: fromEpochMillis(it.StartTime),
			EndTime:   fromEpochMillis(it.EndTime),
			Legs:      legs,
		})
	}
	return out
}

func toLeg(l Leg) model.Leg {
	leg := model.Leg{
		Mode:           model.TransportMode(l.Mode),
		Distance:       l.Distance,
		Duration:       l.Duration,
		StartTime:      fromEpochMillis(l.StartTime),
		EndTime:        fromEpochMillis(l.EndTime),
		Geometry:       l.LegGeometry.Points,
		RouteShortName: l.RouteShortName,
		RouteColor:     l.RouteColor,
		From:           toPlace(l.From),
		To:             toPlace(l.To),
	}
	for _, stop := range l.IntermediateStops {
		leg.IntermediateStops = append(leg.IntermediateStops, stop.Name)
	}
	return leg
}

func toPlace(p *Place) *model.Place {
	if p == nil {
		return nil
	}
	return &model.Place{Name: p.Name, At: model.Coordinate{Lat: p.Lat, Lon: p.Lon}}
}

func fromEpochMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
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
		return fmt.Errorf("planner request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}
