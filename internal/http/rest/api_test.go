package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwise1/trip_planner/config"
	deps "github.com/bwise1/trip_planner/internal/debs"
	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/util/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planResponse = `{
  "plan": {
    "itineraries": [
      {"duration": 1500, "startTime": 1741849200000, "endTime": 1741850700000,
       "legs": [{"mode": "WALK", "distance": 312.4, "duration": 240,
                 "startTime": 1741849200000, "endTime": 1741849440000,
                 "legGeometry": {"points": "_p~iF~ps|U_ulLnnqC"},
                 "from": {"name": "Origin"}, "to": {"name": "Gares"}}]},
      {"duration": 2000, "startTime": 1741849200000, "endTime": 1741851200000,
       "legs": [{"mode": "BICYCLE", "distance": 2500, "duration": 2000,
                 "legGeometry": {"points": "_p~iF~ps|U"}}]}
    ]
  }
}`

type envelope struct {
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

type sessionView struct {
	SessionID     string `json:"session_id"`
	State         string `json:"state"`
	SelectedIndex int    `json:"selected_index"`
	Query         struct {
		Start *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"start"`
		End *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"end"`
		Mode         string  `json:"mode"`
		WalkSpeed    float64 `json:"walk_speed"`
		WalkUnit     string  `json:"walk_unit"`
		BikeSpeedKmh float64 `json:"bike_speed_kmh"`
		Departure    string  `json:"departure"`
	} `json:"query"`
	Itineraries []struct {
		Index  int    `json:"index"`
		Active bool   `json:"active"`
		Title  string `json:"title"`
	} `json:"itineraries"`
	Notifications []struct {
		ID      string `json:"id"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"notifications"`
}

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/routers/default/plan", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(planResponse))
	})
	mux.HandleFunc("/api/routers/default/index/routes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "SEM:A", "shortName": "A", "longName": "Fontaine / Echirolles", "color": "3376B8", "mode": "TRAM"}]`))
	})
	mux.HandleFunc("/api/routers/default/index/routes/SEM:A/clusters", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"code": "SEM:GENGARES", "city": "Grenoble", "name": "Gares", "lat": 45.1913, "lon": 5.7143}]`))
	})
	mux.HandleFunc("/api/lines/json", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("codes") {
		case "SEM_A":
			_, _ = w.Write([]byte(`["_p~iF~ps|U_ulLnnqC"]`))
		default:
			_, _ = w.Write([]byte(`{"type": "FeatureCollection", "features": [{"type": "Feature", "properties": {}, "geometry": {"type": "MultiLineString", "coordinates": [[[5.71, 45.19], [5.72, 45.2]]]}}]}`))
		}
	})
	mux.HandleFunc("/nominatim/search", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), "nowhere") {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"place_id": 1, "lat": "45.1889", "lon": "5.7245", "display_name": "Place Victor Hugo, Grenoble"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	up := upstream(t)

	cfg, err := config.Parse()
	require.NoError(t, err)
	cfg.PlannerBaseURL = up.URL + "/api/routers/default"
	cfg.TransitBaseURL = up.URL + "/api"
	cfg.GeocoderBaseURL = up.URL + "/nominatim"
	cfg.GeocoderRatePerSecond = 1000
	cfg.AddressDebounce = 10 * time.Millisecond
	cfg.HTTPTimeout = 5 * time.Second

	logger := logging.Discard()
	d, err := deps.New(cfg, logger)
	require.NoError(t, err)
	go d.WebSocket.Run()
	t.Cleanup(d.Close)

	api := &API{Config: cfg, Deps: d, Logger: logger}
	srv := httptest.NewServer(api.setUpServerHandler())
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeSession(t *testing.T, env envelope) sessionView {
	t.Helper()
	var view sessionView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}

func createSession(t *testing.T, srv *httptest.Server) sessionView {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	return decodeSession(t, env)
}

func waitForSession(t *testing.T, srv *httptest.Server, id string, cond func(sessionView) bool) sessionView {
	t.Helper()
	var view sessionView
	require.Eventually(t, func() bool {
		status, env := call(t, srv, http.MethodGet, "/sessions/"+id, nil)
		if status != http.StatusOK {
			return false
		}
		view = decodeSession(t, env)
		return cond(view)
	}, 3*time.Second, 10*time.Millisecond)
	return view
}

func TestHealth(t *testing.T) {
	srv := newTestAPI(t)

	status, env := call(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, values.Success, env.Status)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestAPI(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(values.HeaderRequestID, "req-123")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-123", resp.Header.Get(values.HeaderRequestID))
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	srv := newTestAPI(t)

	status, env := call(t, srv, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, values.NotFound, env.Status)

	status, _ = call(t, srv, http.MethodDelete, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateSessionUsesConfiguredDefaults(t *testing.T) {
	srv := newTestAPI(t)

	view := createSession(t, srv)
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, "idle", view.State)
	assert.Equal(t, "WALK", view.Query.Mode)
	assert.Equal(t, 4.8, view.Query.WalkSpeed)
	assert.Equal(t, "km/h", view.Query.WalkUnit)
	assert.Equal(t, -1, view.SelectedIndex)
	assert.Nil(t, view.Query.Start)
}

func TestClickPlacesStartThenEndAndFetchesItineraries(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	status, env := call(t, srv, http.MethodPost, "/sessions/"+id+"/click", map[string]float64{"lat": 45.19, "lon": 5.71})
	require.Equal(t, http.StatusOK, status)
	var first struct {
		Placed string `json:"placed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, "start", first.Placed)

	status, env = call(t, srv, http.MethodPost, "/sessions/"+id+"/click", map[string]float64{"lat": 45.2, "lon": 5.72})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, "end", first.Placed)

	view := waitForSession(t, srv, id, func(v sessionView) bool { return v.State == "idle_with_results" })
	require.Len(t, view.Itineraries, 2)
	assert.Equal(t, 0, view.SelectedIndex)
	assert.True(t, view.Itineraries[0].Active)
	assert.Equal(t, "Route 1", view.Itineraries[0].Title)

	status, env = call(t, srv, http.MethodPost, "/sessions/"+id+"/click", map[string]float64{"lat": 45.3, "lon": 5.8})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, "ignored", first.Placed)
}

func TestItinerarySelectionEndpoints(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	call(t, srv, http.MethodPut, "/sessions/"+id+"/start", map[string]float64{"lat": 45.19, "lon": 5.71})
	call(t, srv, http.MethodPut, "/sessions/"+id+"/end", map[string]float64{"lat": 45.2, "lon": 5.72})
	waitForSession(t, srv, id, func(v sessionView) bool { return v.State == "idle_with_results" })

	status, env := call(t, srv, http.MethodPost, "/sessions/"+id+"/itineraries/next", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decodeSession(t, env).SelectedIndex)

	status, env = call(t, srv, http.MethodPost, "/sessions/"+id+"/itineraries/next", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decodeSession(t, env).SelectedIndex, "next on the last option is a no-op")

	status, env = call(t, srv, http.MethodPost, "/sessions/"+id+"/itineraries/previous", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, decodeSession(t, env).SelectedIndex)

	status, env = call(t, srv, http.MethodPost, "/sessions/"+id+"/itineraries/select/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decodeSession(t, env).SelectedIndex)

	status, _ = call(t, srv, http.MethodPost, "/sessions/"+id+"/itineraries/select/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = call(t, srv, http.MethodGet, "/sessions/"+id+"/itineraries/current", nil)
	require.Equal(t, http.StatusOK, status)
	var detail struct {
		Index int `json:"index"`
		Legs  []struct {
			Mode string `json:"mode"`
		} `json:"legs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, 1, detail.Index)
	require.Len(t, detail.Legs, 1)
	assert.Equal(t, "BICYCLE", detail.Legs[0].Mode)
}

func TestCurrentItineraryWithoutResultsIsNotFound(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	status, _ := call(t, srv, http.MethodGet, "/sessions/"+id+"/itineraries/current", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSetModeAndSpeed(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	status, env := call(t, srv, http.MethodPut, "/sessions/"+id+"/mode", map[string]string{"mode": "bicycle"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "BICYCLE", decodeSession(t, env).Query.Mode)

	status, env = call(t, srv, http.MethodPut, "/sessions/"+id+"/speed", map[string]interface{}{"value": 20})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 20.0, decodeSession(t, env).Query.BikeSpeedKmh)

	status, _ = call(t, srv, http.MethodPut, "/sessions/"+id+"/speed", map[string]interface{}{"value": 50})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, srv, http.MethodPut, "/sessions/"+id+"/mode", map[string]string{"mode": "teleport"})
	assert.Equal(t, http.StatusBadRequest, status)

	call(t, srv, http.MethodPut, "/sessions/"+id+"/mode", map[string]string{"mode": "WALK"})
	status, env = call(t, srv, http.MethodPut, "/sessions/"+id+"/speed", map[string]interface{}{"value": 12, "unit": "min/km"})
	require.Equal(t, http.StatusOK, status)
	view := decodeSession(t, env)
	assert.Equal(t, "min/km", view.Query.WalkUnit)
	assert.Equal(t, 12.0, view.Query.WalkSpeed)

	status, _ = call(t, srv, http.MethodPut, "/sessions/"+id+"/speed", map[string]interface{}{"value": 3})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, srv, http.MethodPut, "/sessions/"+id+"/speed", map[string]interface{}{"unit": "knots", "value": 5})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRejectedSpeedKeepsUnit(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	status, _ := call(t, srv, http.MethodPut, "/sessions/"+id+"/speed", map[string]interface{}{"value": 50, "unit": "min/km"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, env := call(t, srv, http.MethodGet, "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	view := decodeSession(t, env)
	assert.Equal(t, "km/h", view.Query.WalkUnit)
	assert.Equal(t, 4.8, view.Query.WalkSpeed)
}

func TestSetDeparture(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	status, env := call(t, srv, http.MethodPut, "/sessions/"+id+"/departure", map[string]string{"date": "2025-03-13", "time": "09:30"})
	require.Equal(t, http.StatusOK, status)
	departure, err := time.Parse(time.RFC3339, decodeSession(t, env).Query.Departure)
	require.NoError(t, err)
	assert.Equal(t, 9, departure.Hour())
	assert.Equal(t, 30, departure.Minute())

	status, _ = call(t, srv, http.MethodPut, "/sessions/"+id+"/departure", map[string]string{"date": "13/03/2025", "time": "09:30"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestValidationRejectsBadCoordinates(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	status, _ := call(t, srv, http.MethodPut, "/sessions/"+id+"/start", map[string]float64{"lat": 95, "lon": 5.71})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, srv, http.MethodPut, "/sessions/"+id+"/start", map[string]float64{"lat": 45})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, srv, http.MethodPut, "/sessions/"+id+"/viewport",
		map[string]float64{"west": 5.8, "south": 45.1, "east": 5.6, "north": 45.2})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAddressSearchMovesEndpoint(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	status, _ := call(t, srv, http.MethodPut, "/sessions/"+id+"/viewport",
		map[string]float64{"west": 5.6, "south": 45.1, "east": 5.8, "north": 45.25})
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodPost, "/sessions/"+id+"/address", map[string]string{"field": "end", "text": "Victor Hugo"})
	require.Equal(t, http.StatusAccepted, status)

	view := waitForSession(t, srv, id, func(v sessionView) bool { return v.Query.End != nil })
	assert.Equal(t, 45.1889, view.Query.End.Lat)
	assert.Equal(t, 5.7245, view.Query.End.Lon)

	status, _ = call(t, srv, http.MethodPost, "/sessions/"+id+"/address", map[string]string{"field": "middle", "text": "x"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, srv, http.MethodPost, "/sessions/"+id+"/address", map[string]string{"field": "start", "text": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGeolocation(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	status, env := call(t, srv, http.MethodPost, "/sessions/"+id+"/geolocation", map[string]float64{"lat": 45.18, "lon": 5.73})
	require.Equal(t, http.StatusOK, status)
	view := decodeSession(t, env)
	require.NotNil(t, view.Query.Start)
	assert.Equal(t, 45.18, view.Query.Start.Lat)

	status, env = call(t, srv, http.MethodPost, "/sessions/"+id+"/geolocation", map[string]int{"error_code": 1})
	require.Equal(t, http.StatusOK, status)
	view = decodeSession(t, env)
	require.Len(t, view.Notifications, 1)
	assert.Equal(t, "Location access was denied", view.Notifications[0].Message)
	assert.Equal(t, "error", view.Notifications[0].Kind)

	status, _ = call(t, srv, http.MethodDelete, "/sessions/"+id+"/notifications/"+view.Notifications[0].ID, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, http.MethodDelete, "/sessions/"+id+"/notifications/"+view.Notifications[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, srv, http.MethodPost, "/sessions/"+id+"/geolocation", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestResetClearsEndpointsAndResults(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	call(t, srv, http.MethodPut, "/sessions/"+id+"/start", map[string]float64{"lat": 45.19, "lon": 5.71})
	call(t, srv, http.MethodPut, "/sessions/"+id+"/end", map[string]float64{"lat": 45.2, "lon": 5.72})
	waitForSession(t, srv, id, func(v sessionView) bool { return v.State == "idle_with_results" })

	status, env := call(t, srv, http.MethodPost, "/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, status)
	view := decodeSession(t, env)
	assert.Equal(t, "idle", view.State)
	assert.Nil(t, view.Query.Start)
	assert.Nil(t, view.Query.End)
	assert.Empty(t, view.Itineraries)
	assert.Equal(t, -1, view.SelectedIndex)
}

func TestDeleteSession(t *testing.T) {
	srv := newTestAPI(t)
	id := createSession(t, srv).SessionID

	status, _ := call(t, srv, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPlacesSearch(t *testing.T) {
	srv := newTestAPI(t)

	status, env := call(t, srv, http.MethodGet, "/places/search?text=Victor+Hugo&viewbox=5.6,45.1,5.8,45.25", nil)
	require.Equal(t, http.StatusOK, status)
	var place struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &place))
	assert.Equal(t, "Place Victor Hugo, Grenoble", place.Name)

	status, _ = call(t, srv, http.MethodGet, "/places/search?text=nowhere", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, srv, http.MethodGet, "/places/search", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, srv, http.MethodGet, "/places/search?text=x&viewbox=1,2,3", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTransitEndpoints(t *testing.T) {
	srv := newTestAPI(t)

	status, env := call(t, srv, http.MethodGet, "/transit/lines", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"SEM:A"`)

	status, env = call(t, srv, http.MethodGet, "/transit/lines/SEM:A/stops", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Gares")

	status, env = call(t, srv, http.MethodGet, "/transit/lines/SEM:A/geometry", nil)
	require.Equal(t, http.StatusOK, status)
	var geom struct {
		LineID string `json:"line_id"`
		Format string `json:"format"`
		Paths  [][]struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &geom))
	assert.Equal(t, "SEM:A", geom.LineID)
	assert.Equal(t, "encoded", geom.Format)
	require.Len(t, geom.Paths, 1)
	assert.Len(t, geom.Paths[0], 2)
	assert.InDelta(t, 38.5, geom.Paths[0][0].Lat, 1e-6)

	status, env = call(t, srv, http.MethodGet, "/transit/lines/SEM:C1/geometry", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &geom))
	assert.Equal(t, "geojson", geom.Format)
	require.Len(t, geom.Paths, 1)
	assert.Equal(t, 45.19, geom.Paths[0][0].Lat)
}
