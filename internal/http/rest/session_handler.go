package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bwise1/trip_planner/internal/model"
	"github.com/bwise1/trip_planner/internal/planner"
	"github.com/bwise1/trip_planner/util"
	"github.com/bwise1/trip_planner/util/tracing"
	"github.com/bwise1/trip_planner/util/values"
	"github.com/bwise1/trip_planner/util/websockets"
	"github.com/go-chi/chi/v5"
)

type coordinateRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

func (c coordinateRequest) coordinate() model.Coordinate {
	return model.Coordinate{Lat: *c.Lat, Lon: *c.Lon}
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type speedRequest struct {
	Value *float64 `json:"value" validate:"required"`
	Unit  *string  `json:"unit"`
}

type departureRequest struct {
	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required"`
}

type addressRequest struct {
	Field string `json:"field" validate:"required,oneof=start end"`
	Text  string `json:"text"`
}

type geolocationRequest struct {
	Lat       *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon       *float64 `json:"lon" validate:"omitempty,longitude"`
	ErrorCode *int     `json:"error_code"`
}

func (api *API) SessionRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodPost, "/", Handler(api.CreateSession))

	mux.Route("/{sessionID}", func(r chi.Router) {
		r.Method(http.MethodGet, "/", Handler(api.GetSession))
		r.Method(http.MethodDelete, "/", Handler(api.DeleteSession))

		r.Method(http.MethodPost, "/click", Handler(api.ClickMap))
		r.Method(http.MethodPut, "/start", Handler(api.SetStart))
		r.Method(http.MethodPut, "/end", Handler(api.SetEnd))
		r.Method(http.MethodPut, "/mode", Handler(api.SetMode))
		r.Method(http.MethodPut, "/speed", Handler(api.SetSpeed))
		r.Method(http.MethodPut, "/departure", Handler(api.SetDeparture))
		r.Method(http.MethodPut, "/viewport", Handler(api.SetViewport))
		r.Method(http.MethodPost, "/address", Handler(api.SearchAddress))
		r.Method(http.MethodPost, "/geolocation", Handler(api.ReportGeolocation))
		r.Method(http.MethodPost, "/reset", Handler(api.ResetSession))
		r.Method(http.MethodDelete, "/notifications/{notificationID}", Handler(api.DismissNotification))

		r.Mount("/itineraries", api.ItineraryRoutes())
	})

	return mux
}

func (api *API) CreateSession(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess := api.Deps.Sessions.Create()
	snap, err := sess.Snapshot()
	if err != nil {
		return respondWithError(err, "unable to read session", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Session created successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       snap,
	}
}

func (api *API) GetSession(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}
	return api.snapshotResponse(sess, "Session retrieved successfully", &tc)
}

func (api *API) DeleteSession(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	id := chi.URLParam(r, "sessionID")
	if !api.Deps.Sessions.Delete(id) {
		return respondWithError(nil, "session not found", values.NotFound, &tc)
	}
	api.Deps.WebSocket.Publish(id, websockets.MsgTypeClosed, nil)

	return success("Session deleted successfully", nil)
}

func (api *API) ClickMap(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	var req coordinateRequest
	if errResp := decodeAndValidate(r, &tc, &req); errResp != nil {
		return errResp
	}

	placement, err := sess.Click(req.coordinate())
	if err != nil {
		return sessionError(err, &tc)
	}

	snap, err := sess.Snapshot()
	if err != nil {
		return sessionError(err, &tc)
	}
	return success("Click handled", map[string]interface{}{
		"placed":  placement,
		"session": snap,
	})
}

func (api *API) SetStart(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.setEndpoint(r, planner.FieldStart)
}

func (api *API) SetEnd(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.setEndpoint(r, planner.FieldEnd)
}

func (api *API) setEndpoint(r *http.Request, field planner.Field) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	var req coordinateRequest
	if errResp := decodeAndValidate(r, &tc, &req); errResp != nil {
		return errResp
	}

	var err error
	if field == planner.FieldStart {
		err = sess.SetStart(req.coordinate())
	} else {
		err = sess.SetEnd(req.coordinate())
	}
	if err != nil {
		return sessionError(err, &tc)
	}
	return api.snapshotResponse(sess, "Endpoint updated", &tc)
}

func (api *API) SetMode(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	var req modeRequest
	if errResp := decodeAndValidate(r, &tc, &req); errResp != nil {
		return errResp
	}

	mode, err := model.ParseTransportMode(req.Mode)
	if err != nil {
		return respondWithError(err, "unknown transport mode", values.BadRequestBody, &tc)
	}
	if err := sess.SetMode(mode); err != nil {
		return sessionError(err, &tc)
	}
	return api.snapshotResponse(sess, "Mode updated", &tc)
}

func (api *API) SetSpeed(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	var req speedRequest
	if errResp := decodeAndValidate(r, &tc, &req); errResp != nil {
		return errResp
	}

	var unit *model.SpeedUnit
	if req.Unit != nil {
		parsed, err := model.ParseSpeedUnit(*req.Unit)
		if err != nil {
			return respondWithError(err, "unknown speed unit", values.BadRequestBody, &tc)
		}
		unit = &parsed
	}
	if err := sess.SetSpeedWithUnit(unit, *req.Value); err != nil {
		return sessionError(err, &tc)
	}
	return api.snapshotResponse(sess, "Speed updated", &tc)
}

func (api *API) SetDeparture(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	var req departureRequest
	if errResp := decodeAndValidate(r, &tc, &req); errResp != nil {
		return errResp
	}

	departure, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, api.Config.Location())
	if err != nil {
		return respondWithError(err, "invalid departure date or time", values.BadRequestBody, &tc)
	}
	if err := sess.SetDeparture(departure); err != nil {
		return sessionError(err, &tc)
	}
	return api.snapshotResponse(sess, "Departure updated", &tc)
}

func (api *API) SetViewport(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	var req model.Viewport
	if errResp := decodeAndValidate(r, &tc, &req); errResp != nil {
		return errResp
	}
	if req.West >= req.East || req.South >= req.North {
		return respondWithError(nil, "viewport bounds are inverted", values.BadRequestBody, &tc)
	}

	if err := sess.SetViewport(req); err != nil {
		return sessionError(err, &tc)
	}
	return api.snapshotResponse(sess, "Viewport updated", &tc)
}

func (api *API) SearchAddress(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	var req addressRequest
	if errResp := decodeAndValidate(r, &tc, &req); errResp != nil {
		return errResp
	}

	if !util.NotBlank(req.Text) {
		return respondWithError(nil, "address text is empty", values.BadRequestBody, &tc)
	}
	if err := sess.SearchAddress(planner.Field(req.Field), req.Text); err != nil {
		return sessionError(err, &tc)
	}
	return &ServerResponse{
		Message:    "Address search scheduled",
		Status:     values.Success,
		StatusCode: http.StatusAccepted,
	}
}

func (api *API) ReportGeolocation(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	var req geolocationRequest
	if errResp := decodeAndValidate(r, &tc, &req); errResp != nil {
		return errResp
	}

	var err error
	switch {
	case req.ErrorCode != nil:
		err = sess.ReportPositionError(*req.ErrorCode)
	case req.Lat != nil && req.Lon != nil:
		err = sess.ReportPosition(model.Coordinate{Lat: *req.Lat, Lon: *req.Lon})
	default:
		return respondWithError(nil, "either lat and lon or error_code is required", values.BadRequestBody, &tc)
	}
	if err != nil {
		return sessionError(err, &tc)
	}
	return api.snapshotResponse(sess, "Position handled", &tc)
}

func (api *API) ResetSession(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}
	if err := sess.Reset(); err != nil {
		return sessionError(err, &tc)
	}
	return api.snapshotResponse(sess, "Session reset", &tc)
}

func (api *API) DismissNotification(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	found, err := sess.DismissNotification(chi.URLParam(r, "notificationID"))
	if err != nil {
		return sessionError(err, &tc)
	}
	if !found {
		return respondWithError(nil, "notification not found", values.NotFound, &tc)
	}
	return success("Notification dismissed", nil)
}

// SessionSocket streams snapshots of one session over a websocket.
func (api *API) SessionSocket(w http.ResponseWriter, r *http.Request) {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		writeErrorResponse(w, errResp.Err, errResp.Status, errResp.Message)
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		writeErrorResponse(w, err, values.NotFound, "session not found")
		return
	}
	api.Deps.WebSocket.HandleConnections(w, r, sess.ID, snap)
}

func (api *API) session(r *http.Request, tc *tracing.Context) (*planner.Session, *ServerResponse) {
	sess, found := api.Deps.Sessions.Get(chi.URLParam(r, "sessionID"))
	if !found {
		return nil, respondWithError(nil, "session not found", values.NotFound, tc)
	}
	return sess, nil
}

func (api *API) snapshotResponse(sess *planner.Session, message string, tc *tracing.Context) *ServerResponse {
	snap, err := sess.Snapshot()
	if err != nil {
		return sessionError(err, tc)
	}
	return success(message, snap)
}

func sessionError(err error, tc *tracing.Context) *ServerResponse {
	switch {
	case errors.Is(err, planner.ErrSessionClosed):
		return respondWithError(err, "session not found", values.NotFound, tc)
	case errors.Is(err, planner.ErrInvalidSpeed):
		return respondWithError(err, "speed is out of range", values.Unprocessable, tc)
	default:
		return respondWithError(err, "unable to update session", values.Error, tc)
	}
}

func decodeAndValidate(r *http.Request, tc *tracing.Context, target interface{}) *ServerResponse {
	if err := util.DecodeJSONBody(tc, r.Body, target); err != nil {
		return respondWithError(err, "unable to decode request", values.BadRequestBody, tc)
	}
	if err := util.ValidateStruct(target); err != nil {
		return respondWithError(err, "validation failed", values.BadRequestBody, tc)
	}
	return nil
}

func pathIndex(r *http.Request, key string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, key))
}
