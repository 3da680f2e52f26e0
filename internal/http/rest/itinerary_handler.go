package rest

import (
	"net/http"

	"github.com/bwise1/trip_planner/internal/planner"
	"github.com/bwise1/trip_planner/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) ItineraryRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodPost, "/next", Handler(api.NextItinerary))
	mux.Method(http.MethodPost, "/previous", Handler(api.PreviousItinerary))
	mux.Method(http.MethodPost, "/select/{index}", Handler(api.SelectItinerary))
	mux.Method(http.MethodGet, "/current", Handler(api.CurrentItinerary))

	return mux
}

func (api *API) NextItinerary(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.moveSelection(r, (*planner.Session).SelectNext)
}

func (api *API) PreviousItinerary(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.moveSelection(r, (*planner.Session).SelectPrevious)
}

func (api *API) SelectItinerary(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	index, err := pathIndex(r, "index")
	if err != nil {
		return respondWithError(err, "invalid itinerary index", values.BadRequestBody, &tc)
	}
	return api.moveSelection(r, func(s *planner.Session) error {
		return s.SelectIndex(index)
	})
}

func (api *API) moveSelection(r *http.Request, move func(*planner.Session) error) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}
	if err := move(sess); err != nil {
		return sessionError(err, &tc)
	}
	return api.snapshotResponse(sess, "Selection updated", &tc)
}

// CurrentItinerary returns the selected option with its legs decoded for drawing.
func (api *API) CurrentItinerary(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	sess, errResp := api.session(r, &tc)
	if errResp != nil {
		return errResp
	}

	detail, found, err := sess.Current()
	if err != nil {
		return sessionError(err, &tc)
	}
	if !found {
		return respondWithError(nil, "no itinerary selected", values.NotFound, &tc)
	}
	return success("Itinerary retrieved successfully", detail)
}
