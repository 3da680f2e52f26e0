package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwise1/trip_planner/internal/http/nominatim"
	"github.com/bwise1/trip_planner/internal/model"
	"github.com/bwise1/trip_planner/util"
	"github.com/bwise1/trip_planner/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) PlacesRoutes() chi.Router {
	mux := chi.NewRouter()

	// Query Params: ?text=...&viewbox=west,south,east,north
	mux.Method(http.MethodGet, "/search", Handler(api.SearchPlacesHandler))

	return mux
}

func (api *API) SearchPlacesHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	queryParams := r.URL.Query()
	text := strings.TrimSpace(queryParams.Get("text"))
	if text == "" {
		return respondWithError(nil, "Missing or empty 'text' query parameter", values.BadRequestBody, &tc)
	}

	var viewbox model.Viewport
	if raw := queryParams.Get("viewbox"); raw != "" {
		bounds, err := util.ParseFloatList(raw, 4)
		if err != nil {
			return respondWithError(err, "Invalid 'viewbox' parameter", values.BadRequestBody, &tc)
		}
		viewbox = model.Viewport{West: bounds[0], South: bounds[1], East: bounds[2], North: bounds[3]}
		if err := util.ValidateStruct(viewbox); err != nil {
			return respondWithError(err, "Invalid 'viewbox' parameter", values.BadRequestBody, &tc)
		}
	}

	place, err := api.Deps.Geocoder.Search(r.Context(), text, viewbox)
	if errors.Is(err, nominatim.ErrNotFound) {
		return respondWithError(err, "No place matches the query", values.NotFound, &tc)
	}
	if err != nil {
		return respondWithError(err, "Failed to search places", values.Error, &tc)
	}

	return success("Place found", place)
}
