package rest

import (
	"net/http"

	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/internal/model"
	"github.com/bwise1/trip_planner/internal/planner"
	"github.com/bwise1/trip_planner/util/values"
	"github.com/go-chi/chi/v5"
)

// lineGeometry is a transit line ready for drawing, whatever the upstream format.
type lineGeometry struct {
	LineID string               `json:"line_id"`
	Format model.GeometryFormat `json:"format"`
	Paths  [][]model.Coordinate `json:"paths"`
}

func (api *API) TransitRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodGet, "/lines", Handler(api.GetTransitLines))
	mux.Method(http.MethodGet, "/lines/{lineID}/stops", Handler(api.GetLineStops))
	mux.Method(http.MethodGet, "/lines/{lineID}/geometry", Handler(api.GetLineGeometry))

	return mux
}

func (api *API) GetTransitLines(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	lines, err := api.Deps.Transit.Lines(r.Context())
	if err != nil {
		return respondWithError(err, "Failed to fetch transit lines", values.Error, &tc)
	}
	return success("Transit lines retrieved successfully", lines)
}

func (api *API) GetLineStops(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	stops, err := api.Deps.Transit.Stops(r.Context(), chi.URLParam(r, "lineID"))
	if err != nil {
		return respondWithError(err, "Failed to fetch line stops", values.Error, &tc)
	}
	return success("Line stops retrieved successfully", stops)
}

func (api *API) GetLineGeometry(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := tracingContext(r)

	lineID := chi.URLParam(r, "lineID")
	geometry, err := api.Deps.Transit.Geometry(r.Context(), lineID)
	if err != nil {
		return respondWithError(err, "Failed to fetch line geometry", values.Error, &tc)
	}

	paths, err := planner.LinePaths(logging.FromContext(r.Context()), geometry)
	if err != nil {
		return respondWithError(err, "Line geometry could not be decoded", values.Unprocessable, &tc)
	}

	return success("Line geometry retrieved successfully", lineGeometry{
		LineID: lineID,
		Format: geometry.Format,
		Paths:  paths,
	})
}
