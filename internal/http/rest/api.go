package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwise1/trip_planner/config"
	deps "github.com/bwise1/trip_planner/internal/debs"
	"github.com/bwise1/trip_planner/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 20 * time.Second
	defaultShutdownPeriod = 30 * time.Second
)

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

type API struct {
	Server *http.Server
	Config *config.Config
	Deps   *deps.Dependencies
	Logger *slog.Logger
}

func (api *API) Serve() error {
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Config.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.setUpServerHandler(),
	}
	return api.Server.ListenAndServe()
}

func (api *API) setUpServerHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(RequestTracing)
	mux.Use(api.RequestLogger)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.Config.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// websocket upgrades need the raw writer, so they stay out of the gzip group
	mux.Get("/sessions/{sessionID}/ws", api.SessionSocket)

	mux.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return gzhttp.GzipHandler(next)
		})

		r.Method(http.MethodGet, "/health", Handler(api.Health))
		r.Mount("/sessions", api.SessionRoutes())
		r.Mount("/transit", api.TransitRoutes())
		r.Mount("/places", api.PlacesRoutes())
	})

	return mux
}

func (api *API) Health(_ http.ResponseWriter, _ *http.Request) *ServerResponse {
	return &ServerResponse{
		Message:    "ok",
		Status:     values.Success,
		StatusCode: http.StatusOK,
		Data: map[string]interface{}{
			"sessions": api.Deps.Sessions.Len(),
		},
	}
}

func (api *API) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
	defer cancel()

	api.Deps.Close()

	if api.Server == nil {
		return nil
	}
	return api.Server.Shutdown(ctx)
}
