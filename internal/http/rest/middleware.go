package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/util/tracing"
	"github.com/bwise1/trip_planner/util/values"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lucsky/cuid"
)

// RequestTracing handles the request tracing context
func RequestTracing(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestSource := r.Header.Get(values.HeaderRequestSource)
		if requestSource == "" {
			requestSource = values.DefaultRequestSource
		}

		requestID := r.Header.Get(values.HeaderRequestID)
		if requestID == "" {
			requestID = cuid.New()
		}
		w.Header().Set(values.HeaderRequestID, requestID)

		tracingContext := tracing.Context{
			RequestID:     requestID,
			RequestSource: requestSource,
		}

		ctx = context.WithValue(ctx, values.ContextTracingKey, tracingContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

// RequestLogger logs one line per request and attaches a request scoped logger.
func (api *API) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		tc := tracingContext(r)
		logger := api.logger().With(slog.String("request_id", tc.RequestID))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), logger)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logging.LogHTTPRequest(logger, r.Method, r.URL.Path, status,
			float64(time.Since(start).Microseconds())/1000,
			slog.String("source", tc.RequestSource))
	})
}

func (api *API) logger() *slog.Logger {
	if api.Logger == nil {
		return slog.Default()
	}
	return api.Logger
}
