package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/bwise1/trip_planner/util"
	"github.com/bwise1/trip_planner/util/tracing"
	"github.com/bwise1/trip_planner/util/values"
)

// ServerResponse is the envelope every JSON endpoint returns.
type ServerResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
	Err        error       `json:"-"`
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	attrs := []slog.Attr{slog.String("status", status)}
	if tc != nil {
		attrs = append(attrs, slog.String("request_id", tc.RequestID))
	}
	logging.LogError(slog.Default(), message, err, attrs...)

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Err:        err,
	}
}

func writeJSONResponse(w http.ResponseWriter, content []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(content); err != nil {
		logging.LogError(slog.Default(), "unable to write json response", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	logging.LogError(slog.Default(), message, err, slog.String("status", status))

	data, marshalErr := json.Marshal(ServerResponse{Message: message, Status: status})
	if marshalErr != nil {
		http.Error(w, message, http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, data, util.StatusCode(status))
}

func tracingContext(r *http.Request) tracing.Context {
	tc, ok := r.Context().Value(values.ContextTracingKey).(tracing.Context)
	if !ok {
		return tracing.Context{RequestSource: values.DefaultRequestSource}
	}
	return tc
}

func success(message string, data interface{}) *ServerResponse {
	return &ServerResponse{
		Message:    message,
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       data,
	}
}
