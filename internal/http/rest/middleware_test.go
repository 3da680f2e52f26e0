package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwise1/trip_planner/util/tracing"
	"github.com/bwise1/trip_planner/util/values"
	"github.com/stretchr/testify/assert"
)

func TestRequestTracingDefaults(t *testing.T) {
	var got tracing.Context
	h := RequestTracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = tracingContext(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, values.DefaultRequestSource, got.RequestSource)
	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, got.RequestID, rec.Header().Get(values.HeaderRequestID))
}

func TestRequestTracingKeepsHeaders(t *testing.T) {
	var got tracing.Context
	h := RequestTracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = tracingContext(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(values.HeaderRequestSource, "mobile")
	req.Header.Set(values.HeaderRequestID, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, tracing.Context{RequestID: "abc", RequestSource: "mobile"}, got)
}

func TestHandlerWritesEnvelope(t *testing.T) {
	h := Handler(func(w http.ResponseWriter, r *http.Request) *ServerResponse {
		return respondWithError(nil, "session not found", values.NotFound, nil)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"session not found","status":"not_found"}`, rec.Body.String())
}
