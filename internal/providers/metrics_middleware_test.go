package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddleware_CapturesStatusAndPath(t *testing.T) {
	metrics := &testMetrics{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mw := MetricsMiddleware(metrics, handler)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/snapshots", nil))

	assert.Equal(t, 1, metrics.requestCalls)
	assert.Equal(t, "/snapshots", metrics.requestEndpoint)
	assert.Equal(t, http.StatusCreated, metrics.requestStatus)
	assert.Equal(t, 1, metrics.durationCalls)
}

func TestMetricsMiddleware_DefaultStatus200(t *testing.T) {
	metrics := &testMetrics{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mw := MetricsMiddleware(metrics, handler)
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/worlds", nil))

	assert.Equal(t, http.StatusOK, metrics.requestStatus)
}

func TestMetricsMiddleware_LabelsByRoutePattern(t *testing.T) {
	metrics := &testMetrics{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /chart", func(w http.ResponseWriter, r *http.Request) {})

	mw := MetricsMiddleware(metrics, mux)
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/chart?id=wrld_1&w=900", nil))

	assert.Equal(t, "GET /chart", metrics.requestEndpoint)
}
