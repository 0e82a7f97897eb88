package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsByPattern(t *testing.T) {
	Init()
	Init()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := Middleware(mux)

	before := testutil.ToFloat64(RequestCounter.WithLabelValues(http.MethodGet, "/v1/sessions/{id}", "404"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/sessions/abc", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/sessions/def", nil))
	after := testutil.ToFloat64(RequestCounter.WithLabelValues(http.MethodGet, "/v1/sessions/{id}", "404"))

	assert.Equal(t, 2.0, after-before)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(true))
	assert.Equal(t, "failure", Outcome(false))
	assert.Equal(t, "4", Level(4))
}
