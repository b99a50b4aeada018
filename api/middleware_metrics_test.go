package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/virtudoc/virtudoc-engine/api"
	"github.com/virtudoc/virtudoc-engine/metrics"
)

func TestMetricsMiddlewareCountsByRouteTemplate(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware(m))
	r.HandleFunc("/api/v1/cases/{case_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// two different ids, one route template label
	for _, id := range []string{"c1", "c2"} {
		req := httptest.NewRequest("GET", "/api/v1/cases/"+id, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	count := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/cases/{case_id}", "200"))
	assert.Equal(t, float64(2), count)
}

func TestMetricsMiddlewareRecordsErrorStatuses(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware(m))
	r.HandleFunc("/api/v1/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}).Methods("GET")

	req := httptest.NewRequest("GET", "/api/v1/boom", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	count := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/boom", "500"))
	assert.Equal(t, float64(1), count)
}

func TestMetricsMiddlewareSkipsMetricsEndpoint(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware(m))
	r.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	count := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/metrics", "200"))
	assert.Zero(t, count)
}
