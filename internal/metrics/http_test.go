package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func testRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /fields/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestRouteLabel(t *testing.T) {
	mux := testRouter()

	assert.Equal(t, "/fields/{name}", routeLabel(mux, httptest.NewRequest(http.MethodPost, "/fields/tenure", nil)))
	assert.Equal(t, "/{$}", routeLabel(mux, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, "unmatched", routeLabel(mux, httptest.NewRequest(http.MethodGet, "/nope", nil)))
}

func TestSurface(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	assert.Equal(t, SurfacePage, surface(req))

	req.Header.Set("HX-Request", "true")
	assert.Equal(t, SurfaceHTMX, surface(req))

	req.Header.Set("Accept", "application/json")
	assert.Equal(t, SurfaceJSON, surface(req))
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	mux := testRouter()
	handler := Middleware(mux)(mux)
	counter := HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/fields/{name}", "418", SurfaceHTMX)
	before := testutil.ToFloat64(counter)

	for _, name := range []string{"gender", "tenure"} {
		req := httptest.NewRequest(http.MethodPost, "/fields/"+name, nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(mux)(mux)
	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200", SurfacePage)

	before := testutil.ToFloat64(counter)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, before, testutil.ToFloat64(counter))
}

func TestPredictionHelpers(t *testing.T) {
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues(OutcomeSuccess))
	churnBefore := testutil.ToFloat64(PredictedChurnTotal.WithLabelValues("true"))

	PredictionSucceeded(true)

	assert.Equal(t, before+1, testutil.ToFloat64(PredictionsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, churnBefore+1, testutil.ToFloat64(PredictedChurnTotal.WithLabelValues("true")))

	fieldBefore := testutil.ToFloat64(ValidationFailuresTotal.WithLabelValues("tenure", "local"))
	FieldsInvalid("local", "tenure", "gender")
	assert.Equal(t, fieldBefore+1, testutil.ToFloat64(ValidationFailuresTotal.WithLabelValues("tenure", "local")))
}
