package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Router resolves the pattern that will serve a request.
// *http.ServeMux satisfies it.
type Router interface {
	Handler(r *http.Request) (h http.Handler, pattern string)
}

// Client surfaces, as recorded in the surface label.
const (
	SurfacePage = "page"
	SurfaceHTMX = "htmx"
	SurfaceJSON = "json"
)

// statusRecorder remembers the first status written.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wrote {
		rec.status = code
		rec.wrote = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wrote = true
	return rec.ResponseWriter.Write(b)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// routeLabel returns the path part of the pattern router would use for r,
// so POST /fields/tenure is recorded as /fields/{name}. Requests no
// pattern matches are recorded as "unmatched".
func routeLabel(router Router, r *http.Request) string {
	_, pattern := router.Handler(r)
	if pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}

// surface classifies the client the way the prediction handlers do when
// choosing between a JSON snapshot, the htmx form panel and the full page.
func surface(r *http.Request) string {
	switch {
	case strings.Contains(r.Header.Get("Accept"), "application/json"):
		return SurfaceJSON
	case r.Header.Get("HX-Request") == "true":
		return SurfaceHTMX
	default:
		return SurfacePage
	}
}

// Middleware records request counts, latency and in-flight requests,
// labelled by the route pattern router resolves. /metrics itself is not
// recorded.
func Middleware(router Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			HTTPRequestsInFlight.Inc()
			defer HTTPRequestsInFlight.Dec()

			route := routeLabel(router, r)
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status), surface(r)).Inc()
			HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
