package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader is echoed on every response and logged with the request.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the id assigned to the request, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestLoggingMiddleware logs HTTP requests with timing and status information.
type RequestLoggingMiddleware struct {
	logger *slog.Logger
}

// NewRequestLoggingMiddleware creates a new request logging middleware.
func NewRequestLoggingMiddleware(logger *slog.Logger) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{
		logger: logger,
	}
}

// Handler returns middleware that tags each request with an id and logs it.
// An incoming X-Request-ID that parses as a UUID is kept.
func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		// Skip logging for noisy endpoints
		if m.shouldSkip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"request_id", id,
			"method", r.Method,
			"path", sanitizePath(r.URL.Path, r.URL.RawQuery),
			"status", wrapped.statusCode,
			"bytes", wrapped.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", getClientIP(r),
			"user_agent", r.UserAgent(),
		}
		if r.Header.Get("HX-Request") == "true" {
			attrs = append(attrs, "htmx", true)
		}

		switch {
		case wrapped.statusCode >= 500:
			m.logger.Warn("request", attrs...)
		default:
			m.logger.Info("request", attrs...)
		}
	})
}

// shouldSkip returns true for paths that should not be logged (too noisy).
func (m *RequestLoggingMiddleware) shouldSkip(path string) bool {
	return path == "/health" || path == "/metrics" || strings.HasPrefix(path, "/static/")
}

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

var sensitiveParams = map[string]bool{
	"token":        true,
	"csrf_token":   true,
	"key":          true,
	"secret":       true,
	"password":     true,
	"api_key":      true,
	"access_token": true,
}

// sanitizePath redacts sensitive query parameters for logging.
func sanitizePath(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return path
	}
	for key := range values {
		if sensitiveParams[strings.ToLower(key)] {
			values[key] = []string{"REDACTED"}
		}
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}
