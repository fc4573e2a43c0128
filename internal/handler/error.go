package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/churnform/internal/domain"
)

// ErrorResponse writes an error response to the client.
// It maps domain error codes to HTTP status codes and formats appropriately
// based on the Accept header (JSON for API requests, plain text otherwise).
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	// Extract structured info from error
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	op := domain.ErrorOp(err)

	// Map to HTTP status
	status := ErrorCodeToHTTPStatus(code)

	// Log error with context
	logError(logger, r, err, code, op, status)

	// Check if request expects JSON
	if acceptsJSON(r) {
		writeJSONError(w, status, code, message)
		return
	}

	// Plain text error for HTML responses
	http.Error(w, message, status)
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// NotFoundResponse is a convenience wrapper for 404 errors.
func NotFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	err := domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found")
	ErrorResponse(w, r, logger, err)
}

// InternalErrorResponse logs the error and returns a generic 500 response.
// The underlying error details are hidden from the user.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	wrappedErr := domain.Internal(err, "", "An unexpected error occurred")
	ErrorResponse(w, r, logger, wrappedErr)
}

// logError logs the error with appropriate level based on status code.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}

	// Add operation if present
	if op != "" {
		attrs = append(attrs, "op", op)
	}

	// Log level based on status code:
	// - 5xx errors are warnings/errors (server-side issues)
	// - 4xx errors are info (client errors, expected)
	if status >= 500 {
		logger.Error("server error", attrs...)
	} else if status >= 400 {
		logger.Info("client error", attrs...)
	}
}

// acceptsJSON checks if the client prefers JSON responses.
func acceptsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	contentType := r.Header.Get("Content-Type")

	// Check Accept header
	if strings.Contains(accept, "application/json") {
		return true
	}

	// Check if request body was JSON (API request)
	if strings.Contains(contentType, "application/json") {
		return true
	}

	// Check for HX-Request header (htmx requests want HTML)
	if r.Header.Get("HX-Request") == "true" {
		return false
	}

	// Check for .json extension in path
	if strings.HasSuffix(r.URL.Path, ".json") {
		return true
	}

	return false
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// JSONError is a typed response structure for API errors.
type JSONError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}
