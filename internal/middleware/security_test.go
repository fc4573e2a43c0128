package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurityHeadersMiddleware_SetsHeaders(t *testing.T) {
	handler := NewSecurityHeadersMiddleware(false).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("handler should still run, got %d", rec.Code)
	}

	want := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should not be set in development")
	}
}

func TestSecurityHeadersMiddleware_HSTSWhenSecure(t *testing.T) {
	handler := NewSecurityHeadersMiddleware(true).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Header().Get("Strict-Transport-Security"), "max-age=31536000") {
		t.Errorf("expected HSTS, got %q", rec.Header().Get("Strict-Transport-Security"))
	}
}

func TestBuildCSP(t *testing.T) {
	csp := buildCSP()

	for _, directive := range []string{
		"default-src 'self'",
		"script-src 'self' https://unpkg.com",
		"style-src 'self' 'unsafe-inline'",
		"frame-ancestors 'none'",
		"form-action 'self'",
	} {
		if !strings.Contains(csp, directive) {
			t.Errorf("CSP missing %q: %s", directive, csp)
		}
	}
	if strings.Contains(csp, "script-src 'self' https://unpkg.com 'unsafe-inline'") {
		t.Error("inline scripts should not be allowed")
	}
}
