package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersMiddleware adds HTTP security headers to all responses.
type SecurityHeadersMiddleware struct {
	isSecure bool // Whether to enable HTTPS-specific headers (true in production)
	csp      string
}

// NewSecurityHeadersMiddleware creates a new security headers middleware.
// Set isSecure to true in production to enable HSTS.
func NewSecurityHeadersMiddleware(isSecure bool) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{
		isSecure: isSecure,
		csp:      buildCSP(),
	}
}

// Handler returns middleware that sets security headers on all responses.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", m.csp)
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		// HSTS - only in production with HTTPS (1 year)
		if m.isSecure {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// buildCSP constructs the Content-Security-Policy header value. htmx is
// loaded from unpkg and injects its indicator styles inline.
func buildCSP() string {
	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' https://unpkg.com",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")
}
