// Package csrf guards the form's POST routes with a double-submit token.
//
// A random token lives in a cookie the page can read. Every unsafe request
// must echo it back, either in the csrf_token form field (full form posts)
// or in the X-CSRF-Token header (htmx requests and JSON clients). A
// cross-site page can make the browser send the cookie but cannot read it,
// so it cannot supply the matching value.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
)

const (
	// CookieName is the name of the token cookie.
	CookieName = "csrf_token"

	// FormFieldName is the hidden input rendered by the csrfField template func.
	FormFieldName = "csrf_token"

	// HeaderName carries the token on htmx requests, which post single
	// fields without the hidden form input.
	HeaderName = "X-CSRF-Token"

	// TokenLength is the number of random bytes in a token.
	TokenLength = 32

	// CookieMaxAge is the token cookie lifetime in seconds.
	CookieMaxAge = 3600

	// DefaultMaxBodyBytes bounds unsafe request bodies when Config leaves
	// MaxBodyBytes unset.
	DefaultMaxBodyBytes = 64 << 10
)

// GenerateToken returns 32 random bytes, base64 URL-encoded (44 characters).
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ValidateToken compares the cookie token with the submitted one in
// constant time. Empty tokens never match.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// ValidateRequest checks the X-CSRF-Token header, or the csrf_token field
// of a posted form when the header is absent, against the cookie. Query
// string tokens are not accepted.
func ValidateRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}

	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(FormFieldName)
	}
	return ValidateToken(cookie.Value, submitted)
}

// SetCookie stores token in a SameSite=Strict cookie readable by the page.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false,
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// EnsureToken returns the request's token, issuing a new cookie when there
// is none. Pages call it while rendering the form.
func EnsureToken(w http.ResponseWriter, r *http.Request, isSecure bool) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := GenerateToken()
	if err != nil {
		panic("csrf: failed to generate token: " + err.Error())
	}
	SetCookie(w, token, isSecure)
	return token
}

// Config configures Protect.
type Config struct {
	Logger *slog.Logger

	// MaxBodyBytes caps the body of unsafe requests. The cap is installed
	// before the form is parsed for the token, so handlers downstream read
	// the same bounded body.
	MaxBodyBytes int64
}

// Protect rejects unsafe requests whose token does not match the cookie.
// GET, HEAD and OPTIONS pass through untouched. Bodies over the limit are
// answered with 413 before any token check.
func Protect(cfg Config) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				tooLarge(w, r, logger, r.ContentLength)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)

			if r.Header.Get(HeaderName) == "" {
				if err := r.ParseForm(); err != nil {
					var mbe *http.MaxBytesError
					if errors.As(err, &mbe) {
						tooLarge(w, r, logger, -1)
						return
					}
					http.Error(w, "Could not read form data", http.StatusBadRequest)
					return
				}
			}

			if !ValidateRequest(r) {
				logger.Warn("csrf validation failed",
					"path", r.URL.Path,
					"method", r.Method,
				)
				http.Error(w, "Invalid or missing CSRF token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tooLarge(w http.ResponseWriter, r *http.Request, logger *slog.Logger, size int64) {
	logger.Warn("request body too large",
		"path", r.URL.Path,
		"method", r.Method,
		"content_length", size,
	)
	http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
}
