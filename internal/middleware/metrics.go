package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// MetricsAuthMiddleware provides basic authentication for the metrics endpoint.
type MetricsAuthMiddleware struct {
	username     string
	password     string
	passwordHash []byte
	enabled      bool
	logger       *slog.Logger
}

// MetricsAuthConfig holds the metrics credentials. When PasswordHash is
// set it is a bcrypt hash and Password is ignored.
type MetricsAuthConfig struct {
	Username     string
	Password     string
	PasswordHash string
}

// NewMetricsAuthMiddleware creates a new metrics auth middleware.
// If all credentials are empty, authentication is disabled.
func NewMetricsAuthMiddleware(cfg MetricsAuthConfig, logger *slog.Logger) *MetricsAuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	m := &MetricsAuthMiddleware{
		username: cfg.Username,
		password: cfg.Password,
		enabled:  cfg.Username != "" || cfg.Password != "" || cfg.PasswordHash != "",
		logger:   logger,
	}
	if cfg.PasswordHash != "" {
		m.passwordHash = []byte(cfg.PasswordHash)
	}
	return m
}

// Enabled reports whether credentials are required.
func (m *MetricsAuthMiddleware) Enabled() bool {
	return m.enabled
}

// Handler returns middleware that requires basic authentication.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || !m.check(user, pass) {
			m.logger.Debug("metrics auth rejected", "ip", getClientIP(r), "has_credentials", ok)
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// check compares credentials in constant time, or through bcrypt when a
// hash is configured.
func (m *MetricsAuthMiddleware) check(user, pass string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(m.username)) == 1

	var passMatch bool
	if m.passwordHash != nil {
		passMatch = bcrypt.CompareHashAndPassword(m.passwordHash, []byte(pass)) == nil
	} else {
		passMatch = subtle.ConstantTimeCompare([]byte(pass), []byte(m.password)) == 1
	}

	return userMatch && passMatch
}
