package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/churnform/internal/domain"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.RWMutex
	entries map[string]*rateLimitEntry

	done      chan struct{}
	closeOnce sync.Once
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop.
func NewRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		now:         time.Now,
		entries:     make(map[string]*rateLimitEntry),
		done:        make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow reports whether a request for key fits in the current window and
// counts it when it does.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]

	if !exists || now.Sub(entry.windowStart) > rl.window {
		rl.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return true
	}

	if entry.count < rl.maxAttempts {
		entry.count++
		return true
	}

	return false
}

// TimeUntilReset returns how long until the window for key resets.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	entry, exists := rl.entries[key]
	if !exists {
		return 0
	}

	elapsed := rl.now().Sub(entry.windowStart)
	if elapsed >= rl.window {
		return 0
	}

	return rl.window - elapsed
}

// Close stops the cleanup loop.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// cleanup periodically removes expired entries.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, entry := range rl.entries {
				if now.Sub(entry.windowStart) > rl.window {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.done:
			return
		}
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware wraps a rate limiter for use as HTTP middleware.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware.
func NewRateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit returns middleware that rate limits requests by client IP.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)

		if m.limiter.Allow(clientIP) {
			next.ServeHTTP(w, r)
			return
		}

		m.logger.Warn("rate limit exceeded",
			"ip", clientIP,
			"path", r.URL.Path,
			"method", r.Method,
		)

		retryAfter := int(m.limiter.TimeUntilReset(clientIP).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

		const message = "Too many prediction requests. Please wait a moment and try again."
		switch {
		case isAPIRequest(r):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"code":    domain.ERATELIMIT,
					"message": message,
				},
			})
		case r.Header.Get("HX-Request") == "true":
			// htmx does not swap 4xx bodies; retarget the notice instead.
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("HX-Retarget", "#form-panel")
			w.Header().Set("HX-Reswap", "afterbegin")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`<div class="mb-4 rounded-md border border-yellow-300 bg-yellow-50 px-4 py-3 text-sm text-yellow-800" role="status">` + message + `</div>`))
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Too Many Requests</title></head>
<body>
<h1>Too Many Requests</h1>
<p>` + message + `</p>
</body>
</html>`))
		}
	})
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP extracts the client IP from the request, considering proxy headers.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For: client, proxy1, proxy2
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	// X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}

	return ip
}

// isAPIRequest reports whether the client wants JSON rather than HTML.
func isAPIRequest(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
