package session

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/DukeRupert/churnform/internal/controller"
	"github.com/DukeRupert/churnform/internal/domain"
	"github.com/DukeRupert/churnform/internal/metrics"
	"github.com/DukeRupert/churnform/internal/predict"
	"github.com/google/uuid"
)

// Store maps session ids to form controllers. Sessions live in memory and
// are dropped after IdleTimeout without a request.
type Store struct {
	catalog     *domain.Catalog
	predictor   predict.Predictor
	logger      *slog.Logger
	idleTimeout time.Duration
	secure      bool
	now         func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry

	done      chan struct{}
	closeOnce sync.Once
}

type entry struct {
	controller *controller.Controller
	lastSeen   time.Time
}

// Config configures a Store.
type Config struct {
	IdleTimeout time.Duration
	// Secure marks the session cookie Secure (HTTPS only).
	Secure bool
}

// NewStore creates a store and starts its expiry loop. Call Close to stop it.
func NewStore(catalog *domain.Catalog, predictor predict.Predictor, cfg Config, logger *slog.Logger) *Store {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		catalog:     catalog,
		predictor:   predictor,
		logger:      logger,
		idleTimeout: cfg.IdleTimeout,
		secure:      cfg.Secure,
		now:         time.Now,
		entries:     make(map[string]*entry),
		done:        make(chan struct{}),
	}

	go s.cleanup()

	return s
}

// Get returns the controller for id, or false when the id is unknown or
// has expired.
func (s *Store) Get(id string) (*controller.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.idleTimeout {
		s.deleteLocked(id)
		return nil, false
	}
	e.lastSeen = now
	return e.controller, true
}

// Create starts a new session with an empty form.
func (s *Store) Create() (string, *controller.Controller) {
	id := uuid.NewString()
	ctrl := controller.New(s.catalog, s.predictor, s.logger.With("session", id[:8]))

	s.mu.Lock()
	s.entries[id] = &entry{controller: ctrl, lastSeen: s.now()}
	count := len(s.entries)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	s.logger.Debug("session created", "session", id[:8], "active", count)
	return id, ctrl
}

// FromRequest returns the controller bound to the request's session cookie,
// creating a session and setting the cookie when there is none.
func (s *Store) FromRequest(w http.ResponseWriter, r *http.Request) *controller.Controller {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			if ctrl, ok := s.Get(cookie.Value); ok {
				return ctrl
			}
		}
	}

	id, ctrl := s.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     CookiePath,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return ctrl
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the expiry loop.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Sweep removes every expired session and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) > s.idleTimeout {
			s.deleteLocked(id)
			removed++
		}
	}
	count := len(s.entries)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	if removed > 0 {
		s.logger.Debug("expired sessions removed", "removed", removed, "active", count)
	}
	return removed
}

func (s *Store) deleteLocked(id string) {
	delete(s.entries, id)
	metrics.ActiveSessions.Set(float64(len(s.entries)))
}

// cleanup periodically removes idle sessions.
func (s *Store) cleanup() {
	interval := s.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}
