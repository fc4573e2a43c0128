package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/churnform/internal"
	"github.com/DukeRupert/churnform/internal/csrf"
	"github.com/DukeRupert/churnform/internal/domain"
	"github.com/DukeRupert/churnform/internal/handler"
	"github.com/DukeRupert/churnform/internal/metrics"
	"github.com/DukeRupert/churnform/internal/middleware"
	"github.com/DukeRupert/churnform/internal/session"
	"github.com/DukeRupert/churnform/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	catalog, err := domain.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("field catalog: %w", err)
	}

	predictor, err := internal.NewPredictor(cfg, logger)
	if err != nil {
		return fmt.Errorf("predictor initialization failed: %w", err)
	}

	// Initialize template renderer
	templates := web.Templates()
	if cfg.IsDevelopment() {
		if info, err := os.Stat("web/templates"); err == nil && info.IsDir() {
			templates = os.DirFS("web/templates")
		}
	}
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		FS:     templates,
		Logger: logger,
		IsDev:  cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	isSecure := cfg.SecureCookies()

	sessions := session.NewStore(catalog, predictor, session.Config{
		IdleTimeout: cfg.SessionIdleTimeout,
		Secure:      isSecure,
	}, logger)
	defer sessions.Close()

	// Initialize middleware
	limiter := middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, logger)
	defer limiter.Close()
	rateLimitMw := middleware.NewRateLimitMiddleware(limiter, logger)
	metricsAuth := middleware.NewMetricsAuthMiddleware(middleware.MetricsAuthConfig{
		Username:     cfg.MetricsUsername,
		Password:     cfg.MetricsPassword,
		PasswordHash: cfg.MetricsPasswordHash,
	}, logger)
	if !metricsAuth.Enabled() {
		logger.Warn("metrics endpoint is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Metrics
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Prediction form
	handler.NewPredictHandler(sessions, renderer, logger, isSecure).RegisterRoutes(mux, rateLimitMw.Limit)

	app := middleware.Stack(
		metrics.Middleware(mux),
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		middleware.NewSecurityHeadersMiddleware(isSecure).Handler,
		csrf.Protect(csrf.Config{Logger: logger, MaxBodyBytes: handler.MaxBodySize}),
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started",
			"address", server.Addr,
			"env", cfg.Env,
			"predictor", cfg.Predictor,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
	}
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// In-flight predictions get the remainder of their own timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.PredictionTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
