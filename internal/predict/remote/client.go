// Package remote implements predict.Predictor over HTTP against the churn
// prediction service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/DukeRupert/churnform/internal/domain"
	"github.com/DukeRupert/churnform/internal/metrics"
	"github.com/DukeRupert/churnform/internal/predict"
)

const (
	// DefaultURL is the prediction endpoint used when none is configured.
	DefaultURL = "http://127.0.0.1:8000/predict/churn"

	// MaxResponseSize bounds how much of a response body is read (1MB).
	MaxResponseSize = 1 << 20
)

// Config contains configuration for the HTTP predictor
type Config struct {
	URL string

	// Timeout bounds a single request. Zero means no client-side timeout;
	// the caller's context still applies.
	Timeout time.Duration
}

// Client implements predict.Predictor with a single POST per call.
// No retries are attempted.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new HTTP predictor
func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.URL == "" {
		config.URL = DefaultURL
	}
	u, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("parse prediction url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("prediction url must be http or https, got %q", config.URL)
	}
	if config.Timeout < 0 {
		return nil, fmt.Errorf("prediction timeout must not be negative")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

// Predict posts payload as JSON and parses the response.
func (c *Client) Predict(ctx context.Context, payload map[string]any) (*domain.Prediction, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	status, body, err := c.execute(req)
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("prediction request failed", "url", c.config.URL, "error", err)
		return nil, err
	}

	if status < 200 || status > 299 {
		c.logger.Info("prediction rejected", "status", status, "body_size", len(body))
		return nil, predict.NewFailureError(status, body)
	}

	var prediction domain.Prediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return nil, fmt.Errorf("%w: %v", predict.ErrMalformedResponse, err)
	}

	c.logger.Debug("prediction received",
		"probability", prediction.Probability,
		"result", prediction.Result,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &prediction, nil
}

// buildRequest builds the HTTP request for one prediction
func (c *Client) buildRequest(ctx context.Context, payload map[string]any) (*http.Request, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// execute performs the request and reads the bounded body.
func (c *Client) execute(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("%w: %v", predict.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response body: %v", predict.ErrUnavailable, err)
	}

	return resp.StatusCode, body, nil
}
