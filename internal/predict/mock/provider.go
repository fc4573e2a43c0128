package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DukeRupert/churnform/internal/domain"
)

// Provider is a mock predictor for testing and development
type Provider struct {
	logger *slog.Logger

	mu sync.Mutex

	// Configurable responses for testing
	Response *domain.Prediction
	Err      error

	// Block, when set, is waited on before answering so tests can hold a
	// submission in flight.
	Block chan struct{}

	// Call tracking for testing
	Calls       int
	LastPayload map[string]any
}

// New creates a new mock predictor
func New(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		logger: logger,
	}
}

// Predict returns the configured response or error, or a canned prediction.
func (p *Provider) Predict(ctx context.Context, payload map[string]any) (*domain.Prediction, error) {
	p.mu.Lock()
	p.Calls++
	p.LastPayload = payload
	block := p.Block
	resp, err := p.Response, p.Err
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	if resp != nil {
		out := *resp
		return &out, nil
	}

	p.logger.Debug("mock prediction served", "fields", len(payload))

	// Default canned response
	return &domain.Prediction{
		Probability: 0.27,
		Result:      false,
	}, nil
}

// CallCount returns the number of Predict calls so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Calls
}
