package internal

import (
	"log/slog"

	"github.com/DukeRupert/churnform/internal/predict"
	"github.com/DukeRupert/churnform/internal/predict/mock"
	"github.com/DukeRupert/churnform/internal/predict/remote"
)

// NewPredictor builds the prediction backend selected by PREDICTOR.
func NewPredictor(cfg *Config, logger *slog.Logger) (predict.Predictor, error) {
	switch cfg.Predictor {
	case PredictorMock:
		logger.Warn("using mock predictor; predictions are canned")
		return mock.New(logger), nil
	default:
		return remote.New(remote.Config{
			URL:     cfg.PredictionURL,
			Timeout: cfg.PredictionTimeout,
		}, logger)
	}
}
