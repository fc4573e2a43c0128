// Package controller implements the prediction form controller: it owns the
// form values, per-field errors and the latest submission result for one
// session, and drives the submission state machine
//
//	Idle -> Validating -> (Invalid | Submitting) -> (Success | Failure)
//
// Success, Failure and Invalid persist for display until the next Submit.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/DukeRupert/churnform/internal/domain"
	"github.com/DukeRupert/churnform/internal/metrics"
	"github.com/DukeRupert/churnform/internal/predict"
)

// Phase is a state of the submission state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseInvalid    Phase = "invalid"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseFailure    Phase = "failure"
)

// ErrSubmissionInFlight is returned by Submit while an earlier submission
// from the same controller has not completed.
var ErrSubmissionInFlight = domain.Conflict("controller.submit", "A prediction is already in progress")

// Snapshot is a point-in-time copy of controller state for rendering.
type Snapshot struct {
	Values  domain.FormState
	Errors  domain.ErrorMap
	Focus   string // first invalid field after a failed validation, else ""
	Loading bool
	Phase   Phase
	Result  domain.Result
}

// Controller is safe for concurrent use. The predictor call runs without
// the lock held so field edits stay responsive while a submission is out.
type Controller struct {
	catalog   *domain.Catalog
	predictor predict.Predictor
	logger    *slog.Logger

	mu      sync.Mutex
	values  domain.FormState
	errors  domain.ErrorMap
	result  domain.Result
	phase   Phase
	focus   string
	loading bool
}

// New creates a controller with an empty form.
func New(catalog *domain.Catalog, predictor predict.Predictor, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		catalog:   catalog,
		predictor: predictor,
		logger:    logger,
		values:    catalog.EmptyState(),
		errors:    make(domain.ErrorMap),
		result:    domain.NoResult(),
		phase:     PhaseIdle,
	}
}

// Catalog returns the field catalog the controller was built with.
func (c *Controller) Catalog() *domain.Catalog {
	return c.catalog
}

// SetField stores value for name and drops any error currently shown for
// that field. The new value is not validated until the next Submit.
func (c *Controller) SetField(name, value string) error {
	if !c.catalog.Has(name) {
		return domain.Invalid("controller.set_field", "unknown field "+name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[name] = value
	if c.errors.Clear(name) && c.focus == name {
		c.focus = ""
	}
	return nil
}

// Validate checks the current values without changing any state.
func (c *Controller) Validate() domain.ErrorMap {
	c.mu.Lock()
	values := c.values.Clone()
	c.mu.Unlock()

	return domain.Validate(c.catalog, values)
}

// FillExample replaces the form with the catalog's example record and
// clears the result and all field errors.
func (c *Controller) FillExample() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values = c.catalog.Example()
	c.errors = make(domain.ErrorMap)
	c.result = domain.NoResult()
	c.focus = ""
	if !c.loading {
		c.phase = PhaseIdle
	}
}

// Submit runs one pass of the state machine. Validation and remote
// failures end up in controller state, not in the returned error. Submit
// returns ErrSubmissionInFlight, leaving state untouched, while an earlier
// submission is running; any other error is internal.
func (c *Controller) Submit(ctx context.Context) error {
	payload, ok, err := c.begin()
	if err != nil {
		if errors.Is(err, ErrSubmissionInFlight) {
			metrics.PredictionFailed(metrics.OutcomeInFlight)
		}
		return err
	}
	if !ok {
		return nil
	}

	prediction, err := c.predictor.Predict(ctx, payload)
	c.finish(prediction, err)
	return nil
}

// begin resets the previous cycle, validates, and either records the
// invalid state or marks the controller as submitting.
func (c *Controller) begin() (map[string]any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		return nil, false, ErrSubmissionInFlight
	}

	c.phase = PhaseValidating
	c.result = domain.NoResult()
	c.errors = make(domain.ErrorMap)
	c.focus = ""

	errs := domain.Validate(c.catalog, c.values)
	if !errs.Empty() {
		c.errors = errs
		c.focus = errs.First(c.catalog)
		c.phase = PhaseInvalid

		invalid := make([]string, 0, errs.Len())
		for _, name := range c.catalog.Names() {
			if errs.Has(name) {
				invalid = append(invalid, name)
			}
		}
		metrics.FieldsInvalid("local", invalid...)
		metrics.PredictionFailed(metrics.OutcomeInvalid)
		c.logger.Debug("submission blocked by validation", "invalid_fields", invalid, "focus", c.focus)
		return nil, false, nil
	}

	payload, err := domain.Payload(c.catalog, c.values)
	if err != nil {
		// Validate checks every number-encoded field, so this is a catalog
		// inconsistency rather than bad input.
		c.phase = PhaseIdle
		c.logger.Error("payload construction failed after validation", "error", err)
		return nil, false, domain.Internal(err, "controller.submit", "Could not build the prediction request")
	}

	c.loading = true
	c.phase = PhaseSubmitting
	return payload, true, nil
}

// finish reconciles the predictor outcome into state.
func (c *Controller) finish(prediction *domain.Prediction, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading = false

	if err == nil {
		c.result = domain.SuccessResult(*prediction)
		c.errors = make(domain.ErrorMap)
		c.phase = PhaseSuccess
		metrics.PredictionSucceeded(prediction.Result)
		c.logger.Info("prediction succeeded", "probability", prediction.Probability, "churn", prediction.Result)
		return
	}

	payload := predict.FailurePayload(err)
	c.result = domain.FailureResult(payload)
	c.phase = PhaseFailure

	var fe *predict.FailureError
	if !errors.As(err, &fe) {
		metrics.PredictionFailed(metrics.OutcomeUnavailable)
		c.logger.Warn("prediction failed", "error", err)
		return
	}

	metrics.PredictionFailed(metrics.OutcomeRejected)
	if details, ok := predict.ParseDetails(fe.Body); ok {
		serverErrs := predict.FieldErrors(details)
		if !serverErrs.Empty() {
			c.errors = serverErrs
			c.focus = serverErrs.First(c.catalog)

			known := make([]string, 0, serverErrs.Len())
			for _, name := range c.catalog.Names() {
				if serverErrs.Has(name) {
					known = append(known, name)
				}
			}
			metrics.FieldsInvalid("server", known...)
		}
	}
	c.logger.Info("prediction rejected", "status", fe.StatusCode, "field_errors", c.errors.Len())
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Values:  c.values.Clone(),
		Errors:  c.errors.Clone(),
		Focus:   c.focus,
		Loading: c.loading,
		Phase:   c.phase,
		Result:  c.result,
	}
}
