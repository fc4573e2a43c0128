// Package predict defines the client side of the external churn prediction
// service: the Predictor interface, its error values, and the failure body
// format the service uses for per-field complaints.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/DukeRupert/churnform/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

// Predictor sends one customer record to the prediction service.
type Predictor interface {
	// Predict posts payload and returns the parsed success body.
	// Non-success responses are returned as *FailureError; transport
	// failures wrap ErrUnavailable.
	Predict(ctx context.Context, payload map[string]any) (*domain.Prediction, error)
}

// Error values for prediction operations
var (
	// ErrUnavailable indicates the service could not be reached or its
	// response could not be read.
	ErrUnavailable = errors.New("prediction service unavailable")

	// ErrMalformedResponse indicates a success status with a body that is
	// not a prediction.
	ErrMalformedResponse = errors.New("malformed prediction response")
)

// FailureError is returned when the service answers with a non-success
// status. Body is the response body when it was JSON, otherwise a small
// JSON object carrying the status and text.
type FailureError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("prediction service returned status %d", e.StatusCode)
}

// NewFailureError builds a FailureError, wrapping non-JSON bodies so the
// payload is always displayable as JSON.
func NewFailureError(status int, body []byte) *FailureError {
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return &FailureError{StatusCode: status, Body: json.RawMessage(trimmed)}
	}

	wrapped, _ := json.Marshal(map[string]any{
		"status":  status,
		"message": trimmed,
	})
	return &FailureError{StatusCode: status, Body: wrapped}
}

// Detail is one per-field complaint in a failure body of the form
// {"detail": [{"loc": [...], "msg": "..."}]}.
type Detail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Field returns the last segment of Loc, which names the offending form
// field. Numeric segments are formatted without a fraction.
func (d Detail) Field() string {
	if len(d.Loc) == 0 {
		return ""
	}
	switch seg := d.Loc[len(d.Loc)-1].(type) {
	case string:
		return strings.TrimSpace(seg)
	case float64:
		return strconv.FormatFloat(seg, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(seg)
	}
}

// ParseDetails extracts the detail list from a failure body. It reports
// false when the body is not an object with a detail array.
func ParseDetails(body json.RawMessage) ([]Detail, bool) {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false
	}
	var details []Detail
	if err := json.Unmarshal(envelope.Detail, &details); err != nil {
		return nil, false
	}
	return details, true
}

var messagePolicy = bluemonday.StrictPolicy()

// FieldErrors maps each detail entry onto a field error keyed by the last
// loc segment. Entries without a usable segment are skipped. Markup is
// stripped from messages and entities decoded so the renderer escapes once.
func FieldErrors(details []Detail) domain.ErrorMap {
	errs := make(domain.ErrorMap)
	for _, d := range details {
		field := d.Field()
		if field == "" {
			continue
		}
		errs.Set(field, html.UnescapeString(messagePolicy.Sanitize(d.Msg)))
	}
	return errs
}

// FailurePayload returns what should be displayed for err: the service
// body for a *FailureError, or {"message": err.Error()} for anything else.
func FailurePayload(err error) json.RawMessage {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Body
	}
	payload, _ := json.Marshal(map[string]string{"message": err.Error()})
	return payload
}
