package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Prediction is the success payload returned by the prediction service.
type Prediction struct {
	Probability float64 `json:"probability"` // Churn probability in [0, 1]
	Result      bool    `json:"result"`      // True when the customer is likely to churn
}

// UnmarshalJSON accepts result as a boolean or as a 0/1 number, since the
// prediction service serialises it as an integer flag.
func (p *Prediction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Probability *float64        `json:"probability"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Probability == nil {
		return fmt.Errorf("prediction: missing probability")
	}
	p.Probability = *raw.Probability

	result := bytes.TrimSpace(raw.Result)
	switch {
	case len(result) == 0, bytes.Equal(result, []byte("null")):
		p.Result = false
	case bytes.Equal(result, []byte("true")):
		p.Result = true
	case bytes.Equal(result, []byte("false")):
		p.Result = false
	default:
		var n float64
		if err := json.Unmarshal(result, &n); err != nil {
			return fmt.Errorf("prediction: result must be a boolean or number: %w", err)
		}
		p.Result = n != 0
	}
	return nil
}

// Percent returns the probability as a whole percentage, rounded half away
// from zero.
func (p Prediction) Percent() int {
	return int(math.Round(p.Probability * 100))
}

// Verdict returns the human-readable churn label.
func (p Prediction) Verdict() string {
	if p.Result {
		return "Likely to churn"
	}
	return "Not likely to churn"
}

// Outcome discriminates a Result.
type Outcome string

const (
	OutcomeNone    Outcome = "none"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Result is the outcome of the most recent submission: nothing yet, a
// prediction, or the raw failure payload. Exactly one is set.
type Result struct {
	outcome    Outcome
	prediction Prediction
	failure    json.RawMessage
}

// NoResult is the initial Result.
func NoResult() Result {
	return Result{outcome: OutcomeNone}
}

// SuccessResult wraps a prediction.
func SuccessResult(p Prediction) Result {
	return Result{outcome: OutcomeSuccess, prediction: p}
}

// FailureResult wraps a failure payload. The payload is copied.
func FailureResult(payload json.RawMessage) Result {
	cp := make(json.RawMessage, len(payload))
	copy(cp, payload)
	return Result{outcome: OutcomeFailure, failure: cp}
}

// Outcome returns which variant the result holds.
func (r Result) Outcome() Outcome {
	if r.outcome == "" {
		return OutcomeNone
	}
	return r.outcome
}

// Prediction returns the success payload, if any.
func (r Result) Prediction() (Prediction, bool) {
	return r.prediction, r.outcome == OutcomeSuccess
}

// Failure returns the failure payload, if any.
func (r Result) Failure() (json.RawMessage, bool) {
	return r.failure, r.outcome == OutcomeFailure
}

// FailureIndented returns the failure payload pretty-printed with two-space
// indentation, or the raw bytes when they are not valid JSON.
func (r Result) FailureIndented() string {
	if r.outcome != OutcomeFailure {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.failure, "", "  "); err != nil {
		return string(r.failure)
	}
	return buf.String()
}

// MarshalJSON renders the result as {"outcome": ..., "prediction"|"error": ...}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{"outcome": r.Outcome()}
	switch r.Outcome() {
	case OutcomeSuccess:
		out["prediction"] = r.prediction
	case OutcomeFailure:
		out["error"] = r.failure
	}
	return json.Marshal(out)
}
