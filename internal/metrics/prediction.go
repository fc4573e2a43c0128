package metrics

import "strconv"

// Submission outcomes recorded in PredictionsTotal
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeInFlight    = "rejected_in_flight"
)

// PredictionSucceeded records a successful prediction and its verdict
func PredictionSucceeded(churn bool) {
	PredictionsTotal.WithLabelValues(OutcomeSuccess).Inc()
	PredictedChurnTotal.WithLabelValues(strconv.FormatBool(churn)).Inc()
}

// PredictionFailed records a failed submission with the given outcome label
func PredictionFailed(outcome string) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
}

// FieldsInvalid records one validation failure per field. Only declared
// field names should be passed to keep label cardinality bounded.
func FieldsInvalid(source string, fields ...string) {
	for _, f := range fields {
		ValidationFailuresTotal.WithLabelValues(f, source).Inc()
	}
}
