// Package predict holds the view models for the prediction page.
package predict

import (
	"encoding/json"
	"html/template"

	"github.com/DukeRupert/churnform/internal/domain"
)

// PageData contains data for the prediction page and its form panel.
type PageData struct {
	Title     string
	CSRFToken string
	Fields    []template.HTML // Pre-rendered field components, in catalog order
	Loading   bool            // A submission from this session is in flight
	Notice    string          // Banner above the form, e.g. a rejected double submit
	Result    ResultView
}

// ResultView flattens domain.Result for the result partial.
type ResultView struct {
	Outcome     string // none, success or failure
	Probability float64
	Percent     int // Probability as a whole percentage, sizes the bar
	Churn       bool
	Verdict     string
	Failure     json.RawMessage
}

// NewResultView converts a submission result for display.
func NewResultView(r domain.Result) ResultView {
	v := ResultView{Outcome: string(r.Outcome())}
	if p, ok := r.Prediction(); ok {
		v.Probability = p.Probability
		v.Percent = p.Percent()
		v.Churn = p.Result
		v.Verdict = p.Verdict()
	}
	if raw, ok := r.Failure(); ok {
		v.Failure = raw
	}
	return v
}
