package predict

import (
	"encoding/json"
	"testing"

	"github.com/DukeRupert/churnform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewResultView(t *testing.T) {
	v := NewResultView(domain.NoResult())
	assert.Equal(t, "none", v.Outcome)

	v = NewResultView(domain.SuccessResult(domain.Prediction{Probability: 0.73, Result: true}))
	assert.Equal(t, "success", v.Outcome)
	assert.Equal(t, 0.73, v.Probability)
	assert.Equal(t, 73, v.Percent)
	assert.True(t, v.Churn)
	assert.Equal(t, "Likely to churn", v.Verdict)
	assert.Nil(t, v.Failure)

	v = NewResultView(domain.FailureResult(json.RawMessage(`{"message":"boom"}`)))
	assert.Equal(t, "failure", v.Outcome)
	assert.JSONEq(t, `{"message":"boom"}`, string(v.Failure))
	assert.Empty(t, v.Verdict)
}
