package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_EmptyStateFlagsEveryField(t *testing.T) {
	c := MustDefaultCatalog()

	errs := Validate(c, c.EmptyState())

	require.Equal(t, len(c.Fields()), errs.Len())
	for _, f := range c.Fields() {
		want := MsgRequired
		if f.IsNumeric() {
			want = MsgInvalidValue
		}
		assert.Equal(t, want, errs.Get(f.Name), f.Name)
	}
}

func TestValidate_MissingKeysAreRequired(t *testing.T) {
	c := MustDefaultCatalog()

	errs := Validate(c, FormState{})

	assert.Equal(t, MsgRequired, errs.Get("gender"))
	assert.Equal(t, MsgInvalidValue, errs.Get("tenure"))
}

func TestValidate_NumericFields(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"integer string", "12", false},
		{"decimal string", "29.85", false},
		{"negative", "-3", false},
		{"exponent", "1e3", false},
		{"surrounding spaces", " 42 ", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"letters", "twelve", true},
		{"trailing junk", "12abc", true},
		{"nan", "NaN", true},
		{"infinity", "Inf", true},
		{"leading dot", ".5", false},
		{"trailing dot", "5.", false},
		{"hex integer", "0x10", false},
		{"binary integer", "0b101", false},
		{"octal integer", "0o17", false},
		{"digit separator", "1_000", true},
		{"hex float", "0x1p4", true},
		{"signed hex", "-0x10", true},
		{"bare prefix", "0x", true},
	}

	c := MustDefaultCatalog()
	for _, numeric := range []string{"tenure", "MonthlyCharges", "TotalCharges"} {
		for _, tt := range tests {
			t.Run(numeric+"/"+tt.name, func(t *testing.T) {
				state := c.Example()
				state[numeric] = tt.value

				errs := Validate(c, state)

				if tt.wantErr {
					assert.Equal(t, MsgInvalidValue, errs.Get(numeric))
					assert.Equal(t, 1, errs.Len())
				} else {
					assert.True(t, errs.Empty(), "unexpected errors: %v", errs)
				}
			})
		}
	}
}

func TestValidate_ChoiceFieldsOnlyCheckPresence(t *testing.T) {
	c := MustDefaultCatalog()
	state := c.Example()
	state["Contract"] = "Three year"

	errs := Validate(c, state)

	assert.True(t, errs.Empty(), "option membership must not be validated")
}

func TestValidate_IsDeterministicAndPure(t *testing.T) {
	c := MustDefaultCatalog()
	state := FormState{"gender": "Male", "tenure": "x"}
	before := state.Clone()

	first := Validate(c, state)
	second := Validate(c, state)

	assert.Equal(t, first, second)
	assert.Equal(t, before, state)
}

func TestValidate_ExampleIsValid(t *testing.T) {
	c := MustDefaultCatalog()

	assert.True(t, Validate(c, c.Example()).Empty())
}

func TestPayload_CoercesNumericFields(t *testing.T) {
	c := MustDefaultCatalog()

	payload, err := Payload(c, c.Example())
	require.NoError(t, err)

	assert.Equal(t, float64(12), payload["tenure"])
	assert.Equal(t, float64(0), payload["SeniorCitizen"])
	assert.Equal(t, 29.85, payload["MonthlyCharges"])
	assert.Equal(t, 350.5, payload["TotalCharges"])
	assert.Equal(t, "Male", payload["gender"])
	assert.Equal(t, "Month-to-month", payload["Contract"])
	assert.Len(t, payload, len(c.Fields()))
}

func TestPayload_RejectsNonNumeric(t *testing.T) {
	c := MustDefaultCatalog()
	state := c.Example()
	state["SeniorCitizen"] = "maybe"

	_, err := Payload(c, state)

	require.Error(t, err)
	assert.Equal(t, EINVALID, ErrorCode(err))
}

func TestValidateValue(t *testing.T) {
	c := MustDefaultCatalog()
	tenure, _ := c.Field("tenure")
	gender, _ := c.Field("gender")

	assert.Equal(t, "", ValidateValue(tenure, " 12 "))
	assert.Equal(t, MsgInvalidValue, ValidateValue(tenure, "twelve"))
	assert.Equal(t, MsgInvalidValue, ValidateValue(tenure, "NaN"))
	assert.Equal(t, "", ValidateValue(gender, "Female"))
	assert.Equal(t, MsgRequired, ValidateValue(gender, "   "))
}

func TestValidate_NumberEncodedChoice(t *testing.T) {
	c := MustDefaultCatalog()
	state := c.Example()
	state["SeniorCitizen"] = "abc"

	errs := Validate(c, state)

	assert.Equal(t, ErrorMap{"SeniorCitizen": MsgInvalidValue}, errs)

	state["SeniorCitizen"] = ""
	assert.Equal(t, MsgRequired, Validate(c, state).Get("SeniorCitizen"))
}

func TestPayload_RadixIntegers(t *testing.T) {
	c := MustDefaultCatalog()
	state := c.Example()
	state["tenure"] = "0x10"

	payload, err := Payload(c, state)

	require.NoError(t, err)
	assert.Equal(t, 16.0, payload["tenure"])
}
