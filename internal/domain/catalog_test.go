package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_DeclarationOrder(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	want := []string{
		"gender", "SeniorCitizen", "Partner", "Dependents", "tenure",
		"PhoneService", "MultipleLines", "InternetService", "OnlineSecurity",
		"OnlineBackup", "DeviceProtection", "TechSupport", "StreamingTV",
		"StreamingMovies", "Contract", "PaperlessBilling", "PaymentMethod",
		"MonthlyCharges", "TotalCharges",
	}
	if diff := cmp.Diff(want, c.Names()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultCatalog_Options(t *testing.T) {
	c := MustDefaultCatalog()

	contract, ok := c.Field("Contract")
	require.True(t, ok)
	assert.Equal(t, FieldKindChoice, contract.Kind)
	assert.Equal(t, []Option{
		{Value: "Month-to-month", Label: "Month-to-month"},
		{Value: "One year", Label: "One year"},
		{Value: "Two year", Label: "Two year"},
	}, contract.Options)

	backup, ok := c.Field("OnlineBackup")
	require.True(t, ok)
	assert.True(t, backup.HasOption("No internet service"))

	senior, ok := c.Field("SeniorCitizen")
	require.True(t, ok)
	assert.Equal(t, EncodeNumber, senior.Encoding())
	assert.False(t, senior.IsNumeric())
	assert.Equal(t, []Option{{Value: "0", Label: "No"}, {Value: "1", Label: "Yes"}}, senior.Options)
}

func TestDefaultCatalog_NumericFields(t *testing.T) {
	c := MustDefaultCatalog()

	var numeric []string
	for _, f := range c.Fields() {
		if f.IsNumeric() {
			numeric = append(numeric, f.Name)
		}
	}

	assert.Equal(t, []string{"tenure", "MonthlyCharges", "TotalCharges"}, numeric)
}

func TestCatalog_ExampleIsACopy(t *testing.T) {
	c := MustDefaultCatalog()

	first := c.Example()
	first["gender"] = "Female"

	assert.Equal(t, "Male", c.Example()["gender"])
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no fields", "fields: []", "no fields declared"},
		{"missing name", "fields:\n  - kind: number", "has no name"},
		{"duplicate", "fields:\n  - {name: a, kind: number}\n  - {name: a, kind: number}", "duplicate field"},
		{"bad kind", "fields:\n  - {name: a, kind: date}", "unknown kind"},
		{"choice without options", "fields:\n  - {name: a, kind: choice}", "has no options"},
		{"bad encoding", "fields:\n  - {name: a, kind: choice, encode: bool, options: [x]}", "unknown encoding"},
		{"unknown example field", "fields:\n  - {name: a, kind: number}\nexample:\n  b: \"1\"", "unknown field"},
		{"malformed", "fields: [", "parse catalog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseCatalog_LabelDefaultsToName(t *testing.T) {
	c, err := ParseCatalog([]byte("fields:\n  - {name: score, kind: number}"))
	require.NoError(t, err)

	f, ok := c.Field("score")
	require.True(t, ok)
	assert.Equal(t, "score", f.Label)
	assert.Equal(t, EncodeNumber, f.Encoding())
}
