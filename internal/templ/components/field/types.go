// Package field renders one catalog field: its label, its control and the
// error message slot shown beneath it.
package field

import "github.com/DukeRupert/churnform/internal/domain"

// Data contains everything needed to render one field.
type Data struct {
	Field     domain.Field
	Value     string
	Error     string // Message shown under the control; empty hides it
	Autofocus bool   // Set on the first invalid field after a submit
	Disabled  bool   // Set while a submission is in flight
}

// ID returns the DOM id of the field wrapper, the htmx swap target.
func (d Data) ID() string {
	return "field-" + d.Field.Name
}

// ErrorID returns the DOM id of the error message element.
func (d Data) ErrorID() string {
	return "err-" + d.Field.Name
}

// ControlID returns the DOM id of the select or input.
func (d Data) ControlID() string {
	return "in-" + d.Field.Name
}

// HasError reports whether an error message will be rendered.
func (d Data) HasError() bool {
	return d.Error != ""
}

// FromSnapshot builds field data for every catalog field in declaration
// order.
func FromSnapshot(c *domain.Catalog, values domain.FormState, errs domain.ErrorMap, focus string, loading bool) []Data {
	fields := c.Fields()
	out := make([]Data, len(fields))
	for i, f := range fields {
		out[i] = Data{
			Field:     f,
			Value:     values[f.Name],
			Error:     errs.Get(f.Name),
			Autofocus: focus == f.Name,
			Disabled:  loading,
		}
	}
	return out
}
