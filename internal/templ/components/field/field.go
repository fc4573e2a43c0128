package field

import (
	"context"
	"io"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

const (
	wrapperClass = "flex flex-col gap-1"
	labelClass   = "text-sm font-medium text-gray-700"
	controlClass = "block w-full rounded-md border border-gray-300 bg-white px-3 py-2 text-sm shadow-sm focus:border-blue-500 focus:outline-none focus:ring-1 focus:ring-blue-500 disabled:bg-gray-100"
	invalidClass = "border-red-500 focus:border-red-500 focus:ring-red-500"
	errorClass   = "text-sm text-red-600"
)

// ControlClass returns the merged class list for a control.
func ControlClass(invalid bool, extra ...string) string {
	classes := append([]string{controlClass}, extra...)
	if invalid {
		classes = append(classes, invalidClass)
	}
	return twmerge.Merge(classes...)
}

// Field renders the wrapper div with label, control and error slot. The
// wrapper is also the response body of a single-field htmx update.
func Field(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div id="`)
		b.WriteString(templ.EscapeString(d.ID()))
		b.WriteString(`" class="`)
		b.WriteString(templ.EscapeString(wrapperClass))
		b.WriteString(`"><label for="`)
		b.WriteString(templ.EscapeString(d.ControlID()))
		b.WriteString(`" class="`)
		b.WriteString(labelClass)
		b.WriteString(`">`)
		b.WriteString(templ.EscapeString(d.Field.Label))
		b.WriteString(`</label>`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}

		control := NumberInput(d)
		if !d.Field.IsNumeric() {
			control = Select(d)
		}
		if err := control.Render(ctx, w); err != nil {
			return err
		}
		if err := ErrorMessage(d).Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// Select renders a choice field with a disabled placeholder option.
func Select(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<select`)
		writeControlAttrs(&b, d, ControlClass(d.HasError()))
		b.WriteString(`>`)

		b.WriteString(`<option value="" disabled`)
		if d.Value == "" {
			b.WriteString(` selected`)
		}
		b.WriteString(`>`)
		b.WriteString(templ.EscapeString(placeholder(d)))
		b.WriteString(`</option>`)

		for _, opt := range d.Field.Options {
			b.WriteString(`<option value="`)
			b.WriteString(templ.EscapeString(opt.Value))
			b.WriteString(`"`)
			if opt.Value == d.Value {
				b.WriteString(` selected`)
			}
			b.WriteString(`>`)
			b.WriteString(templ.EscapeString(opt.Label))
			b.WriteString(`</option>`)
		}
		b.WriteString(`</select>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// NumberInput renders a numeric field. The value is echoed back verbatim
// so an unparsable entry stays visible next to its error.
func NumberInput(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<input type="number" inputmode="decimal"`)
		writeControlAttrs(&b, d, ControlClass(d.HasError(), "tabular-nums"))
		b.WriteString(` value="`)
		b.WriteString(templ.EscapeString(d.Value))
		b.WriteString(`"`)
		if d.Field.Min != "" {
			b.WriteString(` min="`)
			b.WriteString(templ.EscapeString(d.Field.Min))
			b.WriteString(`"`)
		}
		step := "any"
		if d.Field.Step != "" {
			step = d.Field.Step
		}
		b.WriteString(` step="`)
		b.WriteString(templ.EscapeString(step))
		b.WriteString(`"`)
		if ph := placeholder(d); ph != "" {
			b.WriteString(` placeholder="`)
			b.WriteString(templ.EscapeString(ph))
			b.WriteString(`"`)
		}
		b.WriteString(`>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorMessage renders the error element, or nothing when the field is
// valid.
func ErrorMessage(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !d.HasError() {
			return nil
		}
		_, err := io.WriteString(w, `<p id="`+templ.EscapeString(d.ErrorID())+
			`" class="`+errorClass+`" role="alert">`+
			templ.EscapeString(d.Error)+`</p>`)
		return err
	})
}

func writeControlAttrs(b *strings.Builder, d Data, class string) {
	name := templ.EscapeString(d.Field.Name)
	b.WriteString(` id="`)
	b.WriteString(templ.EscapeString(d.ControlID()))
	b.WriteString(`" name="`)
	b.WriteString(name)
	b.WriteString(`" class="`)
	b.WriteString(templ.EscapeString(class))
	b.WriteString(`" hx-post="/fields/`)
	b.WriteString(name)
	b.WriteString(`" hx-trigger="change" hx-target="#`)
	b.WriteString(templ.EscapeString(d.ID()))
	b.WriteString(`" hx-swap="outerHTML"`)
	if d.HasError() {
		b.WriteString(` aria-invalid="true" aria-describedby="`)
		b.WriteString(templ.EscapeString(d.ErrorID()))
		b.WriteString(`"`)
	}
	if d.Autofocus {
		b.WriteString(` autofocus`)
	}
	if d.Disabled {
		b.WriteString(` disabled`)
	}
}

func placeholder(d Data) string {
	if d.Field.Placeholder != "" {
		return d.Field.Placeholder
	}
	if d.Field.IsNumeric() {
		return ""
	}
	return "Select " + d.Field.Label
}
