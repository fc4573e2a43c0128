package handler

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/DukeRupert/churnform/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// String functions
		"lower": func(s string) string {
			return strings.ToLower(s)
		},
		"title": func(v interface{}) string {
			s := fmt.Sprint(v)
			return cases.Title(language.English).String(s)
		},

		// Prediction display
		"percent": func(probability float64) string {
			return fmt.Sprintf("%d%%", domain.Prediction{Probability: probability}.Percent())
		},
		"prettyJSON": func(raw json.RawMessage) string {
			return domain.FailureResult(raw).FailureIndented()
		},

		// JSON encoding for safe JavaScript embedding
		"json": func(v interface{}) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS(`""`)
			}
			return template.JS(b)
		},

		// Conditional/Logic functions
		"eq": func(a, b interface{}) bool {
			return a == b
		},
		"ne": func(a, b interface{}) bool {
			return a != b
		},

		// Form helpers
		"csrfField": func(token string) template.HTML {
			return template.HTML(fmt.Sprintf(`<input type="hidden" name="csrf_token" value="%s">`, template.HTMLEscapeString(token)))
		},
	}
}
