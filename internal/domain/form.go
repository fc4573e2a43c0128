package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormState maps field name to the raw value the user entered.
// Values are kept as entered; coercion happens only when building a payload.
type FormState map[string]string

// Clone returns an independent copy of s.
func (s FormState) Clone() FormState {
	out := make(FormState, len(s))
	for name, value := range s {
		out[name] = value
	}
	return out
}

// Validation messages shown next to invalid fields.
const (
	MsgRequired     = "This field is required"
	MsgInvalidValue = "Please enter a valid value"
)

// Validate checks every declared field of state and returns the invalid
// ones. Choice fields only need to be non-empty (and numeric when sent as
// a number); option membership is not checked here. Number fields must be
// non-empty and parse as a number. An empty map means the form may be submitted. Validate has no side
// effects and returns the same map for the same input.
func Validate(c *Catalog, state FormState) ErrorMap {
	errs := make(ErrorMap)
	for _, f := range c.Fields() {
		if msg := ValidateValue(f, state[f.Name]); msg != "" {
			errs.Set(f.Name, msg)
		}
	}
	return errs
}

// ValidateValue applies the rule for a single field and returns the
// message to show, or "" when raw is acceptable. A choice field sent as a
// number (SeniorCitizen) is required like any choice, and a non-empty
// value must also parse, so Payload cannot fail on validated state.
func ValidateValue(f Field, raw string) string {
	value := strings.TrimSpace(raw)
	if f.IsNumeric() {
		if _, ok := parseNumber(value); !ok {
			return MsgInvalidValue
		}
		return ""
	}
	if value == "" {
		return MsgRequired
	}
	if f.Encoding() == EncodeNumber {
		if _, ok := parseNumber(value); !ok {
			return MsgInvalidValue
		}
	}
	return ""
}

// Payload converts state into the JSON object sent to the prediction
// service: number-encoded fields become float64, everything else stays a
// string. State is expected to have passed Validate.
func Payload(c *Catalog, state FormState) (map[string]any, error) {
	const op = "domain.Payload"

	out := make(map[string]any, len(c.Fields()))
	for _, f := range c.Fields() {
		raw := strings.TrimSpace(state[f.Name])
		if f.Encoding() != EncodeNumber {
			out[f.Name] = raw
			continue
		}
		n, ok := parseNumber(raw)
		if !ok {
			return nil, Invalid(op, fmt.Sprintf("field %s: %q is not a number", f.Name, raw))
		}
		out[f.Name] = n
	}
	return out, nil
}

// parseNumber reads a decimal number the way the browser's Number() does:
// optional sign, digits, fraction and exponent. Unsigned 0x, 0o and 0b
// integers are accepted too. Go-only syntax (digit separators, hex floats,
// signed radix prefixes) is rejected, as are NaN and infinities, which
// cannot be encoded as JSON numbers.
func parseNumber(raw string) (float64, bool) {
	if raw == "" || strings.ContainsRune(raw, '_') {
		return 0, false
	}

	if len(raw) > 2 && raw[0] == '0' {
		if base := radix(raw[1]); base != 0 {
			n, err := strconv.ParseUint(raw[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}
	if strings.ContainsAny(raw, "xXpP") {
		return 0, false
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func radix(prefix byte) int {
	switch prefix {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	default:
		return 0
	}
}
