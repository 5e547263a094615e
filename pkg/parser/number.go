package parser

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a JSON integer outside the int64 range, kept in its source form.
type Number string

// MarshalJSON writes the number unquoted.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

// Float is a JSON number with a fractional part or exponent. It always renders
// with a decimal point or an exponent, so 1.0 stays distinct from 1.
type Float float64

// MarshalJSON writes the shortest form that reads back as the same float.
func (f Float) MarshalJSON() ([]byte, error) {
	return []byte(formatFloat(float64(f))), nil
}

// normalizeNumbers replaces parser number nodes with Number and Float in place.
func normalizeNumbers(v any) any {
	switch n := v.(type) {
	case map[string]any:
		for k, e := range n {
			n[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range n {
			n[i] = normalizeNumbers(e)
		}
	case json.Number:
		return Number(n)
	case float64:
		return Float(n)
	}
	return v
}

// formatFloat uses plain decimal notation when the decimal point falls within
// 16 digits of the first digit and exponent notation otherwise.
func formatFloat(f float64) string {
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	var b strings.Builder
	if s[0] == '-' {
		b.WriteByte('-')
		s = s[1:]
	}

	mant, expPart, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expPart)
	digits := strings.Replace(mant, ".", "", 1)
	point := exp + 1

	switch {
	case len(digits) <= point && point <= 16:
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", point-len(digits)))
		b.WriteString(".0")
	case 0 < point && point <= 16:
		b.WriteString(digits[:point])
		b.WriteByte('.')
		b.WriteString(digits[point:])
	case -5 < point && point <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -point))
		b.WriteString(digits)
	default:
		b.WriteString(digits[:1])
		if len(digits) > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		b.WriteString(strconv.Itoa(exp))
	}
	return b.String()
}
