package parser

import (
	"strings"
	"time"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// renderOptions produce compact JSON with sorted object keys so that the
// textual form of a value does not depend on map iteration order.
var renderOptions = func() *oj.Options {
	opts := oj.DefaultOptions
	opts.Sort = true
	opts.Indent = 0
	return &opts
}()

// FromLine builds a Record from a raw line according to the input mode.
// Under InputJSON a line that is not valid JSON yields a *ParseError.
// Under InputAuto such a line is kept as plain text.
func FromLine(raw string, mode InputMode) (*Record, error) {
	rec := &Record{Raw: raw}

	switch mode {
	case InputText:
		return rec, nil
	case InputJSON:
		v, err := oj.ParseString(raw, ojg.NumConvNone)
		if err != nil {
			return nil, &ParseError{Line: raw, Err: err}
		}
		rec.Value, rec.IsJSON = normalizeNumbers(v), true
	default:
		if !looksLikeJSON(raw) {
			return rec, nil
		}
		if v, err := oj.ParseString(raw, ojg.NumConvNone); err == nil {
			rec.Value, rec.IsJSON = normalizeNumbers(v), true
		}
	}

	return rec, nil
}

// Field returns the node at the dotted path, or false if it cannot be resolved.
func (r *Record) Field(path string) (any, bool) {
	if !r.IsJSON {
		return nil, false
	}
	return Lookup(r.Value, path)
}

// FieldString returns the node at the dotted path as text. String leaves are
// returned verbatim, anything else in its compact JSON rendering.
func (r *Record) FieldString(path string) (string, bool) {
	v, ok := r.Field(path)
	if !ok {
		return "", false
	}
	return Text(v), true
}

// Timestamp resolves the dotted path and parses it as a timestamp.
func (r *Record) Timestamp(path string) (time.Time, bool) {
	s, ok := r.FieldString(path)
	if !ok {
		return time.Time{}, false
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Text renders a JSON node as text: strings verbatim, everything else as JSON.
func Text(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return Render(v)
}

// Render returns the compact JSON form of a node.
func Render(v any) string {
	return oj.JSON(v, renderOptions)
}

func looksLikeJSON(s string) bool {
	t := strings.TrimLeft(s, " \t\r\n")
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")
}
