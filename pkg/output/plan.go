package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ccollicutt/logslice/pkg/parser"
)

// Mode selects the textual representation of an emitted record.
type Mode string

const (
	// ModePlain prints the raw line.
	ModePlain Mode = "plain"
	// ModeNDJSON prints one JSON value per line.
	ModeNDJSON Mode = "ndjson"
	// ModeField prints the text of a single field.
	ModeField Mode = "field"
)

// ErrFieldRequired is returned when field output is requested without a field.
var ErrFieldRequired = errors.New("--output field requires --field")

// ParseMode converts a flag or config value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePlain, ModeNDJSON, ModeField:
		return m, nil
	case "":
		return ModePlain, nil
	default:
		return "", fmt.Errorf("invalid output mode %q (must be plain, ndjson, or field)", s)
	}
}

// ParseSelect splits a comma-separated list of dotted paths, dropping blanks.
func ParseSelect(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// EmitPlan decides how matching records are rendered. It is immutable.
type EmitPlan struct {
	mode        Mode
	field       string
	selectPaths []string
}

// NewEmitPlan validates and builds an EmitPlan.
func NewEmitPlan(mode Mode, field string, selectPaths []string) (*EmitPlan, error) {
	if mode == ModeField && field == "" {
		return nil, ErrFieldRequired
	}
	paths := make([]string, len(selectPaths))
	copy(paths, selectPaths)
	return &EmitPlan{mode: mode, field: field, selectPaths: paths}, nil
}

// Mode returns the output mode.
func (p *EmitPlan) Mode() Mode {
	return p.mode
}

// Format renders a record as a single line without the terminator.
func (p *EmitPlan) Format(rec *parser.Record) string {
	switch p.mode {
	case ModeField:
		s, _ := rec.FieldString(p.field)
		return s
	case ModeNDJSON:
		if len(p.selectPaths) > 0 {
			return p.selectObject(rec)
		}
		if rec.IsJSON {
			return parser.Render(rec.Value)
		}
		return parser.Render(map[string]any{"line": rec.Raw})
	default:
		return rec.Raw
	}
}

// selectObject renders the selected paths as a flat JSON object, keeping
// the order in which the paths were listed.
func (p *EmitPlan) selectObject(rec *parser.Record) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, path := range p.selectPaths {
		if i > 0 {
			b.WriteByte(',')
		}
		v, ok := rec.Field(path)
		if !ok {
			v = nil
		}
		b.WriteString(parser.Render(strings.ReplaceAll(path, ".", "_")))
		b.WriteByte(':')
		b.WriteString(parser.Render(v))
	}
	b.WriteByte('}')
	return b.String()
}
