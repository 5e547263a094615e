// Package parser provides log line reading, record construction and field extraction.
package parser

import (
	"fmt"
	"strings"
)

// InputMode controls how a raw line is turned into a Record.
type InputMode string

const (
	// InputAuto treats a line as JSON only when it looks like an object or array.
	InputAuto InputMode = "auto"
	// InputText never parses lines.
	InputText InputMode = "text"
	// InputJSON requires every line to be valid JSON; other lines are skipped.
	InputJSON InputMode = "json"
)

// ParseInputMode converts a flag or config value into an InputMode.
func ParseInputMode(s string) (InputMode, error) {
	switch m := InputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case InputAuto, InputText, InputJSON:
		return m, nil
	case "":
		return InputAuto, nil
	default:
		return "", fmt.Errorf("invalid input mode %q (must be auto, text, or json)", s)
	}
}

// Record represents a single input line with its optional structured value.
type Record struct {
	// Raw is the original line content without the line terminator.
	Raw string

	// Value is the parsed JSON tree. Only meaningful when IsJSON is true.
	// Numbers are int64, Float, or Number for integers beyond int64.
	Value any

	// IsJSON reports whether the line was parsed as JSON.
	IsJSON bool

	// Source is the file path (or "stdin") this line came from.
	Source string

	// LineNum is the 1-based line number in the source.
	LineNum int
}

// ParseError is returned by FromLine when a line must be JSON but is not.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing JSON line: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
