package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders a run report in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds sources, duration and head status to the report.
	Verbose bool

	// Color styles text headers for a terminal.
	Color bool
}

// NewFormatter returns the report formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown stats format %q (want text or json)", name)
	}
}
