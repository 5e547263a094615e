package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %d\n", f.style(headerStyle, "seen:"), report.Summary.Seen)
	fmt.Fprintf(&b, "%s %d\n", f.style(headerStyle, "matched:"), report.Summary.Matched)

	if tv := report.TopValues; tv != nil {
		fmt.Fprintln(&b, f.style(headerStyle, fmt.Sprintf("top values for field '%s':", tv.Field)))
		for _, vc := range tv.Values {
			fmt.Fprintf(&b, "  %s  %s\n", f.style(countStyle, fmt.Sprintf("%6d", vc.Count)), vc.Value)
		}
	}

	if f.opts.Verbose {
		f.formatMetadata(report, &b)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (f *TextFormatter) formatMetadata(report *Report, b *strings.Builder) {
	md := report.Metadata
	fmt.Fprintf(b, "%s %d\n", f.style(dimStyle, "emitted:"), report.Summary.Emitted)
	if len(md.Sources) > 0 {
		fmt.Fprintf(b, "%s %s\n", f.style(dimStyle, "sources:"), strings.Join(md.Sources, ", "))
	}
	fmt.Fprintf(b, "%s %s\n", f.style(dimStyle, "duration:"), md.Duration.Round(1e6))
	if md.HeadReached {
		fmt.Fprintln(b, f.style(dimStyle, "head limit reached, remaining input not read"))
	}
}

func (f *TextFormatter) style(s lipgloss.Style, text string) string {
	if !f.opts.Color {
		return text
	}
	return s.Render(text)
}
