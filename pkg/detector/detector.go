// Package detector samples a log file to suggest an input mode and the JSON
// field that holds record timestamps.
package detector

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ccollicutt/logslice/pkg/filter"
	"github.com/ccollicutt/logslice/pkg/parser"
)

// maxDepth bounds how deep JSON objects are searched for time fields.
const maxDepth = 4

// DetectionResult holds the result of analyzing a log file.
type DetectionResult struct {
	Matches        []FieldMatch     // Time field candidates, sorted by confidence descending
	SampledLines   int              // Number of non-empty lines sampled
	JSONLines      int              // Lines that parsed as JSON
	TextLines      int              // Lines kept as plain text
	SuggestedInput parser.InputMode // Input mode that fits the sample
}

// FieldMatch is a dotted path whose values parse as timestamps.
type FieldMatch struct {
	Path        string
	Confidence  float64   // 0.0 to 1.0 (fraction of JSON lines matched)
	MatchCount  int       // Number of lines that matched
	SampleValue string    // Example value that parsed
	ParsedTime  time.Time // Parsed timestamp from the sample
}

// Detector analyzes log files to identify their shape.
type Detector struct {
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		sampleSize: 100,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile analyzes a log file and returns the detection result.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines analyzes a slice of log lines.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{
		SuggestedInput: parser.InputAuto,
	}

	type fieldStats struct {
		matchCount  int
		sampleValue string
		parsedTime  time.Time
	}
	stats := make(map[string]*fieldStats)

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.SampledLines++

		rec, err := parser.FromLine(line, parser.InputAuto)
		if err != nil || !rec.IsJSON {
			result.TextLines++
			continue
		}
		result.JSONLines++

		for path, value := range timeFields(rec.Value) {
			ts, _ := parser.ParseTimestamp(value)
			s := stats[path]
			if s == nil {
				s = &fieldStats{sampleValue: value, parsedTime: ts}
				stats[path] = s
			}
			s.matchCount++
		}
	}

	switch {
	case result.SampledLines == 0:
	case result.JSONLines == result.SampledLines:
		result.SuggestedInput = parser.InputJSON
	case result.TextLines == result.SampledLines:
		result.SuggestedInput = parser.InputText
	}

	for path, s := range stats {
		result.Matches = append(result.Matches, FieldMatch{
			Path:        path,
			Confidence:  float64(s.matchCount) / float64(result.JSONLines),
			MatchCount:  s.matchCount,
			SampleValue: s.sampleValue,
			ParsedTime:  s.parsedTime,
		})
	}

	// Sort by confidence, then prefer the default field, then shallower paths
	sort.Slice(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if (a.Path == filter.DefaultTimeField) != (b.Path == filter.DefaultTimeField) {
			return a.Path == filter.DefaultTimeField
		}
		if da, db := strings.Count(a.Path, "."), strings.Count(b.Path, "."); da != db {
			return da < db
		}
		return a.Path < b.Path
	})

	return result
}

// timeFields returns the dotted paths of string leaves that parse as
// timestamps, mapped to their values. Only object keys are followed.
func timeFields(v any) map[string]string {
	out := make(map[string]string)
	var walk func(node any, prefix string, depth int)
	walk = func(node any, prefix string, depth int) {
		obj, ok := node.(map[string]any)
		if !ok || depth > maxDepth {
			return
		}
		for key, child := range obj {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			switch c := child.(type) {
			case string:
				if _, err := parser.ParseTimestamp(c); err == nil {
					out[path] = c
				}
			case map[string]any:
				walk(c, path, depth+1)
			}
		}
	}
	walk(v, "", 1)
	return out
}

// sampleFile reads up to sampleSize non-empty lines from a file.
// Compressed files are read through the same source as slicing.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	source := parser.NewFileSource([]string{path}, parser.InputText)
	defer source.Close()

	var lines []string
	for len(lines) < d.sampleSize {
		rec, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(rec.Raw) != "" {
			lines = append(lines, rec.Raw)
		}
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *FieldMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one time field was found.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
