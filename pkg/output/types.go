// Package output renders selected records and the end-of-run stats report.
package output

import (
	"time"

	"github.com/ccollicutt/logslice/pkg/slicer"
	"github.com/ccollicutt/logslice/pkg/stats"
)

// Report is the stats summary of one slicing run.
type Report struct {
	// Summary provides aggregate counts.
	Summary Summary `json:"summary"`

	// TopValues is set when a stats field was configured.
	TopValues *TopValues `json:"top_values,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate counts.
type Summary struct {
	// Seen is the number of records evaluated by the filter.
	Seen int `json:"seen"`

	// Matched is the number of records that passed the filter.
	Matched int `json:"matched"`

	// Emitted is the number of records written to the output.
	Emitted int `json:"emitted"`
}

// TopValues lists the most frequent values of the stats field.
type TopValues struct {
	Field    string             `json:"field"`
	Distinct int                `json:"distinct"`
	Values   []stats.ValueCount `json:"values"`
}

// Metadata provides context about the run.
type Metadata struct {
	// Sources lists the inputs that produced at least one record.
	Sources []string `json:"sources"`

	// StartedAt is when the pass began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the pass took.
	Duration time.Duration `json:"duration_ns"`

	// HeadReached reports whether the head limit ended the pass.
	HeadReached bool `json:"head_reached"`
}

// NewReport creates a Report from a run result, keeping at most topN values.
func NewReport(result *slicer.Result, topN int) *Report {
	report := &Report{
		Summary: Summary{
			Seen:    result.Stats.Seen,
			Matched: result.Stats.Matched,
			Emitted: result.Emitted,
		},
		Metadata: Metadata{
			Sources:     result.Sources,
			StartedAt:   result.StartTime,
			Duration:    result.Duration(),
			HeadReached: result.HeadReached,
		},
	}
	if report.Metadata.Sources == nil {
		report.Metadata.Sources = []string{}
	}

	if field := result.Stats.Field(); field != "" {
		values := result.Stats.Top(topN)
		if values == nil {
			values = []stats.ValueCount{}
		}
		report.TopValues = &TopValues{
			Field:    field,
			Distinct: result.Stats.Distinct(),
			Values:   values,
		}
	}

	return report
}
