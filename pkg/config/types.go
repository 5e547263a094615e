// Package config provides slice profile loading and validation for logslice.
package config

import (
	"time"

	"github.com/ccollicutt/logslice/pkg/filter"
	"github.com/ccollicutt/logslice/pkg/output"
	"github.com/ccollicutt/logslice/pkg/parser"
)

// Config is a slice profile loaded from YAML and merged with flags.
type Config struct {
	// Sources are glob patterns of input files. "-" reads standard input.
	Sources []string `yaml:"sources,omitempty"`

	// Input is the input mode: auto, text, or json.
	Input string `yaml:"input"`

	// Output is the output mode: plain, ndjson, or field.
	Output string `yaml:"output"`

	// Select lists dotted paths projected in ndjson output.
	Select []string `yaml:"select,omitempty"`

	Filter FilterConfig `yaml:"filter"`

	// Head keeps only the first N matches and stops reading after them.
	Head *int `yaml:"head,omitempty"`

	// Tail keeps only the last N matches.
	Tail *int `yaml:"tail,omitempty"`

	Stats StatsConfig `yaml:"stats"`

	// Follow keeps reading a single file as it grows.
	Follow bool `yaml:"follow,omitempty"`

	// Merge interleaves sources by the time field instead of reading them in turn.
	Merge bool `yaml:"merge,omitempty"`

	// Color styles the stats report.
	Color bool `yaml:"color,omitempty"`

	// Populated during validation
	inputMode parser.InputMode
	filter    *filter.Filter
	plan      *output.EmitPlan
}

// FilterConfig holds the record predicates. All set predicates must hold.
type FilterConfig struct {
	Contains  string  `yaml:"contains,omitempty"`
	Regex     string  `yaml:"regex,omitempty"`
	Field     string  `yaml:"field,omitempty"`
	Equals    *string `yaml:"equals,omitempty"`
	Since     string  `yaml:"since,omitempty"`
	Until     string  `yaml:"until,omitempty"`
	TimeField string  `yaml:"time_field"`

	since *time.Time
	until *time.Time
}

// SinceTime returns the parsed lower time bound, or nil.
func (f *FilterConfig) SinceTime() *time.Time {
	return f.since
}

// UntilTime returns the parsed upper time bound, or nil.
func (f *FilterConfig) UntilTime() *time.Time {
	return f.until
}

// StatsConfig controls the end-of-run report.
type StatsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Field is the field whose values are counted. Defaults to the filter field.
	Field string `yaml:"field,omitempty"`

	// Format is the report format: text or json.
	Format string `yaml:"format"`

	// Top is the number of values listed.
	Top int `yaml:"top"`
}

// InputMode returns the validated input mode.
func (c *Config) InputMode() parser.InputMode {
	return c.inputMode
}

// CompiledFilter returns the filter built during validation.
func (c *Config) CompiledFilter() *filter.Filter {
	return c.filter
}

// EmitPlan returns the output plan built during validation.
func (c *Config) EmitPlan() *output.EmitPlan {
	return c.plan
}

// StatsField returns the field counted in the stats report, if any.
func (c *Config) StatsField() string {
	if c.Stats.Field != "" {
		return c.Stats.Field
	}
	return c.Filter.Field
}
