// Package filter provides the compiled record predicate used by the slicer.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ccollicutt/logslice/pkg/parser"
)

// DefaultTimeField is the dotted path read for --since/--until when none is given.
const DefaultTimeField = "timestamp"

// Options describes the predicates to compile. Zero values are unconfigured,
// except Equals which is a pointer so that an empty equality can be requested.
type Options struct {
	// Contains is a case-sensitive substring of the target text.
	Contains string

	// Pattern is an unanchored regular expression matched against the target text.
	Pattern string

	// Field selects the dotted path used as target text instead of the raw line.
	Field string

	// Equals requires the target text to equal this value.
	Equals *string

	// Since and Until are inclusive timestamp bounds.
	Since *time.Time
	Until *time.Time

	// TimeField is the dotted path holding the record timestamp.
	TimeField string
}

// Filter is an immutable AND of all configured predicates.
type Filter struct {
	contains  string
	re        *regexp.Regexp
	field     string
	equals    *string
	since     *time.Time
	until     *time.Time
	timeField string
}

// New compiles a Filter. An invalid regular expression is an error.
func New(opts Options) (*Filter, error) {
	f := &Filter{
		contains:  opts.Contains,
		field:     opts.Field,
		equals:    opts.Equals,
		since:     opts.Since,
		until:     opts.Until,
		timeField: opts.TimeField,
	}

	if f.timeField == "" {
		f.timeField = DefaultTimeField
	}

	if opts.Pattern != "" {
		re, err := regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", opts.Pattern, err)
		}
		f.re = re
	}

	return f, nil
}

// Matches reports whether the record satisfies every configured predicate.
// When a time bound is set, a record without a usable timestamp never matches.
func (f *Filter) Matches(rec *parser.Record) bool {
	if f.since != nil || f.until != nil {
		ts, ok := rec.Timestamp(f.timeField)
		if !ok {
			return false
		}
		if f.since != nil && ts.Before(*f.since) {
			return false
		}
		if f.until != nil && ts.After(*f.until) {
			return false
		}
	}

	target := f.Target(rec)

	if f.equals != nil && target != *f.equals {
		return false
	}

	if f.contains != "" && !strings.Contains(target, f.contains) {
		return false
	}

	if f.re != nil && !f.re.MatchString(target) {
		return false
	}

	return true
}

// Target returns the text the textual predicates are evaluated against:
// the configured field (empty when missing) or the raw line.
func (f *Filter) Target(rec *parser.Record) string {
	if f.field == "" {
		return rec.Raw
	}
	s, _ := rec.FieldString(f.field)
	return s
}

// Field returns the configured target field, if any.
func (f *Filter) Field() string {
	return f.field
}

// TimeField returns the dotted path used for timestamp bounds.
func (f *Filter) TimeField() string {
	return f.timeField
}
