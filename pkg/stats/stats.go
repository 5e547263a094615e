// Package stats tallies counts and value frequencies over matching records.
package stats

import (
	"sort"

	"github.com/ccollicutt/logslice/pkg/parser"
)

// DefaultTopN is the number of values reported by default.
const DefaultTopN = 20

// ValueCount is one entry of the top-values table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Stats holds running counters for one slicing pass.
type Stats struct {
	// Seen is the number of records read.
	Seen int

	// Matched is the number of records that passed the filter.
	Matched int

	field  string
	counts map[string]int
	order  []string
}

// New creates Stats that count values of field. An empty field disables
// value counting.
func New(field string) *Stats {
	return &Stats{
		field:  field,
		counts: make(map[string]int),
	}
}

// Field returns the counted field, or "" if none.
func (s *Stats) Field() string {
	return s.field
}

// Observe records a matching record's field value, if it resolves.
func (s *Stats) Observe(rec *parser.Record) {
	if s.field == "" {
		return
	}
	v, ok := rec.FieldString(s.field)
	if !ok {
		return
	}
	if _, exists := s.counts[v]; !exists {
		s.order = append(s.order, v)
	}
	s.counts[v]++
}

// Distinct returns the number of distinct values observed.
func (s *Stats) Distinct() int {
	return len(s.order)
}

// Top returns up to n values ordered by count descending. Values with the
// same count keep the order in which they were first seen.
func (s *Stats) Top(n int) []ValueCount {
	out := make([]ValueCount, 0, len(s.order))
	for _, v := range s.order {
		out = append(out, ValueCount{Value: v, Count: s.counts[v]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
