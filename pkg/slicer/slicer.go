// Package slicer runs the single-pass filter and emit pipeline over a log source.
package slicer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/logslice/pkg/filter"
	"github.com/ccollicutt/logslice/pkg/parser"
	"github.com/ccollicutt/logslice/pkg/stats"
)

// Sink receives records selected for output, in output order.
type Sink interface {
	Emit(rec *parser.Record) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(rec *parser.Record) error

// Emit calls f(rec).
func (f SinkFunc) Emit(rec *parser.Record) error {
	return f(rec)
}

// Slicer evaluates a filter over a stream of records and bounds the output
// to the first and/or last N matches.
type Slicer struct {
	filter *filter.Filter

	// Options
	head       *int
	tail       *int
	statsField string
	logger     *zap.Logger
}

// Option configures slicer behavior.
type Option func(*Slicer)

// WithHead stops the pass as soon as n records have matched.
func WithHead(n int) Option {
	return func(s *Slicer) {
		s.head = &n
	}
}

// WithTail emits only the last n matches, after the pass completes.
func WithTail(n int) Option {
	return func(s *Slicer) {
		s.tail = &n
	}
}

// WithStatsField counts the values of a field across matching records.
func WithStatsField(field string) Option {
	return func(s *Slicer) {
		s.statsField = field
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Slicer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Slicer around a compiled filter.
func New(f *filter.Filter, opts ...Option) *Slicer {
	s := &Slicer{
		filter: f,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a completed pass.
type Result struct {
	// Stats holds the seen and matched counters and the value counts.
	Stats *stats.Stats

	// Emitted is the number of records handed to the sink.
	Emitted int

	// Sources lists the sources records were read from, in first-seen order.
	Sources []string

	// HeadReached is true when the head limit ended the pass.
	HeadReached bool

	// StartTime is when the pass began.
	StartTime time.Time

	// EndTime is when the pass completed.
	EndTime time.Time
}

// Duration returns how long the pass took.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Run reads records from source until it is exhausted or the head limit is
// reached, emitting matches to sink. With a tail limit, matches are held in a
// ring buffer and emitted oldest first once reading has finished. On
// cancellation the partial result is returned with the context's error.
func (s *Slicer) Run(ctx context.Context, source parser.LogSource, sink Sink) (*Result, error) {
	st := stats.New(s.statsField)
	result := &Result{
		Stats:     st,
		StartTime: time.Now(),
	}

	var tailBuf *ring[*parser.Record]
	if s.tail != nil {
		tailBuf = newRing[*parser.Record](*s.tail)
	}

	sourcesMap := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			result.EndTime = time.Now()
			return result, ctx.Err()
		default:
		}

		// Stop before reading past the last wanted match
		if s.head != nil && st.Matched >= *s.head {
			result.HeadReached = true
			s.logger.Debug("head limit reached", zap.Int("head", *s.head), zap.Int("seen", st.Seen))
			break
		}

		rec, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.EndTime = time.Now()
				return result, err
			}
			return nil, fmt.Errorf("reading log source: %w", err)
		}

		if !sourcesMap[rec.Source] {
			sourcesMap[rec.Source] = true
			result.Sources = append(result.Sources, rec.Source)
		}

		st.Seen++

		if !s.filter.Matches(rec) {
			continue
		}

		st.Matched++
		st.Observe(rec)

		if tailBuf != nil {
			tailBuf.Push(rec)
			continue
		}

		if err := sink.Emit(rec); err != nil {
			return nil, fmt.Errorf("emitting record: %w", err)
		}
		result.Emitted++
	}

	if tailBuf != nil {
		for _, rec := range tailBuf.Items() {
			if err := sink.Emit(rec); err != nil {
				return nil, fmt.Errorf("emitting record: %w", err)
			}
			result.Emitted++
		}
	}

	result.EndTime = time.Now()

	return result, nil
}
