package parser

import (
	"context"
)

// LogSource provides an iterator over records.
// Implementations must be safe for sequential access (not concurrent).
type LogSource interface {
	// Next returns the next record.
	// Returns io.EOF when no more lines are available.
	// Lines that cannot be parsed under the input mode are skipped.
	Next(ctx context.Context) (*Record, error)

	// Close releases any resources held by the source.
	Close() error
}
