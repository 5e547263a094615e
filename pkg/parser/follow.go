package parser

import (
	"context"
	"fmt"
	"io"

	"github.com/nxadm/tail"
	"go.uber.org/zap"
)

// FollowSource implements LogSource for a growing file, like "tail -f".
// It never returns io.EOF on its own; it ends when the context is cancelled
// or the underlying tail is stopped.
type FollowSource struct {
	path   string
	mode   InputMode
	logger *zap.Logger
	tail   *tail.Tail
	line   int
}

// NewFollowSource starts following path from its beginning.
func NewFollowSource(path string, mode InputMode, logger *zap.Logger) (*FollowSource, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("following log file %s: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowSource{path: path, mode: mode, logger: logger, tail: t}, nil
}

// Next blocks until the next parseable line is available.
func (s *FollowSource) Next(ctx context.Context) (*Record, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case l, ok := <-s.tail.Lines:
			if !ok {
				return nil, io.EOF
			}
			s.line++
			if l.Err != nil {
				s.logger.Debug("skipping unreadable line",
					zap.String("source", s.path),
					zap.Int("line", s.line),
					zap.Error(l.Err))
				continue
			}
			rec, err := FromLine(trimLineEnding(l.Text), s.mode)
			if err != nil {
				s.logger.Debug("skipping line",
					zap.String("source", s.path),
					zap.Int("line", s.line),
					zap.Error(err))
				continue
			}
			rec.Source = s.path
			rec.LineNum = s.line
			return rec, nil
		}
	}
}

// Close stops following the file.
func (s *FollowSource) Close() error {
	err := s.tail.Stop()
	s.tail.Cleanup()
	return err
}
