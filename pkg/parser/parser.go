package parser

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// StdinName is the source name used for standard input and the path that selects it.
const (
	StdinName = "stdin"
	StdinPath = "-"
)

// SourceOption configures a FileSource.
type SourceOption func(*FileSource)

// WithLogger sets the logger used for skipped-line diagnostics.
func WithLogger(logger *zap.Logger) SourceOption {
	return func(s *FileSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdin sets the reader used for the "-" path.
func WithStdin(r io.Reader) SourceOption {
	return func(s *FileSource) {
		s.stdin = r
	}
}

// FileSource implements LogSource by reading files one after another in the
// order given. The path "-" reads standard input; paths ending in ".gz" are
// decompressed.
type FileSource struct {
	files  []string
	mode   InputMode
	stdin  io.Reader
	logger *zap.Logger

	current       io.Closer
	currentReader *bufio.Reader
	currentSource string
	currentLine   int
	fileIndex     int
}

// NewFileSource creates a LogSource that reads from the given files.
func NewFileSource(files []string, mode InputMode, opts ...SourceOption) *FileSource {
	s := &FileSource{
		files:     files,
		mode:      mode,
		stdin:     os.Stdin,
		logger:    zap.NewNop(),
		fileIndex: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStdinSource creates a LogSource that reads only from r, named "stdin".
func NewStdinSource(r io.Reader, mode InputMode, opts ...SourceOption) *FileSource {
	opts = append(opts, WithStdin(r))
	return NewFileSource([]string{StdinPath}, mode, opts...)
}

// Next returns the next record.
// Skips lines that cannot be parsed under the input mode.
// A read error abandons the current file and continues with the next one.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*Record, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		text, err := s.currentReader.ReadString('\n')
		if err != nil && err != io.EOF {
			s.logger.Debug("abandoning source after read error",
				zap.String("source", s.currentSource),
				zap.Int("line", s.currentLine+1),
				zap.Error(err))
			if cerr := s.closeCurrentFile(); cerr != nil {
				return nil, cerr
			}
			continue
		}
		if err == io.EOF && text == "" {
			if cerr := s.closeCurrentFile(); cerr != nil {
				return nil, cerr
			}
			continue
		}

		s.currentLine++
		rec, perr := FromLine(trimLineEnding(text), s.mode)
		if perr != nil {
			s.logger.Debug("skipping line",
				zap.String("source", s.currentSource),
				zap.Int("line", s.currentLine),
				zap.Error(perr))
			continue
		}
		rec.Source = s.currentSource
		rec.LineNum = s.currentLine
		return rec, nil
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	rc, name, err := s.open(path)
	if err != nil {
		return err
	}

	s.current = rc
	s.currentReader = bufio.NewReaderSize(rc, 64*1024)
	s.currentSource = name
	s.currentLine = 0
	s.logger.Debug("reading source", zap.String("source", name))
	return nil
}

func (s *FileSource) open(path string) (io.ReadCloser, string, error) {
	if path == StdinPath {
		return io.NopCloser(s.stdin), StdinName, nil
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, "", fmt.Errorf("opening log file %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, path, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("opening gzip log file %s: %w", path, err)
	}
	return &gzipFile{Reader: gz, file: f}, path, nil
}

func (s *FileSource) closeCurrentFile() error {
	if s.current != nil {
		err := s.current.Close()
		s.current = nil
		s.currentReader = nil
		if err != nil {
			return fmt.Errorf("closing %s: %w", s.currentSource, err)
		}
		return nil
	}
	s.currentReader = nil
	return nil
}

// gzipFile closes both the decompressor and the underlying file.
type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gerr := g.Reader.Close()
	ferr := g.file.Close()
	if gerr != nil {
		return gerr
	}
	return ferr
}

func trimLineEnding(s string) string {
	if !strings.HasSuffix(s, "\n") {
		return s
	}
	s = s[:len(s)-1]
	return strings.TrimSuffix(s, "\r")
}
