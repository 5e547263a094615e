// Package logging builds the diagnostic zap logger used by the CLI.
//
// Diagnostics go to the console writer (stderr in the CLI) in a compact
// console encoding. When a file path is configured, the same entries are
// also written as JSON to a rotating file managed by lumberjack.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string

	// FilePath enables JSON logging to a rotating file.
	FilePath string

	// Console receives console-encoded entries. Nil disables console output.
	Console io.Writer

	Rotation RotationConfig
}

// RotationConfig controls log file rotation.
type RotationConfig struct {
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultRotationConfig returns the rotation settings used for --log-file.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}
}

// ParseLevel converts a level name into a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		s = DefaultLevel
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", s)
	}
	return level, nil
}

// New builds a logger from cfg. The returned close function flushes and
// releases the log file, if any.
func New(cfg Config) (*zap.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	atomic := zap.NewAtomicLevelAt(level)

	var cores []zapcore.Core
	closers := []func() error{}

	if cfg.Console != nil {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(cfg.Console),
			atomic,
		))
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		rc := cfg.Rotation
		if rc == (RotationConfig{}) {
			rc = DefaultRotationConfig()
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    rc.MaxSize,
			MaxBackups: rc.MaxBackups,
			MaxAge:     rc.MaxAge,
			Compress:   rc.Compress,
		}
		closers = append(closers, lj.Close)

		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(lj),
			atomic,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() error { return nil }, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closeFn := func() error {
		_ = logger.Sync()
		for _, c := range closers {
			if err := c(); err != nil {
				return err
			}
		}
		return nil
	}
	return logger, closeFn, nil
}
