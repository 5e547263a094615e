package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/logslice/pkg/filter"
	"github.com/ccollicutt/logslice/pkg/output"
	"github.com/ccollicutt/logslice/pkg/parser"
)

// Errors returned for invalid follow combinations.
var (
	ErrFollowWithTail  = errors.New("follow cannot be combined with tail")
	ErrFollowWithMerge = errors.New("follow cannot be combined with merge")
	ErrFollowSources   = errors.New("follow requires exactly one file path")
)

// Load reads and validates a profile file. Environment overrides are applied
// on top of the file's values.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Read parses a profile file and applies environment overrides without
// validating the result.
func Read(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()
	return cfg, nil
}

// LoadOrDefault reads the profile at path, or returns the defaults with
// environment overrides when path is empty. The result is not validated:
// callers layer their own overrides on top and then call Validate.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Read(ctx, path)
	}
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	return cfg, nil
}

// Validate checks a configuration for errors and builds the input mode,
// filter and output plan it describes.
func Validate(cfg *Config) error {
	mode, err := parser.ParseInputMode(cfg.Input)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	cfg.inputMode = mode

	if err := validateFilter(&cfg.Filter); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	f, err := filter.New(filter.Options{
		Contains:  cfg.Filter.Contains,
		Pattern:   cfg.Filter.Regex,
		Field:     cfg.Filter.Field,
		Equals:    cfg.Filter.Equals,
		Since:     cfg.Filter.since,
		Until:     cfg.Filter.until,
		TimeField: cfg.Filter.TimeField,
	})
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	cfg.filter = f

	outMode, err := output.ParseMode(cfg.Output)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	plan, err := output.NewEmitPlan(outMode, cfg.Filter.Field, cfg.Select)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	cfg.plan = plan

	if cfg.Head != nil && *cfg.Head < 0 {
		return fmt.Errorf("head: must be >= 0, got %d", *cfg.Head)
	}
	if cfg.Tail != nil && *cfg.Tail < 0 {
		return fmt.Errorf("tail: must be >= 0, got %d", *cfg.Tail)
	}

	if err := validateStats(&cfg.Stats); err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	return validateFollow(cfg)
}

func validateFilter(fc *FilterConfig) error {
	if fc.TimeField == "" {
		fc.TimeField = DefaultTimeField
	}

	fc.since, fc.until = nil, nil
	if fc.Since != "" {
		t, err := parser.ParseBound(fc.Since)
		if err != nil {
			return fmt.Errorf("since: %w", err)
		}
		fc.since = &t
	}
	if fc.Until != "" {
		t, err := parser.ParseBound(fc.Until)
		if err != nil {
			return fmt.Errorf("until: %w", err)
		}
		fc.until = &t
	}

	return nil
}

func validateStats(sc *StatsConfig) error {
	switch sc.Format {
	case "":
		sc.Format = DefaultStatsFormat
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (must be text or json)", sc.Format)
	}

	if sc.Top < 0 {
		return fmt.Errorf("top: must be >= 0, got %d", sc.Top)
	}

	return nil
}

func validateFollow(cfg *Config) error {
	if !cfg.Follow {
		return nil
	}
	if cfg.Tail != nil {
		return ErrFollowWithTail
	}
	if cfg.Merge {
		return ErrFollowWithMerge
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0] == parser.StdinPath {
		return ErrFollowSources
	}
	return nil
}
