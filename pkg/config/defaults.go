package config

import (
	"os"

	"github.com/ccollicutt/logslice/pkg/filter"
	"github.com/ccollicutt/logslice/pkg/output"
	"github.com/ccollicutt/logslice/pkg/parser"
	"github.com/ccollicutt/logslice/pkg/stats"
)

// Default values for configuration.
const (
	DefaultInput       = string(parser.InputAuto)
	DefaultOutput      = string(output.ModePlain)
	DefaultStatsFormat = "text"
	DefaultTimeField   = filter.DefaultTimeField
	DefaultTop         = stats.DefaultTopN
)

// Environment variable names.
const (
	EnvInput     = "LOGSLICE_INPUT"
	EnvTimeField = "LOGSLICE_TIME_FIELD"
	EnvLogLevel  = "LOGSLICE_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Input:  DefaultInput,
		Output: DefaultOutput,
		Filter: FilterConfig{
			TimeField: DefaultTimeField,
		},
		Stats: StatsConfig{
			Format: DefaultStatsFormat,
			Top:    DefaultTop,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if input := os.Getenv(EnvInput); input != "" {
		c.Input = input
	}
	if field := os.Getenv(EnvTimeField); field != "" {
		c.Filter.TimeField = field
	}
}
