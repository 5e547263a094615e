package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ccollicutt/logslice/internal/logging"
	"github.com/ccollicutt/logslice/pkg/config"
	"github.com/ccollicutt/logslice/pkg/output"
	"github.com/ccollicutt/logslice/pkg/parser"
	"github.com/ccollicutt/logslice/pkg/slicer"
)

// SliceOptions holds command-line options for slicing.
type SliceOptions struct {
	ConfigPath string

	Input  string
	Output string
	Select string

	Contains  string
	Regex     string
	Field     string
	Equals    string
	Since     string
	Until     string
	TimeField string

	Head int
	Tail int

	Stats       bool
	StatsField  string
	StatsFormat string
	Top         int

	Follow  bool
	Merge   bool
	Color   bool
	Verbose bool

	LogLevel string
	LogFile  string
}

// NewSliceCommand creates the slicing command. It is used as the root command.
func NewSliceCommand() *cobra.Command {
	opts := &SliceOptions{}

	cmd := &cobra.Command{
		Use:   "logslice [flags] [paths...]",
		Short: "Slice text and JSON logs by content, field and time",
		Long: `logslice streams log lines from files or standard input, keeps the ones
that match every configured filter, and prints them.

Filters:
  --contains    substring of the line, or of --field when set
  --regex       unanchored regular expression, same target as --contains
  --equals      exact value of --field
  --since/--until  inclusive RFC3339 bounds on --time-field

Paths are glob patterns ("**" matches directories). "-" or no path reads
standard input. Files ending in .gz are decompressed.

Exit codes:
  0 - Success
  2 - Configuration or I/O error`,
		Example: `  logslice --contains error app.log
  logslice --input json --field level --equals error --output ndjson 'logs/**/*.log'
  logslice --since 2024-01-01T00:00:00Z --tail 20 --stats --field level app.log.gz
  kubectl logs pod | logslice --select ts,msg --output ndjson`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlice(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "Slice profile (YAML) to load before applying flags")
	f.StringVar(&opts.Input, "input", config.DefaultInput, "Input format (auto|text|json)")
	f.StringVarP(&opts.Output, "output", "o", config.DefaultOutput, "Output format (plain|ndjson|field)")
	f.StringVar(&opts.Select, "select", "", "Comma-separated dotted paths to project in ndjson output")
	f.StringVar(&opts.Contains, "contains", "", "Keep records containing this substring")
	f.StringVarP(&opts.Regex, "regex", "r", "", "Keep records matching this regular expression")
	f.StringVar(&opts.Field, "field", "", "Dotted JSON path used as the filter target")
	f.StringVar(&opts.Equals, "equals", "", "Keep records whose --field equals this value")
	f.StringVar(&opts.Since, "since", "", "Keep records at or after this RFC3339 time")
	f.StringVar(&opts.Until, "until", "", "Keep records at or before this RFC3339 time")
	f.StringVar(&opts.TimeField, "time-field", config.DefaultTimeField, "Dotted JSON path holding the record timestamp")
	f.IntVar(&opts.Head, "head", 0, "Keep the first N matches and stop reading")
	f.IntVar(&opts.Tail, "tail", 0, "Keep the last N matches")
	f.BoolVar(&opts.Stats, "stats", false, "Print counts and top field values to stderr")
	f.StringVar(&opts.StatsField, "stats-field", "", "Field counted in the stats report (default --field)")
	f.StringVar(&opts.StatsFormat, "stats-format", config.DefaultStatsFormat, "Stats report format (text|json)")
	f.IntVar(&opts.Top, "top", config.DefaultTop, "Number of top values in the stats report")
	f.BoolVarP(&opts.Follow, "follow", "f", false, "Keep reading a single file as it grows")
	f.BoolVar(&opts.Merge, "merge", false, "Interleave files by --time-field instead of reading them in turn")
	f.BoolVar(&opts.Color, "color", false, "Color the stats report")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Add sources, duration and head status to the stats report")
	f.StringVar(&opts.LogLevel, "log-level", logging.DefaultLevel, "Diagnostic log level (debug|info|warn|error)")
	f.StringVar(&opts.LogFile, "log-file", "", "Also write diagnostic logs as JSON to this rotating file")

	return cmd
}

func runSlice(cmd *cobra.Command, args []string, opts *SliceOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, closeLog, err := logging.New(logging.Config{
		Level:    resolveLogLevel(cmd.Flags(), opts),
		FilePath: opts.LogFile,
		Console:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	cfg, err := config.LoadOrDefault(ctx, opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	applyFlags(cmd.Flags(), opts, cfg)
	if len(args) > 0 {
		cfg.Sources = args
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	files, err := resolveSources(cfg)
	if err != nil {
		return err
	}

	source, err := openSource(cfg, files, cmd.InOrStdin(), logger)
	if err != nil {
		return err
	}
	defer source.Close()

	var sliceOpts []slicer.Option
	if cfg.Head != nil {
		sliceOpts = append(sliceOpts, slicer.WithHead(*cfg.Head))
	}
	if cfg.Tail != nil {
		sliceOpts = append(sliceOpts, slicer.WithTail(*cfg.Tail))
	}
	if cfg.Stats.Enabled {
		sliceOpts = append(sliceOpts, slicer.WithStatsField(cfg.StatsField()))
	}
	sliceOpts = append(sliceOpts, slicer.WithLogger(logger))

	// Followed output is written as it arrives
	var out io.Writer = cmd.OutOrStdout()
	var buffered *bufio.Writer
	if !cfg.Follow {
		buffered = bufio.NewWriter(out)
		out = buffered
	}

	s := slicer.New(cfg.CompiledFilter(), sliceOpts...)
	result, runErr := s.Run(ctx, source, output.NewEmitter(out, cfg.EmitPlan()))
	if buffered != nil {
		if err := buffered.Flush(); err != nil && runErr == nil {
			runErr = fmt.Errorf("writing output: %w", err)
		}
	}
	if runErr != nil && !(cfg.Follow && errors.Is(runErr, context.Canceled)) {
		return fmt.Errorf("slicing failed: %w", runErr)
	}

	if cfg.Stats.Enabled && result != nil {
		return writeStats(ctx, cmd.ErrOrStderr(), cfg, opts, result)
	}
	return nil
}

// applyFlags copies explicitly set flags over profile and environment values.
func applyFlags(flags *pflag.FlagSet, opts *SliceOptions, cfg *config.Config) {
	set := flags.Changed

	if set("input") {
		cfg.Input = opts.Input
	}
	if set("output") {
		cfg.Output = opts.Output
	}
	if set("select") {
		cfg.Select = output.ParseSelect(opts.Select)
	}
	if set("contains") {
		cfg.Filter.Contains = opts.Contains
	}
	if set("regex") {
		cfg.Filter.Regex = opts.Regex
	}
	if set("field") {
		cfg.Filter.Field = opts.Field
	}
	if set("equals") {
		equals := opts.Equals
		cfg.Filter.Equals = &equals
	}
	if set("since") {
		cfg.Filter.Since = opts.Since
	}
	if set("until") {
		cfg.Filter.Until = opts.Until
	}
	if set("time-field") {
		cfg.Filter.TimeField = opts.TimeField
	}
	if set("head") {
		head := opts.Head
		cfg.Head = &head
	}
	if set("tail") {
		tail := opts.Tail
		cfg.Tail = &tail
	}
	if set("stats") {
		cfg.Stats.Enabled = opts.Stats
	}
	if set("stats-field") {
		cfg.Stats.Field = opts.StatsField
	}
	if set("stats-format") {
		cfg.Stats.Format = opts.StatsFormat
	}
	if set("top") {
		cfg.Stats.Top = opts.Top
	}
	if set("follow") {
		cfg.Follow = opts.Follow
	}
	if set("merge") {
		cfg.Merge = opts.Merge
	}
	if set("color") {
		cfg.Color = opts.Color
	}
}

func resolveLogLevel(flags *pflag.FlagSet, opts *SliceOptions) string {
	if flags.Changed("log-level") {
		return opts.LogLevel
	}
	if level := os.Getenv(config.EnvLogLevel); level != "" {
		return level
	}
	return opts.LogLevel
}

// resolveSources expands the configured patterns and checks that every file
// exists before any input is read.
func resolveSources(cfg *config.Config) ([]string, error) {
	if len(cfg.Sources) == 0 {
		return []string{parser.StdinPath}, nil
	}

	files, err := parser.ExpandGlobs(cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("expanding log sources: %w", err)
	}

	for _, file := range files {
		if file == parser.StdinPath {
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			return nil, fmt.Errorf("log file not found: %s", file)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("log source is a directory: %s", file)
		}
	}

	if cfg.Follow && len(files) != 1 {
		return nil, fmt.Errorf("%w (pattern matched %d files)", config.ErrFollowSources, len(files))
	}

	return files, nil
}

func openSource(cfg *config.Config, files []string, stdin io.Reader, logger *zap.Logger) (parser.LogSource, error) {
	mode := cfg.InputMode()

	if cfg.Follow {
		source, err := parser.NewFollowSource(files[0], mode, logger)
		if err != nil {
			return nil, fmt.Errorf("following %s: %w", files[0], err)
		}
		return source, nil
	}

	sourceOpts := []parser.SourceOption{
		parser.WithLogger(logger),
		parser.WithStdin(stdin),
	}

	if cfg.Merge && len(files) > 1 {
		sources := make([]parser.LogSource, len(files))
		for i, file := range files {
			sources[i] = parser.NewFileSource([]string{file}, mode, sourceOpts...)
		}
		return parser.NewMergedSource(cfg.Filter.TimeField, sources...), nil
	}

	return parser.NewFileSource(files, mode, sourceOpts...), nil
}

func writeStats(ctx context.Context, w io.Writer, cfg *config.Config, opts *SliceOptions, result *slicer.Result) error {
	formatter, err := output.NewFormatter(cfg.Stats.Format, output.FormatOptions{
		Verbose: opts.Verbose,
		Color:   cfg.Color,
	})
	if err != nil {
		return err
	}

	buffered := bufio.NewWriter(w)
	if err := formatter.Format(ctx, output.NewReport(result, cfg.Stats.Top), buffered); err != nil {
		return fmt.Errorf("formatting stats: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}
