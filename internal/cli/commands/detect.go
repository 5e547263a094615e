package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/logslice/pkg/config"
	"github.com/ccollicutt/logslice/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect the input format and time field of a log file",
		Long: `Sample a log file and report whether it holds JSON or plain text lines,
and which JSON fields carry timestamps usable with --since and --until.

Timestamps are recognized in RFC3339 form (with optional fractional seconds)
and as "YYYY-MM-DD HH:MM:SS" in UTC. Compressed .gz files are supported.

Optionally writes a starter slice profile with --write-config.

Example:
  logslice detect /var/log/myapp.log
  logslice detect --sample 500 /var/log/large.log.gz
  logslice detect --write-config myapp.yaml /var/log/app.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 100, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all time field candidates, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter profile to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(w, result, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	if opts.Output == "json" {
		return outputDetectJSON(w, result, logFile, opts)
	}
	return outputDetectText(w, result, logFile, opts)
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Log Format Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d (%d JSON, %d text)\n", result.SampledLines, result.JSONLines, result.TextLines)
	fmt.Fprintf(w, "Suggested input: %s\n", result.SuggestedInput)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No JSON time field detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: --since and --until only apply to JSON records with an RFC3339")
		fmt.Fprintln(w, "or \"YYYY-MM-DD HH:MM:SS\" timestamp field.")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Time field: %s\n", best.Path)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d JSON lines)\n",
		best.Confidence*100, best.MatchCount, result.JSONLines)
	fmt.Fprintf(w, "Sample value: %s\n", best.SampleValue)
	fmt.Fprintf(w, "Parsed as: %s\n", best.ParsedTime.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "--- Usage ---")
	fmt.Fprintf(w, "logslice --input %s --time-field %s --since <RFC3339> %s\n", result.SuggestedInput, best.Path, logFile)
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Other candidates ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Path, m.Confidence*100)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a time field candidate in JSON output.
type JSONMatch struct {
	Path        string  `json:"path"`
	Confidence  float64 `json:"confidence"`
	MatchCount  int     `json:"match_count"`
	SampleValue string  `json:"sample_value"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File           string      `json:"file"`
	SuggestedInput string      `json:"suggested_input"`
	SampledLines   int         `json:"sampled_lines"`
	JSONLines      int         `json:"json_lines"`
	TextLines      int         `json:"text_lines"`
	Matches        []JSONMatch `json:"matches"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:           logFile,
		SuggestedInput: string(result.SuggestedInput),
		SampledLines:   result.SampledLines,
		JSONLines:      result.JSONLines,
		TextLines:      result.TextLines,
		Matches:        make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Path:        m.Path,
			Confidence:  m.Confidence,
			MatchCount:  m.MatchCount,
			SampleValue: m.SampleValue,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig writes a slice profile for the detected format.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	content, err := generateStarterConfig(result, logFile)
	if err != nil {
		return err
	}

	// #nosec G306 - profile doesn't need restrictive permissions
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter profile to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig renders a profile with the detected input mode and
// time field.
func generateStarterConfig(result *detector.DetectionResult, logFile string) ([]byte, error) {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	cfg := config.DefaultConfig()
	cfg.Sources = []string{absLogFile}
	cfg.Input = string(result.SuggestedInput)

	header := "# logslice profile\n# Generated by: logslice detect\n"
	if best := result.BestMatch(); best != nil {
		cfg.Filter.TimeField = best.Path
		header += fmt.Sprintf("# Detected time field: %s (%.0f%% confidence)\n", best.Path, best.Confidence*100)
	}
	header += "# Add filter predicates (contains, regex, field, equals, since, until) below.\n\n"

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("rendering profile: %w", err)
	}
	return append([]byte(header), body...), nil
}
