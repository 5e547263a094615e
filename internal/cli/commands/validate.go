package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logslice/pkg/config"
	"github.com/ccollicutt/logslice/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <profile-file>",
		Short: "Validate a slice profile",
		Long: `Validate a logslice profile without reading any logs.

Checks:
  - YAML syntax
  - Input, output and stats format values
  - Regex validity and RFC3339 time bounds
  - Field output has a field, head and tail are not negative
  - Follow is not combined with tail or merge
  - Source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nProfile valid!\n")
	fmt.Fprintf(w, "  Input:   %s\n", cfg.InputMode())
	fmt.Fprintf(w, "  Output:  %s\n", cfg.EmitPlan().Mode())
	if len(cfg.Select) > 0 {
		fmt.Fprintf(w, "  Select:  %s\n", strings.Join(cfg.Select, ", "))
	}

	predicates := describeFilter(&cfg.Filter)
	if len(predicates) == 0 {
		fmt.Fprintf(w, "  Filter:  none (all records match)\n")
	} else {
		fmt.Fprintf(w, "\nFilter (all must hold):\n")
		for _, p := range predicates {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}

	if cfg.Head != nil {
		fmt.Fprintf(w, "  Head:    %d\n", *cfg.Head)
	}
	if cfg.Tail != nil {
		fmt.Fprintf(w, "  Tail:    %d\n", *cfg.Tail)
	}
	if cfg.Stats.Enabled {
		field := cfg.StatsField()
		if field == "" {
			field = "(counts only)"
		}
		fmt.Fprintf(w, "  Stats:   %s, top %d, field %s\n", cfg.Stats.Format, cfg.Stats.Top, field)
	}

	if len(cfg.Sources) == 0 {
		fmt.Fprintf(w, "\nSources: none (reads standard input)\n")
		return nil
	}

	// Missing sources are warnings; files may appear before the profile is used
	files, err := parser.ExpandGlobs(cfg.Sources)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding source patterns: %v\n", err)
		return nil
	}
	fmt.Fprintf(w, "\nSources matched: %d\n", len(files))
	for _, f := range files {
		fmt.Fprintf(w, "  - %s\n", f)
	}

	return nil
}

func describeFilter(fc *config.FilterConfig) []string {
	var out []string
	target := "line"
	if fc.Field != "" {
		target = "field " + fc.Field
	}
	if fc.Equals != nil {
		out = append(out, fmt.Sprintf("%s equals %q", target, *fc.Equals))
	}
	if fc.Contains != "" {
		out = append(out, fmt.Sprintf("%s contains %q", target, fc.Contains))
	}
	if fc.Regex != "" {
		out = append(out, fmt.Sprintf("%s matches /%s/", target, fc.Regex))
	}
	if fc.SinceTime() != nil {
		out = append(out, fmt.Sprintf("%s >= %s", fc.TimeField, fc.Since))
	}
	if fc.UntilTime() != nil {
		out = append(out, fmt.Sprintf("%s <= %s", fc.TimeField, fc.Until))
	}
	return out
}
