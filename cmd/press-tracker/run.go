// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/press-tracker/internal/pipeline"
	"github.com/pdiddy/press-tracker/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search for every configured person and write both CSV files",
	Long: `Run searches each configured person, writes the collected results to the
raw CSV, then renames, deduplicates, filters and sorts them into the
processed CSV. With enrichment enabled, missing dates are read from the
article pages, and with classification enabled, pages that are not
articles are dropped.

A person whose search fails is reported and skipped; the run still
succeeds. Configuration errors stop the run before anything is written.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, &cfg); err != nil {
		return err
	}

	sum, err := pipeline.Run(cmd.Context(), cfg, pipeline.Deps{})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return printSummary(os.Stdout, sum, jsonOutput)
}

func init() {
	addRunFlags(runCmd)
	runCmd.Flags().Bool("json", false, "print the run summary as JSON")

	rootCmd.AddCommand(runCmd)
}

// addRunFlags registers the flags shared by run and watch.
func addRunFlags(cmd *cobra.Command) {
	addProcessFlags(cmd)
	cmd.Flags().StringSlice("query", nil, "person to search for (repeatable; replaces configured queries)")
	cmd.Flags().StringSlice("backend", nil, "search backend: google, news (repeatable)")
	cmd.Flags().Int("max-results", types.MaxResultsLimit, "maximum results per person and backend")
	cmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	cmd.Flags().String("raw-output", "", "raw CSV path ({date} and {run} are expanded)")
	cmd.Flags().Bool("no-archive", false, "do not record runs in the archive")
}

// addProcessFlags registers the flags shared by run, process and watch.
func addProcessFlags(cmd *cobra.Command) {
	cmd.Flags().String("sort-by", types.ColDate, "column to sort the processed table by")
	cmd.Flags().Bool("ascending", false, "sort in ascending order")
	cmd.Flags().StringSlice("exclude", nil, "drop records whose link contains this text (repeatable)")
	cmd.Flags().StringP("output", "o", "", "processed CSV path ({date} and {run} are expanded)")
	cmd.Flags().Bool("enrich", false, "fill missing dates from article pages")
	cmd.Flags().Bool("classify", false, "drop pages the classifier says are not articles (implies --enrich)")
}

// applyProcessFlags copies explicitly set processing flags into cfg.
func applyProcessFlags(cmd *cobra.Command, cfg *types.Config) {
	flags := cmd.Flags()
	if flags.Changed("sort-by") {
		cfg.Process.SortBy, _ = flags.GetString("sort-by")
	}
	if flags.Changed("ascending") {
		cfg.Process.Ascending, _ = flags.GetBool("ascending")
	}
	if flags.Changed("exclude") {
		exclude, _ := flags.GetStringSlice("exclude")
		cfg.Process.ExcludeLinks = append(cfg.Process.ExcludeLinks, exclude...)
	}
	if flags.Changed("output") {
		cfg.Output.ProcessedPath, _ = flags.GetString("output")
	}
	if flags.Changed("enrich") {
		cfg.Enrich.Enabled, _ = flags.GetBool("enrich")
	}
	if flags.Changed("classify") {
		cfg.Classify.Enabled, _ = flags.GetBool("classify")
		if cfg.Classify.Enabled {
			cfg.Enrich.Enabled = true
		}
	}
}

// applyRunFlags copies explicitly set search and output flags into cfg.
func applyRunFlags(cmd *cobra.Command, cfg *types.Config) error {
	applyProcessFlags(cmd, cfg)

	flags := cmd.Flags()
	if flags.Changed("query") {
		cfg.Queries, _ = flags.GetStringSlice("query")
	}
	if flags.Changed("backend") {
		cfg.Search.Backends, _ = flags.GetStringSlice("backend")
	}
	if flags.Changed("max-results") {
		cfg.Search.MaxResults, _ = flags.GetInt("max-results")
	}
	if err := flagDate(cmd, "from", &cfg.Search.DateFrom); err != nil {
		return err
	}
	if err := flagDate(cmd, "to", &cfg.Search.DateTo); err != nil {
		return err
	}
	if flags.Changed("raw-output") {
		cfg.Output.RawPath, _ = flags.GetString("raw-output")
	}
	if noArchive, _ := flags.GetBool("no-archive"); noArchive {
		cfg.Archive.Enabled = false
	}
	return nil
}

// flagDate parses the named date flag into dst when it was set.
func flagDate(cmd *cobra.Command, name string, dst *time.Time) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	s, _ := cmd.Flags().GetString(name)
	d, ok := types.ParseDate(strings.TrimSpace(s))
	if !ok {
		return fmt.Errorf("%w: invalid --%s date %q (want YYYY-MM-DD)", types.ErrConfig, name, s)
	}
	*dst = d
	return nil
}

// printSummary writes a short run report to w.
func printSummary(w io.Writer, sum pipeline.Summary, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, sum)
	}

	if sum.RunID != "" {
		fmt.Fprintf(w, "Run %s\n", sum.RunID)
	}
	if sum.RawPath != "" {
		fmt.Fprintf(w, "  raw:       %-5d %s\n", sum.Raw, sum.RawPath)
	}
	fmt.Fprintf(w, "  processed: %-5d %s\n", sum.Processed, sum.ProcessedPath)
	if sum.Dropped > 0 {
		fmt.Fprintf(w, "  dropped:   %d rows without a usable link\n", sum.Dropped)
	}
	p := sum.Process
	fmt.Fprintf(w, "  removed:   %d duplicates, %d irrelevant, %d excluded\n", p.Duplicates, p.Irrelevant, p.Excluded)
	if sum.Enrich != nil {
		fmt.Fprintf(w, "  enriched:  %d fetched, %d dated, %d failed\n", sum.Enrich.Fetched, sum.Enrich.Dated, sum.Enrich.Failed)
	}
	if sum.Classify != nil {
		fmt.Fprintf(w, "  classified: %d articles, %d rejected\n", sum.Classify.Articles, sum.Classify.Rejected)
	}
	if sum.RunID != "" {
		fmt.Fprintf(w, "  new links: %d\n", sum.New)
	}
	if len(sum.Failures) > 0 {
		fmt.Fprintf(w, "\n%d search failure(s):\n", len(sum.Failures))
		for _, f := range sum.Failures {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	return nil
}
