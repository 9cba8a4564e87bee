// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/press-tracker/internal/archive"
	"github.com/pdiddy/press-tracker/internal/pipeline"
	"github.com/pdiddy/press-tracker/internal/report"
	"github.com/pdiddy/press-tracker/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect archived runs and run summaries",
	Long: `History reads the SQLite archive that run and watch write after every
run. Runs can be referenced by full id or by a unique prefix, such as the
short id expanded from {run} in output file names. Summary prints a YAML
summary file written next to the outputs.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs archived.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-8s  %-5s  %-9s  %s\n",
		"ID", "Started", "Duration", "Raw", "Processed", "Failures")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-16s  %-8s  %-5d  %-9d  %d\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.RawCount, r.ProcessedCount, r.Failures)
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an archived table as CSV",
	Long: `Export writes the raw or processed table of an archived run as CSV,
to --output or stdout. Without --run the latest run is exported.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	stageName, _ := cmd.Flags().GetString("stage")
	stage := archive.Stage(strings.ToLower(stageName))
	if stage != archive.StageRaw && stage != archive.StageProcessed {
		return fmt.Errorf("%w: unknown stage %q: use raw or processed", types.ErrConfig, stageName)
	}

	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := resolveRun(cmd, store)
	if err != nil {
		return err
	}
	t, err := store.Records(cmd.Context(), info.ID, stage)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" || output == "-" {
		return report.Encode(cmd.OutOrStdout(), t)
	}
	if err := report.WriteCSV(output, t); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d %s records of run %s to %s\n", len(t), stage, info.ID, output)
	return nil
}

// --- new subcommand ---

var historyNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Show processed links of a run that no earlier run found",
	RunE:  runHistoryNew,
}

func runHistoryNew(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := resolveRun(cmd, store)
	if err != nil {
		return err
	}
	processed, err := store.Records(cmd.Context(), info.ID, archive.StageProcessed)
	if err != nil {
		return err
	}
	fresh, err := store.NewLinks(cmd.Context(), processed, info.StartedAt)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(w, fresh)
	}
	printRecords(w, fresh)
	fmt.Fprintf(w, "\n%d new of %d processed in run %s\n", len(fresh), len(processed), info.ID)
	return nil
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find archived processed records by title or person",
	Long: `Search matches the term anywhere in the title or person of archived
processed records, ignoring case in any script.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	hits, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(w, hits)
	}
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}
	t := make(types.ResultTable, len(hits))
	for i, h := range hits {
		t[i] = h.Record
	}
	printRecords(w, t)
	fmt.Fprintf(w, "\n%d results\n", len(hits))
	return nil
}

// --- summary subcommand ---

var historySummaryCmd = &cobra.Command{
	Use:   "summary <summary.yaml>",
	Short: "Print a run summary file written by run or process",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySummary,
}

func runHistorySummary(cmd *cobra.Command, args []string) error {
	sum, err := pipeline.ReadSummary(args[0])
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return printSummary(cmd.OutOrStdout(), sum, jsonOutput)
}

func init() {
	historyCmd.PersistentFlags().String("archive", "", "archive database (default: archive.path from config)")

	historyListCmd.Flags().Int("limit", 20, "maximum runs to list (0 for all)")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyExportCmd.Flags().String("run", "", "run id or unique prefix (default: latest run)")
	historyExportCmd.Flags().String("stage", string(archive.StageProcessed), "table to export: raw or processed")
	historyExportCmd.Flags().StringP("output", "o", "", "CSV file to write (default: stdout)")

	historyNewCmd.Flags().String("run", "", "run id or unique prefix (default: latest run)")
	historyNewCmd.Flags().Bool("json", false, "output as JSON")

	historySearchCmd.Flags().Int("limit", 50, "maximum results (0 for all)")
	historySearchCmd.Flags().Bool("json", false, "output as JSON")

	historySummaryCmd.Flags().Bool("json", false, "output as JSON")

	historyCmd.AddCommand(historyListCmd, historyExportCmd, historyNewCmd, historySearchCmd, historySummaryCmd)
	rootCmd.AddCommand(historyCmd)
}

// --- shared helpers ---

// openArchive opens the archive named by --archive or the config.
func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	path, _ := cmd.Flags().GetString("archive")
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		path = cfg.Archive.Path
	}
	if path == "" {
		path = archive.DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	return archive.Open(path)
}

// resolveRun returns the run named by --run, or the latest run.
func resolveRun(cmd *cobra.Command, store *archive.Store) (archive.RunInfo, error) {
	ref, _ := cmd.Flags().GetString("run")
	if ref != "" {
		return store.FindRun(cmd.Context(), ref)
	}
	return latestRun(cmd.Context(), store)
}

func latestRun(ctx context.Context, store *archive.Store) (archive.RunInfo, error) {
	runs, err := store.ListRuns(ctx, 1)
	if err != nil {
		return archive.RunInfo{}, err
	}
	if len(runs) == 0 {
		return archive.RunInfo{}, fmt.Errorf("%w: the archive is empty", archive.ErrRunNotFound)
	}
	return runs[0], nil
}

func printRecords(w io.Writer, t types.ResultTable) {
	fmt.Fprintf(w, "%-10s  %-20s  %-50s  %s\n", "Date", "Person", "Title", "Link")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range t {
		fmt.Fprintf(w, "%-10s  %-20s  %-50s  %s\n",
			clip(types.NormalizeDate(r.Date), 10), clip(r.Person, 20), clip(r.Title, 50), r.Link)
	}
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
