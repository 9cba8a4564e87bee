// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/press-tracker/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process <raw.csv>",
	Short: "Process an existing raw CSV without searching",
	Long: `Process reads a raw CSV written by an earlier run (or edited by hand),
applies the configured renames, deduplication, relevance filters,
exclusions and sort, and writes the processed CSV. Rows without a usable
link are dropped and counted. Nothing is searched or archived.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyProcessFlags(cmd, &cfg)

	out, _ := cmd.Flags().GetString("output")
	sum, err := pipeline.Reprocess(cmd.Context(), cfg, args[0], out, pipeline.Deps{})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return printSummary(os.Stdout, sum, jsonOutput)
}

func init() {
	addProcessFlags(processCmd)
	processCmd.Flags().Bool("json", false, "print the summary as JSON")

	rootCmd.AddCommand(processCmd)
}
