// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/press-tracker/internal/pipeline"
	"github.com/pdiddy/press-tracker/internal/schedule"
	"github.com/pdiddy/press-tracker/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Repeat runs on a cron schedule until interrupted",
	Long: `Watch performs a full run on every tick of the configured schedule
(a five-field cron expression or a descriptor such as @daily or @every 6h).
Use {date} or {run} in the output paths so runs do not overwrite each
other. A tick that fires while a run is still going is skipped, and a failed
run is logged without stopping the schedule.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, &cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("schedule") {
		cfg.Schedule, _ = cmd.Flags().GetString("schedule")
	}

	// Reject a broken config now rather than on every tick.
	if err := pipeline.Validate(cfg); err != nil {
		return err
	}
	if _, err := schedule.Parse(cfg.Schedule); err != nil {
		return err
	}

	runNow, _ := cmd.Flags().GetBool("now")
	return schedule.Watch(cmd.Context(), cfg.Schedule, watchJob(cfg), schedule.Options{RunNow: runNow})
}

func watchJob(cfg types.Config) schedule.Job {
	return func(ctx context.Context) error {
		sum, err := pipeline.Run(ctx, cfg, pipeline.Deps{})
		if err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().
			Str("processed_path", sum.ProcessedPath).
			Int("new_links", sum.New).
			Int("failures", len(sum.Failures)).
			Msg("Watch run written")
		return nil
	}
}

func init() {
	addRunFlags(watchCmd)
	watchCmd.Flags().String("schedule", "", "cron expression or descriptor (default: schedule from config)")
	watchCmd.Flags().Bool("now", false, "run once immediately, then follow the schedule")

	rootCmd.AddCommand(watchCmd)
}
