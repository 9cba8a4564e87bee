// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the press-tracker CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/press-tracker/internal/secrets"
	"github.com/pdiddy/press-tracker/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ and .env at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the press-tracker CLI.
var rootCmd = &cobra.Command{
	Use:   "press-tracker",
	Short: "Track press mentions of people through web search",
	Long: `press-tracker searches the web for every configured person, writes the
collected results to a raw CSV, then cleans, filters and sorts them into a
processed CSV. Runs are archived in SQLite so later runs can report which
links are new.

Credentials come from the config file, PRESS_TRACKER_* variables, the
.secrets/ directory or a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ctx := setupLogging(cmd)
		log := zerolog.Ctx(ctx)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		fromDir, warnings, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			log.Warn().Msg(w)
		}
		envFile, _ := cmd.Flags().GetString("env-file")
		fromEnv, err := secrets.LoadDotEnv(envFile)
		if err != nil {
			return err
		}
		loadedSecrets = secrets.Merge(fromDir, fromEnv)
		if len(loadedSecrets) > 0 {
			keys := make([]string, 0, len(loadedSecrets))
			for k := range loadedSecrets {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug().Strs("keys", keys).Msg("Loaded secrets")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./press-tracker.yaml or ~/.config/press-tracker/press-tracker.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of secret files")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with API keys")
}

// setupLogging installs a console logger on stderr in the command context.
func setupLogging(cmd *cobra.Command) context.Context {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelName)
	if err != nil || levelName == "" {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
	if err != nil {
		logger.Warn().Str("level", levelName).Msg("Unknown log level, using info")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)
	return ctx
}

// loadConfig reads the config file, environment and loaded secrets into a
// Config. Flag overrides are applied by the caller.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")

	v := newViper(cfgFile)
	used, err := readConfig(v, cfgFile != "")
	if err != nil {
		return types.Config{}, err
	}
	if used != "" {
		zerolog.Ctx(cmd.Context()).Debug().Str("path", used).Msg("Using config file")
	}
	return decodeConfig(v, loadedSecrets)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
