// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/press-tracker/internal/archive"
	"github.com/pdiddy/press-tracker/internal/classify"
	"github.com/pdiddy/press-tracker/internal/pipeline"
	"github.com/pdiddy/press-tracker/internal/secrets"
	"github.com/pdiddy/press-tracker/internal/table"
	"github.com/pdiddy/press-tracker/pkg/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "press-tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDecodeConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v := newViper("")
	used, err := readConfig(v, false)
	require.NoError(t, err)
	assert.Empty(t, used, "a missing default config file is fine")

	cfg, err := decodeConfig(v, nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Queries)
	assert.Equal(t, types.MaxResultsLimit, cfg.Search.MaxResults)
	assert.Equal(t, "ua", cfg.Search.Region)
	assert.True(t, cfg.Search.SortByDate)
	assert.Equal(t, []string{"google"}, cfg.Search.Backends)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, defaultUserAgent, cfg.Search.UserAgent)
	assert.True(t, cfg.Search.DateFrom.IsZero())
	assert.Equal(t, types.ColDate, cfg.Process.SortBy)
	assert.True(t, cfg.Process.Dedup)
	assert.Equal(t, classify.DefaultModel, cfg.Classify.Model)
	assert.Equal(t, "output/processed-{date}.csv", cfg.Output.ProcessedPath)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, archive.DefaultPath, cfg.Archive.Path)
	assert.Equal(t, "@daily", cfg.Schedule)
}

func TestDecodeConfigFile(t *testing.T) {
	path := writeConfig(t, `
queries:
  - Іван Колодяжний
  - O. Petrenko
search:
  max_results: 30
  date_from: "2024-01-01"
  date_to: "2024-06-30"
  backends: [google, news]
  person_delay: 250ms
process:
  sort_by: Title
  ascending: true
  blacklisted_domains: [facebook.com]
  rename:
    Ivan Kolodiazhnyi: Іван Колодяжний
    O. Petrenko: Олег Петренко
enrich:
  enabled: true
  timeout: 5s
`)
	v := newViper(path)
	used, err := readConfig(v, true)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := decodeConfig(v, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Іван Колодяжний", "O. Petrenko"}, cfg.Queries)
	assert.Equal(t, 30, cfg.Search.MaxResults)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Search.DateFrom)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), cfg.Search.DateTo)
	assert.Equal(t, []string{"google", "news"}, cfg.Search.Backends)
	assert.Equal(t, 250*time.Millisecond, cfg.Search.PersonDelay)
	assert.Equal(t, "Title", cfg.Process.SortBy)
	assert.True(t, cfg.Process.Ascending)
	assert.Equal(t, []string{"facebook.com"}, cfg.Process.BlacklistedDomains)
	assert.True(t, cfg.Enrich.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Enrich.Timeout)

	// Keys arrive lowercased; dotted names stay whole.
	require.Len(t, cfg.Process.Rename, 2)
	renamed, n := table.Rename(types.ResultTable{
		{Person: "Ivan Kolodiazhnyi", Link: "https://a.example/1"},
		{Person: "O. Petrenko", Link: "https://a.example/2"},
	}, cfg.Process.Rename)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Іван Колодяжний", renamed[0].Person)
	assert.Equal(t, "Олег Петренко", renamed[1].Person)
}

func TestDecodeConfigEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRESS_TRACKER_QUERIES", "Ivan,Olena")
	t.Setenv("PRESS_TRACKER_SEARCH_REGION", "pl")
	t.Setenv("PRESS_TRACKER_SEARCH_API_KEY", "env-key")

	v := newViper("")
	_, err := readConfig(v, false)
	require.NoError(t, err)
	cfg, err := decodeConfig(v, map[string]string{
		secrets.GoogleAPIKey:   "secret-key",
		secrets.SearchEngineID: "secret-cx",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ivan", "Olena"}, cfg.Queries)
	assert.Equal(t, "pl", cfg.Search.Region)
	assert.Equal(t, "env-key", cfg.Search.APIKey, "explicit config wins over secrets")
	assert.Equal(t, "secret-cx", cfg.Search.SearchEngineID)
}

func TestDecodeConfigErrors(t *testing.T) {
	_, err := readConfig(newViper(filepath.Join(t.TempDir(), "missing.yaml")), true)
	assert.ErrorIs(t, err, types.ErrConfig, "an explicit config file must exist")

	broken := writeConfig(t, "queries: [unclosed\n")
	_, err = readConfig(newViper(broken), true)
	assert.ErrorIs(t, err, types.ErrConfig)

	bad := writeConfig(t, "search:\n  date_from: \"last tuesday\"\n")
	v := newViper(bad)
	_, err = readConfig(v, true)
	require.NoError(t, err)
	_, err = decodeConfig(v, nil)
	assert.ErrorIs(t, err, types.ErrConfig)
	assert.Contains(t, err.Error(), "last tuesday")
}

// flagCmd builds a command with the run flags and parses args.
func flagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestApplyRunFlags(t *testing.T) {
	cfg := types.Config{
		Queries: []string{"configured"},
		Process: types.ProcessConfig{SortBy: types.ColDate, ExcludeLinks: []string{"ads.example"}},
		Archive: types.ArchiveConfig{Enabled: true},
	}
	cmd := flagCmd(t,
		"--query", "Ivan", "--query", "Olena",
		"--sort-by", "Person", "--ascending",
		"--exclude", "spam.example",
		"--from", "2024-02-01",
		"--max-results", "20",
		"-o", "out/processed.csv",
		"--classify",
		"--no-archive",
	)
	require.NoError(t, applyRunFlags(cmd, &cfg))

	assert.Equal(t, []string{"Ivan", "Olena"}, cfg.Queries)
	assert.Equal(t, "Person", cfg.Process.SortBy)
	assert.True(t, cfg.Process.Ascending)
	assert.Equal(t, []string{"ads.example", "spam.example"}, cfg.Process.ExcludeLinks)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), cfg.Search.DateFrom)
	assert.True(t, cfg.Search.DateTo.IsZero())
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.Equal(t, "out/processed.csv", cfg.Output.ProcessedPath)
	assert.True(t, cfg.Classify.Enabled)
	assert.True(t, cfg.Enrich.Enabled, "classification needs page text")
	assert.False(t, cfg.Archive.Enabled)
}

func TestApplyRunFlagsKeepsConfigWhenUnset(t *testing.T) {
	cfg := types.Config{
		Queries: []string{"configured"},
		Search:  types.SearchConfig{MaxResults: 40},
		Process: types.ProcessConfig{SortBy: types.ColTitle},
		Archive: types.ArchiveConfig{Enabled: true},
	}
	require.NoError(t, applyRunFlags(flagCmd(t), &cfg))
	assert.Equal(t, []string{"configured"}, cfg.Queries)
	assert.Equal(t, 40, cfg.Search.MaxResults)
	assert.Equal(t, types.ColTitle, cfg.Process.SortBy)
	assert.True(t, cfg.Archive.Enabled)
}

func TestApplyRunFlagsBadDate(t *testing.T) {
	var cfg types.Config
	err := applyRunFlags(flagCmd(t, "--to", "tomorrow"), &cfg)
	assert.ErrorIs(t, err, types.ErrConfig)
	assert.Contains(t, err.Error(), "--to")
}

func TestPrintSummary(t *testing.T) {
	sum := pipeline.Summary{
		RunID:         "0b7c3c1e-5b0a-4c1e-9f43-2d2f4f0b9a11",
		RawPath:       "output/raw.csv",
		ProcessedPath: "output/processed.csv",
		Raw:           12,
		Processed:     7,
		New:           3,
		Failures:      []string{"Olena (google): quota exceeded"},
		Process:       table.Stats{Input: 12, Duplicates: 2, Irrelevant: 2, Excluded: 1, Output: 7},
	}

	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, sum, false))
	out := buf.String()
	assert.Contains(t, out, sum.RunID)
	assert.Contains(t, out, "output/processed.csv")
	assert.Contains(t, out, "2 duplicates, 2 irrelevant, 1 excluded")
	assert.Contains(t, out, "new links: 3")
	assert.Contains(t, out, "Olena (google): quota exceeded")

	buf.Reset()
	require.NoError(t, printSummary(&buf, sum, true))
	assert.Contains(t, buf.String(), `"processed_path": "output/processed.csv"`)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "Інтерв...", clip("Інтерв'ю з агрономом", 9))
}
