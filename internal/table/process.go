package table

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// Stats counts what each processing step removed or changed.
type Stats struct {
	Input      int `json:"input" yaml:"input"`
	Renamed    int `json:"renamed" yaml:"renamed"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	Irrelevant int `json:"irrelevant" yaml:"irrelevant"`
	Excluded   int `json:"excluded" yaml:"excluded"`
	Output     int `json:"output" yaml:"output"`
}

// Validate checks cfg for configuration errors without touching a table.
func Validate(cfg types.ProcessConfig) error {
	if cfg.SortBy == "" {
		return nil
	}
	return ValidateColumn(cfg.SortBy)
}

// Process cleans t for the second output: rename persons, drop duplicate
// links, drop irrelevant sites, drop excluded links, then sort. The sort
// column is validated before anything else runs.
func Process(ctx context.Context, t types.ResultTable, cfg types.ProcessConfig) (types.ResultTable, Stats, error) {
	if err := Validate(cfg); err != nil {
		return nil, Stats{}, err
	}
	log := zerolog.Ctx(ctx)

	stats := Stats{Input: len(t)}
	out, renamed := Rename(t, cfg.Rename)
	stats.Renamed = renamed

	if cfg.Dedup {
		before := len(out)
		out = Dedup(out)
		stats.Duplicates = before - len(out)
	}

	before := len(out)
	out = RelevanceFilter{
		BlacklistedDomains: cfg.BlacklistedDomains,
		URLStopWords:       cfg.URLStopWords,
		TitleStopWords:     cfg.TitleStopWords,
	}.Apply(out)
	stats.Irrelevant = before - len(out)

	before = len(out)
	out = FilterExcluded(out, cfg.ExcludeLinks)
	stats.Excluded = before - len(out)

	if cfg.SortBy != "" {
		sorted, err := Sort(out, cfg.SortBy, cfg.Ascending)
		if err != nil {
			return nil, Stats{}, err
		}
		out = sorted
	}
	stats.Output = len(out)

	log.Info().
		Int("input", stats.Input).
		Int("renamed", stats.Renamed).
		Int("duplicates", stats.Duplicates).
		Int("irrelevant", stats.Irrelevant).
		Int("excluded", stats.Excluded).
		Int("output", stats.Output).
		Msg("Processed result table")
	return out, stats, nil
}
