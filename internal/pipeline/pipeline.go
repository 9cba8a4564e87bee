// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the stages of a press-tracker run: search, raw
// output, processing, optional enrichment and classification, processed
// output and archiving.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/press-tracker/internal/archive"
	"github.com/pdiddy/press-tracker/internal/classify"
	"github.com/pdiddy/press-tracker/internal/enrich"
	"github.com/pdiddy/press-tracker/internal/report"
	"github.com/pdiddy/press-tracker/internal/search"
	"github.com/pdiddy/press-tracker/internal/table"
	"github.com/pdiddy/press-tracker/pkg/types"
)

// Enricher fills in page data for a table.
type Enricher interface {
	Enrich(ctx context.Context, t types.ResultTable) ([]types.Article, enrich.Stats)
}

// ArticleFilter drops pages that are not articles.
type ArticleFilter interface {
	Filter(ctx context.Context, articles []types.Article) ([]types.Article, classify.Stats)
}

// Deps holds the collaborators of a run. Nil fields are built from the
// config when the corresponding stage is enabled.
type Deps struct {
	Backends   []search.Backend
	Enricher   Enricher
	Classifier ArticleFilter
	Archive    *archive.Store
	HTTPClient *http.Client
	Now        func() time.Time
}

// Validate reports every configuration problem that would stop a run,
// before any request is made or any file is written.
func Validate(cfg types.Config) error {
	if len(queries(cfg)) == 0 {
		return fmt.Errorf("%w: no queries configured", types.ErrConfig)
	}
	if err := search.Validate(cfg.Search); err != nil {
		return err
	}
	return validateProcessing(cfg)
}

// validateProcessing covers the settings shared by Run and Reprocess.
func validateProcessing(cfg types.Config) error {
	if err := table.Validate(cfg.Process); err != nil {
		return err
	}
	if cfg.Output.ProcessedPath == "" {
		return fmt.Errorf("%w: processed output path is required", types.ErrConfig)
	}
	if cfg.Classify.Enabled {
		if !cfg.Enrich.Enabled {
			return fmt.Errorf("%w: classification needs enrichment enabled to capture page text", types.ErrConfig)
		}
		if cfg.Classify.APIKey == "" {
			return fmt.Errorf("%w: classifier API key is required", types.ErrConfig)
		}
	}
	return nil
}

// Run performs one complete run. Search failures for individual people are
// reported in the summary and do not fail the run; configuration and file
// errors do.
func Run(ctx context.Context, cfg types.Config, deps Deps) (Summary, error) {
	if err := Validate(cfg); err != nil {
		return Summary{}, err
	}
	log := zerolog.Ctx(ctx)
	now := deps.now

	backends := deps.Backends
	if backends == nil {
		b, err := search.NewBackends(cfg.Search, deps.httpClient(cfg.Search.HTTPConfig))
		if err != nil {
			return Summary{}, err
		}
		backends = b
	}

	sum := Summary{
		RunID:     archive.NewRunID(),
		StartedAt: now(),
		Queries:   queries(cfg),
	}
	log.Info().Str("run_id", sum.RunID).Int("queries", len(sum.Queries)).Msg("Starting run")

	out, err := search.Collect(ctx, sum.Queries, backends, cfg.Search)
	if err != nil {
		return sum, err
	}
	for _, f := range out.Failures {
		sum.Failures = append(sum.Failures, f.Error())
	}
	sum.Raw = len(out.Table)

	if cfg.Output.RawPath != "" {
		sum.RawPath = ExpandPath(cfg.Output.RawPath, sum.StartedAt, sum.RunID)
		if err := report.WriteCSV(sum.RawPath, out.Table); err != nil {
			return sum, fmt.Errorf("writing raw output: %w", err)
		}
		log.Info().Str("path", sum.RawPath).Int("records", sum.Raw).Msg("Wrote raw results")
	}

	processed, err := processTable(ctx, cfg, deps, out.Table, &sum)
	if err != nil {
		return sum, err
	}

	sum.ProcessedPath = ExpandPath(cfg.Output.ProcessedPath, sum.StartedAt, sum.RunID)
	if err := report.WriteCSV(sum.ProcessedPath, processed); err != nil {
		return sum, fmt.Errorf("writing processed output: %w", err)
	}
	log.Info().Str("path", sum.ProcessedPath).Int("records", sum.Processed).Msg("Wrote processed results")

	sum.FinishedAt = now()
	if err := archiveRun(ctx, cfg, deps, out.Table, processed, &sum); err != nil {
		return sum, err
	}

	if cfg.Output.SummaryPath != "" {
		path := ExpandPath(cfg.Output.SummaryPath, sum.StartedAt, sum.RunID)
		if err := WriteSummary(path, sum); err != nil {
			return sum, err
		}
	}

	log.Info().
		Str("run_id", sum.RunID).
		Int("raw", sum.Raw).
		Int("processed", sum.Processed).
		Int("failures", len(sum.Failures)).
		Msg("Run complete")
	return sum, nil
}

// Reprocess runs processing over an existing raw CSV and writes the result
// to out. Nothing is searched or archived.
func Reprocess(ctx context.Context, cfg types.Config, in, out string, deps Deps) (Summary, error) {
	if out != "" {
		cfg.Output.ProcessedPath = out
	}
	if err := validateProcessing(cfg); err != nil {
		return Summary{}, err
	}
	log := zerolog.Ctx(ctx)

	raw, dropped, err := report.ReadCSV(in)
	if err != nil {
		return Summary{}, err
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Str("path", in).Msg("Dropped rows without a usable link")
	}

	sum := Summary{StartedAt: deps.now(), RawPath: in, Raw: len(raw), Dropped: dropped}
	processed, err := processTable(ctx, cfg, deps, raw, &sum)
	if err != nil {
		return sum, err
	}
	sum.ProcessedPath = ExpandPath(cfg.Output.ProcessedPath, sum.StartedAt, "")
	if err := report.WriteCSV(sum.ProcessedPath, processed); err != nil {
		return sum, fmt.Errorf("writing processed output: %w", err)
	}
	sum.FinishedAt = deps.now()
	log.Info().Str("path", sum.ProcessedPath).Int("records", sum.Processed).Msg("Wrote processed results")
	return sum, nil
}

// processTable cleans raw and, when enabled, enriches and classifies the
// result. Enrichment can fill dates, so a configured sort is applied again
// afterwards.
func processTable(ctx context.Context, cfg types.Config, deps Deps, raw types.ResultTable, sum *Summary) (types.ResultTable, error) {
	processed, stats, err := table.Process(ctx, raw, cfg.Process)
	if err != nil {
		return nil, err
	}
	sum.Process = stats

	if cfg.Enrich.Enabled {
		enricher := deps.Enricher
		if enricher == nil {
			enricher = enrich.New(cfg.Enrich)
		}
		articles, es := enricher.Enrich(ctx, processed)
		sum.Enrich = &es

		if cfg.Classify.Enabled {
			classifier := deps.Classifier
			if classifier == nil {
				c, err := classify.New(cfg.Classify)
				if err != nil {
					return nil, err
				}
				classifier = c
			}
			var cs classify.Stats
			articles, cs = classifier.Filter(ctx, articles)
			sum.Classify = &cs
		}
		processed = types.Records(articles)

		if cfg.Process.SortBy != "" {
			processed, err = table.Sort(processed, cfg.Process.SortBy, cfg.Process.Ascending)
			if err != nil {
				return nil, err
			}
		}
	}

	sum.Processed = len(processed)
	return processed, nil
}

func archiveRun(ctx context.Context, cfg types.Config, deps Deps, raw, processed types.ResultTable, sum *Summary) error {
	store := deps.Archive
	if store == nil {
		if !cfg.Archive.Enabled {
			return nil
		}
		s, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer s.Close()
		store = s
	}

	fresh, err := store.NewLinks(ctx, processed, time.Time{})
	if err != nil {
		return fmt.Errorf("comparing with archive: %w", err)
	}
	sum.New = len(fresh)

	if _, err := store.SaveRun(ctx, archive.Run{
		ID:         sum.RunID,
		StartedAt:  sum.StartedAt,
		FinishedAt: sum.FinishedAt,
		Queries:    sum.Queries,
		Failures:   len(sum.Failures),
		Raw:        raw,
		Processed:  processed,
	}); err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("run_id", sum.RunID).Int("new_links", sum.New).Msg("Archived run")
	return nil
}

// ExpandPath substitutes {date} with the run date (YYYY-MM-DD) and {run}
// with the first eight characters of the run id.
func ExpandPath(path string, started time.Time, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return strings.NewReplacer(
		"{date}", started.Format(types.DateLayout),
		"{run}", short,
	).Replace(path)
}

// queries returns the configured queries, trimmed, without blanks.
func queries(cfg types.Config) []string {
	var out []string
	for _, q := range cfg.Queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) httpClient(cfg types.HTTPConfig) *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return &http.Client{Timeout: cfg.Timeout}
}
