// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich visits result pages to fill in missing publication dates
// and to capture article text for classification.
package enrich

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/press-tracker/internal/httputil"
	"github.com/pdiddy/press-tracker/pkg/types"
)

// DefaultMaxTextLength is the text cap used when the config leaves it unset.
const DefaultMaxTextLength = 1500

// maxPageBytes caps how much of a page body is parsed. Date meta tags sit
// in the head and only the opening text is kept.
var maxPageBytes int64 = 4 << 20

// Stats counts enrichment outcomes.
type Stats struct {
	Fetched int `json:"fetched" yaml:"fetched"`
	Dated   int `json:"dated" yaml:"dated"`
	Failed  int `json:"failed" yaml:"failed"`
}

// Enricher fetches pages one at a time.
type Enricher struct {
	Client *http.Client
	Config types.EnrichConfig
}

// New returns an Enricher with an HTTP client using cfg.Timeout.
func New(cfg types.EnrichConfig) *Enricher {
	return &Enricher{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}
}

// Fetch downloads link and extracts its page data.
func (e *Enricher) Fetch(ctx context.Context, link string) (Page, error) {
	resp, err := httputil.Get(ctx, e.client(), link, e.Config.HTTPConfig, e.Config.MaxRetries)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	maxText := e.Config.MaxTextLength
	if maxText <= 0 {
		maxText = DefaultMaxTextLength
	}
	return ExtractPage(io.LimitReader(resp.Body, maxPageBytes), maxText)
}

// Enrich visits every record's page in order. Records with an empty Date
// get the page's publication date when one is found; other fields are
// never changed. A page that cannot be fetched leaves its record as it was
// and is logged as a warning.
//
// Enrich returns early with the articles processed so far when ctx is
// cancelled; the remaining records are returned without text.
func (e *Enricher) Enrich(ctx context.Context, t types.ResultTable) ([]types.Article, Stats) {
	log := zerolog.Ctx(ctx)
	articles := make([]types.Article, len(t))
	var stats Stats

	for i, r := range t {
		articles[i] = types.Article{Record: r}
		if ctx.Err() != nil {
			continue
		}
		if i > 0 && e.Config.Delay > 0 {
			select {
			case <-ctx.Done():
				continue
			case <-time.After(e.Config.Delay):
			}
		}

		page, err := e.Fetch(ctx, r.Link)
		if err != nil {
			stats.Failed++
			log.Warn().Err(err).Str("link", r.Link).Msg("Enrichment failed, keeping record")
			continue
		}
		stats.Fetched++
		articles[i].Text = page.Text
		if r.Date == "" && page.Date != "" {
			articles[i].Record.Date = page.Date
			stats.Dated++
		}
		log.Debug().
			Int("index", i).
			Str("link", r.Link).
			Str("date", articles[i].Record.Date).
			Int("text_len", len(page.Text)).
			Msg("Enriched record")
	}

	log.Info().
		Int("records", len(t)).
		Int("fetched", stats.Fetched).
		Int("dated", stats.Dated).
		Int("failed", stats.Failed).
		Msg("Enrichment complete")
	return articles, stats
}

func (e *Enricher) client() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return http.DefaultClient
}
