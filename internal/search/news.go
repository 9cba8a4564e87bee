// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	g "github.com/serpapi/google-search-results-golang"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// serpapiFetch performs one SerpAPI Google request. Declared as a var so
// tests can substitute canned responses.
var serpapiFetch = func(params map[string]string, apiKey string) (map[string]interface{}, error) {
	search := g.NewGoogleSearch(params, apiKey)
	return search.GetJSON()
}

// NewsBackend queries Google News through SerpAPI. SerpAPI returns up to
// 100 news results in one response, so there is a single request per
// person.
type NewsBackend struct {
	// Now returns the current time; nil uses time.Now. Used for the open
	// end of a date range.
	Now func() time.Time
}

// Name returns the backend identifier.
func (b *NewsBackend) Name() string { return BackendNews }

// Search queries the news tab for person.
func (b *NewsBackend) Search(ctx context.Context, person string, cfg types.SearchConfig) ([]types.SearchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := map[string]string{
		"engine": "google",
		"tbm":    "nws",
		"q":      decodeQuery(person),
		"num":    strconv.Itoa(cfg.EffectiveMaxResults()),
	}
	if cfg.Region != "" {
		params["gl"] = cfg.Region
	}
	if tbs := NewsTBS(cfg, b.now()); tbs != "" {
		params["tbs"] = tbs
	}

	results, err := serpapiFetch(params, cfg.SerpAPIKey)
	if err != nil {
		return nil, fmt.Errorf("serpapi news search: %w", err)
	}
	if msg, ok := results["error"].(string); ok && msg != "" {
		return nil, fmt.Errorf("serpapi news search: %s", msg)
	}

	items, ok := results["news_results"].([]interface{})
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("person", person).Msg("No news_results in SerpAPI response")
		return nil, nil
	}

	var records []types.SearchRecord
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rec, ok := recordFromNews(person, m)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (b *NewsBackend) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// recordFromNews converts one news_results entry. Entries without a usable
// link are rejected.
func recordFromNews(person string, m map[string]interface{}) (types.SearchRecord, bool) {
	link := strings.TrimSpace(stringField(m, "link"))
	if _, ok := types.UsableLink(link); !ok {
		return types.SearchRecord{}, false
	}

	// source is a plain string in older responses and an object with a
	// name in newer ones.
	source := stringField(m, "source")
	if src, ok := m["source"].(map[string]interface{}); ok {
		source = stringField(src, "name")
	}
	if source == "" {
		source = types.Domain(link)
	}

	return types.SearchRecord{
		Person: person,
		Title:  strings.TrimSpace(stringField(m, "title")),
		Date:   types.NormalizeDate(stringField(m, "date")),
		Source: strings.TrimSpace(source),
		Link:   link,
	}, true
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
