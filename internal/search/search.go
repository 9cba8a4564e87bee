// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search APIs for each tracked person and
// returns normalized search records.
package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// Backend searches a single web search API for one person. Each backend
// (Custom Search, SerpAPI news) implements this interface.
//
// A backend that fails part-way returns the records gathered so far
// together with the error.
type Backend interface {
	Name() string
	Search(ctx context.Context, person string, cfg types.SearchConfig) ([]types.SearchRecord, error)
}

// Backend names accepted in SearchConfig.Backends.
const (
	BackendGoogle = "google"
	BackendNews   = "news"
)

// Failure records a backend error for one person.
type Failure struct {
	Person  string
	Backend string
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Person, f.Backend, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Output holds the collected table and the failures seen along the way.
type Output struct {
	Table    types.ResultTable
	Failures []Failure
}

// HasFailures reports whether any person/backend pair failed.
func (o Output) HasFailures() bool {
	return len(o.Failures) > 0
}

// Validate checks the credentials the configured backends need.
func Validate(cfg types.SearchConfig) error {
	names := cfg.Backends
	if len(names) == 0 {
		names = []string{BackendGoogle}
	}
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case BackendGoogle:
			if cfg.APIKey == "" {
				return fmt.Errorf("%w: missing Custom Search API key (search.api_key or .secrets/google-api-key)", types.ErrConfig)
			}
			if cfg.SearchEngineID == "" {
				return fmt.Errorf("%w: missing search engine id (search.search_engine_id or .secrets/search-engine-id)", types.ErrConfig)
			}
		case BackendNews:
			if cfg.SerpAPIKey == "" {
				return fmt.Errorf("%w: missing SerpAPI key (search.serpapi_key or .secrets/serpapi-api-key)", types.ErrConfig)
			}
		default:
			return fmt.Errorf("%w: unknown search backend %q", types.ErrConfig, name)
		}
	}
	if !cfg.DateFrom.IsZero() && !cfg.DateTo.IsZero() && cfg.DateFrom.After(cfg.DateTo) {
		return fmt.Errorf("%w: date_from %s is after date_to %s", types.ErrConfig,
			cfg.DateFrom.Format(types.DateLayout), cfg.DateTo.Format(types.DateLayout))
	}
	return nil
}

// NewBackends builds the backends named in cfg.Backends, defaulting to the
// Custom Search backend. client is shared by all backends.
func NewBackends(cfg types.SearchConfig, client *http.Client) ([]Backend, error) {
	names := cfg.Backends
	if len(names) == 0 {
		names = []string{BackendGoogle}
	}
	var backends []Backend
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case BackendGoogle:
			backends = append(backends, &GoogleBackend{Client: client})
		case BackendNews:
			backends = append(backends, &NewsBackend{})
		default:
			return nil, fmt.Errorf("%w: unknown search backend %q", types.ErrConfig, name)
		}
	}
	return backends, nil
}

// Collect runs every backend for every person, one request at a time, and
// concatenates the records in person order. A failing backend does not stop
// the run: the failure is logged and recorded, the records it returned
// before failing are kept, and collection moves on.
func Collect(ctx context.Context, people []string, backends []Backend, cfg types.SearchConfig) (Output, error) {
	if len(people) == 0 {
		return Output{}, fmt.Errorf("%w: no queries configured", types.ErrConfig)
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("%w: no search backends configured", types.ErrConfig)
	}

	log := zerolog.Ctx(ctx)
	var out Output
	for i, person := range people {
		if i > 0 && cfg.PersonDelay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(cfg.PersonDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		for _, b := range backends {
			records, err := b.Search(ctx, person, cfg)
			out.Table = append(out.Table, records...)
			if err != nil {
				log.Warn().Err(err).
					Str("person", person).
					Str("backend", b.Name()).
					Int("kept", len(records)).
					Msg("Search failed, keeping partial results")
				out.Failures = append(out.Failures, Failure{Person: person, Backend: b.Name(), Err: err})
				continue
			}
			log.Info().
				Str("person", person).
				Str("backend", b.Name()).
				Int("results", len(records)).
				Msg("Search finished")
		}
	}

	log.Info().Int("records", len(out.Table)).Int("failures", len(out.Failures)).Msg("Collection finished")
	return out, nil
}
