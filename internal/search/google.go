// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// cseEndpoint overrides the Custom Search API base URL. Empty uses the
// library default. Declared as a var so tests can substitute an httptest
// server.
var cseEndpoint = ""

// pageSize is the most items the Custom Search API returns per request.
const pageSize = 10

// pagemapDatePaths are the pagemap locations checked, in order, for a
// publication date.
var pagemapDatePaths = []string{
	`metatags.0.article:published_time`,
	`metatags.0.og:published_time`,
	`metatags.0.datepublished`,
	`newsarticle.0.datepublished`,
}

// GoogleBackend queries the Google Custom Search JSON API.
type GoogleBackend struct {
	// Client is the base HTTP client. The API key transport is layered on
	// top of its Transport. Nil uses a client with cfg.Timeout.
	Client *http.Client

	// Now returns the current time; nil uses time.Now. Used for the open
	// end of a date range.
	Now func() time.Time
}

// Name returns the backend identifier.
func (b *GoogleBackend) Name() string { return BackendGoogle }

// Search pages through Custom Search results for person, 10 items per
// request, until the API returns an empty page or cfg's result cap is
// reached. A failed request ends pagination; records from earlier pages
// are returned with the error.
func (b *GoogleBackend) Search(ctx context.Context, person string, cfg types.SearchConfig) ([]types.SearchRecord, error) {
	svc, err := b.service(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Custom Search service: %w", err)
	}

	query := decodeQuery(person)
	maxResults := cfg.EffectiveMaxResults()
	sortParam := SortParam(cfg, b.now())
	log := zerolog.Ctx(ctx).With().Str("backend", b.Name()).Str("person", person).Logger()

	var records []types.SearchRecord
	fetched, dropped := 0, 0
	for start := 1; start <= maxResults; start += pageSize {
		num := min(pageSize, maxResults-fetched)
		if num <= 0 {
			break
		}

		call := svc.Cse.List().
			Context(ctx).
			Q(query).
			Cx(cfg.SearchEngineID).
			Start(int64(start)).
			Num(int64(num))
		if cfg.Region != "" {
			call = call.Gl(cfg.Region)
		}
		if sortParam != "" {
			call = call.Sort(sortParam)
		}

		res, err := call.Do()
		if err != nil {
			return records, fmt.Errorf("custom search request at start %d: %w", start, err)
		}
		if len(res.Items) == 0 {
			break
		}
		items := res.Items
		if len(items) > num {
			items = items[:num]
		}
		fetched += len(items)

		for _, item := range items {
			rec, ok := recordFromResult(person, item)
			if !ok {
				dropped++
				continue
			}
			records = append(records, rec)
		}
		log.Debug().Int("start", start).Int("items", len(items)).Msg("Fetched page")
	}

	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("Dropped results without a usable link")
	}
	return records, nil
}

func (b *GoogleBackend) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// service builds a Custom Search client that sends cfg.APIKey as the key
// query parameter on every request.
func (b *GoogleBackend) service(ctx context.Context, cfg types.SearchConfig) (*customsearch.Service, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	if b.Client != nil {
		c := *b.Client
		client = &c
	}
	client.Transport = &transport.APIKey{Key: cfg.APIKey, Transport: client.Transport}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if cseEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cseEndpoint))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, option.WithUserAgent(cfg.UserAgent))
	}
	return customsearch.NewService(ctx, opts...)
}

// recordFromResult converts one API item. Items without a usable link are
// rejected.
func recordFromResult(person string, item *customsearch.Result) (types.SearchRecord, bool) {
	if item == nil {
		return types.SearchRecord{}, false
	}
	link := strings.TrimSpace(item.Link)
	if _, ok := types.UsableLink(link); !ok {
		return types.SearchRecord{}, false
	}

	source := strings.TrimSpace(item.DisplayLink)
	if source == "" {
		source = types.Domain(link)
	}

	return types.SearchRecord{
		Person: person,
		Title:  strings.TrimSpace(item.Title),
		Date:   pagemapDate(item.Pagemap),
		Source: source,
		Link:   link,
	}, true
}

// pagemapDate extracts a publication date from an item's pagemap.
func pagemapDate(pagemap any) string {
	raw, err := json.Marshal(pagemap)
	if err != nil || !gjson.ValidBytes(raw) {
		return ""
	}
	for _, path := range pagemapDatePaths {
		if v := gjson.GetBytes(raw, path); v.Exists() && strings.TrimSpace(v.String()) != "" {
			return types.NormalizeDate(v.String())
		}
	}
	return ""
}

// decodeQuery undoes percent-encoding in configured queries such as
// "Олег%20Нів%27євський". Queries that are not valid escapes are used as is.
func decodeQuery(q string) string {
	if decoded, err := url.PathUnescape(q); err == nil {
		return strings.TrimSpace(decoded)
	}
	return strings.TrimSpace(q)
}
