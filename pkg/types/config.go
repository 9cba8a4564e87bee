package types

import "time"

// MaxResultsLimit is the most results the Custom Search API returns for one
// query, however many pages are requested.
const MaxResultsLimit = 100

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "press-tracker/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the search stage. It is built once at
// startup and passed by value; nothing modifies it during a run.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIKey is the Custom Search JSON API key.
	APIKey string `json:"-" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// SearchEngineID is the Custom Search Engine (cx) identifier.
	SearchEngineID string `json:"search_engine_id" yaml:"search_engine_id" mapstructure:"search_engine_id"`

	// SerpAPIKey is the SerpAPI key used by the news backend.
	SerpAPIKey string `json:"-" yaml:"serpapi_key,omitempty" mapstructure:"serpapi_key"`

	// MaxResults is the maximum number of results per person and backend.
	// Values above MaxResultsLimit, and values <= 0, mean MaxResultsLimit.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// SortByDate asks the API to order results by date when no date range
	// is configured.
	SortByDate bool `json:"sort_by_date" yaml:"sort_by_date" mapstructure:"sort_by_date"`

	// Region is the country code sent as the gl parameter (e.g. "ua").
	Region string `json:"region" yaml:"region" mapstructure:"region"`

	// DateFrom and DateTo bound the publication date range. The zero value
	// means unset.
	DateFrom time.Time `json:"date_from" yaml:"date_from" mapstructure:"date_from"`
	DateTo   time.Time `json:"date_to" yaml:"date_to" mapstructure:"date_to"`

	// Backends names the search backends to query, in order
	// ("google", "news").
	Backends []string `json:"backends" yaml:"backends" mapstructure:"backends"`

	// PersonDelay is the pause between consecutive people.
	PersonDelay time.Duration `json:"person_delay" yaml:"person_delay" mapstructure:"person_delay"`
}

// EffectiveMaxResults returns MaxResults clamped to (0, MaxResultsLimit].
func (c SearchConfig) EffectiveMaxResults() int {
	if c.MaxResults <= 0 || c.MaxResults > MaxResultsLimit {
		return MaxResultsLimit
	}
	return c.MaxResults
}

// ProcessConfig holds settings for cleaning, filtering and sorting the
// result table before it is written the second time.
type ProcessConfig struct {
	// SortBy is the column to sort by. Empty keeps the collected order.
	SortBy string `json:"sort_by" yaml:"sort_by" mapstructure:"sort_by"`

	// Ascending selects the sort direction.
	Ascending bool `json:"ascending" yaml:"ascending" mapstructure:"ascending"`

	// ExcludeLinks are link substrings; matching records are removed.
	ExcludeLinks []string `json:"exclude_links" yaml:"exclude_links" mapstructure:"exclude_links"`

	// BlacklistedDomains are hosts whose results (including subdomains)
	// are removed.
	BlacklistedDomains []string `json:"blacklisted_domains" yaml:"blacklisted_domains" mapstructure:"blacklisted_domains"`

	// URLStopWords remove records whose link contains any of them.
	URLStopWords []string `json:"url_stop_words" yaml:"url_stop_words" mapstructure:"url_stop_words"`

	// TitleStopWords remove records whose title contains any of them.
	TitleStopWords []string `json:"title_stop_words" yaml:"title_stop_words" mapstructure:"title_stop_words"`

	// Dedup keeps only the first record for each link.
	Dedup bool `json:"dedup" yaml:"dedup" mapstructure:"dedup"`

	// Rename maps alias person names (transliterations, old spellings) to
	// the canonical name written in the processed output.
	Rename map[string]string `json:"rename" yaml:"rename" mapstructure:"rename"`
}

// EnrichConfig holds settings for filling missing dates from article pages.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MaxTextLength caps the captured article text (default 1500).
	MaxTextLength int `json:"max_text_length" yaml:"max_text_length" mapstructure:"max_text_length"`

	// Delay is the pause between consecutive page fetches.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// MaxRetries bounds retries on HTTP 429 (0 uses the default).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ClassifyConfig holds settings for the article classifier.
type ClassifyConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Model is the chat model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the chat endpoint.
	APIKey string `json:"-" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL is the OpenAI-compatible endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// OutputConfig names the files a run writes.
type OutputConfig struct {
	// RawPath receives the table as collected. Empty skips the raw file.
	RawPath string `json:"raw" yaml:"raw" mapstructure:"raw"`

	// ProcessedPath receives the filtered and sorted table.
	ProcessedPath string `json:"processed" yaml:"processed" mapstructure:"processed"`

	// SummaryPath receives a YAML run summary. Empty skips it.
	SummaryPath string `json:"summary" yaml:"summary" mapstructure:"summary"`
}

// ArchiveConfig holds settings for the SQLite run archive.
type ArchiveConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups all stage configurations. It is decoded once from the
// config file, environment and secrets, and is read-only afterwards.
type Config struct {
	// Queries are the person names (and organisation names) to search for.
	Queries []string `json:"queries" yaml:"queries" mapstructure:"queries"`

	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	Process  ProcessConfig  `json:"process" yaml:"process" mapstructure:"process"`
	Enrich   EnrichConfig   `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
	Classify ClassifyConfig `json:"classify" yaml:"classify" mapstructure:"classify"`
	Output   OutputConfig   `json:"output" yaml:"output" mapstructure:"output"`
	Archive  ArchiveConfig  `json:"archive" yaml:"archive" mapstructure:"archive"`

	// Schedule is the cron spec used by the watch command.
	Schedule string `json:"schedule" yaml:"schedule" mapstructure:"schedule"`
}
