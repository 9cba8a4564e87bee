// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/pdiddy/press-tracker/internal/archive"
	"github.com/pdiddy/press-tracker/internal/classify"
	"github.com/pdiddy/press-tracker/internal/enrich"
	"github.com/pdiddy/press-tracker/internal/secrets"
	"github.com/pdiddy/press-tracker/pkg/types"
)

const (
	configName = "press-tracker"
	envPrefix  = "PRESS_TRACKER"

	defaultUserAgent = "press-tracker/0.1"
)

// defaults registers every config key. Keys must be known to viper for
// PRESS_TRACKER_* environment variables to reach them on Unmarshal.
var defaults = map[string]any{
	"queries": []string{},

	"search.api_key":          "",
	"search.search_engine_id": "",
	"search.serpapi_key":      "",
	"search.max_results":      types.MaxResultsLimit,
	"search.sort_by_date":     true,
	"search.region":           "ua",
	"search.date_from":        "",
	"search.date_to":          "",
	"search.backends":         []string{"google"},
	"search.person_delay":     time.Second,
	"search.timeout":          30 * time.Second,
	"search.user_agent":       defaultUserAgent,

	"process.sort_by":             types.ColDate,
	"process.ascending":           false,
	"process.exclude_links":       []string{},
	"process.blacklisted_domains": []string{},
	"process.url_stop_words":      []string{},
	"process.title_stop_words":    []string{},
	"process.dedup":               true,
	// process.rename has no default; its keys are names, not settings.

	"enrich.enabled":         false,
	"enrich.timeout":         15 * time.Second,
	"enrich.user_agent":      defaultUserAgent,
	"enrich.max_text_length": enrich.DefaultMaxTextLength,
	"enrich.delay":           time.Second,
	"enrich.max_retries":     3,

	"classify.enabled":  false,
	"classify.model":    classify.DefaultModel,
	"classify.api_key":  "",
	"classify.base_url": classify.DefaultBaseURL,

	"output.raw":       "output/raw-{date}.csv",
	"output.processed": "output/processed-{date}.csv",
	"output.summary":   "output/summary-{date}.yaml",

	"archive.enabled": true,
	"archive.path":    archive.DefaultPath,

	"schedule": "@daily",
}

// keyDelim separates nested config keys. It is not "." because rename
// keys are person names, which may contain dots ("O. Petrenko").
const keyDelim = "::"

// newViper returns a viper instance pointed at the config file and
// environment, with every default registered.
func newViper(cfgFile string) *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelim))
	for k, val := range defaults {
		v.SetDefault(strings.ReplaceAll(k, ".", keyDelim), val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelim, "_"))
	v.AutomaticEnv()
	return v
}

// readConfig reads the config file if there is one. A missing default
// file is fine; a missing explicit file or a broken one is not.
func readConfig(v *viper.Viper, explicit bool) (string, error) {
	err := v.ReadInConfig()
	if err == nil {
		return v.ConfigFileUsed(), nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !explicit && errors.As(err, &notFound) {
		return "", nil
	}
	return "", fmt.Errorf("%w: reading config: %v", types.ErrConfig, err)
}

// decodeConfig unmarshals v into a Config and fills credentials from
// secrets.
func decodeConfig(v *viper.Viper, keys map[string]string) (types.Config, error) {
	var cfg types.Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToDateHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return types.Config{}, fmt.Errorf("%w: decoding config: %v", types.ErrConfig, err)
	}
	secrets.Apply(&cfg, keys)
	return cfg, nil
}

var timeType = reflect.TypeOf(time.Time{})

// stringToDateHook decodes date strings in any layout types.ParseDate
// accepts. An empty string is the zero time.
func stringToDateHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != timeType || from.Kind() != reflect.String {
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if s == "" {
			return time.Time{}, nil
		}
		d, ok := types.ParseDate(s)
		if !ok {
			return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
		}
		return d, nil
	}
}
