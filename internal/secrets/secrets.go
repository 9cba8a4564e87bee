// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files and
// from a dotenv file. Each file in the directory holds one secret: the
// filename is the key name and the trimmed contents are the value.
//
// Key files: google-api-key, search-engine-id, serpapi-api-key, hf-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// Key file names.
const (
	GoogleAPIKey   = "google-api-key"
	SearchEngineID = "search-engine-id"
	SerpAPIKey     = "serpapi-api-key"
	HFAPIKey       = "hf-api-key"
)

// envNames maps dotenv variables to key file names. When two variables
// name the same key, the earlier one wins.
var envNames = []struct {
	env string
	key string
}{
	{"GOOGLE_API_KEY", GoogleAPIKey},
	{"SEARCH_ENGINE_ID", SearchEngineID},
	{"SERP_API_KEY", SerpAPIKey},
	{"SERPAPI_API_KEY", SerpAPIKey},
	{"HF_API_KEY", HFAPIKey},
}

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are reported in the returned warnings and skipped.
func Load(dir string) (map[string]string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil, nil
		}
		return nil, nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	var warnings []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read secret %s: %v", name, err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, warnings, nil
}

// LoadDotEnv reads a dotenv file and returns the known keys under their
// key file names. SERP_API_KEY takes precedence over SERPAPI_API_KEY. A
// missing file is not an error.
func LoadDotEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	out := make(map[string]string)
	for _, n := range envNames {
		if _, set := out[n.key]; set {
			continue
		}
		if v := strings.TrimSpace(env[n.env]); v != "" {
			out[n.key] = v
		}
	}
	return out, nil
}

// Merge returns the union of sets; earlier sets win.
func Merge(sets ...map[string]string) map[string]string {
	out := make(map[string]string)
	for i := len(sets) - 1; i >= 0; i-- {
		for k, v := range sets[i] {
			out[k] = v
		}
	}
	return out
}

// Apply fills credentials that cfg leaves empty from secrets. Values set
// in cfg always win.
func Apply(cfg *types.Config, secrets map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = secrets[key]
		}
	}
	fill(&cfg.Search.APIKey, GoogleAPIKey)
	fill(&cfg.Search.SearchEngineID, SearchEngineID)
	fill(&cfg.Search.SerpAPIKey, SerpAPIKey)
	fill(&cfg.Classify.APIKey, HFAPIKey)
}
