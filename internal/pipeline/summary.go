package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/press-tracker/internal/classify"
	"github.com/pdiddy/press-tracker/internal/enrich"
	"github.com/pdiddy/press-tracker/internal/table"
)

// Summary describes a finished run. It is written as YAML next to the
// output files when a summary path is configured.
type Summary struct {
	RunID         string          `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	StartedAt     time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time       `json:"finished_at" yaml:"finished_at"`
	Queries       []string        `json:"queries,omitempty" yaml:"queries,omitempty"`
	RawPath       string          `json:"raw_path,omitempty" yaml:"raw_path,omitempty"`
	ProcessedPath string          `json:"processed_path" yaml:"processed_path"`
	Raw           int             `json:"raw" yaml:"raw"`
	Dropped       int             `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Processed     int             `json:"processed" yaml:"processed"`
	New           int             `json:"new" yaml:"new"`
	Failures      []string        `json:"failures,omitempty" yaml:"failures,omitempty"`
	Process       table.Stats     `json:"process" yaml:"process"`
	Enrich        *enrich.Stats   `json:"enrich,omitempty" yaml:"enrich,omitempty"`
	Classify      *classify.Stats `json:"classify,omitempty" yaml:"classify,omitempty"`
}

// WriteSummary writes s to path as YAML, creating parent directories.
func WriteSummary(path string, s Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing summary %s: %w", path, err)
	}
	return nil
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("reading summary %s: %w", path, err)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("parsing summary %s: %w", path, err)
	}
	return s, nil
}
