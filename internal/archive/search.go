package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// Hit is an archived processed record matched by Search.
type Hit struct {
	RunID     string             `json:"run_id" yaml:"run_id"`
	StartedAt time.Time          `json:"started_at" yaml:"started_at"`
	Record    types.SearchRecord `json:"record" yaml:"record"`
}

// Search returns processed records whose title or person contains term,
// newest run first. Matching ignores case for any script, so "олег" finds
// "Олег". Each link is reported once, from its latest run.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]Hit, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, nil
	}

	// SQLite LIKE folds ASCII only, so matching happens here.
	query := `SELECT u.id, u.started_at, r.person, r.title, r.date, r.source, r.link
		FROM records r JOIN runs u ON u.id = r.run_id
		WHERE r.stage = 'processed'
		ORDER BY u.started_at DESC, r.position`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var hits []Hit
	for rows.Next() {
		var (
			h       Hit
			started string
		)
		if err := rows.Scan(&h.RunID, &started, &h.Record.Person, &h.Record.Title,
			&h.Record.Date, &h.Record.Source, &h.Record.Link); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		if !containsFold(h.Record.Title, term) && !containsFold(h.Record.Person, term) {
			continue
		}
		if seen[h.Record.Link] {
			continue
		}
		seen[h.Record.Link] = true
		h.StartedAt, _ = time.Parse(timeLayout, started)
		hits = append(hits, h)
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, rows.Err()
}

// containsFold reports whether s contains the lowercased term.
func containsFold(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}
