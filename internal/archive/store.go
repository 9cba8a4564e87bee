// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps every pipeline run in a SQLite database so runs can
// be listed, compared and exported later.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// DefaultPath is the database location used when the config leaves it unset.
const DefaultPath = "output/archive/press-tracker.db"

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Errors returned when a run reference does not resolve.
var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("run id prefix matches more than one run")
)

// Stage names the table a record set belongs to.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageProcessed Stage = "processed"
)

// Run is a complete pipeline run as saved to the archive.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Queries    []string
	Failures   int
	Raw        types.ResultTable
	Processed  types.ResultTable
}

// RunInfo summarizes an archived run.
type RunInfo struct {
	ID             string    `json:"id" yaml:"id"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time `json:"finished_at" yaml:"finished_at"`
	Queries        []string  `json:"queries" yaml:"queries"`
	Failures       int       `json:"failures" yaml:"failures"`
	RawCount       int       `json:"raw_count" yaml:"raw_count"`
	ProcessedCount int       `json:"processed_count" yaml:"processed_count"`
}

// Store manages the archive database.
type Store struct {
	db *sql.DB
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates the archive at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			queries TEXT NOT NULL,
			failures INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			stage TEXT NOT NULL,
			position INTEGER NOT NULL,
			person TEXT NOT NULL,
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			source TEXT NOT NULL,
			link TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id, stage, position)`,
		`CREATE INDEX IF NOT EXISTS idx_records_link ON records(link)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores run and both of its tables in one transaction. An empty
// ID is replaced by a new one; the id used is returned.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	queriesJSON, err := json.Marshal(run.Queries)
	if err != nil {
		return "", fmt.Errorf("encoding queries: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, queries, failures) VALUES (?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), string(queriesJSON), run.Failures,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, stage, position, person, title, date, source, link)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, set := range []struct {
		stage Stage
		table types.ResultTable
	}{{StageRaw, run.Raw}, {StageProcessed, run.Processed}} {
		for i, r := range set.table {
			if _, err := stmt.ExecContext(ctx, run.ID, string(set.stage), i,
				r.Person, r.Title, r.Date, r.Source, r.Link); err != nil {
				return "", fmt.Errorf("inserting %s record %d: %w", set.stage, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	query := `SELECT r.id, r.started_at, r.finished_at, r.queries, r.failures,
			(SELECT count(*) FROM records WHERE run_id = r.id AND stage = 'raw'),
			(SELECT count(*) FROM records WHERE run_id = r.id AND stage = 'processed')
		FROM runs r
		ORDER BY r.started_at DESC, r.id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		info, err := scanRunInfo(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// Run returns the summary of one run.
func (s *Store) Run(ctx context.Context, id string) (RunInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.started_at, r.finished_at, r.queries, r.failures,
			(SELECT count(*) FROM records WHERE run_id = r.id AND stage = 'raw'),
			(SELECT count(*) FROM records WHERE run_id = r.id AND stage = 'processed')
		FROM runs r WHERE r.id = ?`, id)
	info, err := scanRunInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return info, err
}

// FindRun resolves a full run id or a unique prefix of one, such as the
// short id expanded into output file names.
func (s *Store) FindRun(ctx context.Context, ref string) (RunInfo, error) {
	if ref == "" {
		return RunInfo{}, fmt.Errorf("%w: empty run id", ErrRunNotFound)
	}
	info, err := s.Run(ctx, ref)
	if !errors.Is(err, ErrRunNotFound) {
		return info, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`, escapeLike(ref)+"%")
	if err != nil {
		return RunInfo{}, fmt.Errorf("resolving run %s: %w", ref, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return RunInfo{}, fmt.Errorf("scanning run id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return RunInfo{}, err
	}

	switch len(ids) {
	case 0:
		return RunInfo{}, fmt.Errorf("%w: %s", ErrRunNotFound, ref)
	case 1:
		return s.Run(ctx, ids[0])
	default:
		return RunInfo{}, fmt.Errorf("%w: %s", ErrAmbiguousRun, ref)
	}
}

// Records returns one stage of a run's table in its saved order.
func (s *Store) Records(ctx context.Context, runID string, stage Stage) (types.ResultTable, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT person, title, date, source, link FROM records
		 WHERE run_id = ? AND stage = ? ORDER BY position`, runID, string(stage))
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	table := types.ResultTable{}
	for rows.Next() {
		var r types.SearchRecord
		if err := rows.Scan(&r.Person, &r.Title, &r.Date, &r.Source, &r.Link); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		table = append(table, r)
	}
	return table, rows.Err()
}

// NewLinks returns the records of t whose link appears in no run started
// before the given time. A zero time compares against every archived run.
func (s *Store) NewLinks(ctx context.Context, t types.ResultTable, before time.Time) (types.ResultTable, error) {
	query := `SELECT 1 FROM records r JOIN runs u ON u.id = r.run_id WHERE r.link = ?`
	if !before.IsZero() {
		query += ` AND u.started_at < ?`
	}
	query += ` LIMIT 1`

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("preparing lookup: %w", err)
	}
	defer stmt.Close()

	out := types.ResultTable{}
	for _, r := range t {
		args := []any{r.Link}
		if !before.IsZero() {
			args = append(args, formatTime(before))
		}
		var seen int
		err := stmt.QueryRowContext(ctx, args...).Scan(&seen)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			out = append(out, r)
		case err != nil:
			return nil, fmt.Errorf("looking up %s: %w", r.Link, err)
		}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRunInfo(sc scanner) (RunInfo, error) {
	var (
		info              RunInfo
		started, finished string
		queriesJSON       string
	)
	err := sc.Scan(&info.ID, &started, &finished, &queriesJSON, &info.Failures,
		&info.RawCount, &info.ProcessedCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunInfo{}, err
		}
		return RunInfo{}, fmt.Errorf("scanning run: %w", err)
	}
	info.StartedAt, _ = time.Parse(timeLayout, started)
	info.FinishedAt, _ = time.Parse(timeLayout, finished)
	if err := json.Unmarshal([]byte(queriesJSON), &info.Queries); err != nil {
		return RunInfo{}, fmt.Errorf("decoding queries of run %s: %w", info.ID, err)
	}
	return info, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
