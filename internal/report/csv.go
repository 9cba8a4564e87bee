// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report reads and writes result tables as CSV files with the
// header Person,Title,Date,Source,Link.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// ErrNoHeader is returned when a CSV file lacks a header row naming every
// table column.
var ErrNoHeader = errors.New("missing CSV header")

// Encode writes the header and one row per record to w.
func Encode(w io.Writer, t types.ResultTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range t {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes t to path, creating parent directories. The file is
// written to a temporary name and renamed into place, so readers never see
// a partial table.
func WriteCSV(path string, t types.ResultTable) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	encErr := Encode(tmpFile, t)
	closeErr := tmpFile.Close()
	if encErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, encErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Decode reads a table from r. Columns are matched by header name,
// case-insensitively, so their order does not matter and extra columns are
// ignored. Rows whose link is empty or not an http(s) URL are dropped; the
// second return value counts them.
func Decode(r io.Reader) (types.ResultTable, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, ErrNoHeader
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}

	// Spreadsheet exports often start with a byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	index := make(map[string]int, len(types.Columns))
	for i, name := range header {
		if col, ok := types.CanonicalColumn(name); ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	for _, col := range types.Columns {
		if _, ok := index[col]; !ok {
			return nil, 0, fmt.Errorf("%w: no %q column", ErrNoHeader, col)
		}
	}

	field := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var (
		table   types.ResultTable
		dropped int
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading row: %w", err)
		}
		link := field(row, types.ColLink)
		if _, ok := types.UsableLink(link); !ok {
			dropped++
			continue
		}
		table = append(table, types.SearchRecord{
			Person: field(row, types.ColPerson),
			Title:  field(row, types.ColTitle),
			Date:   field(row, types.ColDate),
			Source: field(row, types.ColSource),
			Link:   link,
		})
	}
	return table, dropped, nil
}

// ReadCSV reads a table written by WriteCSV (or by hand) from path.
func ReadCSV(path string) (types.ResultTable, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, dropped, err := Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, dropped, nil
}
