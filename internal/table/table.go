// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table sorts, filters and cleans result tables. Every operation
// returns a new table; the input is never modified.
package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// ErrUnknownColumn is returned when a sort names a column the table does
// not have. It is a configuration error.
var ErrUnknownColumn = fmt.Errorf("%w: unknown column", types.ErrConfig)

// SortKey is one column of a multi-column sort.
type SortKey struct {
	Column    string
	Ascending bool
}

// ValidateColumn reports ErrUnknownColumn when name is not a table column.
func ValidateColumn(name string) error {
	if _, ok := types.CanonicalColumn(name); !ok {
		return fmt.Errorf("%w %q (columns: %s)", ErrUnknownColumn, name, strings.Join(types.Columns, ", "))
	}
	return nil
}

// Sort returns t stably sorted by one column. Date compares
// chronologically; every other column compares lexicographically.
func Sort(t types.ResultTable, column string, ascending bool) (types.ResultTable, error) {
	return SortBy(t, []SortKey{{Column: column, Ascending: ascending}})
}

// SortBy returns t stably sorted by several columns, the first key being
// the most significant.
//
// Dates that are empty or do not parse sort as the earliest value, so they
// come first in ascending order and last in descending order, keeping
// their relative order.
func SortBy(t types.ResultTable, keys []SortKey) (types.ResultTable, error) {
	resolved := make([]SortKey, len(keys))
	for i, k := range keys {
		if err := ValidateColumn(k.Column); err != nil {
			return nil, err
		}
		col, _ := types.CanonicalColumn(k.Column)
		resolved[i] = SortKey{Column: col, Ascending: k.Ascending}
	}

	out := t.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range resolved {
			c := compare(out[i], out[j], k.Column)
			if c == 0 {
				continue
			}
			if k.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return out, nil
}

// compare orders a and b by column.
func compare(a, b types.SearchRecord, column string) int {
	if column == types.ColDate {
		return compareDates(a.Date, b.Date)
	}
	return strings.Compare(a.Field(column), b.Field(column))
}

func compareDates(a, b string) int {
	ta, okA := types.ParseDate(a)
	tb, okB := types.ParseDate(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return ta.Compare(tb)
}

// FilterExcluded returns the records whose link contains none of patterns,
// compared case-insensitively, in their original order. Empty patterns are
// ignored.
func FilterExcluded(t types.ResultTable, patterns []string) types.ResultTable {
	lowered := lowerNonEmpty(patterns)
	out := make(types.ResultTable, 0, len(t))
	for _, r := range t {
		if containsAny(strings.ToLower(r.Link), lowered) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Dedup keeps the first record for each link.
func Dedup(t types.ResultTable) types.ResultTable {
	seen := make(map[string]bool, len(t))
	out := make(types.ResultTable, 0, len(t))
	for _, r := range t {
		if seen[r.Link] {
			continue
		}
		seen[r.Link] = true
		out = append(out, r)
	}
	return out
}

// Rename replaces person names found in names with their mapped value.
// Names match case-insensitively, since config keys arrive lowercased.
// It returns the new table and the number of records renamed.
func Rename(t types.ResultTable, names map[string]string) (types.ResultTable, int) {
	lowered := make(map[string]string, len(names))
	for from, to := range names {
		lowered[strings.ToLower(strings.TrimSpace(from))] = to
	}
	out := t.Clone()
	renamed := 0
	for i, r := range out {
		if to, ok := lowered[strings.ToLower(r.Person)]; ok && to != r.Person {
			out[i].Person = to
			renamed++
		}
	}
	return out, renamed
}

func lowerNonEmpty(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
