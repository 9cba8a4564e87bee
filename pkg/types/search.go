// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the press-tracker pipeline:
// search records, result tables, and stage configuration.
package types

import (
	"errors"
	"strings"
)

// ErrConfig marks configuration errors. They are fatal: the command reports
// them and exits before any request is made or any file is written.
var ErrConfig = errors.New("configuration error")

// Column names, in CSV order.
const (
	ColPerson = "Person"
	ColTitle  = "Title"
	ColDate   = "Date"
	ColSource = "Source"
	ColLink   = "Link"
)

// Columns lists the result table columns in the order they are written.
var Columns = []string{ColPerson, ColTitle, ColDate, ColSource, ColLink}

// CanonicalColumn returns the canonical spelling of a column name, matched
// case-insensitively, and whether it is a known column.
func CanonicalColumn(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Columns {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// SearchRecord is one normalized search hit for a person. Records are
// created once per API result item and never modified afterwards; stages
// that change a field build a new record.
type SearchRecord struct {
	// Person is the query the record was found for (after renaming, the
	// canonical person name).
	Person string `json:"person" yaml:"person"`

	// Title is the result title as returned by the API.
	Title string `json:"title" yaml:"title"`

	// Date is the publication date, YYYY-MM-DD when it could be normalized,
	// the raw API value otherwise, or empty when unknown.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`

	// Source is the domain the result was published on.
	Source string `json:"source" yaml:"source"`

	// Link is the result URL. Never empty.
	Link string `json:"link" yaml:"link"`
}

// Field returns the value of the named column. The name must be canonical
// (see CanonicalColumn).
func (r SearchRecord) Field(column string) string {
	switch column {
	case ColPerson:
		return r.Person
	case ColTitle:
		return r.Title
	case ColDate:
		return r.Date
	case ColSource:
		return r.Source
	case ColLink:
		return r.Link
	}
	return ""
}

// Row returns the record as a CSV row in Columns order.
func (r SearchRecord) Row() []string {
	return []string{r.Person, r.Title, r.Date, r.Source, r.Link}
}

// ResultTable is an ordered sequence of records. Table operations return a
// new table and leave their input untouched.
type ResultTable []SearchRecord

// Clone returns a copy of the table that shares no backing array with t.
func (t ResultTable) Clone() ResultTable {
	if t == nil {
		return nil
	}
	out := make(ResultTable, len(t))
	copy(out, t)
	return out
}

// People returns the distinct person names in first-seen order.
func (t ResultTable) People() []string {
	seen := make(map[string]bool)
	var people []string
	for _, r := range t {
		if !seen[r.Person] {
			seen[r.Person] = true
			people = append(people, r.Person)
		}
	}
	return people
}
