package types

import (
	"strings"
	"time"
)

// DateLayout is the normalized form of SearchRecord.Date.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order by ParseDate. They cover the shapes seen
// in page metadata (ISO 8601 variants), SerpAPI news dates, and dates
// typed by hand into CSV files.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
	"01/02/2006, 03:04 PM, -0700 MST",
	"01/02/2006",
	"02.01.2006",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses a publication date in any of the supported layouts.
// As a last resort a leading YYYY-MM-DD prefix is accepted.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate returns s as YYYY-MM-DD when it parses, and s unchanged
// (trimmed) otherwise.
func NormalizeDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format(DateLayout)
	}
	return strings.TrimSpace(s)
}
