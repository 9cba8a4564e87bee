// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// Page is what enrichment reads from one article page.
type Page struct {
	// Date is the publication date as YYYY-MM-DD, or empty.
	Date string
	// Text is the visible text, whitespace collapsed.
	Text string
}

// dateSelectors are tried in order; the first parseable value wins.
var dateSelectors = []struct {
	selector string
	attr     string
}{
	{"meta[property='article:published_time']", "content"},
	{"meta[name='article:published_time']", "content"},
	{"meta[property='og:published_time']", "content"},
	{"meta[itemprop='datePublished']", "content"},
	{"meta[name='pubdate']", "content"},
	{"meta[name='publishdate']", "content"},
	{"meta[name='date']", "content"},
	{"meta[name='dc.date']", "content"},
	{"time[datetime]", "datetime"},
}

// jsonLDDatePaths are gjson paths for the publication date in schema.org
// JSON-LD blocks.
var jsonLDDatePaths = []string{
	"datePublished",
	`\@graph.#.datePublished`,
	"#.datePublished",
}

// ExtractPage parses HTML from r and returns the publication date and at
// most maxText characters of visible text. maxText <= 0 means no limit.
func ExtractPage(r io.Reader, maxText int) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("parsing HTML: %w", err)
	}
	// Dates come first: text extraction removes header elements.
	date := extractDate(doc)
	return Page{Date: date, Text: truncate(extractText(doc), maxText)}, nil
}

func extractDate(doc *goquery.Document) string {
	for _, ds := range dateSelectors {
		var found string
		doc.Find(ds.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, ok := s.Attr(ds.attr)
			if !ok {
				return true
			}
			if _, ok := types.ParseDate(v); ok {
				found = types.NormalizeDate(v)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	var found string
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := s.Text()
		if !gjson.Valid(raw) {
			return true
		}
		for _, path := range jsonLDDatePaths {
			res := gjson.Get(raw, path)
			if res.IsArray() {
				arr := res.Array()
				if len(arr) == 0 {
					continue
				}
				res = arr[0]
			}
			v := res.String()
			if _, ok := types.ParseDate(v); ok {
				found = types.NormalizeDate(v)
				return false
			}
		}
		return true
	})
	return found
}

func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template, svg, nav, footer, header, aside").Remove()

	sel := doc.Find("article").First()
	if sel.Length() == 0 || strings.TrimSpace(sel.Text()) == "" {
		sel = doc.Find("body")
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
