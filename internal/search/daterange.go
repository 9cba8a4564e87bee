package search

import (
	"time"

	"github.com/pdiddy/press-tracker/pkg/types"
)

const rangeDateFmt = "20060102"

// epochStart is the lower bound used when only DateTo is set.
var epochStart = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// DateRange returns the Custom Search sort restriction for a publication
// date window, e.g. "date:r:20240101:20241231". A zero from defaults to the
// epoch start; a zero to defaults to now's UTC date.
func DateRange(from, to, now time.Time) string {
	if from.IsZero() {
		from = epochStart
	}
	if to.IsZero() {
		to = now.UTC()
	}
	return "date:r:" + from.Format(rangeDateFmt) + ":" + to.Format(rangeDateFmt)
}

// SortParam returns the sort parameter for cfg: a date range when either
// bound is set, plain date ordering when only SortByDate is set, and empty
// (relevance ordering) otherwise.
func SortParam(cfg types.SearchConfig, now time.Time) string {
	if !cfg.DateFrom.IsZero() || !cfg.DateTo.IsZero() {
		return DateRange(cfg.DateFrom, cfg.DateTo, now)
	}
	if cfg.SortByDate {
		return "date"
	}
	return ""
}

const newsDateFmt = "01/02/2006"

// NewsTBS returns the SerpAPI tbs value for cfg: a custom date range
// ("cdr:1,cd_min:01/01/2024,cd_max:06/30/2024") when either bound is set,
// "sbd:1" for date ordering, and empty otherwise. Open bounds default the
// same way as DateRange.
func NewsTBS(cfg types.SearchConfig, now time.Time) string {
	if !cfg.DateFrom.IsZero() || !cfg.DateTo.IsZero() {
		from, to := cfg.DateFrom, cfg.DateTo
		if from.IsZero() {
			from = epochStart
		}
		if to.IsZero() {
			to = now.UTC()
		}
		return "cdr:1,cd_min:" + from.Format(newsDateFmt) + ",cd_max:" + to.Format(newsDateFmt)
	}
	if cfg.SortByDate {
		return "sbd:1"
	}
	return ""
}
