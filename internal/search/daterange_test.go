package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/press-tracker/pkg/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRange(t *testing.T) {
	now := time.Date(2025, 7, 4, 23, 30, 0, 0, time.FixedZone("EEST", 3*3600))

	tests := []struct {
		name     string
		from, to time.Time
		want     string
	}{
		{"both bounds", day(2024, 1, 1), day(2024, 12, 31), "date:r:20240101:20241231"},
		{"only from", day(2024, 3, 15), time.Time{}, "date:r:20240315:20250704"},
		{"only to", time.Time{}, day(2023, 6, 30), "date:r:19700101:20230630"},
		{"neither", time.Time{}, time.Time{}, "date:r:19700101:20250704"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateRange(tt.from, tt.to, now))
		})
	}
}

func TestDateRangeUsesUTCForOpenEnd(t *testing.T) {
	// 01:30 on the 5th in Kyiv is still the 4th in UTC.
	now := time.Date(2025, 7, 5, 1, 30, 0, 0, time.FixedZone("EEST", 3*3600))
	assert.Equal(t, "date:r:20250101:20250704", DateRange(day(2025, 1, 1), time.Time{}, now))
}

func TestSortParam(t *testing.T) {
	now := day(2025, 2, 1)

	tests := []struct {
		name string
		cfg  types.SearchConfig
		want string
	}{
		{"relevance", types.SearchConfig{}, ""},
		{"date order", types.SearchConfig{SortByDate: true}, "date"},
		{"range wins over date order", types.SearchConfig{SortByDate: true, DateFrom: day(2024, 1, 1), DateTo: day(2024, 2, 1)}, "date:r:20240101:20240201"},
		{"one-sided range", types.SearchConfig{DateTo: day(2024, 2, 1)}, "date:r:19700101:20240201"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SortParam(tt.cfg, now))
		})
	}
}
