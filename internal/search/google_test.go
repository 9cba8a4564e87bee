// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/press-tracker/pkg/types"
)

// --- Mock Custom Search server ---

type cseItem struct {
	Title       string         `json:"title"`
	Link        string         `json:"link,omitempty"`
	DisplayLink string         `json:"displayLink,omitempty"`
	Pagemap     map[string]any `json:"pagemap,omitempty"`
}

type cseResponse struct {
	Items []cseItem `json:"items,omitempty"`
}

// cseRequest captures the query parameters of one API call.
type cseRequest struct {
	Q, Start, Num, Sort, Gl, Cx, Key string
}

// cseServer serves pages from pages(query, start). A nil page with a
// non-zero status writes an API error.
type cseServer struct {
	mu       sync.Mutex
	requests []cseRequest
	pages    func(q string, start int) (status int, items []cseItem)
}

func (s *cseServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := cseRequest{
		Q: q.Get("q"), Start: q.Get("start"), Num: q.Get("num"),
		Sort: q.Get("sort"), Gl: q.Get("gl"), Cx: q.Get("cx"), Key: q.Get("key"),
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	start, _ := strconv.Atoi(req.Start)
	status, items := s.pages(req.Q, start)
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"quota exceeded"}}`, status)
		return
	}
	json.NewEncoder(w).Encode(cseResponse{Items: items})
}

func (s *cseServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// startCSE points the Google backend at an httptest server for the
// duration of the test.
func startCSE(t *testing.T, pages func(q string, start int) (int, []cseItem)) (*cseServer, *GoogleBackend) {
	t.Helper()
	srv := &cseServer{pages: pages}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	old := cseEndpoint
	cseEndpoint = ts.URL + "/"
	t.Cleanup(func() { cseEndpoint = old })

	return srv, &GoogleBackend{Client: ts.Client()}
}

// makeItems returns n items whose links are unique per query and offset.
func makeItems(q string, start, n int) []cseItem {
	items := make([]cseItem, n)
	for i := range items {
		items[i] = cseItem{
			Title:       fmt.Sprintf("%s result %d", q, start+i),
			Link:        fmt.Sprintf("https://news.example.org/%d?q=%s", start+i, url.QueryEscape(q)),
			DisplayLink: "news.example.org",
		}
	}
	return items
}

// twoPages serves two full pages of 10 and then an empty page.
func twoPages(q string, start int) (int, []cseItem) {
	if start > 11 {
		return http.StatusOK, nil
	}
	return http.StatusOK, makeItems(q, start, 10)
}

func googleCfg() types.SearchConfig {
	cfg := testCfg()
	cfg.APIKey = "test-key"
	cfg.SearchEngineID = "test-cx"
	cfg.Region = "ua"
	return cfg
}

// --- GoogleBackend.Search ---

func TestGoogleSearchStopsOnEmptyPage(t *testing.T) {
	srv, b := startCSE(t, twoPages)

	records, err := b.Search(context.Background(), "Oleh Nivievskyi", googleCfg())
	require.NoError(t, err)

	assert.Len(t, records, 20)
	assert.Equal(t, 3, srv.requestCount(), "two full pages plus the empty one")

	starts := []string{srv.requests[0].Start, srv.requests[1].Start, srv.requests[2].Start}
	assert.Equal(t, []string{"1", "11", "21"}, starts)
	for _, req := range srv.requests {
		assert.Equal(t, "test-key", req.Key)
		assert.Equal(t, "test-cx", req.Cx)
		assert.Equal(t, "ua", req.Gl)
		assert.Equal(t, "Oleh Nivievskyi", req.Q)
	}
}

func TestGoogleSearchRespectsMaxResults(t *testing.T) {
	srv, b := startCSE(t, func(q string, start int) (int, []cseItem) {
		return http.StatusOK, makeItems(q, start, 10)
	})

	cfg := googleCfg()
	cfg.MaxResults = 25
	records, err := b.Search(context.Background(), "Mariia Bogonos", cfg)
	require.NoError(t, err)

	require.Equal(t, 3, srv.requestCount())
	assert.Equal(t, "10", srv.requests[0].Num)
	assert.Equal(t, "10", srv.requests[1].Num)
	assert.Equal(t, "5", srv.requests[2].Num)
	// The mock ignores num; items beyond it are discarded.
	assert.Len(t, records, 25)
}

func TestGoogleSearchCapsAtAPILimit(t *testing.T) {
	srv, b := startCSE(t, func(q string, start int) (int, []cseItem) {
		return http.StatusOK, makeItems(q, start, 10)
	})

	cfg := googleCfg()
	cfg.MaxResults = 500
	records, err := b.Search(context.Background(), "Pavlo Martyshev", cfg)
	require.NoError(t, err)

	assert.Equal(t, 10, srv.requestCount())
	assert.Len(t, records, types.MaxResultsLimit)
	assert.Equal(t, "91", srv.requests[9].Start)
}

func TestGoogleSearchKeepsPagesBeforeFailure(t *testing.T) {
	srv, b := startCSE(t, func(q string, start int) (int, []cseItem) {
		if start == 11 {
			return http.StatusForbidden, nil
		}
		return http.StatusOK, makeItems(q, start, 10)
	})

	records, err := b.Search(context.Background(), "Roman Neyter", googleCfg())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start 11")
	assert.Len(t, records, 10)
	assert.Equal(t, 2, srv.requestCount(), "failed page is not retried")
}

func TestGoogleSearchSortParameter(t *testing.T) {
	fixedNow := time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		modify func(*types.SearchConfig)
		want   string
	}{
		{"relevance", func(c *types.SearchConfig) {}, ""},
		{"sort by date", func(c *types.SearchConfig) { c.SortByDate = true }, "date"},
		{"range", func(c *types.SearchConfig) {
			c.DateFrom = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}, "date:r:20240101:20250309"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, b := startCSE(t, func(string, int) (int, []cseItem) { return http.StatusOK, nil })
			b.Now = func() time.Time { return fixedNow }

			cfg := googleCfg()
			tt.modify(&cfg)
			_, err := b.Search(context.Background(), "Artur Burak", cfg)
			require.NoError(t, err)
			require.Equal(t, 1, srv.requestCount())
			assert.Equal(t, tt.want, srv.requests[0].Sort)
		})
	}
}

func TestGoogleSearchNormalizesItems(t *testing.T) {
	_, b := startCSE(t, func(q string, start int) (int, []cseItem) {
		if start > 1 {
			return http.StatusOK, nil
		}
		return http.StatusOK, []cseItem{
			{
				Title:       " Grain exports fall ",
				Link:        "https://www.epravda.com.ua/news/2024/05/14/1",
				DisplayLink: "www.epravda.com.ua",
				Pagemap: map[string]any{
					"metatags": []map[string]string{{"article:published_time": "2024-05-14T09:30:00+03:00"}},
				},
			},
			{Title: "No link at all"},
			{Title: "Relative link", Link: "/news/2"},
			{Title: "No display link", Link: "https://voxukraine.org/en/article"},
		}
	})

	records, err := b.Search(context.Background(), "Oleh%20Nivievskyi", googleCfg())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, types.SearchRecord{
		Person: "Oleh%20Nivievskyi",
		Title:  "Grain exports fall",
		Date:   "2024-05-14",
		Source: "www.epravda.com.ua",
		Link:   "https://www.epravda.com.ua/news/2024/05/14/1",
	}, records[0])

	assert.Equal(t, "voxukraine.org", records[1].Source)
	assert.Empty(t, records[1].Date)
}

func TestDecodeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Oleh Nivievskyi", "Oleh Nivievskyi"},
		{"%D0%9E%D0%BB%D0%B5%D0%B3%20Test", "Олег Test"},
		{"100% sure", "100% sure"},
		{"  padded  ", "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeQuery(tt.in))
		})
	}
}
