// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/press-tracker/internal/httputil"
	"github.com/pdiddy/press-tracker/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const articleHTML = `<!doctype html>
<html><head>
  <title>Grain corridor</title>
  <meta property="article:published_time" content="2024-05-14T07:00:00+03:00">
  <script>var tracking = "ignore me";</script>
</head>
<body>
  <nav>Home | News | Contacts</nav>
  <article>
    <h1>Grain corridor, explained</h1>
    <p>The   agrarian   sector
       keeps exporting.</p>
  </article>
  <footer>Copyright</footer>
</body></html>`

func TestExtractPageDateSources(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"article meta", articleHTML, "2024-05-14"},
		{"og meta", `<meta property="og:published_time" content="2023-11-02T10:00:00Z">`, "2023-11-02"},
		{"itemprop", `<meta itemprop="datePublished" content="2022-01-31">`, "2022-01-31"},
		{"pubdate name", `<meta name="pubdate" content="Mon, 15 Apr 2024 10:00:00 +0000">`, "2024-04-15"},
		{"time element", `<body><time datetime="2021-07-09T12:00:00Z">9 July</time></body>`, "2021-07-09"},
		{"json-ld object", `<script type="application/ld+json">{"@type":"NewsArticle","datePublished":"2020-02-29T08:00:00Z"}</script>`, "2020-02-29"},
		{"json-ld graph", `<script type="application/ld+json">{"@graph":[{"@type":"WebPage"},{"@type":"NewsArticle","datePublished":"2019-12-01"}]}</script>`, "2019-12-01"},
		{"json-ld array", `<script type="application/ld+json">[{"datePublished":"2018-03-03"}]</script>`, "2018-03-03"},
		{"unparsable meta skipped", `<meta name="date" content="yesterday"><time datetime="2017-05-05">x</time>`, "2017-05-05"},
		{"invalid json-ld", `<script type="application/ld+json">{not json</script>`, ""},
		{"no date", `<p>nothing here</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ExtractPage(strings.NewReader(tt.html), 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Date)
		})
	}
}

func TestExtractPageText(t *testing.T) {
	page, err := ExtractPage(strings.NewReader(articleHTML), 0)
	require.NoError(t, err)
	assert.Equal(t, "Grain corridor, explained The agrarian sector keeps exporting.", page.Text)

	page, err = ExtractPage(strings.NewReader(`<body><script>x()</script><p>Body only</p></body>`), 0)
	require.NoError(t, err)
	assert.Equal(t, "Body only", page.Text)
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "Київ", truncate("Київпост", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abc", 0))
}

// pageServer serves articleHTML under /article, a dateless page under
// /plain, a page whose only date follows 64 KiB of text under /late and
// 404 elsewhere.
func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			io.WriteString(w, articleHTML)
		case "/plain":
			io.WriteString(w, `<html><body><p>`+strings.Repeat("слово ", 500)+`</p></body></html>`)
		case "/late":
			io.WriteString(w, `<html><body><p>`+strings.Repeat("x", 64<<10)+`</p>`+
				`<time datetime="2021-07-09T12:00:00Z">9 July</time></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestEnrich(t *testing.T) {
	ts := pageServer(t)
	e := &Enricher{
		Client: ts.Client(),
		Config: types.EnrichConfig{HTTPConfig: types.HTTPConfig{UserAgent: "test"}, MaxTextLength: 100, MaxRetries: 1},
	}
	in := types.ResultTable{
		{Person: "A", Title: "undated", Source: "x", Link: ts.URL + "/article"},
		{Person: "A", Title: "dated", Date: "2020-01-01", Source: "x", Link: ts.URL + "/article"},
		{Person: "B", Title: "missing", Source: "x", Link: ts.URL + "/gone"},
		{Person: "B", Title: "plain", Source: "x", Link: ts.URL + "/plain"},
	}
	before := in.Clone()

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	articles, stats := e.Enrich(ctx, in)

	require.Len(t, articles, 4)
	assert.Equal(t, "2024-05-14", articles[0].Record.Date, "empty date filled from page")
	assert.Equal(t, "2020-01-01", articles[1].Record.Date, "existing date kept")
	assert.Equal(t, before[2], articles[2].Record, "failed fetch leaves record unchanged")
	assert.Empty(t, articles[2].Text)
	assert.Equal(t, "", articles[3].Record.Date)
	assert.Len(t, []rune(articles[3].Text), 100)

	assert.Equal(t, Stats{Fetched: 3, Dated: 1, Failed: 1}, stats)
	assert.Equal(t, before, in, "input is not modified")
	assert.Contains(t, buf.String(), "Enrichment failed")
}

func TestEnrichCancelled(t *testing.T) {
	ts := pageServer(t)
	e := &Enricher{Client: ts.Client()}
	in := types.ResultTable{{Person: "A", Title: "t", Source: "x", Link: ts.URL + "/article"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	articles, stats := e.Enrich(ctx, in)

	require.Len(t, articles, 1)
	assert.Equal(t, in[0], articles[0].Record)
	assert.Zero(t, stats.Fetched)
}

func TestFetchDefaultTextLength(t *testing.T) {
	ts := pageServer(t)
	page, err := (&Enricher{Client: ts.Client()}).Fetch(context.Background(), ts.URL+"/plain")
	require.NoError(t, err)
	assert.Len(t, []rune(page.Text), DefaultMaxTextLength)
}

func TestFetchCapsPageSize(t *testing.T) {
	ts := pageServer(t)
	e := &Enricher{Client: ts.Client()}

	page, err := e.Fetch(context.Background(), ts.URL+"/late")
	require.NoError(t, err)
	assert.Equal(t, "2021-07-09", page.Date)

	old := maxPageBytes
	maxPageBytes = 4 << 10
	t.Cleanup(func() { maxPageBytes = old })

	page, err = e.Fetch(context.Background(), ts.URL+"/late")
	require.NoError(t, err)
	assert.Empty(t, page.Date, "content past the cap is not parsed")
	assert.Len(t, []rune(page.Text), DefaultMaxTextLength)

	page, err = e.Fetch(context.Background(), ts.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-14", page.Date, "head meta tags fall inside the cap")
}
