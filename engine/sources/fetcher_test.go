package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/resilience"
)

const articlePage = `<!doctype html>
<html><head>
<title> Gold hits record </title>
<meta name="description" content="Gold price news">
<meta property="article:published_time" content="2024-03-03T10:00:00Z">
<script>var x = "ignored";</script>
</head><body>
<nav><ul><li>Main page</li><li>Contents</li></ul></nav>
<div class="sidebar"><p>Sidebar noise.</p></div>
<div class="story-body wide">
  <p>Gold rose to a record on Monday.</p>
  <p>Analysts   expect further gains.</p>
  <p>  </p>
</div>
<table>
  <tr><th>Rank</th><th>Country</th></tr>
  <tr><td>1</td><td>USA</td></tr>
  <tr><td>2</td><td>Germany</td></tr>
  <tr><td>3</td><td>Italy</td></tr>
  <tr><td>4</td><td>France</td></tr>
  <tr><td>5</td><td>Russia</td></tr>
  <tr><td>6</td><td>China</td></tr>
</table>
<table><tr><th>Second</th></tr><tr><td>ignored</td></tr></table>
<ol><li>one</li><li>two</li></ol>
<ul><li>a</li><li>b</li></ul>
<ul><li>c</li></ul>
<ul><li>d</li></ul>
<a href="#top">Top</a>
<a href="/signup">Sign up</a>
<a href="https://x.test/login?next=/">Log in</a>
<a href="/one">One</a>
<a href="">Empty</a>
<a href="/two"></a>
<a href="https://other.test/three">Three</a>
<a href="/four">Four</a>
<a href="/five">Five</a>
<a href="/six">Six</a>
<a href="/seven">Seven</a>
</body></html>`

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return root
}

func TestExtractDocument(t *testing.T) {
	doc := extractDocument(parse(t, articlePage), "https://news.test/a/b")

	assert.Equal(t, "Gold hits record", doc.Title)
	assert.Equal(t, "Gold rose to a record on Monday.\n\nAnalysts expect further gains.", doc.Text)
	assert.Equal(t, "Gold price news", doc.Metadata["description"])
	assert.Equal(t, "2024-03-03T10:00:00Z", doc.Metadata["article:published_time"])

	require.Len(t, doc.Tables, 1)
	assert.Equal(t, []string{"Rank", "Country"}, doc.Tables[0].Headers)
	require.Len(t, doc.Tables[0].Rows, 5)
	assert.Equal(t, []string{"1", "USA"}, doc.Tables[0].Rows[0])
	assert.Equal(t, []string{"5", "Russia"}, doc.Tables[0].Rows[4])

	require.Len(t, doc.Lists, 3)
	assert.Equal(t, domain.List{Type: "ordered", Items: []string{"one", "two"}}, doc.Lists[0])
	assert.Equal(t, domain.List{Type: "unordered", Items: []string{"a", "b"}}, doc.Lists[1])
	assert.Equal(t, "unordered", doc.Lists[2].Type)

	assert.Equal(t, []domain.Link{
		{Text: "One", URL: "https://news.test/one"},
		{Text: "Three", URL: "https://other.test/three"},
		{Text: "Four", URL: "https://news.test/four"},
		{Text: "Five", URL: "https://news.test/five"},
		{Text: "Six", URL: "https://news.test/six"},
	}, doc.Links)
}

func TestExtractDefaultsAndFallbacks(t *testing.T) {
	long := strings.Repeat("word ", 30)
	doc := extractDocument(parse(t, `<html><body><p>short</p><p>`+long+`</p></body></html>`), "https://x.test/")

	assert.Equal(t, DefaultTitle, doc.Title)
	assert.Equal(t, strings.TrimSpace(long), doc.Text)
	assert.Empty(t, doc.Tables)
	assert.NotNil(t, doc.Tables)
	assert.Empty(t, doc.Lists)
	assert.Empty(t, doc.Links)
	assert.Empty(t, doc.Metadata)
}

func TestExtractTableNeedsHeadersAndRows(t *testing.T) {
	_, ok := extractTable(parse(t, `<table><tr><td>1</td></tr><tr><td>2</td></tr></table>`))
	assert.False(t, ok, "no headers")

	_, ok = extractTable(parse(t, `<table><tr><th>Only</th></tr></table>`))
	assert.False(t, ok, "no rows")
}

func TestExtractListsCapsItems(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<ul>")
	for range 15 {
		sb.WriteString("<li>item</li>")
	}
	sb.WriteString("</ul>")
	lists := extractLists(parse(t, sb.String()))
	require.Len(t, lists, 1)
	assert.Len(t, lists[0].Items, maxListItems)
}

func TestExtractSkipsNavLists(t *testing.T) {
	lists := extractLists(parse(t, `<ul><li>Jobs</li><li>About</li></ul><ul><li>Employers board</li></ul><ol><li>real</li></ol>`))
	require.Len(t, lists, 1)
	assert.Equal(t, []string{"real"}, lists[0].Items)
}

func TestExtractFallsBackToBody(t *testing.T) {
	doc := extractDocument(parse(t, `<html><body><span>tiny page</span></body></html>`), "https://x.test/")
	assert.Equal(t, "tiny page", doc.Text)
}

func newTestFetcher(cfg FetcherConfig) *PageFetcher {
	if cfg.Guard.Rate == 0 {
		cfg.Guard.Rate = 1000
		cfg.Guard.Burst = 100
	}
	return NewPageFetcher(cfg, nil, nil)
}

func TestPageFetcherFetches(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	f := newTestFetcher(FetcherConfig{UserAgent: "test-agent"})
	doc, err := f.FetchDocument(context.Background(), srv.URL+"/story")
	require.NoError(t, err)

	assert.Equal(t, "test-agent", ua)
	assert.Equal(t, srv.URL+"/story", doc.URL)
	assert.Equal(t, "Gold hits record", doc.Title)
	assert.Equal(t, srv.URL+"/one", doc.Links[0].URL)
}

func TestPageFetcherRejectsBadURLs(t *testing.T) {
	f := newTestFetcher(FetcherConfig{})
	for _, u := range []string{"", "ftp://x.test/file", "not a url"} {
		_, err := f.FetchDocument(context.Background(), u)
		assert.ErrorIs(t, err, domain.ErrFetchFailed, u)
	}
}

func TestPageFetcherDisallowedHosts(t *testing.T) {
	f := newTestFetcher(FetcherConfig{DisallowedHosts: []string{"facebook.com", " "}})

	_, err := f.FetchDocument(context.Background(), "https://m.facebook.com/page")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.ErrorIs(t, err, ErrHostDisallowed)

	assert.True(t, f.allowed("notfacebook.com"))
	assert.False(t, f.allowed("facebook.com"))
}

func TestPageFetcherStatusAndContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF"))
		}
	}))
	defer srv.Close()

	f := newTestFetcher(FetcherConfig{})
	_, err := f.FetchDocument(context.Background(), srv.URL+"/missing")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Contains(t, err.Error(), "404")

	_, err = f.FetchDocument(context.Background(), srv.URL+"/pdf")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestPageFetcherBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Capped</title></head><body><p>` + strings.Repeat("x", 4096) + `</p></body></html>`))
	}))
	defer srv.Close()

	f := newTestFetcher(FetcherConfig{MaxBodyBytes: 64})
	doc, err := f.FetchDocument(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Capped", doc.Title)
	assert.Less(t, len(doc.Text), 64)
}

func TestPageFetcherHostBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var transitions []string
	f := newTestFetcher(FetcherConfig{Guard: resilience.GuardOpts{
		Rate: 1000, Burst: 100,
		Breaker: resilience.BreakerOpts{FailThreshold: 2, Timeout: time.Minute},
		OnHostState: func(host string, from, to resilience.State) {
			transitions = append(transitions, host+":"+to.String())
		},
	}})

	for range 3 {
		_, err := f.FetchDocument(context.Background(), srv.URL)
		assert.ErrorIs(t, err, domain.ErrFetchFailed)
	}
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, resilience.StateOpen, f.HostState("127.0.0.1"))
	assert.Equal(t, []string{"127.0.0.1:open"}, transitions)
}
