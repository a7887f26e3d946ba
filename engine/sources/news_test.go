package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

func TestNewsAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "gold", q.Get("q"))
		assert.Equal(t, "key", q.Get("apiKey"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "2", q.Get("pageSize"))
		assert.Equal(t, "2024-03-03", q.Get("from"))
		w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"name":"Reuters"},"title":"Gold up","url":"https://r.test/1","publishedAt":"2024-03-09T12:00:00Z"},
			{"source":{"name":""},"title":"","url":"https://r.test/2","publishedAt":""},
			{"source":{"name":"AP"},"title":"Third","url":"https://r.test/3","publishedAt":"2024-03-08T00:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	n := NewNewsAPI(srv.URL, "key", nil)
	n.now = func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) }

	items, err := n.FetchNews(context.Background(), "gold", domain.RangeWeek, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.NewsItem{
		{Title: "Gold up", Source: "Reuters", URL: "https://r.test/1", PublishedDate: "2024-03-09T12:00:00Z"},
		{Title: NoTitle, Source: NoSource, URL: "https://r.test/2", PublishedDate: NoDate},
	}, items)
}

func TestNewsAPIErrors(t *testing.T) {
	_, err := NewNewsAPI("http://unused.test", "", nil).FetchNews(context.Background(), "q", "", 3)
	assert.ErrorIs(t, err, domain.ErrNewsUnavailable)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
	}))
	defer srv.Close()
	_, err = NewNewsAPI(srv.URL, "key", nil).FetchNews(context.Background(), "q", "", 3)
	assert.ErrorIs(t, err, domain.ErrNewsUnavailable)
	assert.Contains(t, err.Error(), "bad key")
}

const googleNewsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>"gold" - Google News</title>
<item>
  <title>Gold hits record high - Reuters</title>
  <link>https://news.google.com/articles/1</link>
  <pubDate>Sat, 09 Mar 2024 12:00:00 GMT</pubDate>
</item>
<item>
  <title>Headline without publisher</title>
  <link>https://news.google.com/articles/2</link>
</item>
<item>
  <title>Third - AP</title>
  <link>https://news.google.com/articles/3</link>
</item>
</channel></rss>`

func TestRSSNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gold when:7d", r.URL.Query().Get("q"))
		assert.Equal(t, "ua", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(googleNewsFeed))
	}))
	defer srv.Close()

	items, err := NewRSSNews(srv.URL, "ua", nil).FetchNews(context.Background(), "gold", domain.RangeWeek, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.NewsItem{
		{Title: "Gold hits record high", Source: "Reuters", URL: "https://news.google.com/articles/1", PublishedDate: "2024-03-09T12:00:00Z"},
		{Title: "Headline without publisher", Source: NoSource, URL: "https://news.google.com/articles/2", PublishedDate: NoDate},
	}, items)
}

func TestRSSNewsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "broken" {
			w.Write([]byte("this is not a feed"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewRSSNews(srv.URL, "", nil)
	_, err := r.FetchNews(context.Background(), "broken", "", 3)
	assert.ErrorIs(t, err, domain.ErrNewsUnavailable)

	_, err = r.FetchNews(context.Background(), "down", "", 3)
	assert.ErrorIs(t, err, domain.ErrNewsUnavailable)
}

func TestSplitHeadline(t *testing.T) {
	title, source := splitHeadline("A - B - Publisher")
	assert.Equal(t, "A - B", title)
	assert.Equal(t, "Publisher", source)

	title, source = splitHeadline("No separator")
	assert.Equal(t, "No separator", title)
	assert.Empty(t, source)
}

type stubNews struct {
	items []domain.NewsItem
	err   error
	calls int
}

func (s *stubNews) FetchNews(context.Context, string, string, int) ([]domain.NewsItem, error) {
	s.calls++
	return s.items, s.err
}

func TestFallbackNews(t *testing.T) {
	failing := &stubNews{err: errors.Join(domain.ErrNewsUnavailable, errors.New("down"))}
	working := &stubNews{items: []domain.NewsItem{{Title: "ok"}}}
	unused := &stubNews{}

	items, err := FallbackNews{failing, working, unused}.FetchNews(context.Background(), "q", "", 3)
	require.NoError(t, err)
	assert.Equal(t, "ok", items[0].Title)
	assert.Equal(t, 0, unused.calls)

	_, err = FallbackNews{failing}.FetchNews(context.Background(), "q", "", 3)
	assert.ErrorIs(t, err, domain.ErrNewsUnavailable)

	_, err = FallbackNews{}.FetchNews(context.Background(), "q", "", 3)
	assert.ErrorIs(t, err, domain.ErrNewsUnavailable)
}
