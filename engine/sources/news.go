package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/fn"
)

// Placeholders for news fields a provider leaves blank.
const (
	NoTitle  = "No title"
	NoSource = "Unknown"
	NoDate   = "No date"
)

// NewsAPI queries newsapi.org's everything endpoint.
type NewsAPI struct {
	baseURL string
	key     string
	client  *http.Client
	now     func() time.Time
}

// NewNewsAPI creates a NewsAPI client. A nil client gets an otelhttp client.
func NewNewsAPI(baseURL, key string, client *http.Client) *NewsAPI {
	if baseURL == "" {
		baseURL = "https://newsapi.org/v2/everything"
	}
	if client == nil {
		client = NewHTTPClient(15 * time.Second)
	}
	return &NewsAPI{baseURL: baseURL, key: key, client: client, now: time.Now}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (n *NewsAPI) FetchNews(ctx context.Context, query, timeRange string, maxResults int) ([]domain.NewsItem, error) {
	if n.key == "" {
		return nil, fmt.Errorf("%w: newsapi key not configured", domain.ErrNewsUnavailable)
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("apiKey", n.key)
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(maxResults))
	if d := domain.RangeDuration(timeRange); d > 0 {
		q.Set("from", n.now().Add(-d).UTC().Format("2006-01-02"))
	}

	res := fn.Retry(ctx, fn.RetryOpts{MaxAttempts: 2, InitialWait: 500 * time.Millisecond, Retryable: retryable},
		func(ctx context.Context) fn.Result[newsAPIResponse] {
			body, err := httpGet(ctx, n.client, n.baseURL+"?"+q.Encode(), "")
			if err != nil {
				return fn.Err[newsAPIResponse](err)
			}
			defer body.Close()
			var resp newsAPIResponse
			if err := json.NewDecoder(body).Decode(&resp); err != nil {
				return fn.Err[newsAPIResponse](fmt.Errorf("decode newsapi: %w", err))
			}
			if resp.Status != "" && resp.Status != "ok" {
				return fn.Err[newsAPIResponse](fmt.Errorf("newsapi: %s", resp.Message))
			}
			return fn.Ok(resp)
		})
	resp, err := res.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNewsUnavailable, err)
	}

	items := make([]domain.NewsItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		items = append(items, domain.NewsItem{
			Title:         orDefault(a.Title, NoTitle),
			Source:        orDefault(a.Source.Name, NoSource),
			URL:           a.URL,
			PublishedDate: orDefault(a.PublishedAt, NoDate),
		})
	}
	return fn.Take(items, maxResults), nil
}

// RSSNews searches Google News RSS. It needs no API key.
type RSSNews struct {
	baseURL   string
	userAgent string
	client    *http.Client
	parser    *gofeed.Parser
}

// NewRSSNews creates an RSSNews. A nil client gets an otelhttp client.
func NewRSSNews(baseURL, userAgent string, client *http.Client) *RSSNews {
	if baseURL == "" {
		baseURL = "https://news.google.com/rss/search"
	}
	if client == nil {
		client = NewHTTPClient(15 * time.Second)
	}
	return &RSSNews{baseURL: baseURL, userAgent: userAgent, client: client, parser: gofeed.NewParser()}
}

// when maps a time range to Google News' when: operator.
func when(timeRange string) string {
	switch timeRange {
	case domain.RangeDay:
		return "1d"
	case domain.RangeWeek:
		return "7d"
	case domain.RangeMonth:
		return "30d"
	case domain.RangeYear:
		return "1y"
	}
	return ""
}

func (r *RSSNews) FetchNews(ctx context.Context, query, timeRange string, maxResults int) ([]domain.NewsItem, error) {
	term := query
	if w := when(timeRange); w != "" {
		term += " when:" + w
	}
	q := url.Values{}
	q.Set("q", term)
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")

	body, err := httpGet(ctx, r.client, r.baseURL+"?"+q.Encode(), r.userAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: rss: %w", domain.ErrNewsUnavailable, err)
	}
	defer body.Close()

	feed, err := r.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse rss: %w", domain.ErrNewsUnavailable, err)
	}

	items := make([]domain.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		title, source := splitHeadline(entry.Title)
		published := entry.Published
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC().Format(time.RFC3339)
		}
		items = append(items, domain.NewsItem{
			Title:         orDefault(title, NoTitle),
			Source:        orDefault(source, NoSource),
			URL:           entry.Link,
			PublishedDate: orDefault(published, NoDate),
		})
	}
	return fn.Take(items, maxResults), nil
}

// splitHeadline splits Google News' "Headline - Publisher" titles.
func splitHeadline(s string) (title, source string) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, " - ")
	if i <= 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+3:])
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// FallbackNews tries each provider in order and returns the first success.
type FallbackNews []NewsFetcher

func (f FallbackNews) FetchNews(ctx context.Context, query, timeRange string, maxResults int) ([]domain.NewsItem, error) {
	var errs []error
	for _, n := range f {
		items, err := n.FetchNews(ctx, query, timeRange, maxResults)
		if err == nil {
			return items, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no news providers configured", domain.ErrNewsUnavailable)
	}
	return nil, errors.Join(errs...)
}
