// Package sources holds the outbound adapters behind research.SourceFetcher:
// web search, knowledge-base search, page fetching, caching, and news.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (compatible; wessley-research/1.0)"

// Searcher returns search candidates for a normalized query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int, timeRange string) ([]domain.Candidate, error)
}

// DocumentFetcher turns a URL into a Document.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (domain.Document, error)
}

// NewsFetcher returns recent news items for a query.
type NewsFetcher interface {
	FetchNews(ctx context.Context, query, timeRange string, maxResults int) ([]domain.NewsItem, error)
}

// NewHTTPClient returns an http.Client with an otelhttp transport.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// statusError is a non-2xx response.
type statusError struct {
	Code int
	URL  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http %d from %s", e.Code, e.URL)
}

// retryable reports whether a failed request is worth repeating. Only 429
// and 5xx responses are retried; transport errors are retried too.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if !errors.As(err, &se) {
		return true
	}
	return se.Code == http.StatusTooManyRequests || se.Code >= 500
}

func httpGet(ctx context.Context, client *http.Client, url, userAgent string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &statusError{Code: resp.StatusCode, URL: url}
	}
	return resp.Body, nil
}
