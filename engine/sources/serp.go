package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/fn"
	"github.com/WessleyAI/wessley-research/pkg/resilience"
)

// ErrMissingAPIKey is returned by SerpSearcher when it has no key.
var ErrMissingAPIKey = errors.New("serpapi: api key not configured")

// SerpConfig configures a SerpSearcher.
type SerpConfig struct {
	URL       string
	Key       string
	Rate      float64 // requests per second
	Burst     int
	UserAgent string
	Retry     fn.RetryOpts
	Breaker   resilience.BreakerOpts
}

// SerpSearcher queries SerpAPI's Google engine.
type SerpSearcher struct {
	cfg     SerpConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *slog.Logger
}

// NewSerpSearcher creates a SerpSearcher. A nil client gets an otelhttp client.
func NewSerpSearcher(cfg SerpConfig, client *http.Client, logger *slog.Logger) *SerpSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = NewHTTPClient(30 * time.Second)
	}
	if cfg.URL == "" {
		cfg.URL = "https://serpapi.com/search.json"
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = fn.DefaultRetry
	}
	cfg.Retry.Retryable = retryable
	if cfg.Breaker.FailThreshold == 0 {
		cfg.Breaker = resilience.DefaultBreakerOpts
	}
	return &SerpSearcher{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		breaker: resilience.NewBreaker(cfg.Breaker),
		logger:  logger,
	}
}

// tbs maps a time range to SerpAPI's qdr filter. Unknown ranges are unfiltered.
func tbs(timeRange string) string {
	switch timeRange {
	case domain.RangeDay:
		return "qdr:d"
	case domain.RangeWeek:
		return "qdr:w"
	case domain.RangeMonth:
		return "qdr:m"
	case domain.RangeYear:
		return "qdr:y"
	}
	return ""
}

func (s *SerpSearcher) searchURL(query string, maxResults int, timeRange string) string {
	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", query)
	q.Set("api_key", s.cfg.Key)
	q.Set("num", strconv.Itoa(maxResults))
	q.Set("hl", "en")
	if t := tbs(timeRange); t != "" {
		q.Set("tbs", t)
	}
	sep := "?"
	if strings.Contains(s.cfg.URL, "?") {
		sep = "&"
	}
	return s.cfg.URL + sep + q.Encode()
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"organic_results"`
}

// Search returns up to maxResults organic results. Failures wrap
// domain.ErrSearchUnavailable.
func (s *SerpSearcher) Search(ctx context.Context, query string, maxResults int, timeRange string) ([]domain.Candidate, error) {
	if s.cfg.Key == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, ErrMissingAPIKey)
	}
	u := s.searchURL(query, maxResults, timeRange)

	res := resilience.CallResult(s.breaker, ctx, func(ctx context.Context) fn.Result[serpResponse] {
		return fn.Retry(ctx, s.cfg.Retry, func(ctx context.Context) fn.Result[serpResponse] {
			if err := s.limiter.Wait(ctx); err != nil {
				return fn.Err[serpResponse](err)
			}
			return s.doSearch(ctx, u)
		})
	})
	resp, err := res.Unwrap()
	if err != nil {
		s.logger.Warn("serpapi search failed", "query", query, "err", err)
		return nil, fmt.Errorf("%w: serpapi: %w", domain.ErrSearchUnavailable, err)
	}

	out := make([]domain.Candidate, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		if r.Link == "" {
			continue
		}
		out = append(out, domain.Candidate{
			URL:         r.Link,
			Title:       r.Title,
			Snippet:     r.Snippet,
			PublishedAt: parseSerpDate(r.Date),
			Origin:      domain.OriginWeb,
		})
	}
	return fn.Take(out, maxResults), nil
}

func (s *SerpSearcher) doSearch(ctx context.Context, u string) fn.Result[serpResponse] {
	body, err := httpGet(ctx, s.client, u, s.cfg.UserAgent)
	if err != nil {
		return fn.Err[serpResponse](err)
	}
	defer body.Close()

	var resp serpResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return fn.Err[serpResponse](fmt.Errorf("decode serpapi: %w", err))
	}
	if resp.Error != "" && len(resp.OrganicResults) == 0 {
		// "Google hasn't returned any results" is an empty page, not an outage.
		if strings.Contains(strings.ToLower(resp.Error), "hasn't returned any results") {
			return fn.Ok(serpResponse{})
		}
		return fn.Err[serpResponse](fmt.Errorf("serpapi: %s", resp.Error))
	}
	return fn.Ok(resp)
}

var serpDateLayouts = []string{"Jan 2, 2006", "2006-01-02", time.RFC3339}

// parseSerpDate handles absolute dates only; relative ones ("3 days ago")
// yield nil.
func parseSerpDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range serpDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
