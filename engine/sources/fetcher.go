package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/resilience"
)

// ErrHostDisallowed is returned for URLs on the disallowed host list.
var ErrHostDisallowed = errors.New("host disallowed")

// DefaultMaxBodyBytes caps how much of a page is read.
const DefaultMaxBodyBytes = 2 << 20

// FetcherConfig configures a PageFetcher.
type FetcherConfig struct {
	UserAgent       string
	DisallowedHosts []string // matched against the host and its parent domains
	MaxBodyBytes    int64
	Guard           resilience.GuardOpts
}

// PageFetcher downloads HTML pages and extracts Documents from them.
// Requests go through a per-host rate limiter and circuit breaker.
type PageFetcher struct {
	cfg    FetcherConfig
	client *http.Client
	guard  *resilience.HostGuard
	logger *slog.Logger
}

// NewPageFetcher creates a PageFetcher. A nil client gets an otelhttp client.
func NewPageFetcher(cfg FetcherConfig, client *http.Client, logger *slog.Logger) *PageFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = NewHTTPClient(30 * time.Second)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Guard.Breaker.FailThreshold == 0 {
		cfg.Guard.Breaker = resilience.DefaultBreakerOpts
	}
	return &PageFetcher{
		cfg:    cfg,
		client: client,
		guard:  resilience.NewHostGuard(cfg.Guard),
		logger: logger,
	}
}

// HostState reports the breaker state for host.
func (f *PageFetcher) HostState(host string) resilience.State {
	return f.guard.State(host)
}

func (f *PageFetcher) allowed(host string) bool {
	for _, d := range f.cfg.DisallowedHosts {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}
	return true
}

// FetchDocument fetches url and extracts its Document. Failures wrap
// domain.ErrFetchFailed.
func (f *PageFetcher) FetchDocument(ctx context.Context, url string) (domain.Document, error) {
	if err := domain.ValidateDocument(domain.Document{URL: url}); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	host := domain.Host(url)
	if !f.allowed(host) {
		return domain.Document{}, fmt.Errorf("%w: %w: %s", domain.ErrFetchFailed, ErrHostDisallowed, host)
	}

	var doc domain.Document
	err := f.guard.Do(ctx, host, func(ctx context.Context) error {
		var err error
		doc, err = f.fetch(ctx, url)
		return err
	})
	if err != nil {
		f.logger.Debug("fetch failed", "url", url, "err", err)
		return domain.Document{}, fmt.Errorf("%w: %s: %w", domain.ErrFetchFailed, url, err)
	}
	return doc, nil
}

func (f *PageFetcher) fetch(ctx context.Context, url string) (domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Document{}, err
	}
	ua := f.cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Document{}, &statusError{Code: resp.StatusCode, URL: url}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, _ := mime.ParseMediaType(ct)
		if mt != "text/html" && mt != "application/xhtml+xml" {
			return domain.Document{}, fmt.Errorf("unsupported content type %q", mt)
		}
	}

	root, err := html.Parse(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse html: %w", err)
	}
	// Links resolve against the post-redirect URL; the Document keeps the requested one.
	doc := extractDocument(root, resp.Request.URL.String())
	doc.URL = url
	return doc, nil
}
