// Package app wires configuration into a running research service. Every
// binary under cmd/ builds its dependencies here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/WessleyAI/wessley-research/engine/ingest"
	"github.com/WessleyAI/wessley-research/engine/research"
	"github.com/WessleyAI/wessley-research/engine/scoring"
	"github.com/WessleyAI/wessley-research/engine/semantic"
	"github.com/WessleyAI/wessley-research/engine/sources"
	"github.com/WessleyAI/wessley-research/pkg/config"
	"github.com/WessleyAI/wessley-research/pkg/logging"
	"github.com/WessleyAI/wessley-research/pkg/metrics"
	"github.com/WessleyAI/wessley-research/pkg/ollama"
	"github.com/WessleyAI/wessley-research/pkg/resilience"
	"github.com/WessleyAI/wessley-research/pkg/tracing"
)

// App holds the wired service and the resources it owns.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Registry
	Service *research.Service
	Sources *sources.Web
	Fetcher *sources.PageFetcher

	// Knowledge base; nil when no Qdrant address is configured.
	Vectors  *semantic.VectorStore
	Embedder *ollama.EmbedClient

	closers []func(context.Context) error
}

// New builds an App from cfg. Logs go to out (stdout when nil).
func New(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	logger, logCloser, err := logging.New(cfg.Logging, out)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}
	a.onClose(func(context.Context) error { return logCloser.Close() })

	shutdown, err := tracing.Init(ctx, cfg.Tracing, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.onClose(shutdown)

	if err := a.wireSources(); err != nil {
		a.Close(ctx)
		return nil, err
	}

	scorer := scoring.New(scoring.Options{SummaryBudget: cfg.SummaryBudget})
	a.Service = research.New(a.Sources, scorer, research.Options{
		MaxResults:    cfg.MaxResults,
		Concurrency:   cfg.Concurrency,
		NewsLimit:     cfg.NewsLimit,
		NewsTimeRange: cfg.NewsTimeRange,
		FetchTimeout:  cfg.FetchTimeout,
		Timeout:       cfg.Timeout,
	}, logger, research.MetricsHook{Registry: a.Metrics})
	return a, nil
}

func (a *App) onClose(f func(context.Context) error) {
	a.closers = append(a.closers, f)
}

func (a *App) wireSources() error {
	cfg := a.Config
	client := sources.NewHTTPClient(cfg.FetchTimeout)

	var searchers []sources.Searcher
	if cfg.SerpAPI.Key != "" {
		searchers = append(searchers, sources.NewSerpSearcher(sources.SerpConfig{
			URL:   cfg.SerpAPI.URL,
			Key:   cfg.SerpAPI.Key,
			Rate:  cfg.SerpAPI.Rate,
			Burst: cfg.SerpAPI.Burst,
		}, client, a.Logger))
	} else {
		a.Logger.Warn("serpapi key not set, web search disabled")
	}

	if cfg.Qdrant.Addr != "" {
		vs, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
		if err != nil {
			return err
		}
		a.Vectors = vs.WithMinScore(float32(cfg.Qdrant.MinScore))
		a.Embedder = ollama.NewEmbedClient(cfg.Ollama.URL, cfg.Ollama.Model)
		a.onClose(func(context.Context) error { return vs.Close() })
		searchers = append(searchers, sources.NewKnowledgeSearcher(a.Embedder, a.Vectors))
	}

	a.Fetcher = sources.NewPageFetcher(sources.FetcherConfig{
		UserAgent:       cfg.Fetch.UserAgent,
		DisallowedHosts: cfg.Fetch.DisallowedHosts,
		MaxBodyBytes:    cfg.Fetch.MaxBodyBytes,
		Guard: resilience.GuardOpts{
			Rate:    rate.Limit(cfg.Fetch.HostRate),
			Burst:   cfg.Fetch.HostBurst,
			Breaker: resilience.DefaultBreakerOpts,
			OnHostState: func(host string, _, to resilience.State) {
				a.Metrics.SetBreakerState(host, int(to))
				a.Logger.Warn("host breaker transition", "host", host, "state", to.String())
			},
		},
	}, client, a.Logger)

	var fetcher sources.DocumentFetcher = a.Fetcher
	if cfg.Redis.URL != "" {
		rdb, err := sources.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		a.onClose(func(context.Context) error { return rdb.Close() })
		fetcher = sources.NewCachedDocuments(a.Fetcher, rdb, cfg.Redis.TTL, a.Logger)
	}

	a.Sources = &sources.Web{
		Searcher: sources.NewMultiSearcher(a.Logger, searchers...),
		Fetcher:  fetcher,
		News:     a.news(client),
	}
	return nil
}

func (a *App) news(client *http.Client) sources.NewsFetcher {
	cfg := a.Config
	rss := sources.NewRSSNews(cfg.News.RSSURL, cfg.Fetch.UserAgent, client)
	if !cfg.UseNewsAPI() {
		return rss
	}
	api := sources.NewNewsAPI(cfg.News.NewsAPIURL, cfg.News.NewsAPIKey, client)
	if cfg.News.Source == config.NewsNewsAPI {
		return api
	}
	return sources.FallbackNews{api, rss}
}

// IngestDeps returns the indexing pipeline dependencies. ok is false when
// the knowledge base is not configured.
func (a *App) IngestDeps() (deps ingest.Deps, ok bool) {
	if a.Vectors == nil {
		return ingest.Deps{}, false
	}
	return ingest.Deps{Embedder: a.Embedder, Vectors: a.Vectors, Logger: a.Logger}, true
}

// EnsureKnowledgeBase creates the vector collection, sized by probing the
// embedding model, if it does not exist yet.
func (a *App) EnsureKnowledgeBase(ctx context.Context) error {
	if a.Vectors == nil {
		return errors.New("app: knowledge base not configured (set RESEARCH_QDRANT_ADDR)")
	}
	probe, err := a.Embedder.Embed(ctx, "dimension probe")
	if err != nil {
		return fmt.Errorf("app: probe embedding model: %w", err)
	}
	return a.Vectors.EnsureCollection(ctx, len(probe))
}

// Close releases owned resources in reverse order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
