// Package research orchestrates a research query end to end: interpret the
// query, search, fetch and score candidates concurrently, optionally gather
// news, detect contradictions, and synthesize a ranked report.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/WessleyAI/wessley-research/engine/contradict"
	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/engine/query"
	"github.com/WessleyAI/wessley-research/engine/report"
	"github.com/WessleyAI/wessley-research/pkg/fn"
)

const tracerName = "engine/research"

// SourceFetcher retrieves candidates, documents, and news.
type SourceFetcher interface {
	// Search returns up to maxResults candidates. Failures wrap domain.ErrSearchUnavailable.
	Search(ctx context.Context, query string, maxResults int, timeRange string) ([]domain.Candidate, error)
	// FetchDocument returns a fully populated Document. Failures wrap domain.ErrFetchFailed.
	FetchDocument(ctx context.Context, url string) (domain.Document, error)
	// FetchNews returns up to maxResults items. Failures wrap domain.ErrNewsUnavailable.
	FetchNews(ctx context.Context, query, timeRange string, maxResults int) ([]domain.NewsItem, error)
}

// ContentScorer analyzes one Document against a Query. Implementations must
// be safe for concurrent use.
type ContentScorer interface {
	Score(doc domain.Document, q domain.Query) (domain.Extraction, error)
}

// ContradictionDetector finds disagreements across extractions.
type ContradictionDetector interface {
	Detect(extractions []domain.Extraction) []domain.Contradiction
}

// Options configures the orchestrator.
type Options struct {
	MaxResults    int           // candidates fetched per query
	Concurrency   int           // fetch+score workers; 0 means MaxResults
	NewsLimit     int           // news items per query
	NewsTimeRange string        // used when the caller gives no time range
	FetchTimeout  time.Duration // per candidate fetch+score
	Timeout       time.Duration // whole research call; 0 means caller's context only
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxResults:    5,
		NewsLimit:     3,
		NewsTimeRange: domain.RangeWeek,
		FetchTimeout:  15 * time.Second,
	}
}

// Service is the research orchestrator.
type Service struct {
	sources  SourceFetcher
	scorer   ContentScorer
	detector ContradictionDetector
	hook     Hook
	opts     Options
	logger   *slog.Logger
}

// New creates a Service. Zero-valued options fall back to DefaultOptions.
func New(sources SourceFetcher, scorer ContentScorer, opts Options, logger *slog.Logger, hooks ...Hook) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.MaxResults <= 0 {
		opts.MaxResults = def.MaxResults
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = opts.MaxResults
	}
	if opts.NewsLimit <= 0 {
		opts.NewsLimit = def.NewsLimit
	}
	if opts.NewsTimeRange == "" {
		opts.NewsTimeRange = def.NewsTimeRange
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = def.FetchTimeout
	}
	return &Service{
		sources:  sources,
		scorer:   scorer,
		detector: contradict.New(),
		hook:     append(Hooks{LogHook{Logger: logger}}, hooks...),
		opts:     opts,
		logger:   logger,
	}
}

// WithDetector replaces the contradiction detector.
func (s *Service) WithDetector(d ContradictionDetector) *Service {
	s.detector = d
	return s
}

// Research answers rawQuery. The error, when non-nil, is always a
// *domain.ResearchError of kind no_results, timeout, or unexpected.
func (s *Service) Research(ctx context.Context, rawQuery, timeRange string) (rep *domain.Report, err error) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "research.Research",
		trace.WithAttributes(attribute.String("research.query", rawQuery), attribute.String("research.time_range", timeRange)))
	defer span.End()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			rep = nil
			err = domain.NewResearchError(domain.KindUnexpected, rawQuery, fmt.Errorf("%w: %v", domain.ErrUnexpected, p))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("research.sources", len(rep.Sources)))
		}
		s.hook.Completed(ctx, rep, err, time.Since(start))
	}()

	return s.research(ctx, rawQuery, timeRange)
}

// RefineSearch re-runs research with additional terms appended to the
// query and no time range.
func (s *Service) RefineSearch(ctx context.Context, rawQuery string, additionalTerms []string) (*domain.Report, error) {
	return s.Research(ctx, query.Refine(rawQuery, additionalTerms), "")
}

func (s *Service) research(ctx context.Context, rawQuery, timeRange string) (*domain.Report, error) {
	q := query.Analyze(rawQuery)
	s.logger.Info("research start", "query", rawQuery, "news", q.IsNewsRelated, "factual", q.IsFactual, "exploratory", q.IsExploratory)

	candidates, err := s.sources.Search(ctx, q.Normalized, s.opts.MaxResults, timeRange)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.NewResearchError(domain.KindTimeout, rawQuery, fmt.Errorf("%w: search: %w", domain.ErrTimeout, err))
		}
		if !errors.Is(err, domain.ErrSearchUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
		}
		return nil, domain.NewResearchError(domain.KindUnexpected, rawQuery, err)
	}
	if len(candidates) == 0 {
		return nil, domain.NewResearchError(domain.KindNoResults, rawQuery, domain.ErrNoResultsFound)
	}
	candidates = fn.Take(candidates, s.opts.MaxResults)

	var newsCh chan []domain.NewsItem
	if q.IsNewsRelated {
		newsCh = make(chan []domain.NewsItem, 1)
		go func() { newsCh <- s.news(ctx, q, timeRange) }()
	}

	results := fn.ParMapCtx(ctx, candidates, s.opts.Concurrency, func(ctx context.Context, c domain.Candidate) fn.Result[domain.Extraction] {
		return s.analyze(ctx, c, q)
	})

	extractions := make([]domain.Extraction, 0, len(results))
	for i, r := range results {
		ext, err := r.Unwrap()
		if err != nil {
			s.logger.Warn("candidate dropped", "url", candidates[i].URL, "err", err)
			s.hook.CandidateFailed(ctx, candidates[i].URL, err)
			continue
		}
		extractions = append(extractions, ext)
	}

	news := []domain.NewsItem{}
	if newsCh != nil {
		news = <-newsCh
	}

	if ctx.Err() != nil {
		if len(extractions) == 0 {
			return nil, domain.NewResearchError(domain.KindTimeout, rawQuery, fmt.Errorf("%w: %w", domain.ErrTimeout, ctx.Err()))
		}
		s.logger.Warn("research cut short, using partial results", "query", rawQuery,
			"completed", len(extractions), "candidates", len(candidates))
	}

	contradictions := s.detector.Detect(extractions)
	rep := report.Synthesize(rawQuery, extractions, news, contradictions)
	rep.ID = uuid.NewString()
	return &rep, nil
}

// analyze fetches and scores one candidate. Panics are recovered by the pool.
func (s *Service) analyze(ctx context.Context, c domain.Candidate, q domain.Query) fn.Result[domain.Extraction] {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "research.analyze", trace.WithAttributes(attribute.String("url", c.URL)))
	defer span.End()

	doc, err := s.sources.FetchDocument(ctx, c.URL)
	if err != nil {
		if !errors.Is(err, domain.ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
		}
		span.RecordError(err)
		return fn.Err[domain.Extraction](err)
	}
	if doc.URL == "" {
		doc.URL = c.URL
	}
	if doc.Title == "" {
		doc.Title = c.Title
	}

	ext, err := s.scorer.Score(doc, q)
	if err != nil {
		span.RecordError(err)
		return fn.Err[domain.Extraction](fmt.Errorf("score %s: %w", c.URL, err))
	}
	return fn.Ok(ext)
}

// news never fails: errors and panics degrade to an empty list.
func (s *Service) news(ctx context.Context, q domain.Query, timeRange string) (items []domain.NewsItem) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("%w: panic: %v", domain.ErrNewsUnavailable, p)
			s.logger.Warn("news unavailable", "err", err)
			s.hook.NewsFailed(ctx, err)
			items = []domain.NewsItem{}
		}
	}()

	if timeRange == "" {
		timeRange = s.opts.NewsTimeRange
	}
	items, err := s.sources.FetchNews(ctx, q.Normalized, timeRange, s.opts.NewsLimit)
	if err != nil {
		s.logger.Warn("news unavailable", "err", err)
		s.hook.NewsFailed(ctx, err)
		return []domain.NewsItem{}
	}
	if items == nil {
		items = []domain.NewsItem{}
	}
	return fn.Take(items, s.opts.NewsLimit)
}
