package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/fn"
)

// MultiSearcher queries several searchers concurrently and merges their
// candidates in searcher order, de-duplicated by URL. It fails only when
// every searcher fails.
type MultiSearcher struct {
	searchers []Searcher
	logger    *slog.Logger
}

// NewMultiSearcher creates a MultiSearcher. Nil searchers are skipped.
func NewMultiSearcher(logger *slog.Logger, searchers ...Searcher) *MultiSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	live := fn.Filter(searchers, func(s Searcher) bool { return s != nil })
	return &MultiSearcher{searchers: live, logger: logger}
}

func (m *MultiSearcher) Search(ctx context.Context, query string, maxResults int, timeRange string) ([]domain.Candidate, error) {
	if len(m.searchers) == 0 {
		return nil, fmt.Errorf("%w: no searchers configured", domain.ErrSearchUnavailable)
	}

	calls := fn.Map(m.searchers, func(s Searcher) func() fn.Result[[]domain.Candidate] {
		return func() fn.Result[[]domain.Candidate] {
			return fn.FromPair(s.Search(ctx, query, maxResults, timeRange))
		}
	})
	results := fn.FanOut(calls...)

	var merged []domain.Candidate
	var errs []error
	for i, r := range results {
		cands, err := r.Unwrap()
		if err != nil {
			m.logger.Warn("searcher failed", "searcher", i, "query", query, "err", err)
			errs = append(errs, err)
			continue
		}
		merged = append(merged, cands...)
	}
	if len(errs) == len(results) {
		err := errors.Join(errs...)
		if !errors.Is(err, domain.ErrSearchUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
		}
		return nil, err
	}

	merged = fn.UniqueBy(merged, func(c domain.Candidate) string { return c.URL })
	return fn.Take(merged, maxResults), nil
}
