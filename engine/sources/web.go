package sources

import (
	"context"
	"fmt"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

// Web combines a Searcher, a DocumentFetcher and a NewsFetcher into the
// orchestrator's source collaborator.
type Web struct {
	Searcher Searcher
	Fetcher  DocumentFetcher
	News     NewsFetcher
}

func (w *Web) Search(ctx context.Context, query string, maxResults int, timeRange string) ([]domain.Candidate, error) {
	if w.Searcher == nil {
		return nil, fmt.Errorf("%w: no searcher configured", domain.ErrSearchUnavailable)
	}
	return w.Searcher.Search(ctx, query, maxResults, timeRange)
}

func (w *Web) FetchDocument(ctx context.Context, url string) (domain.Document, error) {
	if w.Fetcher == nil {
		return domain.Document{}, fmt.Errorf("%w: no fetcher configured", domain.ErrFetchFailed)
	}
	return w.Fetcher.FetchDocument(ctx, url)
}

// FetchNews returns an empty list when no provider is configured.
func (w *Web) FetchNews(ctx context.Context, query, timeRange string, maxResults int) ([]domain.NewsItem, error) {
	if w.News == nil {
		return []domain.NewsItem{}, nil
	}
	return w.News.FetchNews(ctx, query, timeRange, maxResults)
}
