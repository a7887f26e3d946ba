package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/engine/semantic"
	"github.com/WessleyAI/wessley-research/pkg/fn"
	"github.com/WessleyAI/wessley-research/pkg/textnlp"
)

// QueryEmbedder turns a query into a vector.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher finds the nearest indexed chunks to a vector.
type VectorSearcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]semantic.SearchResult, error)
}

// KnowledgeSearcher searches previously indexed pages in the vector store.
// Several chunks of the same page collapse into one candidate.
type KnowledgeSearcher struct {
	embedder QueryEmbedder
	store    VectorSearcher
}

// NewKnowledgeSearcher creates a KnowledgeSearcher.
func NewKnowledgeSearcher(embedder QueryEmbedder, store VectorSearcher) *KnowledgeSearcher {
	return &KnowledgeSearcher{embedder: embedder, store: store}
}

// Search ignores timeRange unless a chunk carries a publication date, in
// which case older chunks are skipped.
func (k *KnowledgeSearcher) Search(ctx context.Context, query string, maxResults int, timeRange string) ([]domain.Candidate, error) {
	vec, err := k.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrSearchUnavailable, err)
	}
	// Over-fetch since chunks of one page collapse into one candidate.
	hits, err := k.store.Search(ctx, vec, maxResults*3)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", domain.ErrSearchUnavailable, err)
	}

	var cutoff time.Time
	if d := domain.RangeDuration(timeRange); d > 0 {
		cutoff = time.Now().Add(-d)
	}

	out := make([]domain.Candidate, 0, len(hits))
	for _, h := range hits {
		if h.URL == "" {
			continue
		}
		var published *time.Time
		if h.Published != "" {
			if t, err := time.Parse(time.RFC3339, h.Published); err == nil {
				if !cutoff.IsZero() && t.Before(cutoff) {
					continue
				}
				published = &t
			}
		}
		out = append(out, domain.Candidate{
			URL:         h.URL,
			Title:       h.Title,
			Snippet:     textnlp.Truncate(h.Content, 200),
			PublishedAt: published,
			Origin:      domain.OriginKnowledge,
		})
	}
	out = fn.UniqueBy(out, func(c domain.Candidate) string { return c.URL })
	return fn.Take(out, maxResults), nil
}
