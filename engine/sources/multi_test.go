package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/engine/semantic"
)

type stubSearcher struct {
	cands []domain.Candidate
	err   error
}

func (s stubSearcher) Search(context.Context, string, int, string) ([]domain.Candidate, error) {
	return s.cands, s.err
}

func cands(urls ...string) []domain.Candidate {
	out := make([]domain.Candidate, len(urls))
	for i, u := range urls {
		out[i] = domain.Candidate{URL: u}
	}
	return out
}

func urls(cs []domain.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.URL
	}
	return out
}

func TestMultiSearcherMergesInOrder(t *testing.T) {
	m := NewMultiSearcher(nil,
		stubSearcher{cands: cands("a", "b")},
		nil,
		stubSearcher{cands: cands("b", "c", "d")},
	)
	got, err := m.Search(context.Background(), "q", 3, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, urls(got))
}

func TestMultiSearcherPartialFailure(t *testing.T) {
	m := NewMultiSearcher(nil,
		stubSearcher{err: errors.New("down")},
		stubSearcher{cands: cands("x")},
	)
	got, err := m.Search(context.Background(), "q", 5, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, urls(got))
}

func TestMultiSearcherAllFail(t *testing.T) {
	m := NewMultiSearcher(nil,
		stubSearcher{err: errors.New("down")},
		stubSearcher{err: errors.New("also down")},
	)
	_, err := m.Search(context.Background(), "q", 5, "")
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
	assert.Contains(t, err.Error(), "also down")

	_, err = NewMultiSearcher(nil).Search(context.Background(), "q", 5, "")
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) Embed(context.Context, string) ([]float32, error) { return s.vec, s.err }

type stubVectors struct {
	hits []semantic.SearchResult
	err  error
	topK int
}

func (s *stubVectors) Search(_ context.Context, _ []float32, topK int) ([]semantic.SearchResult, error) {
	s.topK = topK
	return s.hits, s.err
}

func TestKnowledgeSearcher(t *testing.T) {
	recent := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	old := time.Now().Add(-90 * 24 * time.Hour).UTC().Format(time.RFC3339)
	vectors := &stubVectors{hits: []semantic.SearchResult{
		{URL: "https://kb.test/a", Title: "A", Content: "first chunk", Published: recent},
		{URL: "https://kb.test/a", Title: "A", Content: "second chunk"},
		{URL: "", Content: "orphan"},
		{URL: "https://kb.test/old", Title: "Old", Published: old},
		{URL: "https://kb.test/b", Title: "B", Content: "undated"},
	}}
	k := NewKnowledgeSearcher(stubEmbedder{vec: []float32{1}}, vectors)

	got, err := k.Search(context.Background(), "q", 5, domain.RangeMonth)
	require.NoError(t, err)
	assert.Equal(t, 15, vectors.topK)
	assert.Equal(t, []string{"https://kb.test/a", "https://kb.test/b"}, urls(got))
	assert.Equal(t, domain.OriginKnowledge, got[0].Origin)
	assert.Equal(t, "first chunk", got[0].Snippet)
	require.NotNil(t, got[0].PublishedAt)
	assert.Nil(t, got[1].PublishedAt)

	got, err = k.Search(context.Background(), "q", 5, "")
	require.NoError(t, err)
	assert.Contains(t, urls(got), "https://kb.test/old")
}

func TestKnowledgeSearcherErrors(t *testing.T) {
	_, err := NewKnowledgeSearcher(stubEmbedder{err: errors.New("ollama down")}, &stubVectors{}).
		Search(context.Background(), "q", 5, "")
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)

	_, err = NewKnowledgeSearcher(stubEmbedder{vec: []float32{1}}, &stubVectors{err: errors.New("qdrant down")}).
		Search(context.Background(), "q", 5, "")
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}

func TestWebDelegates(t *testing.T) {
	ctx := context.Background()
	w := &Web{}

	_, err := w.Search(ctx, "q", 1, "")
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
	_, err = w.FetchDocument(ctx, "https://a.test")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	items, err := w.FetchNews(ctx, "q", "", 3)
	require.NoError(t, err)
	assert.Empty(t, items)

	fetcher := &countingFetcher{doc: domain.Document{Title: "T"}}
	w = &Web{
		Searcher: stubSearcher{cands: cands("a")},
		Fetcher:  fetcher,
		News:     &stubNews{items: []domain.NewsItem{{Title: "n"}}},
	}
	got, err := w.Search(ctx, "q", 1, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, urls(got))
	doc, err := w.FetchDocument(ctx, "https://a.test")
	require.NoError(t, err)
	assert.Equal(t, "T", doc.Title)
	items, err = w.FetchNews(ctx, "q", "", 3)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
