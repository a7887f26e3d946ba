package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

func scored(url string, relevance float64, keyPoints ...string) domain.Extraction {
	return domain.Extraction{
		URL:         url,
		Title:       "title " + url,
		Relevance:   relevance,
		KeyPoints:   keyPoints,
		Summary:     "summary " + url,
		Reliability: domain.Reliability{Score: 0.7},
	}
}

func TestSynthesize_RanksAndLimits(t *testing.T) {
	extractions := []domain.Extraction{
		scored("u1", 0.9, "A"),
		scored("u2", 0.4, "B"),
		scored("u3", 0.7, "C", "C2"),
		scored("u4", 0.2, "D"),
	}
	r := Synthesize("q", extractions, nil, nil)

	assert.Equal(t, "q", r.Query)
	assert.Equal(t, []string{"A", "C", "C2", "B"}, r.KeyFindings)
	require.Len(t, r.Sources, 3)
	assert.Equal(t, "u1", r.Sources[0].URL)
	assert.Equal(t, "u3", r.Sources[1].URL)
	assert.Equal(t, "u2", r.Sources[2].URL)
	assert.Equal(t, 0.7, r.Sources[0].Reliability)
	assert.Equal(t, "title u1", r.Sources[0].Title)
	assert.Equal(t, "summary u1 summary u3", r.Summary)
	assert.NotNil(t, r.News)
	assert.NotNil(t, r.Contradictions)
	assert.False(t, r.GeneratedAt.IsZero())

	assert.Equal(t, "u1", extractions[0].URL, "input must not be reordered")
	assert.Equal(t, "u2", extractions[1].URL, "input must not be reordered")
}

func TestSynthesize_TiesKeepInputOrder(t *testing.T) {
	r := Synthesize("q", []domain.Extraction{
		scored("first", 0.5, "1"),
		scored("second", 0.5, "2"),
		scored("third", 0.5, "3"),
		scored("fourth", 0.5, "4"),
	}, nil, nil)
	assert.Equal(t, []string{"1", "2", "3"}, r.KeyFindings)
}

func TestSynthesize_Empty(t *testing.T) {
	r := Synthesize("q", nil, nil, nil)
	assert.Empty(t, r.KeyFindings)
	assert.NotNil(t, r.KeyFindings)
	assert.Empty(t, r.Sources)
	assert.Equal(t, "", r.Summary)
}

func TestSynthesize_SummaryTruncated(t *testing.T) {
	a := scored("a", 0.9)
	a.Summary = strings.Repeat("x", 300)
	b := scored("b", 0.8)
	b.Summary = strings.Repeat("y", 300)

	r := Synthesize("q", []domain.Extraction{a, b}, nil, nil)
	assert.Len(t, r.Summary, 503)
	assert.True(t, strings.HasSuffix(r.Summary, "..."))
	assert.Equal(t, strings.Repeat("x", 300)+" "+strings.Repeat("y", 199)+"...", r.Summary)
}

func TestSynthesize_PassesThroughNewsAndContradictions(t *testing.T) {
	news := []domain.NewsItem{{Title: "n1"}, {Title: "n2"}}
	contradictions := []domain.Contradiction{{Topic: "date"}}
	r := Synthesize("q", []domain.Extraction{scored("u", 0.5)}, news, contradictions)
	assert.Equal(t, news, r.News)
	assert.Equal(t, contradictions, r.Contradictions)
}

func TestRank(t *testing.T) {
	ranked := Rank([]domain.Extraction{scored("a", 0.1), scored("b", 0.9)})
	assert.Equal(t, "b", ranked[0].URL)
}
