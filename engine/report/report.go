// Package report assembles the final research Report from scored extractions.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/textnlp"
)

const (
	// TopSources is how many ranked extractions feed findings and sources.
	TopSources = 3
	// SummarySources is how many ranked summaries form the report summary.
	SummarySources = 2
	// SummaryLimit caps the report summary before the ellipsis.
	SummaryLimit = 500
)

// Synthesize ranks extractions by relevance (stable, so ties keep input
// order) and builds the report. It never mutates its inputs.
func Synthesize(query string, extractions []domain.Extraction, news []domain.NewsItem, contradictions []domain.Contradiction) domain.Report {
	ranked := Rank(extractions)
	top := ranked[:min(TopSources, len(ranked))]

	findings := []string{}
	sources := make([]domain.SourceRef, 0, len(top))
	for _, e := range top {
		findings = append(findings, e.KeyPoints...)
		sources = append(sources, domain.SourceRef{
			Title:       e.Title,
			URL:         e.URL,
			Relevance:   e.Relevance,
			Reliability: e.Reliability.Score,
		})
	}

	if news == nil {
		news = []domain.NewsItem{}
	}
	if contradictions == nil {
		contradictions = []domain.Contradiction{}
	}

	return domain.Report{
		Query:          query,
		Summary:        summary(ranked),
		KeyFindings:    findings,
		News:           news,
		Contradictions: contradictions,
		Sources:        sources,
		GeneratedAt:    time.Now().UTC(),
	}
}

// Rank returns a copy of extractions sorted by descending relevance.
func Rank(extractions []domain.Extraction) []domain.Extraction {
	ranked := make([]domain.Extraction, len(extractions))
	copy(ranked, extractions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})
	return ranked
}

func summary(ranked []domain.Extraction) string {
	parts := make([]string, 0, SummarySources)
	for _, e := range ranked[:min(SummarySources, len(ranked))] {
		parts = append(parts, e.Summary)
	}
	s := strings.Join(parts, " ")
	if textnlp.RuneLen(s) > SummaryLimit {
		s = textnlp.Truncate(s, SummaryLimit) + "..."
	}
	return s
}
