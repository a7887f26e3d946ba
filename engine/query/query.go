// Package query interprets a raw research query into flags that steer
// retrieval: news-related, factual, and exploratory.
package query

import (
	"regexp"
	"strings"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

var (
	newsKeywords        = []string{"latest", "recent", "news", "update"}
	factualKeywords     = []string{"price", "data", "statistic", "fact"}
	exploratoryKeywords = []string{"about", "overview"}
)

const exploratoryTokenCount = 5

// fillerRe matches connective words dropped from factual queries.
var fillerRe = regexp.MustCompile(`\b(in|at|of)\b`)

// Analyze classifies raw. It is total: any string, including "", yields a Query.
func Analyze(raw string) domain.Query {
	lower := strings.ToLower(raw)
	q := domain.Query{
		Raw:           raw,
		Normalized:    raw,
		IsNewsRelated: containsAny(lower, newsKeywords),
		IsFactual:     containsAny(lower, factualKeywords),
		IsExploratory: len(strings.Fields(raw)) > exploratoryTokenCount || containsAny(lower, exploratoryKeywords),
	}
	if q.IsFactual {
		q.Normalized = strings.Join(strings.Fields(fillerRe.ReplaceAllString(lower, "")), " ")
	}
	return q
}

// Refine appends refinement terms to a raw query, space separated.
func Refine(raw string, terms []string) string {
	if len(terms) == 0 {
		return raw
	}
	return raw + " " + strings.Join(terms, " ")
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
