package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

// domainBands assigns a base score by the first host substring that matches.
var domainBands = []struct {
	marker string
	score  float64
}{
	{".gov", 0.90},
	{".edu", 0.90},
	{"wikipedia", 0.85},
	{"news", 0.80},
	{".org", 0.72},
	{"blog", 0.55},
	{"forum", 0.50},
	{"reddit", 0.50},
}

const (
	defaultDomainScore = 0.65
	factorWeight       = 0.05
	highThreshold      = 0.8
	mediumThreshold    = 0.6
)

var citationMarkers = []string{
	"according to", "et al", "[1]", "doi.org", "source:", "sources:", "cited", "references",
}

var publishedKeys = []string{
	"article:published_time", "published_time", "publication_date", "pubdate", "date", "dc.date", "article:modified_time",
}

var authorKeys = []string{"author", "article:author", "byline", "dc.creator"}

var dateLayouts = []string{
	time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", time.RFC1123, time.RFC1123Z, "January 2, 2006", "Jan 2, 2006",
}

func domainScore(host string) float64 {
	for _, b := range domainBands {
		if strings.Contains(host, b.marker) {
			return b.score
		}
	}
	return defaultDomainScore
}

// reliability scores a source from its domain band plus citation, recency,
// and authorship adjustments. The first factor names the resulting band.
func (s *Scorer) reliability(doc domain.Document) domain.Reliability {
	score := domainScore(domain.Host(doc.URL))
	var factors []string

	lower := strings.ToLower(doc.Text)
	cited := false
	for _, m := range citationMarkers {
		if strings.Contains(lower, m) {
			cited = true
			break
		}
	}
	if cited {
		score += factorWeight
		factors = append(factors, "Contains citations")
	} else {
		score -= factorWeight
		factors = append(factors, "No citations found")
	}

	if published, ok := publishedAt(doc.Metadata); ok {
		if s.opts.Now().Sub(published) <= s.opts.RecencyWindow {
			score += factorWeight
			factors = append(factors, "Recent publication date")
		} else {
			score -= factorWeight
			factors = append(factors, "Older content")
		}
	}

	if metaValue(doc.Metadata, authorKeys) != "" {
		score += factorWeight
		factors = append(factors, "Author credentials provided")
	} else {
		score -= factorWeight
		factors = append(factors, "No author information")
	}

	score = round(math.Max(0, math.Min(1, score)), 2)
	rep := reputation(score)
	return domain.Reliability{
		Score:            score,
		Factors:          append([]string{bandLabel(rep)}, factors...),
		DomainReputation: rep,
	}
}

func reputation(score float64) domain.Reputation {
	switch {
	case score >= highThreshold:
		return domain.ReputationHigh
	case score >= mediumThreshold:
		return domain.ReputationMedium
	default:
		return domain.ReputationLow
	}
}

func bandLabel(r domain.Reputation) string {
	switch r {
	case domain.ReputationHigh:
		return "Reputable domain"
	case domain.ReputationMedium:
		return "Moderately reliable source"
	default:
		return "Less established domain"
	}
}

func metaValue(meta map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(meta[k]); v != "" {
			return v
		}
	}
	return ""
}

func publishedAt(meta map[string]string) (time.Time, bool) {
	v := metaValue(meta, publishedKeys)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
