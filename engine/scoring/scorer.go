// Package scoring turns a fetched Document into a query-specific Extraction:
// relevance, key points, terms, entities, reliability, summary, categories.
//
// All heuristics are lexical and deterministic. A Scorer holds no mutable
// state and is safe for concurrent use.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/textnlp"
)

// Options tunes the Scorer.
type Options struct {
	SummaryBudget int           // max summary runes before the ellipsis
	MaxKeyPoints  int           // key points kept per document
	MaxTerms      int           // relevant terms kept per document
	MaxEntities   int           // mentions kept per entity kind
	RecencyWindow time.Duration // publication age still counted as recent
	Now           func() time.Time
}

// DefaultOptions returns the default scoring options.
func DefaultOptions() Options {
	return Options{
		SummaryBudget: 200,
		MaxKeyPoints:  3,
		MaxTerms:      10,
		MaxEntities:   5,
		RecencyWindow: 365 * 24 * time.Hour,
		Now:           time.Now,
	}
}

// Scorer is the lexical content scorer.
type Scorer struct {
	opts Options
}

// New creates a Scorer. Zero-valued options fall back to DefaultOptions.
func New(opts Options) *Scorer {
	def := DefaultOptions()
	if opts.SummaryBudget <= 0 {
		opts.SummaryBudget = def.SummaryBudget
	}
	if opts.MaxKeyPoints <= 0 {
		opts.MaxKeyPoints = def.MaxKeyPoints
	}
	if opts.MaxTerms <= 0 {
		opts.MaxTerms = def.MaxTerms
	}
	if opts.MaxEntities <= 0 {
		opts.MaxEntities = def.MaxEntities
	}
	if opts.RecencyWindow <= 0 {
		opts.RecencyWindow = def.RecencyWindow
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Scorer{opts: opts}
}

// Score analyzes doc against q. It fails only for a Document without a
// usable URL; empty text degrades every signal toward its floor.
func (s *Scorer) Score(doc domain.Document, q domain.Query) (domain.Extraction, error) {
	if err := domain.ValidateDocument(doc); err != nil {
		return domain.Extraction{}, fmt.Errorf("scoring: %w", err)
	}
	doc = domain.NormalizeDocument(doc)

	terms := queryTerms(q)
	sentences := textnlp.SplitSentences(doc.Text)
	textWords := textnlp.Words(doc.Text)
	allWords := append(textnlp.Words(doc.Title), textWords...)

	title := doc.Title
	if title == "" {
		title = domain.Host(doc.URL)
	}

	return domain.Extraction{
		URL:            doc.URL,
		Title:          title,
		Relevance:      relevance(allWords, terms),
		KeyPoints:      keyPoints(sentences, terms, s.opts.MaxKeyPoints),
		RelevantTerms:  relevantTerms(textWords, terms, s.opts.MaxTerms),
		EntityMentions: entityMentions(doc.Text, s.opts.MaxEntities),
		Reliability:    s.reliability(doc),
		Summary:        summarize(title, sentences, s.opts.SummaryBudget),
		Categories:     categorize(doc.Title + " " + doc.Text),
	}, nil
}

// queryTerms returns the unique non-stopword tokens of the normalized query,
// or every token when the query is all stopwords.
func queryTerms(q domain.Query) []string {
	words := textnlp.Words(q.Normalized)
	var content []string
	for _, w := range words {
		if !textnlp.IsStopword(w) {
			content = append(content, w)
		}
	}
	if len(content) == 0 {
		content = words
	}
	seen := make(map[string]bool, len(content))
	out := content[:0]
	for _, w := range content {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

func termSet(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		set[t] = true
	}
	return set
}

// relevance maps query-term density d (hits per term) to d/(d+1): zero with
// no overlap, 0.5 at one hit per term, approaching but never reaching 1.
func relevance(words, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	set := termSet(terms)
	hits := 0
	for _, w := range words {
		if set[w] {
			hits++
		}
	}
	d := float64(hits) / float64(len(terms))
	return round(d/(d+1), 4)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
