// Package domain defines the value types, errors, and validation shared by the
// research pipeline. It acts as the validation gate at pipeline entry points.
package domain

import "time"

// Query is the interpreted form of a raw research query.
type Query struct {
	Raw           string `json:"raw"`
	Normalized    string `json:"normalized"`
	IsNewsRelated bool   `json:"is_news_related"`
	IsFactual     bool   `json:"is_factual"`
	IsExploratory bool   `json:"is_exploratory"`
}

// Candidate is a search hit that may be fetched as a Document.
type Candidate struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Snippet     string     `json:"snippet"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Origin      string     `json:"origin,omitempty"`
}

// Candidate origins.
const (
	OriginWeb       = "web"
	OriginKnowledge = "knowledge"
)

// Table is the first tabular block of a page, trimmed to its leading rows.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// List is an ordered or unordered list found on a page.
type List struct {
	Type  string   `json:"type"` // "ordered" or "unordered"
	Items []string `json:"items"`
}

// Link is an outbound link found on a page.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Document is the normalized content of one fetched source.
type Document struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Tables   []Table           `json:"tables"`
	Lists    []List            `json:"lists"`
	Links    []Link            `json:"links"`
}

// Reputation is the coarse reliability band of a source.
type Reputation string

const (
	ReputationLow    Reputation = "Low"
	ReputationMedium Reputation = "Medium"
	ReputationHigh   Reputation = "High"
)

// Reliability is the scored trustworthiness of a source.
type Reliability struct {
	Score            float64    `json:"score"`
	Factors          []string   `json:"factors"`
	DomainReputation Reputation `json:"domain_reputation"`
}

// Entity mention keys.
const (
	EntityPeople        = "people"
	EntityOrganizations = "organizations"
	EntityDates         = "dates"
)

// Extraction is the per-document analysis produced by a content scorer.
// Set-valued fields are de-duplicated and kept in first-occurrence order.
type Extraction struct {
	URL            string              `json:"url"`
	Title          string              `json:"title"`
	Relevance      float64             `json:"relevance"`
	KeyPoints      []string            `json:"key_points"`
	RelevantTerms  []string            `json:"relevant_terms"`
	EntityMentions map[string][]string `json:"entity_mentions"`
	Reliability    Reliability         `json:"reliability"`
	Summary        string              `json:"summary"`
	Categories     []string            `json:"categories"`
}

// Claim is one side of a contradiction.
type Claim struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Contradiction records two sources disagreeing on a topic.
type Contradiction struct {
	Topic       string   `json:"topic"`
	Description string   `json:"description"`
	Claims      [2]Claim `json:"claims"`
}

// NewsItem is a recent news article related to the query.
type NewsItem struct {
	Title         string `json:"title"`
	Source        string `json:"source"`
	URL           string `json:"url"`
	PublishedDate string `json:"published_date"`
}

// SourceRef is a ranked source cited by a report.
type SourceRef struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Relevance   float64 `json:"relevance"`
	Reliability float64 `json:"reliability"`
}

// Report is the synthesized answer to a research query.
type Report struct {
	ID             string          `json:"id"`
	Query          string          `json:"query"`
	Summary        string          `json:"summary"`
	KeyFindings    []string        `json:"key_findings"`
	News           []NewsItem      `json:"news"`
	Contradictions []Contradiction `json:"contradictions"`
	Sources        []SourceRef     `json:"sources"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Time ranges accepted by searchers and news providers.
const (
	RangeDay   = "day"
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeYear  = "year"
)

// ValidTimeRanges is the set of recognised time ranges. The empty string means unbounded.
var ValidTimeRanges = map[string]bool{
	"": true, RangeDay: true, RangeWeek: true, RangeMonth: true, RangeYear: true,
}

// RangeDuration maps a time range to its look-back window. Unknown ranges return 0.
func RangeDuration(r string) time.Duration {
	switch r {
	case RangeDay:
		return 24 * time.Hour
	case RangeWeek:
		return 7 * 24 * time.Hour
	case RangeMonth:
		return 30 * 24 * time.Hour
	case RangeYear:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}
