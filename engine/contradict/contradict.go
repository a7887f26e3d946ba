// Package contradict finds coarse disagreements between the key points of
// different sources. Detection is heuristic and reports at most one
// contradiction per topic.
package contradict

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/textnlp"
)

// Topic names, in detection order.
const (
	TopicDate      = "date"
	TopicNumber    = "number"
	TopicStatistic = "statistic"
	TopicPerson    = "person involved"
	TopicCause     = "cause"
)

var (
	percentRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s?(?:%|percent\b)`)
	numberRe  = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)*)(?:\s+(thousand|million|billion|trillion))?\b`)
	causalRe  = regexp.MustCompile(`(?i)\b(?:because(?: of)?|due to|caused by|led to|result of)\s+(.+)$`)
)

// topic extracts the values a sentence claims for one subject.
type topic struct {
	name string
	// values returns normalized claim values; empty means the sentence makes no claim.
	values func(sentence string) []string
	// conflict reports whether two non-empty value sets disagree.
	conflict func(a, b []string) bool
}

// Detector compares key points across extractions.
type Detector struct {
	topics []topic
	// MinShared is the number of context words two claims must share to be
	// considered about the same subject.
	MinShared int
	// CauseThreshold is the word-overlap ratio below which causal claims disagree.
	CauseThreshold float64
}

// New returns a Detector with the default topics and thresholds.
func New() *Detector {
	d := &Detector{MinShared: 1, CauseThreshold: 0.3}
	d.topics = []topic{
		{name: TopicDate, values: dateValues, conflict: datesConflict},
		{name: TopicNumber, values: numberValues, conflict: disjoint},
		{name: TopicStatistic, values: percentValues, conflict: disjoint},
		{name: TopicPerson, values: personValues, conflict: disjoint},
		{name: TopicCause, values: causeValues, conflict: func(a, b []string) bool {
			return jaccard(a, b) < d.CauseThreshold
		}},
	}
	return d
}

var defaultDetector = New()

// Detect runs the default Detector.
func Detect(extractions []domain.Extraction) []domain.Contradiction {
	return defaultDetector.Detect(extractions)
}

type claim struct {
	text    string
	values  []string
	context map[string]bool
}

// Detect returns at most one Contradiction per topic, taken from the first
// disagreeing pair of extractions in input order. Fewer than two
// extractions yield an empty slice.
func (d *Detector) Detect(extractions []domain.Extraction) []domain.Contradiction {
	out := []domain.Contradiction{}
	if len(extractions) < 2 {
		return out
	}

	for _, tp := range d.topics {
		claims := make([][]claim, len(extractions))
		for i, e := range extractions {
			claims[i] = claimsFor(tp, e.KeyPoints)
		}
		if c, ok := d.firstConflict(tp, extractions, claims); ok {
			out = append(out, c)
		}
	}
	return out
}

func (d *Detector) firstConflict(tp topic, extractions []domain.Extraction, claims [][]claim) (domain.Contradiction, bool) {
	for i := 0; i < len(extractions); i++ {
		for j := i + 1; j < len(extractions); j++ {
			if extractions[i].URL == extractions[j].URL {
				continue
			}
			for _, a := range claims[i] {
				for _, b := range claims[j] {
					if shared(a.context, b.context) < d.MinShared || !tp.conflict(a.values, b.values) {
						continue
					}
					return domain.Contradiction{
						Topic:       tp.name,
						Description: fmt.Sprintf("Sources disagree about %s", tp.name),
						Claims: [2]domain.Claim{
							{URL: extractions[i].URL, Text: a.text},
							{URL: extractions[j].URL, Text: b.text},
						},
					}, true
				}
			}
		}
	}
	return domain.Contradiction{}, false
}

func claimsFor(tp topic, keyPoints []string) []claim {
	var out []claim
	for _, kp := range keyPoints {
		vals := tp.values(kp)
		if len(vals) == 0 {
			continue
		}
		out = append(out, claim{text: kp, values: vals, context: contextWords(kp, vals)})
	}
	return out
}

// contextWords are the sentence's content words that are not part of any
// claimed value and are not numbers.
func contextWords(sentence string, values []string) map[string]bool {
	exclude := make(map[string]bool)
	for _, v := range values {
		for _, w := range textnlp.Words(v) {
			exclude[w] = true
		}
	}
	ctx := make(map[string]bool)
	for _, w := range textnlp.ContentWords(sentence) {
		if len(w) < 3 || exclude[w] || isNumeric(w) {
			continue
		}
		ctx[w] = true
	}
	return ctx
}

// dateValues prefers full dates and falls back to bare years.
func dateValues(s string) []string {
	if full := textnlp.Dates(s, 0); len(full) > 0 {
		return normalize(full)
	}
	return normalize(textnlp.Years(s))
}

// datesConflict treats a year as agreeing with any full date in that year.
func datesConflict(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.Contains(x, y) || strings.Contains(y, x) {
				return false
			}
		}
	}
	return true
}

func percentValues(s string) []string {
	var vals []string
	for _, m := range percentRe.FindAllStringSubmatch(s, -1) {
		vals = append(vals, m[1]+"%")
	}
	return normalize(vals)
}

// numberValues returns plain quantities, ignoring years, dates, and percentages.
func numberValues(s string) []string {
	s = percentRe.ReplaceAllString(s, " ")
	for _, d := range textnlp.Dates(s, 0) {
		s = strings.ReplaceAll(s, d, " ")
	}
	var vals []string
	for _, m := range numberRe.FindAllStringSubmatch(s, -1) {
		if textnlp.IsYear(m[1]) && m[2] == "" {
			continue
		}
		v := strings.ReplaceAll(m[1], ",", "")
		if m[2] != "" {
			v += " " + strings.ToLower(m[2])
		}
		vals = append(vals, v)
	}
	return normalize(vals)
}

func personValues(s string) []string {
	return normalize(textnlp.People(s, 0))
}

func causeValues(s string) []string {
	m := causalRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return normalize(textnlp.ContentWords(m[1]))
}

func normalize(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := vals[:0]
	for _, v := range vals {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func disjoint(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if set[v] {
			return false
		}
	}
	return true
}

func jaccard(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, v := range b {
		if seen[v] {
			continue
		}
		seen[v] = true
		if set[v] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

func shared(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

func isNumeric(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return w != ""
}
