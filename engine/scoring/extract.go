package scoring

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/textnlp"
)

// keyPoints returns up to max sentences mentioning a query term, in
// document order, or three generic sentences about the query topic.
func keyPoints(sentences, terms []string, max int) []string {
	set := termSet(terms)
	var out []string
	for _, s := range sentences {
		for _, w := range textnlp.Words(s) {
			if set[w] {
				out = append(out, s)
				break
			}
		}
		if len(out) == max {
			return out
		}
	}
	if len(out) > 0 {
		return out
	}

	topic := "this topic"
	if len(terms) > 0 {
		topic = strings.Join(terms[:min(2, len(terms))], " ")
	}
	return []string{
		fmt.Sprintf("Information about %s is discussed on this page.", topic),
		fmt.Sprintf("The page contains relevant details related to %s.", topic),
		fmt.Sprintf("Several aspects of %s are covered in this content.", topic),
	}
}

// relevantTerms returns the most frequent words longer than three runes that
// are neither stopwords nor query terms. Ties keep first-occurrence order.
func relevantTerms(words, terms []string, max int) []string {
	set := termSet(terms)
	type stat struct {
		word  string
		count int
		first int
	}
	stats := make(map[string]*stat)
	var order []*stat
	for i, w := range words {
		if utf8.RuneCountInString(w) <= 3 || textnlp.IsStopword(w) || set[w] {
			continue
		}
		st, ok := stats[w]
		if !ok {
			st = &stat{word: w, first: i}
			stats[w] = st
			order = append(order, st)
		}
		st.count++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})

	out := []string{}
	for _, st := range order {
		if len(out) == max {
			break
		}
		out = append(out, st.word)
	}
	return out
}

func entityMentions(text string, max int) map[string][]string {
	return map[string][]string{
		domain.EntityPeople:        textnlp.People(text, max),
		domain.EntityOrganizations: textnlp.Organizations(text, max),
		domain.EntityDates:         textnlp.Dates(text, max),
	}
}

const ellipsis = "..."

// summarize starts from the title and appends whole sentences while the
// result fits budget. When the first unit alone is too long it is cut to
// budget runes and an ellipsis is appended.
func summarize(title string, sentences []string, budget int) string {
	var parts []string
	length := 0
	add := func(p string) bool {
		n := utf8.RuneCountInString(p)
		if len(parts) > 0 {
			n++ // joining space
		}
		if length+n > budget {
			return false
		}
		parts = append(parts, p)
		length += n
		return true
	}

	title = strings.TrimRight(strings.TrimSpace(title), ".")
	if title != "" && !add(title+".") {
		return textnlp.Truncate(title, budget) + ellipsis
	}
	for _, s := range sentences {
		if !add(s + ".") {
			break
		}
	}
	if len(parts) == 0 && len(sentences) > 0 {
		return textnlp.Truncate(sentences[0], budget) + ellipsis
	}
	return strings.Join(parts, " ")
}
