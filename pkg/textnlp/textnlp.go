// Package textnlp provides the lightweight lexical helpers shared by the
// research pipeline: sentence splitting, word tokenization, stopwords, and
// regex-based entity extraction. No external dependencies.
package textnlp

import (
	"strings"
	"unicode"
)

// stopwords are excluded from term statistics and query matching.
var stopwords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true, "an": true,
	"and": true, "any": true, "are": true, "as": true, "at": true, "be": true,
	"been": true, "before": true, "but": true, "by": true, "can": true, "could": true,
	"did": true, "do": true, "does": true, "for": true, "from": true, "had": true,
	"has": true, "have": true, "he": true, "her": true, "his": true, "how": true,
	"i": true, "if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "more": true, "most": true, "not": true, "of": true, "on": true,
	"or": true, "other": true, "our": true, "over": true, "she": true, "some": true,
	"such": true, "than": true, "that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true, "those": true,
	"to": true, "was": true, "we": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "who": true, "will": true, "with": true,
	"would": true, "you": true, "your": true,
}

// IsStopword reports whether the lower-cased word is a stopword.
func IsStopword(w string) bool { return stopwords[w] }

// Words returns the lower-cased word tokens of text. A token is a maximal run
// of letters, digits, or apostrophes; surrounding apostrophes are dropped.
func Words(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// ContentWords returns Words(text) minus stopwords.
func ContentWords(text string) []string {
	words := Words(text)
	out := words[:0]
	for _, w := range words {
		if !stopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

// SplitSentences splits text into sentences on '.', '!', '?' and newlines.
// A terminator only ends a sentence when followed by whitespace or end of
// text, so decimals like "3.5" survive. Trailing terminators are trimmed.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	runes := []rune(text)

	flush := func() {
		s := strings.TrimSpace(current.String())
		s = strings.TrimRight(s, ".!?")
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i == len(runes)-1 || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return sentences
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int { return len([]rune(s)) }
