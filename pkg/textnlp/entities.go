package textnlp

import (
	"regexp"
	"strings"
)

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`

var (
	personRe = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)
	orgRe    = regexp.MustCompile(`\b(?:[A-Z][a-z]+ ){1,3}(?:Corporation|Inc|Ltd|LLC|Company)\b`)
	dateRe   = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4}\b`)
	yearRe   = regexp.MustCompile(`\b(?:1[5-9]|20)\d{2}\b`)
)

// notNameWords never start or end a person name.
var notNameWords = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true, "In": true,
	"On": true, "At": true, "For": true, "And": true, "But": true, "According": true,
	"Corporation": true, "Company": true, "Inc": true, "Ltd": true,
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true, "Friday": true,
	"Saturday": true, "Sunday": true,
}

func init() {
	for _, m := range strings.Split(monthNames, "|") {
		notNameWords[m] = true
	}
}

// People returns up to max person-like names ("Capitalized Capitalized"),
// unique and in first-occurrence order.
func People(text string, max int) []string {
	return firstUnique(personRe.FindAllString(text, -1), max, func(s string) bool {
		first, last, _ := strings.Cut(s, " ")
		return !notNameWords[first] && !notNameWords[last]
	})
}

// Organizations returns up to max organization names ending in a corporate suffix.
func Organizations(text string, max int) []string {
	return firstUnique(orgRe.FindAllString(text, -1), max, nil)
}

// Dates returns up to max numeric or "Month d, yyyy" dates. Month names may be abbreviated.
func Dates(text string, max int) []string {
	return firstUnique(dateRe.FindAllString(text, -1), max, nil)
}

// Years returns the unique four-digit years mentioned in text.
func Years(text string) []string {
	return firstUnique(yearRe.FindAllString(text, -1), 0, nil)
}

// IsYear reports whether s is a four-digit year token.
func IsYear(s string) bool {
	return len(s) == 4 && yearRe.MatchString(s)
}

// firstUnique de-duplicates matches in order, applying keep if non-nil.
// A max of 0 means no limit.
func firstUnique(matches []string, max int, keep func(string) bool) []string {
	out := []string{}
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m] || (keep != nil && !keep(m)) {
			continue
		}
		seen[m] = true
		out = append(out, m)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
