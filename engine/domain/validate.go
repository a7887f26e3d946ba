package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Injection patterns: template and NoSQL operator fragments that never
// appear in a research question. SQL keywords are not screened; queries
// never reach a SQL backend and words like "update" or "union" are common.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$\{.*\}`),            // template injection
	regexp.MustCompile(`(?i)\{\{.*\}\}`),          // template injection
	regexp.MustCompile(`(?i)\{\s*"\$[a-z]+"\s*:`), // NoSQL operator injection
}

const (
	minQueryLength = 2
	// MaxQueryLength bounds the raw query accepted at entry points.
	MaxQueryLength = 500
)

// ValidateRequest validates a raw research query and its optional time range.
func ValidateRequest(raw, timeRange string) error {
	text := strings.TrimSpace(raw)

	n := utf8.RuneCountInString(text)
	if n < minQueryLength {
		return NewValidationError("query", text, ErrQueryTooShort)
	}
	if n > MaxQueryLength {
		return NewValidationError("query", string([]rune(text)[:32])+"…", ErrQueryTooLong)
	}

	for _, pat := range injectionPatterns {
		if pat.MatchString(text) {
			return NewValidationError("query", text, ErrQueryInjection)
		}
	}

	return ValidateTimeRange(timeRange)
}

// ValidateTimeRange accepts "", day, week, month, and year.
func ValidateTimeRange(timeRange string) error {
	if !ValidTimeRanges[timeRange] {
		return NewValidationError("time_range", timeRange, ErrInvalidTimeRange)
	}
	return nil
}

// ValidateTerms validates refinement terms: each must be non-blank.
func ValidateTerms(terms []string) error {
	for _, t := range terms {
		if strings.TrimSpace(t) == "" {
			return NewValidationError("terms", t, ErrInvalidQuery)
		}
	}
	return nil
}
