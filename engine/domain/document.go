package domain

import (
	"net/url"
	"strings"
)

// ValidateDocument checks that a fetched Document carries an absolute http(s) URL.
func ValidateDocument(doc Document) error {
	if strings.TrimSpace(doc.URL) == "" {
		return NewValidationError("url", "", ErrInvalidDocument)
	}
	u, err := url.Parse(doc.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return NewValidationError("url", doc.URL, ErrInvalidDocument)
	}
	return nil
}

// NormalizeDocument replaces nil maps and slices with empty ones so that
// downstream consumers never have to nil-check a fetched Document.
func NormalizeDocument(doc Document) Document {
	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}
	if doc.Tables == nil {
		doc.Tables = []Table{}
	}
	if doc.Lists == nil {
		doc.Lists = []List{}
	}
	if doc.Links == nil {
		doc.Links = []Link{}
	}
	doc.Title = strings.TrimSpace(doc.Title)
	return doc
}

// Host returns the lower-cased host of a URL, or "" if it cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
