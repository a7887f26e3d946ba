package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	ErrInvalidQuery     = errors.New("invalid query")
	ErrQueryTooShort    = errors.New("query too short")
	ErrQueryTooLong     = errors.New("query too long")
	ErrQueryInjection   = errors.New("query contains suspicious content")
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrInvalidDocument  = errors.New("invalid document")
)

// Sentinel errors raised by collaborators and the orchestrator.
var (
	ErrNoResultsFound    = errors.New("no search results found")
	ErrSearchUnavailable = errors.New("search unavailable")
	ErrFetchFailed       = errors.New("document fetch failed")
	ErrNewsUnavailable   = errors.New("news unavailable")
	ErrTimeout           = errors.New("research timed out")
	ErrUnexpected        = errors.New("unexpected failure")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// Kind classifies a failed research call.
type Kind string

const (
	KindNoResults  Kind = "no_results"
	KindTimeout    Kind = "timeout"
	KindUnexpected Kind = "unexpected"
)

// ResearchError is the only error a research call returns to its caller.
type ResearchError struct {
	Kind    Kind
	Query   string
	Wrapped error
}

func (e *ResearchError) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("research %s: %q", e.Kind, e.Query)
	}
	return fmt.Sprintf("research %s: %q: %v", e.Kind, e.Query, e.Wrapped)
}

func (e *ResearchError) Unwrap() error { return e.Wrapped }

// NewResearchError creates a ResearchError.
func NewResearchError(kind Kind, query string, wrapped error) *ResearchError {
	return &ResearchError{Kind: kind, Query: query, Wrapped: wrapped}
}

// KindOf returns the Kind of a ResearchError in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var re *ResearchError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
