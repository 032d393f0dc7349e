package adapters

import (
	"errors"
	"fmt"
)

// FetchCategory is the normalized failure taxonomy for registry fetches.
// NotFound is a valid outcome (the identifier has no record) and must never
// count as a circuit-breaker failure; the other categories do.
type FetchCategory string

const (
	// FetchNotFound indicates the requested record doesn't exist upstream.
	FetchNotFound FetchCategory = "not_found"

	// FetchTimeout indicates the upstream took too long to respond.
	FetchTimeout FetchCategory = "timeout"

	// FetchUnavailable indicates the upstream is down or erroring.
	FetchUnavailable FetchCategory = "unavailable"

	// FetchMalformed indicates the upstream returned data we cannot parse.
	FetchMalformed FetchCategory = "malformed"
)

// FetchError wraps registry fetch failures with normalized categorization.
type FetchError struct {
	Category   FetchCategory
	Upstream   string
	Message    string
	Underlying error
}

func (e *FetchError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("registry %s [%s]: %s: %v", e.Upstream, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("registry %s [%s]: %s", e.Upstream, e.Category, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Underlying
}

func NewFetchError(category FetchCategory, upstream, message string, underlying error) *FetchError {
	return &FetchError{
		Category:   category,
		Upstream:   upstream,
		Message:    message,
		Underlying: underlying,
	}
}

// IsNotFound reports whether err is a clean no-record outcome.
func IsNotFound(err error) bool {
	return hasCategory(err, FetchNotFound)
}

// IsUpstreamFault reports whether err should count as a circuit-breaker
// failure.
func IsUpstreamFault(err error) bool {
	return hasCategory(err, FetchTimeout) || hasCategory(err, FetchUnavailable)
}

func hasCategory(err error, category FetchCategory) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Category == category
}
