// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Source errors.
	ErrSourceUnavailable = errors.New("source unavailable")

	// Enrichment errors.
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// EnrichmentUnavailableError reports that a market rate or price could not be obtained.
type EnrichmentUnavailableError struct {
	Err    error
	Feed   string
	Symbol string
}

func (e *EnrichmentUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s lookup for %s unavailable: %v", e.Feed, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s lookup for %s unavailable", e.Feed, e.Symbol)
}

func (e *EnrichmentUnavailableError) Unwrap() error {
	return e.Err
}

// Is matches ErrEnrichmentUnavailable.
func (e *EnrichmentUnavailableError) Is(target error) bool {
	return target == ErrEnrichmentUnavailable
}

// NewEnrichmentUnavailable wraps err as an enrichment failure for one symbol.
func NewEnrichmentUnavailable(feed, symbol string, err error) error {
	return &EnrichmentUnavailableError{Feed: feed, Symbol: symbol, Err: err}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
