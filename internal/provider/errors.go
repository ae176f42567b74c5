// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all providers. The orchestrator converts these
// into fallback decisions or degradation records; they never reach the
// caller raw.
var (
	// ErrNotFound indicates the source has no record. Expected; triggers
	// fallback to the next provider.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the source's rate limit was exceeded.
	// Temporary; triggers fallback with a backoff note.
	ErrRateLimited = errors.New("rate limited")

	// ErrBlocked indicates an interactive gate (e.g. a CAPTCHA wall).
	// Surfaced to the caller, never retried automatically.
	ErrBlocked = errors.New("blocked by interactive gate")

	// ErrTransient indicates a network failure or timeout. Retried once
	// per provider before fallback.
	ErrTransient = errors.New("transient error")

	// ErrInvalidResponse indicates a payload the provider could not parse.
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError carries HTTP-level detail for a provider failure.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsRateLimited reports whether err indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}

// IsBlocked reports whether err indicates an interactive gate.
func IsBlocked(err error) bool {
	return errors.Is(err, ErrBlocked)
}

// IsTransient reports whether err indicates a retryable network failure.
func IsTransient(err error) bool {
	if errors.Is(err, ErrTransient) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}
