// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/citeimpact/pkg/types"
)

// CallPolicy centralizes per-provider timeout, retry, and politeness
// settings, consumed uniformly instead of scattering backoff logic across
// call sites.
type CallPolicy struct {
	Timeout    time.Duration
	MaxRetries int
	Limiter    *rate.Limiter
}

// NewCallPolicy derives a policy from config. The politeness delay maps to
// a token-bucket limiter with burst 1, so consecutive calls to the same
// provider are spaced at least delay apart.
func NewCallPolicy(cfg types.ProviderConfig, delay time.Duration) CallPolicy {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if delay <= 0 {
		delay = cfg.PolitenessDelay
	}
	var limiter *rate.Limiter
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	return CallPolicy{Timeout: timeout, MaxRetries: retries, Limiter: limiter}
}

// call waits on the limiter, applies the timeout, and retries transient
// failures up to MaxRetries. NotFound, RateLimited, and Blocked are
// returned immediately so the orchestrator can fall back.
func (p CallPolicy) call(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := p.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("politeness limiter: %w", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		err := fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		// Timeouts count as transient.
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrTransient, err)
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// checkStatus maps HTTP status codes onto the shared error taxonomy.
func checkStatus(providerName string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", providerName, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", providerName, ErrRateLimited)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s: %w: HTTP %d", providerName, ErrTransient, resp.StatusCode)
	default:
		return &APIError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
}
