// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/citeimpact/pkg/types"
)

// testPolicy returns a policy with no rate limiting, suitable for
// httptest servers.
func testPolicy() CallPolicy {
	return CallPolicy{
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		Limiter:    rate.NewLimiter(rate.Inf, 1),
	}
}

func TestCallRetriesTransient(t *testing.T) {
	p := testPolicy()
	p.MaxRetries = 2

	calls := 0
	err := p.call(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: connection reset", ErrTransient)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestCallDoesNotRetryNotFound(t *testing.T) {
	p := testPolicy()
	p.MaxRetries = 3

	calls := 0
	err := p.call(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("gone: %w", ErrNotFound)
	})
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want NotFound", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", calls)
	}
}

func TestCallDoesNotRetryBlocked(t *testing.T) {
	p := testPolicy()
	p.MaxRetries = 3

	calls := 0
	err := p.call(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("gate: %w", ErrBlocked)
	})
	if !IsBlocked(err) {
		t.Fatalf("err = %v, want Blocked", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", calls)
	}
}

func TestCallExhaustsRetries(t *testing.T) {
	p := testPolicy()
	p.MaxRetries = 2

	calls := 0
	err := p.call(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("%w: still down", ErrTransient)
	})
	if !IsTransient(err) {
		t.Fatalf("err = %v, want Transient", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
}

func TestCallHonorsContextCancellation(t *testing.T) {
	p := testPolicy()
	// A limiter that never admits forces the Wait path to block.
	p.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	p.Limiter.Allow() // drain the initial token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.call(ctx, func(ctx context.Context) error { return nil })
	if err == nil {
		t.Fatal("call should fail when context is cancelled")
	}
}

func TestNewCallPolicyDefaults(t *testing.T) {
	p := NewCallPolicy(types.ProviderConfig{}, 0)
	if p.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", p.Timeout)
	}
	if p.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want 1", p.MaxRetries)
	}
	if p.Limiter.Limit() != rate.Inf {
		t.Errorf("Limiter = %v, want Inf with no delay", p.Limiter.Limit())
	}
}

func TestNewCallPolicyPolitenessDelay(t *testing.T) {
	p := NewCallPolicy(types.ProviderConfig{}, 2*time.Second)
	if p.Limiter.Limit() != rate.Every(2*time.Second) {
		t.Errorf("Limiter = %v, want one call per 2s", p.Limiter.Limit())
	}
	if p.Limiter.Burst() != 1 {
		t.Errorf("Burst = %d, want 1", p.Limiter.Burst())
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		want   string
	}{
		{http.StatusOK, func(err error) bool { return err == nil }, "nil"},
		{http.StatusNotFound, IsNotFound, "NotFound"},
		{http.StatusTooManyRequests, IsRateLimited, "RateLimited"},
		{http.StatusBadGateway, IsTransient, "Transient"},
		{http.StatusInternalServerError, IsTransient, "Transient"},
	}
	for _, tt := range tests {
		resp := &http.Response{StatusCode: tt.status}
		if err := checkStatus("test", resp); !tt.check(err) {
			t.Errorf("checkStatus(%d) = %v, want %s", tt.status, err, tt.want)
		}
	}
}

func TestCheckStatusAPIError(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusForbidden}
	err := checkStatus("crossref", resp)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Provider != "crossref" || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestAPIErrorServerStatusIsTransient(t *testing.T) {
	err := &APIError{Provider: "x", StatusCode: 503}
	if !IsTransient(err) {
		t.Error("5xx APIError should be transient")
	}
	err = &APIError{Provider: "x", StatusCode: 403}
	if IsTransient(err) {
		t.Error("403 APIError should not be transient")
	}
}

func TestCallMapsTimeoutToTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	p := testPolicy()
	p.Timeout = 20 * time.Millisecond
	p.MaxRetries = 0

	err := p.call(context.Background(), func(ctx context.Context) error {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
		_, err := ts.Client().Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return nil
	})
	if !IsTransient(err) {
		t.Errorf("timeout should surface as transient, got %v", err)
	}
}
