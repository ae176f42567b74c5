// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across providers.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff interval after an HTTP 429.
// Tests shrink it to keep runs fast.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// DoWithRetry issues the request and, on HTTP 429, backs off and tries
// again up to maxRetries times (5 when maxRetries <= 0). The wait
// doubles per attempt; a seconds-valued Retry-After header takes
// precedence when it asks for longer. Other statuses pass through
// untouched. The final 429 response is returned unconsumed so the
// caller can classify it; cancelling the context during a wait returns
// ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	wait := RetryBaseDelay
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		delay := wait
		if ra := retryAfter(resp); ra > delay {
			delay = ra
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		wait *= 2
	}
}

// retryAfter reads a seconds-valued Retry-After header, zero when
// absent or unparseable. The HTTP-date form is rare on the endpoints
// this helper fronts and falls back to the computed backoff.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
