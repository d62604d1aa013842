// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the backend clients.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 5

// retryable reports whether a status code indicates a transient condition
// worth retrying: rate limiting or a gateway-side failure. A loaded quiz
// backend returns 429 when throttling and 502/503/504 when its upstream
// falls over.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoWithRetry executes an HTTP request and retries transient failures
// (429, 502, 503, 504) with exponential backoff. The delay starts at
// RetryBaseDelay and doubles each attempt.
//
// When maxRetries is 0 the default (5) is used. On each retryable
// response the body is drained and closed before sleeping. If the context
// is cancelled during a backoff wait the function returns ctx.Err().
// After exhausting retries the last response is returned so the caller
// can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) {
			return resp, nil
		}

		// Exhausted retries, return the last response as-is.
		if attempt >= maxRetries {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
