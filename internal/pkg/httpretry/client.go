// Package httpretry provides an http.RoundTripper with automatic retry logic,
// exponential backoff, and jitter for resilient calls to AI providers.
package httpretry

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ignite/loyalty-crm/internal/pkg/logger"
)

// Transport wraps a base RoundTripper with retry logic using exponential
// backoff and jitter. It plugs into any SDK that accepts an *http.Client.
type Transport struct {
	base       http.RoundTripper
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	sleep      func(time.Duration) <-chan time.Time
}

// NewTransport creates a Transport around base. A nil base uses
// http.DefaultTransport. maxRetries is the number of retry attempts after
// the initial request (default 3).
func NewTransport(base http.RoundTripper, maxRetries int) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Transport{
		base:       base,
		maxRetries: maxRetries,
		baseDelay:  1 * time.Second,
		maxDelay:   30 * time.Second,
		sleep:      time.After,
	}
}

// NewClient returns an *http.Client with the given overall timeout whose
// transport retries transient failures.
func NewClient(timeout time.Duration, maxRetries int) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: NewTransport(nil, maxRetries)}
}

// RoundTrip executes the request with retry logic.
// It retries on 500, 502, 503, 504 and transient network errors. 429 is
// returned to the caller untouched: quota exhaustion is handled by the
// loyalty service's own backoff, and hammering a rate-limited provider from
// two layers only burns quota. On the final attempt the response is returned
// as-is so the caller can inspect the status code and body.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	attemptReq := req

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if req.Context().Err() != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, req.Context().Err()
		}

		if attempt > 0 {
			if req.Body != nil && req.GetBody == nil {
				// Body cannot be replayed.
				return nil, lastErr
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: failed to reset request body: %w", err)
				}
				attemptReq = req.Clone(req.Context())
				attemptReq.Body = body
			}

			delay := t.calculateDelay(attempt)
			logger.Debug("httpretry: retrying request",
				"attempt", attempt, "max_retries", t.maxRetries,
				"method", req.Method, "host", req.URL.Host, "path", req.URL.Path,
				"delay", delay.String())

			select {
			case <-t.sleep(delay):
			case <-req.Context().Done():
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := t.base.RoundTrip(attemptReq)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, err
			}
			continue
		}

		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		if attempt == t.maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: server returned retryable status %d", resp.StatusCode)
	}

	return nil, lastErr
}

// calculateDelay returns the backoff duration for the given retry attempt.
// Uses exponential backoff with full jitter: random(0, min(maxDelay, baseDelay * 2^(attempt-1))).
func (t *Transport) calculateDelay(attempt int) time.Duration {
	expDelay := float64(t.baseDelay) * math.Pow(2, float64(attempt-1))
	if expDelay > float64(t.maxDelay) {
		expDelay = float64(t.maxDelay)
	}

	jittered := time.Duration(rand.Float64() * expDelay)

	// Ensure a minimum delay of 100ms to avoid busy-looping
	if jittered < 100*time.Millisecond {
		jittered = 100 * time.Millisecond
	}

	return jittered
}

// isRetryableStatus returns true if the HTTP status code indicates a
// transient server error that should be retried.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
