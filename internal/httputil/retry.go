// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the search and fetch
// backends.
package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/article-engine/internal/retry"
)

// RetryBaseDelay is the backoff unit for throttled responses. Tests
// override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 3

// DefaultUserAgent is sent when a client does not set its own.
const DefaultUserAgent = "article-engine/0.1"

// errThrottled marks a response that should be retried.
var errThrottled = errors.New("throttled")

// Retryable reports whether an HTTP status signals a transient server
// condition: 429 or a 502/503/504 gateway failure.
func Retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoWithRetry executes an HTTP request and retries transient statuses with
// exponential backoff (2x, 4x, 8x RetryBaseDelay). A Retry-After header
// given in seconds replaces the computed wait when it is longer.
//
// When maxRetries is 0 the default (3) is used. The body of every retried
// response is drained and closed. If the context is cancelled during a
// wait the function returns the context error. After exhausting retries
// the last transient response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var (
		last       *http.Response
		retryAfter time.Duration
	)
	policy := retry.Policy{
		MaxRetries: maxRetries,
		Backoff: func(n int) time.Duration {
			d := retry.Exponential(RetryBaseDelay)(n)
			if retryAfter > d {
				d = retryAfter
			}
			return d
		},
		Sleep:     retry.Sleep,
		Retryable: func(err error) bool { return errors.Is(err, errThrottled) },
	}

	_, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		r := req.Clone(ctx)
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return err
			}
			r.Body = body
		}
		resp, err := client.Do(r)
		if err != nil {
			return err
		}
		if !Retryable(resp.StatusCode) {
			last = resp
			return nil
		}
		if attempt > maxRetries {
			last = resp
			return errThrottled
		}
		retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return errThrottled
	})

	if last == nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil && !errors.Is(err, errThrottled) {
		return nil, err
	}
	return last, nil
}

// parseRetryAfter reads a Retry-After header expressed in seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// userAgentTransport sets a User-Agent header on outgoing requests.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

// NewClient returns an HTTP client with the given timeout that sends
// userAgent on every request. Empty userAgent selects DefaultUserAgent.
func NewClient(timeout time.Duration, userAgent string) *http.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: userAgentTransport{base: http.DefaultTransport, userAgent: userAgent},
	}
}
