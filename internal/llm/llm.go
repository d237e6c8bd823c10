// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the boundary to the generative text services. Every
// backend exposes one operation, Complete, and reports failures as either
// transient (worth retrying) or permanent.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Request is one completion call.
type Request struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Backend abstracts the generative service so tests can supply a mock.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// TransientError is a failure that may succeed on retry: network errors,
// timeouts, rate limits, and server errors.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError is a failure that will not succeed on retry, such as a
// rejected request or an empty response.
type PermanentError struct {
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("permanent error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying. Deadline errors and
// network timeouts count as transient even when a backend did not wrap them.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// classifyStatus wraps err according to an HTTP status code.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= 500:
		return &TransientError{StatusCode: status, Err: err}
	default:
		return &PermanentError{StatusCode: status, Err: err}
	}
}

// ErrNoCredentials is returned by New when the selected provider has no key.
var ErrNoCredentials = errors.New("no API credentials configured")

// New builds the backend selected by cfg. It returns ErrNoCredentials when
// the provider needs a key and none is set, and (nil, nil) for the offline
// provider; callers treat a nil backend as "use the fallback generator".
func New(ctx context.Context, cfg types.AIConfig) (Backend, error) {
	switch cfg.Provider {
	case types.ProviderOffline:
		return nil, nil
	case "", types.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ErrNoCredentials
		}
		return NewOpenAI(cfg.APIKey, cfg.BaseURL), nil
	case types.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, ErrNoCredentials
		}
		return &ClaudeBackend{APIKey: cfg.APIKey}, nil
	case types.ProviderGemini:
		if cfg.APIKey == "" {
			return nil, ErrNoCredentials
		}
		return NewGemini(ctx, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p types.AIProvider) string {
	switch p {
	case types.ProviderAnthropic:
		return "claude-sonnet-4-5-20250929"
	case types.ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-4o"
	}
}
