// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gateway is the only path from the pipeline to the generative text
// service. Every call goes through the response cache, then the remote
// backend under a retry policy and a per-call timeout, and finally the
// deterministic offline generator. Generate never returns an error.
package gateway

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/article-engine/internal/cache"
	"github.com/pdiddy/article-engine/internal/llm"
	"github.com/pdiddy/article-engine/internal/retry"
	"github.com/pdiddy/article-engine/pkg/types"
)

// DefaultTimeout bounds a single remote call.
const DefaultTimeout = 60 * time.Second

// DefaultSystemPrompt is sent with every request that does not set one.
const DefaultSystemPrompt = "You are an expert writer and editor who produces clear, accurate, well-structured long-form articles."

var errEmpty = errors.New("empty completion")

// Options are the per-request generation parameters.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	System      string
}

// WithTemperature returns a copy of o using temperature t.
func (o Options) WithTemperature(t float64) Options {
	o.Temperature = t
	return o
}

// Gateway wraps a generative backend with caching, retries, and fallback.
// It is safe for concurrent use.
type Gateway struct {
	backend  llm.Backend
	cache    cache.Cache
	policy   retry.Policy
	timeout  time.Duration
	defaults Options
	logger   *zap.Logger

	flight singleflight.Group

	remoteCalls atomic.Int64
	cacheHits   atomic.Int64
	fallbacks   atomic.Int64
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithBackend sets the remote backend. A nil backend means no credentials
// are configured and every miss is answered by the offline generator.
func WithBackend(b llm.Backend) Option { return func(g *Gateway) { g.backend = b } }

// WithCache sets the response cache.
func WithCache(c cache.Cache) Option { return func(g *Gateway) { g.cache = c } }

// WithPolicy sets the retry policy. A policy without Retryable retries only
// transient backend errors.
func WithPolicy(p retry.Policy) Option { return func(g *Gateway) { g.policy = p } }

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option { return func(g *Gateway) { g.timeout = d } }

// WithDefaults sets the options used by Generate.
func WithDefaults(o Options) Option { return func(g *Gateway) { g.defaults = o } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(g *Gateway) { g.logger = l } }

// New returns a Gateway. Without options it has no backend, an unbounded
// memory cache, and the default retry policy.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		policy:  retry.Default(),
		timeout: DefaultTimeout,
		defaults: Options{
			Model:       "offline",
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = cache.NewMemory(0)
	}
	if g.policy.Retryable == nil {
		g.policy.Retryable = llm.IsTransient
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	return g
}

// Defaults returns the options Generate uses.
func (g *Gateway) Defaults() Options { return g.defaults }

// Remote reports whether a remote backend is configured.
func (g *Gateway) Remote() bool { return g.backend != nil }

// Stats returns the counters accumulated since the gateway was created.
func (g *Gateway) Stats() types.GatewayStats {
	return types.GatewayStats{
		RemoteCalls: g.remoteCalls.Load(),
		CacheHits:   g.cacheHits.Load(),
		Fallbacks:   g.fallbacks.Load(),
	}
}

// Generate answers prompt with the default options.
func (g *Gateway) Generate(ctx context.Context, prompt string) string {
	return g.GenerateWith(ctx, prompt, g.defaults)
}

// GenerateWith answers prompt with opts. A cache hit returns without any
// remote call. Concurrent identical requests share one underlying call.
func (g *Gateway) GenerateWith(ctx context.Context, prompt string, opts Options) string {
	opts = g.fill(opts)
	key := requestKey(prompt, opts)

	if v, ok := g.lookup(ctx, key); ok {
		g.cacheHits.Add(1)
		return v
	}

	for {
		v, _, _ := g.flight.Do(key, func() (any, error) {
			if v, ok := g.lookup(ctx, key); ok {
				g.cacheHits.Add(1)
				return flightResult{text: v}, nil
			}
			text := g.produce(ctx, prompt, opts)
			if ctx.Err() != nil {
				return flightResult{text: text, cancelled: true}, nil
			}
			if err := g.cache.Set(ctx, key, text); err != nil {
				g.logger.Warn("cache write failed", zap.Error(err))
			}
			return flightResult{text: text}, nil
		})
		res := v.(flightResult)
		// A result cut short by another caller's cancellation is not
		// ours to keep while our own context is still live.
		if !res.cancelled || ctx.Err() != nil {
			return res.text
		}
	}
}

// flightResult is the value shared between callers of one flight.
// cancelled marks text produced after the leading caller's context ended.
type flightResult struct {
	text      string
	cancelled bool
}

// fill replaces zero fields of opts with the gateway defaults.
func (g *Gateway) fill(opts Options) Options {
	if opts.Model == "" {
		opts.Model = g.defaults.Model
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = g.defaults.MaxTokens
	}
	if opts.System == "" {
		opts.System = g.defaults.System
	}
	if opts.System == "" {
		opts.System = DefaultSystemPrompt
	}
	return opts
}

// requestKey folds the system prompt into the prompt part of the cache key.
func requestKey(prompt string, opts Options) string {
	if opts.System != "" {
		prompt = opts.System + "\x00" + prompt
	}
	return cache.Key(prompt, opts.Model, opts.Temperature)
}

func (g *Gateway) lookup(ctx context.Context, key string) (string, bool) {
	v, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		g.logger.Warn("cache read failed", zap.Error(err))
		return "", false
	}
	return v, ok
}

// produce calls the backend under the retry policy and falls back to the
// offline generator when there is no backend or every attempt failed.
func (g *Gateway) produce(ctx context.Context, prompt string, opts Options) string {
	if g.backend == nil {
		g.fallbacks.Add(1)
		return Fallback(prompt)
	}

	start := time.Now()
	var out string
	attempts, err := g.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		g.remoteCalls.Add(1)
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		text, err := g.backend.Complete(callCtx, llm.Request{
			System:      opts.System,
			User:        prompt,
			Model:       opts.Model,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		})
		if err == nil && strings.TrimSpace(text) == "" {
			err = &llm.PermanentError{Err: errEmpty}
		}
		if err != nil {
			g.logger.Warn("generation attempt failed",
				zap.String("backend", g.backend.Name()),
				zap.Int("attempt", attempt),
				zap.Bool("transient", llm.IsTransient(err)),
				zap.Error(err))
			return err
		}
		out = strings.TrimSpace(text)
		return nil
	})
	if err != nil {
		g.fallbacks.Add(1)
		g.logger.Warn("generation failed, using offline generator",
			zap.Int("attempts", attempts),
			zap.Error(err))
		return Fallback(prompt)
	}

	g.logger.Debug("generation complete",
		zap.String("model", opts.Model),
		zap.Int("attempts", attempts),
		zap.Int("chars", len(out)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}
