// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research gathers background material for an article. The
// Aggregator searches for sources on the topic and each subtopic, fetches
// them, and compresses each batch into a summary through the generation
// gateway. Results are memoized by (topic, subtopics, platform).
package research

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/internal/cache"
	"github.com/pdiddy/article-engine/internal/platform"
	"github.com/pdiddy/article-engine/pkg/types"
)

// MaxSourcesPerQuery bounds how many sources are fetched for one query.
const MaxSourcesPerQuery = 5

// DefaultMaxSourceChars bounds how much text of one source goes into a
// summary prompt.
const DefaultMaxSourceChars = 3000

// Generator answers prompts. *gateway.Gateway satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// Searcher finds source URLs for a query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, max int) ([]string, error)
}

// Fetcher downloads one source and extracts its text.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (Page, error)
}

// Page is the extracted content of one fetched source.
type Page struct {
	URL      string
	Title    string
	Text     string
	Headings []string
}

// SourceFetchError reports a source that could not be fetched. It is
// logged and the source dropped; it never fails a research call.
type SourceFetchError struct {
	URL string
	Err error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// Aggregator builds research bundles. It is safe for concurrent use.
type Aggregator struct {
	gen        Generator
	cache      cache.Cache
	searcher   Searcher
	fetcher    Fetcher
	scorer     Scorer
	logger     *zap.Logger
	maxSources int
	maxChars   int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCache sets the memoization cache.
func WithCache(c cache.Cache) Option { return func(a *Aggregator) { a.cache = c } }

// WithSearcher sets the search backend.
func WithSearcher(s Searcher) Option { return func(a *Aggregator) { a.searcher = s } }

// WithFetcher sets the page fetcher.
func WithFetcher(f Fetcher) Option { return func(a *Aggregator) { a.fetcher = f } }

// WithScorer sets the trending topic scorer.
func WithScorer(s Scorer) Option { return func(a *Aggregator) { a.scorer = s } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(a *Aggregator) { a.logger = l } }

// WithMaxSources bounds sources per query. Values outside 1..5 are clamped.
func WithMaxSources(n int) Option { return func(a *Aggregator) { a.maxSources = n } }

// New returns an Aggregator that summarises through gen. Without options
// it uses the offline searcher and fetcher and an unbounded memory cache.
func New(gen Generator, opts ...Option) *Aggregator {
	a := &Aggregator{
		gen:        gen,
		logger:     zap.NewNop(),
		maxSources: MaxSourcesPerQuery,
		maxChars:   DefaultMaxSourceChars,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cache == nil {
		a.cache = cache.NewMemory(0)
	}
	if a.searcher == nil {
		a.searcher = OfflineSearcher{}
	}
	if a.fetcher == nil {
		a.fetcher = OfflineFetcher{}
	}
	a.maxSources = min(max(a.maxSources, 1), MaxSourcesPerQuery)
	return a
}

// Research returns the bundle for topic. With no subtopics, 3 to 5 are
// derived through the generator. It never fails: sources that cannot be
// searched or fetched are dropped and counted in FailedSources. A second
// call with the same arguments is answered from the cache without any
// search, fetch, or generation.
func (a *Aggregator) Research(ctx context.Context, topic string, subtopics []string, p types.Platform) types.ResearchBundle {
	key := memoKey(topic, subtopics, p)
	if b, ok := a.recall(ctx, key); ok {
		a.logger.Debug("research cache hit", zap.String("topic", topic))
		return b
	}

	start := time.Now()
	if len(subtopics) == 0 {
		subtopics = a.deriveSubtopics(ctx, topic)
	}

	b := types.ResearchBundle{
		Topic:             topic,
		Subtopics:         append([]string(nil), subtopics...),
		SubtopicSummaries: make(map[string]string, len(subtopics)),
	}

	summary, ok, failed := a.investigate(ctx, topic, topic)
	b.Summary = summary
	b.SourceCount += ok
	b.FailedSources += failed

	for _, st := range subtopics {
		summary, ok, failed := a.investigate(ctx, st, topic)
		b.SubtopicSummaries[st] = summary
		b.SourceCount += ok
		b.FailedSources += failed
	}

	b.TrendingTopics = a.trending(ctx, topic)
	if platform.Domain(p) != "" {
		b.SimilarArticles = a.similar(ctx, topic, p)
	}

	a.logger.Info("research complete",
		zap.String("topic", topic),
		zap.Int("subtopics", len(subtopics)),
		zap.Int("sources", b.SourceCount),
		zap.Int("failed_sources", b.FailedSources),
		zap.Duration("elapsed", time.Since(start)))

	if ctx.Err() == nil {
		a.remember(ctx, key, b)
	}
	return b
}

// memoKey hashes the exact research arguments.
func memoKey(topic string, subtopics []string, p types.Platform) string {
	h := sha256.New()
	h.Write([]byte(topic))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(subtopics, "\x1f")))
	h.Write([]byte{0})
	h.Write([]byte(p))
	return fmt.Sprintf("research:%x", h.Sum(nil))
}

func (a *Aggregator) recall(ctx context.Context, key string) (types.ResearchBundle, bool) {
	v, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("research cache read failed", zap.Error(err))
		return types.ResearchBundle{}, false
	}
	if !ok {
		return types.ResearchBundle{}, false
	}
	var b types.ResearchBundle
	if err := json.Unmarshal([]byte(v), &b); err != nil {
		a.logger.Warn("discarding unreadable research cache entry", zap.Error(err))
		return types.ResearchBundle{}, false
	}
	return b, true
}

func (a *Aggregator) remember(ctx context.Context, key string, b types.ResearchBundle) {
	data, err := json.Marshal(b)
	if err != nil {
		a.logger.Warn("encoding research bundle", zap.Error(err))
		return
	}
	if err := a.cache.Set(ctx, key, string(data)); err != nil {
		a.logger.Warn("research cache write failed", zap.Error(err))
	}
}
