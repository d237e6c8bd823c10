// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/internal/cache"
	"github.com/pdiddy/article-engine/internal/gateway"
	"github.com/pdiddy/article-engine/internal/llm"
	"github.com/pdiddy/article-engine/internal/pipeline"
	"github.com/pdiddy/article-engine/internal/progress"
	"github.com/pdiddy/article-engine/internal/research"
	"github.com/pdiddy/article-engine/internal/retry"
	"github.com/pdiddy/article-engine/internal/secrets"
	"github.com/pdiddy/article-engine/internal/store"
	"github.com/pdiddy/article-engine/pkg/types"
)

const defaultUserAgent = "article-engine/0.1"

func setDefaults() {
	viper.SetDefault("secrets_dir", ".secrets/")
	viper.SetDefault("ai.temperature", 0.7)
	viper.SetDefault("ai.max_tokens", 2048)
	viper.SetDefault("ai.max_retries", retry.DefaultMaxRetries)
	viper.SetDefault("ai.timeout", gateway.DefaultTimeout)
	viper.SetDefault("research.max_sources", research.MaxSourcesPerQuery)
	viper.SetDefault("research.fetch_timeout", research.DefaultFetchTimeout)
	viper.SetDefault("research.user_agent", defaultUserAgent)
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("storage.articles_dir", "articles")
	viper.SetDefault("kafka.topic", progress.DefaultKafkaTopic)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("concurrency", 1)
}

// loadConfig assembles the configuration from viper and the loaded secrets.
func loadConfig() types.Config {
	cfg := types.Config{
		AI: types.AIConfig{
			Provider:    types.AIProvider(viper.GetString("ai.provider")),
			Model:       viper.GetString("ai.model"),
			APIKey:      viper.GetString("ai.api_key"),
			BaseURL:     viper.GetString("ai.base_url"),
			Temperature: viper.GetFloat64("ai.temperature"),
			MaxTokens:   viper.GetInt("ai.max_tokens"),
			MaxRetries:  viper.GetInt("ai.max_retries"),
			Timeout:     viper.GetDuration("ai.timeout"),
		},
		Research: types.ResearchConfig{
			Searcher:     viper.GetString("research.searcher"),
			Fetcher:      viper.GetString("research.fetcher"),
			SerperAPIKey: secretDefault(secrets.SerperKey, viper.GetString("research.serper_api_key")),
			CohereAPIKey: secretDefault(secrets.CohereKey, viper.GetString("research.cohere_api_key")),
			BrowserURL:   viper.GetString("research.browser_url"),
			MaxSources:   viper.GetInt("research.max_sources"),
			FetchTimeout: viper.GetDuration("research.fetch_timeout"),
			UserAgent:    viper.GetString("research.user_agent"),
		},
		Cache: types.CacheConfig{
			Backend:       viper.GetString("cache.backend"),
			Path:          viper.GetString("cache.path"),
			RedisAddr:     viper.GetString("cache.redis_addr"),
			RedisPassword: viper.GetString("cache.redis_password"),
			RedisDB:       viper.GetInt("cache.redis_db"),
			MaxEntries:    viper.GetInt("cache.max_entries"),
			TTL:           viper.GetDuration("cache.ttl"),
		},
		Storage: types.StorageConfig{
			ArticlesDir: viper.GetString("storage.articles_dir"),
			IndexPath:   viper.GetString("storage.index_path"),
			RenderHTML:  viper.GetBool("storage.render_html"),
			S3Bucket:    viper.GetString("storage.s3_bucket"),
			S3Prefix:    viper.GetString("storage.s3_prefix"),
			S3Region:    viper.GetString("storage.s3_region"),
		},
		Kafka: types.KafkaConfig{
			Brokers: viper.GetStringSlice("kafka.brokers"),
			Topic:   viper.GetString("kafka.topic"),
		},
		Server:      types.ServerConfig{Addr: viper.GetString("server.addr")},
		Concurrency: viper.GetInt("concurrency"),
	}
	resolveProvider(&cfg.AI)
	return cfg
}

// providerKeys maps each remote provider to its secret.
var providerKeys = []struct {
	provider types.AIProvider
	key      string
}{
	{types.ProviderOpenAI, secrets.OpenAIKey},
	{types.ProviderAnthropic, secrets.AnthropicKey},
	{types.ProviderGemini, secrets.GeminiKey},
}

// resolveProvider fills in the API key for the configured provider, or
// picks the first provider with a key when none is configured.
func resolveProvider(ai *types.AIConfig) {
	if ai.Provider == "" {
		ai.Provider = types.ProviderOffline
		for _, pk := range providerKeys {
			if secretDefault(pk.key, "") != "" {
				ai.Provider = pk.provider
				break
			}
		}
	}
	for _, pk := range providerKeys {
		if pk.provider == ai.Provider {
			ai.APIKey = secretDefault(pk.key, ai.APIKey)
		}
	}
	if ai.Model == "" && ai.Provider != types.ProviderOffline {
		ai.Model = llm.DefaultModel(ai.Provider)
	}
}

// engine bundles the long-lived collaborators of a command.
type engine struct {
	cfg          types.Config
	gateway      *gateway.Gateway
	cache        cache.Cache
	research     *research.Aggregator
	store        *store.Store
	kafka        *progress.KafkaPublisher
	orchestrator *pipeline.Orchestrator
	closers      []io.Closer
}

// newEngine builds the gateway, research aggregator, and orchestrator from
// cfg. withStore also opens article storage.
func newEngine(ctx context.Context, cfg types.Config, withStore bool) (*engine, error) {
	e := &engine{cfg: cfg}

	c, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	e.cache = c
	e.closers = append(e.closers, c)

	backend, err := llm.New(ctx, cfg.AI)
	if errors.Is(err, llm.ErrNoCredentials) {
		logger.Warn("no API key for provider, generating offline", zap.String("provider", string(cfg.AI.Provider)))
		backend, err = nil, nil
	}
	if err != nil {
		e.Close()
		return nil, err
	}

	policy := retry.Default()
	policy.MaxRetries = cfg.AI.MaxRetries
	defaults := gateway.Options{Model: cfg.AI.Model, Temperature: cfg.AI.Temperature, MaxTokens: cfg.AI.MaxTokens}
	if backend == nil {
		defaults.Model = "offline"
	}
	gwOpts := []gateway.Option{
		gateway.WithCache(c),
		gateway.WithPolicy(policy),
		gateway.WithTimeout(cfg.AI.Timeout),
		gateway.WithDefaults(defaults),
		gateway.WithLogger(logger.Named("gateway")),
	}
	if backend != nil {
		gwOpts = append(gwOpts, gateway.WithBackend(backend))
	}
	e.gateway = gateway.New(gwOpts...)

	searcher, err := research.NewSearcher(cfg.Research)
	if err != nil {
		e.Close()
		return nil, err
	}
	fetcher, err := research.NewFetcher(cfg.Research)
	if err != nil {
		e.Close()
		return nil, err
	}
	if closer, ok := fetcher.(io.Closer); ok {
		e.closers = append(e.closers, closer)
	}
	resOpts := []research.Option{
		research.WithCache(c),
		research.WithSearcher(searcher),
		research.WithFetcher(fetcher),
		research.WithMaxSources(cfg.Research.MaxSources),
		research.WithLogger(logger.Named("research")),
	}
	if scorer := research.NewScorer(cfg.Research); scorer != nil {
		resOpts = append(resOpts, research.WithScorer(scorer))
	}
	e.research = research.New(e.gateway, resOpts...)

	pipeOpts := []pipeline.Option{
		pipeline.WithResearcher(e.research),
		pipeline.WithLogger(logger.Named("pipeline")),
	}
	if withStore {
		s, err := store.Open(ctx, cfg.Storage, logger.Named("store"))
		if err != nil {
			e.Close()
			return nil, err
		}
		e.store = s
		e.closers = append(e.closers, s)
		pipeOpts = append(pipeOpts, pipeline.WithSaver(s))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		k, err := progress.NewKafkaPublisher(cfg.Kafka, logger.Named("kafka"))
		if err != nil {
			e.Close()
			return nil, err
		}
		e.kafka = k
		e.closers = append(e.closers, k)
	}
	e.orchestrator = pipeline.New(e.gateway, pipeOpts...)

	logger.Debug("engine ready",
		zap.String("provider", string(cfg.AI.Provider)),
		zap.Bool("remote", e.gateway.Remote()),
		zap.String("searcher", searcher.Name()),
		zap.String("fetcher", fetcher.Name()),
		zap.String("cache", cfg.Cache.Backend))
	return e, nil
}

// runObserver returns the Kafka observer for one run, or nil.
func (e *engine) runObserver(runID, topic string) progress.Observer {
	if e.kafka == nil {
		return nil
	}
	return e.kafka.ForRun(runID, topic)
}

// Close releases everything newEngine opened, newest first.
func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			logger.Warn("closing resource", zap.Error(err))
		}
	}
	e.closers = nil
}

// printer writes progress events as plain lines.
func printer(w io.Writer) progress.Observer {
	return progress.ObserverFunc(func(ev types.ProgressEvent) {
		elapsed := ev.Elapsed.Round(100 * time.Millisecond)
		switch {
		case ev.Err != "":
			fmt.Fprintf(w, "[%7s] %s: %s\n", elapsed, ev.Phase, ev.Err)
		case ev.Total > 0:
			fmt.Fprintf(w, "[%7s] %s %d/%d %s\n", elapsed, ev.Phase, ev.Current, ev.Total, ev.Section)
		default:
			fmt.Fprintf(w, "[%7s] %s\n", elapsed, ev.Phase)
		}
	})
}
