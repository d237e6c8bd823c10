// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AIProvider selects the generative text service.
type AIProvider string

const (
	ProviderOpenAI    AIProvider = "openai"
	ProviderAnthropic AIProvider = "anthropic"
	ProviderGemini    AIProvider = "gemini"
	ProviderOffline   AIProvider = "offline"
)

// AIConfig holds settings for the generation gateway.
type AIConfig struct {
	// Provider selects the backend: openai, anthropic, gemini, or offline.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible servers).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Temperature is the sampling temperature (default 0.7).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens bounds each completion (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retries after the first failed call (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds a single remote call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ResearchConfig holds settings for the research aggregator.
type ResearchConfig struct {
	// Searcher selects the search backend: serper, feed, or offline.
	Searcher string `json:"searcher" yaml:"searcher"`

	// Fetcher selects the page fetcher: readability, html, browser, or offline.
	Fetcher string `json:"fetcher" yaml:"fetcher"`

	// SerperAPIKey authenticates against the Serper search API.
	SerperAPIKey string `json:"serper_api_key,omitempty" yaml:"serper_api_key,omitempty"`

	// CohereAPIKey enables embedding-based trending topic scoring.
	CohereAPIKey string `json:"cohere_api_key,omitempty" yaml:"cohere_api_key,omitempty"`

	// BrowserURL is the DevTools URL of a running browser, empty to launch one.
	BrowserURL string `json:"browser_url,omitempty" yaml:"browser_url,omitempty"`

	// MaxSources bounds sources fetched per query (default and maximum 5).
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// FetchTimeout bounds a single page fetch (default 20s).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CacheConfig holds settings for the response cache.
type CacheConfig struct {
	// Backend selects the cache: memory, sqlite, or redis.
	Backend string `json:"backend" yaml:"backend"`

	// Path is the SQLite database file for the sqlite backend.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// RedisAddr is the host:port of the redis backend.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`

	// RedisPassword authenticates against redis.
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`

	// RedisDB selects the redis database number.
	RedisDB int `json:"redis_db" yaml:"redis_db"`

	// MaxEntries bounds the memory backend, 0 for unbounded.
	MaxEntries int `json:"max_entries" yaml:"max_entries"`

	// TTL expires redis entries, 0 for no expiry.
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// StorageConfig holds settings for article persistence.
type StorageConfig struct {
	// ArticlesDir is the directory for article files (default "articles").
	ArticlesDir string `json:"articles_dir" yaml:"articles_dir"`

	// IndexPath is the SQLite history database (default "articles/history.db").
	IndexPath string `json:"index_path" yaml:"index_path"`

	// RenderHTML writes an HTML copy next to each article.
	RenderHTML bool `json:"render_html" yaml:"render_html"`

	// S3Bucket mirrors saved articles to S3 when set.
	S3Bucket string `json:"s3_bucket,omitempty" yaml:"s3_bucket,omitempty"`

	// S3Prefix is prepended to mirrored object keys.
	S3Prefix string `json:"s3_prefix,omitempty" yaml:"s3_prefix,omitempty"`

	// S3Region overrides the AWS region.
	S3Region string `json:"s3_region,omitempty" yaml:"s3_region,omitempty"`
}

// KafkaConfig holds settings for publishing progress events.
type KafkaConfig struct {
	// Brokers lists the Kafka bootstrap servers; empty disables publishing.
	Brokers []string `json:"brokers,omitempty" yaml:"brokers,omitempty"`

	// Topic is the destination topic (default "article-progress").
	Topic string `json:"topic" yaml:"topic"`
}

// ServerConfig holds settings for the HTTP front end.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// Config groups all settings for the article pipeline.
type Config struct {
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Kafka    KafkaConfig    `json:"kafka" yaml:"kafka"`
	Server   ServerConfig   `json:"server" yaml:"server"`

	// Concurrency is the number of sections written in parallel (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}
