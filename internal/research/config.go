// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"
	"time"

	"github.com/pdiddy/article-engine/internal/httputil"
	"github.com/pdiddy/article-engine/pkg/types"
)

// NewSearcher builds the searcher named by cfg.Searcher. An empty name
// selects serper when a key is configured and offline otherwise.
func NewSearcher(cfg types.ResearchConfig) (Searcher, error) {
	name := cfg.Searcher
	if name == "" {
		name = "offline"
		if cfg.SerperAPIKey != "" {
			name = "serper"
		}
	}
	switch name {
	case "serper":
		if cfg.SerperAPIKey == "" {
			return nil, fmt.Errorf("serper searcher requires an API key")
		}
		return &SerperSearcher{
			APIKey: cfg.SerperAPIKey,
			Client: httputil.NewClient(fetchTimeout(cfg), cfg.UserAgent),
		}, nil
	case "feed":
		return &FeedSearcher{Client: httputil.NewClient(fetchTimeout(cfg), cfg.UserAgent)}, nil
	case "arxiv":
		return &ArxivSearcher{Client: httputil.NewClient(fetchTimeout(cfg), cfg.UserAgent)}, nil
	case "offline":
		return OfflineSearcher{}, nil
	}
	return nil, fmt.Errorf("unknown searcher %q (valid: serper, feed, arxiv, offline)", name)
}

// NewFetcher builds the fetcher named by cfg.Fetcher. An empty name
// selects readability when a real searcher is configured and offline
// otherwise.
func NewFetcher(cfg types.ResearchConfig) (Fetcher, error) {
	name := cfg.Fetcher
	if name == "" {
		name = "readability"
		if cfg.Searcher == "offline" || cfg.Searcher == "" && cfg.SerperAPIKey == "" {
			name = "offline"
		}
	}
	switch name {
	case "readability":
		return NewReadabilityFetcher(fetchTimeout(cfg), cfg.UserAgent), nil
	case "html":
		return NewHTMLFetcher(fetchTimeout(cfg), cfg.UserAgent), nil
	case "browser":
		return &BrowserFetcher{ControlURL: cfg.BrowserURL, Timeout: fetchTimeout(cfg)}, nil
	case "offline":
		return OfflineFetcher{}, nil
	}
	return nil, fmt.Errorf("unknown fetcher %q (valid: readability, html, browser, offline)", name)
}

// NewScorer returns a Cohere scorer when a key is configured, else nil.
func NewScorer(cfg types.ResearchConfig) Scorer {
	if cfg.CohereAPIKey == "" {
		return nil
	}
	return NewCohereScorer(cfg.CohereAPIKey, nil)
}

func fetchTimeout(cfg types.ResearchConfig) time.Duration {
	if cfg.FetchTimeout > 0 {
		return cfg.FetchTimeout
	}
	return DefaultFetchTimeout
}
