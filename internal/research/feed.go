// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"
)

// newsFeedURL is the news RSS search endpoint. Declared as a var so tests
// can substitute an httptest server.
var newsFeedURL = "https://news.google.com/rss/search"

// FeedSearcher finds sources through a news RSS search feed. It needs no
// API key.
type FeedSearcher struct {
	Client *http.Client
}

// Name returns the searcher identifier.
func (s *FeedSearcher) Name() string { return "feed" }

// Search returns the links of up to max feed items for query.
func (s *FeedSearcher) Search(ctx context.Context, query string, max int) ([]string, error) {
	params := url.Values{
		"q":    {query},
		"hl":   {"en-US"},
		"gl":   {"US"},
		"ceid": {"US:en"},
	}

	parser := gofeed.NewParser()
	if s.Client != nil {
		parser.Client = s.Client
	}
	feed, err := parser.ParseURLWithContext(newsFeedURL+"?"+params.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	var urls []string
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		urls = append(urls, item.Link)
		if len(urls) == max {
			break
		}
	}
	return urls, nil
}
