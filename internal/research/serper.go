// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/article-engine/internal/httputil"
)

// serperAPIURL is the Serper web search endpoint. Declared as a var so
// tests can substitute an httptest server.
var serperAPIURL = "https://google.serper.dev/search"

// SerperSearcher queries the Serper Google search API.
type SerperSearcher struct {
	Client *http.Client
	APIKey string
}

// Name returns the searcher identifier.
func (s *SerperSearcher) Name() string { return "serper" }

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"organic"`
}

// Search returns up to max organic result links for query.
func (s *SerperSearcher) Search(ctx context.Context, query string, max int) ([]string, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("serper: no API key configured")
	}
	payload, err := json.Marshal(serperRequest{Q: query, Num: max})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = httputil.NewClient(DefaultFetchTimeout, "")
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper returned HTTP %d", resp.StatusCode)
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding serper response: %w", err)
	}

	var urls []string
	for _, r := range sr.Organic {
		if r.Link == "" {
			continue
		}
		urls = append(urls, r.Link)
		if len(urls) == max {
			break
		}
	}
	return urls, nil
}
