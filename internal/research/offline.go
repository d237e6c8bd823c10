// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/article-engine/internal/draft"
)

// OfflineSearcher returns deterministic placeholder URLs without any
// network access. Site-restricted queries ("site:host topic") produce URLs
// on that host.
type OfflineSearcher struct{}

// Name returns the searcher identifier.
func (OfflineSearcher) Name() string { return "offline" }

// Search returns max URLs derived from query.
func (OfflineSearcher) Search(_ context.Context, query string, max int) ([]string, error) {
	host := "example.com"
	if rest, ok := strings.CutPrefix(query, "site:"); ok {
		h, q, _ := strings.Cut(rest, " ")
		host, query = h, q
	}
	slug := draft.Slug(query)
	urls := make([]string, 0, max)
	for i := 1; i <= max; i++ {
		urls = append(urls, fmt.Sprintf("https://%s/%s-article-%d", host, slug, i))
	}
	return urls, nil
}

// OfflineFetcher produces a placeholder page for any URL without network
// access.
type OfflineFetcher struct{}

// Name returns the fetcher identifier.
func (OfflineFetcher) Name() string { return "offline" }

// Fetch returns a short article built from the URL path.
func (OfflineFetcher) Fetch(_ context.Context, rawURL string) (Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("parsing url: %w", err)
	}
	subject := strings.ReplaceAll(strings.Trim(u.Path, "/"), "-", " ")
	headings := []string{"Introduction", "Background", "Current State", "Conclusion"}

	var b strings.Builder
	fmt.Fprintf(&b, "This is a placeholder article from %s about %s.\n\n", u.Host, subject)
	for _, h := range headings {
		fmt.Fprintf(&b, "%s\n\nThis section discusses %s in the context of %s.\n\n", h, strings.ToLower(h), subject)
	}
	return Page{
		URL:      rawURL,
		Title:    subject,
		Text:     strings.TrimSpace(b.String()),
		Headings: headings,
	}, nil
}
