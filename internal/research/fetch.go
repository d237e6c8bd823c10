// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/pdiddy/article-engine/internal/httputil"
)

// DefaultFetchTimeout bounds a single page fetch.
const DefaultFetchTimeout = 20 * time.Second

// maxPageBytes bounds how much of a response body is read.
const maxPageBytes = 2 << 20

// HTMLFetcher downloads a page and extracts its visible text.
type HTMLFetcher struct {
	Client *http.Client
}

// NewHTMLFetcher returns a fetcher with its own client.
func NewHTMLFetcher(timeout time.Duration, userAgent string) *HTMLFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTMLFetcher{Client: httputil.NewClient(timeout, userAgent)}
}

// Name returns the fetcher identifier.
func (f *HTMLFetcher) Name() string { return "html" }

// Fetch downloads rawURL and parses it.
func (f *HTMLFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	body, err := download(ctx, f.Client, rawURL)
	if err != nil {
		return Page{}, err
	}
	return ParseHTML(bytes.NewReader(body), rawURL)
}

// ReadabilityFetcher downloads a page and keeps only its main article
// content, discarding navigation and boilerplate.
type ReadabilityFetcher struct {
	Client *http.Client
}

// NewReadabilityFetcher returns a fetcher with its own client.
func NewReadabilityFetcher(timeout time.Duration, userAgent string) *ReadabilityFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &ReadabilityFetcher{Client: httputil.NewClient(timeout, userAgent)}
}

// Name returns the fetcher identifier.
func (f *ReadabilityFetcher) Name() string { return "readability" }

// Fetch downloads rawURL and extracts the article. Headings come from the
// extracted article HTML.
func (f *ReadabilityFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("parsing url: %w", err)
	}
	body, err := download(ctx, f.Client, rawURL)
	if err != nil {
		return Page{}, err
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return Page{}, fmt.Errorf("readability extraction failed: %w", err)
	}

	p := Page{
		URL:   rawURL,
		Title: strings.TrimSpace(article.Title),
		Text:  cleanText(article.TextContent),
	}
	if parsed, err := ParseHTML(strings.NewReader(article.Content), rawURL); err == nil {
		p.Headings = parsed.Headings
	}
	return p, nil
}

// download GETs rawURL with retries on throttling and returns the body.
func download(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
