// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserFetcher renders pages in a headless browser before extracting
// text, for sites that build their content with JavaScript. The browser
// is started on first use and shared by concurrent fetches.
type BrowserFetcher struct {
	// ControlURL is the DevTools URL of a running browser. When empty a
	// local headless browser is launched.
	ControlURL string

	// Timeout bounds navigation and load of one page.
	Timeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

// Name returns the fetcher identifier.
func (f *BrowserFetcher) Name() string { return "browser" }

// Fetch navigates to rawURL, waits for the load event, and parses the
// rendered DOM.
func (f *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	browser, err := f.connect()
	if err != nil {
		return Page{}, err
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: rawURL})
	if err != nil {
		return Page{}, fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	p := page.Context(ctx).Timeout(timeout)
	if err := p.WaitLoad(); err != nil {
		return Page{}, fmt.Errorf("waiting for page load: %w", err)
	}
	rendered, err := p.HTML()
	if err != nil {
		return Page{}, fmt.Errorf("reading rendered html: %w", err)
	}
	return ParseHTML(strings.NewReader(rendered), rawURL)
}

func (f *BrowserFetcher) connect() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser != nil {
		return f.browser, nil
	}

	controlURL := f.ControlURL
	if controlURL == "" {
		u, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("launching browser: %w", err)
		}
		controlURL = u
	}
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	f.browser = b
	return b, nil
}

// Close shuts down the browser if one was started.
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	return err
}
