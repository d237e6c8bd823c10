// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/article-engine/internal/gateway"
)

const (
	minSubtopics = 3
	maxSubtopics = 5
)

// listMarker matches bullets and numbering at the start of a line.
var listMarker = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)]|\(\d+\))\s*`)

// investigate searches and fetches sources for query and compresses them
// into one summary. It returns the summary with the number of sources
// that were fetched and the number that were dropped.
func (a *Aggregator) investigate(ctx context.Context, query, topic string) (string, int, int) {
	pages, failed := a.gather(ctx, query)
	return a.gen.Generate(ctx, summaryPrompt(query, topic, pages, a.maxChars)), len(pages), failed
}

// gather fetches up to maxSources pages for query. Fetches run
// concurrently; the returned pages keep the search result order.
func (a *Aggregator) gather(ctx context.Context, query string) ([]Page, int) {
	urls, err := a.searcher.Search(ctx, query, a.maxSources)
	if err != nil {
		a.logger.Warn("search failed",
			zap.String("searcher", a.searcher.Name()),
			zap.String("query", query),
			zap.Error(err))
		return nil, 0
	}
	if len(urls) > a.maxSources {
		urls = urls[:a.maxSources]
	}

	pages := make([]Page, len(urls))
	errs := make([]error, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			p, err := a.fetcher.Fetch(ctx, u)
			if err == nil && strings.TrimSpace(p.Text) == "" {
				err = errors.New("no text extracted")
			}
			if err != nil {
				errs[i] = &SourceFetchError{URL: u, Err: err}
				return nil
			}
			if p.URL == "" {
				p.URL = u
			}
			pages[i] = p
			return nil
		})
	}
	g.Wait()

	kept := pages[:0]
	failed := 0
	for i, p := range pages {
		if errs[i] != nil {
			failed++
			a.logger.Warn("dropping source",
				zap.String("fetcher", a.fetcher.Name()),
				zap.Error(errs[i]))
			continue
		}
		kept = append(kept, p)
	}
	return kept, failed
}

// summaryPrompt asks for a compressed summary of the fetched sources.
// Without sources the prompt carries only the topic.
func summaryPrompt(query, topic string, pages []Page, maxChars int) string {
	var b strings.Builder
	b.WriteString("Summarize the research material below into a concise, factual overview.\n")
	fmt.Fprintf(&b, "%s %s\n", gateway.TopicLabel, query)
	if query != topic {
		fmt.Fprintf(&b, "Main subject: %s\n", topic)
	}
	b.WriteString("Focus on key facts, recent developments, and points of expert disagreement. Use 150 to 250 words.\n")
	if len(pages) == 0 {
		return b.String()
	}
	b.WriteString("\nSOURCES:\n")
	for i, p := range pages {
		fmt.Fprintf(&b, "\n[%d] %s", i+1, p.URL)
		if p.Title != "" {
			fmt.Fprintf(&b, " (%s)", p.Title)
		}
		b.WriteString("\n")
		b.WriteString(truncate(p.Text, maxChars))
		b.WriteString("\n")
	}
	return b.String()
}

// deriveSubtopics asks for 3 to 5 subtopics and pads a short answer from
// fixed templates.
func (a *Aggregator) deriveSubtopics(ctx context.Context, topic string) []string {
	prompt := fmt.Sprintf("List 3 to 5 key subtopics to research, one per line, with no commentary.\n%s %s\n", gateway.TopicLabel, topic)
	subs := parseSubtopics(a.gen.Generate(ctx, prompt))
	for _, t := range subtopicTemplates {
		if len(subs) >= minSubtopics {
			break
		}
		s := fmt.Sprintf(t, topic)
		if !containsFold(subs, s) {
			subs = append(subs, s)
		}
	}
	return subs
}

var subtopicTemplates = []string{
	"History of %s",
	"How %s works",
	"Applications of %s",
	"Future of %s",
}

// parseSubtopics splits a response into lines, strips list markers, drops
// duplicates and headings, and keeps at most five.
func parseSubtopics(text string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = listMarker.ReplaceAllString(line, "")
		line = strings.Trim(line, " *_\"'`")
		line = strings.TrimSuffix(line, ".")
		if line == "" || strings.HasSuffix(line, ":") || strings.HasPrefix(line, "#") {
			continue
		}
		if containsFold(out, line) {
			continue
		}
		out = append(out, line)
		if len(out) == maxSubtopics {
			break
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
