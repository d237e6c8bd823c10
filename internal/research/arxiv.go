// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivSearcher finds sources among arXiv papers. It suits technical topics
// and needs no API key. Results link to the abstract pages.
type ArxivSearcher struct {
	Client *http.Client
}

// Name returns the searcher identifier.
func (s *ArxivSearcher) Name() string { return "arxiv" }

// Search returns up to max abstract URLs for query, most relevant first.
func (s *ArxivSearcher) Search(ctx context.Context, query string, max int) ([]string, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(max)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	parser := gofeed.NewParser()
	if s.Client != nil {
		parser.Client = s.Client
	}
	feed, err := parser.ParseURLWithContext(arxivAPIBase+"?"+params.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}

	var urls []string
	for _, item := range feed.Items {
		id := extractArxivID(item.GUID)
		if id == "" {
			id = extractArxivID(item.Link)
		}
		if id == "" {
			continue
		}
		urls = append(urls, "https://arxiv.org/abs/"+id)
		if len(urls) == max {
			break
		}
	}
	return urls, nil
}

// buildArxivQuery turns free text into an all-fields conjunction. Search
// operators such as site: mean nothing to arXiv and are dropped.
func buildArxivQuery(query string) string {
	var terms []string
	for _, f := range strings.Fields(query) {
		if strings.Contains(f, ":") {
			continue
		}
		terms = append(terms, "all:"+f)
	}
	return strings.Join(terms, " AND ")
}

// extractArxivID pulls the arXiv ID from an entry URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" gives "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip the version suffix.
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
