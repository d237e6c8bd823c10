// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/article-engine/internal/httputil"
	"github.com/pdiddy/article-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1
}

const samplePage = `<!DOCTYPE html>
<html><head><title>Quantum Basics</title><script>var x = 1;</script></head>
<body>
<nav>Home | About</nav>
<article>
<h1>Quantum Basics</h1>
<p>Quantum computers use qubits to represent information in superposition.</p>
<h2>What is a qubit?</h2>
<p>A qubit can be zero, one, or both at once until it is measured by an observer.</p>
<h2>Why it <em>matters</em></h2>
<p>Some problems such as factoring become tractable with enough stable qubits available.</p>
<h3>Error correction</h3>
<p>Physical qubits are noisy, so many are combined into one logical qubit for reliability.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestParseHTML(t *testing.T) {
	p, err := ParseHTML(strings.NewReader(samplePage), "https://example.com/q")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/q", p.URL)
	assert.Equal(t, "Quantum Basics", p.Title)
	assert.Equal(t, []string{"What is a qubit?", "Why it matters", "Error correction"}, p.Headings)
	assert.Contains(t, p.Text, "qubits to represent information")
	assert.NotContains(t, p.Text, "var x")
	assert.NotContains(t, p.Text, "Home | About")
	assert.NotContains(t, p.Text, "Copyright")
	assert.NotContains(t, p.Text, "\n\n\n")
}

func TestHTMLFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	f := NewHTMLFetcher(0, "test-agent")
	assert.Equal(t, "html", f.Name())

	p, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Len(t, p.Headings, 3)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestHTMLFetcher_RetriesThrottling(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	p, err := NewHTMLFetcher(0, "").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Quantum Basics", p.Title)
	assert.Equal(t, 2, calls)
}

func TestReadabilityFetcher(t *testing.T) {
	var body strings.Builder
	body.WriteString("<html><head><title>Long Read</title></head><body><nav>menu</nav><article><h1>Long Read</h1>")
	for i := range 8 {
		fmt.Fprintf(&body, "<h2>Part %d</h2><p>%s</p>", i+1, strings.Repeat("Quantum systems behave in surprising ways when observed closely. ", 6))
	}
	body.WriteString("</article></body></html>")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body.String())
	}))
	defer srv.Close()

	f := NewReadabilityFetcher(0, "")
	assert.Equal(t, "readability", f.Name())

	p, err := f.Fetch(context.Background(), srv.URL+"/long-read")
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Quantum systems behave")
	assert.NotEmpty(t, p.Headings)
}

func TestReadabilityFetcher_BadURL(t *testing.T) {
	_, err := NewReadabilityFetcher(0, "").Fetch(context.Background(), "://nope")
	assert.Error(t, err)
}

func TestSerperSearcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		var req serperRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "quantum computing", req.Q)
		assert.Equal(t, 2, req.Num)
		fmt.Fprint(w, `{"organic":[{"title":"A","link":"https://a.example/1"},{"title":"no link"},{"title":"B","link":"https://b.example/2"},{"title":"C","link":"https://c.example/3"}]}`)
	}))
	defer srv.Close()

	orig := serperAPIURL
	serperAPIURL = srv.URL
	defer func() { serperAPIURL = orig }()

	s := &SerperSearcher{APIKey: "secret", Client: srv.Client()}
	urls, err := s.Search(context.Background(), "quantum computing", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, urls)
}

func TestSerperSearcher_Errors(t *testing.T) {
	_, err := (&SerperSearcher{}).Search(context.Background(), "q", 5)
	assert.ErrorContains(t, err, "no API key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	orig := serperAPIURL
	serperAPIURL = srv.URL
	defer func() { serperAPIURL = orig }()

	_, err = (&SerperSearcher{APIKey: "k", Client: srv.Client()}).Search(context.Background(), "q", 5)
	assert.ErrorContains(t, err, "HTTP 403")
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>News</title>
<item><title>One</title><link>https://news.example/1</link></item>
<item><title>Two</title><link>https://news.example/2</link></item>
<item><title>Three</title><link>https://news.example/3</link></item>
</channel></rss>`

func TestFeedSearcher(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleFeed)
	}))
	defer srv.Close()

	orig := newsFeedURL
	newsFeedURL = srv.URL
	defer func() { newsFeedURL = orig }()

	s := &FeedSearcher{Client: srv.Client()}
	urls, err := s.Search(context.Background(), "quantum computing", 2)
	require.NoError(t, err)
	assert.Equal(t, "quantum computing", gotQuery)
	assert.Equal(t, []string{"https://news.example/1", "https://news.example/2"}, urls)
}

const sampleArxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>arXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v5</id>
    <title>Attention Is All You Need</title>
    <link href="http://arxiv.org/abs/1706.03762v5" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT</title>
    <link href="http://arxiv.org/abs/1810.04805v2" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <id>http://arxiv.org/errata/1</id>
    <title>Not a paper</title>
  </entry>
</feed>`

func TestArxivSearcher(t *testing.T) {
	var gotQuery, gotMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		gotMax = r.URL.Query().Get("max_results")
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, sampleArxivFeed)
	}))
	defer srv.Close()

	orig := arxivAPIBase
	arxivAPIBase = srv.URL
	defer func() { arxivAPIBase = orig }()

	s := &ArxivSearcher{Client: srv.Client()}
	urls, err := s.Search(context.Background(), "site:medium.com transformer models", 5)
	require.NoError(t, err)
	assert.Equal(t, "all:transformer AND all:models", gotQuery)
	assert.Equal(t, "5", gotMax)
	assert.Equal(t, []string{
		"https://arxiv.org/abs/1706.03762",
		"https://arxiv.org/abs/1810.04805",
	}, urls)

	_, err = s.Search(context.Background(), "site:arxiv.org", 5)
	assert.ErrorContains(t, err, "empty arXiv query")
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/1706.03762v5", "1706.03762"},
		{"http://arxiv.org/abs/hep-th/9901001", "hep-th/9901001"},
		{"https://example.com/paper", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractArxivID(tt.in), tt.in)
	}
}

func TestOfflineSearcher(t *testing.T) {
	urls, err := OfflineSearcher{}.Search(context.Background(), "site:medium.com Quantum Computing", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://medium.com/quantum-computing-article-1",
		"https://medium.com/quantum-computing-article-2",
		"https://medium.com/quantum-computing-article-3",
	}, urls)

	urls, _ = OfflineSearcher{}.Search(context.Background(), "Go", 1)
	assert.Equal(t, []string{"https://example.com/go-article-1"}, urls)
}

func TestOfflineFetcher(t *testing.T) {
	p, err := OfflineFetcher{}.Fetch(context.Background(), "https://medium.com/go-article-1")
	require.NoError(t, err)
	assert.Equal(t, "go article 1", p.Title)
	assert.Len(t, p.Headings, 4)
	assert.Contains(t, p.Text, "medium.com")
}

type fixedScorer struct {
	scores []float64
	err    error
}

func (s fixedScorer) Score(context.Context, string, []string) ([]float64, error) {
	return s.scores, s.err
}

func TestTrending(t *testing.T) {
	tests := []struct {
		name      string
		scorer    Scorer
		wantFirst string
		wantScore float64
	}{
		{"template relevance", nil, "future of Go", 0.9},
		{"scored", fixedScorer{scores: []float64{0.1, 0.2, 0.95, 0.3, 0.4}}, "ethical considerations Go", 0.95},
		{"scores clamped", fixedScorer{scores: []float64{0.1, 1.7, 0.2, 0.3, -1}}, "impact on society Go", 1},
		{"scorer error keeps templates", fixedScorer{err: errors.New("down")}, "future of Go", 0.9},
		{"wrong count keeps templates", fixedScorer{scores: []float64{1}}, "future of Go", 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(nil, WithScorer(tt.scorer))
			got := a.trending(context.Background(), "Go")
			require.Len(t, got, 5)
			assert.Equal(t, tt.wantFirst, got[0].Name)
			assert.Equal(t, tt.wantScore, got[0].RelevanceScore)
			assert.Contains(t, got[0].Description, "Explore how")
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].RelevanceScore, got[i].RelevanceScore)
			}
		})
	}
}

// rewriteTransport sends every request to the test server.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestCohereScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req struct {
			Texts []string `json:"texts"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"Go", "a", "b"}, req.Texts)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"e1","response_type":"embeddings_by_type","embeddings":{"float":[[1,0],[1,0],[0,1]]},"texts":["Go","a","b"]}`)
	}))
	defer srv.Close()

	target, _ := url.Parse(srv.URL)
	s := NewCohereScorer("key", &http.Client{Transport: rewriteTransport{target: target}})

	scores, err := s.Score(context.Background(), "Go", []string{"a", "b"})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0}, scores, 1e-9)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Zero(t, cosine([]float64{1}, []float64{1, 2}))
	assert.Zero(t, cosine([]float64{0, 0}, []float64{1, 2}))
}

func TestCommonHeadings(t *testing.T) {
	pages := []Page{
		{Headings: []string{"Intro", "Setup", "Setup", "Wrap-up"}},
		{Headings: []string{"setup", "Deep Dive"}},
		{Headings: []string{"Wrap-up", "Setup"}},
	}
	assert.Equal(t, []string{"Setup", "Wrap-up", "Intro"}, commonHeadings(pages, 3))
}

func TestNewSearcherAndFetcher(t *testing.T) {
	tests := []struct {
		name       string
		cfg        types.ResearchConfig
		wantSearch string
		wantFetch  string
		wantErr    bool
		wantScorer bool
	}{
		{name: "defaults offline", wantSearch: "offline", wantFetch: "offline"},
		{name: "serper key", cfg: types.ResearchConfig{SerperAPIKey: "k"}, wantSearch: "serper", wantFetch: "readability"},
		{name: "feed with html", cfg: types.ResearchConfig{Searcher: "feed", Fetcher: "html"}, wantSearch: "feed", wantFetch: "html"},
		{name: "browser", cfg: types.ResearchConfig{Searcher: "feed", Fetcher: "browser"}, wantSearch: "feed", wantFetch: "browser"},
		{name: "arxiv", cfg: types.ResearchConfig{Searcher: "arxiv"}, wantSearch: "arxiv", wantFetch: "readability"},
		{name: "cohere", cfg: types.ResearchConfig{CohereAPIKey: "c"}, wantSearch: "offline", wantFetch: "offline", wantScorer: true},
		{name: "serper without key", cfg: types.ResearchConfig{Searcher: "serper"}, wantErr: true},
		{name: "unknown searcher", cfg: types.ResearchConfig{Searcher: "bing"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSearcher(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSearch, s.Name())

			f, err := NewFetcher(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFetch, f.Name())

			assert.Equal(t, tt.wantScorer, NewScorer(tt.cfg) != nil)
		})
	}

	_, err := NewFetcher(types.ResearchConfig{Fetcher: "curl"})
	assert.Error(t, err)
}
