// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Scorer rates how relevant each candidate angle is to a topic, returning
// one score in [0, 1] per candidate.
type Scorer interface {
	Score(ctx context.Context, topic string, candidates []string) ([]float64, error)
}

type angle struct {
	template  string
	relevance float64
}

var angles = []angle{
	{"future of", 0.9},
	{"impact on society", 0.8},
	{"ethical considerations", 0.7},
	{"best practices", 0.85},
	{"case studies", 0.75},
}

// trending builds the angle list for topic, sorted by relevance. A
// scorer failure keeps the template relevance.
func (a *Aggregator) trending(ctx context.Context, topic string) []types.TrendingTopic {
	out := make([]types.TrendingTopic, len(angles))
	names := make([]string, len(angles))
	for i, an := range angles {
		names[i] = an.template + " " + topic
		out[i] = types.TrendingTopic{
			Name:           names[i],
			Description:    fmt.Sprintf("Explore how %s is changing the landscape", names[i]),
			RelevanceScore: an.relevance,
		}
	}

	if a.scorer != nil {
		scores, err := a.scorer.Score(ctx, topic, names)
		switch {
		case err != nil:
			a.logger.Warn("trending topic scoring failed", zap.Error(err))
		case len(scores) != len(out):
			a.logger.Warn("trending topic scorer returned wrong count",
				zap.Int("want", len(out)), zap.Int("got", len(scores)))
		default:
			for i := range out {
				out[i].RelevanceScore = clamp01(scores[i])
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}

// DefaultCohereModel is the embedding model used by CohereScorer.
const DefaultCohereModel = "embed-english-v3.0"

// CohereScorer scores candidates by the cosine similarity of their
// embeddings to the topic embedding.
type CohereScorer struct {
	client *cohereclient.Client
	model  string
}

// NewCohereScorer returns a scorer authenticated with apiKey. A nil
// httpClient selects one with a 60s timeout.
func NewCohereScorer(apiKey string, httpClient *http.Client) *CohereScorer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &CohereScorer{
		client: cohereclient.NewClient(
			cohereclient.WithToken(apiKey),
			cohereclient.WithHTTPClient(httpClient),
		),
		model: DefaultCohereModel,
	}
}

// Score embeds the topic together with the candidates in one request.
func (s *CohereScorer) Score(ctx context.Context, topic string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	texts := append([]string{topic}, candidates...)
	resp, err := s.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:          texts,
		Model:          s.model,
		InputType:      cohere.EmbedInputTypeSearchDocument,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embed: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, errors.New("cohere embed returned no float embeddings")
	}
	vecs := resp.Embeddings.Float
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("cohere embed returned %d vectors for %d texts", len(vecs), len(texts))
	}

	scores := make([]float64, len(candidates))
	for i := range candidates {
		scores[i] = cosine(vecs[0], vecs[i+1])
	}
	return scores, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
