// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/article-engine/internal/draft"
	"github.com/pdiddy/article-engine/internal/gateway"
	"github.com/pdiddy/article-engine/internal/structured"
	"github.com/pdiddy/article-engine/pkg/types"
)

// maxChangeContext bounds how much of each draft the change summary
// prompt quotes.
const maxChangeContext = 4000

// Fixed notes used when the change summary cannot be parsed.
var defaultReviewNotes = types.ReviewNotes{
	Readability: "Improved sentence structure and clarity",
	Engagement:  "Enhanced hooks and examples",
	Coherence:   "Improved transitions between sections",
}

// Reviewer revises the draft section by section for readability,
// engagement, and coherence.
type Reviewer struct {
	Gen    Generator
	Logger *zap.Logger
}

// Phase returns PhaseReviewing.
func (r *Reviewer) Phase() types.Phase { return types.PhaseReviewing }

type revisionData struct {
	Topic        string
	Heading      string
	Style        styleView
	Tone         string
	Text         string
	InputMarker  string
	OutputMarker string
}

type changesData struct {
	Topic    string
	Original string
	Revised  string
}

// Run sets Reviewed and ReviewNotes. Each "## " section is revised on its
// own, so the reviewed article has the same sections in the same order as
// the draft. An empty revision keeps the original section text.
func (r *Reviewer) Run(ctx context.Context, s types.ArticleState, p Params) (types.ArticleState, error) {
	if strings.TrimSpace(s.Draft) == "" {
		return s, ErrEmptyDraft
	}
	out := s.Clone()
	preamble, blocks := draft.Split(s.Draft)

	revised := make([]draft.Block, len(blocks))
	var g errgroup.Group
	g.SetLimit(p.workers())
	for i, b := range blocks {
		g.Go(func() error {
			revised[i] = b
			if strings.TrimSpace(b.Body) == "" {
				return nil
			}
			prompt, err := render(reviewPromptTmpl, revisionData{
				Topic:        s.Topic,
				Heading:      b.Heading,
				Style:        styleFor(p),
				Text:         b.Body,
				InputMarker:  gateway.RevisionInputMarker,
				OutputMarker: gateway.RevisionOutputMarker,
			})
			if err != nil {
				return err
			}
			if text := stripHeading(r.Gen.Generate(ctx, prompt)); text != "" {
				revised[i].Body = text
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s, err
	}

	out.Reviewed = draft.Join(preamble, revised)
	if len(blocks) == 0 {
		out.Reviewed = s.Draft
	}

	notes, err := r.summarize(ctx, s.Topic, s.Draft, out.Reviewed)
	if err != nil {
		return s, err
	}
	out.ReviewNotes = &notes
	return out, nil
}

// summarize asks for a JSON summary of what changed. Malformed output
// yields the fixed notes with the raw response under Other.
func (r *Reviewer) summarize(ctx context.Context, topic, original, revised string) (types.ReviewNotes, error) {
	prompt, err := render(changesPromptTmpl, changesData{
		Topic:    topic,
		Original: clip(original, maxChangeContext),
		Revised:  clip(revised, maxChangeContext),
	})
	if err != nil {
		return types.ReviewNotes{}, err
	}
	text := r.Gen.Generate(ctx, prompt)

	var notes types.ReviewNotes
	if err := structured.Decode(text, &notes); err != nil {
		nopIfNil(r.Logger).Warn("review change summary unreadable", zap.Error(err))
		notes = defaultReviewNotes
		notes.Other = clip(strings.TrimSpace(text), 500)
	}
	return notes, nil
}

// clip shortens s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
