// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/internal/draft"
	"github.com/pdiddy/article-engine/internal/gateway"
	"github.com/pdiddy/article-engine/pkg/types"
)

// Humanizer gives the reviewed article a personal voice.
type Humanizer struct {
	Gen    Generator
	Logger *zap.Logger
}

// Phase returns PhaseHumanizing.
func (h *Humanizer) Phase() types.Phase { return types.PhaseHumanizing }

// Run sets Final. The conversational and storytelling styles get a second
// pass that adds small human touches. The leading "# " title line of the
// input is always kept. A pass that loses "## " sections is discarded.
func (h *Humanizer) Run(ctx context.Context, s types.ArticleState, p Params) (types.ArticleState, error) {
	input := s.Reviewed
	if strings.TrimSpace(input) == "" {
		input = s.Draft
	}
	if strings.TrimSpace(input) == "" {
		return s, ErrEmptyDraft
	}
	out := s.Clone()
	logger := nopIfNil(h.Logger)

	tone := ""
	if p.PlatformStyle != nil {
		tone = p.PlatformStyle.Tone
	}
	passes := []struct {
		name string
		run  bool
	}{
		{"voice", true},
		{"imperfections", p.Style == types.StyleConversational || p.Style == types.StyleStorytelling},
	}

	text := input
	for _, pass := range passes {
		if !pass.run {
			continue
		}
		tmpl := voicePromptTmpl
		if pass.name == "imperfections" {
			tmpl = imperfectionsPromptTmpl
		}
		prompt, err := render(tmpl, revisionData{
			Topic:        s.Topic,
			Style:        styleFor(p),
			Tone:         tone,
			Text:         text,
			InputMarker:  gateway.RevisionInputMarker,
			OutputMarker: gateway.RevisionOutputMarker,
		})
		if err != nil {
			return s, err
		}
		next := strings.TrimSpace(h.Gen.Generate(ctx, prompt))
		if next == "" || draft.CountHeadings(next) < draft.CountHeadings(text) {
			logger.Warn("discarding humanize pass",
				zap.String("pass", pass.name),
				zap.Int("headings_before", draft.CountHeadings(text)),
				zap.Int("headings_after", draft.CountHeadings(next)))
			continue
		}
		text = next
	}

	if titleLine, ok := draft.TitleLine(input); ok {
		text = draft.EnsureTitle(text, titleLine)
	}
	out.Final = strings.TrimRight(text, "\n") + "\n"
	return out, nil
}
