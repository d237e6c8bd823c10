// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/internal/draft"
	"github.com/pdiddy/article-engine/internal/structured"
	"github.com/pdiddy/article-engine/pkg/types"
)

// Planner produces the article outline.
type Planner struct {
	Gen    Generator
	Logger *zap.Logger

	// Outline, when set, is used as is and no generation call is made.
	Outline *types.Outline
}

// Phase returns PhasePlanning.
func (pl *Planner) Phase() types.Phase { return types.PhasePlanning }

type outlineData struct {
	Topic       string
	Description string
	Style       styleView
	Profile     *types.PlatformStyle
	Research    string
}

type outlineResponse struct {
	Title    string `json:"title"`
	Sections []struct {
		Heading      string   `json:"heading"`
		BulletPoints []string `json:"bullet_points"`
	} `json:"sections"`
}

// Run sets s.Outline. A response that cannot be parsed, or that has no
// sections or more than draft.MaxSections, is replaced by the default
// outline for the topic.
func (pl *Planner) Run(ctx context.Context, s types.ArticleState, p Params) (types.ArticleState, error) {
	out := s.Clone()

	if pl.Outline != nil {
		o := pl.Outline.Clone()
		for i := range o.Sections {
			if o.Sections[i].ID == "" {
				o.Sections[i].ID = draft.SectionID(i)
			}
		}
		if strings.TrimSpace(o.Title) == "" {
			o.Title = s.Topic
		}
		if err := o.Validate(); err != nil {
			return s, fmt.Errorf("user outline: %w", err)
		}
		out.Outline = o
		return out, nil
	}

	data := outlineData{
		Topic:       s.Topic,
		Description: s.Description,
		Style:       styleFor(p),
		Profile:     p.PlatformStyle,
	}
	if s.Research != nil {
		data.Research = strings.TrimSpace(s.Research.Summary)
	}

	prompt, err := render(outlinePromptTmpl, data)
	if err != nil {
		return s, err
	}
	text := pl.Gen.Generate(ctx, prompt)
	o, err := parseOutline(text, s.Topic)
	if err != nil {
		nopIfNil(pl.Logger).Warn("using default outline", zap.String("topic", s.Topic), zap.Error(err))
		o = draft.DefaultOutline(s.Topic)
	}
	if err := o.Validate(); err != nil {
		return s, fmt.Errorf("outline: %w", err)
	}
	out.Outline = o
	return out, nil
}

// parseOutline decodes the JSON outline in text and assigns section IDs.
func parseOutline(text, topic string) (types.Outline, error) {
	var resp outlineResponse
	if err := structured.Decode(text, &resp); err != nil {
		return types.Outline{}, err
	}
	if len(resp.Sections) == 0 {
		return types.Outline{}, fmt.Errorf("%w: outline has no sections", structured.ErrMalformed)
	}
	if len(resp.Sections) > draft.MaxSections {
		return types.Outline{}, fmt.Errorf("%w: outline has %d sections, limit is %d",
			structured.ErrMalformed, len(resp.Sections), draft.MaxSections)
	}

	o := types.Outline{Title: strings.TrimSpace(resp.Title)}
	if o.Title == "" {
		o.Title = topic
	}
	for i, sec := range resp.Sections {
		heading := strings.TrimSpace(strings.TrimLeft(sec.Heading, "# "))
		if heading == "" {
			return types.Outline{}, fmt.Errorf("%w: section %d has no heading", structured.ErrMalformed, i+1)
		}
		o.Sections = append(o.Sections, types.Section{
			ID:           draft.SectionID(i),
			Heading:      heading,
			BulletPoints: sec.BulletPoints,
		})
	}
	return o, nil
}
