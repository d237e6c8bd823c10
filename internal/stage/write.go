// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/article-engine/internal/draft"
	"github.com/pdiddy/article-engine/internal/progress"
	"github.com/pdiddy/article-engine/pkg/types"
)

// defaultArticleWords is the target length when no platform profile
// applies.
const defaultArticleWords = 1000

// minSectionWords keeps the per-section target sensible for long outlines.
const minSectionWords = 120

// Writer generates the body of every outline section.
type Writer struct {
	Gen    Generator
	Logger *zap.Logger
}

// Phase returns PhaseWriting.
func (w *Writer) Phase() types.Phase { return types.PhaseWriting }

type sectionData struct {
	Topic    string
	Title    string
	Heading  string
	Style    styleView
	Tone     string
	Bullets  []string
	Research string
	Words    int
}

// Run fills SectionContent and the GeneratedContent of each section, then
// assembles Draft in outline order. Sections may be generated in parallel;
// a ProgressEvent is emitted as each one completes.
func (w *Writer) Run(ctx context.Context, s types.ArticleState, p Params) (types.ArticleState, error) {
	if err := s.Outline.Validate(); err != nil {
		return s, fmt.Errorf("outline: %w", err)
	}
	out := s.Clone()
	sections := out.Outline.Sections
	total := len(sections)

	words := defaultArticleWords
	tone := ""
	if p.PlatformStyle != nil {
		words = p.PlatformStyle.AvgWordCount
		tone = p.PlatformStyle.Tone
	}
	perSection := max(words/total, minSectionWords)

	bodies := make([]string, total)
	var (
		mu   sync.Mutex
		done int
	)
	var g errgroup.Group
	g.SetLimit(p.workers())
	for i, sec := range sections {
		g.Go(func() error {
			data := sectionData{
				Topic:    s.Topic,
				Title:    out.Outline.Title,
				Heading:  sec.Heading,
				Style:    styleFor(p),
				Tone:     tone,
				Bullets:  sec.BulletPoints,
				Research: researchFor(s.Research, sec.Heading),
				Words:    perSection,
			}
			prompt, err := render(sectionPromptTmpl, data)
			if err != nil {
				return err
			}
			bodies[i] = stripHeading(w.Gen.Generate(ctx, prompt))

			mu.Lock()
			done++
			progress.Emit(p.Observer, types.ProgressEvent{
				Phase:   types.PhaseWriting,
				Section: sec.Heading,
				Current: done,
				Total:   total,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s, err
	}

	for i := range sections {
		sections[i].GeneratedContent = bodies[i]
		out.SectionContent[sections[i].ID] = bodies[i]
	}
	out.Draft = draft.Assemble(out.Outline, out.SectionContent)

	nopIfNil(w.Logger).Debug("sections written",
		zap.Int("sections", total),
		zap.Int("words", draft.WordCount(out.Draft)))
	return out, nil
}

// researchFor picks the research text for a heading.
func researchFor(b *types.ResearchBundle, heading string) string {
	if b == nil {
		return ""
	}
	return strings.TrimSpace(b.SummaryFor(heading))
}
