// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stage implements the four generation stages of the article
// pipeline: plan, write, review, and humanize. Each stage takes the
// accumulated article state and returns an updated copy; the only calls it
// makes are to the generator it was built with.
package stage

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/internal/platform"
	"github.com/pdiddy/article-engine/internal/progress"
	"github.com/pdiddy/article-engine/pkg/types"
)

// ErrEmptyDraft is returned when a stage has no article text to work on.
var ErrEmptyDraft = errors.New("draft is empty")

// Generator answers prompts and never fails. *gateway.Gateway satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// Params are the run parameters shared by every stage.
type Params struct {
	Style         types.WritingStyle
	Platform      types.Platform
	PlatformStyle *types.PlatformStyle

	// Observer receives per-section events from the write stage. Nil is valid.
	Observer progress.Observer

	// Concurrency is the number of sections generated at once. Values
	// below 1 mean sequential.
	Concurrency int
}

// ParamsFor derives run parameters from a state.
func ParamsFor(s types.ArticleState) Params {
	return Params{
		Style:         s.Style,
		Platform:      s.Platform,
		PlatformStyle: s.PlatformStyle,
	}
}

func (p Params) workers() int {
	return max(p.Concurrency, 1)
}

// Stage is one step of the pipeline.
type Stage interface {
	Phase() types.Phase
	Run(ctx context.Context, s types.ArticleState, p Params) (types.ArticleState, error)
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// styleView is the template data describing the requested voice.
type styleView struct {
	Name        string
	Description string
}

func styleFor(p Params) styleView {
	s := p.Style
	if s == "" {
		s = types.StyleConversational
	}
	return styleView{Name: string(s), Description: platform.Styles[s]}
}

// topHeading matches "# " and "## " lines, which would start a new title or
// section if left in a section body.
var topHeading = regexp.MustCompile(`(?m)^#{1,2}[ \t]+`)

// stripHeading removes a leading Markdown heading line the model may have
// repeated at the start of a section body, and demotes any other title or
// section headings in the body to "### " so the outline stays intact.
func stripHeading(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "#") {
		_, rest, _ := strings.Cut(t, "\n")
		t = strings.TrimSpace(rest)
	}
	return topHeading.ReplaceAllString(t, "### ")
}
