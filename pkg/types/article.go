// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data structures shared by every pipeline stage:
// article state, outlines, research bundles, progress events, metadata,
// and configuration.
package types

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrEmptyOutline is returned when an outline has no sections.
	ErrEmptyOutline = errors.New("outline has no sections")

	// ErrDuplicateSection is returned when two sections share an ID.
	ErrDuplicateSection = errors.New("duplicate section id")
)

// Section is one entry of an article outline. Section order within an
// Outline governs final assembly order.
type Section struct {
	// ID uniquely identifies the section within its outline (e.g. "s01").
	ID string `json:"id" yaml:"id"`

	// Heading is the section heading rendered as "## Heading".
	Heading string `json:"heading" yaml:"heading"`

	// BulletPoints are the guidance points the section should cover.
	BulletPoints []string `json:"bullet_points,omitempty" yaml:"bullet_points,omitempty"`

	// GeneratedContent is the section body filled in by the write stage.
	GeneratedContent string `json:"generated_content,omitempty" yaml:"generated_content,omitempty"`
}

// Outline is the ordered plan for one article.
type Outline struct {
	// Title is the article title rendered as "# Title".
	Title string `json:"title" yaml:"title"`

	// Sections lists the article sections in assembly order.
	Sections []Section `json:"sections" yaml:"sections"`
}

// Validate reports whether the outline is usable for writing: it must have
// at least one section and every section ID must be non-empty and unique.
func (o Outline) Validate() error {
	if len(o.Sections) == 0 {
		return ErrEmptyOutline
	}
	seen := make(map[string]bool, len(o.Sections))
	for i, s := range o.Sections {
		if s.ID == "" {
			return fmt.Errorf("section %d: empty id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateSection, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// IDs returns the section IDs in outline order.
func (o Outline) IDs() []string {
	ids := make([]string, len(o.Sections))
	for i, s := range o.Sections {
		ids[i] = s.ID
	}
	return ids
}

// Clone returns a deep copy of the outline.
func (o Outline) Clone() Outline {
	out := Outline{Title: o.Title, Sections: make([]Section, len(o.Sections))}
	for i, s := range o.Sections {
		s.BulletPoints = slices.Clone(s.BulletPoints)
		out.Sections[i] = s
	}
	return out
}

// ReviewNotes summarises what the review stage changed.
type ReviewNotes struct {
	Readability string `json:"readability" yaml:"readability"`
	Engagement  string `json:"engagement" yaml:"engagement"`
	Coherence   string `json:"coherence" yaml:"coherence"`
	Other       string `json:"other,omitempty" yaml:"other,omitempty"`
}

// ArticleState is the record one pipeline run threads through its stages.
// The orchestrator owns the single instance for a run; stages receive a
// copy and return an updated copy.
type ArticleState struct {
	// Topic is the subject of the article.
	Topic string `json:"topic" yaml:"topic"`

	// Description is optional extra guidance from the user.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Style is the requested writing style.
	Style WritingStyle `json:"style" yaml:"style"`

	// Platform is the target publishing platform.
	Platform Platform `json:"platform" yaml:"platform"`

	// PlatformStyle is the style profile for Platform, nil for PlatformNone.
	PlatformStyle *PlatformStyle `json:"platform_style,omitempty" yaml:"platform_style,omitempty"`

	// Research is the background bundle gathered before planning.
	Research *ResearchBundle `json:"research,omitempty" yaml:"research,omitempty"`

	// Outline is the plan produced by the plan stage.
	Outline Outline `json:"outline" yaml:"outline"`

	// SectionContent maps section ID to generated text.
	SectionContent map[string]string `json:"section_content,omitempty" yaml:"section_content,omitempty"`

	// Draft is the assembled article after writing.
	Draft string `json:"draft,omitempty" yaml:"draft,omitempty"`

	// Reviewed is the article after the review stage.
	Reviewed string `json:"reviewed,omitempty" yaml:"reviewed,omitempty"`

	// Final is the article after the humanize stage.
	Final string `json:"final,omitempty" yaml:"final,omitempty"`

	// ReviewNotes summarises the changes made by the review stage.
	ReviewNotes *ReviewNotes `json:"review_notes,omitempty" yaml:"review_notes,omitempty"`

	// Timings maps phase name to elapsed seconds.
	Timings map[Phase]float64 `json:"timings" yaml:"timings"`
}

// NewArticleState returns an empty state for one run.
func NewArticleState(topic, description string, style WritingStyle, platform Platform) ArticleState {
	return ArticleState{
		Topic:          topic,
		Description:    description,
		Style:          style,
		Platform:       platform,
		SectionContent: map[string]string{},
		Timings:        map[Phase]float64{},
	}
}

// Clone returns a deep copy of s so a stage can build its result without
// touching the caller's value.
func (s ArticleState) Clone() ArticleState {
	out := s
	out.Outline = s.Outline.Clone()
	out.SectionContent = maps.Clone(s.SectionContent)
	if out.SectionContent == nil {
		out.SectionContent = map[string]string{}
	}
	out.Timings = maps.Clone(s.Timings)
	if out.Timings == nil {
		out.Timings = map[Phase]float64{}
	}
	if s.PlatformStyle != nil {
		ps := s.PlatformStyle.Clone()
		out.PlatformStyle = &ps
	}
	if s.Research != nil {
		rb := s.Research.Clone()
		out.Research = &rb
	}
	if s.ReviewNotes != nil {
		rn := *s.ReviewNotes
		out.ReviewNotes = &rn
	}
	return out
}

// Article returns the most finished text the state holds.
func (s ArticleState) Article() string {
	switch {
	case s.Final != "":
		return s.Final
	case s.Reviewed != "":
		return s.Reviewed
	default:
		return s.Draft
	}
}
