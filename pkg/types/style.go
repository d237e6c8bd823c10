// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "slices"

// WritingStyle selects the voice an article is written in.
type WritingStyle string

const (
	StyleConversational WritingStyle = "conversational"
	StyleProfessional   WritingStyle = "professional"
	StyleStorytelling   WritingStyle = "storytelling"
	StyleInstructional  WritingStyle = "instructional"
)

// Platform identifies the publishing platform an article targets.
type Platform string

const (
	PlatformMedium   Platform = "medium"
	PlatformSubstack Platform = "substack"
	PlatformDevTo    Platform = "dev.to"
	PlatformLinkedIn Platform = "linkedin"
	PlatformNone     Platform = "none"
)

// PlatformStyle describes the conventions of articles on one platform.
type PlatformStyle struct {
	// Platform is the platform this profile describes.
	Platform Platform `json:"platform" yaml:"platform"`

	// AvgWordCount is the typical article length in words.
	AvgWordCount int `json:"avg_word_count" yaml:"avg_word_count"`

	// AvgSectionCount is the typical number of top-level sections.
	AvgSectionCount int `json:"avg_section_count" yaml:"avg_section_count"`

	// CommonFormats lists popular article formats (e.g. "listicle", "tutorial").
	CommonFormats []string `json:"common_formats" yaml:"common_formats"`

	// Tone is a short description of the expected tone.
	Tone string `json:"tone" yaml:"tone"`

	// CommonPatterns lists recurring structural or stylistic patterns.
	CommonPatterns []string `json:"common_patterns" yaml:"common_patterns"`
}

// Clone returns a deep copy of p.
func (p PlatformStyle) Clone() PlatformStyle {
	p.CommonFormats = slices.Clone(p.CommonFormats)
	p.CommonPatterns = slices.Clone(p.CommonPatterns)
	return p
}
