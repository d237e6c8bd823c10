// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package platform is the catalogue of writing styles and publishing
// platforms, with the style profile for each platform.
package platform

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Styles maps each writing style to a short description.
var Styles = map[types.WritingStyle]string{
	types.StyleConversational: "Friendly and casual, like talking to a friend",
	types.StyleProfessional:   "Formal and authoritative, suitable for business or academic contexts",
	types.StyleStorytelling:   "Narrative-driven with anecdotes and vivid descriptions",
	types.StyleInstructional:  "Clear, step-by-step guidance with practical advice",
}

// Platforms maps each publishing platform to a short description.
var Platforms = map[types.Platform]string{
	types.PlatformMedium:   "Medium.com - Popular blogging platform with a wide audience",
	types.PlatformSubstack: "Substack - Newsletter platform with a subscription model",
	types.PlatformDevTo:    "Dev.to - Community for developers with technical content",
	types.PlatformLinkedIn: "LinkedIn Articles - Professional content for your network",
	types.PlatformNone:     "No specific platform - General purpose article",
}

// domains maps platforms to the host used for site-restricted searches.
var domains = map[types.Platform]string{
	types.PlatformMedium:   "medium.com",
	types.PlatformSubstack: "substack.com",
	types.PlatformDevTo:    "dev.to",
	types.PlatformLinkedIn: "linkedin.com",
}

var profiles = map[types.Platform]types.PlatformStyle{
	types.PlatformMedium: {
		Platform:        types.PlatformMedium,
		AvgWordCount:    1200,
		AvgSectionCount: 5,
		CommonFormats:   []string{"listicle", "how-to", "personal story"},
		Tone:            "conversational yet informative",
		CommonPatterns: []string{
			"Use of first-person perspective",
			"Personal anecdotes mixed with factual information",
			"Subheadings that pose questions",
			"Short, punchy paragraphs",
			"Use of embedded links to other articles",
		},
	},
	types.PlatformSubstack: {
		Platform:        types.PlatformSubstack,
		AvgWordCount:    1500,
		AvgSectionCount: 4,
		CommonFormats:   []string{"newsletter", "essay", "analysis"},
		Tone:            "personal and authoritative",
		CommonPatterns: []string{
			"Direct address to subscribers",
			"More in-depth analysis than typical blog posts",
			"Personal voice with expert positioning",
			"Clear section breaks with thematic shifts",
			"Call to action for subscribing or sharing",
		},
	},
	types.PlatformDevTo: {
		Platform:        types.PlatformDevTo,
		AvgWordCount:    1000,
		AvgSectionCount: 6,
		CommonFormats:   []string{"tutorial", "explainer", "list"},
		Tone:            "casual and practical",
		CommonPatterns: []string{
			"Code snippets with explanations",
			"Step-by-step instructions",
			"Practical examples and use cases",
			"Informal, developer-to-developer tone",
			"Frequent use of headings and lists",
		},
	},
}

// defaultProfile applies to platforms without a dedicated profile.
var defaultProfile = types.PlatformStyle{
	AvgWordCount:    1000,
	AvgSectionCount: 5,
	CommonFormats:   []string{"article", "blog post"},
	Tone:            "informative",
	CommonPatterns: []string{
		"Clear introduction stating the purpose",
		"Logical section progression",
		"Concrete examples",
		"Concise conclusion with key takeaways",
	},
}

// ParseStyle validates a writing style name.
func ParseStyle(s string) (types.WritingStyle, error) {
	ws := types.WritingStyle(s)
	if _, ok := Styles[ws]; !ok {
		return "", fmt.Errorf("unknown writing style %q (valid: %v)", s, StyleNames())
	}
	return ws, nil
}

// ParsePlatform validates a platform name. The empty string means none.
func ParsePlatform(s string) (types.Platform, error) {
	if s == "" {
		return types.PlatformNone, nil
	}
	p := types.Platform(s)
	if _, ok := Platforms[p]; !ok {
		return "", fmt.Errorf("unknown platform %q (valid: %v)", s, PlatformNames())
	}
	return p, nil
}

// StyleNames returns the sorted style names.
func StyleNames() []string {
	names := make([]string, 0, len(Styles))
	for s := range Styles {
		names = append(names, string(s))
	}
	slices.Sort(names)
	return names
}

// PlatformNames returns the sorted platform names.
func PlatformNames() []string {
	names := make([]string, 0, len(Platforms))
	for p := range Platforms {
		names = append(names, string(p))
	}
	slices.Sort(names)
	return names
}

// Profile returns the style profile for p, or nil for PlatformNone. Known
// platforms without a dedicated profile get the default one.
func Profile(p types.Platform) *types.PlatformStyle {
	if p == "" || p == types.PlatformNone {
		return nil
	}
	prof, ok := profiles[p]
	if !ok {
		prof = defaultProfile
		prof.Platform = p
	}
	prof = prof.Clone()
	return &prof
}

// Domain returns the host articles on p are published under, or "".
func Domain(p types.Platform) string {
	return domains[p]
}

// Matches reports whether rawURL is hosted on the domain of p.
func Matches(p types.Platform, rawURL string) bool {
	d := Domain(p)
	if d == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == d || len(host) > len(d) && host[len(host)-len(d)-1:] == "."+d
}
