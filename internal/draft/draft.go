// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft provides utilities for outlines and Markdown article drafts:
// loading user outlines, the built-in default outline, assembling sections
// into an article, and splitting an article back into its sections.
package draft

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-engine/pkg/types"
)

// MaxSections is the largest outline the plan stage accepts.
const MaxSections = 10

// titlePattern matches the leading "# Title" line of an article.
var titlePattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// headingPattern matches "## Heading" lines.
var headingPattern = regexp.MustCompile(`(?m)^##\s+(.+)$`)

// LoadOutline reads a YAML outline file supplied by the user and assigns
// section IDs where they are missing.
func LoadOutline(path string) (*types.Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}
	var outline types.Outline
	if err := yaml.Unmarshal(data, &outline); err != nil {
		return nil, fmt.Errorf("parsing outline: %w", err)
	}
	for i := range outline.Sections {
		if outline.Sections[i].ID == "" {
			outline.Sections[i].ID = SectionID(i)
		}
	}
	if err := outline.Validate(); err != nil {
		return nil, fmt.Errorf("validating outline: %w", err)
	}
	return &outline, nil
}

// SectionID returns the ID for the section at index i: s01, s02, ...
func SectionID(i int) string {
	return fmt.Sprintf("s%02d", i+1)
}

// DefaultOutline is the fixed six-section outline used whenever a usable
// outline cannot be obtained from the generative service.
func DefaultOutline(topic string) types.Outline {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "This Topic"
	}
	headings := []struct {
		heading string
		bullets []string
	}{
		{"Introduction", []string{
			"What " + topic + " is and why it matters",
			"What readers will learn",
		}},
		{"Understanding " + topic, []string{
			"Core concepts and terminology",
			"How it works in practice",
		}},
		{"Key Applications", []string{
			"Where " + topic + " is used today",
			"Notable examples",
		}},
		{"Challenges and Limitations", []string{
			"Current constraints",
			"Open problems and trade-offs",
		}},
		{"The Future of " + topic, []string{
			"Emerging trends",
			"What to expect in the next decade",
		}},
		{"Conclusion", []string{
			"Summary of key points",
			"Call to action for readers",
		}},
	}

	out := types.Outline{Title: topic + ": A Practical Overview"}
	for i, h := range headings {
		out.Sections = append(out.Sections, types.Section{
			ID:           SectionID(i),
			Heading:      h.heading,
			BulletPoints: h.bullets,
		})
	}
	return out
}

// Assemble renders the outline as a Markdown article: a "# Title" line
// followed by one "## Heading" block per section in outline order.
func Assemble(outline types.Outline, content map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", strings.TrimSpace(outline.Title))
	for _, s := range outline.Sections {
		fmt.Fprintf(&sb, "\n## %s\n\n", strings.TrimSpace(s.Heading))
		body := strings.TrimSpace(content[s.ID])
		if body == "" {
			body = strings.TrimSpace(s.GeneratedContent)
		}
		if body != "" {
			sb.WriteString(body)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Block is one "## " section of an article, heading line included.
type Block struct {
	Heading string
	Body    string
}

// Split breaks an article into its preamble (title line and anything before
// the first "## " heading) and its sections in order.
func Split(article string) (preamble string, blocks []Block) {
	locs := headingPattern.FindAllStringSubmatchIndex(article, -1)
	if len(locs) == 0 {
		return article, nil
	}
	preamble = article[:locs[0][0]]
	for i, loc := range locs {
		end := len(article)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, Block{
			Heading: strings.TrimSpace(article[loc[2]:loc[3]]),
			Body:    strings.TrimSpace(article[loc[1]:end]),
		})
	}
	return preamble, blocks
}

// Join is the inverse of Split.
func Join(preamble string, blocks []Block) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(preamble, "\n"))
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	for _, b := range blocks {
		fmt.Fprintf(&sb, "\n## %s\n\n", b.Heading)
		if b.Body != "" {
			sb.WriteString(b.Body)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Title returns the text of the first "# " line, or "".
func Title(article string) string {
	m := titlePattern.FindStringSubmatch(article)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// TitleLine returns the first line of article when it is a "# " title line.
func TitleLine(article string) (string, bool) {
	first, _, _ := strings.Cut(strings.TrimLeft(article, "\n"), "\n")
	first = strings.TrimRight(first, "\r ")
	if strings.HasPrefix(first, "# ") {
		return first, true
	}
	return "", false
}

// EnsureTitle makes sure text starts with titleLine, replacing a different
// leading title line or prepending it when missing.
func EnsureTitle(text, titleLine string) string {
	trimmed := strings.TrimLeft(text, "\n")
	if current, ok := TitleLine(trimmed); ok {
		if current == titleLine {
			return trimmed
		}
		_, rest, _ := strings.Cut(trimmed, "\n")
		return titleLine + "\n" + rest
	}
	return titleLine + "\n\n" + trimmed
}

// CountHeadings returns the number of "## " headings in article.
func CountHeadings(article string) int {
	return len(headingPattern.FindAllStringIndex(article, -1))
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// slugPattern matches runs of characters not allowed in a slug.
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a topic to a lowercase, hyphenated file name fragment of at
// most 50 characters.
func Slug(s string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(slug) > 50 {
		slug = strings.TrimRight(slug[:50], "-")
	}
	if slug == "" {
		slug = "article"
	}
	return slug
}
