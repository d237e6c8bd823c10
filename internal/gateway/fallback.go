// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/article-engine/internal/draft"
)

// Prompt conventions the offline generator recognises. Stage prompts put
// the topic and section heading on their own labelled lines and wrap text
// to be revised between the two revision markers.
const (
	TopicLabel           = "Topic:"
	HeadingLabel         = "Section heading:"
	RevisionInputMarker  = "TEXT TO REVISE:"
	RevisionOutputMarker = "REVISED TEXT:"
)

var (
	topicLine   = regexp.MustCompile(`(?mi)^\s*topic:\s*(.+?)\s*$`)
	headingLine = regexp.MustCompile(`(?mi)^\s*section heading:\s*(.+?)\s*$`)
)

// Fallback produces canned, topic-aware text from a prompt. It is a pure
// function of its input: it never fails, never blocks, and returns the same
// text for the same prompt. Routing keywords are matched against the first
// non-blank line only, so source text quoted later in a prompt cannot
// change the kind of answer.
func Fallback(prompt string) string {
	lower := strings.ToLower(instruction(prompt))
	topic := promptTopic(prompt)

	switch {
	case strings.Contains(lower, "summary of changes"):
		return fallbackChanges()
	case strings.Contains(prompt, RevisionInputMarker):
		return fallbackRevision(prompt)
	case strings.Contains(lower, "outline"):
		return fallbackOutline(topic)
	case strings.Contains(lower, "subtopics"):
		return fallbackSubtopics(topic)
	case headingLine.MatchString(prompt):
		return fallbackSection(topic, promptHeading(prompt))
	case strings.Contains(lower, "summarize"), strings.Contains(lower, "research"):
		return fallbackSummary(topic)
	case strings.Contains(lower, "introduction"):
		return fallbackSection(topic, "Introduction")
	case strings.Contains(lower, "conclusion"):
		return fallbackSection(topic, "Conclusion")
	default:
		return fmt.Sprintf("%s is a subject with many facets worth exploring. "+
			"This text was produced offline because the generation service was unavailable.", topic)
	}
}

// instruction returns the first non-blank line of a prompt.
func instruction(prompt string) string {
	for line := range strings.Lines(prompt) {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

// promptTopic reads the "Topic:" line of a prompt.
func promptTopic(prompt string) string {
	if m := topicLine.FindStringSubmatch(prompt); m != nil {
		return strings.Trim(m[1], `"'`)
	}
	return "this topic"
}

// promptHeading reads the "Section heading:" line of a prompt.
func promptHeading(prompt string) string {
	if m := headingLine.FindStringSubmatch(prompt); m != nil {
		return strings.Trim(m[1], `"'`)
	}
	return ""
}

// fallbackOutline renders the default outline in the JSON shape the plan
// stage asks for.
func fallbackOutline(topic string) string {
	o := draft.DefaultOutline(topic)
	type section struct {
		Heading      string   `json:"heading"`
		BulletPoints []string `json:"bullet_points"`
	}
	payload := struct {
		Title    string    `json:"title"`
		Sections []section `json:"sections"`
	}{Title: o.Title}
	for _, s := range o.Sections {
		payload.Sections = append(payload.Sections, section{Heading: s.Heading, BulletPoints: s.BulletPoints})
	}
	data, _ := json.MarshalIndent(payload, "", "  ")
	return string(data)
}

func fallbackSubtopics(topic string) string {
	return strings.Join([]string{
		"History and evolution of " + topic,
		"How " + topic + " works",
		"Real-world applications of " + topic,
		"Challenges facing " + topic,
	}, "\n")
}

func fallbackSummary(topic string) string {
	return fmt.Sprintf(`%[1]s is a significant area of interest with several aspects to consider.

Key points about %[1]s:
1. It has evolved significantly over time.
2. There are multiple approaches and perspectives.
3. Recent developments have changed how practitioners think about it.
4. Experts agree on its importance but debate the details.
5. Current trends suggest continued growth in this area.`, topic)
}

func fallbackSection(topic, heading string) string {
	h := strings.ToLower(heading)
	switch {
	case strings.Contains(h, "introduction"):
		return fmt.Sprintf(`%[1]s has moved from a niche interest to a subject that shapes how people build, decide, and plan. Understanding it no longer belongs only to specialists.

This article explains what %[1]s is, how it works, where it is used today, and where it is heading. Whether you are new to the field or looking to sharpen your understanding, the sections that follow build a clear picture step by step.`, topic)
	case strings.Contains(h, "conclusion"):
		return fmt.Sprintf(`%[1]s is still evolving, and the most useful stance is an informed and curious one. The ideas covered here form a foundation for following new developments as they arrive.

Start small: pick one application that matters to you, learn how it works in practice, and build from there. The people who benefit most from %[1]s will be those who engage with it early and thoughtfully.`, topic)
	default:
		if heading == "" {
			heading = topic
		}
		return fmt.Sprintf(`%[1]s is central to understanding %[2]s. It connects the underlying principles to the results people see in practice.

Three ideas matter most here. First, the fundamentals determine what is possible. Second, practical constraints shape what is actually built. Third, the field keeps changing, so today's best practice is a starting point rather than a final answer.

Looking at %[1]s through these lenses makes the broader picture of %[2]s easier to follow.`, heading, topic)
	}
}

// fallbackRevision returns the text between the revision markers with the
// light clean-ups a reviewer would make.
func fallbackRevision(prompt string) string {
	_, rest, _ := strings.Cut(prompt, RevisionInputMarker)
	text, _, _ := strings.Cut(rest, RevisionOutputMarker)
	text = strings.TrimSpace(text)
	r := strings.NewReplacer(
		"very ", "",
		"really ", "",
		"in order to", "to",
	)
	return r.Replace(text)
}

func fallbackChanges() string {
	return `{"readability": "Simplified sentence structure and paragraph organization", ` +
		`"engagement": "Sharpened the opening and closing of each section", ` +
		`"coherence": "Strengthened transitions between sections", ` +
		`"other": "Generated offline"}`
}
