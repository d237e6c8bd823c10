// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_Outline(t *testing.T) {
	out := Fallback("Create a detailed outline for an article.\nTopic: Quantum Computing\nStyle: professional")

	var parsed struct {
		Title    string `json:"title"`
		Sections []struct {
			Heading      string   `json:"heading"`
			BulletPoints []string `json:"bullet_points"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed.Title, "Quantum Computing")
	assert.Len(t, parsed.Sections, 6)
	assert.Equal(t, "Introduction", parsed.Sections[0].Heading)
}

func TestFallback_Routing(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		contains string
	}{
		{
			name:     "subtopics",
			prompt:   "Generate 3-5 key subtopics, one per line.\nTopic: Rust",
			contains: "How Rust works",
		},
		{
			name:     "research summary",
			prompt:   "Summarize the research sources below.\nTopic: Rust\n\nSOURCES:\nsomething about an outline",
			contains: "Key points about Rust",
		},
		{
			name:     "introduction section",
			prompt:   "Write one section of the article.\nTopic: Rust\nSection heading: Introduction",
			contains: "This article explains what Rust is",
		},
		{
			name:     "conclusion section",
			prompt:   "Write one section of the article.\nTopic: Rust\nSection heading: Conclusion",
			contains: "Start small",
		},
		{
			name:     "named section",
			prompt:   "Write one section of the article.\nTopic: Rust\nSection heading: Memory Safety",
			contains: "Memory Safety is central to understanding Rust",
		},
		{
			name:     "change summary",
			prompt:   "Provide a summary of changes as JSON.\nORIGINAL:\nTEXT TO REVISE: nope",
			contains: `"readability"`,
		},
		{
			name:     "generic",
			prompt:   "Tell me a joke.\nTopic: Rust",
			contains: "Rust is a subject",
		},
		{
			name:     "generic without topic",
			prompt:   "hello",
			contains: "this topic",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, Fallback(tt.prompt), tt.contains)
		})
	}
}

func TestFallback_RevisionEchoesText(t *testing.T) {
	article := "# Title\n\n## One\n\nThis is very good in order to learn.\n\n## Two\n\nMore."
	prompt := "Revise the article for readability.\nTopic: X\n\n" + RevisionInputMarker + "\n" + article + "\n\n" + RevisionOutputMarker + "\n"

	out := Fallback(prompt)

	assert.True(t, strings.HasPrefix(out, "# Title"))
	assert.Contains(t, out, "This is good to learn.")
	assert.Equal(t, 2, strings.Count(out, "\n## "))
}

func TestFallback_Deterministic(t *testing.T) {
	prompts := []string{
		"Create an outline.\nTopic: A",
		"Write one section of the article.\nTopic: A\nSection heading: B",
		"",
	}
	for _, p := range prompts {
		assert.Equal(t, Fallback(p), Fallback(p))
		assert.NotEmpty(t, Fallback(p))
	}
}
