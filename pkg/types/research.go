// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"maps"
	"slices"
	"strings"
)

// TrendingTopic is an angle on the main topic with an estimated relevance.
type TrendingTopic struct {
	// Name is the angle phrased as a topic (e.g. "future of Quantum Computing").
	Name string `json:"name" yaml:"name"`

	// Description suggests how to use the angle.
	Description string `json:"description" yaml:"description"`

	// RelevanceScore is in [0, 1]; higher is more relevant.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// SimilarArticleAnalysis summarises published articles on the same topic.
type SimilarArticleAnalysis struct {
	// Platform is the platform the articles were found on, empty for any.
	Platform Platform `json:"platform,omitempty" yaml:"platform,omitempty"`

	// ArticleCount is the number of articles that were fetched and analysed.
	ArticleCount int `json:"article_count" yaml:"article_count"`

	// AvgWordCount is the mean word count across analysed articles.
	AvgWordCount int `json:"avg_word_count" yaml:"avg_word_count"`

	// AvgSectionCount is the mean number of headings across analysed articles.
	AvgSectionCount int `json:"avg_section_count" yaml:"avg_section_count"`

	// CommonSections lists headings seen most often, most frequent first.
	CommonSections []string `json:"common_sections,omitempty" yaml:"common_sections,omitempty"`

	// CommonApproaches lists typical article structures for the topic.
	CommonApproaches []string `json:"common_approaches,omitempty" yaml:"common_approaches,omitempty"`
}

// ResearchBundle is the background information gathered for one topic.
type ResearchBundle struct {
	// Topic is the researched topic.
	Topic string `json:"topic" yaml:"topic"`

	// Summary is the compressed overview of the topic sources.
	Summary string `json:"summary" yaml:"summary"`

	// Subtopics lists the researched subtopics in order.
	Subtopics []string `json:"subtopics" yaml:"subtopics"`

	// SubtopicSummaries maps subtopic name to its summary.
	SubtopicSummaries map[string]string `json:"subtopic_summaries" yaml:"subtopic_summaries"`

	// TrendingTopics is sorted by descending relevance.
	TrendingTopics []TrendingTopic `json:"trending_topics" yaml:"trending_topics"`

	// SimilarArticles is nil when no platform analysis was run.
	SimilarArticles *SimilarArticleAnalysis `json:"similar_articles,omitempty" yaml:"similar_articles,omitempty"`

	// SourceCount is the number of source documents that were fetched successfully.
	SourceCount int `json:"source_count" yaml:"source_count"`

	// FailedSources is the number of source fetches that were dropped.
	FailedSources int `json:"failed_sources" yaml:"failed_sources"`
}

// Clone returns a deep copy of b.
func (b ResearchBundle) Clone() ResearchBundle {
	b.Subtopics = slices.Clone(b.Subtopics)
	b.SubtopicSummaries = maps.Clone(b.SubtopicSummaries)
	b.TrendingTopics = slices.Clone(b.TrendingTopics)
	if b.SimilarArticles != nil {
		sa := *b.SimilarArticles
		sa.CommonSections = slices.Clone(sa.CommonSections)
		sa.CommonApproaches = slices.Clone(sa.CommonApproaches)
		b.SimilarArticles = &sa
	}
	return b
}

// SummaryFor returns the research text best matching a section heading.
// A subtopic matches when either string contains the other, ignoring case;
// the first match in subtopic order wins. Without a match the overall
// summary is returned.
func (b ResearchBundle) SummaryFor(heading string) string {
	h := strings.ToLower(strings.TrimSpace(heading))
	if h == "" {
		return b.Summary
	}
	for _, st := range b.Subtopics {
		s := strings.ToLower(strings.TrimSpace(st))
		if s == "" {
			continue
		}
		if strings.Contains(h, s) || strings.Contains(s, h) {
			if text, ok := b.SubtopicSummaries[st]; ok {
				return text
			}
		}
	}
	return b.Summary
}
