// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// GatewayStats counts what the generation gateway did during a run.
type GatewayStats struct {
	// RemoteCalls is the number of attempts made against the remote service.
	RemoteCalls int64 `json:"remote_calls" yaml:"remote_calls"`

	// CacheHits is the number of prompts answered from the cache.
	CacheHits int64 `json:"cache_hits" yaml:"cache_hits"`

	// Fallbacks is the number of prompts answered by the offline generator.
	Fallbacks int64 `json:"fallbacks" yaml:"fallbacks"`
}

// Metadata is the record persisted next to each generated article.
type Metadata struct {
	// Topic is the subject of the article.
	Topic string `json:"topic" yaml:"topic"`

	// Description is the optional user guidance.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Style is the writing style used.
	Style WritingStyle `json:"style" yaml:"style"`

	// Platform is the target platform.
	Platform Platform `json:"platform" yaml:"platform"`

	// Title is the article title taken from the outline.
	Title string `json:"title" yaml:"title"`

	// WordCount is the number of words in the final article.
	WordCount int `json:"word_count" yaml:"word_count"`

	// SectionCount is the number of "## " headings in the final article.
	SectionCount int `json:"section_count" yaml:"section_count"`

	// GeneratedAt is when the run finished generating.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// Timings maps phase name to elapsed seconds.
	Timings map[Phase]float64 `json:"timings" yaml:"timings"`

	// TotalSeconds is the wall time of the whole run up to saving.
	TotalSeconds float64 `json:"total_seconds" yaml:"total_seconds"`

	// ReviewNotes summarises the changes made during review.
	ReviewNotes *ReviewNotes `json:"review_notes,omitempty" yaml:"review_notes,omitempty"`

	// ResearchSummary is the overall research summary used for writing.
	ResearchSummary string `json:"research_summary,omitempty" yaml:"research_summary,omitempty"`

	// Outline is the plan the article was written from.
	Outline Outline `json:"outline" yaml:"outline"`

	// Gateway records cache, remote and fallback counts.
	Gateway GatewayStats `json:"gateway" yaml:"gateway"`
}

// SaveResult reports where an article and its metadata were written.
type SaveResult struct {
	// ContentPath is the location of the timestamped article text.
	ContentPath string `json:"content_path" yaml:"content_path"`

	// LatestPath is the copy overwritten by every run for the same topic
	// and platform.
	LatestPath string `json:"latest_path,omitempty" yaml:"latest_path,omitempty"`

	// MetadataPath is the location of the metadata record.
	MetadataPath string `json:"metadata_path" yaml:"metadata_path"`

	// HTMLPath is the rendered HTML copy, empty when rendering is disabled.
	HTMLPath string `json:"html_path,omitempty" yaml:"html_path,omitempty"`
}

// HistoryEntry is one row of the article history index.
type HistoryEntry struct {
	ID           int64     `json:"id" yaml:"id"`
	Topic        string    `json:"topic" yaml:"topic"`
	Title        string    `json:"title" yaml:"title"`
	Style        string    `json:"style" yaml:"style"`
	Platform     string    `json:"platform" yaml:"platform"`
	WordCount    int       `json:"word_count" yaml:"word_count"`
	ContentPath  string    `json:"content_path" yaml:"content_path"`
	MetadataPath string    `json:"metadata_path" yaml:"metadata_path"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// HistoryFilter narrows a history listing. Zero values match everything.
type HistoryFilter struct {
	Topic    string
	Platform string

	// Query is a full-text query over titles and article content.
	Query string
	Limit int
}
