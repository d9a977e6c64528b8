// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
)

// SourceType is the inferred origin platform of a report.
type SourceType string

const (
	SourceJournal SourceType = "journal"
	SourcePodcast SourceType = "podcast"
	SourceTwitter SourceType = "twitter"
	SourceDiscord SourceType = "discord"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceJournal, SourcePodcast, SourceTwitter, SourceDiscord:
		return true
	}
	return false
}

// PriorityTier indicates the urgency or disposition of an opportunity.
type PriorityTier string

const (
	PriorityBuildNow PriorityTier = "build_now"
	PriorityBacklog  PriorityTier = "backlog"
	PriorityMonitor  PriorityTier = "monitor"
	PrioritySkip     PriorityTier = "skip"
)

// ParsePriorityTier accepts the canonical tier names in any case with
// spaces or hyphens in place of underscores ("Build Now", "build-now").
func ParsePriorityTier(s string) (PriorityTier, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch t := PriorityTier(norm); t {
	case PriorityBuildNow, PriorityBacklog, PriorityMonitor, PrioritySkip:
		return t, true
	}
	return "", false
}

// ReportFormat selects the parser path for a report file.
type ReportFormat string

const (
	FormatMarkdown ReportFormat = "markdown"
	FormatJSON     ReportFormat = "json"
)

// FormatForPath picks the report format from the file extension.
// Only ".json" selects JSON; everything else is treated as markdown.
func FormatForPath(path string) ReportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMarkdown
}

// Section is a heading-delimited chunk of a markdown report.
type Section struct {
	// Heading is the heading text without the leading # markers.
	Heading string `json:"heading" yaml:"heading"`

	// Body is the trimmed text between this heading and the next one.
	Body string `json:"body" yaml:"body"`

	// Level is the heading depth: 1, 2 or 3.
	Level int `json:"level" yaml:"level"`
}

// ReportDocument is a report as read from its persisted text.
type ReportDocument struct {
	Title      string     `json:"title" yaml:"title"`
	RawContent string     `json:"-" yaml:"-"`
	SourceType SourceType `json:"source_type" yaml:"source_type"`

	// DeclaredItemCount is the "<N> tweets/posts/results" figure found in
	// the text, or nil when the report does not state one.
	DeclaredItemCount *int `json:"declared_item_count,omitempty" yaml:"declared_item_count,omitempty"`

	// Sections preserves document order. Empty for JSON reports.
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// OpportunityCandidate is a titled, prioritized unit of actionable signal
// extracted from one report section or JSON item.
type OpportunityCandidate struct {
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	SourceType  SourceType   `json:"source" yaml:"source"`
	Priority    PriorityTier `json:"priority" yaml:"priority"`
}

// ParsedReport is the parser's output: report metadata, the content to
// persist, and the extracted opportunities in document order.
type ParsedReport struct {
	ReportDocument `yaml:",inline"`

	// Content is the report body sent to the tracker: the raw markdown, or
	// the summary/content field of a JSON report.
	Content string `json:"content" yaml:"content"`

	Opportunities []OpportunityCandidate `json:"opportunities" yaml:"opportunities"`
}
