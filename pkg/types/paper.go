// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the journal-scout pipeline:
// paper records produced by the collector, the report documents and
// opportunity candidates produced by the parser, and the run configuration.
package types

import "strings"

// Source identifies the search backend that produced a paper record.
type Source string

const (
	SourcePubMed          Source = "pubmed"
	SourceSemanticScholar Source = "semantic_scholar"
)

// DisplayName returns the human-readable source name used in reports.
func (s Source) DisplayName() string {
	switch s {
	case SourcePubMed:
		return "PubMed"
	case SourceSemanticScholar:
		return "Semantic Scholar"
	default:
		return string(s)
	}
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourcePubMed || s == SourceSemanticScholar
}

// Category groups papers into report sections.
type Category string

const (
	CategoryHealth   Category = "health"
	CategoryBusiness Category = "business"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryHealth || c == CategoryBusiness
}

// Heading returns the section heading the renderer uses for the category.
func (c Category) Heading() string {
	switch c {
	case CategoryHealth:
		return "Health & Longevity Insights"
	case CategoryBusiness:
		return "Business & Product Opportunities"
	default:
		return string(c)
	}
}

// maxDisplayAuthors is the number of surnames shown before "et al.".
const maxDisplayAuthors = 3

// PaperRecord is a normalized search result. Records are created once per
// search hit and never mutated after deduplication.
type PaperRecord struct {
	// Title is the paper title with inline markup removed.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract, bounded by the collector's truncation limit.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Venue is the journal or conference name.
	Venue string `json:"venue" yaml:"venue"`

	// Authors lists author surnames in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// PublishedLabel is best-effort display text for the publication date
	// (e.g. "2024 Mar", "2024-03-11", "Recent"). It is never parsed.
	PublishedLabel string `json:"published_label" yaml:"published_label"`

	// ExternalURL is the canonical link, a DOI permalink when one is known.
	ExternalURL string `json:"external_url" yaml:"external_url"`

	// CitationCount is set only when the source reports citations.
	CitationCount *int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// Source identifies which backend found this paper.
	Source Source `json:"source" yaml:"source"`

	// Category is the report section the paper belongs to.
	Category Category `json:"category" yaml:"category"`
}

// AuthorLine renders up to three surnames, collapsing the rest to "et al.".
func (p PaperRecord) AuthorLine() string {
	if len(p.Authors) == 0 {
		return "Unknown"
	}
	if len(p.Authors) <= maxDisplayAuthors {
		return strings.Join(p.Authors, ", ")
	}
	return strings.Join(p.Authors[:maxDisplayAuthors], ", ") + " et al."
}
