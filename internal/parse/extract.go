// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"regexp"
	"unicode/utf8"

	"github.com/pdiddy/journal-scout/pkg/types"
)

// minDescriptionLength is the body length a section must exceed to become
// an opportunity.
const minDescriptionLength = 20

var (
	// stopHeading ends extraction for the rest of the document, the
	// matching section included.
	stopHeading = regexp.MustCompile(`(?i)pattern summary|opportunities\s*\(|opportunities recap|bottom line`)

	// metaHeading skips a single section.
	metaHeading = regexp.MustCompile(`(?i)summary|overview|intro|metadata|config`)

	ordinalPrefix = regexp.MustCompile(`^\d+\.\s*`)
)

type extractState int

const (
	stateScanning extractState = iota
	stateLatched
)

// extractOpportunities walks sections in order and returns the ones that
// qualify as opportunities. Once a stop heading is seen the walk latches
// and nothing after it is extracted.
func extractOpportunities(secs []types.Section, source types.SourceType) []types.OpportunityCandidate {
	var out []types.OpportunityCandidate
	state := stateScanning
	for _, s := range secs {
		if state == stateLatched {
			break
		}
		switch {
		case stopHeading.MatchString(s.Heading):
			state = stateLatched
			continue
		case metaHeading.MatchString(s.Heading):
			continue
		case utf8.RuneCountInString(s.Body) <= minDescriptionLength:
			continue
		}
		out = append(out, types.OpportunityCandidate{
			Title:       ordinalPrefix.ReplaceAllString(s.Heading, ""),
			Description: s.Body,
			SourceType:  source,
			Priority:    sectionPriority(s.Heading, s.Body),
		})
	}
	return out
}
