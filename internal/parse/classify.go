// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/journal-scout/pkg/types"
)

// sourceRule classifies a report by its lowercased full text.
type sourceRule struct {
	source types.SourceType
	match  func(lower string) bool
}

// sourceRules are evaluated in order; the first match wins. A report that
// mentions several platforms takes the earliest rule's type.
var sourceRules = []sourceRule{
	{types.SourceJournal, func(s string) bool {
		return containsAny(s, "journal", "pubmed", "semantic scholar", "doi:") ||
			(strings.Contains(s, "longevity") && strings.Contains(s, "paper"))
	}},
	{types.SourcePodcast, func(s string) bool { return containsAny(s, "podcast", "transcript") }},
	{types.SourceDiscord, func(s string) bool { return strings.Contains(s, "discord") }},
}

// classifySource infers the report's platform. Twitter is the default.
func classifySource(raw string) types.SourceType {
	lower := strings.ToLower(raw)
	for _, r := range sourceRules {
		if r.match(lower) {
			return r.source
		}
	}
	return types.SourceTwitter
}

var itemCountPattern = regexp.MustCompile(`(?i)(\d+)\s*(tweets?|posts?|results?)`)

// declaredItemCount returns the first "<N> tweets/posts/results" figure.
func declaredItemCount(raw string) *int {
	m := itemCountPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
