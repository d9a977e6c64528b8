// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/journal-scout/pkg/types"
)

// priorityRule maps a keyword family to a tier.
type priorityRule struct {
	tier    types.PriorityTier
	pattern *regexp.Regexp
}

// explicitRules classify the value of a "Priority:" line. First match wins.
var explicitRules = []priorityRule{
	{types.PriorityBuildNow, regexp.MustCompile(`(?i)build[\s_-]*now|immediate`)},
	{types.PriorityBacklog, regexp.MustCompile(`(?i)backlog|explore|investigate`)},
	{types.PrioritySkip, regexp.MustCompile(`(?i)skip|none|dismiss|not a build`)},
	{types.PriorityMonitor, regexp.MustCompile(`(?i)\bmonitor\b|watch|track`)},
}

// inferredRules scan a whole section when it declares no priority.
var inferredRules = []priorityRule{
	{types.PriorityBuildNow, regexp.MustCompile(`(?i)build now|high priority|urgent`)},
	{types.PriorityMonitor, regexp.MustCompile(`(?i)low priority|maybe|someday|monitor`)},
}

// priorityLine matches "Priority: value", tolerating bold markers around
// the label ("**Priority:** value").
var priorityLine = regexp.MustCompile(`(?im)\bpriority\**[ \t]*:\**[ \t]*(.*)$`)

func firstMatch(rules []priorityRule, s string) (types.PriorityTier, bool) {
	for _, r := range rules {
		if r.pattern.MatchString(s) {
			return r.tier, true
		}
	}
	return "", false
}

// explicitPriority returns the cleaned value of the first non-empty
// priority line in s.
func explicitPriority(s string) (string, bool) {
	for _, m := range priorityLine.FindAllStringSubmatch(s, -1) {
		if v := cleanPriorityValue(m[1]); v != "" {
			return v, true
		}
	}
	return "", false
}

// cleanPriorityValue strips leading markers such as emoji and asterisks.
func cleanPriorityValue(v string) string {
	v = strings.TrimLeftFunc(v, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.TrimSpace(strings.TrimRight(v, "*_ \t"))
}

// ClassifyExplicit maps a declared priority value to a tier. Unrecognized
// values are backlog.
func ClassifyExplicit(value string) types.PriorityTier {
	if t, ok := types.ParsePriorityTier(value); ok {
		return t
	}
	if t, ok := firstMatch(explicitRules, value); ok {
		return t
	}
	return types.PriorityBacklog
}

// sectionPriority derives a section's tier. An explicit priority line
// always wins over keywords found elsewhere in the section.
func sectionPriority(heading, body string) types.PriorityTier {
	text := heading + "\n" + body
	if v, ok := explicitPriority(text); ok {
		return ClassifyExplicit(v)
	}
	if t, ok := firstMatch(inferredRules, text); ok {
		return t
	}
	return types.PriorityBacklog
}
