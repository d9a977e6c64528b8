// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders collected papers into a dated markdown report and
// writes report files atomically.
//
// Every category section is always present. A category with no papers gets
// a short placeholder body, so readers of the report (including the
// opportunity parser) see a section per category and never mistake an
// empty category for a missing one.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/journal-scout/pkg/types"
)

const dateFmt = "2006-01-02"

// EmptyPlaceholder is the body of a category with no papers. It is kept
// below the parser's qualification length.
const EmptyPlaceholder = "No notable results."

// SummaryHeading titles the section that carries the scan statistics.
const SummaryHeading = "Scan Summary"

// Group is one report category and its papers in display order.
type Group struct {
	Category types.Category
	Papers   []types.PaperRecord
}

// Stats describes the collection run behind a report.
type Stats struct {
	TotalScanned int
	LookbackDays int
	Sources      []types.Source
}

// Title returns the report title line text for now.
func Title(now time.Time) string {
	return "Journal Scout — " + now.Format(dateFmt)
}

// FileName returns the report file name for now.
func FileName(now time.Time) string {
	return "journal-report-" + now.Format(dateFmt) + ".md"
}

// Render formats groups into a markdown report.
func Render(groups []Group, stats Stats, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", Title(now))
	fmt.Fprintf(&b, "## %s\n\n", SummaryHeading)
	fmt.Fprintf(&b, "Scanned %d results from %s over the last %d days.\n\n",
		stats.TotalScanned, sourceList(stats.Sources), stats.LookbackDays)

	for _, g := range groups {
		fmt.Fprintf(&b, "## %s\n\n", g.Category.Heading())
		if len(g.Papers) == 0 {
			b.WriteString(EmptyPlaceholder + "\n\n")
			continue
		}
		for _, p := range g.Papers {
			writePaper(&b, p)
		}
	}
	return b.String()
}

func writePaper(b *strings.Builder, p types.PaperRecord) {
	fmt.Fprintf(b, "### %s\n\n", oneLine(p.Title))

	venue := p.Venue
	if venue == "" {
		venue = "Unknown venue"
	}
	fmt.Fprintf(b, "**%s** | %s | %s", venue, p.AuthorLine(), p.PublishedLabel)
	if p.CitationCount != nil && *p.CitationCount > 0 {
		fmt.Fprintf(b, " | %d citations", *p.CitationCount)
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "**Link:** %s\n\n", p.ExternalURL)

	if abs := oneLine(p.Abstract); abs != "" {
		// A leading '#' would read as a heading.
		if strings.HasPrefix(abs, "#") {
			abs = `\` + abs
		}
		b.WriteString(abs + "\n\n")
	}
	b.WriteString("---\n\n")
}

// sourceList joins display names: "A", "A and B", "A, B and C".
func sourceList(sources []types.Source) string {
	if len(sources) == 0 {
		return "all sources"
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.DisplayName()
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
