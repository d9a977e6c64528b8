// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/journal-scout/internal/pipeline"
	"github.com/pdiddy/journal-scout/internal/tracker"
	"github.com/pdiddy/journal-scout/pkg/types"
)

func TestFormatParsed(t *testing.T) {
	count := 40
	rep := &types.ParsedReport{
		ReportDocument: types.ReportDocument{
			Title:             "Twitter Scan",
			SourceType:        types.SourceTwitter,
			DeclaredItemCount: &count,
			Sections:          make([]types.Section, 3),
		},
		Opportunities: []types.OpportunityCandidate{
			{Title: "Voice agents for clinics", Priority: types.PriorityBuildNow},
			{Title: strings.Repeat("é", 60), Priority: types.PriorityMonitor},
		},
	}

	var buf bytes.Buffer
	formatParsed(rep, &buf)
	out := buf.String()

	assert.Contains(t, out, "Title:   Twitter Scan")
	assert.Contains(t, out, "Source:  twitter")
	assert.Contains(t, out, "Items:   40")
	assert.Contains(t, out, "build_now   Voice agents for clinics")
	assert.Contains(t, out, strings.Repeat("é", 51)+"...")
	assert.Contains(t, out, "2 opportunities")
}

func TestFormatParsedEmpty(t *testing.T) {
	var buf bytes.Buffer
	formatParsed(&types.ParsedReport{}, &buf)
	assert.Contains(t, buf.String(), "No opportunities found.")
	assert.NotContains(t, buf.String(), "Items:")
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, pipeline.SyncOutcome{Path: "a.md", ReportID: "r1", Opportunities: 3, Failed: 1})
	printOutcome(&buf, pipeline.SyncOutcome{Path: "b.md", Skipped: true, ReportID: "r0"})
	printOutcome(&buf, pipeline.SyncOutcome{Path: "c.md", Skipped: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"synced   a.md -> report r1 (3 opportunities, 1 failed)",
		"skipped  b.md (already synced as report r0)",
		"skipped  c.md",
	}, lines)
}

func TestFormatTasks(t *testing.T) {
	var buf bytes.Buffer
	formatTasks(nil, &buf)
	assert.Equal(t, "No sync tasks recorded.\n", buf.String())

	buf.Reset()
	formatTasks([]tracker.Task{{
		ID:                  "0f8c2d3e-aaaa-bbbb-cccc-000000000000",
		Path:                "reports/journal-report-2026-03-15.md",
		Status:              tracker.TaskFailed,
		Opportunities:       2,
		FailedOpportunities: 1,
		Error:               "tracker down",
		UpdatedAt:           time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC),
	}}, &buf)
	out := buf.String()
	assert.Contains(t, out, "0f8c2...")
	assert.Contains(t, out, "journal-report-2026-03-15.md")
	assert.Contains(t, out, "2/1")
	assert.Contains(t, out, "tracker down")
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "abc", shorten("abc", 8))
	assert.Equal(t, "abcde...", shorten("abcdefghij", 8))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	assert.NoError(t, rootCmd.Execute())
	assert.Equal(t, "scout dev\n", buf.String())
}
