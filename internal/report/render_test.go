// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/journal-scout/internal/parse"
	"github.com/pdiddy/journal-scout/pkg/types"
)

var testNow = time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)

func testStats() Stats {
	return Stats{
		TotalScanned: 57,
		LookbackDays: 7,
		Sources:      []types.Source{types.SourcePubMed, types.SourceSemanticScholar},
	}
}

func samplePapers() []Group {
	cites := 12
	zero := 0
	return []Group{
		{Category: types.CategoryHealth, Papers: []types.PaperRecord{
			{
				Title:          "NMN supplementation and healthspan",
				Abstract:       "NAD precursors were given to older adults for twelve weeks with measurable effects.",
				Venue:          "Aging Cell",
				Authors:        []string{"Smith", "Doe", "Lee", "Park"},
				PublishedLabel: "2026 Mar",
				ExternalURL:    "https://doi.org/10.1111/acel.1",
				Source:         types.SourcePubMed,
				Category:       types.CategoryHealth,
			},
			{
				Title:          "Time-restricted eating in midlife",
				Abstract:       "A randomized trial of eight-hour eating windows across twenty clinics.",
				Venue:          "Cell Metabolism",
				Authors:        []string{"Nguyen"},
				PublishedLabel: "2026",
				ExternalURL:    "https://pubmed.ncbi.nlm.nih.gov/1/",
				CitationCount:  &zero,
				Source:         types.SourcePubMed,
				Category:       types.CategoryHealth,
			},
		}},
		{Category: types.CategoryBusiness, Papers: []types.PaperRecord{
			{
				Title:          "Contrarian bets in niche markets",
				Abstract:       "Founders who ignore consensus find outsized returns in small markets.",
				Venue:          "Preprint",
				PublishedLabel: "2026-03-10",
				ExternalURL:    "https://www.semanticscholar.org/paper/abc",
				CitationCount:  &cites,
				Source:         types.SourceSemanticScholar,
				Category:       types.CategoryBusiness,
			},
		}},
	}
}

func TestRender(t *testing.T) {
	out := Render(samplePapers(), testStats(), testNow)

	assert.True(t, strings.HasPrefix(out, "# Journal Scout — 2026-03-15\n\n"))
	assert.Contains(t, out, "## Scan Summary\n\nScanned 57 results from PubMed and Semantic Scholar over the last 7 days.\n")
	assert.Contains(t, out, "## Health & Longevity Insights\n\n### NMN supplementation and healthspan\n\n")
	assert.Contains(t, out, "**Aging Cell** | Smith, Doe, Lee et al. | 2026 Mar\n**Link:** https://doi.org/10.1111/acel.1\n\n")
	assert.Contains(t, out, "**Cell Metabolism** | Nguyen | 2026\n", "zero citations are omitted")
	assert.Contains(t, out, "**Preprint** | Unknown | 2026-03-10 | 12 citations\n")
	assert.Equal(t, 3, strings.Count(out, "\n---\n"))

	health := strings.Index(out, "## Health & Longevity Insights")
	business := strings.Index(out, "## Business & Product Opportunities")
	assert.Less(t, health, business, "groups render in order")
}

func TestRenderEmptyCategory(t *testing.T) {
	out := Render([]Group{{Category: types.CategoryHealth}, {Category: types.CategoryBusiness}}, Stats{LookbackDays: 3}, testNow)

	assert.Contains(t, out, "## Health & Longevity Insights\n\n"+EmptyPlaceholder+"\n")
	assert.Contains(t, out, "## Business & Product Opportunities\n\n"+EmptyPlaceholder+"\n")
	assert.Contains(t, out, "Scanned 0 results from all sources over the last 3 days.")
	assert.NotContains(t, out, "###")
}

func TestRenderEscapesHeadingLikeAbstract(t *testing.T) {
	groups := []Group{{Category: types.CategoryHealth, Papers: []types.PaperRecord{{
		Title:    "Hashtag study",
		Abstract: "#longevity trends\non social media were tracked for a year.",
	}}}}
	out := Render(groups, testStats(), testNow)
	assert.Contains(t, out, "\\#longevity trends on social media were tracked for a year.\n")
	assert.Contains(t, out, "**Unknown venue** | Unknown | \n")
}

func TestRenderParseRoundTrip(t *testing.T) {
	groups := samplePapers()
	out := Render(groups, testStats(), testNow)

	rep, err := parse.New(parse.Options{}).Parse(out, types.FormatMarkdown)
	require.NoError(t, err)

	assert.Equal(t, Title(testNow), rep.Title)
	assert.Equal(t, types.SourceJournal, rep.SourceType)
	require.NotNil(t, rep.DeclaredItemCount)
	assert.Equal(t, 57, *rep.DeclaredItemCount)

	// Title, scan summary, two category headings, three papers.
	assert.Len(t, rep.Sections, 7)

	var titles []string
	for _, g := range groups {
		for _, p := range g.Papers {
			titles = append(titles, p.Title)
		}
	}
	var got []string
	for _, o := range rep.Opportunities {
		got = append(got, o.Title)
		assert.Equal(t, types.SourceJournal, o.SourceType)
		assert.Contains(t, o.Description, "**Link:**")
	}
	assert.Equal(t, titles, got)
}

func TestRenderParseRoundTripEmptyCategories(t *testing.T) {
	out := Render([]Group{{Category: types.CategoryHealth}, {Category: types.CategoryBusiness}}, testStats(), testNow)

	rep, err := parse.New(parse.Options{}).Parse(out, types.FormatMarkdown)
	require.NoError(t, err)
	assert.Len(t, rep.Sections, 4)
	assert.Empty(t, rep.Opportunities)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "journal-report-2026-03-15.md", FileName(testNow))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	path := filepath.Join(dir, FileName(testNow))

	require.NoError(t, WriteFile(path, "# first\n"))
	require.NoError(t, WriteFile(path, "# second\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# second\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteFileFailsWhenDirIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := WriteFile(filepath.Join(blocker, "report.md"), "x")
	assert.Error(t, err)
}
