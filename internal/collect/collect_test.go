// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/journal-scout/internal/metrics"
	"github.com/pdiddy/journal-scout/pkg/types"
)

// fakeSource returns canned records per query; queries listed in fail error.
type fakeSource struct {
	name    types.Source
	results map[string][]types.PaperRecord
	fail    map[string]error
	windows []Window
	calls   []string
}

func (f *fakeSource) Name() types.Source { return f.name }

func (f *fakeSource) Search(_ context.Context, query string, window Window) ([]types.PaperRecord, int, error) {
	f.calls = append(f.calls, query)
	f.windows = append(f.windows, window)
	if err := f.fail[query]; err != nil {
		return nil, 0, err
	}
	recs := f.results[query]
	return recs, len(recs), nil
}

func paper(title string) types.PaperRecord {
	return types.PaperRecord{
		Title:    title,
		Abstract: strings.Repeat("a", 80),
		Source:   types.SourcePubMed,
		Category: types.CategoryHealth,
	}
}

func fixedNow() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

func TestTitleKey(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"punctuation and case", "NMN & Aging: A Review!", "nmnagingareview"},
		{"non-ascii dropped", "Café Résumé 2024", "cafrsum2024"},
		{"empty", "", ""},
		{"only symbols", "—!?", ""},
		{"truncated", strings.Repeat("ab", 40), strings.Repeat("ab", 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleKey(tt.title)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), titleKeyLength)
			assert.Equal(t, got, TitleKey(got), "key must be a fixed point")
		})
	}
}

func TestDedup(t *testing.T) {
	in := []types.PaperRecord{
		paper("Fasting and Longevity"),
		paper("Sleep quality"),
		paper("fasting AND longevity."),
		paper("???"),
		paper("!!!"),
		paper("研究"),
		paper("研究"),
	}
	in[0].Venue = "first"
	in[2].Venue = "second"

	got := Dedup(in)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Venue)
	assert.Equal(t, "Sleep quality", got[1].Title)
	assert.Equal(t, "???", got[2].Title, "titles with an empty key collapse to the first")

	assert.Empty(t, cmp.Diff(got, Dedup(got)), "dedup must be idempotent")
}

func TestTruncateAbstract(t *testing.T) {
	assert.Equal(t, "short", TruncateAbstract("short", 10))
	assert.Equal(t, "abcde...", TruncateAbstract("abcdefghij", 5))
	assert.Equal(t, "ab...", TruncateAbstract("ab  cdef", 4))
	assert.Equal(t, "ééé...", TruncateAbstract("éééééé", 3))
	long := strings.Repeat("x", 5000)
	assert.Equal(t, long, TruncateAbstract(long, 0))
}

func TestCollectDedupsAcrossQueriesAndFilters(t *testing.T) {
	short := paper("Tiny abstract")
	short.Abstract = strings.Repeat("s", 50)

	src := &fakeSource{
		name: types.SourcePubMed,
		results: map[string][]types.PaperRecord{
			"q1": {paper("Alpha study"), short},
			"q2": {paper("ALPHA study!"), paper("Beta trial")},
		},
	}
	c := New([]Source{src}, Options{MinAbstractLength: 50, Now: fixedNow})

	res, err := c.Collect(context.Background(), []string{"q1", "q2"}, 7, types.SourcePubMed)
	require.NoError(t, err)

	titles := make([]string, len(res.Papers))
	for i, p := range res.Papers {
		titles[i] = p.Title
	}
	assert.Equal(t, []string{"Alpha study", "Beta trial"}, titles)
	assert.Equal(t, 4, res.Scanned)
	assert.Empty(t, res.FailedQueries)

	require.Len(t, src.windows, 2)
	assert.Equal(t, fixedNow(), src.windows[0].To)
	assert.Equal(t, fixedNow().AddDate(0, 0, -7), src.windows[0].From)
}

func TestCollectTruncatesLongAbstracts(t *testing.T) {
	p := paper("Long one")
	p.Abstract = strings.Repeat("word ", 400)
	src := &fakeSource{name: types.SourcePubMed, results: map[string][]types.PaperRecord{"q": {p}}}
	c := New([]Source{src}, Options{MinAbstractLength: 50, MaxAbstractLength: 100, Now: fixedNow})

	res, err := c.Collect(context.Background(), []string{"q"}, 7, types.SourcePubMed)
	require.NoError(t, err)
	require.Len(t, res.Papers, 1)
	assert.True(t, strings.HasSuffix(res.Papers[0].Abstract, "..."))
	assert.LessOrEqual(t, len([]rune(res.Papers[0].Abstract)), 103)
}

func TestCollectFailedQueryContributesNothing(t *testing.T) {
	src := &fakeSource{
		name: types.SourceSemanticScholar,
		results: map[string][]types.PaperRecord{
			"good": {paper("Kept paper")},
		},
		fail: map[string]error{"bad": errors.New("HTTP 503")},
	}
	core, logs := observer.New(zap.WarnLevel)
	m := metrics.New()
	c := New([]Source{src}, Options{MinAbstractLength: 50, Logger: zap.New(core), Metrics: m, Now: fixedNow})

	res, err := c.Collect(context.Background(), []string{"bad", "good"}, 7, types.SourceSemanticScholar)
	require.NoError(t, err)
	require.Len(t, res.Papers, 1)
	assert.Equal(t, []string{"bad"}, res.FailedQueries)
	assert.Equal(t, []string{"bad", "good"}, src.calls)
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues("semantic_scholar", metrics.OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues("semantic_scholar", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Papers.WithLabelValues("semantic_scholar")))
}

func TestCollectAllQueriesFailIsNotAnError(t *testing.T) {
	src := &fakeSource{
		name: types.SourcePubMed,
		fail: map[string]error{"a": errors.New("boom"), "b": errors.New("boom")},
	}
	c := New([]Source{src}, Options{Now: fixedNow})

	res, err := c.Collect(context.Background(), []string{"a", "b"}, 7, types.SourcePubMed)
	require.NoError(t, err)
	assert.Empty(t, res.Papers)
	assert.Equal(t, 0, res.Scanned)
}

func TestCollectStopsOnCancelledContext(t *testing.T) {
	src := &fakeSource{name: types.SourcePubMed}
	c := New([]Source{src}, Options{Now: fixedNow})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Collect(ctx, []string{"a"}, 7, types.SourcePubMed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.calls)
}

func TestCollectUnknownSource(t *testing.T) {
	c := New(nil, Options{})
	_, err := c.Collect(context.Background(), []string{"a"}, 7, types.SourcePubMed)
	assert.Error(t, err)
}

func TestCollectGroupStampsCategory(t *testing.T) {
	src := &fakeSource{
		name:    types.SourcePubMed,
		results: map[string][]types.PaperRecord{"q": {paper("Some result")}},
	}
	c := New([]Source{src}, Options{Now: fixedNow})

	res, err := c.CollectGroup(context.Background(), QueryGroup{
		Category: types.CategoryBusiness,
		Source:   types.SourcePubMed,
		Queries:  []string{"q"},
	}, 7)
	require.NoError(t, err)
	require.Len(t, res.Papers, 1)
	assert.Equal(t, types.CategoryBusiness, res.Papers[0].Category)
}

func TestPacerSpacesRequests(t *testing.T) {
	p := newPacer(40 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 75*time.Millisecond)
}

func TestPacerDisabled(t *testing.T) {
	p := newPacer(0)
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Effects of NMN in Mus musculus", cleanText("Effects of <i>NMN</i> in\n  <b>Mus musculus</b>"))
	assert.Equal(t, "p < 0.05 & CI", cleanText("p &lt; 0.05 &amp; CI"))
	assert.Equal(t, "plain text", cleanText("  plain   text "))
}

func TestSurname(t *testing.T) {
	assert.Equal(t, "Sinclair", surname("David A. Sinclair"))
	assert.Equal(t, "Plato", surname("Plato"))
	assert.Equal(t, "", surname("   "))
}
