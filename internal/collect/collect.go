// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect queries academic search sources and returns normalized,
// deduplicated paper records.
//
// Queries run strictly one after another. Each source paces its own
// requests, and a failed query is logged and counted as zero results so
// that one bad response never aborts a collection run.
package collect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/internal/metrics"
	"github.com/pdiddy/journal-scout/pkg/types"
)

// titleKeyLength bounds the normalized title used for deduplication.
const titleKeyLength = 60

// Window is the publication date range searched.
type Window struct {
	From time.Time
	To   time.Time
}

// Source searches one academic API. Search returns the normalized records
// and the number of raw hits the API reported before any filtering.
type Source interface {
	Name() types.Source
	Search(ctx context.Context, query string, window Window) ([]types.PaperRecord, int, error)
}

// Result holds the papers kept for one source plus run statistics.
type Result struct {
	Papers []types.PaperRecord

	// Scanned is the sum of raw hits across all queries.
	Scanned int

	// FailedQueries lists the queries that errored and contributed nothing.
	FailedQueries []string
}

// Options tunes record filtering and wires the ambient dependencies.
type Options struct {
	// MinAbstractLength drops records whose abstract is not longer than this.
	MinAbstractLength int

	// MaxAbstractLength truncates abstracts to this many runes; 0 disables it.
	MaxAbstractLength int

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Collector runs query lists against registered sources.
type Collector struct {
	sources map[types.Source]Source
	opts    Options
	log     *zap.Logger
}

// New returns a Collector over the given sources.
func New(sources []Source, opts Options) *Collector {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := make(map[types.Source]Source, len(sources))
	for _, s := range sources {
		m[s.Name()] = s
	}
	return &Collector{sources: m, opts: opts, log: opts.Logger}
}

// NewFromConfig builds a Collector with the PubMed and Semantic Scholar
// sources configured from cfg.
func NewFromConfig(cfg *types.Config, client *http.Client, log *zap.Logger, m *metrics.Metrics) *Collector {
	sources := []Source{
		NewPubMedSource(client, cfg.PubMed, cfg.HTTP, cfg.MaxPerQuery, log),
		NewSemanticScholarSource(client, cfg.SemanticScholar, cfg.HTTP, cfg.MaxPerQuery, log),
	}
	return New(sources, Options{
		MinAbstractLength: cfg.MinAbstractLength,
		MaxAbstractLength: cfg.MaxAbstractLength,
		Logger:            log,
		Metrics:           m,
	})
}

// Collect runs every query against source sequentially over the last
// lookbackDays and returns the deduplicated records in first-seen order.
// Query failures are logged and skipped; the only error returned is the
// context's, when the run is cancelled.
func (c *Collector) Collect(ctx context.Context, queries []string, lookbackDays int, source types.Source) (Result, error) {
	src, ok := c.sources[source]
	if !ok {
		return Result{}, fmt.Errorf("no collector source registered for %q", source)
	}

	now := c.opts.Now()
	window := Window{From: now.AddDate(0, 0, -lookbackDays), To: now}

	var (
		result Result
		all    []types.PaperRecord
	)
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		records, hits, err := src.Search(ctx, q, window)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return result, err
			}
			c.log.Warn("query failed",
				zap.String("source", string(source)),
				zap.String("query", q),
				zap.Error(err))
			c.opts.Metrics.Queries.WithLabelValues(string(source), metrics.OutcomeFailed).Inc()
			result.FailedQueries = append(result.FailedQueries, q)
			continue
		}
		c.opts.Metrics.Queries.WithLabelValues(string(source), metrics.OutcomeOK).Inc()

		kept := c.filter(records)
		c.log.Info("query done",
			zap.String("source", string(source)),
			zap.String("query", q),
			zap.Int("hits", hits),
			zap.Int("kept", len(kept)))

		result.Scanned += hits
		all = append(all, kept...)
	}

	result.Papers = Dedup(all)
	c.opts.Metrics.Papers.WithLabelValues(string(source)).Add(float64(len(result.Papers)))
	c.log.Info("source done",
		zap.String("source", string(source)),
		zap.Int("scanned", result.Scanned),
		zap.Int("unique", len(result.Papers)),
		zap.Int("failed_queries", len(result.FailedQueries)))
	return result, nil
}

// filter drops records with short abstracts and bounds the rest.
func (c *Collector) filter(records []types.PaperRecord) []types.PaperRecord {
	kept := make([]types.PaperRecord, 0, len(records))
	for _, r := range records {
		if utf8.RuneCountInString(r.Abstract) <= c.opts.MinAbstractLength {
			continue
		}
		r.Abstract = TruncateAbstract(r.Abstract, c.opts.MaxAbstractLength)
		kept = append(kept, r)
	}
	return kept
}

// TruncateAbstract cuts s to max runes and marks the cut with "...".
// A max of zero or less leaves s unchanged.
func TruncateAbstract(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:max]), " \t\n") + "..."
}

// TitleKey returns the deduplication key for a title: lowercase ASCII
// letters and digits only, truncated to 60 characters.
func TitleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == titleKeyLength {
				break
			}
		}
	}
	return b.String()
}

// Dedup keeps the first record for each title key, preserving order.
// Titles without ASCII letters or digits all share the empty key, so only
// the first of them survives.
func Dedup(records []types.PaperRecord) []types.PaperRecord {
	seen := make(map[string]bool, len(records))
	out := make([]types.PaperRecord, 0, len(records))
	for _, r := range records {
		key := TitleKey(r.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
