// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a scout pass in process: collect papers, render and
// write the report, then push it to the tracker through the sync ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/internal/collect"
	"github.com/pdiddy/journal-scout/internal/metrics"
	"github.com/pdiddy/journal-scout/internal/parse"
	"github.com/pdiddy/journal-scout/internal/report"
	"github.com/pdiddy/journal-scout/internal/tracker"
	"github.com/pdiddy/journal-scout/pkg/types"
)

// ErrSyncDisabled is returned by sync operations when the pipeline was
// built without a syncer or ledger.
var ErrSyncDisabled = errors.New("tracker sync is not configured")

// Syncer pushes a parsed report to the tracker. *tracker.Syncer implements it.
type Syncer interface {
	SyncPath(ctx context.Context, rep *types.ParsedReport, date time.Time, filePath string) (tracker.Result, error)
}

// Options wires a Pipeline. Syncer and Ledger are optional together; when
// either is nil the pipeline only collects and writes reports.
type Options struct {
	Config    *types.Config
	Collector *collect.Collector
	Queries   *collect.QuerySet
	Parser    *parse.Parser
	Syncer    Syncer
	Ledger    *tracker.Ledger
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// Pipeline orchestrates one collection run and report syncs.
type Pipeline struct {
	cfg       *types.Config
	collector *collect.Collector
	queries   *collect.QuerySet
	parser    *parse.Parser
	syncer    Syncer
	ledger    *tracker.Ledger
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("pipeline: config is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Parser == nil {
		opts.Parser = parse.New(parse.Options{Now: opts.Now, Logger: opts.Logger})
	}
	if opts.Queries == nil {
		qs, err := collect.DefaultQuerySet()
		if err != nil {
			return nil, err
		}
		opts.Queries = qs
	}
	return &Pipeline{
		cfg:       opts.Config,
		collector: opts.Collector,
		queries:   opts.Queries,
		parser:    opts.Parser,
		syncer:    opts.Syncer,
		ledger:    opts.Ledger,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		now:       opts.Now,
	}, nil
}

// SyncEnabled reports whether the pipeline can push reports.
func (p *Pipeline) SyncEnabled() bool {
	return p.syncer != nil && p.ledger != nil
}

// RunSummary describes a collection run.
type RunSummary struct {
	ReportPath    string
	Papers        map[types.Category]int
	Scanned       int
	FailedQueries int

	// Sync is nil when the tracker is not configured or the sync failed.
	Sync    *SyncOutcome
	SyncErr error
}

// Run collects every query group, writes the dated report into the output
// directory and, when the tracker is configured, syncs it. A sync failure
// is logged and recorded in the summary; it does not fail the run.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	if p.collector == nil {
		return RunSummary{}, fmt.Errorf("pipeline: no collector configured")
	}
	now := p.now()
	summary := RunSummary{Papers: make(map[types.Category]int)}

	var (
		groups  []report.Group
		stats   = report.Stats{LookbackDays: p.cfg.LookbackDays}
		indexOf = make(map[types.Category]int)
	)
	for _, g := range p.queries.Groups {
		res, err := p.collector.CollectGroup(ctx, g, p.cfg.LookbackDays)
		if err != nil {
			return summary, fmt.Errorf("collecting %s: %w", g.Category, err)
		}
		stats.TotalScanned += res.Scanned
		stats.Sources = appendSource(stats.Sources, g.Source)
		summary.FailedQueries += len(res.FailedQueries)

		i, ok := indexOf[g.Category]
		if !ok {
			i = len(groups)
			indexOf[g.Category] = i
			groups = append(groups, report.Group{Category: g.Category})
		}
		groups[i].Papers = collect.Dedup(append(groups[i].Papers, res.Papers...))
	}

	for i := range groups {
		if limit := p.cfg.MaxPerCategory; limit > 0 && len(groups[i].Papers) > limit {
			groups[i].Papers = groups[i].Papers[:limit]
		}
		summary.Papers[groups[i].Category] = len(groups[i].Papers)
	}
	summary.Scanned = stats.TotalScanned

	path := filepath.Join(p.cfg.OutputDir, report.FileName(now))
	if err := report.WriteFile(path, report.Render(groups, stats, now)); err != nil {
		return summary, err
	}
	p.metrics.Reports.Inc()
	summary.ReportPath = path
	p.log.Info("report written",
		zap.String("path", path),
		zap.Int("scanned", stats.TotalScanned),
		zap.Int("failed_queries", summary.FailedQueries))

	if !p.SyncEnabled() {
		p.log.Info("tracker not configured, report not synced", zap.String("path", path))
		return summary, nil
	}

	out, err := p.SyncFile(ctx, path, false)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}
		p.log.Warn("report sync failed", zap.String("path", path), zap.Error(err))
		summary.SyncErr = err
		return summary, nil
	}
	summary.Sync = &out
	return summary, nil
}

func appendSource(sources []types.Source, s types.Source) []types.Source {
	for _, existing := range sources {
		if existing == s {
			return sources
		}
	}
	return append(sources, s)
}
