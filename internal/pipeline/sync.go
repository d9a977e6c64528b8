// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/internal/metrics"
	"github.com/pdiddy/journal-scout/internal/tracker"
	"github.com/pdiddy/journal-scout/pkg/types"
)

// SyncOutcome describes what happened to one report file.
type SyncOutcome struct {
	Path   string
	TaskID string

	// Skipped is set when the file's content was already synced.
	Skipped  bool
	ReportID string

	Opportunities int
	Failed        int
}

// SyncFile pushes the report at path unless identical content was synced
// before; force pushes it regardless. Every attempt is recorded in the
// ledger. Parse and report-creation failures mark the task failed and are
// returned. A sync cancelled after its report was created still completes
// the task, and the outcome is returned together with the context error.
func (p *Pipeline) SyncFile(ctx context.Context, path string, force bool) (SyncOutcome, error) {
	if !p.SyncEnabled() {
		return SyncOutcome{}, ErrSyncDisabled
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SyncOutcome{}, fmt.Errorf("reading report: %w", err)
	}
	hash := tracker.HashContent(data)

	if !force {
		prev, found, err := p.ledger.FindSynced(ctx, hash)
		if err != nil {
			return SyncOutcome{}, fmt.Errorf("checking ledger: %w", err)
		}
		if found {
			p.metrics.Syncs.WithLabelValues(metrics.OutcomeSkipped).Inc()
			p.log.Info("report already synced",
				zap.String("path", path),
				zap.String("task_id", prev.ID),
				zap.String("report_id", prev.ReportID))
			return SyncOutcome{
				Path:          path,
				TaskID:        prev.ID,
				Skipped:       true,
				ReportID:      prev.ReportID,
				Opportunities: prev.Opportunities,
				Failed:        prev.FailedOpportunities,
			}, nil
		}
	}

	task, err := p.ledger.Enqueue(ctx, path, hash)
	if err != nil {
		return SyncOutcome{}, err
	}
	return p.runTask(ctx, task, data)
}

// RetryPending re-runs pending and failed ledger tasks. Tasks whose file
// is gone, or whose current content was synced by another task, are marked
// skipped. Failures do not stop the loop and are joined into the error.
func (p *Pipeline) RetryPending(ctx context.Context) ([]SyncOutcome, error) {
	if !p.SyncEnabled() {
		return nil, ErrSyncDisabled
	}

	tasks, err := p.ledger.Pending(ctx)
	if err != nil {
		return nil, err
	}
	p.log.Info("retrying sync tasks", zap.Int("tasks", len(tasks)))

	var (
		outcomes []SyncOutcome
		errs     []error
	)
	for i := range tasks {
		task := &tasks[i]
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		data, err := os.ReadFile(task.Path)
		if errors.Is(err, os.ErrNotExist) {
			p.log.Warn("report file missing, skipping task",
				zap.String("task_id", task.ID), zap.String("path", task.Path))
			if err := p.ledger.Skip(ctx, task.ID, "report file missing"); err != nil {
				errs = append(errs, err)
			}
			outcomes = append(outcomes, SyncOutcome{Path: task.Path, TaskID: task.ID, Skipped: true})
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: reading report: %w", task.Path, err))
			continue
		}

		prev, found, err := p.ledger.FindSynced(ctx, tracker.HashContent(data))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if found {
			if err := p.ledger.Skip(ctx, task.ID, "content already synced by task "+prev.ID); err != nil {
				errs = append(errs, err)
			}
			p.metrics.Syncs.WithLabelValues(metrics.OutcomeSkipped).Inc()
			outcomes = append(outcomes, SyncOutcome{Path: task.Path, TaskID: task.ID, Skipped: true, ReportID: prev.ReportID})
			continue
		}

		out, err := p.runTask(ctx, task, data)
		if err != nil {
			if ctx.Err() != nil {
				return outcomes, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("%s: %w", task.Path, err))
			continue
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, errors.Join(errs...)
}

// runTask parses data, syncs it and records the result on task.
func (p *Pipeline) runTask(ctx context.Context, task *tracker.Task, data []byte) (SyncOutcome, error) {
	out := SyncOutcome{Path: task.Path, TaskID: task.ID}

	rep, err := p.parser.Parse(string(data), types.FormatForPath(task.Path))
	if err != nil {
		err = fmt.Errorf("parsing %s: %w", task.Path, err)
		p.recordFailure(ctx, task.ID, err)
		return out, err
	}

	res, err := p.syncer.SyncPath(ctx, rep, p.now(), task.Path)
	if err != nil && res.ReportID == "" {
		p.recordFailure(ctx, task.ID, err)
		return out, err
	}
	if err != nil {
		// Interrupted after the report was created. Retrying would create
		// it again, so the unsent opportunities are recorded as failed.
		unsent := len(rep.Opportunities) - len(res.OpportunityIDs) - res.Failed
		res.Failed += unsent
		res.Errors = append(res.Errors, fmt.Errorf("sync interrupted with %d opportunities unsent: %w", unsent, err))
		p.log.Warn("sync interrupted after report was created",
			zap.String("task_id", task.ID),
			zap.String("report_id", res.ReportID),
			zap.Int("unsent", unsent),
			zap.Error(err))
	}

	// The report exists on the tracker now, so partial opportunity
	// failures still complete the task.
	if cerr := p.ledger.Complete(context.WithoutCancel(ctx), task.ID, res); cerr != nil {
		return out, fmt.Errorf("recording sync: %w", cerr)
	}
	out.ReportID = res.ReportID
	out.Opportunities = len(res.OpportunityIDs)
	out.Failed = res.Failed
	return out, err
}

func (p *Pipeline) recordFailure(ctx context.Context, id string, cause error) {
	if err := p.ledger.Fail(context.WithoutCancel(ctx), id, cause); err != nil {
		p.log.Error("recording sync failure", zap.String("task_id", id), zap.Error(err))
	}
}
