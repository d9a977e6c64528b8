// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/internal/metrics"
	"github.com/pdiddy/journal-scout/pkg/types"
)

// ErrReportCreate means the report record could not be created, so no
// opportunity was sent.
var ErrReportCreate = errors.New("creating tracker report")

// Tracker creates report and opportunity records. Client implements it.
type Tracker interface {
	CreateReport(ctx context.Context, p ReportPayload) (string, error)
	CreateOpportunity(ctx context.Context, p OpportunityPayload) (string, error)
}

// Result summarizes one sync.
type Result struct {
	ReportID string

	// OpportunityIDs holds the ids of created opportunities in document order.
	OpportunityIDs []string

	// Failed counts opportunities the tracker rejected.
	Failed int
	Errors []error
}

// Syncer sends a parsed report and then each of its opportunities. It does
// not check whether the report was synced before; callers that need that
// consult the Ledger first.
type Syncer struct {
	tracker Tracker
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewSyncer returns a Syncer over t. A nil logger or metrics is replaced
// with a no-op.
func NewSyncer(t Tracker, log *zap.Logger, m *metrics.Metrics) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Syncer{tracker: t, log: log, metrics: m}
}

// Sync creates the report dated date, then its opportunities.
func (s *Syncer) Sync(ctx context.Context, rep *types.ParsedReport, date time.Time) (Result, error) {
	return s.SyncPath(ctx, rep, date, "")
}

// SyncPath is Sync with the report's file path recorded on the tracker.
//
// Report creation must succeed before any opportunity is sent; its failure
// wraps ErrReportCreate. Opportunities are then sent one at a time and a
// rejected one is logged and counted without stopping the rest. The only
// other error is the context's.
func (s *Syncer) SyncPath(ctx context.Context, rep *types.ParsedReport, date time.Time, filePath string) (Result, error) {
	var res Result

	id, err := s.tracker.CreateReport(ctx, NewReportPayload(rep, date, filePath))
	if err != nil {
		s.metrics.Syncs.WithLabelValues(metrics.OutcomeFailed).Inc()
		return res, fmt.Errorf("%w: %w", ErrReportCreate, err)
	}
	res.ReportID = id
	s.log.Info("report created",
		zap.String("report_id", id),
		zap.String("title", rep.Title),
		zap.Int("opportunities", len(rep.Opportunities)))

	for i, o := range rep.Opportunities {
		if err := ctx.Err(); err != nil {
			s.metrics.Syncs.WithLabelValues(metrics.OutcomeFailed).Inc()
			return res, err
		}

		oppID, err := s.tracker.CreateOpportunity(ctx, NewOpportunityPayload(o, id))
		if err != nil {
			s.log.Warn("opportunity not created",
				zap.String("report_id", id),
				zap.Int("index", i),
				zap.String("title", o.Title),
				zap.Error(err))
			s.metrics.Opportunities.WithLabelValues(string(o.Priority), metrics.OutcomeFailed).Inc()
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("opportunity %q: %w", o.Title, err))
			continue
		}
		s.metrics.Opportunities.WithLabelValues(string(o.Priority), metrics.OutcomeOK).Inc()
		res.OpportunityIDs = append(res.OpportunityIDs, oppID)
	}

	s.metrics.Syncs.WithLabelValues(metrics.OutcomeOK).Inc()
	s.log.Info("report synced",
		zap.String("report_id", id),
		zap.Int("created", len(res.OpportunityIDs)),
		zap.Int("failed", res.Failed))
	return res, nil
}
