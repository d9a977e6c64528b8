// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts collection, extraction and sync outcomes. A scout
// run is a short-lived batch job, so metrics are exported by writing a
// node_exporter textfile rather than by serving an endpoint.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics holds a private registry and the scout counters.
type Metrics struct {
	Registry *prometheus.Registry

	Queries       *prometheus.CounterVec
	Papers        *prometheus.CounterVec
	Reports       prometheus.Counter
	Opportunities *prometheus.CounterVec
	Syncs         *prometheus.CounterVec
}

// New registers the scout counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "queries_total",
			Help:      "Search queries issued, by source and outcome.",
		}, []string{"source", "outcome"}),
		Papers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "papers_collected_total",
			Help:      "Unique papers kept after deduplication, by source.",
		}, []string{"source"}),
		Reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "reports_written_total",
			Help:      "Report files written.",
		}),
		Opportunities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "opportunities_total",
			Help:      "Opportunities extracted and pushed, by priority and outcome.",
		}, []string{"priority", "outcome"}),
		Syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "report_syncs_total",
			Help:      "Report sync attempts by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(m.Queries, m.Papers, m.Reports, m.Opportunities, m.Syncs)
	return m
}

// WriteTextfile writes the current values to path in the Prometheus text
// format. The parent directory is created if needed.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
