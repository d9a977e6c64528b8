// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/internal/metrics"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Search the journals and write today's report",
	Long: `Collect runs every query group against its source over the lookback window,
deduplicates the papers by normalized title, and writes
<output-dir>/journal-report-YYYY-MM-DD.md.

When the tracker is configured the report is synced right after it is written.
A sync failure is logged and leaves the task in the ledger for "scout sync
--pending"; it does not fail the collection.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		noSync, _ := cmd.Flags().GetBool("no-sync")

		m := metrics.New()
		defer writeMetrics(m)

		p, closeFn, err := newPipeline(cfg.Tracker.Enabled() && !noSync, m)
		if err != nil {
			return err
		}
		defer closeFn()

		summary, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, summary.ReportPath)
		switch {
		case summary.Sync != nil && summary.Sync.Skipped:
			fmt.Fprintf(out, "already synced as report %s\n", summary.Sync.ReportID)
		case summary.Sync != nil:
			fmt.Fprintf(out, "synced as report %s (%d opportunities, %d failed)\n",
				summary.Sync.ReportID, summary.Sync.Opportunities, summary.Sync.Failed)
		}
		if summary.FailedQueries > 0 {
			logger.Warn("some queries failed", zap.Int("failed_queries", summary.FailedQueries))
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().Int("lookback-days", 0, "publication window in days (default 7)")
	collectCmd.Flags().String("queries", "", "YAML query set (default: built-in health and business queries)")
	collectCmd.Flags().Bool("no-sync", false, "write the report without syncing it")

	bindFlags(collectCmd.Flags().Lookup, map[string]string{
		"lookback_days": "lookback-days",
		"queries_file":  "queries",
	})
	rootCmd.AddCommand(collectCmd)
}
