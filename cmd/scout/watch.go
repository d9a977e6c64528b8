// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/internal/config"
	"github.com/pdiddy/journal-scout/internal/metrics"
	"github.com/pdiddy/journal-scout/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Sync reports as they are written into a directory",
	Long: `Watch syncs every .md or .json report created or rewritten in dir (default:
the output directory). Rewrites with unchanged content are skipped through the
ledger. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RequireTracker(cfg); err != nil {
			return err
		}
		settle, _ := cmd.Flags().GetDuration("settle")

		dir := cfg.OutputDir
		if len(args) == 1 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}

		m := metrics.New()
		defer writeMetrics(m)

		p, closeFn, err := newPipeline(true, m)
		if err != nil {
			return err
		}
		defer closeFn()

		handler := func(ctx context.Context, path string) error {
			o, err := p.SyncFile(ctx, path, false)
			if err != nil {
				return err
			}
			if !o.Skipped {
				logger.Info("report synced",
					zap.String("path", o.Path),
					zap.String("report_id", o.ReportID),
					zap.Int("opportunities", o.Opportunities))
			}
			return nil
		}
		return watch.New(dir, handler, watch.Options{Settle: settle, Logger: logger}).Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().Duration("settle", watch.DefaultSettle, "quiet period before a changed file is synced")
	rootCmd.AddCommand(watchCmd)
}
