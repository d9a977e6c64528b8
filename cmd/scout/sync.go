// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/journal-scout/internal/config"
	"github.com/pdiddy/journal-scout/internal/metrics"
	"github.com/pdiddy/journal-scout/internal/pipeline"
)

var syncCmd = &cobra.Command{
	Use:   "sync [report...]",
	Short: "Push report files and their opportunities to the tracker",
	Long: `Sync parses each report and creates a tracker report record followed by one
opportunity record per extracted opportunity.

Every attempt is recorded in the ledger. A file whose exact content was synced
before is skipped unless --force is given. --pending retries the ledger's
pending and failed tasks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pending, _ := cmd.Flags().GetBool("pending")
		force, _ := cmd.Flags().GetBool("force")
		if len(args) == 0 && !pending {
			return fmt.Errorf("no report files given (use --pending to retry the ledger)")
		}
		if err := config.RequireTracker(cfg); err != nil {
			return err
		}

		m := metrics.New()
		defer writeMetrics(m)

		p, closeFn, err := newPipeline(true, m)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		var errs []error

		if pending {
			outcomes, err := p.RetryPending(ctx)
			for _, o := range outcomes {
				printOutcome(out, o)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}

		for _, path := range args {
			if err := ctx.Err(); err != nil {
				return err
			}
			o, err := p.SyncFile(ctx, path, force)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			printOutcome(out, o)
		}
		return errors.Join(errs...)
	},
}

func printOutcome(w io.Writer, o pipeline.SyncOutcome) {
	switch {
	case o.Skipped && o.ReportID != "":
		fmt.Fprintf(w, "skipped  %s (already synced as report %s)\n", o.Path, o.ReportID)
	case o.Skipped:
		fmt.Fprintf(w, "skipped  %s\n", o.Path)
	default:
		fmt.Fprintf(w, "synced   %s -> report %s (%d opportunities, %d failed)\n",
			o.Path, o.ReportID, o.Opportunities, o.Failed)
	}
}

func init() {
	syncCmd.Flags().Bool("pending", false, "retry pending and failed ledger tasks")
	syncCmd.Flags().Bool("force", false, "sync even if identical content was synced before")
	rootCmd.AddCommand(syncCmd)
}
