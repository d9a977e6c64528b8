// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/journal-scout/internal/tracker"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the local sync ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sync tasks, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		l, err := tracker.OpenLedger(cfg.ResolvedLedgerPath())
		if err != nil {
			return err
		}
		defer l.Close()

		tasks, err := l.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tasks)
		}
		formatTasks(tasks, cmd.OutOrStdout())
		return nil
	},
}

func formatTasks(tasks []tracker.Task, w io.Writer) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No sync tasks recorded.")
		return
	}
	fmt.Fprintf(w, "%-8s  %-8s  %-36s  %-10s  %-5s  %s\n",
		"Task", "Status", "Report", "Report ID", "Opps", "Updated")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, t := range tasks {
		opps := fmt.Sprintf("%d", t.Opportunities)
		if t.FailedOpportunities > 0 {
			opps += fmt.Sprintf("/%d", t.FailedOpportunities)
		}
		fmt.Fprintf(w, "%-8s  %-8s  %-36s  %-10s  %-5s  %s\n",
			shorten(t.ID, 8), t.Status, shorten(filepath.Base(t.Path), 36),
			shorten(t.ReportID, 10), opps, t.UpdatedAt.Local().Format("2006-01-02 15:04"))
		if t.Error != "" && t.Status != tracker.TaskSynced {
			fmt.Fprintf(w, "          %s\n", shorten(t.Error, 90))
		}
	}
}

func shorten(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	ledgerListCmd.Flags().Int("limit", 20, "maximum tasks to show; 0 shows all")
	ledgerListCmd.Flags().Bool("json", false, "print tasks as JSON")
	ledgerCmd.AddCommand(ledgerListCmd)
	rootCmd.AddCommand(ledgerCmd)
}
