// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/journal-scout/internal/parse"
	"github.com/pdiddy/journal-scout/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse <report>",
	Short: "Extract opportunities from a report without syncing it",
	Long: `Parse reads a markdown or JSON report (by extension) and prints its title,
inferred source, declared item count and opportunities with their priority.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		asYAML, _ := cmd.Flags().GetBool("yaml")
		if asJSON && asYAML {
			return fmt.Errorf("--json and --yaml are mutually exclusive")
		}

		rep, err := parse.New(parse.Options{Logger: logger}).ParseFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case asJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		case asYAML:
			enc := yaml.NewEncoder(out)
			defer enc.Close()
			return enc.Encode(rep)
		default:
			formatParsed(rep, out)
			return nil
		}
	},
}

// formatParsed writes a human-readable summary of rep.
func formatParsed(rep *types.ParsedReport, w io.Writer) {
	fmt.Fprintf(w, "Title:   %s\n", rep.Title)
	fmt.Fprintf(w, "Source:  %s\n", rep.SourceType)
	if rep.DeclaredItemCount != nil {
		fmt.Fprintf(w, "Items:   %d\n", *rep.DeclaredItemCount)
	}
	fmt.Fprintf(w, "Sections: %d\n\n", len(rep.Sections))

	if len(rep.Opportunities) == 0 {
		fmt.Fprintln(w, "No opportunities found.")
		return
	}
	fmt.Fprintf(w, "%-4s  %-10s  %s\n", "#", "Priority", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for i, o := range rep.Opportunities {
		title := o.Title
		if r := []rune(title); len(r) > 54 {
			title = string(r[:51]) + "..."
		}
		fmt.Fprintf(w, "%-4d  %-10s  %s\n", i+1, o.Priority, title)
	}
	fmt.Fprintf(w, "\n%d opportunities\n", len(rep.Opportunities))
}

func init() {
	parseCmd.Flags().Bool("json", false, "print the parse result as JSON")
	parseCmd.Flags().Bool("yaml", false, "print the parse result as YAML")
	rootCmd.AddCommand(parseCmd)
}
